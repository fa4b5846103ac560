package llm

import "fmt"

// StreamError is a failure of the model request or of the response stream.
type StreamError struct {
	Model string
	Err   error
}

func (e *StreamError) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("model stream: %v", e.Err)
	}
	return fmt.Sprintf("model stream (%s): %v", e.Model, e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}
