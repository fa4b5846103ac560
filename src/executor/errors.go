package executor

import "errors"

var (
	// Config validation errors
	ErrModelClientRequired = errors.New("model client is required")
	ErrRunnerRequired      = errors.New("code runner is required")

	// Execution errors
	ErrMaxTurnsExceeded = errors.New("maximum turns exceeded")
)
