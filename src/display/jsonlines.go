package display

import (
	"io"

	"github.com/elee1766/interpreter/src/core"
)

// JSONLines writes each chunk as one wire object per line.
type JSONLines struct {
	w io.Writer
}

var _ Renderer = (*JSONLines)(nil)

func NewJSONLines(w io.Writer) *JSONLines {
	return &JSONLines{w: w}
}

func (j *JSONLines) Render(c core.Chunk) error {
	data, err := core.MarshalChunk(c)
	if err != nil {
		return err
	}
	_, err = j.w.Write(append(data, '\n'))
	return err
}

func (j *JSONLines) Flush() error { return nil }
