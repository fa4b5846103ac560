package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// Chunk is one unit of streamed model or execution output.
//
// The concrete types are MessageFragment, CodeFragment, ExecutingMarker,
// OutputFragment and ActiveLineUpdate.
type Chunk interface {
	isChunk()
}

// MessageFragment is a piece of natural-language text.
type MessageFragment struct {
	Text string
}

// CodeFragment is a piece of a code block. Language is set on the fragment
// that declares the block's language, Text on fragments that carry source.
type CodeFragment struct {
	Language string
	Text     string
}

// ExecutingMarker signals that the open code block is complete and should run.
type ExecutingMarker struct{}

// OutputFragment is a piece of execution output.
type OutputFragment struct {
	Text string
}

// ActiveLineUpdate reports the line currently executing. Close ends the
// execution view for the current block.
type ActiveLineUpdate struct {
	Line  int
	Close bool
}

func (MessageFragment) isChunk()  {}
func (CodeFragment) isChunk()     {}
func (ExecutingMarker) isChunk()  {}
func (OutputFragment) isChunk()   {}
func (ActiveLineUpdate) isChunk() {}

// KeyboardInterrupt is the output value a session reports after an interrupted run.
const KeyboardInterrupt = "KeyboardInterrupt"

// MarshalChunk encodes a chunk as a wire object carrying only the keys
// relevant to it.
func MarshalChunk(c Chunk) ([]byte, error) {
	obj := map[string]any{}
	switch c := c.(type) {
	case MessageFragment:
		obj["message"] = c.Text
	case CodeFragment:
		if c.Language != "" {
			obj["language"] = c.Language
		}
		if c.Text != "" || c.Language == "" {
			obj["code"] = c.Text
		}
	case ExecutingMarker:
		obj["executing"] = true
	case OutputFragment:
		obj["output"] = c.Text
	case ActiveLineUpdate:
		if c.Close {
			obj["active_line"] = nil
		} else {
			obj["active_line"] = c.Line
		}
	default:
		return nil, fmt.Errorf("%w: unknown chunk type %T", ErrMalformedChunk, c)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(obj); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalChunk decodes a wire object into a chunk. Absent keys mean no
// update; keys from more than one kind make the object malformed.
func UnmarshalChunk(data []byte) (Chunk, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedChunk, err)
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	switch {
	case slices.Equal(keys, []string{"message"}):
		var text string
		if err := json.Unmarshal(obj["message"], &text); err != nil {
			return nil, fmt.Errorf("%w: message: %v", ErrMalformedChunk, err)
		}
		return MessageFragment{Text: text}, nil

	case slices.Equal(keys, []string{"code"}),
		slices.Equal(keys, []string{"language"}),
		slices.Equal(keys, []string{"code", "language"}):
		var frag CodeFragment
		if raw, ok := obj["language"]; ok {
			if err := json.Unmarshal(raw, &frag.Language); err != nil {
				return nil, fmt.Errorf("%w: language: %v", ErrMalformedChunk, err)
			}
		}
		if raw, ok := obj["code"]; ok {
			if err := json.Unmarshal(raw, &frag.Text); err != nil {
				return nil, fmt.Errorf("%w: code: %v", ErrMalformedChunk, err)
			}
		}
		return frag, nil

	case slices.Equal(keys, []string{"executing"}):
		return ExecutingMarker{}, nil

	case slices.Equal(keys, []string{"output"}):
		var text string
		if err := json.Unmarshal(obj["output"], &text); err != nil {
			return nil, fmt.Errorf("%w: output: %v", ErrMalformedChunk, err)
		}
		return OutputFragment{Text: text}, nil

	case slices.Equal(keys, []string{"active_line"}):
		raw := obj["active_line"]
		if string(raw) == "null" {
			return ActiveLineUpdate{Close: true}, nil
		}
		line, err := parseLine(raw)
		if err != nil {
			return nil, err
		}
		return ActiveLineUpdate{Line: line}, nil
	}

	return nil, fmt.Errorf("%w: unexpected keys %v", ErrMalformedChunk, keys)
}

// parseLine accepts the active line as an integer or a numeric string.
func parseLine(raw json.RawMessage) (int, error) {
	var line int
	if err := json.Unmarshal(raw, &line); err == nil {
		return line, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("%w: active_line: %v", ErrMalformedChunk, err)
	}
	if _, err := fmt.Sscanf(s, "%d", &line); err != nil {
		return 0, fmt.Errorf("%w: active_line %q is not a line number", ErrMalformedChunk, s)
	}
	return line, nil
}
