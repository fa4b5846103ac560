// Package core holds the conversation data model and the pure fold that turns
// streamed chunks into message history.
package core

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Kind describes what a message carries.
type Kind int

const (
	KindText Kind = iota
	KindCode
	KindOutput
)

// Message is one turn in the conversation.
//
// A message carries natural-language text, a code block, or the output of a
// code block. HasOutput distinguishes an output message whose output is empty
// from a text message.
type Message struct {
	Role      Role
	Message   string
	Language  string
	Code      string
	Output    string
	HasOutput bool
}

// Kind reports what the message carries.
func (m Message) Kind() Kind {
	switch {
	case m.HasOutput:
		return KindOutput
	case m.Code != "" || m.Language != "":
		return KindCode
	default:
		return KindText
	}
}

// UserMessage builds a user text message.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Message: text}
}

type messageJSON struct {
	Role     Role    `json:"role"`
	Message  string  `json:"message,omitempty"`
	Language string  `json:"language,omitempty"`
	Code     string  `json:"code,omitempty"`
	Output   *string `json:"output,omitempty"`
}

// MarshalJSON writes the flat record form with only the keys the message uses.
func (m Message) MarshalJSON() ([]byte, error) {
	raw := messageJSON{
		Role:     m.Role,
		Message:  m.Message,
		Language: m.Language,
		Code:     m.Code,
	}
	if m.HasOutput {
		out := m.Output
		raw.Output = &out
	}
	// HTML escaping is left to the outer encoder.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(raw); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// UnmarshalJSON reads the flat record form.
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw messageJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Role {
	case RoleUser, RoleAssistant, RoleSystem:
	default:
		return fmt.Errorf("unknown message role %q", raw.Role)
	}
	*m = Message{
		Role:     raw.Role,
		Message:  raw.Message,
		Language: raw.Language,
		Code:     raw.Code,
	}
	if raw.Output != nil {
		m.Output = *raw.Output
		m.HasOutput = true
	}
	return nil
}
