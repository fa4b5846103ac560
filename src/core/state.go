package core

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Phase is the position of the response loop within a turn.
type Phase int

const (
	PhaseAwaitingModel Phase = iota
	PhaseStreamingMessage
	PhaseStreamingCode
	PhaseExecuting
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingModel:
		return "awaiting_model"
	case PhaseStreamingMessage:
		return "streaming_message"
	case PhaseStreamingCode:
		return "streaming_code"
	case PhaseExecuting:
		return "executing"
	case PhaseDone:
		return "done"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// State is everything the fold needs to apply the next chunk.
type State struct {
	Messages []Message
	Phase    Phase

	// Language is the language declared for the upcoming or open code block.
	Language string

	// ActiveLine is the line last reported by the running block, 0 if none.
	ActiveLine int

	// Interrupted is set when the running block reported KeyboardInterrupt.
	Interrupted bool

	// MaxOutput caps the visible characters kept per execution. Zero disables it.
	MaxOutput int
}

// NewState starts a turn from an existing history.
func NewState(history []Message, maxOutput int) State {
	return State{
		Messages:  slices.Clone(history),
		Phase:     PhaseAwaitingModel,
		MaxOutput: maxOutput,
	}
}

// Append adds a message and returns the new state.
func (s State) Append(m Message) State {
	s.Messages = append(slices.Clone(s.Messages), m)
	s.Phase = PhaseAwaitingModel
	s.Language = ""
	return s
}

// Finish marks the turn done.
func (s State) Finish() State {
	s.Phase = PhaseDone
	return s
}

// PendingCode returns the code block being executed.
func (s State) PendingCode() (Message, bool) {
	n := len(s.Messages)
	if s.Phase != PhaseExecuting || n < 2 || s.Messages[n-2].Kind() != KindCode {
		return Message{}, false
	}
	return s.Messages[n-2], true
}

// Fold applies one chunk to the state. It never mutates s.
func Fold(s State, c Chunk) (State, error) {
	switch c := c.(type) {
	case MessageFragment:
		if s.Phase != PhaseStreamingMessage {
			s = s.open(Message{Role: RoleAssistant})
			s.Phase = PhaseStreamingMessage
		}
		return s.editLast(func(m *Message) { m.Message += c.Text }), nil

	case CodeFragment:
		if c.Language != "" {
			s.Language = c.Language
			if s.Phase == PhaseStreamingCode && s.last().Language == "" {
				lang := c.Language
				s = s.editLast(func(m *Message) { m.Language = lang })
			}
		}
		if c.Text == "" {
			return s, nil
		}
		if s.Phase != PhaseStreamingCode {
			s = s.open(Message{Role: RoleAssistant, Language: s.Language})
			s.Phase = PhaseStreamingCode
		}
		return s.editLast(func(m *Message) { m.Code += c.Text }), nil

	case ExecutingMarker:
		if s.Phase != PhaseStreamingCode {
			return s, ErrNothingToExecute
		}
		s = s.open(Message{Role: RoleAssistant, HasOutput: true})
		s.Phase = PhaseExecuting
		s.ActiveLine = 0
		s.Interrupted = false
		return s, nil

	case OutputFragment:
		if s.Phase != PhaseExecuting {
			return s, ErrNotExecuting
		}
		text := c.Text
		if text == KeyboardInterrupt {
			s.Interrupted = true
			if out := s.last().Output; out != "" && !strings.HasSuffix(out, "\n") {
				text = "\n" + text
			}
		}
		return s.editLast(func(m *Message) { m.Output += text }), nil

	case ActiveLineUpdate:
		if !c.Close {
			if s.Phase != PhaseExecuting {
				return s, ErrNotExecuting
			}
			s.ActiveLine = c.Line
			return s, nil
		}
		// A close outside an execution is a repeat of an earlier close.
		if s.Phase != PhaseExecuting {
			return s, nil
		}
		limit := s.MaxOutput
		s = s.editLast(func(m *Message) {
			out := strings.TrimRightFunc(ansi.Strip(m.Output), isTrailingSpace)
			m.Output = TruncateOutput(out, limit)
		})
		s.Phase = PhaseAwaitingModel
		s.Language = ""
		s.ActiveLine = 0
		return s, nil

	case nil:
		return s, fmt.Errorf("%w: nil chunk", ErrMalformedChunk)
	}
	return s, fmt.Errorf("%w: unknown chunk type %T", ErrMalformedChunk, c)
}

func (s State) last() Message {
	if len(s.Messages) == 0 {
		return Message{}
	}
	return s.Messages[len(s.Messages)-1]
}

func (s State) open(m Message) State {
	s.Messages = append(slices.Clone(s.Messages), m)
	return s
}

func (s State) editLast(edit func(*Message)) State {
	s.Messages = slices.Clone(s.Messages)
	edit(&s.Messages[len(s.Messages)-1])
	return s
}

func isTrailingSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
