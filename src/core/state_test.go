package core

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func foldAll(t *testing.T, s State, chunks ...Chunk) State {
	t.Helper()
	for _, c := range chunks {
		next, err := Fold(s, c)
		require.NoError(t, err, "folding %#v", c)
		s = next
	}
	return s
}

func TestFoldMessageFragmentsConcatenate(t *testing.T) {
	tests := []struct {
		name      string
		fragments []string
	}{
		{name: "single", fragments: []string{"hello"}},
		{name: "several", fragments: []string{"The ", "result ", "is ", "4."}},
		{name: "empty pieces", fragments: []string{"", "a", "", "b"}},
		{name: "unicode", fragments: []string{"héllo ", "wörld ", "🙂"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState([]Message{UserMessage("hi")}, 0)
			for _, f := range tt.fragments {
				s = foldAll(t, s, MessageFragment{Text: f})
			}
			require.Len(t, s.Messages, 2)
			assert.Equal(t, strings.Join(tt.fragments, ""), s.Messages[1].Message)
			assert.Equal(t, RoleAssistant, s.Messages[1].Role)
			assert.Equal(t, PhaseStreamingMessage, s.Phase)
		})
	}
}

func TestFoldLanguageBeforeCode(t *testing.T) {
	s := foldAll(t, NewState(nil, 0),
		CodeFragment{Language: "python"},
		CodeFragment{Text: "print("},
		CodeFragment{Text: "2+2)"},
	)
	require.Len(t, s.Messages, 1)
	assert.Equal(t, Message{Role: RoleAssistant, Language: "python", Code: "print(2+2)"}, s.Messages[0])
	assert.Equal(t, PhaseStreamingCode, s.Phase)
}

func TestFoldLanguageAfterCode(t *testing.T) {
	s := foldAll(t, NewState(nil, 0),
		CodeFragment{Text: "ls -la"},
		CodeFragment{Language: "shell"},
	)
	require.Len(t, s.Messages, 1)
	assert.Equal(t, "shell", s.Messages[0].Language)
	assert.Equal(t, "ls -la", s.Messages[0].Code)
}

func TestFoldMessageThenCodeOpensNewMessage(t *testing.T) {
	s := foldAll(t, NewState(nil, 0),
		MessageFragment{Text: "Let me check."},
		CodeFragment{Language: "python", Text: "x = 1"},
		MessageFragment{Text: "Done."},
	)
	want := []Message{
		{Role: RoleAssistant, Message: "Let me check."},
		{Role: RoleAssistant, Language: "python", Code: "x = 1"},
		{Role: RoleAssistant, Message: "Done."},
	}
	if diff := cmp.Diff(want, s.Messages); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestFoldExecutionLifecycle(t *testing.T) {
	s := foldAll(t, NewState([]Message{UserMessage("print 2+2")}, 2000),
		CodeFragment{Language: "python"},
		CodeFragment{Text: "print(2+2)"},
		ExecutingMarker{},
	)
	assert.Equal(t, PhaseExecuting, s.Phase)
	code, ok := s.PendingCode()
	require.True(t, ok)
	assert.Equal(t, "print(2+2)", code.Code)

	s = foldAll(t, s,
		ActiveLineUpdate{Line: 1},
		OutputFragment{Text: "4\n"},
	)
	assert.Equal(t, 1, s.ActiveLine)

	s = foldAll(t, s, ActiveLineUpdate{Close: true})
	assert.Equal(t, PhaseAwaitingModel, s.Phase)
	assert.Zero(t, s.ActiveLine)

	s = foldAll(t, s, MessageFragment{Text: "The result is 4."}).Finish()
	want := []Message{
		UserMessage("print 2+2"),
		{Role: RoleAssistant, Language: "python", Code: "print(2+2)"},
		{Role: RoleAssistant, Output: "4", HasOutput: true},
		{Role: RoleAssistant, Message: "The result is 4."},
	}
	if diff := cmp.Diff(want, s.Messages); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, PhaseDone, s.Phase)
}

func TestFoldKeyboardInterruptKeptInHistory(t *testing.T) {
	s := foldAll(t, NewState(nil, 0),
		CodeFragment{Language: "python", Text: "while True: pass"},
		ExecutingMarker{},
		OutputFragment{Text: "partial\n"},
		OutputFragment{Text: KeyboardInterrupt},
		ActiveLineUpdate{Close: true},
	)
	assert.True(t, s.Interrupted)
	assert.Equal(t, "partial\n"+KeyboardInterrupt, s.Messages[1].Output)
	assert.Equal(t, PhaseAwaitingModel, s.Phase)

	s = foldAll(t, NewState(nil, 0),
		CodeFragment{Language: "python", Text: "while True: pass"},
		ExecutingMarker{},
		OutputFragment{Text: "tick"},
		OutputFragment{Text: KeyboardInterrupt},
		ActiveLineUpdate{Close: true},
	)
	assert.Equal(t, "tick\n"+KeyboardInterrupt, s.Messages[1].Output)

	s = foldAll(t, NewState(nil, 0),
		CodeFragment{Language: "python", Text: "while True: pass"},
		ExecutingMarker{},
		OutputFragment{Text: KeyboardInterrupt},
		ActiveLineUpdate{Close: true},
	)
	assert.Equal(t, KeyboardInterrupt, s.Messages[1].Output)
}

func TestFoldCloseStripsAnsiAndTruncates(t *testing.T) {
	s := foldAll(t, NewState(nil, 5),
		CodeFragment{Language: "shell", Text: "ls --color"},
		ExecutingMarker{},
		OutputFragment{Text: "\x1b[31mabcdefgh\x1b[0m  \n"},
		ActiveLineUpdate{Close: true},
	)
	assert.Equal(t, TruncateOutput("abcdefgh", 5), s.Messages[1].Output)
	assert.True(t, strings.HasSuffix(s.Messages[1].Output, "defgh"))
}

func TestFoldCloseIsOneShot(t *testing.T) {
	s := foldAll(t, NewState(nil, 0),
		CodeFragment{Language: "shell", Text: "echo hi"},
		ExecutingMarker{},
		OutputFragment{Text: "hi\n"},
		ActiveLineUpdate{Close: true},
	)
	again := foldAll(t, s, ActiveLineUpdate{Close: true})
	assert.Equal(t, s, again)
}

func TestFoldMalformedSequences(t *testing.T) {
	tests := []struct {
		name   string
		prefix []Chunk
		chunk  Chunk
		want   error
	}{
		{
			name:  "executing without code",
			chunk: ExecutingMarker{},
			want:  ErrNothingToExecute,
		},
		{
			name:   "executing after message",
			prefix: []Chunk{MessageFragment{Text: "hi"}},
			chunk:  ExecutingMarker{},
			want:   ErrNothingToExecute,
		},
		{
			name:  "output outside execution",
			chunk: OutputFragment{Text: "stray"},
			want:  ErrNotExecuting,
		},
		{
			name:  "active line outside execution",
			chunk: ActiveLineUpdate{Line: 3},
			want:  ErrNotExecuting,
		},
		{
			name:  "nil chunk",
			chunk: nil,
			want:  ErrMalformedChunk,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := foldAll(t, NewState(nil, 0), tt.prefix...)
			before := len(s.Messages)
			_, err := Fold(s, tt.chunk)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrMalformedChunk)
			assert.Len(t, s.Messages, before)
		})
	}
}

func TestFoldDoesNotMutateInput(t *testing.T) {
	base := NewState([]Message{UserMessage("hi")}, 0)
	base = foldAll(t, base, MessageFragment{Text: "a"})
	snapshot := NewState(base.Messages, 0)

	_, err := Fold(base, MessageFragment{Text: "b"})
	require.NoError(t, err)
	_, err = Fold(base, CodeFragment{Language: "python", Text: "x"})
	require.NoError(t, err)

	assert.Equal(t, snapshot.Messages, base.Messages)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "awaiting_model", PhaseAwaitingModel.String())
	assert.Equal(t, "executing", PhaseExecuting.String())
	assert.Equal(t, "done", PhaseDone.String())
	assert.Equal(t, "phase(42)", Phase(42).String())
}
