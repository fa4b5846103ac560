package llm

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/elee1766/interpreter/src/aisdk"
	"github.com/elee1766/interpreter/src/core"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStream struct {
	chunks []*aisdk.StreamChunk
	err    error
	closed bool
}

func (s *fakeStream) Read() (*aisdk.StreamChunk, error) {
	if len(s.chunks) == 0 {
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}
	c := s.chunks[0]
	s.chunks = s.chunks[1:]
	return c, nil
}

func (s *fakeStream) Close() error {
	s.closed = true
	return nil
}

type fakeModel struct {
	info     *aisdk.ModelInfo
	stream   *fakeStream
	response *aisdk.ChatCompletionResponse
	err      error
	request  *aisdk.ChatCompletionRequest
}

func (m *fakeModel) CreateChatCompletion(_ context.Context, req *aisdk.ChatCompletionRequest) (*aisdk.ChatCompletionResponse, error) {
	m.request = req
	if m.err != nil {
		return nil, m.err
	}
	if m.response == nil {
		return nil, errors.New("no response scripted")
	}
	return m.response, nil
}

func (m *fakeModel) CreateChatCompletionStream(_ context.Context, req *aisdk.ChatCompletionRequest) (aisdk.StreamInterface, error) {
	m.request = req
	if m.err != nil {
		return nil, m.err
	}
	return m.stream, nil
}

func (m *fakeModel) GetModelInfo() *aisdk.ModelInfo {
	if m.info == nil {
		return &aisdk.ModelInfo{ID: "fake"}
	}
	return m.info
}

func content(text string) *aisdk.StreamChunk {
	return &aisdk.StreamChunk{Choices: []aisdk.Choice{{Delta: &aisdk.Message{Content: text}}}}
}

func toolDelta(id, name, args string) *aisdk.StreamChunk {
	idx := 0
	return &aisdk.StreamChunk{Choices: []aisdk.Choice{{Delta: &aisdk.Message{ToolCalls: []aisdk.ToolCall{{
		Index:    &idx,
		ID:       id,
		Function: aisdk.FunctionCall{Name: name, Arguments: args},
	}}}}}}
}

func collect(t *testing.T, seq func(func(core.Chunk, error) bool)) ([]core.Chunk, error) {
	t.Helper()
	var out []core.Chunk
	for c, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, c)
	}
	return out, nil
}

func TestCompleteFunctionCall(t *testing.T) {
	stream := &fakeStream{chunks: []*aisdk.StreamChunk{
		content("Let me check."),
		toolDelta("call_a", "execute", `{"langu`),
		toolDelta("", "", `age": "python", "co`),
		toolDelta("", "", `de": "print(\"hi`),
		toolDelta("", "", `\")\nprint(2)"}`),
	}}
	model := &fakeModel{stream: stream}
	client := NewClient(Config{Model: model, FunctionCalling: true, Languages: []string{"python", "shell"}, Temperature: 0.5})

	chunks, err := collect(t, client.Complete(context.Background(), []core.Message{core.UserMessage("hi")}))
	require.NoError(t, err)

	want := []core.Chunk{
		core.MessageFragment{Text: "Let me check."},
		core.CodeFragment{Language: "python"},
		core.CodeFragment{Text: "print(\"hi"},
		core.CodeFragment{Text: "\")\nprint(2)"},
		core.ExecutingMarker{},
	}
	assert.Empty(t, cmp.Diff(want, chunks))
	assert.True(t, stream.closed)

	req := model.request
	require.Len(t, req.Tools, 1)
	assert.Equal(t, ExecuteToolName, req.Tools[0].Function.Name)
	assert.Equal(t, aisdk.RoleSystem, req.Messages[0].Role)
	assert.Equal(t, 0.5, *req.Temperature)
	assert.Nil(t, req.MaxTokens)
}

func TestCompleteSplitSurrogatePair(t *testing.T) {
	stream := &fakeStream{chunks: []*aisdk.StreamChunk{
		toolDelta("call_a", "execute", `{"language": "python", "code": "print('\ud83d`),
		toolDelta("", "", `\ude00')"}`),
	}}
	client := NewClient(Config{Model: &fakeModel{stream: stream}, FunctionCalling: true})

	chunks, err := collect(t, client.Complete(context.Background(), []core.Message{core.UserMessage("smile")}))
	require.NoError(t, err)

	want := []core.Chunk{
		core.CodeFragment{Language: "python"},
		core.CodeFragment{Text: "print('"},
		core.CodeFragment{Text: "\U0001F600')"},
		core.ExecutingMarker{},
	}
	assert.Empty(t, cmp.Diff(want, chunks))
}

func TestCompleteWithoutStreaming(t *testing.T) {
	model := &fakeModel{response: &aisdk.ChatCompletionResponse{
		Choices: []aisdk.Choice{{
			Message: aisdk.Message{
				Role:    aisdk.RoleAssistant,
				Content: "Listing files.",
				ToolCalls: []aisdk.ToolCall{{
					ID:       "call_a",
					Type:     "function",
					Function: aisdk.FunctionCall{Name: "execute", Arguments: `{"language": "shell", "code": "ls"}`},
				}},
			},
			FinishReason: "tool_calls",
		}},
	}}
	client := NewClient(Config{Model: model, FunctionCalling: true, NoStream: true})

	chunks, err := collect(t, client.Complete(context.Background(), []core.Message{core.UserMessage("ls")}))
	require.NoError(t, err)

	want := []core.Chunk{
		core.MessageFragment{Text: "Listing files."},
		core.CodeFragment{Language: "shell"},
		core.CodeFragment{Text: "ls"},
		core.ExecutingMarker{},
	}
	assert.Empty(t, cmp.Diff(want, chunks))
	require.NotNil(t, model.request)
	assert.False(t, model.request.Stream)
}

func TestCompleteFoldsIntoHistory(t *testing.T) {
	stream := &fakeStream{chunks: []*aisdk.StreamChunk{
		toolDelta("call_a", "execute", `{"code": "ls", "language": "shell"}`),
	}}
	client := NewClient(Config{Model: &fakeModel{stream: stream}, FunctionCalling: true})

	state := core.NewState([]core.Message{core.UserMessage("list")}, 100)
	for c, err := range client.Complete(context.Background(), state.Messages) {
		require.NoError(t, err)
		state, err = core.Fold(state, c)
		require.NoError(t, err)
	}
	assert.Equal(t, core.PhaseExecuting, state.Phase)
	code, ok := state.PendingCode()
	require.True(t, ok)
	assert.Equal(t, "shell", code.Language)
	assert.Equal(t, "ls", code.Code)
}

func TestCompleteMalformedArguments(t *testing.T) {
	stream := &fakeStream{chunks: []*aisdk.StreamChunk{
		toolDelta("call_a", "execute", `{"language": "python", "code": "x`),
	}}
	client := NewClient(Config{Model: &fakeModel{stream: stream}, FunctionCalling: true})

	_, err := collect(t, client.Complete(context.Background(), nil))
	assert.ErrorIs(t, err, core.ErrMalformedChunk)
}

func TestCompleteTextOnly(t *testing.T) {
	stream := &fakeStream{chunks: []*aisdk.StreamChunk{content("Hello"), content(" there")}}
	client := NewClient(Config{Model: &fakeModel{stream: stream}, FunctionCalling: true})

	chunks, err := collect(t, client.Complete(context.Background(), nil))
	require.NoError(t, err)
	assert.Equal(t, []core.Chunk{core.MessageFragment{Text: "Hello"}, core.MessageFragment{Text: " there"}}, chunks)
}

func TestCompleteStreamErrors(t *testing.T) {
	boom := errors.New("connection reset")

	client := NewClient(Config{Model: &fakeModel{err: boom}})
	_, err := collect(t, client.Complete(context.Background(), nil))
	var streamErr *StreamError
	require.True(t, errors.As(err, &streamErr))
	assert.ErrorIs(t, err, boom)

	stream := &fakeStream{chunks: []*aisdk.StreamChunk{content("partial")}, err: boom}
	client = NewClient(Config{Model: &fakeModel{stream: stream}})
	chunks, err := collect(t, client.Complete(context.Background(), nil))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []core.Chunk{core.MessageFragment{Text: "partial"}}, chunks)
}

func TestCompleteMarkdownMode(t *testing.T) {
	stream := &fakeStream{chunks: []*aisdk.StreamChunk{
		content("Running it:\n``"),
		content("`sh"),
		content("ell\necho hi\n``"),
		content("`\nignored text"),
	}}
	model := &fakeModel{stream: stream}
	client := NewClient(Config{Model: model, FunctionCalling: false})

	chunks, err := collect(t, client.Complete(context.Background(), nil))
	require.NoError(t, err)
	want := []core.Chunk{
		core.MessageFragment{Text: "Running it:\n"},
		core.CodeFragment{Language: "shell"},
		core.CodeFragment{Text: "echo hi"},
		core.ExecutingMarker{},
	}
	assert.Empty(t, cmp.Diff(want, chunks))
	assert.Empty(t, model.request.Tools)
	assert.True(t, stream.closed)
}

func TestModelWithoutToolsFallsBackToMarkdown(t *testing.T) {
	model := &fakeModel{
		info:   &aisdk.ModelInfo{ID: "plain", SupportedParameters: []string{"temperature"}},
		stream: &fakeStream{},
	}
	client := NewClient(Config{Model: model, FunctionCalling: true})
	_, err := collect(t, client.Complete(context.Background(), nil))
	require.NoError(t, err)
	assert.Empty(t, model.request.Tools)
}

func TestCompleteUsesConfiguredSystemMessage(t *testing.T) {
	model := &fakeModel{stream: &fakeStream{}}
	client := NewClient(Config{Model: model, SystemMessage: "be brief", MaxTokens: 64})
	_, err := collect(t, client.Complete(context.Background(), []core.Message{core.UserMessage("hi")}))
	require.NoError(t, err)

	require.Len(t, model.request.Messages, 2)
	assert.Equal(t, "be brief", model.request.Messages[0].Content)
	assert.Equal(t, 64, *model.request.MaxTokens)
}

func TestDefaultSystemMessage(t *testing.T) {
	msg := DefaultSystemMessage([]string{"python", "shell"}, true)
	assert.Contains(t, msg, "execute function")
	assert.Contains(t, msg, "Available languages: python, shell.")
	assert.Contains(t, msg, "<env>")

	assert.Contains(t, DefaultSystemMessage(nil, false), "fenced Markdown code block")
}
