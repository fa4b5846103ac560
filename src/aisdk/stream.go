package aisdk

import (
	"io"
	"slices"
	"strings"
)

// ResponseStream replays a complete response as one delta so that
// non-streaming replies go through the same readers as streamed ones.
type ResponseStream struct {
	chunk *StreamChunk
}

// NewResponseStream wraps resp.
func NewResponseStream(resp *ChatCompletionResponse) *ResponseStream {
	chunk := &StreamChunk{
		ID:      resp.ID,
		Object:  "chat.completion.chunk",
		Created: resp.Created,
		Model:   resp.Model,
	}
	if resp.Usage.TotalTokens > 0 {
		usage := resp.Usage
		chunk.Usage = &usage
	}
	for _, c := range resp.Choices {
		msg := c.Message
		msg.ToolCalls = slices.Clone(msg.ToolCalls)
		for i := range msg.ToolCalls {
			if msg.ToolCalls[i].Index == nil {
				idx := i
				msg.ToolCalls[i].Index = &idx
			}
		}
		chunk.Choices = append(chunk.Choices, Choice{Index: c.Index, Delta: &msg, FinishReason: c.FinishReason})
	}
	return &ResponseStream{chunk: chunk}
}

func (s *ResponseStream) Read() (*StreamChunk, error) {
	if s.chunk == nil {
		return nil, io.EOF
	}
	c := s.chunk
	s.chunk = nil
	return c, nil
}

func (s *ResponseStream) Close() error {
	s.chunk = nil
	return nil
}

// StreamAggregator folds streamed deltas of the first choice into a complete
// message. Tool call deltas are merged by index.
type StreamAggregator struct {
	ID      string
	Created int64
	Model   string
	Content strings.Builder

	FinishReason string
	Usage        *Usage

	toolCalls []ToolCall
	arguments []*strings.Builder
}

// NewStreamAggregator creates a new stream aggregator.
func NewStreamAggregator() *StreamAggregator {
	return &StreamAggregator{}
}

// AddChunk processes a stream chunk and updates the aggregated state.
func (a *StreamAggregator) AddChunk(chunk *StreamChunk) {
	if a.ID == "" {
		a.ID = chunk.ID
	}
	if a.Created == 0 {
		a.Created = chunk.Created
	}
	if a.Model == "" {
		a.Model = chunk.Model
	}
	if chunk.Usage != nil {
		a.Usage = chunk.Usage
	}

	if len(chunk.Choices) == 0 {
		return
	}
	choice := chunk.Choices[0]

	if choice.Delta != nil {
		a.Content.WriteString(choice.Delta.Content)
		for i, tc := range choice.Delta.ToolCalls {
			a.addToolCall(i, tc)
		}
	}

	if choice.FinishReason != "" {
		a.FinishReason = choice.FinishReason
	}
}

func (a *StreamAggregator) addToolCall(pos int, delta ToolCall) {
	idx := pos
	if delta.Index != nil {
		idx = *delta.Index
	}
	for len(a.toolCalls) <= idx {
		a.toolCalls = append(a.toolCalls, ToolCall{Type: "function"})
		a.arguments = append(a.arguments, &strings.Builder{})
	}

	tc := &a.toolCalls[idx]
	if delta.ID != "" {
		tc.ID = delta.ID
	}
	if delta.Type != "" {
		tc.Type = delta.Type
	}
	if delta.Function.Name != "" {
		tc.Function.Name = delta.Function.Name
	}
	a.arguments[idx].WriteString(delta.Function.Arguments)
}

// ToolCalls returns the tool calls gathered so far with their accumulated
// arguments.
func (a *StreamAggregator) ToolCalls() []ToolCall {
	out := make([]ToolCall, len(a.toolCalls))
	for i, tc := range a.toolCalls {
		tc.Index = nil
		tc.Function.Arguments = a.arguments[i].String()
		out[i] = tc
	}
	return out
}
