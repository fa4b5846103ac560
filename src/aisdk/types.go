// Package aisdk defines the OpenAI-compatible chat completion wire types and
// the provider interfaces the model client is written against.
package aisdk

import (
	"slices"
)

// Message represents a single message in a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	// Name identifies the function for tool responses
	Name string `json:"name,omitempty"`
	// ToolCallID references the call a tool response answers
	ToolCallID string `json:"tool_call_id,omitempty"`
	// ToolCalls contains function calls requested by the assistant.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall represents a function call request from the model (OpenAI format).
type ToolCall struct {
	// Index orders tool call deltas within a streamed choice.
	Index    *int         `json:"index,omitempty"`
	ID       string       `json:"id,omitempty"`
	Type     string       `json:"type,omitempty"` // Always "function" for now
	Function FunctionCall `json:"function"`
}

// FunctionCall contains the function name and arguments. Arguments is the
// JSON text of the call's arguments; in stream deltas it is a fragment.
type FunctionCall struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments"`
}

// ChatCompletionRequest represents a request to the chat completions endpoint.
type ChatCompletionRequest struct {
	Model       string      `json:"model"`
	Messages    []*Message  `json:"messages"`
	Temperature *float64    `json:"temperature,omitempty"`
	MaxTokens   *int        `json:"max_tokens,omitempty"`
	Stream      bool        `json:"stream,omitempty"`
	Stop        []string    `json:"stop,omitempty"`
	Tools       []*ChatTool `json:"tools,omitempty"`
	ToolChoice  string      `json:"tool_choice,omitempty"` // "auto", "none", or specific tool
	User        string      `json:"user,omitempty"`
}

// ChatCompletionResponse represents a response from the chat completions endpoint.
type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Choice represents a single completion choice.
type Choice struct {
	Index        int      `json:"index"`
	Message      Message  `json:"message"`
	FinishReason string   `json:"finish_reason"`
	Delta        *Message `json:"delta,omitempty"` // For streaming
}

// Usage represents token usage information.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// StreamChunk represents a single chunk in a streaming response.
type StreamChunk struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

// StreamInterface defines the interface for reading streaming responses.
type StreamInterface interface {
	// Read reads the next chunk from the stream. It returns io.EOF once the
	// stream is complete.
	Read() (*StreamChunk, error)

	// Close closes the stream.
	Close() error
}

// ModelInfo describes a model as reported by the models endpoint.
type ModelInfo struct {
	ID            string `json:"id"`
	Name          string `json:"name,omitempty"`
	Created       int64  `json:"created,omitempty"` // Unix timestamp
	OwnedBy       string `json:"owned_by,omitempty"`
	Description   string `json:"description,omitempty"`
	ContextLength int    `json:"context_length,omitempty"`

	Architecture        *Architecture `json:"architecture,omitempty"`
	Pricing             *Pricing      `json:"pricing,omitempty"`
	TopProvider         *TopProvider  `json:"top_provider,omitempty"`
	SupportedParameters []string      `json:"supported_parameters,omitempty"`
}

// SupportsTools reports whether the model accepts tool definitions. Models
// that do not list their parameters are assumed to.
func (m *ModelInfo) SupportsTools() bool {
	if m == nil || len(m.SupportedParameters) == 0 {
		return true
	}
	return slices.Contains(m.SupportedParameters, "tools")
}

// ContextWindow returns the largest prompt the model accepts, or 0 when
// unknown.
func (m *ModelInfo) ContextWindow() int {
	if m == nil {
		return 0
	}
	if m.ContextLength > 0 {
		return m.ContextLength
	}
	if m.TopProvider != nil {
		return m.TopProvider.ContextLength
	}
	return 0
}

// Pricing contains per-token model pricing
type Pricing struct {
	Prompt     string `json:"prompt"`     // Cost per input token
	Completion string `json:"completion"` // Cost per output token
}

// Architecture contains model architecture information
type Architecture struct {
	InputModalities  []string `json:"input_modalities,omitempty"`  // e.g., ["text", "image"]
	OutputModalities []string `json:"output_modalities,omitempty"` // e.g., ["text"]
	Tokenizer        string   `json:"tokenizer,omitempty"`
}

// TopProvider contains provider-specific limits
type TopProvider struct {
	ContextLength       int  `json:"context_length,omitempty"`
	MaxCompletionTokens int  `json:"max_completion_tokens,omitempty"`
	IsModerated         bool `json:"is_moderated,omitempty"`
}
