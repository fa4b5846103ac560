// Package llm turns a conversation into a stream of chunks from a chat
// completion model.
package llm

import (
	"context"
	"errors"
	"io"
	"iter"
	"log/slog"

	"github.com/elee1766/interpreter/src/aisdk"
	"github.com/elee1766/interpreter/src/core"
)

// Config configures a Client.
type Config struct {
	Model aisdk.ModelClient

	Temperature float64
	// MaxTokens caps the completion. Zero leaves it to the server.
	MaxTokens int
	// ContextWindow overrides the model's reported context window.
	ContextWindow int
	// SystemMessage replaces the generated default.
	SystemMessage string
	// FunctionCalling selects the execute tool over fenced code blocks.
	FunctionCalling bool
	Languages       []string
	// NoStream asks for the whole response in one reply.
	NoStream bool

	Logger *slog.Logger
}

// Client asks the model for the next response. It keeps no state between
// calls.
type Client struct {
	config Config
	logger *slog.Logger
}

// NewClient creates a client for the configured model.
func NewClient(config Config) *Client {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.FunctionCalling && !config.Model.GetModelInfo().SupportsTools() {
		logger.Info("model does not support tools, using markdown code blocks", "model", config.Model.GetModelInfo().ID)
		config.FunctionCalling = false
	}
	return &Client{
		config: config,
		logger: logger.With("component", "llm"),
	}
}

// Complete streams the model's response to history. The sequence ends after
// the response completes, after the first code block, or at the first error.
func (c *Client) Complete(ctx context.Context, history []core.Message) iter.Seq2[core.Chunk, error] {
	return func(yield func(core.Chunk, error) bool) {
		req := c.request(history)
		model := c.config.Model.GetModelInfo().ID
		logger := c.logger.With("model", model)
		logger.Debug("requesting completion", "messages", len(req.Messages), "function_calling", c.config.FunctionCalling)

		stream, err := c.open(ctx, req)
		if err != nil {
			yield(nil, &StreamError{Model: model, Err: err})
			return
		}
		defer stream.Close()

		var parser chunkParser = newFenceParser()
		if c.config.FunctionCalling {
			parser = newFunctionParser(logger)
		}

		for {
			delta, err := stream.Read()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				yield(nil, &StreamError{Model: model, Err: err})
				return
			}
			if delta == nil {
				break
			}

			chunks, done := parser.feed(delta)
			for _, chunk := range chunks {
				if !yield(chunk, nil) {
					return
				}
			}
			if done {
				logger.Debug("code block complete, closing stream")
				break
			}
		}

		chunks, err := parser.end()
		for _, chunk := range chunks {
			if !yield(chunk, nil) {
				return
			}
		}
		if err != nil {
			yield(nil, err)
		}
	}
}

func (c *Client) open(ctx context.Context, req *aisdk.ChatCompletionRequest) (aisdk.StreamInterface, error) {
	if !c.config.NoStream {
		return c.config.Model.CreateChatCompletionStream(ctx, req)
	}
	resp, err := c.config.Model.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}
	return aisdk.NewResponseStream(resp), nil
}

func (c *Client) request(history []core.Message) *aisdk.ChatCompletionRequest {
	system := c.config.SystemMessage
	if system == "" {
		system = DefaultSystemMessage(c.config.Languages, c.config.FunctionCalling)
	}

	var msgs []*aisdk.Message
	if c.config.FunctionCalling {
		msgs = toolMessages(history)
	} else {
		msgs = markdownMessages(history)
	}
	msgs = append([]*aisdk.Message{{Role: aisdk.RoleSystem, Content: system}}, msgs...)

	if budget := c.budget(); budget > 0 {
		before := len(msgs)
		msgs = trimMessages(msgs, budget)
		if dropped := before - len(msgs); dropped > 0 {
			c.logger.Debug("trimmed history to fit the context window", "dropped", dropped, "budget", budget)
		}
	}

	temperature := c.config.Temperature
	req := &aisdk.ChatCompletionRequest{
		Messages:    msgs,
		Temperature: &temperature,
	}
	if c.config.MaxTokens > 0 {
		maxTokens := c.config.MaxTokens
		req.MaxTokens = &maxTokens
	}
	if c.config.FunctionCalling {
		req.Tools = []*aisdk.ChatTool{ExecuteTool(c.config.Languages)}
		req.ToolChoice = "auto"
	}
	return req
}

// budget is the prompt size the history must fit in, 0 when unknown.
func (c *Client) budget() int {
	window := c.config.ContextWindow
	if window <= 0 {
		window = c.config.Model.GetModelInfo().ContextWindow()
	}
	if window <= 0 {
		return 0
	}
	if budget := window - c.config.MaxTokens; budget > 0 {
		return budget
	}
	return window
}
