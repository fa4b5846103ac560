package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/elee1766/interpreter/src/aisdk"
	"github.com/elee1766/interpreter/src/core"
)

// chunkParser turns streamed completion deltas into chunks.
type chunkParser interface {
	// feed consumes one delta. done reports that the rest of the stream
	// should be discarded.
	feed(delta *aisdk.StreamChunk) (chunks []core.Chunk, done bool)
	// end flushes buffered state once the stream is over.
	end() ([]core.Chunk, error)
}

// functionParser reads an execute tool call out of the tool call deltas.
type functionParser struct {
	logger *slog.Logger
	agg    *aisdk.StreamAggregator

	languageSent bool
	codeSent     string
}

func newFunctionParser(logger *slog.Logger) *functionParser {
	return &functionParser{logger: logger, agg: aisdk.NewStreamAggregator()}
}

func (p *functionParser) feed(delta *aisdk.StreamChunk) ([]core.Chunk, bool) {
	p.agg.AddChunk(delta)
	if len(delta.Choices) == 0 || delta.Choices[0].Delta == nil {
		return nil, false
	}
	d := delta.Choices[0].Delta

	var out []core.Chunk
	if d.Content != "" {
		out = append(out, core.MessageFragment{Text: d.Content})
	}
	if len(d.ToolCalls) == 0 {
		return out, false
	}

	calls := p.agg.ToolCalls()
	if args, ok := parsePartialArgs(calls[0].Function.Arguments); ok {
		out = append(out, p.advance(args)...)
	}
	return out, false
}

// advance emits whatever the arguments add over what was already sent.
func (p *functionParser) advance(args executeArgs) []core.Chunk {
	var out []core.Chunk
	if !p.languageSent && args.Language != "" {
		p.languageSent = true
		out = append(out, core.CodeFragment{Language: args.Language})
	}
	if len(args.Code) > len(p.codeSent) {
		if !strings.HasPrefix(args.Code, p.codeSent) {
			p.logger.Debug("code argument diverged from streamed prefix", "sent", len(p.codeSent))
			return out
		}
		out = append(out, core.CodeFragment{Text: args.Code[len(p.codeSent):]})
		p.codeSent = args.Code
	}
	return out
}

func (p *functionParser) end() ([]core.Chunk, error) {
	calls := p.agg.ToolCalls()
	p.logger.Debug("completion finished", "finish_reason", p.agg.FinishReason, "tool_calls", len(calls))
	if len(calls) == 0 {
		return nil, nil
	}
	if len(calls) > 1 {
		p.logger.Warn("model requested several tool calls, running the first", "count", len(calls))
	}
	call := calls[0]
	if call.Function.Name != "" && call.Function.Name != ExecuteToolName {
		p.logger.Warn("model called an unknown function, treating it as execute", "function", call.Function.Name)
	}

	var args executeArgs
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
		return nil, fmt.Errorf("%w: execute arguments: %v", core.ErrMalformedChunk, err)
	}

	if !strings.HasPrefix(args.Code, p.codeSent) {
		return nil, fmt.Errorf("%w: execute code does not match the streamed code", core.ErrMalformedChunk)
	}
	out := p.advance(args)
	if args.Code == "" {
		p.logger.Warn("model called execute without code")
		return out, nil
	}
	return append(out, core.ExecutingMarker{}), nil
}
