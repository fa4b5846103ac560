package llm

import (
	"encoding/json"
	"fmt"

	"github.com/elee1766/interpreter/src/aisdk"
	"github.com/elee1766/interpreter/src/core"
)

const noOutput = "No output"

// toolMessages converts history for a model that calls the execute function.
// Every code block becomes a tool call answered by a tool message.
func toolMessages(history []core.Message) []*aisdk.Message {
	var (
		out     []*aisdk.Message
		pending string
	)
	answer := func(content string) {
		out = append(out, &aisdk.Message{Role: aisdk.RoleTool, ToolCallID: pending, Content: content})
		pending = ""
	}

	for i, m := range history {
		if pending != "" && m.Kind() != core.KindOutput {
			answer(noOutput)
		}

		switch m.Kind() {
		case core.KindCode:
			args, _ := json.Marshal(executeArgs{Language: m.Language, Code: m.Code})
			pending = fmt.Sprintf("call_%d", i)
			call := aisdk.ToolCall{
				ID:   pending,
				Type: "function",
				Function: aisdk.FunctionCall{
					Name:      ExecuteToolName,
					Arguments: string(args),
				},
			}
			if last := lastMessage(out); last != nil && last.Role == aisdk.RoleAssistant && len(last.ToolCalls) == 0 {
				last.ToolCalls = []aisdk.ToolCall{call}
				continue
			}
			out = append(out, &aisdk.Message{Role: aisdk.RoleAssistant, ToolCalls: []aisdk.ToolCall{call}})

		case core.KindOutput:
			content := m.Output
			if content == "" {
				content = noOutput
			}
			if pending == "" {
				out = append(out, &aisdk.Message{Role: aisdk.RoleUser, Content: "Code output: " + content})
				continue
			}
			answer(content)

		default:
			out = append(out, &aisdk.Message{Role: string(m.Role), Content: m.Message})
		}
	}
	if pending != "" {
		answer(noOutput)
	}
	return out
}

// markdownMessages converts history for a model that writes fenced code
// blocks. Output is reported back as a user message.
func markdownMessages(history []core.Message) []*aisdk.Message {
	var out []*aisdk.Message
	for _, m := range history {
		switch m.Kind() {
		case core.KindCode:
			block := fence + m.Language + "\n" + m.Code + "\n" + fence
			if last := lastMessage(out); last != nil && last.Role == aisdk.RoleAssistant {
				last.Content += "\n\n" + block
				continue
			}
			out = append(out, &aisdk.Message{Role: aisdk.RoleAssistant, Content: block})

		case core.KindOutput:
			content := m.Output
			if content == "" {
				content = noOutput
			}
			out = append(out, &aisdk.Message{Role: aisdk.RoleUser, Content: "Code output: " + content})

		default:
			out = append(out, &aisdk.Message{Role: string(m.Role), Content: m.Message})
		}
	}
	return out
}

func lastMessage(msgs []*aisdk.Message) *aisdk.Message {
	if len(msgs) == 0 {
		return nil
	}
	return msgs[len(msgs)-1]
}

// estimateTokens is a rough count of roughly four characters a token.
func estimateTokens(m *aisdk.Message) int {
	n := len(m.Content) + len(m.Role)
	for _, tc := range m.ToolCalls {
		n += len(tc.Function.Name) + len(tc.Function.Arguments)
	}
	return n/4 + 4
}

// trimMessages drops the oldest messages until the estimate fits budget.
// The leading system message and the newest message are always kept, and a
// tool call is dropped together with its answers.
func trimMessages(msgs []*aisdk.Message, budget int) []*aisdk.Message {
	if budget <= 0 || len(msgs) == 0 {
		return msgs
	}

	var system []*aisdk.Message
	rest := msgs
	if rest[0].Role == aisdk.RoleSystem {
		system, rest = rest[:1], rest[1:]
	}

	total := 0
	for _, m := range msgs {
		total += estimateTokens(m)
	}

	for total > budget && len(rest) > 1 {
		n := 1
		for n < len(rest) && rest[n].Role == aisdk.RoleTool {
			n++
		}
		// The newest message answers this call, so both stay.
		if n == len(rest) {
			break
		}
		for _, m := range rest[:n] {
			total -= estimateTokens(m)
		}
		rest = rest[n:]
	}

	out := make([]*aisdk.Message, 0, len(system)+len(rest))
	out = append(out, system...)
	return append(out, rest...)
}
