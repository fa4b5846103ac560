package llm

import (
	"strings"
	"testing"

	"github.com/elee1766/interpreter/src/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// feedAll writes input split into pieces of size n and returns the merged
// result.
func feedAll(t *testing.T, input string, n int) (text, lang, code string, executes bool) {
	t.Helper()
	p := newFenceParser()
	var chunks []core.Chunk
	for i := 0; i < len(input); i += n {
		out, done := p.write(input[i:min(i+n, len(input))])
		chunks = append(chunks, out...)
		if done {
			break
		}
	}
	out, err := p.end()
	require.NoError(t, err)
	chunks = append(chunks, out...)

	var tb, cb strings.Builder
	for _, c := range chunks {
		switch c := c.(type) {
		case core.MessageFragment:
			tb.WriteString(c.Text)
		case core.CodeFragment:
			if c.Language != "" {
				lang = c.Language
			}
			cb.WriteString(c.Text)
		case core.ExecutingMarker:
			executes = true
		}
	}
	return tb.String(), lang, cb.String(), executes
}

func TestFenceParserSplitDeltas(t *testing.T) {
	input := "Plan: use `ls` and ``quotes``.\n```shell\nls -la\necho '```'\n```\nafter"
	for n := 1; n <= len(input); n++ {
		text, lang, code, executes := feedAll(t, input, n)
		assert.Equal(t, "Plan: use `ls` and ``quotes``.\n", text, "split %d", n)
		assert.Equal(t, "shell", lang, "split %d", n)
		assert.Equal(t, "ls -la\necho '```'", code, "split %d", n)
		assert.True(t, executes, "split %d", n)
	}
}

func TestFenceParserCases(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		text     string
		lang     string
		code     string
		executes bool
	}{
		{name: "text only", input: "just talking", text: "just talking"},
		{name: "no language", input: "```\nprint(1)\n```", lang: defaultFenceLanguage, code: "print(1)", executes: true},
		{name: "unterminated block", input: "```python\nx = 1", lang: "python", code: "x = 1", executes: true},
		{name: "empty block", input: "```python\n```", lang: "python"},
		{name: "dangling fence", input: "see ```py", text: "see ```py"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, lang, code, executes := feedAll(t, tt.input, 3)
			assert.Equal(t, tt.text, text)
			assert.Equal(t, tt.lang, lang)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.executes, executes)
		})
	}
}
