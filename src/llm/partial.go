package llm

import (
	"encoding/json"
	"strconv"
	"strings"
)

// closePartialJSON completes a truncated JSON document by closing any open
// string, array and object. An escape at the end of an open string that
// cannot decode yet is dropped. The result may still be invalid, for
// example when the input stops after a key.
func closePartialJSON(s string) string {
	var (
		stack   []byte
		inStr   bool
		escaped bool
		escapes []int
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
				escapes = append(escapes, i)
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
			escapes = escapes[:0]
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	var b strings.Builder
	b.Grow(len(s) + len(stack) + 1)
	if inStr {
		b.WriteString(trimOpenEscape(s, escapes))
		b.WriteByte('"')
	} else {
		s = strings.TrimRight(s, " \t\r\n")
		s = strings.TrimSuffix(s, ",")
		b.WriteString(s)
		if strings.HasSuffix(s, ":") {
			b.WriteString("null")
		}
	}
	for i := len(stack) - 1; i >= 0; i-- {
		b.WriteByte(stack[i])
	}
	return b.String()
}

// trimOpenEscape drops trailing escapes that are not complete yet: a lone
// backslash, a short \u escape, or a high surrogate still waiting for its
// low half. escapes holds the offsets of the string's escapes in order.
func trimOpenEscape(s string, escapes []int) string {
	for i := len(escapes) - 1; i >= 0; i-- {
		tail := s[escapes[i]:]
		switch {
		case tail == `\`:
		case strings.HasPrefix(tail, `\u`) && len(tail) < 6:
		case len(tail) == 6 && isHighSurrogate(tail):
		default:
			return s
		}
		s = s[:escapes[i]]
	}
	return s
}

func isHighSurrogate(escape string) bool {
	if !strings.HasPrefix(escape, `\u`) {
		return false
	}
	v, err := strconv.ParseUint(escape[2:], 16, 16)
	return err == nil && v >= 0xD800 && v <= 0xDBFF
}

// parsePartialArgs decodes as much of a streamed execute call as is
// available. ok is false until the fragment closes into valid JSON.
func parsePartialArgs(fragment string) (args executeArgs, ok bool) {
	if strings.TrimSpace(fragment) == "" {
		return args, false
	}
	if err := json.Unmarshal([]byte(closePartialJSON(fragment)), &args); err != nil {
		return args, false
	}
	return args, true
}
