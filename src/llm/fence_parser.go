package llm

import (
	"strings"

	"github.com/elee1766/interpreter/src/aisdk"
	"github.com/elee1766/interpreter/src/core"
)

const fence = "```"

// defaultFenceLanguage is used for fences that do not name a language.
const defaultFenceLanguage = "python"

type fenceMode int

const (
	fenceText fenceMode = iota
	fenceHeader
	fenceCode
	fenceClosed
)

// fenceParser splits markdown content into text and code fragments. The
// first closed code block ends the response.
type fenceParser struct {
	mode     fenceMode
	buf      string
	codeSeen bool
	// fresh is set until the first byte of the code block is known.
	fresh bool
}

func newFenceParser() *fenceParser {
	return &fenceParser{}
}

func (p *fenceParser) feed(delta *aisdk.StreamChunk) ([]core.Chunk, bool) {
	if len(delta.Choices) == 0 || delta.Choices[0].Delta == nil {
		return nil, false
	}
	return p.write(delta.Choices[0].Delta.Content)
}

func (p *fenceParser) write(s string) ([]core.Chunk, bool) {
	if p.mode == fenceClosed {
		return nil, true
	}
	p.buf += s

	var out []core.Chunk
	for {
		switch p.mode {
		case fenceText:
			i := strings.Index(p.buf, fence)
			if i < 0 {
				keep := heldBack(p.buf, fence)
				if text := p.buf[:len(p.buf)-keep]; text != "" {
					out = append(out, core.MessageFragment{Text: text})
				}
				p.buf = p.buf[len(p.buf)-keep:]
				return out, false
			}
			if i > 0 {
				out = append(out, core.MessageFragment{Text: p.buf[:i]})
			}
			p.buf = p.buf[i+len(fence):]
			p.mode = fenceHeader

		case fenceHeader:
			i := strings.IndexByte(p.buf, '\n')
			if i < 0 {
				return out, false
			}
			lang := strings.TrimSpace(p.buf[:i])
			if lang == "" {
				lang = defaultFenceLanguage
			}
			out = append(out, core.CodeFragment{Language: lang})
			p.buf = p.buf[i+1:]
			p.mode = fenceCode
			p.fresh = true

		case fenceCode:
			if p.fresh {
				if strings.HasPrefix(p.buf, fence) {
					p.buf = ""
					p.mode = fenceClosed
					return out, true
				}
				if strings.HasPrefix(fence, p.buf) {
					return out, false
				}
				p.fresh = false
			}
			i := strings.Index(p.buf, "\n"+fence)
			if i < 0 {
				keep := heldBack(p.buf, "\n"+fence)
				if code := p.buf[:len(p.buf)-keep]; code != "" {
					out = append(out, p.code(code))
				}
				p.buf = p.buf[len(p.buf)-keep:]
				return out, false
			}
			if i > 0 {
				out = append(out, p.code(p.buf[:i]))
			}
			p.buf = ""
			p.mode = fenceClosed
			return out, true

		default:
			return out, true
		}
	}
}

func (p *fenceParser) end() ([]core.Chunk, error) {
	var out []core.Chunk
	switch p.mode {
	case fenceText:
		if p.buf != "" {
			out = append(out, core.MessageFragment{Text: p.buf})
		}
	case fenceHeader:
		// An opening fence with nothing after it is left as text.
		out = append(out, core.MessageFragment{Text: fence + p.buf})
	case fenceCode:
		if p.buf != "" {
			out = append(out, p.code(p.buf))
		}
	}
	p.buf = ""

	if p.codeSeen {
		out = append(out, core.ExecutingMarker{})
	}
	p.mode = fenceClosed
	return out, nil
}

func (p *fenceParser) code(text string) core.Chunk {
	p.codeSeen = true
	return core.CodeFragment{Text: text}
}

// heldBack returns how many trailing bytes of s could begin marker.
func heldBack(s, marker string) int {
	for n := min(len(s), len(marker)-1); n > 0; n-- {
		if strings.HasSuffix(s, marker[:n]) {
			return n
		}
	}
	return 0
}
