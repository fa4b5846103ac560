package runner

import (
	"bytes"
	"strconv"
	"strings"
	"unicode/utf8"
)

type frameKind int

const (
	frameOutput frameKind = iota
	frameLine
	frameEnd
)

type frameEvent struct {
	kind  frameKind
	text  string
	value int
}

// frameParser splits driver output into plain text and marker lines of the
// form "<marker> line N" or "<marker> end STATUS". Markers may begin in the
// middle of a line of output.
type frameParser struct {
	marker []byte
	buf    []byte
}

func newFrameParser(marker string) *frameParser {
	return &frameParser{marker: []byte(marker)}
}

func (p *frameParser) feed(data []byte) []frameEvent {
	p.buf = append(p.buf, data...)
	var events []frameEvent

	for len(p.buf) > 0 {
		idx := bytes.Index(p.buf, p.marker)
		if idx < 0 {
			keep := partialPrefix(p.buf, p.marker)
			if keep == 0 {
				keep = incompleteRune(p.buf)
			}
			if text := p.buf[:len(p.buf)-keep]; len(text) > 0 {
				events = append(events, frameEvent{kind: frameOutput, text: string(text)})
			}
			p.buf = append(p.buf[:0], p.buf[len(p.buf)-keep:]...)
			break
		}
		if idx > 0 {
			events = append(events, frameEvent{kind: frameOutput, text: string(p.buf[:idx])})
			p.buf = p.buf[idx:]
			continue
		}

		nl := bytes.IndexByte(p.buf, '\n')
		if nl < 0 {
			break
		}
		line := string(p.buf[len(p.marker):nl])
		p.buf = p.buf[nl+1:]
		if ev, ok := parseMarker(line); ok {
			events = append(events, ev)
		}
	}
	return events
}

// flush returns whatever output is still buffered.
func (p *frameParser) flush() []frameEvent {
	if len(p.buf) == 0 {
		return nil
	}
	text := string(p.buf)
	p.buf = nil
	return []frameEvent{{kind: frameOutput, text: text}}
}

func parseMarker(line string) (frameEvent, bool) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return frameEvent{}, false
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		return frameEvent{}, false
	}
	switch fields[0] {
	case "line":
		return frameEvent{kind: frameLine, value: n}, true
	case "end":
		return frameEvent{kind: frameEnd, value: n}, true
	default:
		return frameEvent{}, false
	}
}

// partialPrefix reports how many trailing bytes of buf could start marker.
func partialPrefix(buf, marker []byte) int {
	max := len(marker) - 1
	if max > len(buf) {
		max = len(buf)
	}
	for n := max; n > 0; n-- {
		if bytes.HasSuffix(buf, marker[:n]) {
			return n
		}
	}
	return 0
}

// incompleteRune reports how many trailing bytes form an unfinished UTF-8
// sequence.
func incompleteRune(buf []byte) int {
	for n := 1; n < utf8.UTFMax && n <= len(buf); n++ {
		b := buf[len(buf)-n]
		if !utf8.RuneStart(b) {
			continue
		}
		if !utf8.FullRune(buf[len(buf)-n:]) {
			return n
		}
		return 0
	}
	return 0
}
