package runner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const testMarker = "##interpreter:test##"

func collect(p *frameParser, pieces ...string) (string, []frameEvent) {
	var out strings.Builder
	var control []frameEvent
	for _, piece := range pieces {
		for _, ev := range p.feed([]byte(piece)) {
			if ev.kind == frameOutput {
				out.WriteString(ev.text)
				continue
			}
			control = append(control, ev)
		}
	}
	for _, ev := range p.flush() {
		out.WriteString(ev.text)
	}
	return out.String(), control
}

func TestFrameParserSplitsMarkers(t *testing.T) {
	out, control := collect(newFrameParser(testMarker),
		testMarker+" line 1\nhello\n"+testMarker+" line 2\nworld\n"+testMarker+" end 0\n",
	)
	assert.Equal(t, "hello\nworld\n", out)
	assert.Equal(t, []frameEvent{
		{kind: frameLine, value: 1},
		{kind: frameLine, value: 2},
		{kind: frameEnd, value: 0},
	}, control)
}

func TestFrameParserMarkerAcrossReads(t *testing.T) {
	full := "partial" + testMarker + " end 3\n"
	for split := 1; split < len(full); split++ {
		out, control := collect(newFrameParser(testMarker), full[:split], full[split:])
		assert.Equal(t, "partial", out, "split at %d", split)
		assert.Equal(t, []frameEvent{{kind: frameEnd, value: 3}}, control, "split at %d", split)
	}
}

func TestFrameParserHoldsIncompleteRune(t *testing.T) {
	p := newFrameParser(testMarker)
	data := []byte("héllo")
	first := p.feed(data[:2])
	assert.Equal(t, []frameEvent{{kind: frameOutput, text: "h"}}, first)
	second := p.feed(data[2:])
	assert.Equal(t, []frameEvent{{kind: frameOutput, text: "éllo"}}, second)
}

func TestFrameParserIgnoresGarbledMarker(t *testing.T) {
	out, control := collect(newFrameParser(testMarker), testMarker+" bogus\nok\n")
	assert.Equal(t, "ok\n", out)
	assert.Empty(t, control)
}
