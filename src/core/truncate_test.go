package core

import (
	"strconv"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncateOutput(t *testing.T) {
	tests := []struct {
		name      string
		out       string
		max       int
		truncated bool
	}{
		{name: "below limit", out: "short", max: 10},
		{name: "at limit", out: strings.Repeat("x", 10), max: 10},
		{name: "above limit", out: strings.Repeat("x", 11) + "tail", max: 10, truncated: true},
		{name: "multibyte", out: strings.Repeat("é", 30), max: 20, truncated: true},
		{name: "disabled", out: strings.Repeat("x", 5000), max: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateOutput(tt.out, tt.max)
			if !tt.truncated {
				assert.Equal(t, tt.out, got)
				return
			}
			marker := "Output truncated. Showing the last " + strconv.Itoa(tt.max) + " characters.\n\n"
			assert.True(t, strings.HasPrefix(got, marker), "missing marker in %q", got)
			kept := strings.TrimPrefix(got, marker)
			assert.Equal(t, tt.max, utf8.RuneCountInString(kept))
			assert.True(t, strings.HasSuffix(tt.out, kept))
		})
	}
}
