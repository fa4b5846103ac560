package core

import "fmt"

const truncatedFormat = "Output truncated. Showing the last %d characters.\n\n"

// TruncateOutput keeps the last max runes of out behind a marker. Output at
// or below the limit is returned unchanged, as is any output when max <= 0.
func TruncateOutput(out string, max int) string {
	if max <= 0 {
		return out
	}
	runes := []rune(out)
	if len(runes) <= max {
		return out
	}
	return fmt.Sprintf(truncatedFormat, max) + string(runes[len(runes)-max:])
}
