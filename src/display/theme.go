package display

import "github.com/charmbracelet/lipgloss"

// Theme holds the colors used by the terminal renderer.
type Theme struct {
	Primary    lipgloss.Color
	Text       lipgloss.Color
	TextMuted  lipgloss.Color
	Background lipgloss.Color
	Error      lipgloss.Color
	// CodeStyle names the chroma style used for code blocks.
	CodeStyle string
}

// DefaultTheme is the built-in dark theme.
func DefaultTheme() Theme {
	return Theme{
		Primary:    lipgloss.Color("#00ff00"),
		Text:       lipgloss.Color("#ffffff"),
		TextMuted:  lipgloss.Color("#808080"),
		Background: lipgloss.Color("#000000"),
		Error:      lipgloss.Color("#ff5f5f"),
		CodeStyle:  "monokai",
	}
}

type styles struct {
	header lipgloss.Style
	gutter lipgloss.Style
	muted  lipgloss.Style
	prompt lipgloss.Style
}

func newStyles(r *lipgloss.Renderer, t Theme) styles {
	return styles{
		header: r.NewStyle().Foreground(t.Primary).Bold(true),
		gutter: r.NewStyle().Foreground(t.TextMuted),
		muted:  r.NewStyle().Foreground(t.TextMuted),
		prompt: r.NewStyle().Foreground(t.Primary),
	}
}
