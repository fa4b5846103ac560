// Package display presents response chunks to a user.
package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/elee1766/interpreter/src/core"
	"github.com/muesli/termenv"
)

// Renderer consumes the chunks of a turn.
type Renderer interface {
	Render(c core.Chunk) error
	// Flush writes anything still buffered at the end of a turn.
	Flush() error
}

type blockKind int

const (
	blockNone blockKind = iota
	blockMessage
	blockCode
	blockOutput
)

// TerminalOptions configures a Terminal.
type TerminalOptions struct {
	// Color enables ANSI styling, markdown styles and syntax highlighting.
	Color bool
	// Width is the markdown wrap width. Zero means 80.
	Width int
	Theme *Theme
}

// Terminal renders chunks for a human. Messages and code are shown when
// their block ends; output is streamed line by line.
type Terminal struct {
	w      io.Writer
	color  bool
	theme  Theme
	styles styles
	md     *glamour.TermRenderer

	kind blockKind
	lang string
	text strings.Builder
	line strings.Builder
}

var _ Renderer = (*Terminal)(nil)

// NewTerminal creates a terminal renderer writing to w.
func NewTerminal(w io.Writer, opts TerminalOptions) (*Terminal, error) {
	theme := DefaultTheme()
	if opts.Theme != nil {
		theme = *opts.Theme
	}
	width := opts.Width
	if width <= 0 {
		width = 80
	}

	style := glamour.WithStylePath("notty")
	if opts.Color {
		style = glamour.WithAutoStyle()
	}
	md, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}

	r := lipgloss.NewRenderer(w)
	if !opts.Color {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Terminal{
		w:      w,
		color:  opts.Color,
		theme:  theme,
		styles: newStyles(r, theme),
		md:     md,
	}, nil
}

func (t *Terminal) Render(c core.Chunk) error {
	switch c := c.(type) {
	case core.MessageFragment:
		if err := t.enter(blockMessage); err != nil {
			return err
		}
		t.text.WriteString(c.Text)

	case core.CodeFragment:
		if c.Language != "" {
			t.lang = c.Language
		}
		if c.Text == "" {
			return nil
		}
		if err := t.enter(blockCode); err != nil {
			return err
		}
		t.text.WriteString(c.Text)

	case core.ExecutingMarker:
		if err := t.enter(blockOutput); err != nil {
			return err
		}

	case core.OutputFragment:
		if t.kind != blockOutput || c.Text == core.KeyboardInterrupt {
			return nil
		}
		return t.output(c.Text)

	case core.ActiveLineUpdate:
		if c.Close && t.kind == blockOutput {
			return t.enter(blockNone)
		}
	}
	return nil
}

func (t *Terminal) Flush() error {
	return t.enter(blockNone)
}

// enter finishes the current block and starts one of kind.
func (t *Terminal) enter(kind blockKind) error {
	if t.kind == kind {
		return nil
	}

	var err error
	switch t.kind {
	case blockMessage:
		err = t.writeMessage(t.text.String())
	case blockCode:
		err = t.writeCode(t.lang, t.text.String())
		t.lang = ""
	case blockOutput:
		err = t.endOutput()
	}
	t.text.Reset()
	t.kind = kind
	if err != nil {
		return err
	}

	if kind == blockOutput {
		_, err = fmt.Fprintln(t.w, t.styles.muted.Render("Output:"))
	}
	return err
}

func (t *Terminal) writeMessage(text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	out, err := t.md.Render(text)
	if err != nil {
		out = text + "\n"
	}
	_, err = io.WriteString(t.w, out)
	return err
}

func (t *Terminal) writeCode(lang, code string) error {
	if lang == "" {
		lang = "text"
	}
	if _, err := fmt.Fprintln(t.w, t.styles.header.Render(lang)); err != nil {
		return err
	}

	code = strings.TrimRight(code, "\n")
	if t.color {
		var b strings.Builder
		if err := quick.Highlight(&b, code, lang, "terminal256", t.theme.CodeStyle); err == nil {
			code = b.String()
		}
	}
	_, err := fmt.Fprintln(t.w, code)
	return err
}

// output writes every complete line of text and keeps the remainder.
func (t *Terminal) output(text string) error {
	t.line.WriteString(text)
	buf := t.line.String()
	i := strings.LastIndexByte(buf, '\n')
	if i < 0 {
		return nil
	}
	t.line.Reset()
	t.line.WriteString(buf[i+1:])

	for _, l := range strings.Split(buf[:i], "\n") {
		if err := t.outputLine(l); err != nil {
			return err
		}
	}
	return nil
}

func (t *Terminal) outputLine(l string) error {
	_, err := fmt.Fprintln(t.w, t.styles.gutter.Render("│")+" "+strings.TrimRight(l, "\r"))
	return err
}

func (t *Terminal) endOutput() error {
	rest := t.line.String()
	t.line.Reset()
	if rest != "" {
		if err := t.outputLine(rest); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(t.w)
	return err
}
