package display

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Confirmer asks the user before code runs. It also serves other prompts
// that share the same input.
type Confirmer struct {
	mu     sync.Mutex
	lines  chan lineResult
	reader *bufio.Reader
	out    io.Writer
	styles styles
	once   sync.Once
}

type lineResult struct {
	line string
	err  error
}

// NewConfirmer reads answers from in and writes prompts to out.
func NewConfirmer(in io.Reader, out io.Writer) *Confirmer {
	return &Confirmer{
		reader: bufio.NewReader(in),
		out:    out,
		styles: newStyles(lipgloss.NewRenderer(out), DefaultTheme()),
	}
}

// Approve asks whether the code may run. Anything but y or yes declines.
func (c *Confirmer) Approve(ctx context.Context, language, code string) (bool, error) {
	line, err := c.Ask(ctx, fmt.Sprintf("Would you like to run this %s code? (y/N) ", language))
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Ask writes prompt and returns the next input line without its newline. It
// returns io.EOF once the input is exhausted.
func (c *Confirmer) Ask(ctx context.Context, prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := io.WriteString(c.out, c.styles.prompt.Render(prompt)); err != nil {
		return "", err
	}
	line, err := c.readLine(ctx)
	return strings.TrimRight(line, "\r\n"), err
}

// readLine waits for the next input line or for ctx to end. A read left
// pending by a cancelled context is delivered to the next call.
func (c *Confirmer) readLine(ctx context.Context) (string, error) {
	c.once.Do(func() {
		c.lines = make(chan lineResult)
		go func() {
			for {
				line, err := c.reader.ReadString('\n')
				c.lines <- lineResult{line: line, err: err}
				if err != nil {
					close(c.lines)
					return
				}
			}
		}()
	})

	select {
	case res, ok := <-c.lines:
		if !ok {
			return "", io.EOF
		}
		if res.err != nil && res.line != "" {
			return res.line, nil
		}
		return res.line, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
