package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/elee1766/interpreter/src/app"
	"github.com/elee1766/interpreter/src/core"
	"github.com/elee1766/interpreter/src/display"
	"github.com/mattn/go-isatty"
)

// ConversationsCmd inspects saved conversations
type ConversationsCmd struct {
	List ConversationListCmd `cmd:"" default:"1" help:"List saved conversations"`
	Show ConversationShowCmd `cmd:"" help:"Print a saved conversation"`
}

// ConversationListCmd lists saved conversations, newest first
type ConversationListCmd struct {
	Format string `help:"Output format (table, json)" default:"table" enum:"table,json"`
}

func (c *ConversationListCmd) Run(ctx context.Context, cli *CLI) error {
	a, err := openApp(ctx, cli)
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := a.Store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list conversations: %w", err)
	}

	if c.Format == "json" {
		return printJSON(records)
	}
	if len(records) == 0 {
		fmt.Println("No saved conversations")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "Name\tMessages\tUpdated")
	fmt.Fprintln(w, "----\t--------\t-------")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%d\t%s\n", r.Name, r.Messages, r.UpdatedAt.Local().Format(time.DateTime))
	}
	return nil
}

// ConversationShowCmd prints a saved conversation
type ConversationShowCmd struct {
	Name   string `arg:"" help:"Conversation name"`
	Format string `help:"Output format (text, json)" default:"text" enum:"text,json"`
}

func (c *ConversationShowCmd) Run(ctx context.Context, cli *CLI) error {
	a, err := openApp(ctx, cli)
	if err != nil {
		return err
	}
	defer a.Close()

	messages, err := a.Store.Load(ctx, c.Name)
	if err != nil {
		return err
	}
	if c.Format == "json" {
		return printJSON(messages)
	}

	r, err := display.NewTerminal(os.Stdout, display.TerminalOptions{Color: isatty.IsTerminal(os.Stdout.Fd())})
	if err != nil {
		return err
	}
	for _, m := range messages {
		if err := replay(r, m); err != nil {
			return err
		}
	}
	return r.Flush()
}

// replay renders a stored message as the chunks that produced it.
func replay(r display.Renderer, m core.Message) error {
	var chunks []core.Chunk
	switch {
	case m.Role == core.RoleUser:
		chunks = []core.Chunk{core.MessageFragment{Text: "> " + m.Message}}
	case m.Kind() == core.KindCode:
		chunks = []core.Chunk{core.CodeFragment{Language: m.Language}, core.CodeFragment{Text: m.Code}}
	case m.Kind() == core.KindOutput:
		out, interrupted := strings.CutSuffix(m.Output, core.KeyboardInterrupt)
		chunks = []core.Chunk{core.ExecutingMarker{}}
		if out = strings.TrimSuffix(out, "\n"); out != "" {
			chunks = append(chunks, core.OutputFragment{Text: out + "\n"})
		}
		if interrupted {
			chunks = append(chunks, core.OutputFragment{Text: core.KeyboardInterrupt})
		}
		chunks = append(chunks, core.ActiveLineUpdate{Close: true})
	default:
		chunks = []core.Chunk{core.MessageFragment{Text: m.Message}}
	}
	for _, c := range chunks {
		if err := r.Render(c); err != nil {
			return err
		}
	}
	// Consecutive text messages stay separate blocks.
	return r.Flush()
}

// openApp loads the configuration and opens the conversation store without
// starting a chat.
func openApp(ctx context.Context, cli *CLI) (*app.App, error) {
	cfg, err := loadConfig(cli)
	if err != nil {
		return nil, err
	}
	logger := createCLILogger(os.Stderr, cfg, isatty.IsTerminal(os.Stderr.Fd()))
	return app.New(ctx, app.AppConfig{Config: cfg, Logger: logger})
}
