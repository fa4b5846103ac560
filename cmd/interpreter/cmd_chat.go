package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/elee1766/interpreter/src/app"
	"github.com/elee1766/interpreter/src/display"
	"github.com/mattn/go-isatty"
)

// ChatCmd sends one message, or reads messages from stdin until EOF.
type ChatCmd struct {
	Message []string `arg:"" optional:"" help:"Message to send; starts an interactive session when empty"`
	JSON    bool     `help:"Write chunks as JSON lines"`
	Load    string   `help:"Continue a saved conversation"`
	NoColor bool     `help:"Disable colors and markdown styling"`
}

func (c *ChatCmd) Run(ctx context.Context, cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}

	logger := createCLILogger(os.Stderr, cfg, isatty.IsTerminal(os.Stderr.Fd()))
	slog.SetDefault(logger)

	// Prompts stay off stdout when it carries JSON.
	promptOut := io.Writer(os.Stdout)
	if c.JSON {
		promptOut = os.Stderr
	}
	input := display.NewConfirmer(os.Stdin, promptOut)

	a, err := app.New(ctx, app.AppConfig{Config: cfg, Approver: input, Logger: logger})
	if err != nil {
		return err
	}
	defer a.Close()

	var r display.Renderer
	if c.JSON {
		r = display.NewJSONLines(os.Stdout)
	} else {
		color := !c.NoColor && isatty.IsTerminal(os.Stdout.Fd())
		if r, err = display.NewTerminal(os.Stdout, display.TerminalOptions{Color: color}); err != nil {
			return err
		}
	}

	if c.Load != "" {
		if err := a.Interpreter.Load(ctx, c.Load); err != nil {
			return err
		}
		logger.Info("loaded conversation", "conversation", c.Load, "messages", len(a.Interpreter.Messages()))
	}

	if message := strings.Join(c.Message, " "); message != "" {
		return runTurn(ctx, a.Interpreter, r, message)
	}
	return repl(ctx, a.Interpreter, r, input, promptOut)
}

// runTurn renders one turn. The first interrupt stops the running code;
// with no code running it cancels the turn.
func runTurn(ctx context.Context, interp *app.Interpreter, r display.Renderer, message string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	defer signal.Stop(sigs)
	go func() {
		for {
			select {
			case <-sigs:
				if !interp.Interrupt() {
					cancel()
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	for chunk, err := range interp.Stream(ctx, message) {
		if err != nil {
			r.Flush()
			return err
		}
		if err := r.Render(chunk); err != nil {
			return err
		}
	}
	return r.Flush()
}

func repl(ctx context.Context, interp *app.Interpreter, r display.Renderer, input *display.Confirmer, out io.Writer) error {
	for {
		line, err := input.Ask(ctx, "> ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		switch {
		case line == "":
		case line == "exit" || line == "quit":
			return nil
		case line == "%reset":
			if err := interp.Reset(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				continue
			}
			fmt.Fprintln(out, "Conversation reset.")
		case strings.HasPrefix(line, "%load "):
			name := strings.TrimSpace(strings.TrimPrefix(line, "%load "))
			if err := interp.Load(ctx, name); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				continue
			}
			fmt.Fprintf(out, "Loaded %s.\n", name)
		default:
			err := runTurn(ctx, interp, r, line)
			switch {
			case err == nil:
			case errors.Is(err, context.Canceled) && ctx.Err() == nil:
				fmt.Fprintln(out, "Turn cancelled.")
			default:
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
		}
	}
}
