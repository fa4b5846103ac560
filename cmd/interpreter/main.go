package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
)

// CLI represents the main CLI structure
type CLI struct {
	Config   string `short:"c" type:"path" help:"Configuration file, read after the user config"`
	LogLevel string `help:"Log level (debug, info, warn, error)"`
	Debug    bool   `short:"d" help:"Enable debug logging"`

	Model       string  `short:"m" help:"Model to use"`
	APIBase     string  `name:"api-base" help:"OpenAI-compatible API base URL"`
	APIKey      string  `name:"api-key" env:"OPENAI_API_KEY" help:"API key"`
	Local       bool    `help:"Use a local OpenAI-compatible server, without function calling"`
	Temperature float64 `default:"-1" help:"Sampling temperature (0-2); negative keeps the configured value"`
	MaxTokens   int     `help:"Completion token limit"`
	Store       string  `help:"Conversation store (json, sqlite)"`
	NoHistory   bool    `help:"Do not save conversations"`
	NoStream    bool    `help:"Wait for whole model responses instead of streaming"`
	AutoRun     bool    `short:"y" help:"Run code without asking for confirmation"`

	Chat          ChatCmd          `cmd:"" default:"withargs" help:"Chat with the interpreter (default)"`
	Conversations ConversationsCmd `cmd:"" help:"Saved conversations"`
	Models        ModelCmd         `cmd:"" help:"Model management and information"`
	ShowConfig    ConfigCmd        `cmd:"" name:"config" help:"Show the effective configuration"`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("interpreter"),
		kong.Description("Let a language model run code on your computer"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	kctx.BindTo(context.Background(), (*context.Context)(nil))

	if err := kctx.Run(&cli); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}
