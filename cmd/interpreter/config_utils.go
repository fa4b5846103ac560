package main

import (
	"encoding/json"
	"os"

	"github.com/elee1766/interpreter/src/config"
)

// loadConfig loads the layered configuration, applies CLI flags on top and
// validates the result.
func loadConfig(cli *CLI) (*config.Config, error) {
	precedence := config.GetConfigPaths()
	if cli.Config != "" {
		precedence.ProjectConfig = cli.Config
	}

	loader := config.NewLoader(precedence)
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	overrideConfigFromCLI(cfg, cli)
	if err := loader.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// overrideConfigFromCLI overrides configuration values with CLI flags
func overrideConfigFromCLI(cfg *config.Config, cli *CLI) {
	if cli.Model != "" {
		cfg.Model = cli.Model
	}
	if cli.APIBase != "" {
		cfg.APIBase = cli.APIBase
	}
	if cli.APIKey != "" {
		cfg.APIKey = cli.APIKey
	}
	if cli.Local {
		cfg.Local = true
	}
	if cli.Temperature >= 0 {
		cfg.Temperature = cli.Temperature
	}
	if cli.MaxTokens > 0 {
		cfg.MaxTokens = cli.MaxTokens
	}
	if cli.Store != "" {
		cfg.ConversationStore = cli.Store
	}
	if cli.NoHistory {
		cfg.ConversationHistory = false
	}
	if cli.NoStream {
		cfg.Stream = false
	}
	if cli.AutoRun {
		cfg.AutoRun = true
	}
	if cli.Debug {
		cfg.DebugMode = true
	}
	if cli.LogLevel != "" {
		cfg.LogLevel = cli.LogLevel
	}
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
