package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/elee1766/interpreter/src/aisdk"
	"github.com/elee1766/interpreter/src/app"
	"github.com/elee1766/interpreter/src/orclient"
)

// ModelCmd manages model operations
type ModelCmd struct {
	List   ModelListCmd   `cmd:"" help:"List available models"`
	Info   ModelInfoCmd   `cmd:"" help:"Get information about a specific model"`
	Search ModelSearchCmd `cmd:"" help:"Search for models by name"`
}

func newProvider(cli *CLI) (*orclient.Client, error) {
	cfg, err := loadConfig(cli)
	if err != nil {
		return nil, err
	}
	return app.NewProvider(cfg, createCLILogger(os.Stderr, cfg, false)), nil
}

// ModelListCmd lists available models
type ModelListCmd struct {
	Format string `help:"Output format (table, json)" default:"table" enum:"table,json"`
}

// Run executes the model list command
func (c *ModelListCmd) Run(ctx context.Context, cli *CLI) error {
	client, err := newProvider(cli)
	if err != nil {
		return err
	}

	models, err := client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}

	if c.Format == "json" {
		return printJSON(models)
	}
	return printModelsTable(models)
}

// ModelInfoCmd gets information about a specific model
type ModelInfoCmd struct {
	Model  string `arg:"" optional:"" help:"Model ID, defaults to the configured model"`
	Format string `help:"Output format (table, json)" default:"table" enum:"table,json"`
}

// Run executes the model info command
func (c *ModelInfoCmd) Run(ctx context.Context, cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	id := c.Model
	if id == "" {
		id = cfg.Model
	}

	client := app.NewProvider(cfg, createCLILogger(os.Stderr, cfg, false))
	model, err := client.GetModelByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get model info: %w", err)
	}

	if c.Format == "json" {
		return printJSON(model)
	}
	return printModelTable(model)
}

// ModelSearchCmd searches for models by name
type ModelSearchCmd struct {
	Query  string `arg:"" help:"Search query"`
	Format string `help:"Output format (table, json)" default:"table" enum:"table,json"`
}

// Run executes the model search command
func (c *ModelSearchCmd) Run(ctx context.Context, cli *CLI) error {
	client, err := newProvider(cli)
	if err != nil {
		return err
	}

	matches, err := client.SearchModels(ctx, c.Query)
	if err != nil {
		return fmt.Errorf("failed to search models: %w", err)
	}

	if len(matches) == 0 {
		fmt.Printf("No models found matching '%s'\n", c.Query)
		return nil
	}

	if c.Format == "json" {
		return printJSON(matches)
	}
	fmt.Printf("Found %d models matching '%s':\n\n", len(matches), c.Query)
	return printModelsTable(matches)
}

func printModelsTable(models []*aisdk.ModelInfo) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "ID\tContext\tTools")
	fmt.Fprintln(w, "--\t-------\t-----")
	for _, model := range models {
		fmt.Fprintf(w, "%s\t%s\t%s\n", model.ID, contextLabel(model), yesNo(model.SupportsTools()))
	}
	return nil
}

func printModelTable(model *aisdk.ModelInfo) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "ID:\t%s\n", model.ID)
	if model.Name != "" {
		fmt.Fprintf(w, "Name:\t%s\n", model.Name)
	}
	if model.OwnedBy != "" {
		fmt.Fprintf(w, "Owned By:\t%s\n", model.OwnedBy)
	}
	if model.Description != "" {
		fmt.Fprintf(w, "Description:\t%s\n", model.Description)
	}
	fmt.Fprintf(w, "Context Window:\t%s\n", contextLabel(model))
	fmt.Fprintf(w, "Function Calling:\t%s\n", yesNo(model.SupportsTools()))

	if model.Pricing != nil {
		fmt.Fprintln(w, "\nPricing:")
		if model.Pricing.Prompt != "" {
			fmt.Fprintf(w, "  Prompt:\t%s per token\n", model.Pricing.Prompt)
		}
		if model.Pricing.Completion != "" {
			fmt.Fprintf(w, "  Completion:\t%s per token\n", model.Pricing.Completion)
		}
	}

	if a := model.Architecture; a != nil {
		fmt.Fprintln(w, "\nArchitecture:")
		if len(a.InputModalities) > 0 {
			fmt.Fprintf(w, "  Input:\t%s\n", strings.Join(a.InputModalities, ", "))
		}
		if len(a.OutputModalities) > 0 {
			fmt.Fprintf(w, "  Output:\t%s\n", strings.Join(a.OutputModalities, ", "))
		}
		if a.Tokenizer != "" {
			fmt.Fprintf(w, "  Tokenizer:\t%s\n", a.Tokenizer)
		}
	}
	return nil
}

func contextLabel(m *aisdk.ModelInfo) string {
	if n := m.ContextWindow(); n > 0 {
		return fmt.Sprintf("%d", n)
	}
	return "unknown"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
