package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Loader handles loading and merging configurations from multiple sources
type Loader struct {
	precedence ConfigPrecedence
	validator  *Validator
}

// NewLoader creates a new configuration loader
func NewLoader(precedence ConfigPrecedence) *Loader {
	return &Loader{
		precedence: precedence,
		validator:  NewValidator(),
	}
}

// Load reads defaults, then each configuration file in order of
// precedence, then the environment. The result is validated.
func (l *Loader) Load() (*Config, error) {
	config := DefaultConfig()

	sources := []struct {
		path   string
		source ConfigSource
	}{
		{l.precedence.SystemConfig, SourceSystem},
		{l.precedence.UserConfig, SourceUser},
		{l.precedence.ProjectConfig, SourceProject},
	}

	for _, src := range sources {
		if src.path == "" {
			continue
		}
		if err := l.loadFile(src.path, config); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to load %s config from %s: %w", src.source, src.path, err)
		}
	}

	if l.precedence.DotEnv != "" {
		if err := loadDotEnv(l.precedence.DotEnv); err != nil {
			return nil, err
		}
	}

	if err := l.applyEnvironmentOverrides(config); err != nil {
		return nil, err
	}

	if err := l.validator.Validate(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate checks a configuration assembled outside the loader, such as
// one with CLI overrides applied.
func (l *Loader) Validate(config *Config) error {
	if err := l.validator.Validate(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// loadFile decodes path over config, so keys absent from the file keep
// their current values.
func (l *Loader) loadFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	return nil
}

// loadDotEnv populates the environment from path when the file exists.
// Variables already set are left alone.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

type envBinding struct {
	name string
	set  func(*Config, string) error
}

var envBindings = []envBinding{
	{"LOCAL", boolField(func(c *Config) *bool { return &c.Local })},
	{"AUTO_RUN", boolField(func(c *Config) *bool { return &c.AutoRun })},
	{"DEBUG", boolField(func(c *Config) *bool { return &c.DebugMode })},
	{"MAX_OUTPUT", intField(func(c *Config) *int { return &c.MaxOutput })},
	{"CONVERSATION_HISTORY", boolField(func(c *Config) *bool { return &c.ConversationHistory })},
	{"CONVERSATION_NAME", stringField(func(c *Config) *string { return &c.ConversationName })},
	{"CONVERSATION_HISTORY_PATH", stringField(func(c *Config) *string { return &c.ConversationHistoryPath })},
	{"CONVERSATION_STORE", stringField(func(c *Config) *string { return &c.ConversationStore })},
	{"MODEL", stringField(func(c *Config) *string { return &c.Model })},
	{"TEMPERATURE", floatField(func(c *Config) *float64 { return &c.Temperature })},
	{"SYSTEM_MESSAGE", stringField(func(c *Config) *string { return &c.SystemMessage })},
	{"CONTEXT_WINDOW", intField(func(c *Config) *int { return &c.ContextWindow })},
	{"MAX_TOKENS", intField(func(c *Config) *int { return &c.MaxTokens })},
	{"API_BASE", stringField(func(c *Config) *string { return &c.APIBase })},
	{"API_KEY", stringField(func(c *Config) *string { return &c.APIKey })},
	{"MAX_BUDGET", floatField(func(c *Config) *float64 { return &c.MaxBudget })},
	{"FUNCTION_CALLING", boolField(func(c *Config) *bool { return &c.FunctionCalling })},
	{"STREAM", boolField(func(c *Config) *bool { return &c.Stream })},
	{"LOG_LEVEL", stringField(func(c *Config) *string { return &c.LogLevel })},
}

// applyEnvironmentOverrides applies environment variable overrides to config
func (l *Loader) applyEnvironmentOverrides(config *Config) error {
	if prefix := l.precedence.EnvironmentPrefix; prefix != "" {
		for _, b := range envBindings {
			key := prefix + "_" + b.name
			value, ok := os.LookupEnv(key)
			if !ok || value == "" {
				continue
			}
			if err := b.set(config, value); err != nil {
				return ValidationError{Field: key, Message: err.Error(), Value: value}
			}
		}
	}

	// Fall back to the OpenAI variable for compatibility
	if config.APIKey == "" {
		config.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return nil
}

func stringField(field func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*field(c) = v
		return nil
	}
}

func boolField(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("expected a boolean, got %q", v)
		}
		*field(c) = b
		return nil
	}
}

func intField(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("expected an integer, got %q", v)
		}
		*field(c) = n
		return nil
	}
}

func floatField(field func(*Config) *float64) func(*Config, string) error {
	return func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("expected a number, got %q", v)
		}
		*field(c) = f
		return nil
	}
}

// Load loads configuration from the standard locations.
func Load() (*Config, error) {
	return NewLoader(GetConfigPaths()).Load()
}
