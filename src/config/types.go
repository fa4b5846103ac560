package config

import (
	"errors"
	"fmt"
)

// Config holds every setting that shapes a session. A loaded Config is
// treated as immutable; callers copy it to change values.
type Config struct {
	// Local routes requests to a self-hosted, OpenAI-compatible endpoint
	// and disables function calling.
	Local bool `json:"local"`

	// AutoRun executes code without asking for confirmation.
	AutoRun bool `json:"auto_run"`

	// DebugMode turns on debug logging.
	DebugMode bool `json:"debug_mode"`

	// MaxOutput caps the characters of output kept per execution.
	MaxOutput int `json:"max_output" validate:"min=1"`

	ConversationHistory     bool   `json:"conversation_history"`
	ConversationName        string `json:"conversation_name" validate:"conversation_name"`
	ConversationHistoryPath string `json:"conversation_history_path" validate:"required"`
	ConversationStore       string `json:"conversation_store" validate:"store_backend"`

	Model         string  `json:"model" validate:"required"`
	Temperature   float64 `json:"temperature" validate:"min=0,max=2"`
	SystemMessage string  `json:"system_message,omitempty"`
	ContextWindow int     `json:"context_window,omitempty" validate:"min=0"`
	MaxTokens     int     `json:"max_tokens,omitempty" validate:"min=0"`

	APIBase string `json:"api_base,omitempty" validate:"omitempty,url"`
	APIKey  string `json:"api_key,omitempty"`

	// MaxBudget is accepted for compatibility and not enforced.
	MaxBudget float64 `json:"max_budget,omitempty" validate:"min=0"`

	// FunctionCalling sends code requests through the execute tool. When
	// false the model writes fenced code blocks instead.
	FunctionCalling bool `json:"function_calling"`

	// Stream requests completions as server-sent events. When false each
	// response arrives whole.
	Stream bool `json:"stream"`

	LogLevel string `json:"log_level,omitempty" validate:"log_level"`
}

// Store backends.
const (
	StoreJSON   = "json"
	StoreSQLite = "sqlite"
)

var (
	// ErrMissingAPIKey is returned when a hosted model is selected without
	// an API key.
	ErrMissingAPIKey = errors.New("missing API key: set api_key or OPENAI_API_KEY")
	// ErrMissingAPIBase is returned when local mode has no endpoint.
	ErrMissingAPIBase = errors.New("missing API base: local mode needs api_base")
)

// RequireModelEndpoint reports whether the model client can be built from
// c.
func (c *Config) RequireModelEndpoint() error {
	if c.Local {
		if c.APIBase == "" {
			return ErrMissingAPIBase
		}
		return nil
	}
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// UsesFunctionCalling reports whether code is requested through tool calls.
func (c *Config) UsesFunctionCalling() bool {
	return c.FunctionCalling && !c.Local
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.APIKey != "" {
		c.APIKey = redact(c.APIKey)
	}
	return c
}

func redact(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}

// ConfigPrecedence defines the order of configuration loading
type ConfigPrecedence struct {
	// SystemConfig path
	SystemConfig string

	// UserConfig path
	UserConfig string

	// ProjectConfig path
	ProjectConfig string

	// DotEnv file loaded into the environment before overrides apply
	DotEnv string

	// EnvironmentPrefix for env var overrides
	EnvironmentPrefix string
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ConfigSource indicates where a configuration value came from
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceSystem      ConfigSource = "system"
	SourceUser        ConfigSource = "user"
	SourceProject     ConfigSource = "project"
	SourceEnvironment ConfigSource = "environment"
	SourceCLI         ConfigSource = "cli"
)
