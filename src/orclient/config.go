package orclient

import (
	"log/slog"
	"time"
)

// Config holds configuration for the chat completions client
type Config struct {
	APIKey     string        // Bearer token, may be empty for local servers
	BaseURL    string        // Base URL of an OpenAI-compatible API
	Logger     *slog.Logger  // Logger for debugging
	Timeout    time.Duration // HTTP timeout for non-streaming requests
	RetryCount int           // Attempts for failed requests
	RetryDelay time.Duration // Base delay between retries
}
