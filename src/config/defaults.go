package config

import (
	"time"
)

// ConversationNameLayout formats the default conversation name.
const ConversationNameLayout = "January_02_2006_15-04-05"

// DefaultConfig returns a default configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		MaxOutput:               2000,
		ConversationHistory:     true,
		ConversationName:        NewConversationName(time.Now()),
		ConversationHistoryPath: DefaultHistoryPath(),
		ConversationStore:       StoreJSON,
		Model:                   "gpt-3.5-turbo",
		Temperature:             1.5,
		FunctionCalling:         true,
		Stream:                  true,
		LogLevel:                "warn",
	}
}

// NewConversationName names a conversation after the time it started.
func NewConversationName(now time.Time) string {
	return now.Format(ConversationNameLayout)
}
