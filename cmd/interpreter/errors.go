package main

import (
	"context"
	"errors"

	"github.com/elee1766/interpreter/src/app"
	"github.com/elee1766/interpreter/src/config"
	"github.com/elee1766/interpreter/src/orclient"
	"github.com/elee1766/interpreter/src/storage"
)

// Exit codes following standard conventions
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error
	ExitUsage       = 2 // Usage error
	ExitConfig      = 3 // Configuration error
	ExitAuth        = 4 // Authentication error
	ExitStorage     = 5 // Conversation store error
	ExitNetwork     = 6 // Model API error
	ExitInterrupted = 8 // Interrupted by user
)

// exitCode determines the appropriate exit code for an error
func exitCode(err error) int {
	var (
		apiErr   *orclient.APIError
		validErr config.ValidationError
		storeErr *storage.Error
	)

	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.Is(err, config.ErrMissingAPIKey):
		return ExitAuth
	case errors.As(err, &apiErr):
		if apiErr.IsAuthError() {
			return ExitAuth
		}
		return ExitNetwork
	case errors.Is(err, config.ErrMissingAPIBase), errors.As(err, &validErr):
		return ExitConfig
	case errors.Is(err, app.ErrMessageRequired), errors.Is(err, storage.ErrInvalidName):
		return ExitUsage
	case errors.As(err, &storeErr):
		return ExitStorage
	default:
		return ExitError
	}
}
