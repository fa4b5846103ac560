package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/elee1766/interpreter/src/app"
	"github.com/elee1766/interpreter/src/config"
	"github.com/elee1766/interpreter/src/llm"
	"github.com/elee1766/interpreter/src/orclient"
	"github.com/elee1766/interpreter/src/storage"
	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitSuccess},
		{name: "plain", err: errors.New("boom"), want: ExitError},
		{name: "cancelled", err: fmt.Errorf("turn: %w", context.Canceled), want: ExitInterrupted},
		{name: "missing key", err: config.ErrMissingAPIKey, want: ExitAuth},
		{name: "missing base", err: config.ErrMissingAPIBase, want: ExitConfig},
		{
			name: "validation",
			err:  fmt.Errorf("configuration validation failed: %w", config.ValidationError{Field: "Temperature"}),
			want: ExitConfig,
		},
		{
			name: "unauthorized",
			err:  &llm.StreamError{Model: "m", Err: &orclient.APIError{StatusCode: http.StatusUnauthorized}},
			want: ExitAuth,
		},
		{
			name: "server error",
			err:  &llm.StreamError{Model: "m", Err: &orclient.APIError{StatusCode: http.StatusBadGateway}},
			want: ExitNetwork,
		},
		{name: "empty message", err: app.ErrMessageRequired, want: ExitUsage},
		{name: "bad name", err: &storage.Error{Op: "load", Name: "../x", Err: storage.ErrInvalidName}, want: ExitUsage},
		{name: "store", err: &storage.Error{Op: "save", Name: "x", Err: errors.New("disk full")}, want: ExitStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
