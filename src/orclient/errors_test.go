package orclient

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAPIError(t *testing.T) {
	tests := []struct {
		name        string
		err         *APIError
		expectedMsg string
		isRetryable bool
		isRateLimit bool
		isAuthError bool
	}{
		{
			name:        "basic error",
			err:         &APIError{StatusCode: 400, Message: "Bad request"},
			expectedMsg: "API error 400: Bad request",
		},
		{
			name:        "error with code",
			err:         &APIError{StatusCode: 403, Message: "Forbidden", Code: "insufficient_permissions"},
			expectedMsg: "API error 403 (insufficient_permissions): Forbidden",
		},
		{
			name:        "server error",
			err:         &APIError{StatusCode: 500, Message: "Internal server error"},
			expectedMsg: "API error 500: Internal server error",
			isRetryable: true,
		},
		{
			name:        "rate limit error",
			err:         &APIError{StatusCode: 429, Message: "Too many requests"},
			expectedMsg: "API error 429: Too many requests",
			isRetryable: true,
			isRateLimit: true,
		},
		{
			name:        "auth error",
			err:         &APIError{StatusCode: 401, Message: "Invalid key", Code: "invalid_api_key"},
			expectedMsg: "API error 401 (invalid_api_key): Invalid key",
			isAuthError: true,
		},
		{
			name:        "in-stream error",
			err:         &APIError{Message: "context length exceeded", Code: "context_length_exceeded"},
			expectedMsg: "API error (context_length_exceeded): context length exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedMsg, tt.err.Error())
			assert.Equal(t, tt.isRetryable, tt.err.IsRetryable())
			assert.Equal(t, tt.isRateLimit, tt.err.IsRateLimit())
			assert.Equal(t, tt.isAuthError, tt.err.IsAuthError())
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.True(t, IsRetryable(fmt.Errorf("wrapped: %w", &APIError{StatusCode: 503})))
	assert.False(t, IsRetryable(fmt.Errorf("wrapped: %w", &APIError{StatusCode: 404})))
}

func TestGetRetryDelay(t *testing.T) {
	base := 100 * time.Millisecond
	assert.Equal(t, 100*time.Millisecond, GetRetryDelay(nil, 1, base))
	assert.Equal(t, 200*time.Millisecond, GetRetryDelay(nil, 2, base))
	assert.Equal(t, 400*time.Millisecond, GetRetryDelay(nil, 3, base))
	assert.Equal(t, time.Minute, GetRetryDelay(nil, 20, base))

	limited := &APIError{StatusCode: 429, RetryAfter: "7"}
	assert.Equal(t, 7*time.Second, GetRetryDelay(limited, 1, base))

	garbled := &APIError{StatusCode: 429, RetryAfter: "soon"}
	assert.Equal(t, base, GetRetryDelay(garbled, 1, base))
}
