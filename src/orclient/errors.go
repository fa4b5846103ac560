package orclient

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Common error variables
var (
	// ErrModelNotFound indicates the models endpoint does not list a model
	ErrModelNotFound = errors.New("model not found")

	// ErrEmptyResponse indicates the API returned an empty response
	ErrEmptyResponse = errors.New("empty response from API")

	// ErrStreamClosed indicates the stream has been closed
	ErrStreamClosed = errors.New("stream closed")
)

// ErrorResponse represents a standard error response from the API
// in the form {"error":{"message":"...","code":"..."}}
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// APIError represents an error response from the API.
type APIError struct {
	StatusCode int    `json:"-"`
	Type       string `json:"type"`
	Message    string `json:"message"`
	Code       string `json:"code"`
	Param      string `json:"param"`
	RequestID  string `json:"-"`
	RetryAfter string `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		if e.Code != "" {
			return fmt.Sprintf("API error (%s): %s", e.Code, e.Message)
		}
		return fmt.Sprintf("API error: %s", e.Message)
	}
	if e.Code != "" {
		return fmt.Sprintf("API error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
}

// IsRetryable returns true if the error is retryable.
func (e *APIError) IsRetryable() bool {
	// 5xx errors are generally retryable
	if e.StatusCode >= 500 && e.StatusCode < 600 {
		return true
	}

	// Rate limit errors are retryable after a delay
	if e.StatusCode == http.StatusTooManyRequests {
		return true
	}

	// Specific error codes that are retryable
	switch e.Code {
	case "timeout", "connection_error", "server_error":
		return true
	}

	return false
}

// IsRateLimit returns true if this is a rate limit error.
func (e *APIError) IsRateLimit() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.Code == "rate_limit_exceeded"
}

// IsAuthError returns true if this is an authentication error.
func (e *APIError) IsAuthError() bool {
	return e.StatusCode == http.StatusUnauthorized || e.Code == "invalid_api_key"
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsRetryable()
	}

	return false
}

// GetRetryDelay returns the delay before retry number attempt. Rate limit
// responses with a Retry-After header win; otherwise the delay doubles from
// base, capped at a minute.
func GetRetryDelay(err error, attempt int, base time.Duration) time.Duration {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.IsRateLimit() && apiErr.RetryAfter != "" {
		if secs, perr := strconv.Atoi(apiErr.RetryAfter); perr == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}

	if attempt < 1 {
		attempt = 1
	}
	delay := base * time.Duration(1<<uint(attempt-1))
	maxDelay := time.Minute
	if delay > maxDelay || delay <= 0 {
		delay = maxDelay
	}

	return delay
}
