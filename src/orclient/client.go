package orclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/elee1766/interpreter/src/aisdk"
)

const (
	// DefaultBaseURL is the OpenAI API.
	DefaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 30 * time.Second
)

var _ aisdk.Provider = (*Client)(nil)

// Client talks to an OpenAI-compatible chat completions API.
type Client struct {
	config       Config
	httpClient   *http.Client
	streamClient *http.Client
	logger       *slog.Logger
	modelCache   *ModelCache
}

// NewClient creates a new API client.
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.RetryCount == 0 {
		config.RetryCount = 3
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = time.Second
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "chat_client")

	client := &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		// Streams stay open for as long as the model writes; cancellation
		// comes from the request context.
		streamClient: &http.Client{},
		logger:       logger,
	}

	// Initialize model cache with 1 hour TTL
	client.modelCache = NewModelCache(client, time.Hour)

	return client
}

// createChatCompletion sends a non-streaming chat completion request.
func (c *Client) createChatCompletion(ctx context.Context, req *aisdk.ChatCompletionRequest) (*aisdk.ChatCompletionResponse, error) {
	logger := c.logger.With("method", "CreateChatCompletion", "model", req.Model)
	logger.Debug("sending chat completion request")

	body, err := c.encodeRequest(ctx, logger, req, false)
	if err != nil {
		return nil, err
	}

	resp, err := c.doRequestWithRetry(ctx, c.httpClient, "/chat/completions", body)
	if err != nil {
		logger.Error("request failed", "error", err)
		return nil, err
	}
	defer resp.Body.Close()

	var result aisdk.ChatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		logger.Error("failed to decode response", "error", err)
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	logger.Info("chat completion successful", "usage_total", result.Usage.TotalTokens)
	return &result, nil
}

// createChatCompletionStream opens a server-sent event stream. Retries
// apply only until the response headers arrive.
func (c *Client) createChatCompletionStream(ctx context.Context, req *aisdk.ChatCompletionRequest) (aisdk.StreamInterface, error) {
	logger := c.logger.With("method", "CreateChatCompletionStream", "model", req.Model)
	logger.Debug("opening chat completion stream", "messages", len(req.Messages), "tools", len(req.Tools))

	body, err := c.encodeRequest(ctx, logger, req, true)
	if err != nil {
		return nil, err
	}

	resp, err := c.doRequestWithRetry(ctx, c.streamClient, "/chat/completions", body)
	if err != nil {
		logger.Error("stream request failed", "error", err)
		return nil, err
	}

	return newEventStream(resp.Body, logger), nil
}

func (c *Client) encodeRequest(ctx context.Context, logger *slog.Logger, req *aisdk.ChatCompletionRequest, stream bool) ([]byte, error) {
	formatted := normalizeRequest(req)
	formatted.Stream = stream

	if logger.Enabled(ctx, slog.LevelDebug) {
		if debugBody, err := json.MarshalIndent(formatted, "", "  "); err == nil {
			logger.Debug("formatted request", "body", string(debugBody))
		}
	}

	body, err := json.Marshal(formatted)
	if err != nil {
		logger.Error("failed to marshal request", "error", err)
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return body, nil
}

// normalizeRequest returns a copy of req with tool calls in the shape
// strict OpenAI-compatible servers require.
func normalizeRequest(req *aisdk.ChatCompletionRequest) *aisdk.ChatCompletionRequest {
	out := *req
	out.Messages = make([]*aisdk.Message, 0, len(req.Messages))
	for _, msg := range req.Messages {
		if msg == nil {
			continue
		}
		m := *msg
		if len(m.ToolCalls) > 0 {
			m.ToolCalls = make([]aisdk.ToolCall, len(msg.ToolCalls))
			for i, tc := range msg.ToolCalls {
				tc.Index = nil
				if tc.Type == "" {
					tc.Type = "function"
				}
				if tc.Function.Arguments == "" {
					tc.Function.Arguments = "{}"
				}
				m.ToolCalls[i] = tc
			}
		}
		out.Messages = append(out.Messages, &m)
	}
	return &out
}

// newRequest creates a new HTTP request with the appropriate headers.
func (c *Client) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}
	req.Header.Set("Content-Type", "application/json")
	if method == http.MethodPost {
		req.Header.Set("Accept", "text/event-stream, application/json")
	}

	return req, nil
}

// doRequestWithRetry posts body to path, retrying transport failures and
// retryable API errors. A non-2xx final response is returned as *APIError.
func (c *Client) doRequestWithRetry(ctx context.Context, httpClient *http.Client, path string, body []byte) (*http.Response, error) {
	logger := c.logger.With("method", "doRequestWithRetry", "path", path)

	var lastErr error
	for attempt := 1; attempt <= c.config.RetryCount; attempt++ {
		req, err := c.newRequest(ctx, http.MethodPost, path, body)
		if err != nil {
			return nil, err
		}

		resp, err := httpClient.Do(req)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			logger.Debug("request attempt failed", "attempt", attempt, "error", err)
		case resp.StatusCode < 300:
			return resp, nil
		default:
			apiErr := c.handleError(resp)
			resp.Body.Close()
			if !IsRetryable(apiErr) {
				return nil, apiErr
			}
			lastErr = apiErr
			logger.Debug("retryable API error", "attempt", attempt, "status_code", resp.StatusCode)
		}

		if attempt == c.config.RetryCount {
			break
		}
		if err := sleep(ctx, c.retryDelay(lastErr, attempt)); err != nil {
			return nil, err
		}
	}

	logger.Error("request failed after all retries", "retry_count", c.config.RetryCount, "error", lastErr)
	return nil, fmt.Errorf("request failed after %d attempts: %w", c.config.RetryCount, lastErr)
}

func (c *Client) retryDelay(err error, attempt int) time.Duration {
	return GetRetryDelay(err, attempt, c.config.RetryDelay)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// handleError processes error responses from the API.
func (c *Client) handleError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read error response: %w", err)
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			RequestID:  resp.Header.Get("X-Request-ID"),
		}
	}

	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Type:       errResp.Error.Type,
		Message:    errResp.Error.Message,
		Code:       errResp.Error.Code,
		Param:      errResp.Error.Param,
		RequestID:  resp.Header.Get("X-Request-ID"),
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		apiErr.RetryAfter = resp.Header.Get("Retry-After")
	}

	return apiErr
}

// GetModels implements aisdk.Provider.
func (c *Client) GetModels(ctx context.Context) ([]*aisdk.ModelInfo, error) {
	return c.ListModels(ctx)
}
