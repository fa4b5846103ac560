package orclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elee1766/interpreter/src/aisdk"
)

// ModelsResponse represents the response from the models API
type ModelsResponse struct {
	Data []*aisdk.ModelInfo `json:"data"`
}

// getModelInfo looks up one model in the model list.
func (c *Client) getModelInfo(ctx context.Context, modelName string) (*aisdk.ModelInfo, error) {
	models, err := c.ListModels(ctx)
	if err != nil {
		return nil, err
	}

	for _, model := range models {
		if model.ID == modelName {
			return model, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrModelNotFound, modelName)
}

// ListModels returns all available models (with caching)
func (c *Client) ListModels(ctx context.Context) ([]*aisdk.ModelInfo, error) {
	return c.modelCache.GetModelList(ctx)
}

// listModelsUncached returns all available models without caching
func (c *Client) listModelsUncached(ctx context.Context) ([]*aisdk.ModelInfo, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/models", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleError(resp)
	}

	var modelsResp ModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&modelsResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return modelsResp.Data, nil
}

// GetModelByID returns a specific model by ID
func (c *Client) GetModelByID(ctx context.Context, modelID string) (*aisdk.ModelInfo, error) {
	return c.modelCache.GetModel(ctx, modelID)
}

// SearchModels returns models whose ID or name contains query
// (case-insensitive).
func (c *Client) SearchModels(ctx context.Context, query string) ([]*aisdk.ModelInfo, error) {
	models, err := c.ListModels(ctx)
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(query)
	var matches []*aisdk.ModelInfo
	for _, model := range models {
		if strings.Contains(strings.ToLower(model.ID), query) ||
			strings.Contains(strings.ToLower(model.Name), query) {
			matches = append(matches, model)
		}
	}
	return matches, nil
}
