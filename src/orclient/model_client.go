package orclient

import (
	"context"

	"github.com/elee1766/interpreter/src/aisdk"
)

var _ aisdk.ModelClient = (*ModelClient)(nil)

// ModelClient represents a client bound to a specific model
type ModelClient struct {
	client *Client
	model  *aisdk.ModelInfo
}

// Model creates a ModelClient bound to the specified model. Servers that do
// not list the model, or have no models endpoint, still get a client with
// only the ID known.
func (c *Client) Model(ctx context.Context, modelName string) (aisdk.ModelClient, error) {
	modelInfo, err := c.modelCache.GetModel(ctx, modelName)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Debug("model lookup failed, using bare model id", "model", modelName, "error", err)
		modelInfo = &aisdk.ModelInfo{ID: modelName}
	}

	return &ModelClient{
		client: c,
		model:  modelInfo,
	}, nil
}

// CreateChatCompletion creates a chat completion with the bound model
func (mc *ModelClient) CreateChatCompletion(ctx context.Context, req *aisdk.ChatCompletionRequest) (*aisdk.ChatCompletionResponse, error) {
	req.Model = mc.model.ID
	return mc.client.createChatCompletion(ctx, req)
}

// CreateChatCompletionStream creates a streaming chat completion with the bound model
func (mc *ModelClient) CreateChatCompletionStream(ctx context.Context, req *aisdk.ChatCompletionRequest) (aisdk.StreamInterface, error) {
	req.Model = mc.model.ID
	return mc.client.createChatCompletionStream(ctx, req)
}

// GetModelInfo returns the model information
func (mc *ModelClient) GetModelInfo() *aisdk.ModelInfo {
	return mc.model
}
