package aisdk

import (
	jsonschema "github.com/swaggest/jsonschema-go"
)

// ChatTool represents a tool in the format expected by chat completion APIs
type ChatTool struct {
	Type     string           `json:"type"` // Always "function" for function tools
	Function ChatToolFunction `json:"function"`
}

// ChatToolFunction represents the function definition for chat APIs
type ChatToolFunction struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  *jsonschema.Schema `json:"parameters"` // JSON Schema for parameters
}

// NewFunctionTool wraps a function definition as a tool.
func NewFunctionTool(name, description string, parameters *jsonschema.Schema) *ChatTool {
	return &ChatTool{
		Type: "function",
		Function: ChatToolFunction{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
	}
}
