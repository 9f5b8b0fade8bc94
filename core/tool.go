package core

import (
	"context"
	"encoding/json"
)

// ToolDefinition is the model-facing description of a tool: its name,
// what it does, and the JSON schema of its input object.
type ToolDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Properties  map[string]interface{} `json:"properties"`
	Required    []string               `json:"required,omitempty"`
}

// ToolParams is what a tool handler receives for one invocation.
// UserID is always the authoritative identity of the requesting user;
// handlers must use it rather than anything inside Input.
type ToolParams struct {
	UserID    string          `json:"user_id"`
	RequestID string          `json:"request_id,omitempty"`
	Input     json.RawMessage `json:"input"`
}

// Args unmarshals the raw input into dst. A nil or empty input is
// treated as an empty object.
func (p *ToolParams) Args(dst interface{}) error {
	if len(p.Input) == 0 {
		return nil
	}
	return json.Unmarshal(p.Input, dst)
}

// ToolResult is the outcome of one tool invocation. Failed calls set
// Success false and Error; the orchestrator reports them to the model
// instead of aborting the run.
type ToolResult struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Ok wraps data in a successful result.
func Ok(data interface{}) *ToolResult {
	return &ToolResult{Success: true, Data: data}
}

// Fail wraps an error message in a failed result.
func Fail(msg string) *ToolResult {
	return &ToolResult{Success: false, Error: msg}
}

// Tool is a callable capability exposed to the model.
type Tool interface {
	Definition() ToolDefinition
	Execute(ctx context.Context, params *ToolParams) (*ToolResult, error)
}
