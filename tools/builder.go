// Package tools provides a fluent builder for model-facing tools and the
// financial tool sets exposed to the chat and insight agents.
package tools

import (
	"context"

	"github.com/benchwise/finsight/core"
)

// Schema is the JSON-schema fragment describing a tool's input object.
type Schema struct {
	Properties map[string]interface{}
	Required   []string
}

// ObjectSchema builds an object schema from property definitions and the
// list of required property names.
func ObjectSchema(properties map[string]interface{}, required ...string) Schema {
	return Schema{Properties: properties, Required: required}
}

// StringProperty defines a string parameter.
func StringProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

// StringEnumProperty defines a string parameter restricted to the given values.
func StringEnumProperty(description string, values ...string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
		"enum":        values,
	}
}

// IntegerProperty defines an integer parameter.
func IntegerProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": description,
	}
}

// NumberProperty defines a numeric parameter.
func NumberProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "number",
		"description": description,
	}
}

// HandlerFunc executes one tool invocation.
type HandlerFunc func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error)

// Builder assembles a tool definition and handler step by step.
type Builder struct {
	name        string
	description string
	schema      Schema
	handler     HandlerFunc
}

// New starts building a tool with the given name.
func New(name string) *Builder {
	return &Builder{name: name}
}

// Description sets the model-facing description.
func (b *Builder) Description(description string) *Builder {
	b.description = description
	return b
}

// Schema sets the input schema.
func (b *Builder) Schema(schema Schema) *Builder {
	b.schema = schema
	return b
}

// Handler sets the execution function.
func (b *Builder) Handler(handler HandlerFunc) *Builder {
	b.handler = handler
	return b
}

// Build finalizes the tool.
func (b *Builder) Build() core.Tool {
	properties := b.schema.Properties
	if properties == nil {
		properties = map[string]interface{}{}
	}
	return &builtTool{
		definition: core.ToolDefinition{
			Name:        b.name,
			Description: b.description,
			Properties:  properties,
			Required:    b.schema.Required,
		},
		handler: b.handler,
	}
}

type builtTool struct {
	definition core.ToolDefinition
	handler    HandlerFunc
}

func (t *builtTool) Definition() core.ToolDefinition {
	return t.definition
}

func (t *builtTool) Execute(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
	return t.handler(ctx, params)
}
