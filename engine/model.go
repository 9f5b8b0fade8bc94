package engine

import (
	"context"

	"github.com/benchwise/finsight/core"
)

// CompletionRequest is one model call: the system prompt, the transcript
// so far, and the tools the model may invoke.
type CompletionRequest struct {
	System    string
	Messages  []core.Message
	Tools     []core.ToolDefinition
	MaxTokens int64
}

// Completion is the model's reply. A reply with tool calls continues the
// loop; a reply without them ends it.
type Completion struct {
	Text      string
	ToolCalls []core.ToolCall
}

// ModelClient abstracts the language model provider. Implementations
// translate the neutral transcript into provider wire format.
type ModelClient interface {
	Complete(ctx context.Context, req *CompletionRequest) (*Completion, error)
}
