package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/benchwise/finsight/core"
	"github.com/benchwise/finsight/logger"
)

const (
	defaultMaxIterations = 8
	defaultMaxTokens     = 4096
	historyLimit         = 6
)

// Status describes how a run ended.
type Status string

const (
	// StatusComplete means the model produced a final answer within budget.
	StatusComplete Status = "complete"
	// StatusIncomplete means the iteration budget ran out before an answer.
	StatusIncomplete Status = "incomplete"
)

// Input configures one agent run.
type Input struct {
	// UserID is the authoritative identity. It is injected into every
	// tool call, overriding anything the model supplies.
	UserID string

	// PeriodDays is the default analysis window injected into tool calls
	// that omit one.
	PeriodDays int

	SystemPrompt string
	UserMessage  string

	// History is the prior conversation. Only the most recent entries
	// are sent to the model.
	History []core.Message

	// MaxIterations bounds how many model turns may request tools. The
	// finalize call does not count against it.
	MaxIterations int

	// FinalizePrompt asks the model to synthesize its final structured
	// answer once it stops calling tools.
	FinalizePrompt string

	// ResponseSchema is the JSON schema the final answer must follow.
	// It is embedded into the finalize prompt.
	ResponseSchema json.RawMessage

	MaxTokens int64
}

// Output is the result of an agent run.
type Output struct {
	Status     Status
	// Raw is the final structured answer, nil when the model's reply
	// could not be parsed as JSON.
	Raw        json.RawMessage
	// Text is the model's last free-form text.
	Text       string
	ToolsUsed  []string
	Iterations int
}

// Engine drives a model through the tool loop.
type Engine struct {
	model    ModelClient
	registry *ToolRegistry
}

// New creates an engine. A nil model is allowed; Run reports it so
// callers can fall back to heuristics.
func New(model ModelClient, registry *ToolRegistry) *Engine {
	return &Engine{model: model, registry: registry}
}

// Registry returns the engine's tool registry.
func (e *Engine) Registry() *ToolRegistry {
	return e.registry
}

// ErrModelUnavailable is returned when no model client is configured.
var ErrModelUnavailable = fmt.Errorf("model client not configured")

// Run executes the agent loop. Each iteration sends the transcript and
// tool definitions to the model; tool calls are executed and their
// results fed back. A reply without tool calls triggers the finalize
// step, which requests the structured answer against the response
// schema.
func (e *Engine) Run(ctx context.Context, input *Input) (*Output, error) {
	if e.model == nil {
		return nil, ErrModelUnavailable
	}

	log := logger.FromContext(ctx)
	runID := uuid.New().String()

	maxIterations := input.MaxIterations
	if maxIterations <= 0 {
		maxIterations = defaultMaxIterations
	}
	maxTokens := input.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	history := input.History
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}

	messages := make([]core.Message, 0, len(history)+1)
	messages = append(messages, history...)
	if input.UserMessage != "" {
		messages = append(messages, core.UserMessage(input.UserMessage))
	}

	defs := e.registry.Definitions()
	var toolsUsed []string

	for iteration := 1; iteration <= maxIterations; iteration++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		completion, err := e.model.Complete(ctx, &CompletionRequest{
			System:    input.SystemPrompt,
			Messages:  messages,
			Tools:     defs,
			MaxTokens: maxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("model call failed: %w", err)
		}

		messages = append(messages, core.Message{
			Role:      core.RoleAssistant,
			Content:   completion.Text,
			ToolCalls: completion.ToolCalls,
		})

		if len(completion.ToolCalls) == 0 {
			return e.finalize(ctx, input, messages, completion.Text, toolsUsed, iteration, maxTokens)
		}

		for _, call := range completion.ToolCalls {
			result := e.executeCall(ctx, input, call, runID)
			toolsUsed = append(toolsUsed, call.Name)

			content, isError := encodeResult(result)
			messages = append(messages, core.ToolMessage(call.ID, call.Name, content, isError))
		}
	}

	log.Warn().
		Str("run_id", runID).
		Int("iterations", maxIterations).
		Msg("agent exhausted iteration budget")

	return &Output{
		Status:     StatusIncomplete,
		Text:       "Analysis incomplete",
		ToolsUsed:  toolsUsed,
		Iterations: maxIterations,
	}, nil
}

// executeCall resolves and runs one tool call. Failures become error
// results the model sees; they never abort the run.
func (e *Engine) executeCall(ctx context.Context, input *Input, call core.ToolCall, runID string) *core.ToolResult {
	log := logger.FromContext(ctx)

	tool, ok := e.registry.Get(call.Name)
	if !ok {
		log.Warn().Str("run_id", runID).Str("tool", call.Name).Msg("model requested unknown tool")
		return core.Fail(fmt.Sprintf("unknown tool: %s", call.Name))
	}

	args := normalizeArgs(call.Arguments, input)
	result, err := tool.Execute(ctx, &core.ToolParams{
		UserID:    input.UserID,
		RequestID: runID,
		Input:     args,
	})
	if err != nil {
		log.Error().Str("run_id", runID).Str("tool", call.Name).Err(err).Msg("tool execution failed")
		return core.Fail(fmt.Sprintf("Tool execution failed: %v", err))
	}
	if result == nil {
		return core.Fail("tool returned no result")
	}
	return result
}

// finalize asks the model for the structured answer. The extra call is
// excluded from the iteration budget.
func (e *Engine) finalize(ctx context.Context, input *Input, messages []core.Message, lastText string, toolsUsed []string, iterations int, maxTokens int64) (*Output, error) {
	log := logger.FromContext(ctx)

	if len(input.ResponseSchema) == 0 {
		return &Output{
			Status:     StatusComplete,
			Text:       lastText,
			ToolsUsed:  toolsUsed,
			Iterations: iterations,
		}, nil
	}

	prompt := input.FinalizePrompt
	if prompt == "" {
		prompt = "Synthesize your final answer as JSON."
	}
	prompt += "\n\nRespond with a single JSON object matching this schema, with no surrounding text:\n" + string(input.ResponseSchema)

	messages = append(messages, core.UserMessage(prompt))

	completion, err := e.model.Complete(ctx, &CompletionRequest{
		System:    input.SystemPrompt,
		Messages:  messages,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("finalize call failed: %w", err)
	}

	raw := extractJSON(completion.Text)
	if raw == nil {
		log.Warn().Msg("failed to parse final response as JSON")
	}

	text := lastText
	if text == "" {
		text = completion.Text
	}

	return &Output{
		Status:     StatusComplete,
		Raw:        raw,
		Text:       text,
		ToolsUsed:  toolsUsed,
		Iterations: iterations,
	}, nil
}

// normalizeArgs parses the model's argument payload, degrading to an
// empty object when malformed, and injects the authoritative user
// identity and default period.
func normalizeArgs(raw json.RawMessage, input *Input) json.RawMessage {
	args := map[string]interface{}{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			args = map[string]interface{}{}
		}
	}

	args["user_id"] = input.UserID
	if _, ok := args["period_days"]; !ok && input.PeriodDays > 0 {
		args["period_days"] = input.PeriodDays
	}

	out, err := json.Marshal(args)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return out
}

// encodeResult serializes a tool result for the transcript.
func encodeResult(result *core.ToolResult) (string, bool) {
	if !result.Success {
		payload, err := json.Marshal(map[string]string{"error": result.Error})
		if err != nil {
			return result.Error, true
		}
		return string(payload), true
	}
	payload, err := json.Marshal(result.Data)
	if err != nil {
		return fmt.Sprintf(`{"error": "failed to encode tool result: %v"}`, err), true
	}
	return string(payload), false
}

// extractJSON pulls the first JSON object out of model text, tolerating
// code fences and surrounding prose.
func extractJSON(text string) json.RawMessage {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
		trimmed = strings.TrimSpace(trimmed)
	}

	start := strings.Index(trimmed, "{")
	if start < 0 {
		return nil
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(trimmed); i++ {
		c := trimmed[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				candidate := trimmed[start : i+1]
				if json.Valid([]byte(candidate)) {
					return json.RawMessage(candidate)
				}
				return nil
			}
		}
	}
	return nil
}
