// Package advisor implements the conversational financial advisor: it
// runs the agent loop over the advisor tool set and shapes the result
// into a structured answer, degrading to text or canned answers when the
// model misbehaves.
package advisor

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/benchwise/finsight/core"
	"github.com/benchwise/finsight/engine"
	"github.com/benchwise/finsight/logger"
	"github.com/benchwise/finsight/tools"
)

const systemPrompt = `You are BenchWise's AI Financial Advisor. You help users understand their finances through conversational Q&A.

Your role:
- Answer user questions about their spending, income, savings, subscriptions, and financial goals
- Use tools to fetch real financial data from their accounts
- Provide specific, actionable insights with dollar amounts and percentages
- Be conversational and friendly while remaining professional
- Always ground advice in actual data from tools

Guidelines:
- Call relevant tools to get accurate, up-to-date information
- When calling tools, ALWAYS use the parameter name "user_id" (not "user" or any other variant)
- The user_id parameter will be automatically provided - you don't need to include it in your tool calls
- Explain financial concepts in simple terms
- Highlight both risks and opportunities
- Provide concrete next steps the user can take
- If data is missing, explain what you need
`

const finalizePrompt = "Provide a structured response with summary, key metrics, insights, and recommendations."

// KeyMetric is one metric cited in an answer.
type KeyMetric struct {
	Metric     string `json:"metric"`
	Value      string `json:"value"`
	Assessment string `json:"assessment"`
}

// Analysis carries the metrics and narrative insights behind an answer.
type Analysis struct {
	KeyMetrics []KeyMetric `json:"key_metrics"`
	Insights   []string    `json:"insights"`
}

// Recommendation is one suggested action with its priority.
type Recommendation struct {
	Action         string `json:"action"`
	Priority       string `json:"priority"`
	ExpectedImpact string `json:"expected_impact"`
}

// Answer is the structured advisor response.
type Answer struct {
	Summary         string           `json:"summary"`
	Analysis        Analysis         `json:"analysis"`
	Recommendations []Recommendation `json:"recommendations"`
	ToolsUsed       []string         `json:"tools_used"`
	Iterations      int              `json:"iterations"`
}

// Response wraps an answer with the query that produced it.
type Response struct {
	Answer Answer `json:"answer"`
	Query  string `json:"query"`
}

// Advisor answers financial questions for a user.
type Advisor struct {
	engine        *engine.Engine
	maxIterations int
	periodDays    int
}

// Option configures an Advisor.
type Option func(*Advisor)

// WithMaxIterations bounds the agent loop.
func WithMaxIterations(n int) Option {
	return func(a *Advisor) { a.maxIterations = n }
}

// WithPeriodDays sets the default analysis window injected into tools.
func WithPeriodDays(days int) Option {
	return func(a *Advisor) { a.periodDays = days }
}

// New creates an advisor over the given model and snapshot source. A nil
// model yields canned unavailable answers instead of failing.
func New(model engine.ModelClient, source tools.SnapshotSource, opts ...Option) *Advisor {
	registry := engine.NewToolRegistry()
	registry.RegisterAll(tools.AdvisorTools(source)...)

	a := &Advisor{
		engine:        engine.New(model, registry),
		maxIterations: 8,
		periodDays:    60,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Ask answers one question, carrying forward prior conversation turns.
func (a *Advisor) Ask(ctx context.Context, userID, question string, history []core.Message) (*Response, error) {
	log := logger.FromContext(ctx)

	out, err := a.engine.Run(ctx, &engine.Input{
		UserID:         userID,
		PeriodDays:     a.periodDays,
		SystemPrompt:   systemPrompt,
		UserMessage:    question,
		History:        history,
		MaxIterations:  a.maxIterations,
		FinalizePrompt: finalizePrompt,
		ResponseSchema: answerSchema,
	})
	if err == engine.ErrModelUnavailable {
		log.Warn().Str("user_id", userID).Msg("model unavailable, returning canned answer")
		return unavailableResponse(question), nil
	}
	if err != nil {
		return nil, err
	}

	if out.Status == engine.StatusIncomplete {
		return incompleteResponse(question, out), nil
	}

	answer, ok := decodeAnswer(out.Raw)
	if !ok {
		log.Warn().Str("user_id", userID).Msg("structured answer invalid, falling back to text")
		return textFallbackResponse(question, out), nil
	}

	answer.ToolsUsed = out.ToolsUsed
	answer.Iterations = out.Iterations
	return &Response{Answer: *answer, Query: question}, nil
}

// answerSchema is the JSON schema the model's final answer must follow.
var answerSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "summary": {"type": "string", "description": "Brief 1-2 sentence answer"},
    "analysis": {
      "type": "object",
      "properties": {
        "key_metrics": {
          "type": "array",
          "items": {
            "type": "object",
            "properties": {
              "metric": {"type": "string"},
              "value": {"type": "string"},
              "assessment": {"type": "string"}
            },
            "required": ["metric", "value", "assessment"],
            "additionalProperties": false
          }
        },
        "insights": {"type": "array", "items": {"type": "string"}}
      },
      "required": ["key_metrics", "insights"],
      "additionalProperties": false
    },
    "recommendations": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "action": {"type": "string"},
          "priority": {"type": "string", "enum": ["high", "medium", "low"]},
          "expected_impact": {"type": "string"}
        },
        "required": ["action", "priority", "expected_impact"],
        "additionalProperties": false
      }
    }
  },
  "required": ["summary", "analysis", "recommendations"],
  "additionalProperties": false
}`)

// decodeAnswer strictly validates the model's structured answer. Any
// unknown field, missing requirement, or bad priority rejects it; every
// field in the schema must be present.
func decodeAnswer(raw json.RawMessage) (*Answer, bool) {
	if len(raw) == 0 {
		return nil, false
	}

	var probe struct {
		Summary  *string `json:"summary"`
		Analysis *struct {
			KeyMetrics *[]KeyMetric `json:"key_metrics"`
			Insights   *[]string    `json:"insights"`
		} `json:"analysis"`
		Recommendations *[]Recommendation `json:"recommendations"`
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&probe); err != nil {
		return nil, false
	}
	if probe.Summary == nil || probe.Analysis == nil || probe.Recommendations == nil {
		return nil, false
	}
	if probe.Analysis.KeyMetrics == nil || probe.Analysis.Insights == nil {
		return nil, false
	}
	for _, rec := range *probe.Recommendations {
		switch rec.Priority {
		case "high", "medium", "low":
		default:
			return nil, false
		}
	}

	return &Answer{
		Summary: *probe.Summary,
		Analysis: Analysis{
			KeyMetrics: *probe.Analysis.KeyMetrics,
			Insights:   *probe.Analysis.Insights,
		},
		Recommendations: *probe.Recommendations,
	}, true
}

func unavailableResponse(question string) *Response {
	return &Response{
		Answer: Answer{
			Summary: "AI service unavailable",
			Analysis: Analysis{
				KeyMetrics: []KeyMetric{},
				Insights:   []string{"AI service is not configured"},
			},
			Recommendations: []Recommendation{},
			ToolsUsed:       []string{},
		},
		Query: question,
	}
}

func incompleteResponse(question string, out *engine.Output) *Response {
	return &Response{
		Answer: Answer{
			Summary: "Analysis incomplete",
			Analysis: Analysis{
				KeyMetrics: []KeyMetric{},
				Insights:   []string{"Reached maximum analysis depth"},
			},
			Recommendations: []Recommendation{},
			ToolsUsed:       out.ToolsUsed,
			Iterations:      out.Iterations,
		},
		Query: question,
	}
}

func textFallbackResponse(question string, out *engine.Output) *Response {
	summary := out.Text
	if summary == "" {
		summary = "Analysis complete"
	}
	return &Response{
		Answer: Answer{
			Summary: summary,
			Analysis: Analysis{
				KeyMetrics: []KeyMetric{},
				Insights:   []string{},
			},
			Recommendations: []Recommendation{},
			ToolsUsed:       out.ToolsUsed,
			Iterations:      out.Iterations,
		},
		Query: question,
	}
}
