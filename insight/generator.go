package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/benchwise/finsight/core"
	"github.com/benchwise/finsight/engine"
	"github.com/benchwise/finsight/logger"
	"github.com/benchwise/finsight/snapshot"
	"github.com/benchwise/finsight/tools"
)

const systemPrompt = "You are BenchWise's senior financial analyst. Always ground advice in the provided data " +
	"and supplement it with tool calls to gather missing context. Quantify insights using USD, " +
	"highlight both risks and wins, and close with clear next steps the user can take."

const instructions = "Analyze the financial context and produce actionable insights. Use tools to fill gaps. " +
	"When data is insufficient, clearly state assumptions or missing pieces. " +
	"Always populate key_metrics with label, value, and displayValue, and include alerts even if empty."

const finalizePrompt = "Synthesize a structured insight report using the schema. Include quick stats, insights, " +
	"recommendations, and alerts."

// Store persists generated insight documents.
type Store interface {
	Upsert(ctx context.Context, doc *Document) error
}

// Tier identifies which generation path produced a document.
type Tier string

const (
	TierPlaceholder Tier = "placeholder"
	TierHeuristic   Tier = "heuristic"
	TierAgent       Tier = "agent"
)

// Result reports the outcome of one user's generation.
type Result struct {
	UserID string `json:"userId"`
	Tier   Tier   `json:"tier"`
}

// Generator produces and persists insight documents.
type Generator struct {
	engine        *engine.Engine
	builder       *snapshot.Builder
	store         Store
	maxIterations int
	now           func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithMaxIterations bounds the agent loop.
func WithMaxIterations(n int) Option {
	return func(g *Generator) { g.maxIterations = n }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// New creates a generator. A nil model routes every user with activity
// to the heuristic tier.
func New(model engine.ModelClient, builder *snapshot.Builder, store Store, opts ...Option) *Generator {
	registry := engine.NewToolRegistry()
	registry.RegisterAll(tools.InsightTools(builder)...)

	g := &Generator{
		engine:        engine.New(model, registry),
		builder:       builder,
		store:         store,
		maxIterations: 6,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateForAll produces insights for every user with a bank
// connection. Per-user failures are logged and skipped so one bad user
// never blocks the batch.
func (g *Generator) GenerateForAll(ctx context.Context, ledger snapshot.Ledger, periodDays int) ([]Result, error) {
	log := logger.FromContext(ctx)

	users, err := ledger.UsersWithConnections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	log.Info().Int("users", len(users)).Int("period_days", periodDays).Msg("generating insights")

	results := make([]Result, 0, len(users))
	for _, userID := range users {
		result, err := g.GenerateForUser(ctx, userID, periodDays)
		if err != nil {
			log.Error().Str("user_id", userID).Err(err).Msg("insight generation failed")
			continue
		}
		results = append(results, *result)
	}
	return results, nil
}

// GenerateForUser builds the user's snapshot, picks the generation tier,
// and upserts the resulting document.
func (g *Generator) GenerateForUser(ctx context.Context, userID string, periodDays int) (*Result, error) {
	log := logger.FromContext(ctx)

	snap, err := g.builder.Snapshot(ctx, userID, periodDays)
	if err != nil {
		return nil, fmt.Errorf("build snapshot: %w", err)
	}

	if snap.TransactionCount == 0 {
		doc := placeholderDocument(snap, g.now().UTC())
		if err := g.store.Upsert(ctx, doc); err != nil {
			return nil, fmt.Errorf("store placeholder insight: %w", err)
		}
		log.Info().Str("user_id", userID).Msg("no transactions, stored placeholder insight")
		return &Result{UserID: userID, Tier: TierPlaceholder}, nil
	}

	report, ok := g.runAgent(ctx, snap)
	if !ok {
		doc := heuristicDocument(snap, g.now().UTC())
		if err := g.store.Upsert(ctx, doc); err != nil {
			return nil, fmt.Errorf("store heuristic insight: %w", err)
		}
		log.Info().Str("user_id", userID).Msg("stored heuristic insight")
		return &Result{UserID: userID, Tier: TierHeuristic}, nil
	}

	doc := agentDocument(snap, report, g.now().UTC())
	if err := g.store.Upsert(ctx, doc); err != nil {
		return nil, fmt.Errorf("store insight: %w", err)
	}
	log.Info().Str("user_id", userID).Int("metrics", len(doc.KeyMetrics)).Msg("stored agent insight")
	return &Result{UserID: userID, Tier: TierAgent}, nil
}

// runAgent drives the model over the insight tools. Any failure,
// including an unparseable or schema-violating report, returns false so
// the caller falls back to heuristics.
func (g *Generator) runAgent(ctx context.Context, snap *core.Snapshot) (*Report, bool) {
	log := logger.FromContext(ctx)

	contextPayload, err := json.MarshalIndent(agentContext(snap), "", "  ")
	if err != nil {
		return nil, false
	}

	out, err := g.engine.Run(ctx, &engine.Input{
		UserID:         snap.UserID,
		PeriodDays:     snap.PeriodDays,
		SystemPrompt:   systemPrompt,
		UserMessage:    instructions + "\n\nContext:\n" + string(contextPayload),
		MaxIterations:  g.maxIterations,
		FinalizePrompt: finalizePrompt,
		ResponseSchema: reportSchema,
	})
	if err == engine.ErrModelUnavailable {
		return nil, false
	}
	if err != nil {
		log.Warn().Str("user_id", snap.UserID).Err(err).Msg("agent run failed")
		return nil, false
	}
	if out.Status != engine.StatusComplete {
		return nil, false
	}

	report, ok := decodeReport(out.Raw)
	if !ok {
		log.Warn().Str("user_id", snap.UserID).Msg("agent report invalid")
		return nil, false
	}
	return report, true
}

// agentContext is the snapshot digest handed to the model up front.
func agentContext(snap *core.Snapshot) map[string]interface{} {
	highlights := snap.CategoryBreakdown
	if len(highlights) > 5 {
		highlights = highlights[:5]
	}
	return map[string]interface{}{
		"periodDays":         snap.PeriodDays,
		"dateRange":          snap.DateRange,
		"accountSummary":     snap.AccountSummary,
		"cashflow":           snap.Cashflow,
		"categoryHighlights": highlights,
		"opportunitySignals": snap.OpportunitySignals,
		"netCashflow":        snap.NetCashflow,
		"transactionCount":   snap.TransactionCount,
	}
}

// ReportMetric is a metric row as the model reports it. Value stays
// loose because models emit numbers and strings interchangeably.
type ReportMetric struct {
	Label        string      `json:"label"`
	Value        interface{} `json:"value"`
	DisplayValue string      `json:"displayValue"`
}

// ReportRecommendation is a recommendation as the model reports it.
type ReportRecommendation struct {
	Title    string `json:"title"`
	Detail   string `json:"detail"`
	Impact   string `json:"impact"`
	Action   string `json:"action"`
	Category string `json:"category"`
}

// Report is the model's structured insight output.
type Report struct {
	Summary struct {
		Headline  string `json:"headline"`
		Narrative string `json:"narrative"`
	} `json:"summary"`
	KeyMetrics      []ReportMetric         `json:"key_metrics"`
	Highlights      []string               `json:"highlights"`
	Recommendations []ReportRecommendation `json:"recommendations"`
	Alerts          []string               `json:"alerts"`
}

// reportSchema is the JSON schema embedded into the finalize prompt.
var reportSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "summary": {
      "type": "object",
      "properties": {
        "headline": {"type": "string"},
        "narrative": {"type": "string"}
      },
      "required": ["headline", "narrative"],
      "additionalProperties": false
    },
    "key_metrics": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "label": {"type": "string"},
          "value": {"type": ["number", "string", "null"]},
          "displayValue": {"type": ["string", "null"]}
        },
        "required": ["label", "value", "displayValue"],
        "additionalProperties": false
      }
    },
    "highlights": {"type": "array", "items": {"type": "string"}},
    "recommendations": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "title": {"type": "string"},
          "detail": {"type": "string"},
          "impact": {"type": ["string", "null"]},
          "action": {"type": ["string", "null"]},
          "category": {"type": ["string", "null"]}
        },
        "required": ["title", "detail", "impact", "action", "category"],
        "additionalProperties": false
      }
    },
    "alerts": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["summary", "key_metrics", "highlights", "recommendations", "alerts"],
  "additionalProperties": false
}`)

// decodeReport validates the model's report. An unknown top-level field
// or any missing top-level field rejects it.
func decodeReport(raw json.RawMessage) (*Report, bool) {
	if len(raw) == 0 {
		return nil, false
	}

	var probe struct {
		Summary *struct {
			Headline  string `json:"headline"`
			Narrative string `json:"narrative"`
		} `json:"summary"`
		KeyMetrics      *[]ReportMetric         `json:"key_metrics"`
		Highlights      *[]string               `json:"highlights"`
		Recommendations *[]ReportRecommendation `json:"recommendations"`
		Alerts          *[]string               `json:"alerts"`
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&probe); err != nil {
		return nil, false
	}
	if probe.Summary == nil || probe.KeyMetrics == nil || probe.Highlights == nil ||
		probe.Recommendations == nil || probe.Alerts == nil {
		return nil, false
	}

	report := &Report{
		KeyMetrics:      *probe.KeyMetrics,
		Highlights:      *probe.Highlights,
		Recommendations: *probe.Recommendations,
		Alerts:          *probe.Alerts,
	}
	report.Summary.Headline = probe.Summary.Headline
	report.Summary.Narrative = probe.Summary.Narrative
	return report, true
}
