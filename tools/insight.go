package tools

import (
	"context"
	"fmt"

	"github.com/benchwise/finsight/core"
)

// InsightTools returns the tool set exposed to the autonomous insight
// agent. These mirror the advisor tools but surface the comparison and
// signal views the report generator reasons over.
func InsightTools(source SnapshotSource) []core.Tool {
	return []core.Tool{
		accountOverviewTool(source),
		cashflowSummaryTool(source),
		spendingTrendsTool(source),
		recurringExpensesTool(source),
		anomalyTransactionsTool(source),
		opportunitySignalsTool(source),
	}
}

func accountOverviewTool(source SnapshotSource) core.Tool {
	return New("get_account_overview").
		Description("Summarize balances, debt, and net worth across connected accounts.").
		Schema(ObjectSchema(map[string]interface{}{
			"period_days": IntegerProperty("Lookback window"),
		})).
		Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
			var args struct {
				PeriodDays int `json:"period_days"`
			}
			if err := params.Args(&args); err != nil {
				return core.Fail(fmt.Sprintf("invalid input: %v", err)), nil
			}
			snap, fail := fetchSnapshot(ctx, source, params, args.PeriodDays)
			if fail != nil {
				return fail, nil
			}
			return core.Ok(snap.AccountSummary), nil
		}).
		Build()
}

func cashflowSummaryTool(source SnapshotSource) core.Tool {
	return New("get_cashflow_summary").
		Description("Return income, spending, net cashflow, and savings rate with baseline comparison.").
		Schema(ObjectSchema(map[string]interface{}{
			"period_days": IntegerProperty("Lookback window"),
		})).
		Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
			var args struct {
				PeriodDays int `json:"period_days"`
			}
			if err := params.Args(&args); err != nil {
				return core.Fail(fmt.Sprintf("invalid input: %v", err)), nil
			}
			snap, fail := fetchSnapshot(ctx, source, params, args.PeriodDays)
			if fail != nil {
				return fail, nil
			}
			return core.Ok(snap.Cashflow), nil
		}).
		Build()
}

func spendingTrendsTool(source SnapshotSource) core.Tool {
	return New("get_spending_trends").
		Description("Fetch top spending categories and trend changes from the prior period.").
		Schema(ObjectSchema(map[string]interface{}{
			"period_days": IntegerProperty("Lookback window"),
			"top":         IntegerProperty("Number of categories (default: 10)"),
		})).
		Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
			var args struct {
				PeriodDays int `json:"period_days"`
				Top        int `json:"top"`
			}
			if err := params.Args(&args); err != nil {
				return core.Fail(fmt.Sprintf("invalid input: %v", err)), nil
			}
			snap, fail := fetchSnapshot(ctx, source, params, args.PeriodDays)
			if fail != nil {
				return fail, nil
			}
			top := args.Top
			if top <= 0 {
				top = 10
			}
			categories := snap.CategoryBreakdown
			if len(categories) > top {
				categories = categories[:top]
			}
			return core.Ok(map[string]interface{}{
				"topCategories": categories,
				"totalSpend":    snap.TotalSpend,
			}), nil
		}).
		Build()
}

func recurringExpensesTool(source SnapshotSource) core.Tool {
	return New("get_recurring_expenses").
		Description("Identify recurring merchants and their average spend.").
		Schema(ObjectSchema(map[string]interface{}{
			"period_days": IntegerProperty("Lookback window"),
			"window_days": IntegerProperty("Lookback window for recurring detection (default: 90)"),
		})).
		Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
			var args struct {
				PeriodDays int `json:"period_days"`
				WindowDays int `json:"window_days"`
			}
			if err := params.Args(&args); err != nil {
				return core.Fail(fmt.Sprintf("invalid input: %v", err)), nil
			}
			snap, fail := fetchSnapshot(ctx, source, params, args.PeriodDays)
			if fail != nil {
				return fail, nil
			}
			window := args.WindowDays
			if window <= 0 {
				window = 90
			}
			return core.Ok(map[string]interface{}{
				"windowDays": window,
				"recurring":  snap.RecurringCharges,
			}), nil
		}).
		Build()
}

func anomalyTransactionsTool(source SnapshotSource) core.Tool {
	return New("get_anomaly_transactions").
		Description("List unusually large transactions that exceed statistical thresholds.").
		Schema(ObjectSchema(map[string]interface{}{
			"period_days": IntegerProperty("Lookback window"),
			"limit":       IntegerProperty("Maximum entries to return (default: 5)"),
		})).
		Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
			var args struct {
				PeriodDays int `json:"period_days"`
				Limit      int `json:"limit"`
			}
			if err := params.Args(&args); err != nil {
				return core.Fail(fmt.Sprintf("invalid input: %v", err)), nil
			}
			snap, fail := fetchSnapshot(ctx, source, params, args.PeriodDays)
			if fail != nil {
				return fail, nil
			}
			limit := args.Limit
			if limit <= 0 {
				limit = 5
			}
			anomalies := snap.Anomalies
			if len(anomalies) > limit {
				anomalies = anomalies[:limit]
			}
			top := snap.TopTransactions
			if len(top) > limit {
				top = top[:limit]
			}
			return core.Ok(map[string]interface{}{
				"anomalies":       anomalies,
				"topTransactions": top,
			}), nil
		}).
		Build()
}

func opportunitySignalsTool(source SnapshotSource) core.Tool {
	return New("get_opportunity_signals").
		Description("Surface heuristic insights such as high recurring spend or low savings rate.").
		Schema(ObjectSchema(map[string]interface{}{
			"period_days": IntegerProperty("Lookback window"),
		})).
		Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
			var args struct {
				PeriodDays int `json:"period_days"`
			}
			if err := params.Args(&args); err != nil {
				return core.Fail(fmt.Sprintf("invalid input: %v", err)), nil
			}
			snap, fail := fetchSnapshot(ctx, source, params, args.PeriodDays)
			if fail != nil {
				return fail, nil
			}
			return core.Ok(map[string]interface{}{
				"signals": snap.OpportunitySignals,
			}), nil
		}).
		Build()
}
