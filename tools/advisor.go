package tools

import (
	"context"
	"fmt"
	"math"

	"github.com/benchwise/finsight/core"
)

// AdvisorTools returns the tool set exposed to the conversational
// advisor agent. Every tool resolves its data through the snapshot
// source using the authoritative user identity on ToolParams.
func AdvisorTools(source SnapshotSource) []core.Tool {
	return []core.Tool{
		accountBalancesTool(source),
		incomeAndSpendingTool(source),
		spendingByCategoryTool(source),
		recurringSubscriptionsTool(source),
		unusualTransactionsTool(source),
		savingsGoalTimelineTool(source),
	}
}

func fetchSnapshot(ctx context.Context, source SnapshotSource, params *core.ToolParams, periodDays int) (*core.Snapshot, *core.ToolResult) {
	if params.UserID == "" {
		return nil, core.Fail("user_id is required")
	}
	snap, err := source.Snapshot(ctx, params.UserID, periodOrDefault(periodDays))
	if err != nil {
		return nil, core.Fail(fmt.Sprintf("Failed to retrieve financial data: %v", err))
	}
	return snap, nil
}

func accountBalancesTool(source SnapshotSource) core.Tool {
	return New("get_account_balances").
		Description("Get current account balances, assets, debt, and net worth.").
		Schema(ObjectSchema(map[string]interface{}{
			"period_days": IntegerProperty("Lookback window for analysis"),
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
				"accountSummary": snap.AccountSummary,
				"netWorth":       snap.AccountSummary.NetWorth,
				"totalAssets":    snap.AccountSummary.TotalAssets,
				"totalDebt":      snap.AccountSummary.TotalDebt,
			}), nil
		}).
		Build()
}

func incomeAndSpendingTool(source SnapshotSource) core.Tool {
	return New("get_income_and_spending").
		Description("Get income, spending, net cashflow, and savings rate for a period.").
		Schema(ObjectSchema(map[string]interface{}{
			"period_days": IntegerProperty("Number of days (7, 30, 60, or 90)"),
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
			flow := snap.Cashflow.Current
			return core.Ok(map[string]interface{}{
				"periodDays":  snap.PeriodDays,
				"totalIncome": flow.TotalIncome,
				"totalSpend":  flow.TotalSpend,
				"netCashflow": flow.NetCashflow,
				"savingsRate": flow.SavingsRate,
			}), nil
		}).
		Build()
}

func spendingByCategoryTool(source SnapshotSource) core.Tool {
	return New("get_spending_by_category").
		Description("Analyze spending broken down by categories with trends.").
		Schema(ObjectSchema(map[string]interface{}{
			"period_days": IntegerProperty("Lookback window for analysis"),
			"top":         IntegerProperty("Number of top categories (default: 10)"),
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
				"categories": categories,
				"totalSpend": snap.TotalSpend,
			}), nil
		}).
		Build()
}

func recurringSubscriptionsTool(source SnapshotSource) core.Tool {
	return New("get_recurring_subscriptions").
		Description("Identify recurring charges and subscriptions.").
		Schema(ObjectSchema(map[string]interface{}{
			"period_days": IntegerProperty("Lookback window for analysis"),
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
			var totalMonthly float64
			for _, charge := range snap.RecurringCharges {
				totalMonthly += charge.AverageAmount
			}
			return core.Ok(map[string]interface{}{
				"recurring":             snap.RecurringCharges,
				"totalMonthlyRecurring": totalMonthly,
			}), nil
		}).
		Build()
}

func unusualTransactionsTool(source SnapshotSource) core.Tool {
	return New("get_unusual_transactions").
		Description("Find unusually large or suspicious transactions.").
		Schema(ObjectSchema(map[string]interface{}{
			"period_days": IntegerProperty("Lookback window for analysis"),
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
			largest := snap.TopTransactions
			if len(largest) > limit {
				largest = largest[:limit]
			}
			return core.Ok(map[string]interface{}{
				"anomalies":           anomalies,
				"largestTransactions": largest,
			}), nil
		}).
		Build()
}

func savingsGoalTimelineTool(source SnapshotSource) core.Tool {
	return New("calculate_savings_goal_timeline").
		Description("Project timeline to reach a savings goal based on current savings rate.").
		Schema(ObjectSchema(map[string]interface{}{
			"goal_amount": NumberProperty("Target savings amount in USD"),
			"period_days": IntegerProperty("Lookback window for the savings rate (default: 60)"),
		}, "goal_amount")).
		Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
			var args struct {
				GoalAmount float64 `json:"goal_amount"`
				PeriodDays int     `json:"period_days"`
			}
			if err := params.Args(&args); err != nil {
				return core.Fail(fmt.Sprintf("invalid input: %v", err)), nil
			}
			snap, fail := fetchSnapshot(ctx, source, params, args.PeriodDays)
			if fail != nil {
				return fail, nil
			}

			currentAssets := snap.AccountSummary.TotalAssets
			monthlySavings := snap.Cashflow.Current.NetCashflow * (30 / float64(snap.PeriodDays))

			if args.GoalAmount <= currentAssets {
				return core.Ok(map[string]interface{}{
					"goalAmount":     args.GoalAmount,
					"currentSavings": currentAssets,
					"message":        "Goal already achieved!",
					"monthsToGoal":   0,
				}), nil
			}

			amountNeeded := args.GoalAmount - currentAssets
			if monthlySavings <= 0 {
				return core.Ok(map[string]interface{}{
					"goalAmount":     args.GoalAmount,
					"currentSavings": currentAssets,
					"monthlySavings": monthlySavings,
					"message":        "Currently not saving. Need to increase income or reduce expenses.",
					"monthsToGoal":   nil,
				}), nil
			}

			monthsToGoal := amountNeeded / monthlySavings
			return core.Ok(map[string]interface{}{
				"goalAmount":     args.GoalAmount,
				"currentSavings": currentAssets,
				"amountNeeded":   amountNeeded,
				"monthlySavings": monthlySavings,
				"monthsToGoal":   math.Round(monthsToGoal*10) / 10,
				"yearsToGoal":    math.Round(monthsToGoal/12*10) / 10,
			}), nil
		}).
		Build()
}
