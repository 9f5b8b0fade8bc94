package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/benchwise/finsight/core"
)

type fakeSource struct {
	snap       *core.Snapshot
	err        error
	lastUserID string
	lastPeriod int
}

func (f *fakeSource) Snapshot(ctx context.Context, userID string, periodDays int) (*core.Snapshot, error) {
	f.lastUserID = userID
	f.lastPeriod = periodDays
	if f.err != nil {
		return nil, f.err
	}
	snap := *f.snap
	snap.PeriodDays = periodDays
	return &snap, nil
}

func sampleSnapshot() *core.Snapshot {
	return &core.Snapshot{
		UserID:     "user-1",
		PeriodDays: 60,
		AccountSummary: core.AccountSummary{
			TotalAssets: 5000,
			TotalDebt:   1000,
			NetWorth:    4000,
		},
		Cashflow: core.CashflowComparison{
			Current: core.Cashflow{TotalIncome: 4000, TotalSpend: 3000, NetCashflow: 1000, SavingsRate: 25},
		},
		RecurringCharges: []core.RecurringCharge{
			{Merchant: "Netflix", AverageAmount: 15, TotalSpent: 45, Transactions: 3},
			{Merchant: "Gym", AverageAmount: 50, TotalSpent: 150, Transactions: 3},
		},
		TotalSpend: 3000,
	}
}

func findTool(t *testing.T, set []core.Tool, name string) core.Tool {
	t.Helper()
	for _, tool := range set {
		if tool.Definition().Name == name {
			return tool
		}
	}
	t.Fatalf("tool %q not found", name)
	return nil
}

func callTool(t *testing.T, tool core.Tool, userID string, input string) map[string]interface{} {
	t.Helper()
	result, err := tool.Execute(context.Background(), &core.ToolParams{
		UserID: userID,
		Input:  json.RawMessage(input),
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !result.Success {
		t.Fatalf("tool failed: %s", result.Error)
	}
	raw, err := json.Marshal(result.Data)
	if err != nil {
		t.Fatal(err)
	}
	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatal(err)
	}
	return data
}

func TestAdvisorToolNames(t *testing.T) {
	set := AdvisorTools(&fakeSource{snap: sampleSnapshot()})
	want := []string{
		"get_account_balances",
		"get_income_and_spending",
		"get_spending_by_category",
		"get_recurring_subscriptions",
		"get_unusual_transactions",
		"calculate_savings_goal_timeline",
	}
	if len(set) != len(want) {
		t.Fatalf("len = %d, want %d", len(set), len(want))
	}
	for _, name := range want {
		findTool(t, set, name)
	}
}

func TestAccountBalances(t *testing.T) {
	source := &fakeSource{snap: sampleSnapshot()}
	tool := findTool(t, AdvisorTools(source), "get_account_balances")

	data := callTool(t, tool, "user-1", `{}`)
	if data["netWorth"] != 4000.0 || data["totalAssets"] != 5000.0 || data["totalDebt"] != 1000.0 {
		t.Errorf("balances = %v", data)
	}
	if source.lastPeriod != 60 {
		t.Errorf("default period = %d, want 60", source.lastPeriod)
	}
	if source.lastUserID != "user-1" {
		t.Errorf("user = %q", source.lastUserID)
	}
}

func TestToolRequiresUserID(t *testing.T) {
	tool := findTool(t, AdvisorTools(&fakeSource{snap: sampleSnapshot()}), "get_account_balances")
	result, err := tool.Execute(context.Background(), &core.ToolParams{Input: json.RawMessage(`{}`)})
	if err != nil {
		t.Fatal(err)
	}
	if result.Success || result.Error != "user_id is required" {
		t.Fatalf("result = %+v", result)
	}
}

func TestToolSnapshotError(t *testing.T) {
	source := &fakeSource{err: errors.New("mongo down")}
	tool := findTool(t, AdvisorTools(source), "get_income_and_spending")
	result, err := tool.Execute(context.Background(), &core.ToolParams{UserID: "u", Input: json.RawMessage(`{}`)})
	if err != nil {
		t.Fatal(err)
	}
	if result.Success {
		t.Fatal("expected failure result")
	}
}

func TestRecurringSubscriptionsTotal(t *testing.T) {
	tool := findTool(t, AdvisorTools(&fakeSource{snap: sampleSnapshot()}), "get_recurring_subscriptions")
	data := callTool(t, tool, "user-1", `{}`)
	if data["totalMonthlyRecurring"] != 65.0 {
		t.Errorf("totalMonthlyRecurring = %v, want 65", data["totalMonthlyRecurring"])
	}
}

func TestSavingsGoalAlreadyMet(t *testing.T) {
	tool := findTool(t, AdvisorTools(&fakeSource{snap: sampleSnapshot()}), "calculate_savings_goal_timeline")
	data := callTool(t, tool, "user-1", `{"goal_amount": 3000}`)
	if data["monthsToGoal"] != 0.0 {
		t.Errorf("monthsToGoal = %v, want 0", data["monthsToGoal"])
	}
	if data["message"] != "Goal already achieved!" {
		t.Errorf("message = %v", data["message"])
	}
}

func TestSavingsGoalNotSaving(t *testing.T) {
	snap := sampleSnapshot()
	snap.Cashflow.Current.NetCashflow = -200
	tool := findTool(t, AdvisorTools(&fakeSource{snap: snap}), "calculate_savings_goal_timeline")

	data := callTool(t, tool, "user-1", `{"goal_amount": 10000}`)
	if val, present := data["monthsToGoal"]; !present || val != nil {
		t.Errorf("monthsToGoal = %v, want null", val)
	}
	if data["message"] != "Currently not saving. Need to increase income or reduce expenses." {
		t.Errorf("message = %v", data["message"])
	}
}

func TestSavingsGoalProjection(t *testing.T) {
	tool := findTool(t, AdvisorTools(&fakeSource{snap: sampleSnapshot()}), "calculate_savings_goal_timeline")

	// net cashflow 1000 over 60 days scales to 500/month; 5000 needed
	data := callTool(t, tool, "user-1", `{"goal_amount": 10000}`)
	if data["monthsToGoal"] != 10.0 {
		t.Errorf("monthsToGoal = %v, want 10", data["monthsToGoal"])
	}
	if data["yearsToGoal"] != 0.8 {
		t.Errorf("yearsToGoal = %v, want 0.8", data["yearsToGoal"])
	}
	if data["amountNeeded"] != 5000.0 {
		t.Errorf("amountNeeded = %v", data["amountNeeded"])
	}
}

func TestSpendingByCategoryLimit(t *testing.T) {
	snap := sampleSnapshot()
	for i := 0; i < 12; i++ {
		snap.CategoryBreakdown = append(snap.CategoryBreakdown, core.CategorySummary{
			Category: string(rune('A' + i)),
			Total:    float64(12 - i),
		})
	}
	tool := findTool(t, AdvisorTools(&fakeSource{snap: snap}), "get_spending_by_category")

	data := callTool(t, tool, "user-1", `{}`)
	categories := data["categories"].([]interface{})
	if len(categories) != 10 {
		t.Errorf("default top = %d, want 10", len(categories))
	}

	data = callTool(t, tool, "user-1", `{"top": 3}`)
	categories = data["categories"].([]interface{})
	if len(categories) != 3 {
		t.Errorf("top 3 = %d", len(categories))
	}
}

func TestInsightToolNames(t *testing.T) {
	set := InsightTools(&fakeSource{snap: sampleSnapshot()})
	want := []string{
		"get_account_overview",
		"get_cashflow_summary",
		"get_spending_trends",
		"get_recurring_expenses",
		"get_anomaly_transactions",
		"get_opportunity_signals",
	}
	if len(set) != len(want) {
		t.Fatalf("len = %d, want %d", len(set), len(want))
	}
	for _, name := range want {
		findTool(t, set, name)
	}
}

func TestOpportunitySignalsTool(t *testing.T) {
	snap := sampleSnapshot()
	snap.OpportunitySignals = []string{"sig-a", "sig-b"}
	tool := findTool(t, InsightTools(&fakeSource{snap: snap}), "get_opportunity_signals")

	data := callTool(t, tool, "user-1", `{}`)
	signals := data["signals"].([]interface{})
	if len(signals) != 2 || signals[0] != "sig-a" {
		t.Errorf("signals = %v", signals)
	}
}
