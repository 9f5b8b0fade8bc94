package insight

import (
	"testing"
	"time"

	"github.com/benchwise/finsight/core"
)

func TestFormatCurrency(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "$0"},
		{5, "$5"},
		{1234, "$1,234"},
		{1234567.4, "$1,234,567"},
		{999.6, "$1,000"},
		{-500, "$-500"},
		{-1234567, "$-1,234,567"},
	}
	for _, tc := range cases {
		if got := formatCurrency(tc.in); got != tc.want {
			t.Errorf("formatCurrency(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func sampleSnapshot() *core.Snapshot {
	return &core.Snapshot{
		UserID:     "user-1",
		PeriodDays: 60,
		DateRange:  core.DateRange{Start: "2026-06-30", End: "2026-08-28"},
		AccountSummary: core.AccountSummary{
			TotalAssets: 12000, TotalDebt: 4000, NetWorth: 8000,
		},
		Cashflow: core.CashflowComparison{
			Current: core.Cashflow{TotalIncome: 5000, TotalSpend: 4000, NetCashflow: 1000, SavingsRate: 20},
		},
		OpportunitySignals: []string{"sig-1", "sig-2", "sig-3", "sig-4"},
		TransactionCount:   42,
		TotalIncome:        5000,
		TotalSpend:         4000,
		NetCashflow:        1000,
	}
}

func TestBaselineMetrics(t *testing.T) {
	metrics := baselineMetrics(sampleSnapshot())
	if len(metrics) != 7 {
		t.Fatalf("len = %d, want 7", len(metrics))
	}
	labels := []string{"Net worth", "Total assets", "Total debt", "60d income", "60d spend", "Net cashflow", "Savings rate"}
	for i, want := range labels {
		if metrics[i].Label != want {
			t.Errorf("metrics[%d].Label = %q, want %q", i, metrics[i].Label, want)
		}
	}
	if metrics[0].DisplayValue != "$8,000" {
		t.Errorf("net worth display = %q", metrics[0].DisplayValue)
	}
	if metrics[6].DisplayValue != "20.0%" {
		t.Errorf("savings rate display = %q", metrics[6].DisplayValue)
	}
	if metrics[3].Value == nil || *metrics[3].Value != 5000 {
		t.Errorf("income value = %v", metrics[3].Value)
	}
}

func TestMergeMetrics(t *testing.T) {
	baseline := baselineMetrics(sampleSnapshot())

	agent := []ReportMetric{
		{Label: "net worth", Value: 999.0, DisplayValue: "$999"},       // duplicate, case-insensitive
		{Label: "Debt ratio", Value: "0.33", DisplayValue: "33%"},      // string coercion
		{Label: "Emergency fund", Value: 3000.0},                       // display autofilled
		{Label: "", Value: 1.0, DisplayValue: "x"},                     // no label, dropped
		{Label: "Subscriptions", Value: "n/a", DisplayValue: "several"}, // non-numeric
	}

	merged := mergeMetrics(baseline, agent)
	if len(merged) != 10 {
		t.Fatalf("len = %d, want 10 (7 baseline + 3 agent)", len(merged))
	}

	// baseline wins: net worth stays at its snapshot value
	if *merged[0].Value != 8000 {
		t.Errorf("net worth overwritten: %v", *merged[0].Value)
	}

	debtRatio := merged[7]
	if debtRatio.Label != "Debt ratio" || debtRatio.Value == nil || *debtRatio.Value != 0.33 {
		t.Errorf("debt ratio = %+v", debtRatio)
	}

	fund := merged[8]
	if fund.DisplayValue != "$3,000" {
		t.Errorf("autofilled display = %q", fund.DisplayValue)
	}

	subs := merged[9]
	if subs.Value != nil || subs.DisplayValue != "several" {
		t.Errorf("non-numeric metric = %+v", subs)
	}
}

func TestMergeMetricsCap(t *testing.T) {
	baseline := baselineMetrics(sampleSnapshot())
	var agent []ReportMetric
	for i := 0; i < 10; i++ {
		agent = append(agent, ReportMetric{Label: string(rune('A' + i)), Value: float64(i)})
	}
	merged := mergeMetrics(baseline, agent)
	if len(merged) != maxMetrics {
		t.Fatalf("len = %d, want %d", len(merged), maxMetrics)
	}
}

func TestPlaceholderDocument(t *testing.T) {
	snap := sampleSnapshot()
	snap.TransactionCount = 0
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	doc := placeholderDocument(snap, now)
	if doc.Summary.Headline != "Connect accounts to unlock insights" {
		t.Errorf("headline = %q", doc.Summary.Headline)
	}
	if len(doc.KeyMetrics) != 0 || len(doc.Highlights) != 0 || len(doc.Alerts) != 0 {
		t.Error("placeholder should carry empty lists")
	}
	if doc.Context.TransactionCount != 0 || doc.Context.TotalIncome != 0 {
		t.Errorf("context = %+v", doc.Context)
	}
	if doc.GeneratedAt != now || doc.Version != 1 {
		t.Errorf("metadata = %v v%d", doc.GeneratedAt, doc.Version)
	}
}

func TestHeuristicDocument(t *testing.T) {
	now := time.Now().UTC()
	doc := heuristicDocument(sampleSnapshot(), now)

	want := "BenchWise analyzed the last 60 days. Net cashflow is positive at $1,000. Total assets stand at $12,000 vs. debt of $4,000."
	if doc.Summary.Narrative != want {
		t.Errorf("narrative = %q", doc.Summary.Narrative)
	}
	if len(doc.KeyMetrics) != 7 {
		t.Errorf("metrics = %d", len(doc.KeyMetrics))
	}
	if len(doc.Highlights) != 3 {
		t.Errorf("highlights = %v", doc.Highlights)
	}
	if doc.Context.GeneratedFrom != generatorSignature {
		t.Errorf("generatedFrom = %q", doc.Context.GeneratedFrom)
	}
}

func TestHeuristicDocumentNegativeCashflow(t *testing.T) {
	snap := sampleSnapshot()
	snap.Cashflow.Current.NetCashflow = -250
	doc := heuristicDocument(snap, time.Now().UTC())
	want := "BenchWise analyzed the last 60 days. Net cashflow is negative at $250. Total assets stand at $12,000 vs. debt of $4,000."
	if doc.Summary.Narrative != want {
		t.Errorf("narrative = %q", doc.Summary.Narrative)
	}
}

func TestAgentDocument(t *testing.T) {
	report := &Report{
		KeyMetrics: []ReportMetric{{Label: "Debt ratio", Value: 0.33, DisplayValue: "33%"}},
		Highlights: []string{"h1", "h2", "h3", "h4", "h5", "h6", "h7"},
		Recommendations: []ReportRecommendation{
			{Title: "Cut subscriptions", Detail: "Cancel unused services", Impact: "Save $40/mo"},
			{Detail: "no title"},
		},
		Alerts: []string{"a1"},
	}
	report.Summary.Headline = "Strong month"
	report.Summary.Narrative = "Savings above target."

	doc := agentDocument(sampleSnapshot(), report, time.Now().UTC())
	if doc.Summary.Headline != "Strong month" {
		t.Errorf("headline = %q", doc.Summary.Headline)
	}
	if len(doc.Highlights) != maxListItems {
		t.Errorf("highlights = %d, want %d", len(doc.Highlights), maxListItems)
	}
	if len(doc.KeyMetrics) != 8 {
		t.Errorf("metrics = %d, want baseline+1", len(doc.KeyMetrics))
	}
	if doc.Recommendations[1].Title != "Recommendation" {
		t.Errorf("missing title default: %+v", doc.Recommendations[1])
	}
}

func TestAgentDocumentEmptyHeadline(t *testing.T) {
	doc := agentDocument(sampleSnapshot(), &Report{}, time.Now().UTC())
	if doc.Summary.Headline != "Financial insight update" {
		t.Errorf("headline = %q", doc.Summary.Headline)
	}
	if doc.Highlights == nil || doc.Alerts == nil {
		t.Error("lists should be non-nil")
	}
}
