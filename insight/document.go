// Package insight generates periodic financial insight reports. Reports
// are produced in three tiers: placeholder for users with no activity,
// heuristic when the model is unavailable or misbehaves, and full agent
// reports merged with baseline metrics.
package insight

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/benchwise/finsight/core"
)

const (
	maxMetrics         = 10
	maxListItems       = 6
	documentVersion    = 1
	generatorSignature = "finsight-agent-v1"
)

// Summary is the report headline and narrative.
type Summary struct {
	Headline  string `bson:"headline" json:"headline"`
	Narrative string `bson:"narrative" json:"narrative"`
}

// KeyMetric is one metric row of the report. Value is nil when the
// metric has no numeric form.
type KeyMetric struct {
	Label        string   `bson:"label" json:"label"`
	Value        *float64 `bson:"value" json:"value"`
	DisplayValue string   `bson:"displayValue" json:"displayValue"`
}

// Recommendation is one suggested action in the report.
type Recommendation struct {
	Title    string `bson:"title" json:"title"`
	Detail   string `bson:"detail" json:"detail"`
	Impact   string `bson:"impact,omitempty" json:"impact,omitempty"`
	Action   string `bson:"action,omitempty" json:"action,omitempty"`
	Category string `bson:"category,omitempty" json:"category,omitempty"`
}

// Context records what window and totals the report was generated from.
type Context struct {
	PeriodDays       int            `bson:"periodDays" json:"periodDays"`
	DateRange        core.DateRange `bson:"dateRange" json:"dateRange"`
	TransactionCount int            `bson:"transactionCount" json:"transactionCount"`
	TotalIncome      float64        `bson:"totalIncome" json:"totalIncome"`
	TotalSpend       float64        `bson:"totalSpend" json:"totalSpend"`
	NetCashflow      float64        `bson:"netCashflow" json:"netCashflow"`
	GeneratedFrom    string         `bson:"generatedFrom" json:"generatedFrom"`
}

// Document is the insight report persisted per user. Each user has
// exactly one; regeneration replaces it.
type Document struct {
	UserID          string           `bson:"userId" json:"userId"`
	Summary         Summary          `bson:"summary" json:"summary"`
	KeyMetrics      []KeyMetric      `bson:"keyMetrics" json:"keyMetrics"`
	Highlights      []string         `bson:"highlights" json:"highlights"`
	Recommendations []Recommendation `bson:"recommendations" json:"recommendations"`
	Alerts          []string         `bson:"alerts" json:"alerts"`
	Context         Context          `bson:"context" json:"context"`
	GeneratedAt     time.Time        `bson:"generatedAt" json:"generatedAt"`
	Version         int              `bson:"version" json:"version"`
}

func documentContext(snap *core.Snapshot) Context {
	return Context{
		PeriodDays:       snap.PeriodDays,
		DateRange:        snap.DateRange,
		TransactionCount: snap.TransactionCount,
		TotalIncome:      snap.TotalIncome,
		TotalSpend:       snap.TotalSpend,
		NetCashflow:      snap.NetCashflow,
		GeneratedFrom:    generatorSignature,
	}
}

// placeholderDocument is stored for users with no transactions in the
// window.
func placeholderDocument(snap *core.Snapshot, now time.Time) *Document {
	return &Document{
		UserID: snap.UserID,
		Summary: Summary{
			Headline:  "Connect accounts to unlock insights",
			Narrative: "No financial data available for analysis. Connect your accounts to get personalized AI insights and recommendations.",
		},
		KeyMetrics:      []KeyMetric{},
		Highlights:      []string{},
		Recommendations: []Recommendation{},
		Alerts:          []string{},
		Context: Context{
			PeriodDays:    snap.PeriodDays,
			DateRange:     snap.DateRange,
			GeneratedFrom: generatorSignature,
		},
		GeneratedAt: now,
		Version:     documentVersion,
	}
}

// heuristicDocument is the model-free report built purely from snapshot
// aggregates.
func heuristicDocument(snap *core.Snapshot, now time.Time) *Document {
	flow := snap.Cashflow.Current
	trend := "positive"
	if flow.NetCashflow < 0 {
		trend = "negative"
	}

	narrative := fmt.Sprintf(
		"BenchWise analyzed the last %d days. Net cashflow is %s at %s. Total assets stand at %s vs. debt of %s.",
		snap.PeriodDays,
		trend,
		formatCurrency(math.Abs(flow.NetCashflow)),
		formatCurrency(snap.AccountSummary.TotalAssets),
		formatCurrency(snap.AccountSummary.TotalDebt),
	)

	highlights := snap.OpportunitySignals
	if len(highlights) > 3 {
		highlights = highlights[:3]
	}
	if highlights == nil {
		highlights = []string{}
	}

	return &Document{
		UserID: snap.UserID,
		Summary: Summary{
			Headline:  "Fresh insights based on recent activity",
			Narrative: narrative,
		},
		KeyMetrics:      baselineMetrics(snap),
		Highlights:      highlights,
		Recommendations: []Recommendation{},
		Alerts:          []string{},
		Context:         documentContext(snap),
		GeneratedAt:     now,
		Version:         documentVersion,
	}
}

// agentDocument combines the model's structured report with baseline
// metrics and snapshot context.
func agentDocument(snap *core.Snapshot, report *Report, now time.Time) *Document {
	headline := report.Summary.Headline
	if headline == "" {
		headline = "Financial insight update"
	}

	recommendations := make([]Recommendation, 0, maxListItems)
	for _, rec := range report.Recommendations {
		if len(recommendations) == maxListItems {
			break
		}
		title := rec.Title
		if title == "" {
			title = "Recommendation"
		}
		recommendations = append(recommendations, Recommendation{
			Title:    title,
			Detail:   rec.Detail,
			Impact:   rec.Impact,
			Action:   rec.Action,
			Category: rec.Category,
		})
	}

	highlights := report.Highlights
	if len(highlights) > maxListItems {
		highlights = highlights[:maxListItems]
	}
	if highlights == nil {
		highlights = []string{}
	}
	alerts := report.Alerts
	if len(alerts) > maxListItems {
		alerts = alerts[:maxListItems]
	}
	if alerts == nil {
		alerts = []string{}
	}

	return &Document{
		UserID: snap.UserID,
		Summary: Summary{
			Headline:  headline,
			Narrative: report.Summary.Narrative,
		},
		KeyMetrics:      mergeMetrics(baselineMetrics(snap), report.KeyMetrics),
		Highlights:      highlights,
		Recommendations: recommendations,
		Alerts:          alerts,
		Context:         documentContext(snap),
		GeneratedAt:     now,
		Version:         documentVersion,
	}
}

// baselineMetrics derives the always-present metric rows from the
// snapshot. These win over anything the model reports.
func baselineMetrics(snap *core.Snapshot) []KeyMetric {
	accounts := snap.AccountSummary
	flow := snap.Cashflow.Current

	metric := func(label string, value float64, display string) KeyMetric {
		v := value
		return KeyMetric{Label: label, Value: &v, DisplayValue: display}
	}

	return []KeyMetric{
		metric("Net worth", accounts.NetWorth, formatCurrency(accounts.NetWorth)),
		metric("Total assets", accounts.TotalAssets, formatCurrency(accounts.TotalAssets)),
		metric("Total debt", accounts.TotalDebt, formatCurrency(accounts.TotalDebt)),
		metric(fmt.Sprintf("%dd income", snap.PeriodDays), flow.TotalIncome, formatCurrency(flow.TotalIncome)),
		metric(fmt.Sprintf("%dd spend", snap.PeriodDays), flow.TotalSpend, formatCurrency(flow.TotalSpend)),
		metric("Net cashflow", flow.NetCashflow, formatCurrency(flow.NetCashflow)),
		metric("Savings rate", flow.SavingsRate, fmt.Sprintf("%.1f%%", flow.SavingsRate)),
	}
}

// mergeMetrics appends the model's metrics after the baseline ones,
// dropping duplicates by case-insensitive label and coercing values to
// numbers where possible. The result is capped at maxMetrics rows.
func mergeMetrics(baseline []KeyMetric, agent []ReportMetric) []KeyMetric {
	merged := make([]KeyMetric, 0, maxMetrics)
	merged = append(merged, baseline...)

	seen := make(map[string]bool, len(baseline))
	for _, m := range baseline {
		seen[strings.ToLower(m.Label)] = true
	}

	for _, m := range agent {
		if m.Label == "" || seen[strings.ToLower(m.Label)] {
			continue
		}

		value := coerceNumber(m.Value)
		display := m.DisplayValue
		if display == "" && value != nil {
			display = formatCurrency(*value)
		}

		merged = append(merged, KeyMetric{
			Label:        m.Label,
			Value:        value,
			DisplayValue: display,
		})
		seen[strings.ToLower(m.Label)] = true
	}

	if len(merged) > maxMetrics {
		merged = merged[:maxMetrics]
	}
	return merged
}

// coerceNumber converts a reported metric value to a float, accepting
// numbers and numeric strings.
func coerceNumber(value interface{}) *float64 {
	switch v := value.(type) {
	case float64:
		return &v
	case float32:
		f := float64(v)
		return &f
	case int:
		f := float64(v)
		return &f
	case int64:
		f := float64(v)
		return &f
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return &f
		}
	}
	return nil
}

// formatCurrency renders a USD amount with thousands separators and no
// cents, keeping the sign ahead of the dollar symbol.
func formatCurrency(value float64) string {
	negative := value < 0
	rounded := int64(math.Round(math.Abs(value)))

	digits := strconv.FormatInt(rounded, 10)
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
		if len(digits) > lead {
			b.WriteString(",")
		}
	}
	for i := lead; i < len(digits); i += 3 {
		b.WriteString(digits[i : i+3])
		if i+3 < len(digits) {
			b.WriteString(",")
		}
	}

	if negative {
		return "$-" + b.String()
	}
	return "$" + b.String()
}
