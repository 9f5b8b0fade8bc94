package snapshot

import (
	"math"
	"sort"

	"github.com/benchwise/finsight/core"
)

const (
	categoryLimit    = 15
	recurringLimit   = 15
	anomalyLimit     = 10
	topTxnLimit      = 5
	recentTxnLimit   = 20
	anomalySigma     = 2.0
	minRecurringHits = 2
)

// computeCashflow splits a window's transactions into income and spend.
// Positive amounts are expenses, negative amounts are income.
func computeCashflow(txns []core.Transaction) core.Cashflow {
	var flow core.Cashflow
	if len(txns) == 0 {
		return flow
	}

	for _, txn := range txns {
		amount := txn.AmountValue()
		if amount >= 0 {
			flow.TotalSpend += amount
		} else {
			flow.TotalIncome += -amount
		}
	}

	flow.NetCashflow = flow.TotalIncome - flow.TotalSpend
	if flow.TotalIncome > 0 {
		flow.SavingsRate = flow.NetCashflow / flow.TotalIncome * 100
	}
	return flow
}

type categoryTally struct {
	total float64
	count int
}

func tallyCategories(txns []core.Transaction) map[string]*categoryTally {
	summary := make(map[string]*categoryTally)
	for _, txn := range txns {
		amount := txn.AmountValue()
		if amount <= 0 {
			continue
		}
		category := txn.PrimaryCategory()
		tally, ok := summary[category]
		if !ok {
			tally = &categoryTally{}
			summary[category] = tally
		}
		tally.total += amount
		tally.count++
	}
	return summary
}

// computeCategoryBreakdown compares per-category spend against the
// baseline window. Categories that exist only in the baseline are kept
// as zero-spend rows so drops stay visible.
func computeCategoryBreakdown(current, baseline []core.Transaction) []core.CategorySummary {
	currentSummary := tallyCategories(current)
	baselineSummary := tallyCategories(baseline)

	breakdown := make([]core.CategorySummary, 0, len(currentSummary)+len(baselineSummary))
	for category, tally := range currentSummary {
		var baselineTotal float64
		if b, ok := baselineSummary[category]; ok {
			baselineTotal = b.total
		}
		delta := tally.total - baselineTotal
		var changePct *float64
		if baselineTotal > 0 {
			pct := delta / baselineTotal * 100
			changePct = &pct
		}
		avg := 0.0
		if tally.count > 0 {
			avg = tally.total / float64(tally.count)
		}
		breakdown = append(breakdown, core.CategorySummary{
			Category:      category,
			Total:         tally.total,
			Count:         tally.count,
			Average:       avg,
			BaselineTotal: baselineTotal,
			Change:        delta,
			ChangePct:     changePct,
		})
	}

	for category, tally := range baselineSummary {
		if _, ok := currentSummary[category]; ok {
			continue
		}
		drop := -100.0
		breakdown = append(breakdown, core.CategorySummary{
			Category:      category,
			BaselineTotal: tally.total,
			Change:        -tally.total,
			ChangePct:     &drop,
		})
	}

	sort.SliceStable(breakdown, func(i, j int) bool {
		return breakdown[i].Total > breakdown[j].Total
	})
	if len(breakdown) > categoryLimit {
		breakdown = breakdown[:categoryLimit]
	}
	return breakdown
}

// computeRecurringCharges groups expenses by merchant over the recurring
// window and keeps merchants with at least two occurrences. Consistency
// is a flag on each row, never a filter.
func computeRecurringCharges(txns []core.Transaction) []core.RecurringCharge {
	merchantAmounts := make(map[string][]float64)
	for _, txn := range txns {
		amount := txn.AmountValue()
		if amount <= 0 {
			continue
		}
		merchant := txn.Merchant()
		if merchant == "" {
			continue
		}
		merchantAmounts[merchant] = append(merchantAmounts[merchant], amount)
	}

	recurring := make([]core.RecurringCharge, 0, len(merchantAmounts))
	for merchant, amounts := range merchantAmounts {
		if len(amounts) < minRecurringHits {
			continue
		}
		var total float64
		for _, a := range amounts {
			total += a
		}
		avg := total / float64(len(amounts))
		dev := stdDev(amounts, avg)
		recurring = append(recurring, core.RecurringCharge{
			Merchant:      merchant,
			AverageAmount: avg,
			Transactions:  len(amounts),
			TotalSpent:    total,
			IsConsistent:  dev <= math.Max(1, avg*0.1),
		})
	}

	sort.SliceStable(recurring, func(i, j int) bool {
		return recurring[i].TotalSpent > recurring[j].TotalSpent
	})
	if len(recurring) > recurringLimit {
		recurring = recurring[:recurringLimit]
	}
	return recurring
}

// computeAnomalies flags expenses strictly above mean + sigma*stddev of
// the period's expenses. When every expense is identical the threshold
// degrades to twice the mean so a flat series produces no anomalies.
func computeAnomalies(txns []core.Transaction) []core.AnomalousTransaction {
	var expenses []float64
	for _, txn := range txns {
		if amount := txn.AmountValue(); amount > 0 {
			expenses = append(expenses, amount)
		}
	}
	if len(expenses) == 0 {
		return nil
	}

	threshold := anomalyThreshold(expenses)

	var anomalies []core.AnomalousTransaction
	for _, txn := range txns {
		amount := txn.AmountValue()
		if amount <= threshold {
			continue
		}
		anomalies = append(anomalies, core.AnomalousTransaction{
			Date:      txn.Date,
			Amount:    amount,
			Name:      txn.Name,
			Merchant:  txn.MerchantName,
			Category:  txn.PrimaryCategory(),
			Threshold: threshold,
		})
	}

	sort.SliceStable(anomalies, func(i, j int) bool {
		return anomalies[i].Amount > anomalies[j].Amount
	})
	if len(anomalies) > anomalyLimit {
		anomalies = anomalies[:anomalyLimit]
	}
	return anomalies
}

// anomalyThreshold is mean + sigma*stddev of the expense amounts,
// degrading to twice the mean when every amount is identical.
func anomalyThreshold(expenses []float64) float64 {
	var sum float64
	for _, a := range expenses {
		sum += a
	}
	mean := sum / float64(len(expenses))
	dev := stdDev(expenses, mean)

	if dev == 0 {
		return mean * 2
	}
	return mean + anomalySigma*dev
}

// topTransactions returns the period's largest individual expenses.
func topTransactions(txns []core.Transaction) []core.TopTransaction {
	expenses := make([]core.Transaction, 0, len(txns))
	for _, txn := range txns {
		if txn.AmountValue() > 0 {
			expenses = append(expenses, txn)
		}
	}
	sort.SliceStable(expenses, func(i, j int) bool {
		return expenses[i].AmountValue() > expenses[j].AmountValue()
	})
	if len(expenses) > topTxnLimit {
		expenses = expenses[:topTxnLimit]
	}

	top := make([]core.TopTransaction, 0, len(expenses))
	for _, txn := range expenses {
		top = append(top, core.TopTransaction{
			Date:     txn.Date,
			Amount:   txn.AmountValue(),
			Name:     txn.Name,
			Merchant: txn.MerchantName,
			Category: txn.PrimaryCategory(),
		})
	}
	return top
}

// simplifyTransactions flattens raw transactions for snapshot embedding,
// newest first, with amounts normalized.
func simplifyTransactions(txns []core.Transaction) []core.SimplifiedTransaction {
	ordered := make([]core.Transaction, len(txns))
	copy(ordered, txns)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date > ordered[j].Date
	})

	simplified := make([]core.SimplifiedTransaction, 0, len(ordered))
	for _, txn := range ordered {
		simplified = append(simplified, core.SimplifiedTransaction{
			TransactionID: txn.ID,
			Date:          txn.Date,
			Amount:        txn.AmountValue(),
			Name:          txn.Name,
			Merchant:      txn.MerchantName,
			Category:      txn.Category,
			InstitutionID: txn.InstitutionID,
			AccountID:     txn.AccountID,
		})
	}
	return simplified
}

// computeAccountSummary rolls all bank connections up into asset and
// debt totals plus per-institution and per-account detail.
func computeAccountSummary(connections []core.Connection) core.AccountSummary {
	summary := core.AccountSummary{
		Institutions: []core.InstitutionSummary{},
		Accounts:     []core.AccountDetail{},
	}

	for _, conn := range connections {
		var instAssets, instDebt float64
		for _, account := range conn.Accounts {
			balance := account.BalanceValue()
			summary.Accounts = append(summary.Accounts, core.AccountDetail{
				InstitutionID:   conn.InstitutionID,
				InstitutionName: conn.InstitutionName,
				AccountID:       account.AccountID,
				Name:            account.Name,
				Type:            account.Type,
				Subtype:         account.Subtype,
				Balance:         balance,
			})

			switch account.Class() {
			case core.ClassAsset:
				summary.TotalAssets += balance
				instAssets += balance
			case core.ClassDebt:
				summary.TotalDebt += balance
				instDebt += balance
			}
		}

		summary.Institutions = append(summary.Institutions, core.InstitutionSummary{
			InstitutionID:   conn.InstitutionID,
			InstitutionName: conn.InstitutionName,
			AccountCount:    len(conn.Accounts),
			AssetTotal:      instAssets,
			DebtTotal:       instDebt,
			LastSync:        conn.LastSync,
		})
	}

	summary.NetWorth = summary.TotalAssets - summary.TotalDebt
	return summary
}

// stdDev is the population standard deviation around a known mean.
func stdDev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(values)))
}
