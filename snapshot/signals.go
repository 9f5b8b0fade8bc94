package snapshot

import (
	"fmt"
	"math"

	"github.com/benchwise/finsight/core"
)

// opportunitySignals derives plain-language observations from the
// aggregates. Order is fixed: cashflow health first, then leverage,
// recurring spend, anomalies, and category concentration.
func opportunitySignals(
	accounts core.AccountSummary,
	cashflow core.Cashflow,
	categories []core.CategorySummary,
	recurring []core.RecurringCharge,
	anomalies []core.AnomalousTransaction,
) []string {
	var signals []string

	if cashflow.NetCashflow < 0 {
		signals = append(signals, "Net cashflow is negative; spending exceeds income in the current period.")
	} else if cashflow.SavingsRate < 10 {
		signals = append(signals, "Savings rate is below 10%; consider trimming discretionary spend to boost savings.")
	}

	if accounts.TotalDebt > 0 && accounts.TotalAssets > 0 {
		debtRatio := accounts.TotalDebt / math.Max(accounts.TotalAssets, 1)
		if debtRatio > 0.6 {
			signals = append(signals, "Debt represents more than 60% of assets; monitor leverage closely.")
		}
	}

	if len(recurring) > 0 && recurring[0].TotalSpent > 300 {
		signals = append(signals, fmt.Sprintf(
			"High recurring spend detected with %s at %.2f over three months.",
			recurring[0].Merchant, recurring[0].TotalSpent,
		))
	}

	if len(anomalies) > 0 {
		largest := anomalies[0]
		signals = append(signals, fmt.Sprintf(
			"Unusually large transaction of %.2f on %s (%s).",
			largest.Amount, largest.Date, largest.Name,
		))
	}

	if len(categories) > 0 && cashflow.TotalSpend > 0 {
		top := categories[0]
		share := top.Total / math.Max(cashflow.TotalSpend, 1) * 100
		if share > 35 {
			signals = append(signals, fmt.Sprintf(
				"%s accounts for %.1f%% of spending; explore optimization opportunities.",
				top.Category, share,
			))
		}
	}

	return signals
}
