package core

// DateRange is an inclusive calendar-day window in ISO (2006-01-02) form.
type DateRange struct {
	Start string `bson:"start" json:"start"`
	End   string `bson:"end" json:"end"`
}

// Cashflow summarizes one period's income and spend.
type Cashflow struct {
	TotalIncome float64 `bson:"totalIncome" json:"totalIncome"`
	TotalSpend  float64 `bson:"totalSpend" json:"totalSpend"`
	NetCashflow float64 `bson:"netCashflow" json:"netCashflow"`
	SavingsRate float64 `bson:"savingsRate" json:"savingsRate"`
}

// CashflowComparison pairs the current period with its baseline.
type CashflowComparison struct {
	Current  Cashflow `bson:"current" json:"current"`
	Baseline Cashflow `bson:"baseline" json:"baseline"`
}

// CategorySummary is one row of the category breakdown. ChangePct is nil
// when the category has no baseline spend to compare against.
type CategorySummary struct {
	Category      string   `bson:"category" json:"category"`
	Total         float64  `bson:"total" json:"total"`
	Count         int      `bson:"count" json:"count"`
	Average       float64  `bson:"average" json:"average"`
	BaselineTotal float64  `bson:"baselineTotal" json:"baselineTotal"`
	Change        float64  `bson:"change" json:"change"`
	ChangePct     *float64 `bson:"changePct" json:"changePct"`
}

// RecurringCharge is a merchant with two or more expense occurrences in
// the recurring-detection window. IsConsistent is informational only: it
// flags merchants whose amounts vary little, it never filters the list.
type RecurringCharge struct {
	Merchant      string  `bson:"merchant" json:"merchant"`
	AverageAmount float64 `bson:"averageAmount" json:"averageAmount"`
	Transactions  int     `bson:"transactions" json:"transactions"`
	TotalSpent    float64 `bson:"totalSpent" json:"totalSpent"`
	IsConsistent  bool    `bson:"isConsistent" json:"isConsistent"`
}

// AnomalousTransaction is an expense strictly above the statistical
// threshold for its period.
type AnomalousTransaction struct {
	Date      string  `bson:"date" json:"date"`
	Amount    float64 `bson:"amount" json:"amount"`
	Name      string  `bson:"name" json:"name"`
	Merchant  string  `bson:"merchant,omitempty" json:"merchant,omitempty"`
	Category  string  `bson:"category" json:"category"`
	Threshold float64 `bson:"threshold" json:"threshold"`
}

// TopTransaction is one of the largest individual expenses of the period.
type TopTransaction struct {
	Date     string  `bson:"date" json:"date"`
	Amount   float64 `bson:"amount" json:"amount"`
	Name     string  `bson:"name" json:"name"`
	Merchant string  `bson:"merchant,omitempty" json:"merchant,omitempty"`
	Category string  `bson:"category" json:"category"`
}

// SimplifiedTransaction is the flattened transaction form embedded in
// snapshots, with the amount already normalized.
type SimplifiedTransaction struct {
	TransactionID string   `bson:"transactionId" json:"transactionId"`
	Date          string   `bson:"date" json:"date"`
	Amount        float64  `bson:"amount" json:"amount"`
	Name          string   `bson:"name" json:"name"`
	Merchant      string   `bson:"merchant,omitempty" json:"merchant,omitempty"`
	Category      []string `bson:"category,omitempty" json:"category,omitempty"`
	InstitutionID string   `bson:"institutionId,omitempty" json:"institutionId,omitempty"`
	AccountID     string   `bson:"accountId,omitempty" json:"accountId,omitempty"`
}

// TransactionWindows carries the simplified transaction lists for the
// current window, the baseline window, and the 20 most recent entries.
type TransactionWindows struct {
	Current  []SimplifiedTransaction `bson:"current" json:"current"`
	Baseline []SimplifiedTransaction `bson:"baseline" json:"baseline"`
	Recent   []SimplifiedTransaction `bson:"recent" json:"recent"`
}

// InstitutionSummary rolls one connection up to per-institution totals.
type InstitutionSummary struct {
	InstitutionID   string  `bson:"institutionId" json:"institutionId"`
	InstitutionName string  `bson:"institutionName" json:"institutionName"`
	AccountCount    int     `bson:"accountCount" json:"accountCount"`
	AssetTotal      float64 `bson:"assetTotal" json:"assetTotal"`
	DebtTotal       float64 `bson:"debtTotal" json:"debtTotal"`
	LastSync        string  `bson:"lastSync,omitempty" json:"lastSync,omitempty"`
}

// AccountDetail is one account flattened into the account summary.
type AccountDetail struct {
	InstitutionID   string  `bson:"institutionId" json:"institutionId"`
	InstitutionName string  `bson:"institutionName" json:"institutionName"`
	AccountID       string  `bson:"accountId" json:"accountId"`
	Name            string  `bson:"name" json:"name"`
	Type            string  `bson:"type" json:"type"`
	Subtype         string  `bson:"subtype,omitempty" json:"subtype,omitempty"`
	Balance         float64 `bson:"balance" json:"balance"`
}

// AccountSummary aggregates all connected accounts into asset/debt totals.
type AccountSummary struct {
	TotalAssets  float64              `bson:"totalAssets" json:"totalAssets"`
	TotalDebt    float64              `bson:"totalDebt" json:"totalDebt"`
	NetWorth     float64              `bson:"netWorth" json:"netWorth"`
	Institutions []InstitutionSummary `bson:"institutions" json:"institutions"`
	Accounts     []AccountDetail      `bson:"accounts" json:"accounts"`
}

// Snapshot is the immutable, cacheable aggregate of a user's financial
// analytics for one lookback window. Once built it is never mutated;
// cache entries hand out the same value to every reader.
type Snapshot struct {
	UserID             string                 `bson:"userId" json:"userId"`
	PeriodDays         int                    `bson:"periodDays" json:"periodDays"`
	DateRange          DateRange              `bson:"dateRange" json:"dateRange"`
	Transactions       TransactionWindows     `bson:"transactions" json:"transactions"`
	AccountSummary     AccountSummary         `bson:"accountSummary" json:"accountSummary"`
	Cashflow           CashflowComparison     `bson:"cashflow" json:"cashflow"`
	CategoryBreakdown  []CategorySummary      `bson:"categoryBreakdown" json:"categoryBreakdown"`
	RecurringCharges   []RecurringCharge      `bson:"recurringCharges" json:"recurringCharges"`
	Anomalies          []AnomalousTransaction `bson:"anomalies" json:"anomalies"`
	TopTransactions    []TopTransaction       `bson:"topTransactions" json:"topTransactions"`
	OpportunitySignals []string               `bson:"opportunitySignals" json:"opportunitySignals"`
	TransactionCount   int                    `bson:"transactionCount" json:"transactionCount"`
	TotalIncome        float64                `bson:"totalIncome" json:"totalIncome"`
	TotalSpend         float64                `bson:"totalSpend" json:"totalSpend"`
	NetCashflow        float64                `bson:"netCashflow" json:"netCashflow"`
}
