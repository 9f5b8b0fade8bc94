// Package core defines the shared domain types for the finsight engine:
// raw ledger records, derived snapshot aggregates, the tool contract, and
// the model transcript.
package core

import "strings"

// UncategorizedLabel is the primary category assigned to transactions
// that carry no category labels.
const UncategorizedLabel = "Uncategorized"

// Transaction is a raw ledger record. Sign convention: positive amounts
// are expenses/outflows, negative amounts are income/inflows. Records are
// owned by the upstream ledger and read-only here; Amount is kept raw
// because providers deliver numbers, numeric strings, and nested objects.
type Transaction struct {
	ID            string   `bson:"transaction_id" json:"transactionId"`
	Date          string   `bson:"date" json:"date"`
	Name          string   `bson:"name" json:"name"`
	MerchantName  string   `bson:"merchant_name,omitempty" json:"merchant,omitempty"`
	Category      []string `bson:"category,omitempty" json:"category,omitempty"`
	AccountID     string   `bson:"account_id,omitempty" json:"accountId,omitempty"`
	InstitutionID string   `bson:"institutionId,omitempty" json:"institutionId,omitempty"`
	Amount        any      `bson:"amount" json:"amount"`
}

// AmountValue returns the normalized transaction amount.
func (t Transaction) AmountValue() float64 {
	return ToNumber(t.Amount)
}

// PrimaryCategory returns the first category label, or UncategorizedLabel
// when the transaction carries none.
func (t Transaction) PrimaryCategory() string {
	if len(t.Category) == 0 || t.Category[0] == "" {
		return UncategorizedLabel
	}
	return t.Category[0]
}

// Merchant returns the merchant name, falling back to the display name.
func (t Transaction) Merchant() string {
	if t.MerchantName != "" {
		return t.MerchantName
	}
	return t.Name
}

// Account is a single account within a bank connection. Balance is the
// flattened balance; Balances holds the provider's nested balance object
// for records that never got flattened.
type Account struct {
	AccountID string `bson:"accountId" json:"accountId"`
	Name      string `bson:"name" json:"name"`
	Type      string `bson:"type" json:"type"`
	Subtype   string `bson:"subtype,omitempty" json:"subtype,omitempty"`
	Balance   any    `bson:"balance,omitempty" json:"balance,omitempty"`
	Balances  any    `bson:"balances,omitempty" json:"balances,omitempty"`
}

// BalanceValue returns the normalized account balance, preferring the
// flattened field over the nested balance object.
func (a Account) BalanceValue() float64 {
	if a.Balance != nil {
		return ToNumber(a.Balance)
	}
	return ToNumber(a.Balances)
}

// AccountClass partitions account types for net-worth rollups.
type AccountClass int

const (
	// ClassNeutral accounts contribute to neither assets nor debt.
	ClassNeutral AccountClass = iota
	// ClassAsset accounts contribute to total assets.
	ClassAsset
	// ClassDebt accounts contribute to total debt.
	ClassDebt
)

// Class maps the account type to its rollup class. Provider type labels
// are matched case-insensitively.
func (a Account) Class() AccountClass {
	switch strings.ToLower(a.Type) {
	case "depository", "investment", "brokerage", "cash_management":
		return ClassAsset
	case "credit", "loan", "mortgage":
		return ClassDebt
	default:
		return ClassNeutral
	}
}

// Connection is one institution link with its accounts.
type Connection struct {
	InstitutionID   string    `bson:"institutionId" json:"institutionId"`
	InstitutionName string    `bson:"institutionName" json:"institutionName"`
	LastSync        string    `bson:"lastSync,omitempty" json:"lastSync,omitempty"`
	Accounts        []Account `bson:"accounts" json:"accounts"`
}
