package core

import "testing"

func TestAccountClass(t *testing.T) {
	cases := []struct {
		typ  string
		want AccountClass
	}{
		{"depository", ClassAsset},
		{"Investment", ClassAsset},
		{"brokerage", ClassAsset},
		{"cash_management", ClassAsset},
		{"credit", ClassDebt},
		{"LOAN", ClassDebt},
		{"mortgage", ClassDebt},
		{"other", ClassNeutral},
		{"", ClassNeutral},
	}
	for _, tc := range cases {
		a := Account{Type: tc.typ}
		if got := a.Class(); got != tc.want {
			t.Fatalf("Class(%q) = %v, want %v", tc.typ, got, tc.want)
		}
	}
}

func TestTransactionMerchantFallback(t *testing.T) {
	tx := Transaction{Name: "COFFEE SHOP #42", MerchantName: "Coffee Shop"}
	if got := tx.Merchant(); got != "Coffee Shop" {
		t.Fatalf("Merchant() = %q, want merchant name", got)
	}
	tx.MerchantName = ""
	if got := tx.Merchant(); got != "COFFEE SHOP #42" {
		t.Fatalf("Merchant() = %q, want name fallback", got)
	}
}

func TestTransactionPrimaryCategory(t *testing.T) {
	tx := Transaction{Category: []string{"Food and Drink", "Restaurants"}}
	if got := tx.PrimaryCategory(); got != "Food and Drink" {
		t.Fatalf("PrimaryCategory() = %q", got)
	}
	tx.Category = nil
	if got := tx.PrimaryCategory(); got != UncategorizedLabel {
		t.Fatalf("PrimaryCategory() = %q, want %q", got, UncategorizedLabel)
	}
}

func TestAmountValue(t *testing.T) {
	tx := Transaction{Amount: "12.50"}
	if got := tx.AmountValue(); got != 12.5 {
		t.Fatalf("AmountValue() = %v", got)
	}
	tx.Amount = map[string]interface{}{"value": -2000.0}
	if got := tx.AmountValue(); got != -2000 {
		t.Fatalf("AmountValue() = %v", got)
	}
}
