package domain

import (
	"math"
	"time"
)

// DefaultCurrency is used when an ingestion source does not state a currency.
const DefaultCurrency = "USD"

// Transaction is one ledger entry of a household.
// Amount is signed: negative values are expenses, non-negative values are income.
// Transactions are immutable once stored except for category backfill.
type Transaction struct {
	ID          string    `json:"id"`
	HouseholdID string    `json:"householdId"`
	AccountID   string    `json:"accountId"`
	PostedAt    time.Time `json:"postedAt"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`

	Merchant  string `json:"merchant,omitempty"`
	Category  string `json:"category,omitempty"`
	Recurring *bool  `json:"recurring,omitempty"`
	Notes     string `json:"notes,omitempty"`

	// Embedding is the semantic vector of the transaction text, if one was computed.
	Embedding []float32 `json:"-"`
}

// IsExpense reports whether the transaction is money leaving the household.
func (t Transaction) IsExpense() bool {
	return t.Amount < 0
}

// AbsAmount returns the unsigned amount.
func (t Transaction) AbsAmount() float64 {
	return math.Abs(t.Amount)
}

// CategoryOrDefault returns the category label, substituting Uncategorized when absent.
func (t Transaction) CategoryOrDefault() string {
	if t.Category == "" {
		return Uncategorized
	}
	return t.Category
}

// Uncategorized is the label for transactions without a known category.
const Uncategorized = "Uncategorized"

// TransactionFilter narrows a transaction read. HouseholdID is mandatory.
// Start and End are inclusive bounds on PostedAt; nil means unbounded.
type TransactionFilter struct {
	HouseholdID  string
	Start        *time.Time
	End          *time.Time
	ExpensesOnly bool
	WithMerchant bool
	NewestFirst  bool
	Limit        int
}

// Matches reports whether tx satisfies the filter.
func (f TransactionFilter) Matches(tx Transaction) bool {
	if tx.HouseholdID != f.HouseholdID {
		return false
	}
	if f.Start != nil && tx.PostedAt.Before(*f.Start) {
		return false
	}
	if f.End != nil && tx.PostedAt.After(*f.End) {
		return false
	}
	if f.ExpensesOnly && !tx.IsExpense() {
		return false
	}
	if f.WithMerchant && tx.Merchant == "" {
		return false
	}
	return true
}
