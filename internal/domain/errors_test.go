package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRequireHousehold(t *testing.T) {
	assert.NoError(t, RequireHousehold("hh-1"))

	err := RequireHousehold("")
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "householdId is required", err.Error())

	wrapped := fmt.Errorf("Cashflow: %w", err)
	assert.True(t, errors.Is(wrapped, ErrValidation))
	assert.False(t, errors.Is(wrapped, ErrNotFound))
}

func TestTransactionFilterMatches(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC)
	f := TransactionFilter{HouseholdID: "hh", Start: &start, End: &end, ExpensesOnly: true}

	tests := []struct {
		name string
		tx   Transaction
		want bool
	}{
		{"in window expense", Transaction{HouseholdID: "hh", PostedAt: start.AddDate(0, 0, 3), Amount: -10}, true},
		{"income excluded", Transaction{HouseholdID: "hh", PostedAt: start.AddDate(0, 0, 3), Amount: 10}, false},
		{"other household", Transaction{HouseholdID: "x", PostedAt: start.AddDate(0, 0, 3), Amount: -10}, false},
		{"before window", Transaction{HouseholdID: "hh", PostedAt: start.Add(-time.Second), Amount: -10}, false},
		{"on end bound", Transaction{HouseholdID: "hh", PostedAt: end, Amount: -10}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Matches(tt.tx))
		})
	}
}

func TestRecurringExpensesTransactions(t *testing.T) {
	r := RecurringExpenses{Groups: []RecurringGroup{
		{Merchant: "A", Transactions: []Transaction{{ID: "1"}, {ID: "2"}}},
		{Merchant: "B", Transactions: []Transaction{{ID: "3"}}},
	}}
	got := r.Transactions()
	assert.Len(t, got, 3)
	assert.Equal(t, "3", got[2].ID)
}
