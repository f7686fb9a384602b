package analytics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/dvloznov/finance-advisor/internal/ledger/inmemory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hh = "hh-1"

var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func newEngine(t *testing.T, txs ...domain.Transaction) (*Engine, *inmemory.Store) {
	t.Helper()
	store := inmemory.NewStore()
	for i := range txs {
		if txs[i].ID == "" {
			txs[i].ID = fmt.Sprintf("tx-%d", i)
		}
		if txs[i].HouseholdID == "" {
			txs[i].HouseholdID = hh
		}
	}
	require.NoError(t, store.InsertTransactions(context.Background(), txs))
	return New(store, WithClock(func() time.Time { return fixedNow })), store
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 0, 0, 0, time.UTC)
}

func expense(at time.Time, amount float64, category string) domain.Transaction {
	return domain.Transaction{PostedAt: at, Amount: -amount, Category: category, Currency: "USD"}
}

func TestCashflowCurrentMonth(t *testing.T) {
	e, _ := newEngine(t,
		domain.Transaction{PostedAt: day(2024, 6, 1), Amount: 5000},
		domain.Transaction{PostedAt: day(2024, 6, 3), Amount: -200},
		domain.Transaction{PostedAt: day(2024, 6, 10), Amount: -120},
		domain.Transaction{PostedAt: day(2024, 5, 31), Amount: -999},
	)

	cf, err := e.Cashflow(context.Background(), hh, nil)
	require.NoError(t, err)
	assert.Equal(t, 5000.0, cf.Income)
	assert.Equal(t, 320.0, cf.Expenses)
	assert.Equal(t, 4680.0, cf.Net)
	assert.Equal(t, "2024-06", cf.Period)
}

func TestCashflowFallsBackToLatestMonth(t *testing.T) {
	e, _ := newEngine(t,
		domain.Transaction{PostedAt: day(2024, 2, 2), Amount: 100},
		domain.Transaction{PostedAt: day(2024, 3, 2), Amount: 3000},
		domain.Transaction{PostedAt: day(2024, 3, 20), Amount: -500},
	)

	cf, err := e.Cashflow(context.Background(), hh, nil)
	require.NoError(t, err)
	assert.Equal(t, "2024-03", cf.Period)
	assert.Equal(t, 3000.0, cf.Income)
	assert.Equal(t, 500.0, cf.Expenses)
	assert.Equal(t, 2500.0, cf.Net)
}

func TestCashflowExplicitMonthDoesNotFallBack(t *testing.T) {
	e, _ := newEngine(t, domain.Transaction{PostedAt: day(2024, 3, 2), Amount: 3000})

	month := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cf, err := e.Cashflow(context.Background(), hh, &month)
	require.NoError(t, err)
	assert.Equal(t, domain.Cashflow{Period: "2024-01"}, cf)
}

func TestCashflowWithoutTransactions(t *testing.T) {
	e, _ := newEngine(t)

	cf, err := e.Cashflow(context.Background(), hh, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.Cashflow{Period: "2024-06"}, cf)
}

func TestCashflowRequiresHousehold(t *testing.T) {
	e, _ := newEngine(t)
	_, err := e.Cashflow(context.Background(), "", nil)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestSpendBreakdown(t *testing.T) {
	e, _ := newEngine(t,
		expense(day(2024, 6, 1), 300, "Dining"),
		expense(day(2024, 6, 2), 100, "Dining"),
		expense(day(2024, 6, 3), 400, "Groceries"),
		expense(day(2024, 6, 4), 200, ""),
		domain.Transaction{PostedAt: day(2024, 6, 5), Amount: 9000, Category: "Income"},
	)

	got, err := e.SpendBreakdown(context.Background(), hh, nil, nil)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Dining and Groceries tie at 400; ties sort by name.
	assert.Equal(t, "Dining", got[0].Category)
	assert.Equal(t, 2, got[0].Count)
	assert.Equal(t, "Groceries", got[1].Category)
	assert.Equal(t, 1, got[1].Count)
	assert.Equal(t, domain.Uncategorized, got[2].Category)
	assert.InDelta(t, 20.0, got[2].Percentage, 1e-9)

	var sum float64
	for _, entry := range got {
		sum += entry.Percentage
	}
	assert.InDelta(t, 100.0, sum, 0.01)
}

func TestSpendBreakdownWindow(t *testing.T) {
	e, _ := newEngine(t,
		expense(day(2024, 5, 1), 300, "Dining"),
		expense(day(2024, 6, 2), 100, "Travel"),
	)
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	got, err := e.SpendBreakdown(context.Background(), hh, &start, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Travel", got[0].Category)
	assert.Equal(t, 100.0, got[0].Percentage)
}

func TestSpendBreakdownEmpty(t *testing.T) {
	e, _ := newEngine(t, domain.Transaction{PostedAt: day(2024, 6, 5), Amount: 10})

	got, err := e.SpendBreakdown(context.Background(), hh, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBreakdownPercentagesProperty(t *testing.T) {
	// Percentages sum to 100 and counts match for a spread of category mixes.
	for n := 1; n <= 25; n++ {
		var txs []domain.Transaction
		counts := map[string]int{}
		for i := 0; i < n*3; i++ {
			cat := fmt.Sprintf("c%d", i%n)
			counts[cat]++
			txs = append(txs, expense(day(2024, 6, 1), float64(i%7)+0.37, cat))
		}
		got := breakdown(txs)
		var sum float64
		for _, entry := range got {
			sum += entry.Percentage
			assert.Equal(t, counts[entry.Category], entry.Count)
		}
		assert.InDelta(t, 100.0, sum, 0.01, "n=%d", n)
	}
}

func TestNetWorth(t *testing.T) {
	e, store := newEngine(t)
	ctx := context.Background()

	nw, err := e.NetWorth(ctx, hh)
	require.NoError(t, err)
	assert.Equal(t, domain.NetWorth{}, nw)

	require.NoError(t, store.UpsertAsset(ctx, domain.Asset{ID: "a1", HouseholdID: hh, Value: 250000}))
	require.NoError(t, store.UpsertAsset(ctx, domain.Asset{ID: "a2", HouseholdID: hh, Value: 15000}))
	require.NoError(t, store.UpsertAsset(ctx, domain.Asset{ID: "a3", HouseholdID: "other", Value: 1}))
	require.NoError(t, store.UpsertLiability(ctx, domain.Liability{ID: "l1", HouseholdID: hh, Balance: 180000}))

	nw, err = e.NetWorth(ctx, hh)
	require.NoError(t, err)
	assert.Equal(t, 265000.0, nw.Assets)
	assert.Equal(t, 180000.0, nw.Liabilities)
	assert.Equal(t, 85000.0, nw.Net)
}

func TestDetectAnomalies(t *testing.T) {
	e, _ := newEngine(t,
		// Dining: history months April and May at 100 each, current 160.
		expense(day(2024, 4, 10), 60, "Dining"),
		expense(day(2024, 4, 20), 40, "Dining"),
		expense(day(2024, 5, 10), 100, "Dining"),
		expense(day(2024, 6, 1), 160, "Dining"),
		// Groceries: average 100, current 125 is under the threshold.
		expense(day(2024, 5, 10), 100, "Groceries"),
		expense(day(2024, 6, 2), 125, "Groceries"),
		// Travel: average 200, current 100 is exactly -50%.
		expense(day(2024, 2, 10), 200, "Travel"),
		expense(day(2024, 6, 3), 100, "Travel"),
		// Outside the six month window.
		expense(day(2023, 11, 10), 10, "Gym"),
		expense(day(2024, 6, 3), 80, "Gym"),
	)

	got, err := e.DetectAnomalies(context.Background(), hh)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Dining", got[0].Category)
	assert.Equal(t, 160.0, got[0].Current)
	assert.Equal(t, 100.0, got[0].Average)
	assert.InDelta(t, 60.0, got[0].Deviation, 1e-9)
	assert.Equal(t, domain.SeverityHigh, got[0].Severity)

	assert.Equal(t, "Travel", got[1].Category)
	assert.InDelta(t, -50.0, got[1].Deviation, 1e-9)
	assert.Equal(t, domain.SeverityMedium, got[1].Severity)
}

func TestDetectAnomaliesCategoryWithoutCurrentSpend(t *testing.T) {
	e, _ := newEngine(t,
		expense(day(2024, 4, 10), 100, "Dining"),
		expense(day(2024, 5, 10), 100, "Dining"),
		expense(day(2024, 6, 2), 50, "Groceries"),
	)

	got, err := e.DetectAnomalies(context.Background(), hh)
	require.NoError(t, err)
	require.Len(t, got, 1, "groceries has no history and is skipped")

	assert.Equal(t, "Dining", got[0].Category)
	assert.Equal(t, 0.0, got[0].Current)
	assert.Equal(t, 100.0, got[0].Average)
	assert.InDelta(t, -100.0, got[0].Deviation, 1e-9)
	assert.Equal(t, domain.SeverityHigh, got[0].Severity)
}

func TestAnomalySeverity(t *testing.T) {
	tests := []struct {
		dev  float64
		want domain.Severity
	}{
		{31, domain.SeverityLow},
		{40, domain.SeverityLow},
		{40.5, domain.SeverityMedium},
		{-45, domain.SeverityMedium},
		{50, domain.SeverityMedium},
		{50.1, domain.SeverityHigh},
		{-90, domain.SeverityHigh},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.dev), func(t *testing.T) {
			assert.Equal(t, tt.want, anomalySeverity(tt.dev))
		})
	}
}

func TestRecurringExpenses(t *testing.T) {
	var txs []domain.Transaction
	for m := time.January; m <= time.May; m++ {
		txs = append(txs, domain.Transaction{PostedAt: day(2024, m, 5), Amount: -15.99, Merchant: "Netflix", Category: "Entertainment"})
	}
	for m := time.January; m <= time.March; m++ {
		txs = append(txs, domain.Transaction{PostedAt: day(2024, m, 7), Amount: -float64(m) * 10, Merchant: "Gym Co", Category: "Health"})
	}
	txs = append(txs,
		domain.Transaction{PostedAt: day(2024, 1, 9), Amount: -5, Merchant: "Cafe"},
		domain.Transaction{PostedAt: day(2024, 2, 9), Amount: -5, Merchant: "Cafe"},
		domain.Transaction{PostedAt: day(2024, 2, 9), Amount: -5},
		domain.Transaction{PostedAt: day(2024, 2, 9), Amount: 2000, Merchant: "Payroll"},
	)
	e, _ := newEngine(t, txs...)

	got, err := e.RecurringExpenses(context.Background(), hh)
	require.NoError(t, err)
	require.Len(t, got.Groups, 2)

	assert.Equal(t, "Netflix", got.Groups[0].Merchant)
	assert.Equal(t, 5, got.Groups[0].Count)
	assert.InDelta(t, 15.99, got.Groups[0].AverageAmount, 1e-9)

	assert.Equal(t, "Gym Co", got.Groups[1].Merchant)
	assert.InDelta(t, 20.0, got.Groups[1].AverageAmount, 1e-9)

	assert.Len(t, got.Transactions(), 8)
}

func TestRecurringExpensesCapped(t *testing.T) {
	var txs []domain.Transaction
	for i := 0; i < 25; i++ {
		for j := 0; j < 3+i%2; j++ {
			txs = append(txs, domain.Transaction{PostedAt: day(2024, 1, 1+j), Amount: -1, Merchant: fmt.Sprintf("m%02d", i)})
		}
	}
	e, _ := newEngine(t, txs...)

	got, err := e.RecurringExpenses(context.Background(), hh)
	require.NoError(t, err)
	assert.Len(t, got.Groups, RecurringGroupLimit)
	assert.Equal(t, 4, got.Groups[0].Count)
	assert.Equal(t, 3, got.Groups[len(got.Groups)-1].Count)
}

func TestOverview(t *testing.T) {
	e, store := newEngine(t,
		domain.Transaction{PostedAt: day(2024, 6, 1), Amount: 4000},
		expense(day(2024, 6, 2), 1000, "Housing"),
	)
	require.NoError(t, store.UpsertAsset(context.Background(), domain.Asset{ID: "a", HouseholdID: hh, Value: 10}))

	ov, err := e.Overview(context.Background(), hh, nil)
	require.NoError(t, err)
	assert.Equal(t, 3000.0, ov.Cashflow.Net)
	assert.Equal(t, 10.0, ov.NetWorth.Net)
	require.Len(t, ov.Breakdown, 1)
	assert.Equal(t, 100.0, ov.Breakdown[0].Percentage)
}

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2024-02", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), m)
	assert.Equal(t, time.Date(2024, 2, 29, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC), endOfMonth(m))

	_, err = ParseMonth("02/2024", time.UTC)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}
