package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dvloznov/finance-advisor/internal/domain"
)

// SpendBreakdown groups expenses in the optional [start, end] window by
// category, sorted by total descending. Percentages are shares of the total
// expense spend; all zero when there is none.
func (e *Engine) SpendBreakdown(ctx context.Context, householdID string, start, end *time.Time) ([]domain.CategorySpend, error) {
	if err := domain.RequireHousehold(householdID); err != nil {
		return nil, err
	}

	txs, err := e.store.ListTransactions(ctx, domain.TransactionFilter{
		HouseholdID:  householdID,
		Start:        start,
		End:          end,
		ExpensesOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("SpendBreakdown: list transactions: %w", err)
	}

	return breakdown(txs), nil
}

func breakdown(txs []domain.Transaction) []domain.CategorySpend {
	byCategory := make(map[string]*domain.CategorySpend)
	var total float64
	for _, tx := range txs {
		if !tx.IsExpense() {
			continue
		}
		cat := tx.CategoryOrDefault()
		entry, ok := byCategory[cat]
		if !ok {
			entry = &domain.CategorySpend{Category: cat}
			byCategory[cat] = entry
		}
		entry.Total += tx.AbsAmount()
		entry.Count++
		total += tx.AbsAmount()
	}

	out := make([]domain.CategorySpend, 0, len(byCategory))
	for _, entry := range byCategory {
		if total > 0 {
			entry.Percentage = entry.Total / total * 100
		}
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total == out[j].Total {
			return out[i].Category < out[j].Category
		}
		return out[i].Total > out[j].Total
	})
	return out
}
