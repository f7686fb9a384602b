package analytics

import (
	"context"
	"fmt"
	"sort"

	"github.com/dvloznov/finance-advisor/internal/domain"
)

type recurringKey struct {
	merchant string
	category string
}

// RecurringExpenses groups expenses that have a merchant by (merchant,
// category) and keeps groups with at least three occurrences, most frequent
// first, capped at twenty groups.
func (e *Engine) RecurringExpenses(ctx context.Context, householdID string) (domain.RecurringExpenses, error) {
	if err := domain.RequireHousehold(householdID); err != nil {
		return domain.RecurringExpenses{}, err
	}

	txs, err := e.store.ListTransactions(ctx, domain.TransactionFilter{
		HouseholdID:  householdID,
		ExpensesOnly: true,
		WithMerchant: true,
	})
	if err != nil {
		return domain.RecurringExpenses{}, fmt.Errorf("RecurringExpenses: list transactions: %w", err)
	}

	groups := make(map[recurringKey]*domain.RecurringGroup)
	var order []recurringKey
	for _, tx := range txs {
		key := recurringKey{merchant: tx.Merchant, category: tx.CategoryOrDefault()}
		g, ok := groups[key]
		if !ok {
			g = &domain.RecurringGroup{Merchant: key.merchant, Category: key.category}
			groups[key] = g
			order = append(order, key)
		}
		g.Count++
		g.AverageAmount += tx.AbsAmount()
		g.Transactions = append(g.Transactions, tx)
	}

	var out []domain.RecurringGroup
	for _, key := range order {
		g := groups[key]
		if g.Count < RecurringMinOccurrences {
			continue
		}
		g.AverageAmount /= float64(g.Count)
		out = append(out, *g)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	if len(out) > RecurringGroupLimit {
		out = out[:RecurringGroupLimit]
	}
	return domain.RecurringExpenses{Groups: out}, nil
}
