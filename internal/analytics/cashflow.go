package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/dvloznov/finance-advisor/internal/logger"
)

// Cashflow sums income and expenses for one calendar month.
//
// When month is nil the current month is used; if it has no transactions the
// month of the most recent transaction is used instead. A household without
// any transactions gets zeros labelled with the current month.
func (e *Engine) Cashflow(ctx context.Context, householdID string, month *time.Time) (domain.Cashflow, error) {
	if err := domain.RequireHousehold(householdID); err != nil {
		return domain.Cashflow{}, err
	}

	target := e.now()
	if month != nil {
		target = *month
	}

	cf, n, err := e.cashflowForMonth(ctx, householdID, target)
	if err != nil {
		return domain.Cashflow{}, err
	}
	if month != nil || n > 0 {
		return cf, nil
	}

	latest, err := e.store.LatestTransaction(ctx, householdID)
	if err != nil {
		return domain.Cashflow{}, fmt.Errorf("Cashflow: latest transaction: %w", err)
	}
	if latest == nil {
		return cf, nil
	}

	log := logger.FromContext(ctx)
	log.Debug().
		Str("household_id", householdID).
		Str("fallback_period", latest.PostedAt.Format(domain.PeriodLayout)).
		Msg("Current month empty, using most recent month with activity")

	cf, _, err = e.cashflowForMonth(ctx, householdID, latest.PostedAt.In(target.Location()))
	return cf, err
}

func (e *Engine) cashflowForMonth(ctx context.Context, householdID string, month time.Time) (domain.Cashflow, int, error) {
	start := startOfMonth(month)
	end := endOfMonth(month)

	txs, err := e.store.ListTransactions(ctx, domain.TransactionFilter{
		HouseholdID: householdID,
		Start:       &start,
		End:         &end,
	})
	if err != nil {
		return domain.Cashflow{}, 0, fmt.Errorf("Cashflow: list transactions: %w", err)
	}

	cf := domain.Cashflow{Period: start.Format(domain.PeriodLayout)}
	for _, tx := range txs {
		if tx.IsExpense() {
			cf.Expenses += tx.AbsAmount()
		} else {
			cf.Income += tx.Amount
		}
	}
	cf.Net = cf.Income - cf.Expenses
	return cf, len(txs), nil
}
