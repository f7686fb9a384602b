// Package analytics derives cashflow, net worth, spend breakdown, anomalies
// and recurring expenses from ledger records. Every figure is computed on
// demand from a fresh read; nothing is cached between calls.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/dvloznov/finance-advisor/internal/ledger"
	"golang.org/x/sync/errgroup"
)

const (
	// AnomalyThreshold is the minimum absolute deviation, in percent, that is reported.
	AnomalyThreshold = 30.0
	// AnomalyMediumDeviation is the deviation above which an anomaly is medium severity.
	AnomalyMediumDeviation = 40.0
	// AnomalyHighDeviation is the deviation above which an anomaly is high severity.
	AnomalyHighDeviation = 50.0
	// AnomalyHistoryMonths is the trailing window compared against the current month.
	AnomalyHistoryMonths = 6

	// RecurringMinOccurrences is the smallest group size treated as recurring.
	RecurringMinOccurrences = 3
	// RecurringGroupLimit caps the number of recurring groups returned.
	RecurringGroupLimit = 20
)

// Engine computes household analytics over a ledger reader.
type Engine struct {
	store ledger.Reader
	now   func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the wall clock. Month boundaries use the location of the returned time.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates an Engine reading from store.
func New(store ledger.Reader, opts ...Option) *Engine {
	e := &Engine{store: store, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now returns the engine clock's current time.
func (e *Engine) Now() time.Time {
	return e.now()
}

// Overview runs cashflow, net worth and the full spend breakdown concurrently.
// The reads are independent and are not taken from one snapshot.
func (e *Engine) Overview(ctx context.Context, householdID string, month *time.Time) (domain.Overview, error) {
	if err := domain.RequireHousehold(householdID); err != nil {
		return domain.Overview{}, err
	}

	var out domain.Overview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cf, err := e.Cashflow(gctx, householdID, month)
		out.Cashflow = cf
		return err
	})
	g.Go(func() error {
		nw, err := e.NetWorth(gctx, householdID)
		out.NetWorth = nw
		return err
	})
	g.Go(func() error {
		b, err := e.SpendBreakdown(gctx, householdID, nil, nil)
		out.Breakdown = b
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.Overview{}, fmt.Errorf("Overview: %w", err)
	}
	return out, nil
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func endOfMonth(t time.Time) time.Time {
	return startOfMonth(t).AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// ParseMonth parses a YYYY-MM label into the first instant of that month in loc.
func ParseMonth(label string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(domain.PeriodLayout, label, loc)
	if err != nil {
		return time.Time{}, &domain.ValidationError{Field: "month", Reason: "expected YYYY-MM"}
	}
	return t, nil
}
