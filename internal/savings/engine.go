// Package savings scores savings opportunities from analytics output and
// raw liability and insurance records.
package savings

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dvloznov/finance-advisor/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Analytics is the subset of the analytics engine the detectors consume.
type Analytics interface {
	RecurringExpenses(ctx context.Context, householdID string) (domain.RecurringExpenses, error)
	SpendBreakdown(ctx context.Context, householdID string, start, end *time.Time) ([]domain.CategorySpend, error)
	DetectAnomalies(ctx context.Context, householdID string) ([]domain.Anomaly, error)
}

// Holdings reads the debt and insurance records the detectors score.
type Holdings interface {
	ListLiabilities(ctx context.Context, householdID string) ([]domain.Liability, error)
	GetLiability(ctx context.Context, householdID, liabilityID string) (*domain.Liability, error)
	ListPolicies(ctx context.Context, householdID string) ([]domain.InsurancePolicy, error)
}

// Engine finds savings opportunities for a household.
type Engine struct {
	analytics Analytics
	holdings  Holdings
}

// New creates an Engine.
func New(analytics Analytics, holdings Holdings) *Engine {
	return &Engine{analytics: analytics, holdings: holdings}
}

// inputs is one read of everything the detectors need.
type inputs struct {
	recurring   domain.RecurringExpenses
	breakdown   []domain.CategorySpend
	anomalies   []domain.Anomaly
	liabilities []domain.Liability
	policies    []domain.InsurancePolicy
}

func (e *Engine) load(ctx context.Context, householdID string) (inputs, error) {
	var in inputs
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		in.recurring, err = e.analytics.RecurringExpenses(gctx, householdID)
		return err
	})
	g.Go(func() (err error) {
		in.breakdown, err = e.analytics.SpendBreakdown(gctx, householdID, nil, nil)
		return err
	})
	g.Go(func() (err error) {
		in.anomalies, err = e.analytics.DetectAnomalies(gctx, householdID)
		return err
	})
	g.Go(func() (err error) {
		in.liabilities, err = e.holdings.ListLiabilities(gctx, householdID)
		return err
	})
	g.Go(func() (err error) {
		in.policies, err = e.holdings.ListPolicies(gctx, householdID)
		return err
	})
	if err := g.Wait(); err != nil {
		return inputs{}, err
	}
	return in, nil
}

// FindOpportunities runs every detector and returns the merged list sorted
// by potential monthly savings, highest first.
func (e *Engine) FindOpportunities(ctx context.Context, householdID string) ([]domain.Opportunity, error) {
	if err := domain.RequireHousehold(householdID); err != nil {
		return nil, err
	}

	in, err := e.load(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("FindOpportunities: %w", err)
	}

	var out []domain.Opportunity
	out = append(out, subscriptionOpportunities(in.recurring)...)
	out = append(out, interestOpportunities(in.liabilities)...)
	out = append(out, insuranceOpportunities(in.policies)...)
	out = append(out, foodOpportunities(in.breakdown)...)
	out = append(out, anomalyOpportunities(in.anomalies)...)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PotentialMonthlySavings > out[j].PotentialMonthlySavings
	})
	return out, nil
}

// TotalSavings sums the potential monthly savings of opps.
func TotalSavings(opps []domain.Opportunity) float64 {
	var total float64
	for _, o := range opps {
		total += o.PotentialMonthlySavings
	}
	return total
}
