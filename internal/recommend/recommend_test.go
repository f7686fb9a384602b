package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/dvloznov/finance-advisor/internal/ledger/inmemory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hh = "hh-1"

func spend(categories ...string) []domain.CategorySpend {
	out := make([]domain.CategorySpend, 0, len(categories))
	for _, c := range categories {
		out = append(out, domain.CategorySpend{Category: c, Total: 100})
	}
	return out
}

func types(seeds []Seed) []string {
	out := make([]string, 0, len(seeds))
	for _, s := range seeds {
		out = append(out, s.Type)
	}
	return out
}

func TestBuildRecommendations(t *testing.T) {
	tests := []struct {
		name      string
		breakdown []domain.CategorySpend
		want      []string
	}{
		{"empty", nil, []string{TypeInsuranceQuote}},
		{"insurance present", spend("Insurance"), []string{TypeInsuranceReview}},
		{"dining and utilities", spend("Dining", "Utilities"), []string{TypeInsuranceQuote, TypeUtilitiesNegotiation, TypeDiningPlan}},
		{"truncated to three", spend("Utilities", "Food", "Shopping", "Gas"), []string{TypeInsuranceQuote, TypeUtilitiesNegotiation, TypeDiningPlan}},
		{"commute", spend("Transportation"), []string{TypeInsuranceQuote, TypeCommuteOptimize}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, types(BuildRecommendations(tt.breakdown)))
		})
	}
}

func TestBuildRecommendationsTexts(t *testing.T) {
	seeds := BuildRecommendations(spend("Shopping"))
	require.Len(t, seeds, 2)
	assert.Equal(t, Seed{TypeSubscriptionAudit, "Audit subscriptions", "Cancel unused services and re-negotiate annual plans."}, seeds[1])
}

func TestActOnRecommendation(t *testing.T) {
	tests := map[string]string{
		TypeInsuranceReview:      "Queued: preparing an insurance quote request on your behalf.",
		TypeUtilitiesNegotiation: "Queued: compiling utility plans and negotiation checklist.",
		TypeSubscriptionAudit:    "Queued: identifying subscriptions for review and cancellation.",
		TypeDiningPlan:           "Queued: creating an action plan based on your approval.",
	}
	for typ, want := range tests {
		assert.Equal(t, want, ActOnRecommendation(domain.RecommendationAction{Type: typ}), typ)
	}
}

type staticBreakdown []domain.CategorySpend

func (s staticBreakdown) SpendBreakdown(ctx context.Context, householdID string, start, end *time.Time) ([]domain.CategorySpend, error) {
	return s, nil
}

func newManager(t *testing.T, breakdown staticBreakdown) (*Manager, *inmemory.Store, *time.Time) {
	t.Helper()
	store := inmemory.NewStore()
	now := time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)
	m := NewManager(store, breakdown, WithClock(func() time.Time { return now }))
	return m, store, &now
}

func TestRefreshIsIdempotent(t *testing.T) {
	m, _, _ := newManager(t, staticBreakdown(spend("Dining", "Utilities")))
	ctx := context.Background()

	first, err := m.Refresh(ctx, hh)
	require.NoError(t, err)
	require.Len(t, first, 3)

	second, err := m.Refresh(ctx, hh)
	require.NoError(t, err)
	assert.ElementsMatch(t, first, second)
}

func TestSeedConcurrentCreatesOnePerType(t *testing.T) {
	m, store, _ := newManager(t, nil)
	ctx := context.Background()
	seeds := BuildRecommendations(spend("Dining"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Seed(ctx, hh, seeds)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	actions, err := store.ListActions(ctx, hh, 0)
	require.NoError(t, err)
	assert.Len(t, actions, len(seeds))
}

func TestSeedDerivesActionIDFromHouseholdAndType(t *testing.T) {
	m, store, _ := newManager(t, nil)
	ctx := context.Background()

	_, err := m.Seed(ctx, hh, []Seed{{Type: TypeDiningPlan, Title: "t"}})
	require.NoError(t, err)

	id := ActionID(hh, TypeDiningPlan)
	assert.Equal(t, id, ActionID(hh, TypeDiningPlan))
	assert.NotEqual(t, id, ActionID("hh-2", TypeDiningPlan))
	assert.NotEqual(t, id, ActionID(hh, TypeFixedCosts))

	got, err := store.GetAction(ctx, hh, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, TypeDiningPlan, got.Type)
}

func TestListDefaultLimit(t *testing.T) {
	m, _, _ := newManager(t, nil)
	ctx := context.Background()
	var seeds []Seed
	for i := 0; i < 7; i++ {
		seeds = append(seeds, Seed{Type: fmt.Sprintf("custom_%d", i), Title: "t"})
	}
	created, err := m.Seed(ctx, hh, seeds)
	require.NoError(t, err)
	assert.Equal(t, 7, created)

	actions, err := m.List(ctx, hh, 0)
	require.NoError(t, err)
	assert.Len(t, actions, DefaultListLimit)
}

func TestApprove(t *testing.T) {
	m, _, now := newManager(t, staticBreakdown(spend("Insurance")))
	ctx := context.Background()

	actions, err := m.Refresh(ctx, hh)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	id := actions[0].ID

	approved, err := m.Approve(ctx, hh, id)
	require.NoError(t, err)
	assert.Equal(t, domain.ActionApproved, approved.Status)
	require.NotNil(t, approved.ApprovedAt)
	assert.Equal(t, *now, *approved.ApprovedAt)
	assert.Equal(t, *now, *approved.CompletedAt)
	assert.Equal(t, "Queued: preparing an insurance quote request on your behalf.", approved.Result)

	*now = now.Add(time.Hour)
	again, err := m.Approve(ctx, hh, id)
	require.NoError(t, err)
	assert.Equal(t, approved, again, "second approval must not change the action")
}

func TestApproveNotFound(t *testing.T) {
	m, _, _ := newManager(t, nil)

	_, err := m.Approve(context.Background(), hh, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = m.Approve(context.Background(), hh, "")
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestApproveOtherHousehold(t *testing.T) {
	m, _, _ := newManager(t, staticBreakdown(nil))
	ctx := context.Background()
	actions, err := m.Refresh(ctx, hh)
	require.NoError(t, err)
	require.NotEmpty(t, actions)

	_, err = m.Approve(ctx, "hh-2", actions[0].ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
