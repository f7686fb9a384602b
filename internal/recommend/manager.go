package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/dvloznov/finance-advisor/internal/ledger"
	"github.com/dvloznov/finance-advisor/internal/logger"
	"github.com/dvloznov/finance-advisor/internal/metrics"
	"github.com/google/uuid"
)

// DefaultListLimit is the number of actions returned when no limit is given.
const DefaultListLimit = 5

// BreakdownSource supplies the spend breakdown seeds are built from.
type BreakdownSource interface {
	SpendBreakdown(ctx context.Context, householdID string, start, end *time.Time) ([]domain.CategorySpend, error)
}

// Manager stores recommendation actions and applies approvals.
type Manager struct {
	store     ledger.ActionStore
	breakdown BreakdownSource
	now       func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time used for createdAt and approvedAt.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a Manager.
func NewManager(store ledger.ActionStore, breakdown BreakdownSource, opts ...Option) *Manager {
	m := &Manager{
		store:     store,
		breakdown: breakdown,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ActionID is the identifier of the household's action of the given type.
// It is derived from both values, so every writer seeding the same type
// produces the same record id.
func ActionID(householdID, actionType string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(householdID+"/"+actionType)).String()
}

// Seed stores each seed as a pending action unless the household already
// has an action of that type. It returns the number of actions created.
func (m *Manager) Seed(ctx context.Context, householdID string, seeds []Seed) (int, error) {
	if err := domain.RequireHousehold(householdID); err != nil {
		return 0, err
	}

	created := 0
	for _, seed := range seeds {
		ok, err := m.store.UpsertPendingAction(ctx, domain.RecommendationAction{
			ID:          ActionID(householdID, seed.Type),
			HouseholdID: householdID,
			Type:        seed.Type,
			Title:       seed.Title,
			Detail:      seed.Detail,
			Status:      domain.ActionPending,
			CreatedAt:   m.now(),
		})
		if err != nil {
			return created, fmt.Errorf("Seed: upsert %s: %w", seed.Type, err)
		}
		if ok {
			created++
			metrics.RecommendationsSeeded.Inc()
		}
	}
	return created, nil
}

// List returns the household's actions, newest first.
func (m *Manager) List(ctx context.Context, householdID string, limit int) ([]domain.RecommendationAction, error) {
	if err := domain.RequireHousehold(householdID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	actions, err := m.store.ListActions(ctx, householdID, limit)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return actions, nil
}

// Refresh seeds actions from the current all-time breakdown and lists the
// newest ones.
func (m *Manager) Refresh(ctx context.Context, householdID string) ([]domain.RecommendationAction, error) {
	if err := domain.RequireHousehold(householdID); err != nil {
		return nil, err
	}

	breakdown, err := m.breakdown.SpendBreakdown(ctx, householdID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("Refresh: spend breakdown: %w", err)
	}
	created, err := m.Seed(ctx, householdID, BuildRecommendations(breakdown))
	if err != nil {
		return nil, fmt.Errorf("Refresh: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Debug().Str("household_id", householdID).Int("created", created).Msg("Recommendations refreshed")

	return m.List(ctx, householdID, DefaultListLimit)
}

// Approve moves a pending action to approved and records its result.
// Actions that are no longer pending are returned unchanged. When a
// concurrent approval wins, the stored winner is returned.
func (m *Manager) Approve(ctx context.Context, householdID, actionID string) (*domain.RecommendationAction, error) {
	if err := domain.RequireHousehold(householdID); err != nil {
		return nil, err
	}
	if actionID == "" {
		return nil, &domain.ValidationError{Field: "actionId"}
	}

	existing, err := m.store.GetAction(ctx, householdID, actionID)
	if err != nil {
		return nil, fmt.Errorf("Approve: get action: %w", err)
	}
	if existing == nil {
		return nil, fmt.Errorf("Approve: action %s: %w", actionID, domain.ErrNotFound)
	}
	if !existing.IsPending() {
		return existing, nil
	}

	applied, err := m.store.ApproveIfPending(ctx, householdID, actionID, m.now(), ActOnRecommendation(*existing))
	if err != nil {
		return nil, fmt.Errorf("Approve: update action: %w", err)
	}
	if applied {
		metrics.RecommendationsApproved.Inc()
	} else {
		log := logger.FromContext(ctx)
		log.Debug().Str("action_id", actionID).Msg("Approval lost race, returning stored action")
	}

	updated, err := m.store.GetAction(ctx, householdID, actionID)
	if err != nil {
		return nil, fmt.Errorf("Approve: reload action: %w", err)
	}
	if updated == nil {
		return nil, fmt.Errorf("Approve: action %s: %w", actionID, domain.ErrNotFound)
	}
	return updated, nil
}
