package inmemory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/dvloznov/finance-advisor/internal/ledger"
)

// Store is an in-memory ledger. It is safe for concurrent use and serves
// tests and the "memory" store backend. Data is lost on restart.
type Store struct {
	mu           sync.RWMutex
	households   map[string]domain.Household
	accounts     map[string]domain.Account
	transactions []domain.Transaction
	liabilities  map[string]domain.Liability
	policies     map[string]domain.InsurancePolicy
	assets       map[string]domain.Asset
	actions      map[string]domain.RecommendationAction
	insights     []domain.Insight
	messages     []domain.ChatMessage
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		households:  make(map[string]domain.Household),
		accounts:    make(map[string]domain.Account),
		liabilities: make(map[string]domain.Liability),
		policies:    make(map[string]domain.InsurancePolicy),
		assets:      make(map[string]domain.Asset),
		actions:     make(map[string]domain.RecommendationAction),
	}
}

// Close implements ledger.Store.
func (s *Store) Close() error {
	return nil
}

// ListTransactions implements ledger.TransactionReader.
func (s *Store) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Transaction
	for _, tx := range s.transactions {
		if filter.Matches(tx) {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if filter.NewestFirst {
			return out[i].PostedAt.After(out[j].PostedAt)
		}
		return out[i].PostedAt.Before(out[j].PostedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// LatestTransaction implements ledger.TransactionReader.
func (s *Store) LatestTransaction(ctx context.Context, householdID string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.Transaction
	for i := range s.transactions {
		tx := s.transactions[i]
		if tx.HouseholdID != householdID {
			continue
		}
		if latest == nil || tx.PostedAt.After(latest.PostedAt) {
			txCopy := tx
			latest = &txCopy
		}
	}
	return latest, nil
}

// InsertTransactions implements ledger.TransactionWriter.
func (s *Store) InsertTransactions(ctx context.Context, txs []domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tx := range txs {
		if tx.ID == "" {
			return fmt.Errorf("InsertTransactions: transaction ID is required")
		}
		s.transactions = append(s.transactions, tx)
	}
	return nil
}

// SearchTransactions implements ledger.TransactionWriter using cosine similarity.
func (s *Store) SearchTransactions(ctx context.Context, householdID string, vector []float32, limit int) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		tx    domain.Transaction
		score float64
	}
	var candidates []scored
	for _, tx := range s.transactions {
		if tx.HouseholdID != householdID || len(tx.Embedding) == 0 {
			continue
		}
		candidates = append(candidates, scored{tx: tx, score: cosine(vector, tx.Embedding)})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	var out []domain.Transaction
	for _, c := range candidates {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, c.tx)
	}
	return out, nil
}

// ListLiabilities implements ledger.HoldingsReader.
func (s *Store) ListLiabilities(ctx context.Context, householdID string) ([]domain.Liability, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Liability
	for _, l := range s.liabilities {
		if l.HouseholdID == householdID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetLiability implements ledger.HoldingsReader.
func (s *Store) GetLiability(ctx context.Context, householdID, liabilityID string) (*domain.Liability, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.liabilities[liabilityID]
	if !ok || l.HouseholdID != householdID {
		return nil, nil
	}
	return &l, nil
}

// ListPolicies implements ledger.HoldingsReader.
func (s *Store) ListPolicies(ctx context.Context, householdID string) ([]domain.InsurancePolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.InsurancePolicy
	for _, p := range s.policies {
		if p.HouseholdID == householdID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListAssets implements ledger.HoldingsReader.
func (s *Store) ListAssets(ctx context.Context, householdID string) ([]domain.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Asset
	for _, a := range s.assets {
		if a.HouseholdID == householdID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpsertLiability implements ledger.HoldingsWriter.
func (s *Store) UpsertLiability(ctx context.Context, l domain.Liability) error {
	if l.ID == "" {
		return fmt.Errorf("UpsertLiability: liability ID is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.liabilities[l.ID] = l
	return nil
}

// UpsertPolicy implements ledger.HoldingsWriter.
func (s *Store) UpsertPolicy(ctx context.Context, p domain.InsurancePolicy) error {
	if p.ID == "" {
		return fmt.Errorf("UpsertPolicy: policy ID is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[p.ID] = p
	return nil
}

// UpsertAsset implements ledger.HoldingsWriter.
func (s *Store) UpsertAsset(ctx context.Context, a domain.Asset) error {
	if a.ID == "" {
		return fmt.Errorf("UpsertAsset: asset ID is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets[a.ID] = a
	return nil
}

// CreateHousehold implements ledger.HouseholdStore.
func (s *Store) CreateHousehold(ctx context.Context, h domain.Household) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.households[h.ID]; exists {
		return fmt.Errorf("CreateHousehold: household %s already exists", h.ID)
	}
	s.households[h.ID] = h
	return nil
}

// CreateAccount implements ledger.HouseholdStore.
func (s *Store) CreateAccount(ctx context.Context, a domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[a.ID]; exists {
		return fmt.Errorf("CreateAccount: account %s already exists", a.ID)
	}
	s.accounts[a.ID] = a
	return nil
}

// GetAccount implements ledger.HouseholdStore.
func (s *Store) GetAccount(ctx context.Context, householdID, accountID string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[accountID]
	if !ok || a.HouseholdID != householdID {
		return nil, nil
	}
	return &a, nil
}

// InsertInsights implements ledger.InsightStore.
func (s *Store) InsertInsights(ctx context.Context, insights []domain.Insight) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insights = append(s.insights, insights...)
	return nil
}

// ListInsights implements ledger.InsightStore.
func (s *Store) ListInsights(ctx context.Context, householdID string, limit int) ([]domain.Insight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Insight
	for _, in := range s.insights {
		if in.HouseholdID == householdID {
			out = append(out, in)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SearchInsights implements ledger.InsightStore using cosine similarity.
func (s *Store) SearchInsights(ctx context.Context, householdID string, vector []float32, limit int) ([]domain.Insight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var candidates []domain.Insight
	for _, in := range s.insights {
		if in.HouseholdID == householdID && len(in.Embedding) > 0 {
			candidates = append(candidates, in)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return cosine(vector, candidates[i].Embedding) > cosine(vector, candidates[j].Embedding)
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// InsertChatMessage implements ledger.ChatStore.
func (s *Store) InsertChatMessage(ctx context.Context, msg domain.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

// ListChatMessages implements ledger.ChatStore.
func (s *Store) ListChatMessages(ctx context.Context, householdID string, limit int) ([]domain.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.ChatMessage
	for _, m := range s.messages {
		if m.HouseholdID == householdID {
			out = append(out, m)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// UpsertPendingAction implements ledger.ActionStore. The check and insert run
// under one write lock.
func (s *Store) UpsertPendingAction(ctx context.Context, action domain.RecommendationAction) (bool, error) {
	if action.ID == "" {
		return false, fmt.Errorf("UpsertPendingAction: action ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.actions {
		if existing.HouseholdID == action.HouseholdID && existing.Type == action.Type {
			return false, nil
		}
	}
	s.actions[action.ID] = action
	return true, nil
}

// GetAction implements ledger.ActionStore.
func (s *Store) GetAction(ctx context.Context, householdID, actionID string) (*domain.RecommendationAction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.actions[actionID]
	if !ok || a.HouseholdID != householdID {
		return nil, nil
	}
	return &a, nil
}

// ListActions implements ledger.ActionStore.
func (s *Store) ListActions(ctx context.Context, householdID string, limit int) ([]domain.RecommendationAction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.RecommendationAction
	for _, a := range s.actions {
		if a.HouseholdID == householdID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Type < out[j].Type
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ApproveIfPending implements ledger.ActionStore as a compare-and-set.
func (s *Store) ApproveIfPending(ctx context.Context, householdID, actionID string, at time.Time, result string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.actions[actionID]
	if !ok || a.HouseholdID != householdID || a.Status != domain.ActionPending {
		return false, nil
	}
	approvedAt := at
	completedAt := at
	a.Status = domain.ActionApproved
	a.ApprovedAt = &approvedAt
	a.CompletedAt = &completedAt
	a.Result = result
	s.actions[actionID] = a
	return true, nil
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Ensure Store implements the full ledger surface.
var _ ledger.Store = (*Store)(nil)
