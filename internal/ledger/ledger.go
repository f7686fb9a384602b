// Package ledger defines the query shapes the advisor reads and writes
// through. Every call is scoped to a household.
package ledger

import (
	"context"
	"time"

	"github.com/dvloznov/finance-advisor/internal/domain"
)

// TransactionReader reads ledger transactions.
type TransactionReader interface {
	// ListTransactions returns transactions matching the filter ordered by PostedAt ascending.
	ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error)

	// LatestTransaction returns the most recently posted transaction, or nil if none exist.
	LatestTransaction(ctx context.Context, householdID string) (*domain.Transaction, error)
}

// HoldingsReader reads liabilities, insurance policies and assets.
type HoldingsReader interface {
	// ListLiabilities returns all liabilities of the household.
	ListLiabilities(ctx context.Context, householdID string) ([]domain.Liability, error)

	// GetLiability returns one liability, or nil if it does not exist.
	GetLiability(ctx context.Context, householdID, liabilityID string) (*domain.Liability, error)

	// ListPolicies returns all insurance policies of the household.
	ListPolicies(ctx context.Context, householdID string) ([]domain.InsurancePolicy, error)

	// ListAssets returns all assets of the household.
	ListAssets(ctx context.Context, householdID string) ([]domain.Asset, error)
}

// Reader is everything the analytics path reads.
type Reader interface {
	TransactionReader
	HoldingsReader
}

// ActionStore persists recommendation actions. Implementations must make
// UpsertPendingAction atomic per (household, type) and ApproveIfPending
// atomic per (household, id).
type ActionStore interface {
	// UpsertPendingAction inserts action if no record with the same household and type
	// exists. It reports whether a new record was created.
	UpsertPendingAction(ctx context.Context, action domain.RecommendationAction) (bool, error)

	// GetAction returns the action, or nil if it does not exist for the household.
	GetAction(ctx context.Context, householdID, actionID string) (*domain.RecommendationAction, error)

	// ListActions returns the newest actions first, up to limit.
	ListActions(ctx context.Context, householdID string, limit int) ([]domain.RecommendationAction, error)

	// ApproveIfPending moves a pending action to approved, stamping approvedAt and
	// completedAt with at and storing result. It reports whether the update applied.
	ApproveIfPending(ctx context.Context, householdID, actionID string, at time.Time, result string) (bool, error)
}

// InsightStore persists insights and supports similarity lookups.
type InsightStore interface {
	// InsertInsights stores insights.
	InsertInsights(ctx context.Context, insights []domain.Insight) error

	// ListInsights returns the newest insights first, up to limit.
	ListInsights(ctx context.Context, householdID string, limit int) ([]domain.Insight, error)

	// SearchInsights returns insights ranked by similarity to vector.
	SearchInsights(ctx context.Context, householdID string, vector []float32, limit int) ([]domain.Insight, error)
}

// TransactionWriter stores ingested transactions and supports similarity lookups.
type TransactionWriter interface {
	// InsertTransactions stores transactions.
	InsertTransactions(ctx context.Context, txs []domain.Transaction) error

	// SearchTransactions returns transactions ranked by similarity to vector.
	SearchTransactions(ctx context.Context, householdID string, vector []float32, limit int) ([]domain.Transaction, error)
}

// ChatStore persists conversation turns.
type ChatStore interface {
	// InsertChatMessage stores one message.
	InsertChatMessage(ctx context.Context, msg domain.ChatMessage) error

	// ListChatMessages returns the latest messages in chronological order, up to limit.
	ListChatMessages(ctx context.Context, householdID string, limit int) ([]domain.ChatMessage, error)
}

// HouseholdStore manages households and their accounts.
type HouseholdStore interface {
	// CreateHousehold stores a new household.
	CreateHousehold(ctx context.Context, h domain.Household) error

	// CreateAccount stores a new account.
	CreateAccount(ctx context.Context, a domain.Account) error

	// GetAccount returns the account, or nil if it does not exist for the household.
	GetAccount(ctx context.Context, householdID, accountID string) (*domain.Account, error)
}

// HoldingsWriter stores liabilities, policies and assets. Used by seeding and tests.
type HoldingsWriter interface {
	UpsertLiability(ctx context.Context, l domain.Liability) error
	UpsertPolicy(ctx context.Context, p domain.InsurancePolicy) error
	UpsertAsset(ctx context.Context, a domain.Asset) error
}

// Store is the full ledger surface.
type Store interface {
	Reader
	ActionStore
	InsightStore
	TransactionWriter
	ChatStore
	HouseholdStore
	HoldingsWriter

	// Close releases underlying connections.
	Close() error
}
