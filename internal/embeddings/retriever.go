package embeddings

import (
	"context"
	"fmt"

	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/dvloznov/finance-advisor/internal/metrics"
)

// TransactionSource is the ledger surface the retriever reads transactions through.
type TransactionSource interface {
	ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error)
	SearchTransactions(ctx context.Context, householdID string, vector []float32, limit int) ([]domain.Transaction, error)
}

// InsightSource is the ledger surface the retriever reads insights through.
type InsightSource interface {
	ListInsights(ctx context.Context, householdID string, limit int) ([]domain.Insight, error)
	SearchInsights(ctx context.Context, householdID string, vector []float32, limit int) ([]domain.Insight, error)
}

// Results holds related records for one query.
type Results struct {
	Transactions        []domain.Transaction
	Insights            []domain.Insight
	TransactionsOutcome Outcome
	InsightsOutcome     Outcome
}

// Retriever finds records related to a free-text query.
type Retriever struct {
	embedder Embedder
	txs      TransactionSource
	insights InsightSource
}

// NewRetriever creates a Retriever. A nil embedder behaves like DisabledEmbedder.
func NewRetriever(e Embedder, txs TransactionSource, insights InsightSource) *Retriever {
	if e == nil {
		e = DisabledEmbedder{}
	}
	return &Retriever{embedder: e, txs: txs, insights: insights}
}

// Search embeds query once and ranks transactions and insights by
// similarity. When embedding or a vector search fails the affected list is
// read with a plain household filter instead; only failures of that plain
// read are returned as errors.
func (r *Retriever) Search(ctx context.Context, householdID, query string, limit int) (Results, error) {
	if err := domain.RequireHousehold(householdID); err != nil {
		return Results{}, err
	}

	vec, embedErr := r.embedder.Embed(ctx, query)

	var res Results
	var err error
	res.Transactions, res.TransactionsOutcome, err = r.transactions(ctx, householdID, vec, embedErr, limit)
	if err != nil {
		return Results{}, err
	}
	res.Insights, res.InsightsOutcome, err = r.insightList(ctx, householdID, vec, embedErr, limit)
	if err != nil {
		return Results{}, err
	}
	return res, nil
}

func (r *Retriever) transactions(ctx context.Context, householdID string, vec []float32, embedErr error, limit int) ([]domain.Transaction, Outcome, error) {
	const op = "search_transactions"
	cause := embedErr
	if cause == nil {
		ranked, err := r.txs.SearchTransactions(ctx, householdID, vec, limit)
		if err == nil {
			return ranked, record(ctx, Outcome{Operation: op, Status: metrics.OutcomeRanked}), nil
		}
		cause = err
	}

	out := record(ctx, Outcome{Operation: op, Status: metrics.OutcomeFallback, Err: cause})
	plain, err := r.txs.ListTransactions(ctx, domain.TransactionFilter{HouseholdID: householdID, NewestFirst: true, Limit: limit})
	if err != nil {
		return nil, out, fmt.Errorf("Search: fallback transactions: %w", err)
	}
	return plain, out, nil
}

func (r *Retriever) insightList(ctx context.Context, householdID string, vec []float32, embedErr error, limit int) ([]domain.Insight, Outcome, error) {
	const op = "search_insights"
	cause := embedErr
	if cause == nil {
		ranked, err := r.insights.SearchInsights(ctx, householdID, vec, limit)
		if err == nil {
			return ranked, record(ctx, Outcome{Operation: op, Status: metrics.OutcomeRanked}), nil
		}
		cause = err
	}

	out := record(ctx, Outcome{Operation: op, Status: metrics.OutcomeFallback, Err: cause})
	plain, err := r.insights.ListInsights(ctx, householdID, limit)
	if err != nil {
		return nil, out, fmt.Errorf("Search: fallback insights: %w", err)
	}
	return plain, out, nil
}
