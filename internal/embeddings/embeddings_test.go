package embeddings

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/dvloznov/finance-advisor/internal/ledger/inmemory"
	"github.com/dvloznov/finance-advisor/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// keywordEmbedder maps text to a 2-d vector: x for "netflix", y otherwise.
type keywordEmbedder struct {
	err   error
	calls int
}

func (k *keywordEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	k.calls++
	if k.err != nil {
		return nil, k.err
	}
	if strings.Contains(strings.ToLower(text), "netflix") {
		return []float32{1, 0}, nil
	}
	return []float32{0, 1}, nil
}

// brokenSearch wraps a store and fails every vector search.
type brokenSearch struct {
	*inmemory.Store
}

func (b brokenSearch) SearchTransactions(ctx context.Context, householdID string, vector []float32, limit int) ([]domain.Transaction, error) {
	return nil, errors.New("vector index missing")
}

func TestTransactionText(t *testing.T) {
	rec := true
	tx := domain.Transaction{
		PostedAt:  time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC),
		Merchant:  "Netflix",
		Amount:    -15.99,
		Category:  "Entertainment",
		AccountID: "acc-1",
		Recurring: &rec,
	}
	assert.Equal(t, "2024-03-05 Netflix $15.99 category=Entertainment account=acc-1 expense recurring", TransactionText(tx))

	tx = domain.Transaction{PostedAt: tx.PostedAt, Amount: 2500, AccountID: "acc-2", Notes: "bonus"}
	assert.Equal(t, "2024-03-05 Unknown $2500.00 category=Uncategorized account=acc-2 income one-time bonus", TransactionText(tx))
}

func seeded(t *testing.T, e Embedder) *inmemory.Store {
	t.Helper()
	ctx := context.Background()
	store := inmemory.NewStore()
	txs := []domain.Transaction{
		{ID: "t1", HouseholdID: "hh", PostedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Merchant: "Grocer", Amount: -40},
		{ID: "t2", HouseholdID: "hh", PostedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Merchant: "Netflix", Amount: -15.99},
	}
	AnnotateTransactions(ctx, e, txs)
	require.NoError(t, store.InsertTransactions(ctx, txs))

	insights := []domain.Insight{{ID: "i1", HouseholdID: "hh", Type: domain.InsightSavingsOpportunity, Title: "Review subscription: Netflix", CreatedAt: time.Now()}}
	AnnotateInsights(ctx, e, insights)
	require.NoError(t, store.InsertInsights(ctx, insights))
	return store
}

func TestSearchRanksWhenEmbeddingsAvailable(t *testing.T) {
	e := &keywordEmbedder{}
	store := seeded(t, e)
	r := NewRetriever(e, store, store)

	res, err := r.Search(context.Background(), "hh", "what about netflix?", 1)
	require.NoError(t, err)
	require.Len(t, res.Transactions, 1)
	assert.Equal(t, "t2", res.Transactions[0].ID)
	assert.Equal(t, metrics.OutcomeRanked, res.TransactionsOutcome.Status)
	assert.False(t, res.InsightsOutcome.Degraded())
	require.Len(t, res.Insights, 1)
}

func TestSearchFallsBackWhenEmbeddingFails(t *testing.T) {
	store := seeded(t, &keywordEmbedder{})
	failing := &keywordEmbedder{err: errors.New("quota exceeded")}
	r := NewRetriever(failing, store, store)

	res, err := r.Search(context.Background(), "hh", "netflix", 5)
	require.NoError(t, err)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, metrics.OutcomeFallback, res.TransactionsOutcome.Status)
	assert.True(t, res.TransactionsOutcome.Degraded())
	assert.EqualError(t, res.TransactionsOutcome.Err, "quota exceeded")
	assert.Len(t, res.Transactions, 2)
	assert.Len(t, res.Insights, 1)
}

func TestSearchFallbackReturnsNewestTransactions(t *testing.T) {
	store := seeded(t, &keywordEmbedder{})
	r := NewRetriever(&keywordEmbedder{err: errors.New("quota exceeded")}, store, store)

	res, err := r.Search(context.Background(), "hh", "anything", 1)
	require.NoError(t, err)
	require.Len(t, res.Transactions, 1)
	assert.Equal(t, "t2", res.Transactions[0].ID)
}

func TestSearchFallsBackWhenVectorSearchFails(t *testing.T) {
	e := &keywordEmbedder{}
	store := seeded(t, e)
	r := NewRetriever(e, brokenSearch{store}, store)

	res, err := r.Search(context.Background(), "hh", "netflix", 5)
	require.NoError(t, err)
	assert.Equal(t, metrics.OutcomeFallback, res.TransactionsOutcome.Status)
	assert.Equal(t, metrics.OutcomeRanked, res.InsightsOutcome.Status)
	assert.Len(t, res.Transactions, 2)
}

func TestSearchRequiresHousehold(t *testing.T) {
	r := NewRetriever(nil, inmemory.NewStore(), inmemory.NewStore())
	_, err := r.Search(context.Background(), "", "x", 5)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestAnnotateChatMessageOnlyEmbedsUserTurns(t *testing.T) {
	e := &keywordEmbedder{}
	user := domain.ChatMessage{Role: domain.RoleUser, Text: "hi"}
	assistant := domain.ChatMessage{Role: domain.RoleAssistant, Text: "hello"}

	AnnotateChatMessage(context.Background(), e, &user)
	AnnotateChatMessage(context.Background(), e, &assistant)

	assert.NotEmpty(t, user.Embedding)
	assert.Empty(t, assistant.Embedding)
	assert.Equal(t, 1, e.calls)
}

func TestAnnotateSkipsOnFailure(t *testing.T) {
	txs := []domain.Transaction{{ID: "a"}, {ID: "b", Embedding: []float32{1}}}
	n := AnnotateTransactions(context.Background(), DisabledEmbedder{}, txs)
	assert.Equal(t, 0, n)
	assert.Empty(t, txs[0].Embedding)
	assert.Equal(t, []float32{1}, txs[1].Embedding)
}
