package embeddings

import (
	"context"

	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/dvloznov/finance-advisor/internal/logger"
	"github.com/dvloznov/finance-advisor/internal/metrics"
)

// Outcome reports how an embedding-backed step finished. Degraded outcomes
// carry the upstream cause so callers can log it; they are never returned as
// errors.
type Outcome struct {
	Operation string
	Status    string
	Err       error
}

// Degraded reports whether the step fell back or was skipped.
func (o Outcome) Degraded() bool {
	return o.Status == metrics.OutcomeFallback || o.Status == metrics.OutcomeSkipped
}

func record(ctx context.Context, o Outcome) Outcome {
	metrics.EmbeddingOutcomes.WithLabelValues(o.Operation, o.Status).Inc()
	if o.Err != nil {
		log := logger.FromContext(ctx)
		log.Warn().
			Err(o.Err).
			Str("operation", o.Operation).
			Str("outcome", o.Status).
			Msg("Embedding step degraded")
	}
	return o
}

// Embed computes a vector for text, returning a skipped outcome instead of an error.
func Embed(ctx context.Context, e Embedder, operation, text string) ([]float32, Outcome) {
	vec, err := e.Embed(ctx, text)
	if err != nil {
		return nil, record(ctx, Outcome{Operation: operation, Status: metrics.OutcomeSkipped, Err: err})
	}
	return vec, record(ctx, Outcome{Operation: operation, Status: metrics.OutcomeEmbedded})
}

// AnnotateTransactions embeds every transaction that has no vector yet and
// returns how many were embedded.
func AnnotateTransactions(ctx context.Context, e Embedder, txs []domain.Transaction) int {
	n := 0
	for i := range txs {
		if len(txs[i].Embedding) > 0 {
			continue
		}
		vec, out := Embed(ctx, e, "embed_transaction", TransactionText(txs[i]))
		if out.Degraded() {
			continue
		}
		txs[i].Embedding = vec
		n++
	}
	return n
}

// AnnotateInsights embeds every insight that has no vector yet.
func AnnotateInsights(ctx context.Context, e Embedder, insights []domain.Insight) int {
	n := 0
	for i := range insights {
		if len(insights[i].Embedding) > 0 {
			continue
		}
		vec, out := Embed(ctx, e, "embed_insight", InsightText(insights[i]))
		if out.Degraded() {
			continue
		}
		insights[i].Embedding = vec
		n++
	}
	return n
}

// AnnotateChatMessage embeds user messages; assistant messages are stored without a vector.
func AnnotateChatMessage(ctx context.Context, e Embedder, msg *domain.ChatMessage) {
	if msg.Role != domain.RoleUser || len(msg.Embedding) > 0 {
		return
	}
	if vec, out := Embed(ctx, e, "embed_chat", msg.Text); !out.Degraded() {
		msg.Embedding = vec
	}
}
