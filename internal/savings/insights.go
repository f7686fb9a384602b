package savings

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/dvloznov/finance-advisor/internal/embeddings"
	"github.com/google/uuid"
)

// InsightLimit caps how many opportunities are persisted as insights per run.
const InsightLimit = 10

// InsightWriter stores generated insights.
type InsightWriter interface {
	InsertInsights(ctx context.Context, insights []domain.Insight) error
}

// InsightGenerator persists the top opportunities as insights.
type InsightGenerator struct {
	engine   *Engine
	store    InsightWriter
	embedder embeddings.Embedder
	now      func() time.Time
}

// NewInsightGenerator creates an InsightGenerator. A nil embedder stores insights without vectors.
func NewInsightGenerator(engine *Engine, store InsightWriter, embedder embeddings.Embedder) *InsightGenerator {
	if embedder == nil {
		embedder = embeddings.DisabledEmbedder{}
	}
	return &InsightGenerator{engine: engine, store: store, embedder: embedder, now: time.Now}
}

// Generate converts the top opportunities into savings_opportunity insights,
// embeds them best-effort and stores them.
func (g *InsightGenerator) Generate(ctx context.Context, householdID string) ([]domain.Insight, error) {
	opps, err := g.engine.FindOpportunities(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("GenerateInsights: %w", err)
	}
	if len(opps) > InsightLimit {
		opps = opps[:InsightLimit]
	}

	now := g.now()
	insights := make([]domain.Insight, 0, len(opps))
	for _, opp := range opps {
		insights = append(insights, domain.Insight{
			ID:          uuid.New().String(),
			HouseholdID: householdID,
			Type:        domain.InsightSavingsOpportunity,
			Title:       opp.Title,
			Body:        opp.Description,
			Severity:    opp.Severity,
			Actions:     opp.Actions,
			Data: map[string]interface{}{
				"potentialMonthlySavings": opp.PotentialMonthlySavings,
				"category":                opp.Category,
			},
			CreatedAt: now,
		})
	}

	embeddings.AnnotateInsights(ctx, g.embedder, insights)

	if len(insights) > 0 {
		if err := g.store.InsertInsights(ctx, insights); err != nil {
			return nil, fmt.Errorf("GenerateInsights: insert insights: %w", err)
		}
	}
	return insights, nil
}
