// Package coordinator routes free-text questions to the analytics and
// savings engines and composes a chat response with UI components.
package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/dvloznov/finance-advisor/internal/embeddings"
	"github.com/dvloznov/finance-advisor/internal/logger"
	"github.com/dvloznov/finance-advisor/internal/metrics"
)

// Analytics is the analytics surface the handlers compose.
type Analytics interface {
	Cashflow(ctx context.Context, householdID string, month *time.Time) (domain.Cashflow, error)
	NetWorth(ctx context.Context, householdID string) (domain.NetWorth, error)
	SpendBreakdown(ctx context.Context, householdID string, start, end *time.Time) ([]domain.CategorySpend, error)
}

// Savings ranks savings opportunities.
type Savings interface {
	FindOpportunities(ctx context.Context, householdID string) ([]domain.Opportunity, error)
}

// Holdings reads debts and insurance policies.
type Holdings interface {
	ListLiabilities(ctx context.Context, householdID string) ([]domain.Liability, error)
	ListPolicies(ctx context.Context, householdID string) ([]domain.InsurancePolicy, error)
}

// Retriever finds transactions and insights related to a query.
type Retriever interface {
	Search(ctx context.Context, householdID, query string, limit int) (embeddings.Results, error)
}

// Response is the composed answer to one query.
type Response struct {
	Message          string                   `json:"message"`
	Components       []Component              `json:"components,omitempty"`
	Data             map[string]interface{}   `json:"data,omitempty"`
	SuggestedActions []domain.SuggestedAction `json:"suggestedActions,omitempty"`
	Intent           Intent                   `json:"intent"`
	AgentTrace       []string                 `json:"agentTrace,omitempty"`
}

func (r *Response) trace(format string, args ...interface{}) {
	r.AgentTrace = append(r.AgentTrace, fmt.Sprintf(format, args...))
}

type handlerFunc func(ctx context.Context, householdID, query string, resp *Response) error

// Coordinator dispatches queries. It holds no state between calls.
type Coordinator struct {
	analytics Analytics
	savings   Savings
	holdings  Holdings
	retriever Retriever
	handlers  map[Intent]handlerFunc
}

// New creates a Coordinator. retriever may be nil, in which case general
// queries are answered with the help text.
func New(analytics Analytics, savings Savings, holdings Holdings, retriever Retriever) *Coordinator {
	c := &Coordinator{
		analytics: analytics,
		savings:   savings,
		holdings:  holdings,
		retriever: retriever,
	}
	c.handlers = map[Intent]handlerFunc{
		IntentIngestion: c.handleIngestion,
		IntentSavings:   c.handleSavings,
		IntentInterest:  c.handleInterest,
		IntentOverview:  c.handleOverview,
		IntentSpending:  c.handleSpending,
		IntentInsurance: c.handleInsurance,
		IntentGeneral:   c.handleGeneral,
	}
	return c
}

// HandleQuery classifies query and runs the matching handler. history is
// the recent conversation, oldest first.
func (c *Coordinator) HandleQuery(ctx context.Context, householdID, query string, history []domain.ChatMessage) (Response, error) {
	if err := domain.RequireHousehold(householdID); err != nil {
		return Response{}, err
	}

	intent := Classify(query)
	metrics.QueriesRouted.WithLabelValues(string(intent)).Inc()

	log := logger.WithHousehold(logger.FromContext(ctx), householdID)
	log.Debug().
		Str("intent", string(intent)).
		Int("history_turns", len(history)).
		Msg("Routing query")

	resp := Response{Intent: intent}
	resp.trace("Coordinator: received query")
	resp.trace("Coordinator: routing to %s handler", intent)

	if err := c.handlers[intent](ctx, householdID, query, &resp); err != nil {
		return Response{}, fmt.Errorf("HandleQuery: %s: %w", intent, err)
	}
	return resp, nil
}
