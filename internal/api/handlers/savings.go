package handlers

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-advisor/internal/api/middleware"
	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/dvloznov/finance-advisor/internal/savings"
)

// SavingsService finds opportunities and runs refinance projections.
type SavingsService interface {
	FindOpportunities(ctx context.Context, householdID string) ([]domain.Opportunity, error)
	WhatIfRefinance(ctx context.Context, householdID, liabilityID string, scenario savings.RefinanceScenario) (savings.RefinanceProjection, error)
}

// InsightService turns opportunities into stored insights.
type InsightService interface {
	Generate(ctx context.Context, householdID string) ([]domain.Insight, error)
}

var (
	_ SavingsService = (*savings.Engine)(nil)
	_ InsightService = (*savings.InsightGenerator)(nil)
)

// SavingsHandler handles savings and what-if endpoints.
type SavingsHandler struct {
	svc      SavingsService
	insights InsightService
	log      zerolog.Logger
}

// NewSavingsHandler creates a new savings handler.
func NewSavingsHandler(svc SavingsService, insights InsightService, log zerolog.Logger) *SavingsHandler {
	return &SavingsHandler{svc: svc, insights: insights, log: log}
}

// Opportunities handles GET /api/savings/opportunities
func (h *SavingsHandler) Opportunities(w http.ResponseWriter, r *http.Request) {
	opps, err := h.svc.FindOpportunities(r.Context(), middleware.HouseholdID(r))
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to find savings opportunities")
		return
	}
	if opps == nil {
		opps = []domain.Opportunity{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"opportunities": opps,
		"count":         len(opps),
		"totalSavings":  savings.TotalSavings(opps),
	})
}

// GenerateInsights handles POST /api/savings/insights
func (h *SavingsHandler) GenerateInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := h.insights.Generate(r.Context(), middleware.HouseholdID(r))
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to generate insights")
		return
	}
	if insights == nil {
		insights = []domain.Insight{}
	}
	middleware.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"insights": insights,
		"count":    len(insights),
	})
}

// WhatIf handles POST /api/analytics/what-if
func (h *SavingsHandler) WhatIf(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HouseholdID  string   `json:"householdId"`
		LiabilityID  string   `json:"liabilityId"`
		NewAPR       *float64 `json:"newAPR"`
		ExtraPayment float64  `json:"extraPayment"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.LiabilityID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "liabilityId is required")
		return
	}

	scenario := savings.RefinanceScenario{NewAPR: req.NewAPR, ExtraPayment: req.ExtraPayment}
	projection, err := h.svc.WhatIfRefinance(r.Context(), householdFrom(r, req.HouseholdID), req.LiabilityID, scenario)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to run refinance projection")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, projection)
}
