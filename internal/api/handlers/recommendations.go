package handlers

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-advisor/internal/api/middleware"
	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/dvloznov/finance-advisor/internal/recommend"
)

// RecommendationService seeds, lists and approves recommendation actions.
type RecommendationService interface {
	Refresh(ctx context.Context, householdID string) ([]domain.RecommendationAction, error)
	Approve(ctx context.Context, householdID, actionID string) (*domain.RecommendationAction, error)
}

var _ RecommendationService = (*recommend.Manager)(nil)

// RecommendationsHandler handles /api/recommendations endpoints.
type RecommendationsHandler struct {
	svc RecommendationService
	log zerolog.Logger
}

// NewRecommendationsHandler creates a new recommendations handler.
func NewRecommendationsHandler(svc RecommendationService, log zerolog.Logger) *RecommendationsHandler {
	return &RecommendationsHandler{svc: svc, log: log}
}

// List handles GET /api/recommendations. Missing pending actions are seeded
// from current spending before listing.
func (h *RecommendationsHandler) List(w http.ResponseWriter, r *http.Request) {
	actions, err := h.svc.Refresh(r.Context(), middleware.HouseholdID(r))
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list recommendations")
		return
	}
	if actions == nil {
		actions = []domain.RecommendationAction{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"recommendations": actions,
		"count":           len(actions),
	})
}

// Approve handles POST /api/recommendations/approve
func (h *RecommendationsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HouseholdID string `json:"householdId"`
		ID          string `json:"id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	householdID := householdFrom(r, req.HouseholdID)
	action, err := h.svc.Approve(r.Context(), householdID, req.ID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to approve recommendation")
		return
	}

	h.log.Info().Str("household_id", householdID).Str("action_id", action.ID).Str("status", string(action.Status)).Msg("Recommendation approved")
	middleware.WriteJSON(w, http.StatusOK, action)
}
