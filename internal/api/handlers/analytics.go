package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-advisor/internal/analytics"
	"github.com/dvloznov/finance-advisor/internal/api/middleware"
	"github.com/dvloznov/finance-advisor/internal/domain"
)

const dateLayout = "2006-01-02"

// AnalyticsService computes household read models.
type AnalyticsService interface {
	Now() time.Time
	Overview(ctx context.Context, householdID string, month *time.Time) (domain.Overview, error)
	Cashflow(ctx context.Context, householdID string, month *time.Time) (domain.Cashflow, error)
	NetWorth(ctx context.Context, householdID string) (domain.NetWorth, error)
	SpendBreakdown(ctx context.Context, householdID string, start, end *time.Time) ([]domain.CategorySpend, error)
	DetectAnomalies(ctx context.Context, householdID string) ([]domain.Anomaly, error)
	RecurringExpenses(ctx context.Context, householdID string) (domain.RecurringExpenses, error)
}

var _ AnalyticsService = (*analytics.Engine)(nil)

// AnalyticsHandler handles /api/analytics endpoints.
type AnalyticsHandler struct {
	svc AnalyticsService
	log zerolog.Logger
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(svc AnalyticsService, log zerolog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc, log: log}
}

func (h *AnalyticsHandler) month(r *http.Request) (*time.Time, error) {
	label := r.URL.Query().Get("month")
	if label == "" {
		return nil, nil
	}
	m, err := analytics.ParseMonth(label, h.svc.Now().Location())
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Overview handles GET /api/analytics/overview
func (h *AnalyticsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	month, err := h.month(r)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to compute overview")
		return
	}

	overview, err := h.svc.Overview(r.Context(), middleware.HouseholdID(r), month)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to compute overview")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, overview)
}

// Cashflow handles GET /api/analytics/cashflow
func (h *AnalyticsHandler) Cashflow(w http.ResponseWriter, r *http.Request) {
	month, err := h.month(r)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to compute cashflow")
		return
	}

	cf, err := h.svc.Cashflow(r.Context(), middleware.HouseholdID(r), month)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to compute cashflow")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, cf)
}

// NetWorth handles GET /api/analytics/networth
func (h *AnalyticsHandler) NetWorth(w http.ResponseWriter, r *http.Request) {
	nw, err := h.svc.NetWorth(r.Context(), middleware.HouseholdID(r))
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to compute net worth")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, nw)
}

// Breakdown handles GET /api/analytics/breakdown. start and end are
// optional YYYY-MM-DD dates; end includes the whole day.
func (h *AnalyticsHandler) Breakdown(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	loc := h.svc.Now().Location()

	var start, end *time.Time
	if s := query.Get("start"); s != "" {
		t, err := time.ParseInLocation(dateLayout, s, loc)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid start format, expected YYYY-MM-DD")
			return
		}
		start = &t
	}
	if s := query.Get("end"); s != "" {
		t, err := time.ParseInLocation(dateLayout, s, loc)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid end format, expected YYYY-MM-DD")
			return
		}
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		end = &t
	}

	categories, err := h.svc.SpendBreakdown(r.Context(), middleware.HouseholdID(r), start, end)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to compute spending breakdown")
		return
	}
	if categories == nil {
		categories = []domain.CategorySpend{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"categories": categories,
		"count":      len(categories),
	})
}

// Anomalies handles GET /api/analytics/anomalies
func (h *AnalyticsHandler) Anomalies(w http.ResponseWriter, r *http.Request) {
	anomalies, err := h.svc.DetectAnomalies(r.Context(), middleware.HouseholdID(r))
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to detect anomalies")
		return
	}
	if anomalies == nil {
		anomalies = []domain.Anomaly{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"anomalies": anomalies,
		"count":     len(anomalies),
	})
}

// Recurring handles GET /api/analytics/recurring
func (h *AnalyticsHandler) Recurring(w http.ResponseWriter, r *http.Request) {
	recurring, err := h.svc.RecurringExpenses(r.Context(), middleware.HouseholdID(r))
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to find recurring expenses")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, recurring)
}
