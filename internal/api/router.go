// Package api assembles the HTTP surface of the advisor.
package api

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-advisor/internal/api/handlers"
	"github.com/dvloznov/finance-advisor/internal/api/middleware"
	"github.com/dvloznov/finance-advisor/internal/metrics"
)

// Handlers groups the endpoint handlers served by the router.
type Handlers struct {
	Analytics       *handlers.AnalyticsHandler
	Savings         *handlers.SavingsHandler
	Recommendations *handlers.RecommendationsHandler
	Chat            *handlers.ChatHandler
	Households      *handlers.HouseholdsHandler
	Ingest          *handlers.IngestHandler
	Jobs            *handlers.JobsHandler
}

func only(method string, fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		fn(w, r)
	}
}

// NewRouter registers every route on a new mux.
func NewRouter(h Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("/metrics", metrics.Handler())

	// Analytics
	mux.HandleFunc("/api/analytics/overview", only(http.MethodGet, h.Analytics.Overview))
	mux.HandleFunc("/api/analytics/cashflow", only(http.MethodGet, h.Analytics.Cashflow))
	mux.HandleFunc("/api/analytics/networth", only(http.MethodGet, h.Analytics.NetWorth))
	mux.HandleFunc("/api/analytics/breakdown", only(http.MethodGet, h.Analytics.Breakdown))
	mux.HandleFunc("/api/analytics/anomalies", only(http.MethodGet, h.Analytics.Anomalies))
	mux.HandleFunc("/api/analytics/recurring", only(http.MethodGet, h.Analytics.Recurring))
	mux.HandleFunc("/api/analytics/what-if", only(http.MethodPost, h.Savings.WhatIf))

	// Savings
	mux.HandleFunc("/api/savings/opportunities", only(http.MethodGet, h.Savings.Opportunities))
	mux.HandleFunc("/api/savings/insights", only(http.MethodPost, h.Savings.GenerateInsights))

	// Recommendations
	mux.HandleFunc("/api/recommendations", only(http.MethodGet, h.Recommendations.List))
	mux.HandleFunc("/api/recommendations/approve", only(http.MethodPost, h.Recommendations.Approve))

	mux.HandleFunc("/api/chat", only(http.MethodPost, h.Chat.Ask))

	mux.HandleFunc("/api/households", only(http.MethodPost, h.Households.CreateHousehold))
	mux.HandleFunc("/api/accounts", only(http.MethodPost, h.Households.CreateAccount))

	// Ingestion
	mux.HandleFunc("/api/ingest/csv", only(http.MethodPost, h.Ingest.IngestCSV))
	mux.HandleFunc("/api/ingest/gcs", only(http.MethodPost, h.Ingest.IngestGCS))

	// Jobs
	mux.HandleFunc("/api/jobs", only(http.MethodGet, h.Jobs.ListJobs))
	mux.HandleFunc("/api/jobs/", only(http.MethodGet, func(w http.ResponseWriter, r *http.Request) {
		jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
		if jobID == "" || strings.Contains(jobID, "/") {
			middleware.WriteError(w, http.StatusNotFound, "Job not found")
			return
		}
		h.Jobs.GetJob(w, r, jobID)
	}))

	return mux
}

// Wrap applies the standard middleware chain around the router.
func Wrap(next http.Handler, log zerolog.Logger) http.Handler {
	return middleware.Recovery(log)(
		middleware.RequestID(
			middleware.Logger(log)(
				middleware.Metrics(
					middleware.CORS(next),
				),
			),
		),
	)
}
