// Package metrics exposes Prometheus collectors for degraded-mode and
// throughput signals of the advisor.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "finadv"

// Embedding outcome label values.
const (
	OutcomeRanked   = "ranked"
	OutcomeFallback = "fallback"
	OutcomeSkipped  = "skipped"
	OutcomeEmbedded = "embedded"
)

var (
	// Registry holds every collector of this package plus Go runtime collectors.
	Registry = prometheus.NewRegistry()

	// QueriesRouted counts free-text queries per resolved intent.
	QueriesRouted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "queries_routed_total",
		Help:      "Free-text queries dispatched, by intent.",
	}, []string{"intent"})

	// EmbeddingOutcomes counts embedding and vector search results by operation and outcome.
	EmbeddingOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "embedding_outcomes_total",
		Help:      "Embedding and vector search outcomes, including fallbacks.",
	}, []string{"operation", "outcome"})

	// AnomaliesSkipped counts categories skipped for lack of history.
	AnomaliesSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "anomaly_checks_skipped_total",
		Help:      "Category anomaly checks skipped because the trailing average was zero.",
	})

	// RecommendationsSeeded counts newly created pending recommendation actions.
	RecommendationsSeeded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recommendations_seeded_total",
		Help:      "Recommendation actions created by upsert.",
	})

	// RecommendationsApproved counts approvals that changed state.
	RecommendationsApproved = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recommendations_approved_total",
		Help:      "Recommendation actions moved from pending to approved.",
	})

	// TransactionsIngested counts transactions stored by ingestion.
	TransactionsIngested = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transactions_ingested_total",
		Help:      "Transactions stored by CSV ingestion.",
	})

	// IngestRowsSkipped counts CSV rows dropped for a missing date or amount.
	IngestRowsSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingest_rows_skipped_total",
		Help:      "CSV rows skipped during normalization.",
	})

	// HTTPRequestDuration observes API latency by route and status.
	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		QueriesRouted,
		EmbeddingOutcomes,
		AnomaliesSkipped,
		RecommendationsSeeded,
		RecommendationsApproved,
		TransactionsIngested,
		IngestRowsSkipped,
		HTTPRequestDuration,
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
