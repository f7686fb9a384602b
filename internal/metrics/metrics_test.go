package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddingOutcomesCounter(t *testing.T) {
	before := testutil.ToFloat64(EmbeddingOutcomes.WithLabelValues("search_insights", OutcomeFallback))
	EmbeddingOutcomes.WithLabelValues("search_insights", OutcomeFallback).Inc()
	after := testutil.ToFloat64(EmbeddingOutcomes.WithLabelValues("search_insights", OutcomeFallback))
	assert.Equal(t, before+1, after)
}

func TestHandlerExposesCollectors(t *testing.T) {
	QueriesRouted.WithLabelValues("savings").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `finadv_queries_routed_total{intent="savings"}`))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}
