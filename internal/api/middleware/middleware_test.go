package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/finance-advisor/internal/logger"
)

func TestHouseholdID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/analytics/networth?householdId=hh-query", nil)
	r.Header.Set(HouseholdHeader, "hh-header")
	assert.Equal(t, "hh-query", HouseholdID(r))

	r = httptest.NewRequest(http.MethodGet, "/api/analytics/networth", nil)
	r.Header.Set(HouseholdHeader, " hh-header ")
	assert.Equal(t, "hh-header", HouseholdID(r))

	r = httptest.NewRequest(http.MethodGet, "/api/analytics/networth", nil)
	assert.Empty(t, HouseholdID(r))
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc", seen)
}

func TestRecoveryWritesInternalError(t *testing.T) {
	h := Recovery(logger.NewWithOptions(logger.Options{Level: "disabled"}))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Internal server error", body["error"])
}

func TestCORSPreflight(t *testing.T) {
	called := false
	h := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/chat", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, called)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), HouseholdHeader)
}

func TestRouteLabel(t *testing.T) {
	assert.Equal(t, "/api/jobs/{id}", RouteLabel("/api/jobs/123"))
	assert.Equal(t, "/api/jobs/", RouteLabel("/api/jobs/"))
	assert.Equal(t, "/api/chat", RouteLabel("/api/chat"))
}

func TestMetricsPassesStatusThrough(t *testing.T) {
	h := Metrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusTeapot, "short and stout")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/1", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
