package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/finance-advisor/internal/analytics"
	"github.com/dvloznov/finance-advisor/internal/api/handlers"
	"github.com/dvloznov/finance-advisor/internal/api/middleware"
	"github.com/dvloznov/finance-advisor/internal/coordinator"
	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/dvloznov/finance-advisor/internal/embeddings"
	"github.com/dvloznov/finance-advisor/internal/ingest"
	jobsmem "github.com/dvloznov/finance-advisor/internal/jobs/inmemory"
	"github.com/dvloznov/finance-advisor/internal/ledger/inmemory"
	"github.com/dvloznov/finance-advisor/internal/recommend"
	"github.com/dvloznov/finance-advisor/internal/savings"
)

const hh = "hh-1"

var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

type testServer struct {
	store   *inmemory.Store
	handler http.Handler
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	log := zerolog.Nop()
	store := inmemory.NewStore()
	clock := func() time.Time { return fixedNow }

	a := analytics.New(store, analytics.WithClock(clock))
	s := savings.New(a, store)
	retriever := embeddings.NewRetriever(nil, store, store)
	coord := coordinator.New(a, s, store, retriever)

	jobStore := jobsmem.NewStore()
	queue := jobsmem.NewQueue(10, jobStore)
	t.Cleanup(func() { queue.Close() })

	mux := NewRouter(Handlers{
		Analytics:       handlers.NewAnalyticsHandler(a, log),
		Savings:         handlers.NewSavingsHandler(s, savings.NewInsightGenerator(s, store, nil), log),
		Recommendations: handlers.NewRecommendationsHandler(recommend.NewManager(store, a, recommend.WithClock(clock)), log),
		Chat:            handlers.NewChatHandler(coordinator.NewChat(coord, store, nil), log),
		Households:      handlers.NewHouseholdsHandler(store, log),
		Ingest:          handlers.NewIngestHandler(ingest.NewService(store, store, nil, nil), queue, log),
		Jobs:            handlers.NewJobsHandler(jobStore, log),
	})
	return testServer{store: store, handler: Wrap(mux, log)}
}

func (s testServer) do(t *testing.T, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = s.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_request_duration_seconds")
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/analytics/cashflow?householdId="+hh, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCashflowEndpoint(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.store.InsertTransactions(context.Background(), []domain.Transaction{
		{ID: "t1", HouseholdID: hh, PostedAt: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC), Amount: 5000},
		{ID: "t2", HouseholdID: hh, PostedAt: time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC), Amount: -200},
		{ID: "t3", HouseholdID: hh, PostedAt: time.Date(2024, 6, 10, 10, 0, 0, 0, time.UTC), Amount: -120},
	}))

	rec := s.do(t, http.MethodGet, "/api/analytics/cashflow?householdId="+hh, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cf domain.Cashflow
	decode(t, rec, &cf)
	assert.Equal(t, domain.Cashflow{Income: 5000, Expenses: 320, Net: 4680, Period: "2024-06"}, cf)

	rec = s.do(t, http.MethodGet, "/api/analytics/cashflow?householdId="+hh+"&month=2024-05", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &cf)
	assert.Equal(t, domain.Cashflow{Period: "2024-05"}, cf)

	rec = s.do(t, http.MethodGet, "/api/analytics/cashflow?householdId="+hh+"&month=June", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHouseholdRequired(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{
		"/api/analytics/overview",
		"/api/analytics/networth",
		"/api/analytics/anomalies",
		"/api/savings/opportunities",
		"/api/recommendations",
	} {
		rec := s.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestHouseholdHeader(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/analytics/networth", nil)
	req.Header.Set(middleware.HouseholdHeader, hh)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBreakdownEndpoint(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.store.InsertTransactions(context.Background(), []domain.Transaction{
		{ID: "t1", HouseholdID: hh, PostedAt: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC), Amount: -30, Category: "Dining"},
		{ID: "t2", HouseholdID: hh, PostedAt: time.Date(2024, 6, 2, 23, 0, 0, 0, time.UTC), Amount: -70, Category: "Groceries"},
		{ID: "t3", HouseholdID: hh, PostedAt: time.Date(2024, 6, 5, 10, 0, 0, 0, time.UTC), Amount: -50, Category: "Dining"},
	}))

	rec := s.do(t, http.MethodGet, "/api/analytics/breakdown?householdId="+hh+"&start=2024-06-01&end=2024-06-02", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Categories []domain.CategorySpend `json:"categories"`
		Count      int                    `json:"count"`
	}
	decode(t, rec, &body)
	assert.Equal(t, 2, body.Count)

	rec = s.do(t, http.MethodGet, "/api/analytics/breakdown?householdId="+hh+"&start=06/01/2024", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWhatIfEndpoint(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.store.UpsertLiability(context.Background(), domain.Liability{
		ID: "l1", HouseholdID: hh, APR: 0.18, Balance: 12000, MinPayment: 300,
	}))

	rec := s.do(t, http.MethodPost, "/api/analytics/what-if", map[string]interface{}{
		"householdId":  hh,
		"liabilityId":  "l1",
		"newAPR":       0.12,
		"extraPayment": 100,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var p savings.RefinanceProjection
	decode(t, rec, &p)
	assert.InDelta(t, 60.0, p.Savings.Monthly, 1e-9)
	assert.InDelta(t, 10.0, p.Savings.MonthsSaved, 1e-9)

	rec = s.do(t, http.MethodPost, "/api/analytics/what-if", map[string]interface{}{"householdId": hh, "liabilityId": "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/analytics/what-if", map[string]interface{}{"householdId": hh})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/analytics/what-if", map[string]interface{}{"householdId": hh, "liabilityId": "l1", "newAPR": 2})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSavingsEndpointsEmptyHousehold(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/savings/opportunities?householdId="+hh, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var opps struct {
		Opportunities []domain.Opportunity `json:"opportunities"`
		Count         int                  `json:"count"`
		TotalSavings  float64              `json:"totalSavings"`
	}
	decode(t, rec, &opps)
	assert.NotNil(t, opps.Opportunities)
	assert.Equal(t, 0, opps.Count)
	assert.Equal(t, 0.0, opps.TotalSavings)

	rec = s.do(t, http.MethodPost, "/api/savings/insights?householdId="+hh, nil)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRecommendationsFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/recommendations?householdId="+hh, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Recommendations []domain.RecommendationAction `json:"recommendations"`
		Count           int                           `json:"count"`
	}
	decode(t, rec, &list)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, recommend.TypeInsuranceQuote, list.Recommendations[0].Type)
	assert.Equal(t, domain.ActionPending, list.Recommendations[0].Status)

	// Listing again does not duplicate.
	rec = s.do(t, http.MethodGet, "/api/recommendations?householdId="+hh, nil)
	decode(t, rec, &list)
	assert.Equal(t, 1, list.Count)

	id := list.Recommendations[0].ID
	rec = s.do(t, http.MethodPost, "/api/recommendations/approve", map[string]string{"householdId": hh, "id": id})
	require.Equal(t, http.StatusOK, rec.Code)
	var action domain.RecommendationAction
	decode(t, rec, &action)
	assert.Equal(t, domain.ActionApproved, action.Status)
	assert.NotEmpty(t, action.Result)

	rec = s.do(t, http.MethodPost, "/api/recommendations/approve", map[string]string{"householdId": hh, "id": "nope"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/recommendations/approve", map[string]string{"householdId": hh})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/recommendations/approve", map[string]string{"householdId": "other", "id": id})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChatEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/chat?householdId="+hh, map[string]string{"message": "how do I upload a statement"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp coordinator.Response
	decode(t, rec, &resp)
	assert.Equal(t, coordinator.IntentIngestion, resp.Intent)
	assert.NotEmpty(t, resp.Message)

	msgs, err := s.store.ListChatMessages(context.Background(), hh, 0)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)

	rec = s.do(t, http.MethodPost, "/api/chat?householdId="+hh, map[string]string{"message": " "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("{not json"))
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateHouseholdAndAccount(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/households", map[string]string{"name": "The Smiths"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var household domain.Household
	decode(t, rec, &household)
	assert.NotEmpty(t, household.ID)
	assert.Equal(t, "The Smiths", household.Name)

	rec = s.do(t, http.MethodPost, "/api/households", map[string]string{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/accounts", map[string]string{
		"householdId": household.ID, "name": "Everyday", "type": "checking",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var account domain.Account
	decode(t, rec, &account)
	assert.Equal(t, domain.AccountChecking, account.Kind)
	assert.Equal(t, "USD", account.Currency)

	stored, err := s.store.GetAccount(context.Background(), household.ID, account.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)

	rec = s.do(t, http.MethodPost, "/api/accounts", map[string]string{"householdId": household.ID, "name": "Odd", "type": "crypto"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/accounts", map[string]string{"name": "Orphan", "type": "checking"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

const statement = "date,merchant,amount\n2024-06-02,Netflix,15.99\n,,\n"

func TestIngestCSVRawBody(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.store.CreateAccount(context.Background(), domain.Account{ID: "card", HouseholdID: hh, Kind: domain.AccountCreditCard}))

	req := httptest.NewRequest(http.MethodPost, "/api/ingest/csv?householdId="+hh+"&accountId=card", strings.NewReader(statement))
	req.Header.Set("Content-Type", "text/csv")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res ingest.Result
	decode(t, rec, &res)
	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 1, res.Skipped)

	txs, err := s.store.ListTransactions(context.Background(), domain.TransactionFilter{HouseholdID: hh})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, -15.99, txs[0].Amount)
}

func TestIngestCSVMultipart(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.store.CreateAccount(context.Background(), domain.Account{ID: "chk", HouseholdID: hh, Kind: domain.AccountChecking}))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("householdId", hh))
	require.NoError(t, mw.WriteField("accountId", "chk"))
	part, err := mw.CreateFormFile("file", "june.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(statement))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/ingest/csv", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res ingest.Result
	decode(t, rec, &res)
	assert.Equal(t, 1, res.Imported)

	txs, err := s.store.ListTransactions(context.Background(), domain.TransactionFilter{HouseholdID: hh})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, 15.99, txs[0].Amount, "checking accounts keep the sign")
}

func TestIngestCSVUnknownAccount(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/ingest/csv?householdId="+hh+"&accountId=missing", strings.NewReader(statement))
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIngestGCSAndJobs(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/ingest/gcs", map[string]string{
		"householdId": hh, "accountId": "card", "gcsUri": "gs://statements/hh-1/june.csv",
	})
	require.Equal(t, http.StatusAccepted, rec.Code)
	var enqueued map[string]string
	decode(t, rec, &enqueued)
	jobID := enqueued["job_id"]
	require.NotEmpty(t, jobID)
	assert.Equal(t, "pending", enqueued["status"])

	rec = s.do(t, http.MethodGet, "/api/jobs/"+jobID+"?householdId="+hh, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/jobs/"+jobID+"?householdId=other", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/jobs/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/jobs?householdId="+hh, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Count int `json:"count"`
	}
	decode(t, rec, &list)
	assert.Equal(t, 1, list.Count)

	rec = s.do(t, http.MethodGet, "/api/jobs?householdId=other", nil)
	decode(t, rec, &list)
	assert.Equal(t, 0, list.Count)

	rec = s.do(t, http.MethodPost, "/api/ingest/gcs", map[string]string{
		"householdId": hh, "accountId": "card", "gcsUri": "https://example.com/june.csv",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/ingest/gcs", map[string]string{"householdId": hh})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
