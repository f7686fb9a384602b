package coordinator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/finance-advisor/internal/analytics"
	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/dvloznov/finance-advisor/internal/embeddings"
	"github.com/dvloznov/finance-advisor/internal/ledger/inmemory"
	"github.com/dvloznov/finance-advisor/internal/savings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hh = "hh-1"

var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func TestClassify(t *testing.T) {
	tests := []struct {
		query string
		want  Intent
	}{
		{"How can I save money and get a better interest rate?", IntentSavings},
		{"Please import my statements", IntentIngestion},
		{"Sync my bank", IntentIngestion},
		{"What APR am I paying?", IntentInterest},
		{"Give me an overview", IntentOverview},
		{"How much do I earn?", IntentOverview},
		{"Where do I spend the most?", IntentSpending},
		{"Where does my spending go?", IntentSavings},
		{"Tell me about my mortgage", IntentInsurance},
		{"INSURANCE please", IntentInsurance},
		{"hello", IntentGeneral},
		{"", IntentGeneral},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.query))
		})
	}
}

type fixture struct {
	store *inmemory.Store
	coord *Coordinator
}

func newFixture(t *testing.T, retriever Retriever) fixture {
	t.Helper()
	store := inmemory.NewStore()
	a := analytics.New(store, analytics.WithClock(func() time.Time { return fixedNow }))
	return fixture{store: store, coord: New(a, savings.New(a, store), store, retriever)}
}

func (f fixture) addNetflix(t *testing.T) {
	t.Helper()
	var txs []domain.Transaction
	for i := 0; i < 6; i++ {
		txs = append(txs, domain.Transaction{
			ID:          fmt.Sprintf("nf-%d", i),
			HouseholdID: hh,
			PostedAt:    fixedNow.AddDate(0, -i, -1),
			Amount:      -15.99,
			Merchant:    "Netflix",
			Category:    "Entertainment",
		})
	}
	txs = append(txs, domain.Transaction{ID: "pay", HouseholdID: hh, PostedAt: fixedNow.AddDate(0, 0, -2), Amount: 5000, Merchant: "Payroll", Category: "Income"})
	require.NoError(t, f.store.InsertTransactions(context.Background(), txs))
}

func TestHandleQuerySavings(t *testing.T) {
	f := newFixture(t, nil)
	f.addNetflix(t)

	resp, err := f.coord.HandleQuery(context.Background(), hh, "save money on my interest rate", nil)
	require.NoError(t, err)

	assert.Equal(t, IntentSavings, resp.Intent)
	assert.Contains(t, resp.Message, "I found 1 opportunities to reduce your expenses:")
	assert.Contains(t, resp.Message, "• Review subscription: Netflix: Save ~$")
	assert.Contains(t, resp.Message, "**Total potential monthly savings: $")
	require.Len(t, resp.Components, 1)
	assert.Equal(t, ComponentActionCards, resp.Components[0].Type)
	assert.Len(t, resp.SuggestedActions, 2)
	assert.InDelta(t, 7.995, resp.Data["totalSavings"].(float64), 1e-9)
	assert.NotEmpty(t, resp.AgentTrace)
}

func TestHandleQueryInterest(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	resp, err := f.coord.HandleQuery(ctx, hh, "what is my APR", nil)
	require.NoError(t, err)
	assert.Equal(t, "I don't see any liabilities in your account. If you have debts or loans, please add them to get interest rate recommendations.", resp.Message)
	assert.Empty(t, resp.Components)

	require.NoError(t, f.store.UpsertLiability(ctx, domain.Liability{ID: "a", HouseholdID: hh, Kind: domain.LiabilityLoan, Name: "Car", APR: 0.07, Balance: 8000}))
	require.NoError(t, f.store.UpsertLiability(ctx, domain.Liability{ID: "b", HouseholdID: hh, Kind: domain.LiabilityCreditCard, Name: "Visa", APR: 0.24, Balance: 3000}))

	resp, err = f.coord.HandleQuery(ctx, hh, "what is my APR", nil)
	require.NoError(t, err)
	assert.Contains(t, resp.Message, "Here's your interest rate analysis:")
	assert.Contains(t, resp.Message, "**You're paying $60.00/month in high-interest debt.**")
	assert.Less(t, strings.Index(resp.Message, "Visa"), strings.Index(resp.Message, "Car"), "highest APR first")

	require.Len(t, resp.Components, 1)
	slider, ok := resp.Components[0].Data.(WhatIfSlider)
	require.True(t, ok)
	assert.Equal(t, "Refinance Calculator", slider.Title)
	assert.Equal(t, []float64{0.05, 0.15}, slider.NewAPRRange)
	assert.Equal(t, "b", slider.LiabilityID)
}

func TestHandleQueryOverview(t *testing.T) {
	f := newFixture(t, nil)
	f.addNetflix(t)

	resp, err := f.coord.HandleQuery(context.Background(), hh, "show me the big picture", nil)
	require.NoError(t, err)
	assert.Equal(t, IntentOverview, resp.Intent)
	assert.Contains(t, resp.Message, "• Income: $5000.00/month")
	require.Len(t, resp.Components, 1)
	assert.Equal(t, ComponentDashboard, resp.Components[0].Type)
}

func TestHandleQuerySpending(t *testing.T) {
	f := newFixture(t, nil)
	f.addNetflix(t)

	resp, err := f.coord.HandleQuery(context.Background(), hh, "where do I spend", nil)
	require.NoError(t, err)
	assert.Equal(t, IntentSpending, resp.Intent)
	assert.Contains(t, resp.Message, "• Entertainment: $95.94 (100.0%)")
	require.Len(t, resp.Components, 1)
	chart := resp.Components[0].Data.(Chart)
	assert.Equal(t, "pie", chart.Type)
}

func TestHandleQueryInsurance(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	resp, err := f.coord.HandleQuery(ctx, hh, "insurance", nil)
	require.NoError(t, err)
	assert.Equal(t, "I don't see any insurance policies or mortgages in your account. Please add them to get recommendations.", resp.Message)
	assert.Empty(t, resp.Components)

	require.NoError(t, f.store.UpsertPolicy(ctx, domain.InsurancePolicy{ID: "p", HouseholdID: hh, Kind: "auto", Provider: "Acme", PremiumMonthly: 110}))
	resp, err = f.coord.HandleQuery(ctx, hh, "insurance", nil)
	require.NoError(t, err)
	assert.Contains(t, resp.Message, "• auto (Acme): $110.00/month")
	require.Len(t, resp.Components, 1)
	assert.Equal(t, ComponentWhatIfSlider, resp.Components[0].Type)
}

func TestHandleQueryIngestion(t *testing.T) {
	f := newFixture(t, nil)
	resp, err := f.coord.HandleQuery(context.Background(), hh, "upload a file", nil)
	require.NoError(t, err)
	assert.Equal(t, "Please use the upload interface to import your financial data.", resp.Message)
}

func TestHandleQueryGeneral(t *testing.T) {
	store := inmemory.NewStore()
	f := newFixture(t, embeddings.NewRetriever(nil, store, store))
	ctx := context.Background()

	resp, err := f.coord.HandleQuery(ctx, hh, "hello there", nil)
	require.NoError(t, err)
	assert.Equal(t, helpText, resp.Message)

	require.NoError(t, store.InsertInsights(ctx, []domain.Insight{{ID: "i1", HouseholdID: hh, Title: "Bundle policies", Body: "Save $30/month", CreatedAt: fixedNow}}))
	resp, err = f.coord.HandleQuery(ctx, hh, "hello there", nil)
	require.NoError(t, err)
	assert.Contains(t, resp.Message, "• Bundle policies: Save $30/month")
	assert.Contains(t, resp.AgentTrace, "Retriever: vector search unavailable, using recent records")
}

func TestHandleQueryRequiresHousehold(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.coord.HandleQuery(context.Background(), "", "hello", nil)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestChatAskPersistsBothTurns(t *testing.T) {
	f := newFixture(t, nil)
	chat := NewChat(f.coord, f.store, nil)
	ctx := context.Background()

	resp, err := chat.Ask(ctx, hh, "upload")
	require.NoError(t, err)
	assert.Equal(t, IntentIngestion, resp.Intent)

	msgs, err := f.store.ListChatMessages(ctx, hh, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.RoleUser, msgs[0].Role)
	assert.Equal(t, "upload", msgs[0].Text)
	assert.Equal(t, domain.RoleAssistant, msgs[1].Role)
	assert.Equal(t, resp.Message, msgs[1].Text)

	_, err = chat.Ask(ctx, hh, "   ")
	assert.True(t, errors.Is(err, domain.ErrValidation))
}
