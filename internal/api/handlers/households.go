package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-advisor/internal/api/middleware"
	"github.com/dvloznov/finance-advisor/internal/domain"
)

// HouseholdWriter creates households and accounts.
type HouseholdWriter interface {
	CreateHousehold(ctx context.Context, h domain.Household) error
	CreateAccount(ctx context.Context, a domain.Account) error
}

// HouseholdsHandler handles household and account creation.
type HouseholdsHandler struct {
	store HouseholdWriter
	log   zerolog.Logger
}

// NewHouseholdsHandler creates a new households handler.
func NewHouseholdsHandler(store HouseholdWriter, log zerolog.Logger) *HouseholdsHandler {
	return &HouseholdsHandler{store: store, log: log}
}

// CreateHousehold handles POST /api/households
func (h *HouseholdsHandler) CreateHousehold(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		middleware.WriteError(w, http.StatusBadRequest, "name is required")
		return
	}

	household := domain.Household{
		ID:        uuid.New().String(),
		Name:      req.Name,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.store.CreateHousehold(r.Context(), household); err != nil {
		writeServiceError(w, h.log, err, "Failed to create household")
		return
	}

	h.log.Info().Str("household_id", household.ID).Msg("Household created")
	middleware.WriteJSON(w, http.StatusCreated, household)
}

var accountKinds = map[domain.AccountKind]bool{
	domain.AccountChecking:   true,
	domain.AccountSavings:    true,
	domain.AccountCreditCard: true,
	domain.AccountBrokerage:  true,
	domain.AccountLoan:       true,
}

// CreateAccount handles POST /api/accounts
func (h *HouseholdsHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HouseholdID string `json:"householdId"`
		Name        string `json:"name"`
		Type        string `json:"type"`
		Institution string `json:"institution"`
		Currency    string `json:"currency"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	householdID := householdFrom(r, req.HouseholdID)
	if householdID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "householdId is required")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "name is required")
		return
	}
	kind := domain.AccountKind(req.Type)
	if !accountKinds[kind] {
		middleware.WriteError(w, http.StatusBadRequest, "type must be one of checking, savings, credit_card, brokerage, loan")
		return
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = domain.DefaultCurrency
	}

	account := domain.Account{
		ID:          uuid.New().String(),
		HouseholdID: householdID,
		Name:        strings.TrimSpace(req.Name),
		Kind:        kind,
		Institution: req.Institution,
		Currency:    currency,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.store.CreateAccount(r.Context(), account); err != nil {
		writeServiceError(w, h.log, err, "Failed to create account")
		return
	}

	h.log.Info().Str("household_id", householdID).Str("account_id", account.ID).Msg("Account created")
	middleware.WriteJSON(w, http.StatusCreated, account)
}
