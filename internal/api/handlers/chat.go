package handlers

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-advisor/internal/api/middleware"
	"github.com/dvloznov/finance-advisor/internal/coordinator"
)

// ChatService answers a household question and records the exchange.
type ChatService interface {
	Ask(ctx context.Context, householdID, text string) (coordinator.Response, error)
}

var _ ChatService = (*coordinator.Chat)(nil)

// ChatHandler handles POST /api/chat.
type ChatHandler struct {
	svc ChatService
	log zerolog.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(svc ChatService, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{svc: svc, log: log}
}

// Ask handles POST /api/chat
func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HouseholdID string `json:"householdId"`
		Message     string `json:"message"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.svc.Ask(r.Context(), householdFrom(r, req.HouseholdID), req.Message)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to answer question")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}
