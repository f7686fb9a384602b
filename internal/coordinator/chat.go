package coordinator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/dvloznov/finance-advisor/internal/embeddings"
	"github.com/google/uuid"
)

// HistoryLimit is how many earlier turns are passed to HandleQuery.
const HistoryLimit = 20

// ChatStore persists conversation turns.
type ChatStore interface {
	InsertChatMessage(ctx context.Context, msg domain.ChatMessage) error
	ListChatMessages(ctx context.Context, householdID string, limit int) ([]domain.ChatMessage, error)
}

// Chat wraps a Coordinator with conversation persistence.
type Chat struct {
	coordinator *Coordinator
	store       ChatStore
	embedder    embeddings.Embedder
	now         func() time.Time
}

// NewChat creates a Chat. A nil embedder stores user turns without vectors.
func NewChat(coordinator *Coordinator, store ChatStore, embedder embeddings.Embedder) *Chat {
	if embedder == nil {
		embedder = embeddings.DisabledEmbedder{}
	}
	return &Chat{coordinator: coordinator, store: store, embedder: embedder, now: time.Now}
}

// Ask stores the user turn, answers it and stores the assistant turn.
func (c *Chat) Ask(ctx context.Context, householdID, text string) (Response, error) {
	if err := domain.RequireHousehold(householdID); err != nil {
		return Response{}, err
	}
	if strings.TrimSpace(text) == "" {
		return Response{}, &domain.ValidationError{Field: "message"}
	}

	history, err := c.store.ListChatMessages(ctx, householdID, HistoryLimit)
	if err != nil {
		return Response{}, fmt.Errorf("Ask: list history: %w", err)
	}

	userMsg := domain.ChatMessage{
		ID:          uuid.New().String(),
		HouseholdID: householdID,
		Role:        domain.RoleUser,
		Text:        text,
		CreatedAt:   c.now(),
	}
	embeddings.AnnotateChatMessage(ctx, c.embedder, &userMsg)
	if err := c.store.InsertChatMessage(ctx, userMsg); err != nil {
		return Response{}, fmt.Errorf("Ask: store user message: %w", err)
	}

	resp, err := c.coordinator.HandleQuery(ctx, householdID, text, history)
	if err != nil {
		return Response{}, err
	}

	assistantMsg := domain.ChatMessage{
		ID:          uuid.New().String(),
		HouseholdID: householdID,
		Role:        domain.RoleAssistant,
		Text:        resp.Message,
		Metadata: map[string]interface{}{
			"intent":     string(resp.Intent),
			"components": resp.Components,
		},
		CreatedAt: c.now(),
	}
	if err := c.store.InsertChatMessage(ctx, assistantMsg); err != nil {
		return Response{}, fmt.Errorf("Ask: store assistant message: %w", err)
	}
	return resp, nil
}
