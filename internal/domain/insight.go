package domain

import "time"

// InsightSavingsOpportunity marks insights produced from savings opportunities.
const InsightSavingsOpportunity = "savings_opportunity"

// Insight is a persisted finding shown back to the household.
type Insight struct {
	ID          string                 `json:"id"`
	HouseholdID string                 `json:"householdId"`
	Type        string                 `json:"type"`
	Title       string                 `json:"title"`
	Body        string                 `json:"body"`
	Severity    Severity               `json:"severity"`
	Actions     []SuggestedAction      `json:"actions,omitempty"`
	Data        map[string]interface{} `json:"data,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
	Embedding   []float32              `json:"-"`
}

// ChatRole identifies the author of a chat message.
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatMessage is one turn of a household conversation.
type ChatMessage struct {
	ID          string                 `json:"id"`
	HouseholdID string                 `json:"householdId"`
	Role        ChatRole               `json:"role"`
	Text        string                 `json:"text"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
	Embedding   []float32              `json:"-"`
}
