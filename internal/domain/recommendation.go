package domain

import "time"

// ActionStatus is the lifecycle state of a recommendation action.
type ActionStatus string

const (
	ActionPending   ActionStatus = "pending"
	ActionApproved  ActionStatus = "approved"
	ActionCompleted ActionStatus = "completed"
)

// RecommendationAction tracks user approval of a suggestion.
// (HouseholdID, Type) is unique.
type RecommendationAction struct {
	ID          string       `json:"id"`
	HouseholdID string       `json:"householdId"`
	Type        string       `json:"type"`
	Title       string       `json:"title"`
	Detail      string       `json:"detail"`
	Status      ActionStatus `json:"status"`
	CreatedAt   time.Time    `json:"createdAt"`
	ApprovedAt  *time.Time   `json:"approvedAt,omitempty"`
	CompletedAt *time.Time   `json:"completedAt,omitempty"`
	Result      string       `json:"result,omitempty"`
}

// IsPending reports whether the action can still be approved.
func (a RecommendationAction) IsPending() bool {
	return a.Status == ActionPending
}
