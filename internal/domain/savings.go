package domain

// Severity ranks how urgent a finding is.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// SuggestedAction is a follow-up the user can trigger; Query is fed back into the router.
type SuggestedAction struct {
	Label string `json:"label"`
	Query string `json:"query"`
}

// Opportunity is an estimated monthly saving. It is recomputed per request.
type Opportunity struct {
	Title                   string            `json:"title"`
	Description             string            `json:"description"`
	PotentialMonthlySavings float64           `json:"potentialMonthlySavings"`
	Category                string            `json:"category"`
	Actions                 []SuggestedAction `json:"actions"`
	Severity                Severity          `json:"severity"`
}
