package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/finance-advisor/internal/domain"
)

type ActionRow struct {
	ActionID    string `bigquery:"action_id"`    // REQUIRED
	HouseholdID string `bigquery:"household_id"` // REQUIRED
	ActionType  string `bigquery:"action_type"`  // REQUIRED, unique per household

	Title  string `bigquery:"title"`  // REQUIRED
	Detail string `bigquery:"detail"` // REQUIRED
	Status string `bigquery:"status"` // REQUIRED: pending | approved | completed

	CreatedTS   time.Time              `bigquery:"created_ts"`   // REQUIRED
	ApprovedTS  bigquery.NullTimestamp `bigquery:"approved_ts"`  // NULLABLE
	CompletedTS bigquery.NullTimestamp `bigquery:"completed_ts"` // NULLABLE
	Result      bigquery.NullString    `bigquery:"result"`       // NULLABLE
}

const actionColumns = `action_id, household_id, action_type, title, detail, status,
			created_ts, approved_ts, completed_ts, result`

func (row *ActionRow) toDomain() domain.RecommendationAction {
	return domain.RecommendationAction{
		ID:          row.ActionID,
		HouseholdID: row.HouseholdID,
		Type:        row.ActionType,
		Title:       row.Title,
		Detail:      row.Detail,
		Status:      domain.ActionStatus(row.Status),
		CreatedAt:   row.CreatedTS,
		ApprovedAt:  timestampPtr(row.ApprovedTS),
		CompletedAt: timestampPtr(row.CompletedTS),
		Result:      row.Result.StringVal,
	}
}
