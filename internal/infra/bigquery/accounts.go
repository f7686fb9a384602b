package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/finance-advisor/internal/domain"
)

type AccountRow struct {
	AccountID   string `bigquery:"account_id"`   // REQUIRED
	HouseholdID string `bigquery:"household_id"` // REQUIRED

	AccountName string              `bigquery:"account_name"` // REQUIRED
	AccountType string              `bigquery:"account_type"` // REQUIRED
	Institution bigquery.NullString `bigquery:"institution"`  // NULLABLE
	Currency    string              `bigquery:"currency"`     // REQUIRED

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

func (row *AccountRow) toDomain() domain.Account {
	return domain.Account{
		ID:          row.AccountID,
		HouseholdID: row.HouseholdID,
		Name:        row.AccountName,
		Kind:        domain.AccountKind(row.AccountType),
		Institution: row.Institution.StringVal,
		Currency:    row.Currency,
		CreatedAt:   row.CreatedTS,
	}
}
