package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/finance-advisor/internal/domain"
)

type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED
	HouseholdID   string `bigquery:"household_id"`   // REQUIRED
	AccountID     string `bigquery:"account_id"`     // REQUIRED

	PostedAt time.Time `bigquery:"posted_at"` // REQUIRED TIMESTAMP
	Amount   *big.Rat  `bigquery:"amount"`    // REQUIRED NUMERIC, negative for expenses
	Currency string    `bigquery:"currency"`  // REQUIRED

	Merchant    bigquery.NullString `bigquery:"merchant"`     // NULLABLE
	Category    bigquery.NullString `bigquery:"category"`     // NULLABLE
	IsRecurring bigquery.NullBool   `bigquery:"is_recurring"` // NULLABLE
	Notes       bigquery.NullString `bigquery:"notes"`        // NULLABLE

	Embedding []float64 `bigquery:"embedding"` // REPEATED FLOAT64

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

const transactionColumns = `transaction_id, household_id, account_id, posted_at, amount, currency,
			merchant, category, is_recurring, notes, embedding, created_ts`

func transactionRowFrom(tx domain.Transaction, createdAt time.Time) *TransactionRow {
	currency := tx.Currency
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	return &TransactionRow{
		TransactionID: tx.ID,
		HouseholdID:   tx.HouseholdID,
		AccountID:     tx.AccountID,
		PostedAt:      tx.PostedAt.UTC(),
		Amount:        numeric(tx.Amount, moneyScale),
		Currency:      currency,
		Merchant:      nullString(tx.Merchant),
		Category:      nullString(tx.Category),
		IsRecurring:   nullBool(tx.Recurring),
		Notes:         nullString(tx.Notes),
		Embedding:     vector64(tx.Embedding),
		CreatedTS:     createdAt,
	}
}

func (row *TransactionRow) toDomain() domain.Transaction {
	return domain.Transaction{
		ID:          row.TransactionID,
		HouseholdID: row.HouseholdID,
		AccountID:   row.AccountID,
		PostedAt:    row.PostedAt,
		Amount:      fromNumeric(row.Amount),
		Currency:    row.Currency,
		Merchant:    row.Merchant.StringVal,
		Category:    row.Category.StringVal,
		Recurring:   boolPtr(row.IsRecurring),
		Notes:       row.Notes.StringVal,
		Embedding:   vector32(row.Embedding),
	}
}
