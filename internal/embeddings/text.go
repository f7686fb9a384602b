package embeddings

import (
	"fmt"
	"strings"

	"github.com/dvloznov/finance-advisor/internal/domain"
)

// TransactionText renders a transaction as a single line for embedding, e.g.
// "2024-03-05 Netflix $15.99 category=Entertainment account=acc-1 expense recurring".
func TransactionText(tx domain.Transaction) string {
	merchant := tx.Merchant
	if merchant == "" {
		merchant = "Unknown"
	}
	kind := "income"
	if tx.IsExpense() {
		kind = "expense"
	}
	recurrence := "one-time"
	if tx.Recurring != nil && *tx.Recurring {
		recurrence = "recurring"
	}
	line := fmt.Sprintf("%s %s $%.2f category=%s account=%s %s %s %s",
		tx.PostedAt.UTC().Format("2006-01-02"), merchant, tx.AbsAmount(),
		tx.CategoryOrDefault(), tx.AccountID, kind, recurrence, tx.Notes)
	return strings.TrimSpace(line)
}

// InsightText renders an insight for embedding.
func InsightText(in domain.Insight) string {
	return strings.TrimSpace(in.Type + " " + in.Title + " " + in.Body)
}
