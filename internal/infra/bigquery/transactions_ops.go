package bigquery

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/finance-advisor/internal/domain"
)

// transactionsQuery builds the filtered transaction read. Every condition is a
// query parameter; only the table name is formatted in.
func transactionsQuery(table string, f domain.TransactionFilter) (string, []bigquery.QueryParameter) {
	conds := []string{"household_id = @household_id"}
	params := []bigquery.QueryParameter{{Name: "household_id", Value: f.HouseholdID}}

	if f.Start != nil {
		conds = append(conds, "posted_at >= @start_ts")
		params = append(params, bigquery.QueryParameter{Name: "start_ts", Value: f.Start.UTC()})
	}
	if f.End != nil {
		conds = append(conds, "posted_at <= @end_ts")
		params = append(params, bigquery.QueryParameter{Name: "end_ts", Value: f.End.UTC()})
	}
	if f.ExpensesOnly {
		conds = append(conds, "amount < 0")
	}
	if f.WithMerchant {
		conds = append(conds, "merchant IS NOT NULL AND merchant != ''")
	}

	order := "ASC"
	if f.NewestFirst {
		order = "DESC"
	}
	sql := fmt.Sprintf(`
		SELECT
			%s
		FROM %s
		WHERE %s
		ORDER BY posted_at %s, transaction_id`,
		transactionColumns, table, strings.Join(conds, "\n\t\t  AND "), order)

	if f.Limit > 0 {
		sql += "\n\t\tLIMIT @limit"
		params = append(params, bigquery.QueryParameter{Name: "limit", Value: f.Limit})
	}
	return sql, params
}

// vectorSearchQuery ranks the household's embedded rows of table by cosine
// distance to @query_vector.
func vectorSearchQuery(table string, topK int) string {
	return fmt.Sprintf(`
		SELECT base.*
		FROM VECTOR_SEARCH(
			(SELECT * FROM %s WHERE household_id = @household_id AND ARRAY_LENGTH(embedding) > 0),
			'embedding',
			(SELECT @query_vector AS embedding),
			top_k => %d,
			distance_type => 'COSINE'
		)
		ORDER BY distance ASC`, table, topK)
}

// ListTransactions returns the household's transactions matching filter.
func (r *Repository) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	if err := domain.RequireHousehold(filter.HouseholdID); err != nil {
		return nil, err
	}
	sql, params := transactionsQuery(r.table(transactionsTable), filter)

	it, err := r.read(ctx, sql, params)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: query read: %w", err)
	}
	txs, err := collectTransactions(it)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}
	return txs, nil
}

// LatestTransaction returns the most recently posted transaction, or nil when
// the household has none.
func (r *Repository) LatestTransaction(ctx context.Context, householdID string) (*domain.Transaction, error) {
	sql := fmt.Sprintf(`
		SELECT
			%s
		FROM %s
		WHERE household_id = @household_id
		ORDER BY posted_at DESC
		LIMIT 1`, transactionColumns, r.table(transactionsTable))

	it, err := r.read(ctx, sql, []bigquery.QueryParameter{{Name: "household_id", Value: householdID}})
	if err != nil {
		return nil, fmt.Errorf("LatestTransaction: query read: %w", err)
	}

	var row TransactionRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("LatestTransaction: iter next: %w", err)
	}
	tx := row.toDomain()
	return &tx, nil
}

// InsertTransactions streams a batch of transactions into the ledger.
func (r *Repository) InsertTransactions(ctx context.Context, txs []domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	now := r.now()
	rows := make([]*TransactionRow, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, transactionRowFrom(tx, now))
	}

	inserter := r.client.DatasetInProject(r.projectID, r.datasetID).Table(transactionsTable).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertTransactions: inserting rows: %w", err)
	}
	return nil
}

// SearchTransactions returns the household's transactions nearest to vector.
func (r *Repository) SearchTransactions(ctx context.Context, householdID string, vector []float32, limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = 10
	}
	params := []bigquery.QueryParameter{
		{Name: "household_id", Value: householdID},
		{Name: "query_vector", Value: vector64(vector)},
	}

	it, err := r.read(ctx, vectorSearchQuery(r.table(transactionsTable), limit), params)
	if err != nil {
		return nil, fmt.Errorf("SearchTransactions: query read: %w", err)
	}
	txs, err := collectTransactions(it)
	if err != nil {
		return nil, fmt.Errorf("SearchTransactions: %w", err)
	}
	return txs, nil
}

func collectTransactions(it *bigquery.RowIterator) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	for {
		var row TransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iter next: %w", err)
		}
		txs = append(txs, row.toDomain())
	}
	return txs, nil
}
