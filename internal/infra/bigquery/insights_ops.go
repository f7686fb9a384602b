package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/finance-advisor/internal/domain"
)

// InsertInsights streams insights into the insights table.
func (r *Repository) InsertInsights(ctx context.Context, insights []domain.Insight) error {
	if len(insights) == 0 {
		return nil
	}

	now := r.now()
	rows := make([]*InsightRow, 0, len(insights))
	for _, in := range insights {
		row, err := insightRowFrom(in, now)
		if err != nil {
			return fmt.Errorf("InsertInsights: %w", err)
		}
		rows = append(rows, row)
	}

	inserter := r.client.DatasetInProject(r.projectID, r.datasetID).Table(insightsTable).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertInsights: inserting rows: %w", err)
	}
	return nil
}

// ListInsights returns the newest insights first.
func (r *Repository) ListInsights(ctx context.Context, householdID string, limit int) ([]domain.Insight, error) {
	sql := fmt.Sprintf(`
		SELECT
			%s
		FROM %s
		WHERE household_id = @household_id
		ORDER BY created_ts DESC`, insightColumns, r.table(insightsTable))

	params := householdParam(householdID)
	if limit > 0 {
		sql += "\n\t\tLIMIT @limit"
		params = append(params, bigquery.QueryParameter{Name: "limit", Value: limit})
	}

	it, err := r.read(ctx, sql, params)
	if err != nil {
		return nil, fmt.Errorf("ListInsights: reading query: %w", err)
	}
	out, err := collectInsights(it)
	if err != nil {
		return nil, fmt.Errorf("ListInsights: %w", err)
	}
	return out, nil
}

// SearchInsights returns the household's insights nearest to vector.
func (r *Repository) SearchInsights(ctx context.Context, householdID string, vector []float32, limit int) ([]domain.Insight, error) {
	if limit <= 0 {
		limit = 10
	}
	params := []bigquery.QueryParameter{
		{Name: "household_id", Value: householdID},
		{Name: "query_vector", Value: vector64(vector)},
	}

	it, err := r.read(ctx, vectorSearchQuery(r.table(insightsTable), limit), params)
	if err != nil {
		return nil, fmt.Errorf("SearchInsights: reading query: %w", err)
	}
	out, err := collectInsights(it)
	if err != nil {
		return nil, fmt.Errorf("SearchInsights: %w", err)
	}
	return out, nil
}

func collectInsights(it *bigquery.RowIterator) ([]domain.Insight, error) {
	var out []domain.Insight
	for {
		var row InsightRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating: %w", err)
		}
		in, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, nil
}

// InsertChatMessage streams one chat message.
func (r *Repository) InsertChatMessage(ctx context.Context, msg domain.ChatMessage) error {
	row, err := chatRowFrom(msg, r.now())
	if err != nil {
		return fmt.Errorf("InsertChatMessage: %w", err)
	}

	inserter := r.client.DatasetInProject(r.projectID, r.datasetID).Table(chatTable).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return fmt.Errorf("InsertChatMessage: inserting row: %w", err)
	}
	return nil
}

// ListChatMessages returns the latest messages in chronological order.
func (r *Repository) ListChatMessages(ctx context.Context, householdID string, limit int) ([]domain.ChatMessage, error) {
	sql := fmt.Sprintf(`
		SELECT message_id, household_id, role, content, metadata, created_ts, embedding
		FROM %s
		WHERE household_id = @household_id
		ORDER BY created_ts DESC, message_id DESC`, r.table(chatTable))

	params := householdParam(householdID)
	if limit > 0 {
		sql += "\n\t\tLIMIT @limit"
		params = append(params, bigquery.QueryParameter{Name: "limit", Value: limit})
	}

	it, err := r.read(ctx, sql, params)
	if err != nil {
		return nil, fmt.Errorf("ListChatMessages: reading query: %w", err)
	}

	var out []domain.ChatMessage
	for {
		var row ChatMessageRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListChatMessages: iterating: %w", err)
		}
		msg, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("ListChatMessages: %w", err)
		}
		out = append(out, msg)
	}

	// Newest first from the query; callers want oldest first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
