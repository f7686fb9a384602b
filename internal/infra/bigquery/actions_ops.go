package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/finance-advisor/internal/domain"
)

var actionInsertColumns = []string{
	"action_id", "household_id", "action_type", "title", "detail", "status", "created_ts",
}

// UpsertPendingAction inserts the action unless the household already has one
// of the same type. An insert-only MERGE does not serialize against another
// concurrent MERGE, so two seeders racing on the same (household, type) may
// both insert. Callers derive the action ID from (household, type) and reads
// collapse rows sharing an ID, so the race leaves one logical action.
func (r *Repository) UpsertPendingAction(ctx context.Context, action domain.RecommendationAction) (bool, error) {
	if action.ID == "" {
		return false, fmt.Errorf("UpsertPendingAction: action ID is required")
	}
	status := action.Status
	if status == "" {
		status = domain.ActionPending
	}
	createdAt := action.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.now()
	}

	sql := mergeSQL(r.table(actionsTable), []string{"household_id", "action_type"}, actionInsertColumns, false)
	params := []bigquery.QueryParameter{
		{Name: "action_id", Value: action.ID},
		{Name: "household_id", Value: action.HouseholdID},
		{Name: "action_type", Value: action.Type},
		{Name: "title", Value: action.Title},
		{Name: "detail", Value: action.Detail},
		{Name: "status", Value: string(status)},
		{Name: "created_ts", Value: createdAt},
	}

	n, err := r.exec(ctx, sql, params)
	if err != nil {
		return false, fmt.Errorf("UpsertPendingAction: %w", err)
	}
	return n > 0, nil
}

// dedupeActions keeps one row per action_id when a seeding race stored the
// same action twice.
const dedupeActions = `QUALIFY ROW_NUMBER() OVER (PARTITION BY action_id ORDER BY created_ts ASC) = 1`

func getActionQuery(table string) string {
	return fmt.Sprintf(`
		SELECT
			%s
		FROM %s
		WHERE household_id = @household_id
		  AND action_id = @action_id
		%s
		LIMIT 1`, actionColumns, table, dedupeActions)
}

func listActionsQuery(table, householdID string, limit int) (string, []bigquery.QueryParameter) {
	sql := fmt.Sprintf(`
		SELECT
			%s
		FROM %s
		WHERE household_id = @household_id
		%s
		ORDER BY created_ts DESC, action_type ASC`, actionColumns, table, dedupeActions)

	params := householdParam(householdID)
	if limit > 0 {
		sql += "\n\t\tLIMIT @limit"
		params = append(params, bigquery.QueryParameter{Name: "limit", Value: limit})
	}
	return sql, params
}

// GetAction returns the action, or nil if it does not belong to the household.
func (r *Repository) GetAction(ctx context.Context, householdID, actionID string) (*domain.RecommendationAction, error) {
	sql := getActionQuery(r.table(actionsTable))
	it, err := r.read(ctx, sql, []bigquery.QueryParameter{
		{Name: "household_id", Value: householdID},
		{Name: "action_id", Value: actionID},
	})
	if err != nil {
		return nil, fmt.Errorf("GetAction: reading query: %w", err)
	}

	var row ActionRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetAction: iterating: %w", err)
	}
	a := row.toDomain()
	return &a, nil
}

// ListActions returns the newest actions first.
func (r *Repository) ListActions(ctx context.Context, householdID string, limit int) ([]domain.RecommendationAction, error) {
	sql, params := listActionsQuery(r.table(actionsTable), householdID, limit)

	it, err := r.read(ctx, sql, params)
	if err != nil {
		return nil, fmt.Errorf("ListActions: reading query: %w", err)
	}

	var out []domain.RecommendationAction
	for {
		var row ActionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListActions: iterating: %w", err)
		}
		out = append(out, row.toDomain())
	}
	return out, nil
}

// ApproveIfPending approves a pending action with one conditional UPDATE and
// reports whether a row changed.
func (r *Repository) ApproveIfPending(ctx context.Context, householdID, actionID string, at time.Time, result string) (bool, error) {
	sql := fmt.Sprintf(`
		UPDATE %s
		SET status = @approved,
		    approved_ts = @at,
		    completed_ts = @at,
		    result = @result
		WHERE household_id = @household_id
		  AND action_id = @action_id
		  AND status = @pending`, r.table(actionsTable))

	params := []bigquery.QueryParameter{
		{Name: "approved", Value: string(domain.ActionApproved)},
		{Name: "pending", Value: string(domain.ActionPending)},
		{Name: "at", Value: at.UTC()},
		{Name: "result", Value: result},
		{Name: "household_id", Value: householdID},
		{Name: "action_id", Value: actionID},
	}

	n, err := r.exec(ctx, sql, params)
	if err != nil {
		return false, fmt.Errorf("ApproveIfPending: %w", err)
	}
	return n > 0, nil
}
