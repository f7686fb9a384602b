package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/finance-advisor/internal/domain"
)

// CreateHousehold inserts a new household row.
func (r *Repository) CreateHousehold(ctx context.Context, h domain.Household) error {
	if h.ID == "" {
		return fmt.Errorf("CreateHousehold: %w", &domain.ValidationError{Field: "id"})
	}
	createdAt := h.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.now()
	}

	sql := fmt.Sprintf(`
		INSERT INTO %s (household_id, name, created_ts)
		VALUES (@household_id, @name, @created_ts)`, r.table(householdsTable))

	params := []bigquery.QueryParameter{
		{Name: "household_id", Value: h.ID},
		{Name: "name", Value: h.Name},
		{Name: "created_ts", Value: createdAt},
	}
	if _, err := r.exec(ctx, sql, params); err != nil {
		return fmt.Errorf("CreateHousehold: %w", err)
	}
	return nil
}

// CreateAccount inserts a new account row.
func (r *Repository) CreateAccount(ctx context.Context, a domain.Account) error {
	if a.ID == "" {
		return fmt.Errorf("CreateAccount: %w", &domain.ValidationError{Field: "id"})
	}
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.now()
	}
	currency := a.Currency
	if currency == "" {
		currency = domain.DefaultCurrency
	}

	sql := fmt.Sprintf(`
		INSERT INTO %s (
			account_id, household_id, account_name, account_type,
			institution, currency, created_ts
		)
		VALUES (
			@account_id, @household_id, @account_name, @account_type,
			@institution, @currency, @created_ts
		)`, r.table(accountsTable))

	params := []bigquery.QueryParameter{
		{Name: "account_id", Value: a.ID},
		{Name: "household_id", Value: a.HouseholdID},
		{Name: "account_name", Value: a.Name},
		{Name: "account_type", Value: string(a.Kind)},
		{Name: "institution", Value: nullString(a.Institution)},
		{Name: "currency", Value: currency},
		{Name: "created_ts", Value: createdAt},
	}
	if _, err := r.exec(ctx, sql, params); err != nil {
		return fmt.Errorf("CreateAccount: %w", err)
	}
	return nil
}

// GetAccount returns the account, or nil if it does not belong to the household.
func (r *Repository) GetAccount(ctx context.Context, householdID, accountID string) (*domain.Account, error) {
	sql := fmt.Sprintf(`
		SELECT
			account_id,
			household_id,
			account_name,
			account_type,
			institution,
			currency,
			created_ts
		FROM %s
		WHERE household_id = @household_id
		  AND account_id = @account_id
		LIMIT 1`, r.table(accountsTable))

	it, err := r.read(ctx, sql, []bigquery.QueryParameter{
		{Name: "household_id", Value: householdID},
		{Name: "account_id", Value: accountID},
	})
	if err != nil {
		return nil, fmt.Errorf("GetAccount: reading query: %w", err)
	}

	var row AccountRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetAccount: iterating: %w", err)
	}
	a := row.toDomain()
	return &a, nil
}
