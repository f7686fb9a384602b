package bigquery

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/finance-advisor/internal/domain"
)

// mergeSQL builds a single-row MERGE keyed on keys. Every column is bound to
// a parameter of the same name. With update false, matched rows are left as they are.
func mergeSQL(table string, keys, columns []string, update bool) string {
	isKey := make(map[string]bool, len(keys))
	var using, on []string
	for _, k := range keys {
		isKey[k] = true
		using = append(using, fmt.Sprintf("@%s AS %s", k, k))
		on = append(on, fmt.Sprintf("T.%s = S.%s", k, k))
	}

	var set, values []string
	for _, c := range columns {
		values = append(values, "@"+c)
		if !isKey[c] {
			set = append(set, fmt.Sprintf("%s = @%s", c, c))
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "MERGE %s T\n", table)
	fmt.Fprintf(&b, "USING (SELECT %s) S\n", strings.Join(using, ", "))
	fmt.Fprintf(&b, "ON %s\n", strings.Join(on, " AND "))
	if update && len(set) > 0 {
		fmt.Fprintf(&b, "WHEN MATCHED THEN\n  UPDATE SET %s\n", strings.Join(set, ", "))
	}
	fmt.Fprintf(&b, "WHEN NOT MATCHED THEN\n  INSERT (%s)\n  VALUES (%s)",
		strings.Join(columns, ", "), strings.Join(values, ", "))
	return b.String()
}

// UpsertLiability inserts or replaces a liability.
func (r *Repository) UpsertLiability(ctx context.Context, l domain.Liability) error {
	sql := mergeSQL(r.table(liabilitiesTable), []string{"liability_id", "household_id"}, liabilityColumns, true)
	if _, err := r.exec(ctx, sql, liabilityParams(l)); err != nil {
		return fmt.Errorf("UpsertLiability: %w", err)
	}
	return nil
}

// UpsertPolicy inserts or replaces an insurance policy.
func (r *Repository) UpsertPolicy(ctx context.Context, p domain.InsurancePolicy) error {
	sql := mergeSQL(r.table(policiesTable), []string{"policy_id", "household_id"}, policyColumns, true)
	if _, err := r.exec(ctx, sql, policyParams(p)); err != nil {
		return fmt.Errorf("UpsertPolicy: %w", err)
	}
	return nil
}

// UpsertAsset inserts or replaces an asset.
func (r *Repository) UpsertAsset(ctx context.Context, a domain.Asset) error {
	sql := mergeSQL(r.table(assetsTable), []string{"asset_id", "household_id"}, assetColumns, true)
	if _, err := r.exec(ctx, sql, assetParams(a)); err != nil {
		return fmt.Errorf("UpsertAsset: %w", err)
	}
	return nil
}

func householdParam(householdID string) []bigquery.QueryParameter {
	return []bigquery.QueryParameter{{Name: "household_id", Value: householdID}}
}

// ListLiabilities returns all liabilities of the household.
func (r *Repository) ListLiabilities(ctx context.Context, householdID string) ([]domain.Liability, error) {
	sql := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE household_id = @household_id
		ORDER BY liability_id`, strings.Join(liabilityColumns, ", "), r.table(liabilitiesTable))

	it, err := r.read(ctx, sql, householdParam(householdID))
	if err != nil {
		return nil, fmt.Errorf("ListLiabilities: reading query: %w", err)
	}

	var out []domain.Liability
	for {
		var row LiabilityRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListLiabilities: iterating: %w", err)
		}
		out = append(out, row.toDomain())
	}
	return out, nil
}

// GetLiability returns one liability, or nil if it does not belong to the household.
func (r *Repository) GetLiability(ctx context.Context, householdID, liabilityID string) (*domain.Liability, error) {
	sql := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE household_id = @household_id
		  AND liability_id = @liability_id
		LIMIT 1`, strings.Join(liabilityColumns, ", "), r.table(liabilitiesTable))

	it, err := r.read(ctx, sql, []bigquery.QueryParameter{
		{Name: "household_id", Value: householdID},
		{Name: "liability_id", Value: liabilityID},
	})
	if err != nil {
		return nil, fmt.Errorf("GetLiability: reading query: %w", err)
	}

	var row LiabilityRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetLiability: iterating: %w", err)
	}
	l := row.toDomain()
	return &l, nil
}

// ListPolicies returns all insurance policies of the household.
func (r *Repository) ListPolicies(ctx context.Context, householdID string) ([]domain.InsurancePolicy, error) {
	sql := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE household_id = @household_id
		ORDER BY policy_id`, strings.Join(policyColumns, ", "), r.table(policiesTable))

	it, err := r.read(ctx, sql, householdParam(householdID))
	if err != nil {
		return nil, fmt.Errorf("ListPolicies: reading query: %w", err)
	}

	var out []domain.InsurancePolicy
	for {
		var row PolicyRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListPolicies: iterating: %w", err)
		}
		out = append(out, row.toDomain())
	}
	return out, nil
}

// ListAssets returns all assets of the household.
func (r *Repository) ListAssets(ctx context.Context, householdID string) ([]domain.Asset, error) {
	sql := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE household_id = @household_id
		ORDER BY asset_id`, strings.Join(assetColumns, ", "), r.table(assetsTable))

	it, err := r.read(ctx, sql, householdParam(householdID))
	if err != nil {
		return nil, fmt.Errorf("ListAssets: reading query: %w", err)
	}

	var out []domain.Asset
	for {
		var row AssetRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListAssets: iterating: %w", err)
		}
		out = append(out, row.toDomain())
	}
	return out, nil
}
