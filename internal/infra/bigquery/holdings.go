package bigquery

import (
	"math/big"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/finance-advisor/internal/domain"
)

type LiabilityRow struct {
	LiabilityID   string `bigquery:"liability_id"`   // REQUIRED
	HouseholdID   string `bigquery:"household_id"`   // REQUIRED
	LiabilityType string `bigquery:"liability_type"` // REQUIRED
	Name          string `bigquery:"name"`           // REQUIRED

	APR        *big.Rat `bigquery:"apr"`         // REQUIRED NUMERIC, fraction
	Balance    *big.Rat `bigquery:"balance"`     // REQUIRED NUMERIC
	MinPayment *big.Rat `bigquery:"min_payment"` // REQUIRED NUMERIC

	PaymentFrequency    bigquery.NullString `bigquery:"payment_frequency"`     // NULLABLE
	RemainingTermMonths bigquery.NullInt64  `bigquery:"remaining_term_months"` // NULLABLE
}

var liabilityColumns = []string{
	"liability_id", "household_id", "liability_type", "name",
	"apr", "balance", "min_payment", "payment_frequency", "remaining_term_months",
}

func liabilityParams(l domain.Liability) []bigquery.QueryParameter {
	term := bigquery.NullInt64{Int64: int64(l.RemainingTermMonths), Valid: l.RemainingTermMonths > 0}
	return []bigquery.QueryParameter{
		{Name: "liability_id", Value: l.ID},
		{Name: "household_id", Value: l.HouseholdID},
		{Name: "liability_type", Value: string(l.Kind)},
		{Name: "name", Value: l.Name},
		{Name: "apr", Value: numeric(l.APR, rateScale)},
		{Name: "balance", Value: numeric(l.Balance, moneyScale)},
		{Name: "min_payment", Value: numeric(l.MinPayment, moneyScale)},
		{Name: "payment_frequency", Value: nullString(l.PaymentFrequency)},
		{Name: "remaining_term_months", Value: term},
	}
}

func (row *LiabilityRow) toDomain() domain.Liability {
	return domain.Liability{
		ID:                  row.LiabilityID,
		HouseholdID:         row.HouseholdID,
		Kind:                domain.LiabilityKind(row.LiabilityType),
		Name:                row.Name,
		APR:                 fromNumeric(row.APR),
		Balance:             fromNumeric(row.Balance),
		MinPayment:          fromNumeric(row.MinPayment),
		PaymentFrequency:    row.PaymentFrequency.StringVal,
		RemainingTermMonths: int(row.RemainingTermMonths.Int64),
	}
}

type PolicyRow struct {
	PolicyID    string `bigquery:"policy_id"`    // REQUIRED
	HouseholdID string `bigquery:"household_id"` // REQUIRED
	Kind        string `bigquery:"kind"`         // REQUIRED
	Provider    string `bigquery:"provider"`     // REQUIRED

	PremiumMonthly *big.Rat `bigquery:"premium_monthly"` // REQUIRED NUMERIC
	Deductible     *big.Rat `bigquery:"deductible"`      // REQUIRED NUMERIC

	RenewalDate bigquery.NullDate `bigquery:"renewal_date"` // NULLABLE
}

var policyColumns = []string{
	"policy_id", "household_id", "kind", "provider",
	"premium_monthly", "deductible", "renewal_date",
}

func policyParams(p domain.InsurancePolicy) []bigquery.QueryParameter {
	return []bigquery.QueryParameter{
		{Name: "policy_id", Value: p.ID},
		{Name: "household_id", Value: p.HouseholdID},
		{Name: "kind", Value: p.Kind},
		{Name: "provider", Value: p.Provider},
		{Name: "premium_monthly", Value: numeric(p.PremiumMonthly, moneyScale)},
		{Name: "deductible", Value: numeric(p.Deductible, moneyScale)},
		{Name: "renewal_date", Value: nullDate(p.RenewalDate)},
	}
}

func (row *PolicyRow) toDomain() domain.InsurancePolicy {
	return domain.InsurancePolicy{
		ID:             row.PolicyID,
		HouseholdID:    row.HouseholdID,
		Kind:           row.Kind,
		Provider:       row.Provider,
		PremiumMonthly: fromNumeric(row.PremiumMonthly),
		Deductible:     fromNumeric(row.Deductible),
		RenewalDate:    datePtr(row.RenewalDate),
	}
}

type AssetRow struct {
	AssetID     string `bigquery:"asset_id"`     // REQUIRED
	HouseholdID string `bigquery:"household_id"` // REQUIRED
	AssetType   string `bigquery:"asset_type"`   // REQUIRED
	Name        string `bigquery:"name"`         // REQUIRED

	Value    *big.Rat `bigquery:"value"`    // REQUIRED NUMERIC
	Currency string   `bigquery:"currency"` // REQUIRED

	ValuationDate bigquery.NullDate `bigquery:"valuation_date"` // NULLABLE
}

var assetColumns = []string{
	"asset_id", "household_id", "asset_type", "name", "value", "currency", "valuation_date",
}

func assetParams(a domain.Asset) []bigquery.QueryParameter {
	currency := a.Currency
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	return []bigquery.QueryParameter{
		{Name: "asset_id", Value: a.ID},
		{Name: "household_id", Value: a.HouseholdID},
		{Name: "asset_type", Value: a.Kind},
		{Name: "name", Value: a.Name},
		{Name: "value", Value: numeric(a.Value, moneyScale)},
		{Name: "currency", Value: currency},
		{Name: "valuation_date", Value: nullDate(a.ValuationDate)},
	}
}

func (row *AssetRow) toDomain() domain.Asset {
	return domain.Asset{
		ID:            row.AssetID,
		HouseholdID:   row.HouseholdID,
		Kind:          row.AssetType,
		Name:          row.Name,
		Value:         fromNumeric(row.Value),
		Currency:      row.Currency,
		ValuationDate: datePtr(row.ValuationDate),
	}
}
