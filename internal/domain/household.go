package domain

import "time"

// Household is the tenant unit that every financial record is scoped to.
type Household struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// AccountKind enumerates account types known to ingestion.
type AccountKind string

const (
	AccountChecking   AccountKind = "checking"
	AccountSavings    AccountKind = "savings"
	AccountCreditCard AccountKind = "credit_card"
	AccountBrokerage  AccountKind = "brokerage"
	AccountLoan       AccountKind = "loan"
)

// Account is a bank, card or loan account owned by a household.
type Account struct {
	ID          string      `json:"id"`
	HouseholdID string      `json:"householdId"`
	Name        string      `json:"name"`
	Kind        AccountKind `json:"type"`
	Institution string      `json:"institution,omitempty"`
	Currency    string      `json:"currency"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// LiabilityKind enumerates debt types.
type LiabilityKind string

const (
	LiabilityMortgage   LiabilityKind = "mortgage"
	LiabilityLoan       LiabilityKind = "loan"
	LiabilityCreditCard LiabilityKind = "credit_card"
	LiabilityOther      LiabilityKind = "other"
)

// Liability is a debt owed by the household. APR is a fraction (0.18 = 18%).
type Liability struct {
	ID                  string        `json:"id"`
	HouseholdID         string        `json:"householdId"`
	Kind                LiabilityKind `json:"type"`
	Name                string        `json:"name"`
	APR                 float64       `json:"apr"`
	Balance             float64       `json:"balance"`
	MinPayment          float64       `json:"minPayment"`
	PaymentFrequency    string        `json:"paymentFrequency,omitempty"`
	RemainingTermMonths int           `json:"remainingTerm,omitempty"`
}

// MonthlyInterest is the interest accrued on the current balance in one month.
func (l Liability) MonthlyInterest() float64 {
	return l.Balance * l.APR / 12
}

// InsurancePolicy is an active insurance contract.
type InsurancePolicy struct {
	ID             string     `json:"id"`
	HouseholdID    string     `json:"householdId"`
	Kind           string     `json:"kind"`
	Provider       string     `json:"provider"`
	PremiumMonthly float64    `json:"premiumMonthly"`
	Deductible     float64    `json:"deductible"`
	RenewalDate    *time.Time `json:"renewalDate,omitempty"`
}

// Asset is something of value held by the household.
type Asset struct {
	ID            string     `json:"id"`
	HouseholdID   string     `json:"householdId"`
	Kind          string     `json:"type"`
	Name          string     `json:"name"`
	Value         float64    `json:"value"`
	Currency      string     `json:"currency"`
	ValuationDate *time.Time `json:"valuationDate,omitempty"`
}
