package savings

import (
	"context"
	"fmt"
	"math"

	"github.com/dvloznov/finance-advisor/internal/domain"
)

// RefinanceScenario describes a hypothetical change to a liability.
// A nil NewAPR keeps the current rate.
type RefinanceScenario struct {
	NewAPR       *float64 `json:"newAPR,omitempty"`
	ExtraPayment float64  `json:"extraPayment,omitempty"`
}

// PaymentPlan is the monthly picture of a liability under one rate.
type PaymentPlan struct {
	APR             float64 `json:"apr"`
	MonthlyInterest float64 `json:"monthlyInterest"`
	MinPayment      float64 `json:"minPayment"`
	PayoffMonths    float64 `json:"payoffMonths"`
}

// RefinanceSavings compares a projection with the current plan.
type RefinanceSavings struct {
	Monthly     float64 `json:"monthly"`
	Total       float64 `json:"total"`
	MonthsSaved float64 `json:"monthsSaved"`
}

// RefinanceProjection is the result of a what-if run.
type RefinanceProjection struct {
	Current   PaymentPlan      `json:"current"`
	Projected PaymentPlan      `json:"projected"`
	Savings   RefinanceSavings `json:"savings"`
}

// Refinance projects interest and payoff time for l under scenario.
// Payoff months are a simple balance / payment estimate.
func Refinance(l domain.Liability, scenario RefinanceScenario) (RefinanceProjection, error) {
	if l.MinPayment <= 0 {
		return RefinanceProjection{}, &domain.ValidationError{Field: "minPayment", Reason: "must be positive"}
	}
	if scenario.ExtraPayment < 0 {
		return RefinanceProjection{}, &domain.ValidationError{Field: "extraPayment", Reason: "must not be negative"}
	}

	newAPR := l.APR
	if scenario.NewAPR != nil {
		if *scenario.NewAPR < 0 || *scenario.NewAPR > 1 {
			return RefinanceProjection{}, &domain.ValidationError{Field: "newAPR", Reason: "must be a fraction between 0 and 1"}
		}
		newAPR = *scenario.NewAPR
	}

	current := PaymentPlan{
		APR:             l.APR,
		MonthlyInterest: l.Balance * l.APR / 12,
		MinPayment:      l.MinPayment,
		PayoffMonths:    l.Balance / l.MinPayment,
	}
	payment := l.MinPayment + scenario.ExtraPayment
	projected := PaymentPlan{
		APR:             newAPR,
		MonthlyInterest: l.Balance * newAPR / 12,
		MinPayment:      payment,
		PayoffMonths:    l.Balance / payment,
	}
	monthly := current.MonthlyInterest - projected.MonthlyInterest

	return RefinanceProjection{
		Current:   current,
		Projected: projected,
		Savings: RefinanceSavings{
			Monthly:     monthly,
			Total:       monthly * projected.PayoffMonths,
			MonthsSaved: math.Max(0, current.PayoffMonths-projected.PayoffMonths),
		},
	}, nil
}

// WhatIfRefinance loads a liability and runs Refinance on it.
func (e *Engine) WhatIfRefinance(ctx context.Context, householdID, liabilityID string, scenario RefinanceScenario) (RefinanceProjection, error) {
	if err := domain.RequireHousehold(householdID); err != nil {
		return RefinanceProjection{}, err
	}
	if liabilityID == "" {
		return RefinanceProjection{}, &domain.ValidationError{Field: "liabilityId"}
	}

	l, err := e.holdings.GetLiability(ctx, householdID, liabilityID)
	if err != nil {
		return RefinanceProjection{}, fmt.Errorf("WhatIfRefinance: get liability: %w", err)
	}
	if l == nil {
		return RefinanceProjection{}, fmt.Errorf("WhatIfRefinance: liability %s: %w", liabilityID, domain.ErrNotFound)
	}
	return Refinance(*l, scenario)
}
