// Package recommend turns spending patterns into recommendation actions and
// drives their pending to approved lifecycle.
package recommend

import (
	"strings"

	"github.com/dvloznov/finance-advisor/internal/domain"
)

// SeedLimit caps how many seeds one breakdown produces.
const SeedLimit = 3

// Seed is a recommendation before it is stored as an action.
type Seed struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// Action types.
const (
	TypeInsuranceReview      = "insurance_review"
	TypeInsuranceQuote       = "insurance_quote"
	TypeUtilitiesNegotiation = "utilities_negotiation"
	TypeDiningPlan           = "dining_plan"
	TypeSubscriptionAudit    = "subscription_audit"
	TypeCommuteOptimize      = "commute_optimize"
	TypeRecurringReview      = "recurring_review"
	TypeFixedCosts           = "fixed_costs"
)

type seedRule struct {
	keywords []string
	seed     Seed
}

var seedRules = []seedRule{
	{[]string{"utilities"}, Seed{TypeUtilitiesNegotiation, "Lower utility bills", "Switch energy plans or negotiate internet rates."}},
	{[]string{"dining", "food"}, Seed{TypeDiningPlan, "Trim dining spend", "Set a weekly cap and shift to meal planning."}},
	{[]string{"shopping"}, Seed{TypeSubscriptionAudit, "Audit subscriptions", "Cancel unused services and re-negotiate annual plans."}},
	{[]string{"transport", "gas"}, Seed{TypeCommuteOptimize, "Optimize commuting", "Consolidate trips and track fuel rewards."}},
}

var (
	insuranceReview = Seed{TypeInsuranceReview, "Shop insurance renewals", "Compare auto/home quotes yearly to cut premiums."}
	insuranceQuote  = Seed{TypeInsuranceQuote, "Check insurance rates", "Ask for new quotes on auto and home coverage."}
	fallbackSeeds   = []Seed{
		{TypeRecurringReview, "Review recurring bills", "Look for duplicate subscriptions and unused services."},
		{TypeFixedCosts, "Negotiate fixed costs", "Call providers to re-price internet, mobile, or insurance."},
	}
)

func anyCategoryContains(categories []string, keywords ...string) bool {
	for _, c := range categories {
		for _, k := range keywords {
			if strings.Contains(c, k) {
				return true
			}
		}
	}
	return false
}

// BuildRecommendations derives up to three seeds from a spend breakdown.
// An insurance seed is always first: a review when insurance spend exists,
// a quote request otherwise.
func BuildRecommendations(breakdown []domain.CategorySpend) []Seed {
	categories := make([]string, 0, len(breakdown))
	for _, entry := range breakdown {
		categories = append(categories, strings.ToLower(entry.Category))
	}

	var seeds []Seed
	if anyCategoryContains(categories, "insurance") {
		seeds = append(seeds, insuranceReview)
	} else {
		seeds = append(seeds, insuranceQuote)
	}
	for _, rule := range seedRules {
		if anyCategoryContains(categories, rule.keywords...) {
			seeds = append(seeds, rule.seed)
		}
	}
	if len(seeds) == 0 {
		seeds = append(seeds, fallbackSeeds...)
	}

	if len(seeds) > SeedLimit {
		seeds = seeds[:SeedLimit]
	}
	return seeds
}

// ActOnRecommendation returns the canned result recorded on approval.
func ActOnRecommendation(action domain.RecommendationAction) string {
	switch {
	case strings.Contains(action.Type, "insurance"):
		return "Queued: preparing an insurance quote request on your behalf."
	case strings.Contains(action.Type, "utilities"):
		return "Queued: compiling utility plans and negotiation checklist."
	case strings.Contains(action.Type, "subscription"):
		return "Queued: identifying subscriptions for review and cancellation."
	default:
		return "Queued: creating an action plan based on your approval."
	}
}
