package savings

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/dvloznov/finance-advisor/internal/domain"
)

// Heuristic constants.
const (
	SubscriptionMinOccurrences = 6
	SubscriptionSampleSize     = 6
	SubscriptionSavingsRatio   = 0.5
	SubscriptionHighCost       = 50.0
	SubscriptionMediumCost     = 20.0

	InterestMinAPR      = 0.15
	InterestMinBalance  = 1000.0
	InterestAPRCut      = 0.03
	InterestAPRFloor    = 0.12
	InterestHighAPR     = 0.20
	InsuranceBundleRate = 0.15
	InsuranceBundleHigh = 50.0

	DeductibleMinPremium = 200.0
	DeductibleMinAmount  = 2000.0
	DeductibleRate       = 0.10

	FoodMinSpend     = 800.0
	FoodHighSpend    = 1200.0
	FoodSavingsRatio = 0.15

	AnomalyOpportunityLimit = 3
)

var subscriptionKeywords = []string{
	"netflix", "spotify", "amazon prime", "disney", "hulu", "apple", "adobe",
	"microsoft", "salesforce", "zoom", "slack", "gym", "fitness", "yoga", "classpass",
}

var foodKeywords = []string{"food", "dining", "groceries", "restaurant"}

func containsAny(s string, keywords []string) bool {
	lower := strings.ToLower(s)
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// subscriptionCost is the mean absolute amount of the latest occurrences.
func subscriptionCost(g domain.RecurringGroup) float64 {
	txs := g.Transactions
	if len(txs) > SubscriptionSampleSize {
		txs = txs[len(txs)-SubscriptionSampleSize:]
	}
	if len(txs) == 0 {
		return g.AverageAmount
	}
	var sum float64
	for _, tx := range txs {
		sum += tx.AbsAmount()
	}
	return sum / float64(len(txs))
}

// mergeByMerchant folds recurring groups that share a merchant across
// categories into one group with transactions in posting order.
func mergeByMerchant(groups []domain.RecurringGroup) []domain.RecurringGroup {
	index := make(map[string]int)
	var out []domain.RecurringGroup
	for _, g := range groups {
		i, ok := index[g.Merchant]
		if !ok {
			index[g.Merchant] = len(out)
			out = append(out, domain.RecurringGroup{Merchant: g.Merchant, Category: g.Category})
			i = len(out) - 1
		}
		out[i].Transactions = append(out[i].Transactions, g.Transactions...)
	}
	for i := range out {
		txs := out[i].Transactions
		sort.SliceStable(txs, func(a, b int) bool { return txs[a].PostedAt.Before(txs[b].PostedAt) })
		out[i].Count = len(txs)
		var sum float64
		for _, tx := range txs {
			sum += tx.AbsAmount()
		}
		if len(txs) > 0 {
			out[i].AverageAmount = sum / float64(len(txs))
		}
	}
	return out
}

func subscriptionOpportunities(recurring domain.RecurringExpenses) []domain.Opportunity {
	var out []domain.Opportunity
	for _, g := range mergeByMerchant(recurring.Groups) {
		if !containsAny(g.Merchant, subscriptionKeywords) && g.Count < SubscriptionMinOccurrences {
			continue
		}
		cost := subscriptionCost(g)
		severity := domain.SeverityLow
		switch {
		case cost > SubscriptionHighCost:
			severity = domain.SeverityHigh
		case cost > SubscriptionMediumCost:
			severity = domain.SeverityMedium
		}
		out = append(out, domain.Opportunity{
			Title:                   "Review subscription: " + g.Merchant,
			Description:             fmt.Sprintf("You're spending approximately $%.2f/month on %s. Consider downgrading or canceling if not needed.", cost, g.Merchant),
			PotentialMonthlySavings: cost * SubscriptionSavingsRatio,
			Category:                "Subscriptions",
			Actions: []domain.SuggestedAction{
				{Label: "View transactions", Query: "show transactions for " + g.Merchant},
				{Label: "Cancel subscription", Query: "cancel " + g.Merchant},
			},
			Severity: severity,
		})
	}
	return out
}

// RefinanceAPR is the rate assumed reachable by refinancing, min(0.12, apr-0.03).
// For every APR the detector considers (above 0.15) this is exactly 0.12.
func RefinanceAPR(apr float64) float64 {
	return math.Min(InterestAPRFloor, apr-InterestAPRCut)
}

func interestOpportunities(liabilities []domain.Liability) []domain.Opportunity {
	var out []domain.Opportunity
	for _, l := range liabilities {
		if l.APR <= InterestMinAPR || l.Balance <= InterestMinBalance {
			continue
		}
		newAPR := RefinanceAPR(l.APR)
		saving := l.Balance * (l.APR - newAPR) / 12
		severity := domain.SeverityMedium
		if l.APR > InterestHighAPR {
			severity = domain.SeverityHigh
		}
		out = append(out, domain.Opportunity{
			Title:                   fmt.Sprintf("Consider refinancing %s", l.Kind),
			Description:             fmt.Sprintf("Your %s has an APR of %.2f%%. Refinancing could save approximately $%.2f/month.", l.Name, l.APR*100, saving),
			PotentialMonthlySavings: saving,
			Category:                "Interest Reduction",
			Actions: []domain.SuggestedAction{
				{Label: "Calculate payoff options", Query: "show payoff options for " + l.Name},
				{Label: "Compare rates", Query: "compare refinance rates"},
			},
			Severity: severity,
		})
	}
	return out
}

func insuranceOpportunities(policies []domain.InsurancePolicy) []domain.Opportunity {
	var out []domain.Opportunity

	if len(policies) >= 2 {
		var premiums float64
		for _, p := range policies {
			premiums += p.PremiumMonthly
		}
		saving := premiums * InsuranceBundleRate
		severity := domain.SeverityMedium
		if saving > InsuranceBundleHigh {
			severity = domain.SeverityHigh
		}
		out = append(out, domain.Opportunity{
			Title:                   "Consider bundling insurance policies",
			Description:             fmt.Sprintf("You have %d separate insurance policies. Bundling could save approximately $%.2f/month.", len(policies), saving),
			PotentialMonthlySavings: saving,
			Category:                "Insurance",
			Actions: []domain.SuggestedAction{
				{Label: "View all policies", Query: "show all insurance policies"},
				{Label: "Get bundling quotes", Query: "get insurance bundling quotes"},
			},
			Severity: severity,
		})
	}

	for _, p := range policies {
		if p.PremiumMonthly <= DeductibleMinPremium || p.Deductible <= DeductibleMinAmount {
			continue
		}
		out = append(out, domain.Opportunity{
			Title:                   fmt.Sprintf("Optimize %s insurance deductible", p.Kind),
			Description:             fmt.Sprintf("Your %s insurance has a high deductible. Adjusting deductible levels could reduce premium.", p.Kind),
			PotentialMonthlySavings: p.PremiumMonthly * DeductibleRate,
			Category:                "Insurance",
			Actions: []domain.SuggestedAction{
				{Label: "Compare deductible options", Query: fmt.Sprintf("compare %s insurance options", p.Kind)},
			},
			Severity: domain.SeverityMedium,
		})
	}
	return out
}

func foodOpportunities(breakdown []domain.CategorySpend) []domain.Opportunity {
	var total float64
	for _, entry := range breakdown {
		if containsAny(entry.Category, foodKeywords) {
			total += entry.Total
		}
	}
	if total <= FoodMinSpend {
		return nil
	}
	saving := total * FoodSavingsRatio
	severity := domain.SeverityMedium
	if total > FoodHighSpend {
		severity = domain.SeverityHigh
	}
	return []domain.Opportunity{{
		Title:                   "Optimize food spending",
		Description:             fmt.Sprintf("You're spending $%.2f/month on food. Reducing dining out and optimizing grocery shopping could save $%.2f/month.", total, saving),
		PotentialMonthlySavings: saving,
		Category:                "Food & Dining",
		Actions: []domain.SuggestedAction{
			{Label: "View food transactions", Query: "show food and dining transactions"},
			{Label: "Set food budget", Query: "set monthly food budget"},
		},
		Severity: severity,
	}}
}

// anomalyOpportunities looks at the three largest anomalies and keeps those
// with spend above average.
func anomalyOpportunities(anomalies []domain.Anomaly) []domain.Opportunity {
	if len(anomalies) > AnomalyOpportunityLimit {
		anomalies = anomalies[:AnomalyOpportunityLimit]
	}
	var out []domain.Opportunity
	for _, a := range anomalies {
		if a.Deviation <= 0 {
			continue
		}
		out = append(out, domain.Opportunity{
			Title:                   "Unusual spending in " + a.Category,
			Description:             fmt.Sprintf("Your %s spending is %.0f%% higher than your 6-month average.", a.Category, a.Deviation),
			PotentialMonthlySavings: a.Current - a.Average,
			Category:                a.Category,
			Actions: []domain.SuggestedAction{
				{Label: "Review transactions", Query: "show transactions in " + a.Category},
				{Label: "Set budget limit", Query: "set budget for " + a.Category},
			},
			Severity: a.Severity,
		})
	}
	return out
}
