// Package categorize maps merchant text and free-form category text to the
// fixed set of category labels used across the ledger.
//
// Matching is deterministic: rules are evaluated in order and the first
// match wins, so rule order is part of the contract.
package categorize

import (
	"regexp"
	"strings"

	"github.com/dvloznov/finance-advisor/internal/domain"
)

// Category labels.
const (
	Transportation = "Transportation"
	Travel         = "Travel"
	Shopping       = "Shopping"
	Groceries      = "Groceries"
	Gas            = "Gas"
	Dining         = "Dining"
	Software       = "Software"
	Insurance      = "Insurance"
	Housing        = "Housing"
	Payment        = "Payment"
	Utilities      = "Utilities"
	Entertainment  = "Entertainment"
	Healthcare     = "Healthcare"
	Income         = "Income"
	Transfer       = "Transfer"
	Uncategorized  = domain.Uncategorized
)

// Labels is the enumerated set of category labels.
var Labels = []string{
	Transportation, Travel, Shopping, Groceries, Gas, Dining, Software, Insurance,
	Housing, Payment, Utilities, Entertainment, Healthcare, Income, Transfer, Uncategorized,
}

// Rule assigns Category when Pattern matches the merchant text.
type Rule struct {
	Pattern  *regexp.Regexp
	Category string
}

func rule(pattern, category string) Rule {
	return Rule{Pattern: regexp.MustCompile(`(?i)` + pattern), Category: category}
}

// defaultRules is ordered: "shell gas station" is Gas, "uber eats" is Transportation.
var defaultRules = []Rule{
	rule(`uber|lyft|rideshare`, Transportation),
	rule(`delta|southwest|united|air|airlines|flight`, Travel),
	rule(`amazon|amzn|marketplace`, Shopping),
	rule(`costco|walmart|target|safeway|whole foods|trader joe`, Groceries),
	rule(`gas|fuel|chevron|shell|exxon|mobil`, Gas),
	rule(`restaurant|cafe|coffee|starbucks|dunkin|pizza|food|eats`, Dining),
	rule(`intuit|quickbooks`, Software),
	rule(`insurance|geico|progressive|state farm`, Insurance),
	rule(`mortgage|rent`, Housing),
	rule(`payment thank you|autopay|payment`, Payment),
	rule(`fastrak|toll`, Transportation),
}

// Categorizer evaluates an ordered rule list against merchant text.
type Categorizer struct {
	rules []Rule
}

// New returns a Categorizer with the default merchant rules.
func New() *Categorizer {
	return &Categorizer{rules: defaultRules}
}

// NewWithRules returns a Categorizer evaluating rules in the given order.
func NewWithRules(rules []Rule) *Categorizer {
	return &Categorizer{rules: rules}
}

// Categorize returns the label of the first rule matching merchant.
// An empty merchant yields "" (absent); no match yields Uncategorized.
func (c *Categorizer) Categorize(merchant string) string {
	if strings.TrimSpace(merchant) == "" {
		return ""
	}
	for _, r := range c.rules {
		if r.Pattern.MatchString(merchant) {
			return r.Category
		}
	}
	return Uncategorized
}

var std = New()

// Categorize runs the default rules.
func Categorize(merchant string) string {
	return std.Categorize(merchant)
}
