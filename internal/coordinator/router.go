package coordinator

import "strings"

// Intent is the handler a query is dispatched to.
type Intent string

const (
	IntentIngestion Intent = "ingestion"
	IntentSavings   Intent = "savings"
	IntentInterest  Intent = "interest"
	IntentOverview  Intent = "overview"
	IntentSpending  Intent = "spending"
	IntentInsurance Intent = "insurance"
	IntentGeneral   Intent = "general"
)

type route struct {
	intent Intent
	match  func(query string) bool
}

func containsAny(keywords ...string) func(string) bool {
	return func(query string) bool {
		for _, k := range keywords {
			if strings.Contains(query, k) {
				return true
			}
		}
		return false
	}
}

// routes is evaluated top to bottom and the first match wins, so overlapping
// keywords resolve by position ("save money at a lower interest rate" is a
// savings query).
var routes = []route{
	{IntentIngestion, containsAny("upload", "import", "sync")},
	{IntentSavings, containsAny("save", "reduce", "cut", "expense", "spending", "savings opportunity")},
	{IntentInterest, containsAny("interest", "apr", "rate")},
	{IntentOverview, containsAny("overview", "picture", "summary", "income", "earn")},
	{IntentSpending, containsAny("spending", "spend", "expense breakdown")},
	{IntentInsurance, containsAny("insurance", "mortgage")},
}

// Classify maps a free-text query to an intent by keyword presence.
func Classify(query string) Intent {
	q := strings.ToLower(query)
	for _, r := range routes {
		if r.match(q) {
			return r.intent
		}
	}
	return IntentGeneral
}
