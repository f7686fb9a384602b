package domain

// PeriodLayout formats a calendar month period label.
const PeriodLayout = "2006-01"

// Cashflow is income minus expenses over one calendar month.
type Cashflow struct {
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Net      float64 `json:"net"`
	Period   string  `json:"period"`
}

// NetWorth is total asset value minus total liability balance.
type NetWorth struct {
	Assets      float64 `json:"assets"`
	Liabilities float64 `json:"liabilities"`
	Net         float64 `json:"net"`
}

// CategorySpend is one spend breakdown entry.
type CategorySpend struct {
	Category   string  `json:"category"`
	Total      float64 `json:"total"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Anomaly is a category whose current-month spend deviates from its trailing average.
type Anomaly struct {
	Category  string   `json:"category"`
	Current   float64  `json:"current"`
	Average   float64  `json:"average"`
	Deviation float64  `json:"deviation"`
	Severity  Severity `json:"severity"`
}

// RecurringGroup is a set of expenses sharing merchant and category.
type RecurringGroup struct {
	Merchant      string        `json:"merchant"`
	Category      string        `json:"category"`
	Count         int           `json:"count"`
	AverageAmount float64       `json:"avgAmount"`
	Transactions  []Transaction `json:"transactions"`
}

// RecurringExpenses is the ranked list of recurring groups.
type RecurringExpenses struct {
	Groups []RecurringGroup `json:"groups"`
}

// Transactions flattens every group into a single list, in group order.
func (r RecurringExpenses) Transactions() []Transaction {
	var out []Transaction
	for _, g := range r.Groups {
		out = append(out, g.Transactions...)
	}
	return out
}

// Overview bundles the three dashboard figures.
type Overview struct {
	Cashflow  Cashflow        `json:"cashflow"`
	NetWorth  NetWorth        `json:"netWorth"`
	Breakdown []CategorySpend `json:"breakdown"`
}
