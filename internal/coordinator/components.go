package coordinator

import (
	"fmt"
	"math"

	"github.com/dvloznov/finance-advisor/internal/domain"
)

// ComponentType names a declarative UI block.
type ComponentType string

const (
	ComponentDashboard    ComponentType = "dashboard"
	ComponentChart        ComponentType = "chart"
	ComponentActionCards  ComponentType = "actionCards"
	ComponentTable        ComponentType = "table"
	ComponentWhatIfSlider ComponentType = "whatIfSlider"
)

// Component is a rendering hint returned alongside a chat message.
type Component struct {
	Type ComponentType `json:"type"`
	Data interface{}   `json:"data"`
}

type ActionCard struct {
	Title       string                   `json:"title"`
	Description string                   `json:"description"`
	Savings     float64                  `json:"savings"`
	Severity    domain.Severity          `json:"severity"`
	Actions     []domain.SuggestedAction `json:"actions"`
}

type ChartPoint struct {
	Name       string  `json:"name"`
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage"`
}

type Chart struct {
	Type  string       `json:"type"`
	Title string       `json:"title"`
	Data  []ChartPoint `json:"data"`
}

type Dashboard struct {
	Cashflow      domain.Cashflow        `json:"cashflow"`
	NetWorth      domain.NetWorth        `json:"netWorth"`
	TopCategories []domain.CategorySpend `json:"topCategories"`
}

type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// WhatIfSlider describes an interactive scenario. APR fields are empty for
// sliders that are not rate based.
type WhatIfSlider struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CurrentAPR  float64   `json:"currentAPR,omitempty"`
	NewAPRRange []float64 `json:"newAPRRange,omitempty"`
	Balance     float64   `json:"balance,omitempty"`
	LiabilityID string    `json:"liabilityId,omitempty"`
}

func actionCards(opps []domain.Opportunity) Component {
	cards := make([]ActionCard, 0, len(opps))
	for _, o := range opps {
		cards = append(cards, ActionCard{
			Title:       o.Title,
			Description: o.Description,
			Savings:     o.PotentialMonthlySavings,
			Severity:    o.Severity,
			Actions:     o.Actions,
		})
	}
	return Component{Type: ComponentActionCards, Data: cards}
}

func spendingChart(breakdown []domain.CategorySpend) Component {
	points := make([]ChartPoint, 0, len(breakdown))
	for _, b := range breakdown {
		points = append(points, ChartPoint{Name: b.Category, Value: b.Total, Percentage: b.Percentage})
	}
	return Component{Type: ComponentChart, Data: Chart{Type: "pie", Title: "Spending by Category", Data: points}}
}

func transactionTable(txs []domain.Transaction) Component {
	rows := make([][]string, 0, len(txs))
	for _, tx := range txs {
		merchant := tx.Merchant
		if merchant == "" {
			merchant = "Unknown"
		}
		rows = append(rows, []string{
			tx.PostedAt.Format("2006-01-02"),
			merchant,
			tx.CategoryOrDefault(),
			fmt.Sprintf("$%.2f", math.Abs(tx.Amount)),
		})
	}
	return Component{Type: ComponentTable, Data: Table{
		Columns: []string{"Date", "Merchant", "Category", "Amount"},
		Rows:    rows,
	}}
}
