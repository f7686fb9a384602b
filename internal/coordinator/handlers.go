package coordinator

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/dvloznov/finance-advisor/internal/savings"
	"golang.org/x/sync/errgroup"
)

const (
	savingsTopN       = 5
	spendingTopN      = 8
	dashboardTopN     = 5
	generalSearchSize = 5
	generalInsightsN  = 3

	highAPR = 0.15
)

var refinanceAPRRange = []float64{0.05, 0.15}

func (c *Coordinator) handleIngestion(ctx context.Context, householdID, query string, resp *Response) error {
	resp.Message = "Please use the upload interface to import your financial data."
	return nil
}

func (c *Coordinator) handleSavings(ctx context.Context, householdID, query string, resp *Response) error {
	opps, err := c.savings.FindOpportunities(ctx, householdID)
	if err != nil {
		return err
	}
	resp.trace("Savings: found %d opportunities", len(opps))
	if len(opps) > savingsTopN {
		opps = opps[:savingsTopN]
	}
	total := savings.TotalSavings(opps)

	var b strings.Builder
	fmt.Fprintf(&b, "I found %d opportunities to reduce your expenses:\n\n", len(opps))
	for _, o := range opps {
		fmt.Fprintf(&b, "• %s: Save ~$%.2f/month\n", o.Title, o.PotentialMonthlySavings)
	}
	fmt.Fprintf(&b, "\n**Total potential monthly savings: $%.2f**\n\n", total)
	b.WriteString("Would you like me to show details for any of these?")

	resp.Message = b.String()
	resp.Components = []Component{actionCards(opps)}
	resp.Data = map[string]interface{}{"opportunities": opps, "totalSavings": total}
	resp.SuggestedActions = []domain.SuggestedAction{
		{Label: "View all opportunities", Query: "show all savings opportunities"},
		{Label: "Set up automatic savings", Query: "set up savings plan"},
	}
	resp.trace("UI: action cards")
	return nil
}

func (c *Coordinator) handleInterest(ctx context.Context, householdID, query string, resp *Response) error {
	liabilities, err := c.holdings.ListLiabilities(ctx, householdID)
	if err != nil {
		return err
	}
	if len(liabilities) == 0 {
		resp.Message = "I don't see any liabilities in your account. If you have debts or loans, please add them to get interest rate recommendations."
		return nil
	}
	sort.SliceStable(liabilities, func(i, j int) bool {
		return liabilities[i].APR > liabilities[j].APR
	})

	var b strings.Builder
	b.WriteString("Here's your interest rate analysis:\n\n")
	var high []domain.Liability
	var highInterest float64
	for _, l := range liabilities {
		fmt.Fprintf(&b, "• **%s** (%s):\n", l.Name, l.Kind)
		fmt.Fprintf(&b, "  - APR: %.2f%%\n", l.APR*100)
		fmt.Fprintf(&b, "  - Balance: $%.2f\n", l.Balance)
		fmt.Fprintf(&b, "  - Monthly interest: $%.2f\n", l.MonthlyInterest())
		if l.APR > highAPR {
			b.WriteString("  - High interest rate, consider refinancing\n")
			high = append(high, l)
			highInterest += l.MonthlyInterest()
		}
		b.WriteString("\n")
	}
	resp.Data = map[string]interface{}{"liabilities": liabilities}
	resp.trace("Interest: analyzed %d liabilities", len(liabilities))

	if len(high) == 0 {
		resp.Message = b.String()
		return nil
	}

	fmt.Fprintf(&b, "**You're paying $%.2f/month in high-interest debt.** Consider refinancing to save money.", highInterest)
	resp.Message = b.String()
	resp.Data["highAPRLiabilities"] = high
	resp.Components = []Component{{
		Type: ComponentWhatIfSlider,
		Data: WhatIfSlider{
			Title:       "Refinance Calculator",
			Description: "See how much you could save by refinancing",
			CurrentAPR:  high[0].APR,
			NewAPRRange: refinanceAPRRange,
			Balance:     high[0].Balance,
			LiabilityID: high[0].ID,
		},
	}}
	return nil
}

func (c *Coordinator) handleOverview(ctx context.Context, householdID, query string, resp *Response) error {
	var (
		cashflow  domain.Cashflow
		netWorth  domain.NetWorth
		breakdown []domain.CategorySpend
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		cashflow, err = c.analytics.Cashflow(gctx, householdID, nil)
		return err
	})
	g.Go(func() (err error) {
		netWorth, err = c.analytics.NetWorth(gctx, householdID)
		return err
	})
	g.Go(func() (err error) {
		breakdown, err = c.analytics.SpendBreakdown(gctx, householdID, nil, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	resp.trace("Analytics: cashflow, net worth, breakdown")

	var b strings.Builder
	b.WriteString("Here's your complete financial picture:\n\n")
	b.WriteString("**Income & Expenses:**\n")
	fmt.Fprintf(&b, "• Income: $%.2f/month\n", cashflow.Income)
	fmt.Fprintf(&b, "• Expenses: $%.2f/month\n", cashflow.Expenses)
	fmt.Fprintf(&b, "• Net: $%.2f/month\n\n", cashflow.Net)
	b.WriteString("**Net Worth:**\n")
	fmt.Fprintf(&b, "• Assets: $%.2f\n", netWorth.Assets)
	fmt.Fprintf(&b, "• Liabilities: $%.2f\n", netWorth.Liabilities)
	fmt.Fprintf(&b, "• Net Worth: $%.2f\n", netWorth.Net)

	top := breakdown
	if len(top) > dashboardTopN {
		top = top[:dashboardTopN]
	}
	resp.Message = b.String()
	resp.Components = []Component{{
		Type: ComponentDashboard,
		Data: Dashboard{Cashflow: cashflow, NetWorth: netWorth, TopCategories: top},
	}}
	resp.Data = map[string]interface{}{"cashflow": cashflow, "netWorth": netWorth, "breakdown": breakdown}
	resp.trace("UI: dashboard")
	return nil
}

func (c *Coordinator) handleSpending(ctx context.Context, householdID, query string, resp *Response) error {
	breakdown, err := c.analytics.SpendBreakdown(ctx, householdID, nil, nil)
	if err != nil {
		return err
	}
	cashflow, err := c.analytics.Cashflow(ctx, householdID, nil)
	if err != nil {
		return err
	}
	resp.trace("Analytics: spend breakdown")

	var b strings.Builder
	b.WriteString("Here's your spending breakdown:\n\n")
	for i, entry := range breakdown {
		if i == spendingTopN {
			break
		}
		fmt.Fprintf(&b, "• %s: $%.2f (%.1f%%)\n", entry.Category, entry.Total, entry.Percentage)
	}
	fmt.Fprintf(&b, "\n**Total spending: $%.2f**\n", cashflow.Expenses)
	fmt.Fprintf(&b, "**Net cashflow: $%.2f**", cashflow.Net)

	resp.Message = b.String()
	resp.Components = []Component{spendingChart(breakdown)}
	resp.Data = map[string]interface{}{"breakdown": breakdown, "cashflow": cashflow}
	resp.trace("UI: chart")
	return nil
}

func (c *Coordinator) handleInsurance(ctx context.Context, householdID, query string, resp *Response) error {
	policies, err := c.holdings.ListPolicies(ctx, householdID)
	if err != nil {
		return err
	}
	liabilities, err := c.holdings.ListLiabilities(ctx, householdID)
	if err != nil {
		return err
	}
	var mortgages []domain.Liability
	for _, l := range liabilities {
		if l.Kind == domain.LiabilityMortgage {
			mortgages = append(mortgages, l)
		}
	}

	var b strings.Builder
	if len(policies) > 0 {
		b.WriteString("**Insurance Policies:**\n")
		var total float64
		for _, p := range policies {
			fmt.Fprintf(&b, "• %s (%s): $%.2f/month\n", p.Kind, p.Provider, p.PremiumMonthly)
			total += p.PremiumMonthly
		}
		fmt.Fprintf(&b, "Total: $%.2f/month\n\n", total)
	}
	if len(mortgages) > 0 {
		b.WriteString("**Mortgage:**\n")
		for _, m := range mortgages {
			fmt.Fprintf(&b, "• Balance: $%.2f\n", m.Balance)
			fmt.Fprintf(&b, "• APR: %.2f%%\n", m.APR*100)
			fmt.Fprintf(&b, "• Monthly payment: $%.2f\n", m.MinPayment)
		}
	}

	resp.Data = map[string]interface{}{"policies": policies, "mortgages": mortgages}
	if b.Len() == 0 {
		resp.Message = "I don't see any insurance policies or mortgages in your account. Please add them to get recommendations."
		return nil
	}
	resp.Message = b.String()
	resp.Components = []Component{{
		Type: ComponentWhatIfSlider,
		Data: WhatIfSlider{
			Title:       "Insurance Optimization",
			Description: "See how adjusting deductibles affects premiums",
		},
	}}
	return nil
}

const helpText = "Based on your financial data, I have your financial data. How can I help you today? You can ask me about:\n" +
	"• Ways to reduce expenses\n" +
	"• Interest rates and debt management\n" +
	"• Your complete financial picture\n" +
	"• Personalized savings recommendations"

func (c *Coordinator) handleGeneral(ctx context.Context, householdID, query string, resp *Response) error {
	if c.retriever == nil {
		resp.Message = helpText
		return nil
	}

	found, err := c.retriever.Search(ctx, householdID, query, generalSearchSize)
	if err != nil {
		return err
	}
	if found.TransactionsOutcome.Degraded() || found.InsightsOutcome.Degraded() {
		resp.trace("Retriever: vector search unavailable, using recent records")
	} else {
		resp.trace("Retriever: ranked related records")
	}
	resp.Data = map[string]interface{}{"transactions": found.Transactions, "insights": found.Insights}
	if len(found.Transactions) > 0 {
		resp.Components = []Component{transactionTable(found.Transactions)}
	}

	if len(found.Insights) == 0 {
		resp.Message = helpText
		return nil
	}
	var b strings.Builder
	b.WriteString("Based on your financial data, here are some insights:\n\n")
	for i, in := range found.Insights {
		if i == generalInsightsN {
			break
		}
		fmt.Fprintf(&b, "• %s: %s\n", in.Title, in.Body)
	}
	resp.Message = b.String()
	return nil
}
