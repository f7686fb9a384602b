package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dvloznov/finance-advisor/internal/analytics"
	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/dvloznov/finance-advisor/internal/gcsuploader"
	"github.com/dvloznov/finance-advisor/internal/ingest"
	"github.com/dvloznov/finance-advisor/internal/savings"
)

func cashflowCmd() *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "cashflow",
		Short: "Show income, expenses and net for a month",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			var m *time.Time
			if month != "" {
				t, err := analytics.ParseMonth(month, s.app.Analytics.Now().Location())
				if err != nil {
					return err
				}
				m = &t
			}
			cf, err := s.app.Analytics.Cashflow(s.ctx, householdID, m)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  income %.2f  expenses %.2f  net %.2f\n", cf.Period, cf.Income, cf.Expenses, cf.Net)
			return nil
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (defaults to the current or latest month)")
	return cmd
}

func networthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "networth",
		Short: "Show assets, liabilities and net worth",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			nw, err := s.app.Analytics.NetWorth(s.ctx, householdID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "assets %.2f  liabilities %.2f  net %.2f\n", nw.Assets, nw.Liabilities, nw.Net)
			return nil
		},
	}
}

func breakdownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "breakdown",
		Short: "Show spending by category",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			categories, err := s.app.Analytics.SpendBreakdown(s.ctx, householdID, nil, nil)
			if err != nil {
				return err
			}
			for _, c := range categories {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %10.2f  %5.1f%%  (%d)\n", c.Category, c.Total, c.Percentage, c.Count)
			}
			return nil
		},
	}
}

func anomaliesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "anomalies",
		Short: "List categories spending above their recent average",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			anomalies, err := s.app.Analytics.DetectAnomalies(s.ctx, householdID)
			if err != nil {
				return err
			}
			return printJSON(cmd, anomalies)
		},
	}
}

func recurringCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recurring",
		Short: "List recurring expenses",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			recurring, err := s.app.Analytics.RecurringExpenses(s.ctx, householdID)
			if err != nil {
				return err
			}
			return printJSON(cmd, recurring)
		},
	}
}

func savingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "savings",
		Short: "Rank savings opportunities",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			opps, err := s.app.Savings.FindOpportunities(s.ctx, householdID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, o := range opps {
				fmt.Fprintf(out, "[%s] %s  ~%.2f/month\n    %s\n", o.Severity, o.Title, o.PotentialMonthlySavings, o.Description)
			}
			fmt.Fprintf(out, "Total potential savings: %.2f/month\n", savings.TotalSavings(opps))
			return nil
		},
	}
}

func insightsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "insights",
		Short: "Generate and store insights from current opportunities",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			insights, err := s.app.Insights.Generate(s.ctx, householdID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %d insights.\n", len(insights))
			return nil
		},
	}
}

func whatIfCmd() *cobra.Command {
	var (
		liabilityID string
		newAPR      float64
		extra       float64
	)
	cmd := &cobra.Command{
		Use:   "whatif",
		Short: "Project a refinance of one liability",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			scenario := savings.RefinanceScenario{ExtraPayment: extra}
			if cmd.Flags().Changed("apr") {
				scenario.NewAPR = &newAPR
			}
			projection, err := s.app.Savings.WhatIfRefinance(s.ctx, householdID, liabilityID, scenario)
			if err != nil {
				return err
			}
			return printJSON(cmd, projection)
		},
	}
	cmd.Flags().StringVar(&liabilityID, "liability", "", "liability ID (required)")
	cmd.Flags().Float64Var(&newAPR, "apr", 0, "new APR as a fraction, e.g. 0.12")
	cmd.Flags().Float64Var(&extra, "extra", 0, "extra monthly payment")
	cmd.MarkFlagRequired("liability")
	return cmd
}

func recommendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recommend",
		Short: "Seed and list recommendation actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			actions, err := s.app.Recommendations.Refresh(s.ctx, householdID)
			if err != nil {
				return err
			}
			for _, a := range actions {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-9s %s\n", a.ID, a.Status, a.Title)
			}
			return nil
		},
	}
}

func approveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve [action-id]",
		Short: "Approve a pending recommendation action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			action, err := s.app.Recommendations.Approve(s.ctx, householdID, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is %s: %s\n", action.Title, action.Status, action.Result)
			return nil
		},
	}
}

func askCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask the advisor a question",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			resp, err := s.app.Chat.Ask(s.ctx, householdID, args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd, resp)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, resp.Message)
			for _, a := range resp.SuggestedActions {
				fmt.Fprintf(out, "  -> %s (%q)\n", a.Label, a.Query)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full response as JSON")
	return cmd
}

func householdCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "household-create [name]",
		Short: "Create a household",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			h := domain.Household{ID: uuid.New().String(), Name: args[0], CreatedAt: time.Now().UTC()}
			if err := s.app.Store.CreateHousehold(s.ctx, h); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h.ID)
			return nil
		},
	}
}

func accountCmd() *cobra.Command {
	var kind, institution, currency string
	cmd := &cobra.Command{
		Use:   "account-create [name]",
		Short: "Create an account in the household",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := domain.RequireHousehold(householdID); err != nil {
				return err
			}
			s, err := open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			a := domain.Account{
				ID:          uuid.New().String(),
				HouseholdID: householdID,
				Name:        args[0],
				Kind:        domain.AccountKind(kind),
				Institution: institution,
				Currency:    currency,
				CreatedAt:   time.Now().UTC(),
			}
			if err := s.app.Store.CreateAccount(s.ctx, a); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "type", string(domain.AccountChecking), "checking, savings, credit_card, brokerage or loan")
	cmd.Flags().StringVar(&institution, "institution", "", "bank or card issuer")
	cmd.Flags().StringVar(&currency, "currency", domain.DefaultCurrency, "account currency")
	return cmd
}

func ingestCmd() *cobra.Command {
	var accountID, accountType, file, gcsURI string
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Import a CSV statement from a local file or a gs:// URI",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (file == "") == (gcsURI == "") {
				return fmt.Errorf("exactly one of --file or --gcs-uri is required")
			}
			s, err := open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			req := ingest.Request{HouseholdID: householdID, AccountID: accountID, AccountKind: domain.AccountKind(accountType)}
			var res ingest.Result
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				res, err = s.app.Ingest.IngestCSV(s.ctx, req, f)
				if err != nil {
					return err
				}
			} else {
				res, err = s.app.Ingest.IngestFromGCS(s.ctx, req, gcsURI)
				if err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d transactions (%d skipped, %d embedded).\n", res.Imported, res.Skipped, res.Embedded)
			return nil
		},
	}
	cmd.Flags().StringVar(&accountID, "account", "", "account ID (required)")
	cmd.Flags().StringVar(&accountType, "account-type", "", "override the stored account type")
	cmd.Flags().StringVar(&file, "file", "", "local CSV file")
	cmd.Flags().StringVar(&gcsURI, "gcs-uri", "", "gs:// URI of the CSV")
	cmd.MarkFlagRequired("account")
	return cmd
}

func uploadCmd() *cobra.Command {
	var accountID, bucket, file string
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload a CSV statement to Cloud Storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := domain.RequireHousehold(householdID); err != nil {
				return err
			}
			s, err := open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			if bucket == "" {
				bucket = s.cfg.Storage.Bucket
			}
			if bucket == "" {
				return fmt.Errorf("--bucket or storage.bucket is required")
			}

			client, err := gcsuploader.NewClient(s.ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			object := gcsuploader.StatementObject(householdID, accountID, filepath.Base(file), time.Now().UTC())
			uri, err := client.UploadFile(s.ctx, bucket, object, file)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s to %s\n", file, uri)
			return nil
		},
	}
	cmd.Flags().StringVar(&accountID, "account", "", "account ID (required)")
	cmd.Flags().StringVar(&bucket, "bucket", "", "bucket name (overrides config)")
	cmd.Flags().StringVar(&file, "file", "", "local CSV file (required)")
	cmd.MarkFlagRequired("account")
	cmd.MarkFlagRequired("file")
	return cmd
}
