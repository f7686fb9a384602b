package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dvloznov/finance-advisor/internal/app"
	"github.com/dvloznov/finance-advisor/internal/config"
	"github.com/dvloznov/finance-advisor/internal/logger"
)

var (
	configPath  string
	householdID string
	timeout     time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "cli",
		Short:         "Finance Advisor CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&householdID, "household", os.Getenv("FINADV_HOUSEHOLD"), "household ID (or set FINADV_HOUSEHOLD)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall command timeout")

	rootCmd.AddCommand(cashflowCmd())
	rootCmd.AddCommand(networthCmd())
	rootCmd.AddCommand(breakdownCmd())
	rootCmd.AddCommand(anomaliesCmd())
	rootCmd.AddCommand(recurringCmd())
	rootCmd.AddCommand(savingsCmd())
	rootCmd.AddCommand(insightsCmd())
	rootCmd.AddCommand(whatIfCmd())
	rootCmd.AddCommand(recommendCmd())
	rootCmd.AddCommand(approveCmd())
	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(householdCmd())
	rootCmd.AddCommand(accountCmd())
	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(uploadCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// session is the state shared by one command run.
type session struct {
	ctx    context.Context
	cfg    *config.Config
	log    zerolog.Logger
	app    *app.App
	cancel context.CancelFunc
}

func (s *session) Close() {
	if err := s.app.Close(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to close services")
	}
	s.cancel()
}

func open(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log := logger.NewWithOptions(logger.Options{
		Level:  cfg.Log.Level,
		Format: logger.Format(cfg.Log.Format),
		Output: cmd.ErrOrStderr(),
	})

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	ctx = logger.WithContext(ctx, log)

	services, err := app.New(ctx, cfg, log)
	if err != nil {
		cancel()
		return nil, err
	}
	return &session{ctx: ctx, cfg: cfg, log: log, app: services, cancel: cancel}, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
