package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/dvloznov/finance-advisor/internal/config"
	"github.com/dvloznov/finance-advisor/internal/infra/bigquery"
	"github.com/dvloznov/finance-advisor/internal/logger"
	"github.com/dvloznov/finance-advisor/internal/notionsync"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	householdID := flag.String("household", "", "Household ID to sync (required)")
	notionToken := flag.String("notion-token", "", "Notion API token (overrides config)")
	notionDBID := flag.String("notion-db-id", "", "Notion database ID (overrides config)")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Failed to load config")
	}
	log := logger.NewWithOptions(logger.Options{Level: cfg.Log.Level, Format: logger.Format(cfg.Log.Format)})

	if *notionToken != "" {
		cfg.Notion.Token = *notionToken
	}
	if *notionDBID != "" {
		cfg.Notion.DatabaseID = *notionDBID
	}

	if *householdID == "" {
		log.Fatal().Msg("Error: --household is required")
	}
	if cfg.Notion.Token == "" {
		log.Fatal().Msg("Error: --notion-token or notion.token is required")
	}
	if cfg.Notion.DatabaseID == "" {
		log.Fatal().Msg("Error: --notion-db-id or notion.database_id is required")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	repo, err := bigquery.NewRepository(ctx, cfg.BigQuery.ProjectID, cfg.BigQuery.DatasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize BigQuery repository")
	}
	defer repo.Close()

	board := notionsync.NewNotionClient(cfg.Notion.Token, cfg.Notion.DatabaseID)

	result, err := notionsync.SyncRecommendations(ctx, repo, board, *householdID, *dryRun)
	if err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	fmt.Printf("Sync completed: %d created, %d updated, %d archived, %d unchanged, %d failed.\n",
		result.Created, result.Updated, result.Archived, result.Unchanged, result.Failed)
}
