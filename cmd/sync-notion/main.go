package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/dvloznov/finance-analytics/internal/config"
	infraBQ "github.com/dvloznov/finance-analytics/internal/infra/bigquery"
	"github.com/dvloznov/finance-analytics/internal/infra/sqlite"
	"github.com/dvloznov/finance-analytics/internal/logger"
	"github.com/dvloznov/finance-analytics/internal/notionsync"
)

func main() {
	cfg := config.Load()
	log := logger.NewWithLevel(cfg.LogLevel)

	userID := flag.String("user", "", "User ID whose unread insights are synced (required)")
	notionToken := flag.String("notion-token", cfg.NotionToken, "Notion API token (or set NOTION_TOKEN)")
	notionDBID := flag.String("notion-db-id", cfg.NotionInsightsDBID, "Notion insights database ID (or set NOTION_INSIGHTS_DB_ID)")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	flag.Parse()

	if *userID == "" {
		log.Fatal().Msg("Error: --user is required")
	}
	if *notionToken == "" {
		log.Fatal().Msg("Error: --notion-token is required")
	}
	if *notionDBID == "" {
		log.Fatal().Msg("Error: --notion-db-id is required")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	var insights notionsync.InsightLister
	switch cfg.AlertBackend {
	case config.BackendSQLite:
		store, err := sqlite.Open(cfg.SQLiteDBPath, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open SQLite store")
		}
		defer store.Close()
		insights = store
	default:
		if cfg.GCPProjectID == "" {
			log.Fatal().Msg("Error: GCP_PROJECT_ID is required for the bigquery backend")
		}
		repo, err := infraBQ.NewRepository(ctx, cfg.GCPProjectID, cfg.BQDataset)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize BigQuery repository")
		}
		defer repo.Close()
		insights = repo
	}

	notionClient := notionsync.NewNotionClient(*notionToken)

	res, err := notionsync.SyncInsights(ctx, insights, notionClient, *notionDBID, *userID, *dryRun)
	if err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	fmt.Printf("Sync completed: %d created, %d skipped, %d failed.\n", res.Created, res.Skipped, res.Failed)
}
