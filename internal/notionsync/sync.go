package notionsync

import (
	"context"
	"fmt"

	"github.com/dvloznov/finance-analytics/internal/domain"
	"github.com/dvloznov/finance-analytics/internal/logger"
	"github.com/jomei/notionapi"
)

// InsightLister lists a user's insights.
type InsightLister interface {
	ListInsights(ctx context.Context, userID string, unreadOnly bool) ([]domain.Insight, error)
}

// SyncResult counts what a sync did.
type SyncResult struct {
	Created int
	Skipped int
	Failed  int
}

// SyncInsights creates a page for every unread insight of the user that has
// no page yet. Pages are matched on the Insight ID property, so reruns are
// idempotent. Individual page failures are logged and counted.
func SyncInsights(ctx context.Context, insights InsightLister, notionClient NotionService, notionDBID, userID string, dryRun bool) (SyncResult, error) {
	log := logger.FromContext(ctx)
	var res SyncResult

	unread, err := insights.ListInsights(ctx, userID, true)
	if err != nil {
		return res, fmt.Errorf("SyncInsights: list insights: %w", err)
	}

	existing, err := existingIDs(ctx, notionClient, notionDBID, PropInsightID)
	if err != nil {
		return res, fmt.Errorf("SyncInsights: %w", err)
	}

	log.Info().
		Str("user_id", userID).
		Int("unread", len(unread)).
		Int("notion_pages", len(existing)).
		Bool("dry_run", dryRun).
		Msg("Starting insight sync to Notion")

	for _, in := range unread {
		if existing[in.ID] {
			res.Skipped++
			continue
		}
		if dryRun {
			log.Info().Str("insight_id", in.ID).Msg("[DRY RUN] Would create Notion page")
			res.Created++
			continue
		}

		page, err := notionClient.CreatePage(ctx, notionDBID, InsightToNotionProperties(in))
		if err != nil {
			log.Warn().Err(err).Str("insight_id", in.ID).Msg("Failed to create Notion page")
			res.Failed++
			continue
		}
		log.Debug().Str("insight_id", in.ID).Str("page_id", string(page.ID)).Msg("Created Notion page")
		res.Created++
	}

	log.Info().
		Int("created", res.Created).
		Int("skipped", res.Skipped).
		Int("failed", res.Failed).
		Msg("Insight sync completed")
	return res, nil
}

// PushAlert creates a page for an alert unless one with the same Alert ID
// exists. It reports whether a page was created.
func PushAlert(ctx context.Context, notionClient NotionService, notionDBID string, alert domain.RiskAlert) (bool, error) {
	existing, err := existingIDs(ctx, notionClient, notionDBID, PropAlertID)
	if err != nil {
		return false, fmt.Errorf("PushAlert: %w", err)
	}
	if existing[alert.ID] {
		return false, nil
	}

	if _, err := notionClient.CreatePage(ctx, notionDBID, AlertToNotionProperties(alert)); err != nil {
		return false, fmt.Errorf("PushAlert: %w", err)
	}
	return true, nil
}

// existingIDs collects the values of an id property across every page of
// a database.
func existingIDs(ctx context.Context, notionClient NotionService, databaseID, prop string) (map[string]bool, error) {
	pages, err := queryAllNotionPages(ctx, notionClient, databaseID)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool, len(pages))
	for _, page := range pages {
		if id := pageRichText(page, prop); id != "" {
			ids[id] = true
		}
	}
	return ids, nil
}

func queryAllNotionPages(ctx context.Context, notionClient NotionService, databaseID string) ([]notionapi.Page, error) {
	var allPages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize: 100,
		}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notionClient.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllNotionPages: %w", err)
		}
		allPages = append(allPages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}
	return allPages, nil
}
