package notionsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/dvloznov/finance-advisor/internal/logger"
)

// SyncResult counts the page operations of one sync. In dry-run mode the
// counts are what would have happened.
type SyncResult struct {
	Created   int
	Updated   int
	Archived  int
	Unchanged int
	Failed    int
}

// SyncRecommendations mirrors a household's recommendation actions onto the
// board. Pages are matched by action ID: missing actions get a page, pages
// whose status lags the ledger are updated, and pages of the household with
// no matching action (or duplicating one) are archived. Pages of other
// households are never touched. Individual page failures are logged and
// counted; only listing failures abort the sync.
func SyncRecommendations(ctx context.Context, source ActionSource, board NotionService, householdID string, dryRun bool) (SyncResult, error) {
	var result SyncResult
	if err := domain.RequireHousehold(householdID); err != nil {
		return result, err
	}

	log := logger.WithHousehold(logger.FromContext(ctx), householdID)
	log.Info().Bool("dry_run", dryRun).Msg("Starting recommendation sync to Notion")

	actions, err := source.ListActions(ctx, householdID, 0)
	if err != nil {
		return result, fmt.Errorf("SyncRecommendations: listing actions: %w", err)
	}
	log.Info().Int("action_count", len(actions)).Msg("Retrieved recommendation actions")

	pages, err := board.ListPages(ctx)
	if err != nil {
		return result, fmt.Errorf("SyncRecommendations: listing pages: %w", err)
	}
	log.Info().Int("notion_page_count", len(pages)).Msg("Retrieved existing Notion pages")

	valid := make(map[string]bool, len(actions))
	for _, a := range actions {
		valid[a.ID] = true
	}

	existing := make(map[string]notionapi.Page)
	var stale []notionapi.Page
	for _, page := range pages {
		if extractRichText(page, PropHousehold) != householdID {
			continue
		}
		actionID := extractRichText(page, PropActionID)
		if _, dup := existing[actionID]; dup || actionID == "" || !valid[actionID] {
			stale = append(stale, page)
			continue
		}
		existing[actionID] = page
	}

	for _, page := range stale {
		plog := log.With().Str("page_id", string(page.ID)).Logger()
		if dryRun {
			plog.Info().Msg("[DRY RUN] Would archive stale Notion page")
			result.Archived++
			continue
		}
		if err := board.ArchivePage(ctx, string(page.ID)); err != nil {
			plog.Warn().Err(err).Msg("Failed to archive stale Notion page")
			result.Failed++
			continue
		}
		plog.Info().Msg("Archived stale Notion page")
		result.Archived++
	}

	for _, a := range actions {
		alog := log.With().Str("action_id", a.ID).Str("type", a.Type).Logger()
		props := RecommendationToNotionProperties(a)

		page, ok := existing[a.ID]
		switch {
		case ok && extractSelect(page, PropStatus) == string(a.Status):
			result.Unchanged++

		case ok:
			if dryRun {
				alog.Info().Str("page_id", string(page.ID)).Msg("[DRY RUN] Would update Notion page")
				result.Updated++
				continue
			}
			if err := board.UpdatePage(ctx, string(page.ID), props); err != nil {
				alog.Warn().Err(err).Str("page_id", string(page.ID)).Msg("Failed to update Notion page")
				result.Failed++
				continue
			}
			alog.Info().Str("page_id", string(page.ID)).Msg("Updated Notion page")
			result.Updated++

		default:
			if dryRun {
				alog.Info().Msg("[DRY RUN] Would create Notion page")
				result.Created++
				continue
			}
			created, err := board.CreatePage(ctx, props)
			if err != nil {
				alog.Warn().Err(err).Msg("Failed to create Notion page")
				result.Failed++
				continue
			}
			alog.Info().Str("page_id", string(created.ID)).Msg("Created Notion page")
			result.Created++
		}
	}

	log.Info().
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("archived", result.Archived).
		Int("unchanged", result.Unchanged).
		Int("failed", result.Failed).
		Msg("Recommendation sync completed")

	return result, nil
}
