package notionsync

import (
	"context"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/finance-advisor/internal/domain"
)

// NotionService is the recommendation board as seen by the sync.
// This interface enables mocking and testing of Notion operations.
type NotionService interface {
	// CreatePage adds a page with the given properties.
	CreatePage(ctx context.Context, properties notionapi.Properties) (*notionapi.Page, error)

	// UpdatePage replaces the given properties of an existing page.
	UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) error

	// ListPages returns all pages of the board.
	ListPages(ctx context.Context) ([]notionapi.Page, error)

	// ArchivePage archives a page.
	ArchivePage(ctx context.Context, pageID string) error
}

// ActionSource lists a household's recommendation actions.
type ActionSource interface {
	ListActions(ctx context.Context, householdID string, limit int) ([]domain.RecommendationAction, error)
}
