package notionsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
)

// pageSize is the largest page size the Notion query API accepts.
const pageSize = 100

// NotionClient is the NotionService backed by the Notion API, bound to one
// recommendation board database.
type NotionClient struct {
	client     *notionapi.Client
	databaseID notionapi.DatabaseID
}

// NewNotionClient creates a client for the board database using the API token.
func NewNotionClient(token, databaseID string) *NotionClient {
	return &NotionClient{
		client:     notionapi.NewClient(notionapi.Token(token)),
		databaseID: notionapi.DatabaseID(databaseID),
	}
}

// CreatePage adds a page to the board.
func (n *NotionClient) CreatePage(ctx context.Context, properties notionapi.Properties) (*notionapi.Page, error) {
	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: n.databaseID,
		},
		Properties: properties,
	}

	page, err := n.client.Page.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("CreatePage: %w", err)
	}
	return page, nil
}

// UpdatePage replaces the given properties of a board page.
func (n *NotionClient) UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) error {
	req := &notionapi.PageUpdateRequest{
		Properties: properties,
	}
	if _, err := n.client.Page.Update(ctx, notionapi.PageID(pageID), req); err != nil {
		return fmt.Errorf("UpdatePage: %w", err)
	}
	return nil
}

// ListPages returns every page of the board, following pagination cursors.
func (n *NotionClient) ListPages(ctx context.Context) ([]notionapi.Page, error) {
	var pages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{PageSize: pageSize}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := n.client.Database.Query(ctx, n.databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("ListPages: %w", err)
		}
		pages = append(pages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}
	return pages, nil
}

// ArchivePage archives a board page by setting its archived property to true.
func (n *NotionClient) ArchivePage(ctx context.Context, pageID string) error {
	req := &notionapi.PageUpdateRequest{
		Archived: true,
	}
	if _, err := n.client.Page.Update(ctx, notionapi.PageID(pageID), req); err != nil {
		return fmt.Errorf("ArchivePage: %w", err)
	}
	return nil
}

var _ NotionService = (*NotionClient)(nil)
