package interfaces

import (
	"context"

	"content-pipeline/shared/models"
)

// ContentRepository stores generated content items.
type ContentRepository interface {
	Create(ctx context.Context, querier DBTX, item *models.ContentItem) error
	Get(ctx context.Context, querier DBTX, accountID, contentID string) (*models.ContentItem, error)
	// UpdateStatus moves the item only if it is still in from.
	UpdateStatus(ctx context.Context, querier DBTX, accountID, contentID string, from, to models.ContentStatus) (*models.ContentItem, error)
	ListByStory(ctx context.Context, querier DBTX, accountID string, storyID int64) ([]models.ContentItem, error)
}

// StoryRepository reads source articles and records submitted URLs.
type StoryRepository interface {
	Get(ctx context.Context, querier DBTX, accountID string, storyID int64) (*models.Story, error)
	// ListUnprocessed returns stories without generated content, most relevant first.
	ListUnprocessed(ctx context.Context, querier DBTX, accountID string, limit int) ([]models.Story, error)
	CreateSubmitted(ctx context.Context, querier DBTX, accountID string, urls []string) ([]int64, error)
}

// SourceIngestor refreshes one configured news source. Scraping lives outside this module.
type SourceIngestor interface {
	Refresh(ctx context.Context, accountID, sourceID string) (aggregated int, err error)
}
