package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"content-pipeline/shared/interfaces"
	"content-pipeline/shared/models"
)

const (
	contentColumns     = `id, account_id, story_id, prompt_category, content_data, status, has_parse_error, created_at, updated_at`
	insertContentQuery = `
        INSERT INTO content_items (id, account_id, story_id, prompt_category, content_data, status, has_parse_error, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
        RETURNING created_at, updated_at`
	getContentQuery          = `SELECT ` + contentColumns + ` FROM content_items WHERE account_id = $1 AND id = $2`
	updateContentStatusQuery = `
        UPDATE content_items SET status = $4, updated_at = now()
        WHERE account_id = $1 AND id = $2 AND status = $3
        RETURNING ` + contentColumns
	listContentByStoryQuery = `SELECT ` + contentColumns + ` FROM content_items WHERE account_id = $1 AND story_id = $2 ORDER BY created_at`
)

type pgContentRepository struct {
	logger *zap.Logger
}

var _ interfaces.ContentRepository = (*pgContentRepository)(nil)

// NewPgContentRepository creates the PostgreSQL content repository.
func NewPgContentRepository(logger *zap.Logger) interfaces.ContentRepository {
	return &pgContentRepository{logger: logger.Named("PgContentRepo")}
}

func (r *pgContentRepository) Create(ctx context.Context, querier interfaces.DBTX, item *models.ContentItem) error {
	data := item.ContentData
	if len(data) == 0 {
		data = []byte(`{}`)
	}
	err := querier.QueryRow(ctx, insertContentQuery,
		item.ID, item.AccountID, item.StoryID, item.PromptCategory, data, item.Status, item.HasParseError,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to insert content item", zap.String("content_id", item.ID), zap.Error(err))
		return fmt.Errorf("failed to insert content item: %w", err)
	}
	return nil
}

func (r *pgContentRepository) Get(ctx context.Context, querier interfaces.DBTX, accountID, contentID string) (*models.ContentItem, error) {
	var item models.ContentItem
	if err := pgxscan.Get(ctx, querier, &item, getContentQuery, accountID, contentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get content item %s: %w", contentID, err)
	}
	return &item, nil
}

func (r *pgContentRepository) UpdateStatus(ctx context.Context, querier interfaces.DBTX, accountID, contentID string, from, to models.ContentStatus) (*models.ContentItem, error) {
	var item models.ContentItem
	err := pgxscan.Get(ctx, querier, &item, updateContentStatusQuery, accountID, contentID, from, to)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either missing or moved concurrently out of from.
			if _, getErr := r.Get(ctx, querier, accountID, contentID); getErr != nil {
				return nil, getErr
			}
			return nil, fmt.Errorf("%w: content %s is no longer %s", models.ErrInvalidTransition, contentID, from)
		}
		return nil, fmt.Errorf("failed to update content status: %w", err)
	}
	return &item, nil
}

func (r *pgContentRepository) ListByStory(ctx context.Context, querier interfaces.DBTX, accountID string, storyID int64) ([]models.ContentItem, error) {
	items := []models.ContentItem{}
	if err := pgxscan.Select(ctx, querier, &items, listContentByStoryQuery, accountID, storyID); err != nil {
		return nil, fmt.Errorf("failed to list content for story %d: %w", storyID, err)
	}
	return items, nil
}
