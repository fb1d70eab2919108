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
	storyColumns         = `id, account_id, title, full_text, url, source_name, publication_date, relevance_score, keywords`
	getStoryQuery        = `SELECT ` + storyColumns + ` FROM stories WHERE account_id = $1 AND id = $2`
	listUnprocessedQuery = `
        SELECT ` + storyColumns + ` FROM stories s
        WHERE s.account_id = $1
          AND s.full_text <> ''
          AND NOT EXISTS (SELECT 1 FROM content_items c WHERE c.account_id = s.account_id AND c.story_id = s.id)
        ORDER BY s.relevance_score DESC, s.id
        LIMIT $2`
	insertSubmittedQuery = `
        INSERT INTO stories (account_id, title, url, source_name)
        SELECT $1, u, u, 'submitted' FROM unnest($2::text[]) AS u
        ON CONFLICT (account_id, url) DO NOTHING
        RETURNING id`
)

type pgStoryRepository struct {
	logger *zap.Logger
}

var _ interfaces.StoryRepository = (*pgStoryRepository)(nil)

// NewPgStoryRepository creates the PostgreSQL story repository.
func NewPgStoryRepository(logger *zap.Logger) interfaces.StoryRepository {
	return &pgStoryRepository{logger: logger.Named("PgStoryRepo")}
}

func (r *pgStoryRepository) Get(ctx context.Context, querier interfaces.DBTX, accountID string, storyID int64) (*models.Story, error) {
	var s models.Story
	if err := pgxscan.Get(ctx, querier, &s, getStoryQuery, accountID, storyID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get story %d: %w", storyID, err)
	}
	return &s, nil
}

func (r *pgStoryRepository) ListUnprocessed(ctx context.Context, querier interfaces.DBTX, accountID string, limit int) ([]models.Story, error) {
	if limit <= 0 {
		limit = 5
	}
	stories := []models.Story{}
	if err := pgxscan.Select(ctx, querier, &stories, listUnprocessedQuery, accountID, limit); err != nil {
		return nil, fmt.Errorf("failed to list unprocessed stories: %w", err)
	}
	return stories, nil
}

func (r *pgStoryRepository) CreateSubmitted(ctx context.Context, querier interfaces.DBTX, accountID string, urls []string) ([]int64, error) {
	rows, err := querier.Query(ctx, insertSubmittedQuery, accountID, urls)
	if err != nil {
		return nil, fmt.Errorf("failed to insert submitted urls: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("failed to read submitted story ids: %w", err)
	}
	r.logger.Info("Submitted URLs stored", zap.String("account_id", accountID),
		zap.Int("submitted", len(urls)), zap.Int("new", len(ids)))
	return ids, nil
}
