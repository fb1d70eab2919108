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
	imageColumns     = `id, account_id, content_id, job_id, provider, model_version, prompt_user, prompt_final, parameters, result_url, alt_text, seed, resolution, cost_estimate, is_safe, status, created_at, updated_at`
	insertImageQuery = `
        INSERT INTO image_records (id, account_id, content_id, job_id, provider, model_version, prompt_user, prompt_final,
                                   parameters, result_url, alt_text, seed, resolution, cost_estimate, is_safe, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, now(), now())
        RETURNING created_at, updated_at`
	getImageQuery          = `SELECT ` + imageColumns + ` FROM image_records WHERE account_id = $1 AND id = $2`
	updateImageStatusQuery = `
        UPDATE image_records SET status = $4, updated_at = now()
        WHERE account_id = $1 AND id = $2 AND status = $3
        RETURNING ` + imageColumns
	listImagesByContentQuery = `SELECT ` + imageColumns + ` FROM image_records WHERE account_id = $1 AND content_id = $2 ORDER BY created_at`
)

type pgImageRepository struct {
	logger *zap.Logger
}

var _ interfaces.ImageRepository = (*pgImageRepository)(nil)

// NewPgImageRepository creates the PostgreSQL image record repository.
func NewPgImageRepository(logger *zap.Logger) interfaces.ImageRepository {
	return &pgImageRepository{logger: logger.Named("PgImageRepo")}
}

// CreateMany inserts all records or none; call it inside a transaction.
func (r *pgImageRepository) CreateMany(ctx context.Context, querier interfaces.DBTX, records []models.ImageRecord) error {
	for i := range records {
		rec := &records[i]
		if rec.Status == "" {
			rec.Status = models.ImageStatusPendingReview
		}
		params := rec.Parameters
		if len(params) == 0 {
			params = []byte(`{}`)
		}
		err := querier.QueryRow(ctx, insertImageQuery,
			rec.ID, rec.AccountID, rec.ContentID, rec.JobID, rec.Provider, rec.ModelVersion, rec.PromptUser, rec.PromptFinal,
			params, rec.ResultURL, rec.AltText, rec.Seed, rec.Resolution, rec.CostEstimateUSD, rec.IsSafe, rec.Status,
		).Scan(&rec.CreatedAt, &rec.UpdatedAt)
		if err != nil {
			r.logger.Error("Failed to insert image record", zap.String("image_id", rec.ID), zap.Error(err))
			return fmt.Errorf("failed to insert image record: %w", err)
		}
	}
	return nil
}

func (r *pgImageRepository) Get(ctx context.Context, querier interfaces.DBTX, accountID, imageID string) (*models.ImageRecord, error) {
	var rec models.ImageRecord
	if err := pgxscan.Get(ctx, querier, &rec, getImageQuery, accountID, imageID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get image %s: %w", imageID, err)
	}
	return &rec, nil
}

func (r *pgImageRepository) UpdateStatus(ctx context.Context, querier interfaces.DBTX, accountID, imageID string, from, to models.ImageStatus) (*models.ImageRecord, error) {
	var rec models.ImageRecord
	err := pgxscan.Get(ctx, querier, &rec, updateImageStatusQuery, accountID, imageID, from, to)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := r.Get(ctx, querier, accountID, imageID); getErr != nil {
				return nil, getErr
			}
			return nil, fmt.Errorf("%w: image %s is no longer %s", models.ErrInvalidTransition, imageID, from)
		}
		return nil, fmt.Errorf("failed to update image status: %w", err)
	}
	return &rec, nil
}

func (r *pgImageRepository) ListByContent(ctx context.Context, querier interfaces.DBTX, accountID, contentID string) ([]models.ImageRecord, error) {
	records := []models.ImageRecord{}
	if err := pgxscan.Select(ctx, querier, &records, listImagesByContentQuery, accountID, contentID); err != nil {
		return nil, fmt.Errorf("failed to list images for content %s: %w", contentID, err)
	}
	return records, nil
}
