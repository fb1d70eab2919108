package interfaces

import (
	"context"
	"time"

	"content-pipeline/shared/models"
)

// ImageRepository stores image generation records.
type ImageRepository interface {
	CreateMany(ctx context.Context, querier DBTX, records []models.ImageRecord) error
	Get(ctx context.Context, querier DBTX, accountID, imageID string) (*models.ImageRecord, error)
	UpdateStatus(ctx context.Context, querier DBTX, accountID, imageID string, from, to models.ImageStatus) (*models.ImageRecord, error)
	ListByContent(ctx context.Context, querier DBTX, accountID, contentID string) ([]models.ImageRecord, error)
}

// ImageSettingsRepository stores the per-account image settings row.
type ImageSettingsRepository interface {
	Get(ctx context.Context, querier DBTX, accountID string) (*models.ImageSettings, error)
	// LockForUpdate creates the row when missing and reads it with a row lock
	// held until the transaction ends.
	LockForUpdate(ctx context.Context, tx DBTX, accountID string) (*models.ImageSettings, error)
	Upsert(ctx context.Context, querier DBTX, settings *models.ImageSettings) error
}

// ImageSettingsCache is a read-through cache in front of ImageSettingsRepository.
type ImageSettingsCache interface {
	Get(ctx context.Context, accountID string) (*models.ImageSettings, bool, error)
	Set(ctx context.Context, settings *models.ImageSettings, ttl time.Duration) error
	Invalidate(ctx context.Context, accountID string) error
}
