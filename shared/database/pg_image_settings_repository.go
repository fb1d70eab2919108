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
	getImageSettingsQuery = `
        SELECT account_id, prompt_prefix, prompt_suffix, brand_colors, preferred_style_codes, defaults, updated_at
        FROM image_settings WHERE account_id = $1`
	ensureImageSettingsQuery = `
        INSERT INTO image_settings (account_id) VALUES ($1)
        ON CONFLICT (account_id) DO NOTHING`
	lockImageSettingsQuery = `
        SELECT account_id, prompt_prefix, prompt_suffix, brand_colors, preferred_style_codes, defaults, updated_at
        FROM image_settings WHERE account_id = $1
        FOR UPDATE`
	upsertImageSettingsQuery = `
        INSERT INTO image_settings (account_id, prompt_prefix, prompt_suffix, brand_colors, preferred_style_codes, defaults, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, now())
        ON CONFLICT (account_id) DO UPDATE
        SET prompt_prefix = EXCLUDED.prompt_prefix,
            prompt_suffix = EXCLUDED.prompt_suffix,
            brand_colors = EXCLUDED.brand_colors,
            preferred_style_codes = EXCLUDED.preferred_style_codes,
            defaults = EXCLUDED.defaults,
            updated_at = now()
        RETURNING updated_at`
)

type pgImageSettingsRepository struct {
	logger *zap.Logger
}

var _ interfaces.ImageSettingsRepository = (*pgImageSettingsRepository)(nil)

// NewPgImageSettingsRepository creates the PostgreSQL image settings repository.
func NewPgImageSettingsRepository(logger *zap.Logger) interfaces.ImageSettingsRepository {
	return &pgImageSettingsRepository{logger: logger.Named("PgImageSettingsRepo")}
}

// Get returns models.ErrNotFound when the account never saved settings.
func (r *pgImageSettingsRepository) Get(ctx context.Context, querier interfaces.DBTX, accountID string) (*models.ImageSettings, error) {
	var s models.ImageSettings
	if err := pgxscan.Get(ctx, querier, &s, getImageSettingsQuery, accountID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get image settings: %w", err)
	}
	return &s, nil
}

func (r *pgImageSettingsRepository) LockForUpdate(ctx context.Context, tx interfaces.DBTX, accountID string) (*models.ImageSettings, error) {
	if _, err := tx.Exec(ctx, ensureImageSettingsQuery, accountID); err != nil {
		return nil, fmt.Errorf("failed to create image settings row: %w", err)
	}
	var s models.ImageSettings
	if err := pgxscan.Get(ctx, tx, &s, lockImageSettingsQuery, accountID); err != nil {
		return nil, fmt.Errorf("failed to lock image settings: %w", err)
	}
	return &s, nil
}

func (r *pgImageSettingsRepository) Upsert(ctx context.Context, querier interfaces.DBTX, s *models.ImageSettings) error {
	if s.BrandColors == nil {
		s.BrandColors = []models.BrandColorTemplate{}
	}
	if s.PreferredStyleCodes == nil {
		s.PreferredStyleCodes = []string{}
	}
	err := querier.QueryRow(ctx, upsertImageSettingsQuery,
		s.AccountID, s.PromptPrefix, s.PromptSuffix, s.BrandColors, s.PreferredStyleCodes, s.Defaults,
	).Scan(&s.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to upsert image settings", zap.String("account_id", s.AccountID), zap.Error(err))
		return fmt.Errorf("failed to upsert image settings: %w", err)
	}
	return nil
}
