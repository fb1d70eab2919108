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
	getGenerationDefaultsQuery = `
        SELECT account_id, model, temperature, max_tokens, variables, updated_at
        FROM generation_defaults WHERE account_id = $1`
	upsertGenerationDefaultsQuery = `
        INSERT INTO generation_defaults (account_id, model, temperature, max_tokens, variables, updated_at)
        VALUES ($1, $2, $3, $4, $5, now())
        ON CONFLICT (account_id) DO UPDATE
        SET model = EXCLUDED.model,
            temperature = EXCLUDED.temperature,
            max_tokens = EXCLUDED.max_tokens,
            variables = EXCLUDED.variables,
            updated_at = now()
        RETURNING updated_at`
)

type pgGenerationDefaultsRepository struct {
	logger *zap.Logger
}

var _ interfaces.GenerationDefaultsRepository = (*pgGenerationDefaultsRepository)(nil)

// NewPgGenerationDefaultsRepository creates the PostgreSQL generation defaults repository.
func NewPgGenerationDefaultsRepository(logger *zap.Logger) interfaces.GenerationDefaultsRepository {
	return &pgGenerationDefaultsRepository{logger: logger.Named("PgGenerationDefaultsRepo")}
}

// Get returns models.ErrNotFound when the account never saved defaults.
func (r *pgGenerationDefaultsRepository) Get(ctx context.Context, querier interfaces.DBTX, accountID string) (*models.GenerationDefaults, error) {
	var d models.GenerationDefaults
	if err := pgxscan.Get(ctx, querier, &d, getGenerationDefaultsQuery, accountID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get generation defaults: %w", err)
	}
	if d.Variables == nil {
		d.Variables = map[string]string{}
	}
	return &d, nil
}

func (r *pgGenerationDefaultsRepository) Upsert(ctx context.Context, querier interfaces.DBTX, d *models.GenerationDefaults) error {
	if d.Variables == nil {
		d.Variables = map[string]string{}
	}
	err := querier.QueryRow(ctx, upsertGenerationDefaultsQuery,
		d.AccountID, d.Model, d.Temperature, d.MaxTokens, d.Variables,
	).Scan(&d.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to upsert generation defaults", zap.String("account_id", d.AccountID), zap.Error(err))
		return fmt.Errorf("failed to upsert generation defaults: %w", err)
	}
	return nil
}
