package database

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"go.uber.org/zap"

	"content-pipeline/shared/interfaces"
	"content-pipeline/shared/models"
)

const (
	insertGenerationLogQuery = `
        INSERT INTO generation_logs (id, account_id, template_id, version_id, job_id, content_id, ai_service, model_used,
                                     tokens_used, generation_time_ms, cost_estimate_usd, success, error, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now())
        RETURNING created_at`
	attachContentQuery     = `UPDATE generation_logs SET content_id = $3 WHERE account_id = $1 AND id = $2`
	listGenerationLogQuery = `
        SELECT id, account_id, template_id, version_id, job_id, content_id, ai_service, model_used, tokens_used,
               generation_time_ms, cost_estimate_usd, success, error, created_at
        FROM generation_logs
        WHERE account_id = $1 AND template_id = $2
        ORDER BY created_at DESC
        LIMIT $3`
	versionStatsQuery = `
        SELECT v.id AS version_id, v.version_number, v.usage_count, v.is_current,
               COUNT(l.id) AS generations,
               COUNT(l.id) FILTER (WHERE l.success) AS successes,
               COUNT(l.id) FILTER (WHERE NOT l.success) AS failures,
               COALESCE(SUM(l.tokens_used), 0) AS total_tokens,
               COALESCE(AVG(l.generation_time_ms), 0)::float8 AS avg_time_ms,
               COALESCE(SUM(l.cost_estimate_usd), 0)::float8 AS total_cost_usd
        FROM prompt_template_versions v
        JOIN prompt_templates t ON t.id = v.template_id
        LEFT JOIN generation_logs l ON l.version_id = v.id AND l.account_id = t.account_id
        WHERE t.account_id = $1 AND v.template_id = $2
        GROUP BY v.id, v.version_number, v.usage_count, v.is_current
        ORDER BY v.version_number DESC`
)

type pgGenerationLogRepository struct {
	logger *zap.Logger
}

var _ interfaces.GenerationLogRepository = (*pgGenerationLogRepository)(nil)

// NewPgGenerationLogRepository creates the PostgreSQL generation log repository.
func NewPgGenerationLogRepository(logger *zap.Logger) interfaces.GenerationLogRepository {
	return &pgGenerationLogRepository{logger: logger.Named("PgGenerationLogRepo")}
}

func (r *pgGenerationLogRepository) Insert(ctx context.Context, querier interfaces.DBTX, l *models.GenerationLog) error {
	if l.TokensUsed < 0 {
		l.TokensUsed = 0
	}
	err := querier.QueryRow(ctx, insertGenerationLogQuery,
		l.ID, l.AccountID, l.TemplateID, l.VersionID, l.JobID, l.ContentID, l.AIService, l.ModelUsed,
		l.TokensUsed, l.GenerationTimeMs, l.CostEstimateUSD, l.Success, l.Error,
	).Scan(&l.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert generation log", zap.String("log_id", l.ID), zap.Error(err))
		return fmt.Errorf("failed to insert generation log: %w", err)
	}
	return nil
}

func (r *pgGenerationLogRepository) AttachContent(ctx context.Context, querier interfaces.DBTX, accountID, logID, contentID string) error {
	tag, err := querier.Exec(ctx, attachContentQuery, accountID, logID, contentID)
	if err != nil {
		return fmt.Errorf("failed to link generation log to content: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *pgGenerationLogRepository) ListByTemplate(ctx context.Context, querier interfaces.DBTX, accountID, templateID string, limit int) ([]models.GenerationLog, error) {
	if limit <= 0 {
		limit = 50
	}
	logs := []models.GenerationLog{}
	if err := pgxscan.Select(ctx, querier, &logs, listGenerationLogQuery, accountID, templateID, limit); err != nil {
		return nil, fmt.Errorf("failed to list generation logs: %w", err)
	}
	return logs, nil
}

func (r *pgGenerationLogRepository) StatsByTemplate(ctx context.Context, querier interfaces.DBTX, accountID, templateID string) ([]models.VersionStats, error) {
	stats := []models.VersionStats{}
	if err := pgxscan.Select(ctx, querier, &stats, versionStatsQuery, accountID, templateID); err != nil {
		return nil, fmt.Errorf("failed to aggregate version stats: %w", err)
	}
	return stats, nil
}
