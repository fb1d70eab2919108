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
	templateColumns = `id, account_id, name, category, description, current_version_id, created_at, updated_at`
	versionColumns  = `id, template_id, version_number, prompt_content, system_message, notes, created_by, created_at, is_current, usage_count`

	insertTemplateQuery = `
        INSERT INTO prompt_templates (id, account_id, name, category, description, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, now(), now())
        RETURNING created_at, updated_at`
	getTemplateQuery      = `SELECT ` + templateColumns + ` FROM prompt_templates WHERE account_id = $1 AND id = $2`
	lockTemplateQuery     = getTemplateQuery + ` FOR UPDATE`
	getTemplateByCategory = `SELECT ` + templateColumns + ` FROM prompt_templates WHERE account_id = $1 AND category = $2 AND current_version_id IS NOT NULL ORDER BY updated_at DESC LIMIT 1`
	listTemplatesQuery    = `
        SELECT t.id, t.name, t.category, t.description, t.current_version_id, t.updated_at,
               cv.version_number AS current_version_number,
               (SELECT COUNT(*) FROM prompt_template_versions v WHERE v.template_id = t.id) AS version_count
        FROM prompt_templates t
        LEFT JOIN prompt_template_versions cv ON cv.id = t.current_version_id
        WHERE t.account_id = $1
        ORDER BY t.category, t.name`
	touchTemplateQuery = `UPDATE prompt_templates SET current_version_id = $2, updated_at = now() WHERE id = $1`

	insertVersionQuery = `
        INSERT INTO prompt_template_versions (id, template_id, version_number, prompt_content, system_message, notes, created_by, created_at, is_current, usage_count)
        SELECT $1, $2, COALESCE(MAX(version_number), 0) + 1, $3, $4, $5, $6, now(), FALSE, 0
        FROM prompt_template_versions WHERE template_id = $2
        RETURNING version_number, created_at`
	clearCurrentQuery       = `UPDATE prompt_template_versions SET is_current = FALSE WHERE template_id = $1 AND is_current`
	markCurrentQuery        = `UPDATE prompt_template_versions SET is_current = TRUE WHERE template_id = $1 AND id = $2`
	getVersionQuery         = `SELECT ` + versionColumns + ` FROM prompt_template_versions WHERE template_id = $1 AND id = $2`
	getCurrentVersionQuery  = `SELECT ` + versionColumns + ` FROM prompt_template_versions WHERE template_id = $1 AND is_current`
	listVersionsQuery       = `SELECT ` + versionColumns + ` FROM prompt_template_versions WHERE template_id = $1 ORDER BY version_number DESC`
	incrementUsageQuery     = `UPDATE prompt_template_versions SET usage_count = usage_count + 1 WHERE id = $1`
	upsertLegacyPromptQuery = `
        INSERT INTO prompts_legacy (account_id, category, prompt_content, system_message, template_id, version_id, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, now())
        ON CONFLICT (account_id, category) DO UPDATE SET
            prompt_content = EXCLUDED.prompt_content,
            system_message = EXCLUDED.system_message,
            template_id    = EXCLUDED.template_id,
            version_id     = EXCLUDED.version_id,
            updated_at     = now()`
	getLegacyPromptQuery = `SELECT account_id, category, prompt_content, system_message, template_id, version_id, updated_at FROM prompts_legacy WHERE account_id = $1 AND category = $2`
)

type pgTemplateRepository struct {
	logger *zap.Logger
}

var _ interfaces.TemplateRepository = (*pgTemplateRepository)(nil)

// NewPgTemplateRepository creates the PostgreSQL template repository.
func NewPgTemplateRepository(logger *zap.Logger) interfaces.TemplateRepository {
	return &pgTemplateRepository{logger: logger.Named("PgTemplateRepo")}
}

func (r *pgTemplateRepository) CreateTemplate(ctx context.Context, querier interfaces.DBTX, t *models.Template) error {
	err := querier.QueryRow(ctx, insertTemplateQuery, t.ID, t.AccountID, t.Name, t.Category, t.Description).
		Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to insert template", zap.String("template_id", t.ID), zap.Error(err))
		return fmt.Errorf("failed to insert template: %w", err)
	}
	return nil
}

func (r *pgTemplateRepository) GetTemplate(ctx context.Context, querier interfaces.DBTX, accountID, templateID string) (*models.Template, error) {
	return r.getTemplate(ctx, querier, getTemplateQuery, accountID, templateID)
}

func (r *pgTemplateRepository) LockTemplate(ctx context.Context, tx interfaces.DBTX, accountID, templateID string) (*models.Template, error) {
	return r.getTemplate(ctx, tx, lockTemplateQuery, accountID, templateID)
}

func (r *pgTemplateRepository) getTemplate(ctx context.Context, querier interfaces.DBTX, query, accountID, templateID string) (*models.Template, error) {
	var t models.Template
	if err := pgxscan.Get(ctx, querier, &t, query, accountID, templateID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get template %s: %w", templateID, err)
	}
	return &t, nil
}

func (r *pgTemplateRepository) GetTemplateByCategory(ctx context.Context, querier interfaces.DBTX, accountID string, category models.PromptCategory) (*models.Template, error) {
	var t models.Template
	if err := pgxscan.Get(ctx, querier, &t, getTemplateByCategory, accountID, category); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get template by category %s: %w", category, err)
	}
	return &t, nil
}

func (r *pgTemplateRepository) ListTemplates(ctx context.Context, querier interfaces.DBTX, accountID string) ([]models.TemplateSummary, error) {
	summaries := []models.TemplateSummary{}
	if err := pgxscan.Select(ctx, querier, &summaries, listTemplatesQuery, accountID); err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return summaries, nil
}

func (r *pgTemplateRepository) TouchTemplate(ctx context.Context, tx interfaces.DBTX, templateID, currentVersionID string) error {
	tag, err := tx.Exec(ctx, touchTemplateQuery, templateID, currentVersionID)
	if err != nil {
		if _, ok := constraintViolation(err, pgForeignKeyViolation); ok {
			return fmt.Errorf("%w: version %s does not belong to template %s", models.ErrConflictingCurrent, currentVersionID, templateID)
		}
		return fmt.Errorf("failed to update template current version: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *pgTemplateRepository) InsertVersion(ctx context.Context, tx interfaces.DBTX, v *models.TemplateVersion) error {
	err := tx.QueryRow(ctx, insertVersionQuery, v.ID, v.TemplateID, v.PromptContent, v.SystemMessage, v.Notes, v.CreatedBy).
		Scan(&v.VersionNumber, &v.CreatedAt)
	if err != nil {
		if constraint, ok := constraintViolation(err, pgUniqueViolation); ok {
			r.logger.Warn("Concurrent version insert detected",
				zap.String("template_id", v.TemplateID), zap.String("constraint", constraint))
			return fmt.Errorf("%w: template %s", models.ErrDuplicateVersionNumber, v.TemplateID)
		}
		return fmt.Errorf("failed to insert template version: %w", err)
	}
	return nil
}

func (r *pgTemplateRepository) ClearCurrent(ctx context.Context, tx interfaces.DBTX, templateID string) error {
	if _, err := tx.Exec(ctx, clearCurrentQuery, templateID); err != nil {
		return fmt.Errorf("failed to clear current version: %w", err)
	}
	return nil
}

func (r *pgTemplateRepository) MarkCurrent(ctx context.Context, tx interfaces.DBTX, templateID, versionID string) error {
	tag, err := tx.Exec(ctx, markCurrentQuery, templateID, versionID)
	if err != nil {
		if _, ok := constraintViolation(err, pgUniqueViolation); ok {
			return fmt.Errorf("%w: template %s", models.ErrConflictingCurrent, templateID)
		}
		return fmt.Errorf("failed to mark current version: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *pgTemplateRepository) GetVersion(ctx context.Context, querier interfaces.DBTX, templateID, versionID string) (*models.TemplateVersion, error) {
	return r.getVersion(ctx, querier, getVersionQuery, templateID, versionID)
}

func (r *pgTemplateRepository) GetCurrentVersion(ctx context.Context, querier interfaces.DBTX, templateID string) (*models.TemplateVersion, error) {
	return r.getVersion(ctx, querier, getCurrentVersionQuery, templateID)
}

func (r *pgTemplateRepository) getVersion(ctx context.Context, querier interfaces.DBTX, query string, args ...any) (*models.TemplateVersion, error) {
	var v models.TemplateVersion
	if err := pgxscan.Get(ctx, querier, &v, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get template version: %w", err)
	}
	return &v, nil
}

func (r *pgTemplateRepository) ListVersions(ctx context.Context, querier interfaces.DBTX, templateID string) ([]models.TemplateVersion, error) {
	versions := []models.TemplateVersion{}
	if err := pgxscan.Select(ctx, querier, &versions, listVersionsQuery, templateID); err != nil {
		return nil, fmt.Errorf("failed to list template versions: %w", err)
	}
	return versions, nil
}

func (r *pgTemplateRepository) IncrementUsage(ctx context.Context, querier interfaces.DBTX, versionID string) error {
	if _, err := querier.Exec(ctx, incrementUsageQuery, versionID); err != nil {
		return fmt.Errorf("failed to increment usage count: %w", err)
	}
	return nil
}

func (r *pgTemplateRepository) UpsertLegacyPrompt(ctx context.Context, tx interfaces.DBTX, p *models.LegacyPrompt) error {
	_, err := tx.Exec(ctx, upsertLegacyPromptQuery, p.AccountID, p.Category, p.PromptContent, p.SystemMessage, p.TemplateID, p.VersionID)
	if err != nil {
		r.logger.Error("Failed to dual-write legacy prompt",
			zap.String("account_id", p.AccountID), zap.String("category", string(p.Category)), zap.Error(err))
		return fmt.Errorf("failed to upsert legacy prompt: %w", err)
	}
	return nil
}

func (r *pgTemplateRepository) GetLegacyPrompt(ctx context.Context, querier interfaces.DBTX, accountID string, category models.PromptCategory) (*models.LegacyPrompt, error) {
	var p models.LegacyPrompt
	if err := pgxscan.Get(ctx, querier, &p, getLegacyPromptQuery, accountID, category); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get legacy prompt: %w", err)
	}
	return &p, nil
}
