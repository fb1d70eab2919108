package interfaces

import (
	"context"

	"content-pipeline/shared/models"
)

// TemplateRepository stores templates, versions and the legacy prompt mirror.
type TemplateRepository interface {
	CreateTemplate(ctx context.Context, querier DBTX, t *models.Template) error
	GetTemplate(ctx context.Context, querier DBTX, accountID, templateID string) (*models.Template, error)
	// LockTemplate reads the template with a row lock held until the transaction ends.
	LockTemplate(ctx context.Context, tx DBTX, accountID, templateID string) (*models.Template, error)
	GetTemplateByCategory(ctx context.Context, querier DBTX, accountID string, category models.PromptCategory) (*models.Template, error)
	ListTemplates(ctx context.Context, querier DBTX, accountID string) ([]models.TemplateSummary, error)
	TouchTemplate(ctx context.Context, tx DBTX, templateID, currentVersionID string) error

	// InsertVersion assigns version_number = max+1 and fills v.VersionNumber.
	InsertVersion(ctx context.Context, tx DBTX, v *models.TemplateVersion) error
	ClearCurrent(ctx context.Context, tx DBTX, templateID string) error
	MarkCurrent(ctx context.Context, tx DBTX, templateID, versionID string) error
	GetVersion(ctx context.Context, querier DBTX, templateID, versionID string) (*models.TemplateVersion, error)
	GetCurrentVersion(ctx context.Context, querier DBTX, templateID string) (*models.TemplateVersion, error)
	ListVersions(ctx context.Context, querier DBTX, templateID string) ([]models.TemplateVersion, error)
	IncrementUsage(ctx context.Context, querier DBTX, versionID string) error

	UpsertLegacyPrompt(ctx context.Context, tx DBTX, p *models.LegacyPrompt) error
	GetLegacyPrompt(ctx context.Context, querier DBTX, accountID string, category models.PromptCategory) (*models.LegacyPrompt, error)
}

// GenerationLogRepository stores the append-only generation log.
type GenerationLogRepository interface {
	Insert(ctx context.Context, querier DBTX, l *models.GenerationLog) error
	AttachContent(ctx context.Context, querier DBTX, accountID, logID, contentID string) error
	ListByTemplate(ctx context.Context, querier DBTX, accountID, templateID string, limit int) ([]models.GenerationLog, error)
	StatsByTemplate(ctx context.Context, querier DBTX, accountID, templateID string) ([]models.VersionStats, error)
}

// GenerationDefaultsRepository stores the per-account text generation defaults row.
type GenerationDefaultsRepository interface {
	Get(ctx context.Context, querier DBTX, accountID string) (*models.GenerationDefaults, error)
	Upsert(ctx context.Context, querier DBTX, d *models.GenerationDefaults) error
}
