package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"content-pipeline/internal/account"
	"content-pipeline/shared/interfaces"
	"content-pipeline/shared/models"
)

const (
	versionTxAttempts   = 3
	defaultHistoryLimit = 50
)

// TemplateService manages templates, their immutable versions and the legacy prompt mirror.
type TemplateService interface {
	CreateTemplate(ctx context.Context, in models.NewTemplateInput) (*models.TemplateWithVersion, error)
	ListTemplates(ctx context.Context) ([]models.TemplateSummary, error)
	GetTemplate(ctx context.Context, templateID string) (*models.TemplateWithVersion, error)
	CreateVersion(ctx context.Context, templateID string, in models.NewVersionInput) (*models.TemplateVersion, error)
	SetCurrentVersion(ctx context.Context, templateID, versionID string) (*models.TemplateWithVersion, error)
	ListVersions(ctx context.Context, templateID string) ([]models.TemplateVersion, error)
	GetHistory(ctx context.Context, templateID string, limit int) ([]models.GenerationLog, error)
	GetStats(ctx context.Context, templateID string) ([]models.VersionStats, error)
}

type templateServiceImpl struct {
	db        interfaces.DBTX
	txm       interfaces.TxManager
	repo      interfaces.TemplateRepository
	genLogs   interfaces.GenerationLogRepository
	publisher interfaces.TemplateEventPublisher
	logger    *zap.Logger
}

// NewTemplateService creates the template store.
func NewTemplateService(
	db interfaces.DBTX,
	txm interfaces.TxManager,
	repo interfaces.TemplateRepository,
	genLogs interfaces.GenerationLogRepository,
	publisher interfaces.TemplateEventPublisher,
	logger *zap.Logger,
) TemplateService {
	return &templateServiceImpl{
		db:        db,
		txm:       txm,
		repo:      repo,
		genLogs:   genLogs,
		publisher: publisher,
		logger:    logger.Named("TemplateService"),
	}
}

func (s *templateServiceImpl) CreateTemplate(ctx context.Context, in models.NewTemplateInput) (*models.TemplateWithVersion, error) {
	id, err := account.RequirePermission(ctx, account.PermTemplatesWrite)
	if err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", models.ErrInvalidInput)
	}
	if !in.Category.IsKnown() {
		return nil, fmt.Errorf("%w: unknown category %q", models.ErrInvalidInput, in.Category)
	}
	if strings.TrimSpace(in.PromptContent) == "" {
		return nil, fmt.Errorf("%w: prompt_content is required", models.ErrInvalidInput)
	}

	tmpl := &models.Template{
		ID:          uuid.NewString(),
		AccountID:   id.AccountID,
		Name:        in.Name,
		Category:    in.Category,
		Description: in.Description,
	}
	notes := "initial version"
	version := &models.TemplateVersion{
		ID:            uuid.NewString(),
		TemplateID:    tmpl.ID,
		PromptContent: in.PromptContent,
		SystemMessage: in.SystemMessage,
		Notes:         &notes,
		CreatedBy:     id.UserID,
	}

	err = s.txm.WithTransaction(ctx, func(ctx context.Context, tx interfaces.DBTX) error {
		if err := s.repo.CreateTemplate(ctx, tx, tmpl); err != nil {
			return err
		}
		if err := s.repo.InsertVersion(ctx, tx, version); err != nil {
			return err
		}
		return s.promote(ctx, tx, tmpl, version)
	})
	if err != nil {
		s.logger.Error("Failed to create template", zap.String("account_id", id.AccountID), zap.String("category", string(in.Category)), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Template created",
		zap.String("account_id", id.AccountID),
		zap.String("template_id", tmpl.ID),
		zap.String("category", string(tmpl.Category)),
	)
	s.publish(ctx, interfaces.TemplateEventCreated, tmpl, version)
	return &models.TemplateWithVersion{Template: *tmpl, CurrentVersion: version}, nil
}

func (s *templateServiceImpl) ListTemplates(ctx context.Context) ([]models.TemplateSummary, error) {
	accountID, err := account.Scoped(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListTemplates(ctx, s.db, accountID)
}

func (s *templateServiceImpl) GetTemplate(ctx context.Context, templateID string) (*models.TemplateWithVersion, error) {
	accountID, err := account.Scoped(ctx)
	if err != nil {
		return nil, err
	}
	tmpl, err := s.repo.GetTemplate(ctx, s.db, accountID, templateID)
	if err != nil {
		return nil, err
	}
	out := &models.TemplateWithVersion{Template: *tmpl}
	if tmpl.CurrentVersionID != nil {
		current, err := s.repo.GetCurrentVersion(ctx, s.db, tmpl.ID)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		out.CurrentVersion = current
	}
	return out, nil
}

// CreateVersion appends version max+1 and makes it current. Lost races on the
// version number or the current flag are retried with a fresh transaction.
func (s *templateServiceImpl) CreateVersion(ctx context.Context, templateID string, in models.NewVersionInput) (*models.TemplateVersion, error) {
	id, err := account.RequirePermission(ctx, account.PermTemplatesWrite)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.PromptContent) == "" {
		return nil, fmt.Errorf("%w: prompt_content is required", models.ErrInvalidInput)
	}
	createdBy := in.CreatedBy
	if createdBy == "" {
		createdBy = id.UserID
	}

	var (
		tmpl    *models.Template
		version *models.TemplateVersion
	)
	err = s.retryTx(ctx, func(ctx context.Context, tx interfaces.DBTX) error {
		var err error
		tmpl, err = s.repo.LockTemplate(ctx, tx, id.AccountID, templateID)
		if err != nil {
			return err
		}
		version = &models.TemplateVersion{
			ID:            uuid.NewString(),
			TemplateID:    tmpl.ID,
			PromptContent: in.PromptContent,
			SystemMessage: in.SystemMessage,
			Notes:         in.Notes,
			CreatedBy:     createdBy,
		}
		if err := s.repo.InsertVersion(ctx, tx, version); err != nil {
			return err
		}
		return s.promote(ctx, tx, tmpl, version)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Template version created",
		zap.String("account_id", id.AccountID),
		zap.String("template_id", templateID),
		zap.String("version_id", version.ID),
		zap.Int("version_number", version.VersionNumber),
	)
	s.publish(ctx, interfaces.TemplateEventVersionCreated, tmpl, version)
	return version, nil
}

func (s *templateServiceImpl) SetCurrentVersion(ctx context.Context, templateID, versionID string) (*models.TemplateWithVersion, error) {
	id, err := account.RequirePermission(ctx, account.PermTemplatesWrite)
	if err != nil {
		return nil, err
	}

	var (
		tmpl    *models.Template
		version *models.TemplateVersion
	)
	err = s.retryTx(ctx, func(ctx context.Context, tx interfaces.DBTX) error {
		var err error
		tmpl, err = s.repo.LockTemplate(ctx, tx, id.AccountID, templateID)
		if err != nil {
			return err
		}
		// GetVersion filters by template, so a foreign version id is NotFound here.
		version, err = s.repo.GetVersion(ctx, tx, tmpl.ID, versionID)
		if err != nil {
			return err
		}
		return s.promote(ctx, tx, tmpl, version)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Template current version changed",
		zap.String("account_id", id.AccountID),
		zap.String("template_id", templateID),
		zap.String("version_id", versionID),
		zap.Int("version_number", version.VersionNumber),
	)
	s.publish(ctx, interfaces.TemplateEventCurrentChanged, tmpl, version)
	return &models.TemplateWithVersion{Template: *tmpl, CurrentVersion: version}, nil
}

func (s *templateServiceImpl) ListVersions(ctx context.Context, templateID string) ([]models.TemplateVersion, error) {
	tmpl, err := s.ownedTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListVersions(ctx, s.db, tmpl.ID)
}

func (s *templateServiceImpl) GetHistory(ctx context.Context, templateID string, limit int) ([]models.GenerationLog, error) {
	tmpl, err := s.ownedTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return s.genLogs.ListByTemplate(ctx, s.db, tmpl.AccountID, tmpl.ID, limit)
}

func (s *templateServiceImpl) GetStats(ctx context.Context, templateID string) ([]models.VersionStats, error) {
	tmpl, err := s.ownedTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	return s.genLogs.StatsByTemplate(ctx, s.db, tmpl.AccountID, tmpl.ID)
}

func (s *templateServiceImpl) ownedTemplate(ctx context.Context, templateID string) (*models.Template, error) {
	accountID, err := account.Scoped(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.GetTemplate(ctx, s.db, accountID, templateID)
}

// promote makes version the single current version of tmpl and mirrors it
// into the legacy row. The current flag is cleared before it is set because
// the one-current index is checked per statement.
func (s *templateServiceImpl) promote(ctx context.Context, tx interfaces.DBTX, tmpl *models.Template, version *models.TemplateVersion) error {
	if err := s.repo.ClearCurrent(ctx, tx, tmpl.ID); err != nil {
		return err
	}
	if err := s.repo.MarkCurrent(ctx, tx, tmpl.ID, version.ID); err != nil {
		return err
	}
	if err := s.repo.TouchTemplate(ctx, tx, tmpl.ID, version.ID); err != nil {
		return err
	}
	version.IsCurrent = true
	tmpl.CurrentVersionID = &version.ID
	tmpl.UpdatedAt = time.Now().UTC()

	return s.repo.UpsertLegacyPrompt(ctx, tx, &models.LegacyPrompt{
		AccountID:     tmpl.AccountID,
		Category:      tmpl.Category,
		PromptContent: version.PromptContent,
		SystemMessage: version.SystemMessage,
		TemplateID:    tmpl.ID,
		VersionID:     version.ID,
	})
}

func (s *templateServiceImpl) retryTx(ctx context.Context, fn func(ctx context.Context, tx interfaces.DBTX) error) error {
	var err error
	for attempt := 1; attempt <= versionTxAttempts; attempt++ {
		err = s.txm.WithTransaction(ctx, fn)
		if !errors.Is(err, models.ErrDuplicateVersionNumber) && !errors.Is(err, models.ErrConflictingCurrent) {
			return err
		}
		s.logger.Warn("Template transaction conflict, retrying", zap.Int("attempt", attempt), zap.Error(err))
	}
	return err
}

func (s *templateServiceImpl) publish(ctx context.Context, eventType interfaces.TemplateEventType, tmpl *models.Template, version *models.TemplateVersion) {
	if s.publisher == nil {
		return
	}
	event := interfaces.TemplateEvent{
		EventType:     eventType,
		AccountID:     tmpl.AccountID,
		TemplateID:    tmpl.ID,
		VersionID:     version.ID,
		VersionNumber: version.VersionNumber,
		Category:      tmpl.Category,
		OccurredAt:    time.Now().UTC(),
	}
	if err := s.publisher.PublishTemplateEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish template event",
			zap.String("template_id", tmpl.ID),
			zap.String("event_type", string(eventType)),
			zap.Error(err),
		)
	}
}
