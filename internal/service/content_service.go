package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"content-pipeline/internal/account"
	"content-pipeline/shared/interfaces"
	"content-pipeline/shared/models"
)

// ContentService reads content items and moves them through the review lifecycle.
type ContentService interface {
	Get(ctx context.Context, contentID string) (*models.ContentItem, error)
	ListByStory(ctx context.Context, storyID int64) ([]models.ContentItem, error)
	UpdateStatus(ctx context.Context, contentID string, to models.ContentStatus) (*models.ContentItem, error)
}

type contentServiceImpl struct {
	db     interfaces.DBTX
	repo   interfaces.ContentRepository
	logger *zap.Logger
}

func NewContentService(db interfaces.DBTX, repo interfaces.ContentRepository, logger *zap.Logger) ContentService {
	return &contentServiceImpl{db: db, repo: repo, logger: logger.Named("ContentService")}
}

func (s *contentServiceImpl) Get(ctx context.Context, contentID string) (*models.ContentItem, error) {
	id, err := account.RequirePermission(ctx, account.PermJobsRead)
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, s.db, id.AccountID, contentID)
}

func (s *contentServiceImpl) ListByStory(ctx context.Context, storyID int64) ([]models.ContentItem, error) {
	id, err := account.RequirePermission(ctx, account.PermJobsRead)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByStory(ctx, s.db, id.AccountID, storyID)
}

// UpdateStatus applies one edge of the lifecycle graph. The write is
// conditional on the status read, so a concurrent change surfaces as
// ErrInvalidTransition.
func (s *contentServiceImpl) UpdateStatus(ctx context.Context, contentID string, to models.ContentStatus) (*models.ContentItem, error) {
	id, err := account.RequirePermission(ctx, account.PermContentReview)
	if err != nil {
		return nil, err
	}
	if !to.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", models.ErrInvalidInput, to)
	}
	current, err := s.repo.Get(ctx, s.db, id.AccountID, contentID)
	if err != nil {
		return nil, err
	}
	if !models.CanTransitionContent(current.Status, to) {
		return nil, fmt.Errorf("%w: content %s -> %s", models.ErrInvalidTransition, current.Status, to)
	}
	updated, err := s.repo.UpdateStatus(ctx, s.db, id.AccountID, contentID, current.Status, to)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Content status changed",
		zap.String("account_id", id.AccountID),
		zap.String("content_id", contentID),
		zap.String("from", string(current.Status)),
		zap.String("to", string(to)),
	)
	return updated, nil
}
