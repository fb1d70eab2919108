package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"content-pipeline/internal/mocks"
	"content-pipeline/internal/service"
	"content-pipeline/shared/models"
)

func TestContentStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to models.ContentStatus
		ok       bool
	}{
		{models.ContentStatusDraft, models.ContentStatusReviewPending, true},
		{models.ContentStatusDraft, models.ContentStatusPublished, false},
		{models.ContentStatusDraft, models.ContentStatusRejected, true},
		{models.ContentStatusRejected, models.ContentStatusApproved, false},
		{models.ContentStatusReviewPending, models.ContentStatusApproved, true},
		{models.ContentStatusReviewPending, models.ContentStatusRejected, true},
		{models.ContentStatusRejected, models.ContentStatusReviewPending, true},
		{models.ContentStatusApproved, models.ContentStatusPublished, true},
		{models.ContentStatusPublished, models.ContentStatusDraft, false},
		{models.ContentStatusArchived, models.ContentStatusApproved, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			repo := mocks.NewMockContentRepository(t)
			svc := service.NewContentService(nil, repo, zap.NewNop())
			repo.On("Get", mock.Anything, mock.Anything, testAccount, "c-1").Return(&models.ContentItem{ID: "c-1", Status: tt.from}, nil).Once()
			if tt.ok {
				repo.On("UpdateStatus", mock.Anything, mock.Anything, testAccount, "c-1", tt.from, tt.to).
					Return(&models.ContentItem{ID: "c-1", Status: tt.to}, nil).Once()
			}

			item, err := svc.UpdateStatus(editorCtx(), "c-1", tt.to)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, tt.to, item.Status)
			} else {
				assert.ErrorIs(t, err, models.ErrInvalidTransition)
			}
		})
	}
}

func TestContentStatusRequiresReviewPermission(t *testing.T) {
	svc := service.NewContentService(nil, mocks.NewMockContentRepository(t), zap.NewNop())

	_, err := svc.UpdateStatus(viewerCtx(), "c-1", models.ContentStatusApproved)
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = svc.UpdateStatus(editorCtx(), "c-1", "deleted")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}
