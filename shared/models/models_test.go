package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionContent(t *testing.T) {
	allowed := map[[2]ContentStatus]bool{
		{ContentStatusDraft, ContentStatusReviewPending}:    true,
		{ContentStatusDraft, ContentStatusRejected}:         true,
		{ContentStatusReviewPending, ContentStatusApproved}: true,
		{ContentStatusReviewPending, ContentStatusRejected}: true,
		{ContentStatusApproved, ContentStatusPublished}:     true,
		{ContentStatusApproved, ContentStatusArchived}:      true,
		{ContentStatusRejected, ContentStatusReviewPending}: true,
		{ContentStatusArchived, ContentStatusApproved}:      true,
	}
	all := []ContentStatus{
		ContentStatusDraft, ContentStatusReviewPending, ContentStatusApproved,
		ContentStatusPublished, ContentStatusRejected, ContentStatusArchived,
	}
	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]ContentStatus{from, to}], CanTransitionContent(from, to), "%s -> %s", from, to)
		}
	}
}

func TestCanTransitionImage(t *testing.T) {
	assert.True(t, CanTransitionImage(ImageStatusPendingReview, ImageStatusApproved))
	assert.True(t, CanTransitionImage(ImageStatusPendingReview, ImageStatusArchived))
	assert.True(t, CanTransitionImage(ImageStatusArchived, ImageStatusPendingReview))
	assert.False(t, CanTransitionImage(ImageStatusApproved, ImageStatusPendingReview))
	assert.False(t, CanTransitionImage(ImageStatusArchived, ImageStatusApproved))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(fmt.Errorf("%w: slow down", ErrRateLimited)))
	assert.True(t, IsRetryable(fmt.Errorf("call: %w", ErrTimeout)))
	assert.True(t, IsRetryable(ErrProviderUnavailable))
	assert.False(t, IsRetryable(ErrQuotaExceeded))
	assert.False(t, IsRetryable(errors.New("boom")))
	assert.False(t, IsRetryable(nil))
}

func TestJobResults_AddContent(t *testing.T) {
	var r JobResults
	r.AddContent(&ContentItem{ID: "c1", PromptCategory: CategorySocialMedia})
	r.AddContent(&ContentItem{ID: "c2", PromptCategory: CategoryBlogPost})
	r.AddContent(&ContentItem{ID: "c3", PromptCategory: CategoryBlogPost})

	assert.Equal(t, 3, r.ContentGenerated)
	assert.Equal(t, []string{"c1", "c2", "c3"}, r.ContentIDs)
	assert.Equal(t, []string{"c2", "c3"}, r.BlogIDs)
	if assert.NotNil(t, r.BlogID) {
		assert.Equal(t, "c2", *r.BlogID)
	}
}

func TestPromptCategory(t *testing.T) {
	assert.True(t, CategoryImageGeneration.IsMedia())
	assert.True(t, CategorySermon.IsKnown())
	assert.False(t, PromptCategory("poetry").IsKnown())
	assert.True(t, JobStatusCancelled.IsTerminal())
	assert.False(t, JobStatusProcessing.IsTerminal())
}
