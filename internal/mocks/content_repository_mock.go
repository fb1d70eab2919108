package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"content-pipeline/shared/interfaces"
	"content-pipeline/shared/models"
)

// MockContentRepository is a mock type for the ContentRepository type
type MockContentRepository struct {
	mock.Mock
}

// Create provides a mock function with given fields: ctx, querier, item
func (_m *MockContentRepository) Create(ctx context.Context, querier interfaces.DBTX, item *models.ContentItem) error {
	ret := _m.Called(ctx, querier, item)
	r0 := ret.Error(0)
	return r0
}

// Get provides a mock function with given fields: ctx, querier, accountID, contentID
func (_m *MockContentRepository) Get(ctx context.Context, querier interfaces.DBTX, accountID string, contentID string) (*models.ContentItem, error) {
	ret := _m.Called(ctx, querier, accountID, contentID)
	var r0 *models.ContentItem
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.ContentItem)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// UpdateStatus provides a mock function with given fields: ctx, querier, accountID, contentID, from, to
func (_m *MockContentRepository) UpdateStatus(ctx context.Context, querier interfaces.DBTX, accountID string, contentID string, from models.ContentStatus, to models.ContentStatus) (*models.ContentItem, error) {
	ret := _m.Called(ctx, querier, accountID, contentID, from, to)
	var r0 *models.ContentItem
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.ContentItem)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// ListByStory provides a mock function with given fields: ctx, querier, accountID, storyID
func (_m *MockContentRepository) ListByStory(ctx context.Context, querier interfaces.DBTX, accountID string, storyID int64) ([]models.ContentItem, error) {
	ret := _m.Called(ctx, querier, accountID, storyID)
	var r0 []models.ContentItem
	if v := ret.Get(0); v != nil {
		r0 = v.([]models.ContentItem)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// NewMockContentRepository creates a new instance of MockContentRepository. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockContentRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockContentRepository {
	m := &MockContentRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ interfaces.ContentRepository = (*MockContentRepository)(nil)

// MockStoryRepository is a mock type for the StoryRepository type
type MockStoryRepository struct {
	mock.Mock
}

// Get provides a mock function with given fields: ctx, querier, accountID, storyID
func (_m *MockStoryRepository) Get(ctx context.Context, querier interfaces.DBTX, accountID string, storyID int64) (*models.Story, error) {
	ret := _m.Called(ctx, querier, accountID, storyID)
	var r0 *models.Story
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.Story)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// ListUnprocessed provides a mock function with given fields: ctx, querier, accountID, limit
func (_m *MockStoryRepository) ListUnprocessed(ctx context.Context, querier interfaces.DBTX, accountID string, limit int) ([]models.Story, error) {
	ret := _m.Called(ctx, querier, accountID, limit)
	var r0 []models.Story
	if v := ret.Get(0); v != nil {
		r0 = v.([]models.Story)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// CreateSubmitted provides a mock function with given fields: ctx, querier, accountID, urls
func (_m *MockStoryRepository) CreateSubmitted(ctx context.Context, querier interfaces.DBTX, accountID string, urls []string) ([]int64, error) {
	ret := _m.Called(ctx, querier, accountID, urls)
	var r0 []int64
	if v := ret.Get(0); v != nil {
		r0 = v.([]int64)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// NewMockStoryRepository creates a new instance of MockStoryRepository. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockStoryRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockStoryRepository {
	m := &MockStoryRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ interfaces.StoryRepository = (*MockStoryRepository)(nil)

// MockSourceIngestor is a mock type for the SourceIngestor type
type MockSourceIngestor struct {
	mock.Mock
}

// Refresh provides a mock function with given fields: ctx, accountID, sourceID
func (_m *MockSourceIngestor) Refresh(ctx context.Context, accountID string, sourceID string) (int, error) {
	ret := _m.Called(ctx, accountID, sourceID)
	var r0 int
	if v := ret.Get(0); v != nil {
		r0 = v.(int)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// NewMockSourceIngestor creates a new instance of MockSourceIngestor. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockSourceIngestor(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockSourceIngestor {
	m := &MockSourceIngestor{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ interfaces.SourceIngestor = (*MockSourceIngestor)(nil)
