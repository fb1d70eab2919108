package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"content-pipeline/shared/interfaces"
	"content-pipeline/shared/models"
)

// MockImageRepository is a mock type for the ImageRepository type
type MockImageRepository struct {
	mock.Mock
}

// CreateMany provides a mock function with given fields: ctx, querier, records
func (_m *MockImageRepository) CreateMany(ctx context.Context, querier interfaces.DBTX, records []models.ImageRecord) error {
	ret := _m.Called(ctx, querier, records)
	r0 := ret.Error(0)
	return r0
}

// Get provides a mock function with given fields: ctx, querier, accountID, imageID
func (_m *MockImageRepository) Get(ctx context.Context, querier interfaces.DBTX, accountID string, imageID string) (*models.ImageRecord, error) {
	ret := _m.Called(ctx, querier, accountID, imageID)
	var r0 *models.ImageRecord
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.ImageRecord)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// UpdateStatus provides a mock function with given fields: ctx, querier, accountID, imageID, from, to
func (_m *MockImageRepository) UpdateStatus(ctx context.Context, querier interfaces.DBTX, accountID string, imageID string, from models.ImageStatus, to models.ImageStatus) (*models.ImageRecord, error) {
	ret := _m.Called(ctx, querier, accountID, imageID, from, to)
	var r0 *models.ImageRecord
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.ImageRecord)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// ListByContent provides a mock function with given fields: ctx, querier, accountID, contentID
func (_m *MockImageRepository) ListByContent(ctx context.Context, querier interfaces.DBTX, accountID string, contentID string) ([]models.ImageRecord, error) {
	ret := _m.Called(ctx, querier, accountID, contentID)
	var r0 []models.ImageRecord
	if v := ret.Get(0); v != nil {
		r0 = v.([]models.ImageRecord)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// NewMockImageRepository creates a new instance of MockImageRepository. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockImageRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockImageRepository {
	m := &MockImageRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ interfaces.ImageRepository = (*MockImageRepository)(nil)

// MockImageSettingsRepository is a mock type for the ImageSettingsRepository type
type MockImageSettingsRepository struct {
	mock.Mock
}

// Get provides a mock function with given fields: ctx, querier, accountID
func (_m *MockImageSettingsRepository) Get(ctx context.Context, querier interfaces.DBTX, accountID string) (*models.ImageSettings, error) {
	ret := _m.Called(ctx, querier, accountID)
	var r0 *models.ImageSettings
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.ImageSettings)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// LockForUpdate provides a mock function with given fields: ctx, tx, accountID
func (_m *MockImageSettingsRepository) LockForUpdate(ctx context.Context, tx interfaces.DBTX, accountID string) (*models.ImageSettings, error) {
	ret := _m.Called(ctx, tx, accountID)
	var r0 *models.ImageSettings
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.ImageSettings)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// Upsert provides a mock function with given fields: ctx, querier, settings
func (_m *MockImageSettingsRepository) Upsert(ctx context.Context, querier interfaces.DBTX, settings *models.ImageSettings) error {
	ret := _m.Called(ctx, querier, settings)
	r0 := ret.Error(0)
	return r0
}

// NewMockImageSettingsRepository creates a new instance of MockImageSettingsRepository. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockImageSettingsRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockImageSettingsRepository {
	m := &MockImageSettingsRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ interfaces.ImageSettingsRepository = (*MockImageSettingsRepository)(nil)

// MockImageSettingsCache is a mock type for the ImageSettingsCache type
type MockImageSettingsCache struct {
	mock.Mock
}

// Get provides a mock function with given fields: ctx, accountID
func (_m *MockImageSettingsCache) Get(ctx context.Context, accountID string) (*models.ImageSettings, bool, error) {
	ret := _m.Called(ctx, accountID)
	var r0 *models.ImageSettings
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.ImageSettings)
	}
	var r1 bool
	if v := ret.Get(1); v != nil {
		r1 = v.(bool)
	}
	r2 := ret.Error(2)
	return r0, r1, r2
}

// Set provides a mock function with given fields: ctx, settings, ttl
func (_m *MockImageSettingsCache) Set(ctx context.Context, settings *models.ImageSettings, ttl time.Duration) error {
	ret := _m.Called(ctx, settings, ttl)
	r0 := ret.Error(0)
	return r0
}

// Invalidate provides a mock function with given fields: ctx, accountID
func (_m *MockImageSettingsCache) Invalidate(ctx context.Context, accountID string) error {
	ret := _m.Called(ctx, accountID)
	r0 := ret.Error(0)
	return r0
}

// NewMockImageSettingsCache creates a new instance of MockImageSettingsCache. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockImageSettingsCache(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockImageSettingsCache {
	m := &MockImageSettingsCache{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ interfaces.ImageSettingsCache = (*MockImageSettingsCache)(nil)
