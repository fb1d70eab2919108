package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"content-pipeline/internal/handler"
	"content-pipeline/shared/models"
)

// MockLogTailer is a mock type for the LogTailer type
type MockLogTailer struct {
	mock.Mock
}

// Tail provides a mock function with given fields: ctx, filter
func (_m *MockLogTailer) Tail(ctx context.Context, filter models.LogFilter) (*models.LogTail, error) {
	ret := _m.Called(ctx, filter)
	var r0 *models.LogTail
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.LogTail)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// Clear provides a mock function with given fields: ctx, olderThanDays
func (_m *MockLogTailer) Clear(ctx context.Context, olderThanDays *int) (int64, error) {
	ret := _m.Called(ctx, olderThanDays)
	var r0 int64
	if v := ret.Get(0); v != nil {
		r0 = v.(int64)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// Stats provides a mock function with given fields: ctx, window
func (_m *MockLogTailer) Stats(ctx context.Context, window time.Duration) (*models.LogStats, error) {
	ret := _m.Called(ctx, window)
	var r0 *models.LogStats
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.LogStats)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// NewMockLogTailer creates a new instance of MockLogTailer. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockLogTailer(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockLogTailer {
	m := &MockLogTailer{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ handler.LogTailer = (*MockLogTailer)(nil)
