package mocks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stretchr/testify/mock"

	"content-pipeline/shared/interfaces"
	"content-pipeline/shared/models"
)

// MockJobRepository is a mock type for the JobRepository type
type MockJobRepository struct {
	mock.Mock
}

// Create provides a mock function with given fields: ctx, querier, job
func (_m *MockJobRepository) Create(ctx context.Context, querier interfaces.DBTX, job *models.Job) error {
	ret := _m.Called(ctx, querier, job)
	r0 := ret.Error(0)
	return r0
}

// FindQueuedDuplicate provides a mock function with given fields: ctx, querier, accountID, jobType, payloadHash, since
func (_m *MockJobRepository) FindQueuedDuplicate(ctx context.Context, querier interfaces.DBTX, accountID string, jobType models.JobType, payloadHash string, since time.Time) (*models.Job, error) {
	ret := _m.Called(ctx, querier, accountID, jobType, payloadHash, since)
	var r0 *models.Job
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.Job)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// Get provides a mock function with given fields: ctx, querier, accountID, jobID
func (_m *MockJobRepository) Get(ctx context.Context, querier interfaces.DBTX, accountID string, jobID string) (*models.Job, error) {
	ret := _m.Called(ctx, querier, accountID, jobID)
	var r0 *models.Job
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.Job)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// List provides a mock function with given fields: ctx, querier, accountID, filter
func (_m *MockJobRepository) List(ctx context.Context, querier interfaces.DBTX, accountID string, filter models.JobFilter) ([]models.Job, error) {
	ret := _m.Called(ctx, querier, accountID, filter)
	var r0 []models.Job
	if v := ret.Get(0); v != nil {
		r0 = v.([]models.Job)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// ClaimNext provides a mock function with given fields: ctx, querier, workerID, excludeAccounts
func (_m *MockJobRepository) ClaimNext(ctx context.Context, querier interfaces.DBTX, workerID string, excludeAccounts []string) (*models.Job, error) {
	ret := _m.Called(ctx, querier, workerID, excludeAccounts)
	var r0 *models.Job
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.Job)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// Heartbeat provides a mock function with given fields: ctx, querier, jobID, workerID
func (_m *MockJobRepository) Heartbeat(ctx context.Context, querier interfaces.DBTX, jobID string, workerID string) (bool, error) {
	ret := _m.Called(ctx, querier, jobID, workerID)
	var r0 bool
	if v := ret.Get(0); v != nil {
		r0 = v.(bool)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// UpdateProgress provides a mock function with given fields: ctx, querier, jobID, workerID, percentage, details
func (_m *MockJobRepository) UpdateProgress(ctx context.Context, querier interfaces.DBTX, jobID string, workerID string, percentage int, details string) (bool, error) {
	ret := _m.Called(ctx, querier, jobID, workerID, percentage, details)
	var r0 bool
	if v := ret.Get(0); v != nil {
		r0 = v.(bool)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// Complete provides a mock function with given fields: ctx, querier, jobID, workerID, results
func (_m *MockJobRepository) Complete(ctx context.Context, querier interfaces.DBTX, jobID string, workerID string, results json.RawMessage) error {
	ret := _m.Called(ctx, querier, jobID, workerID, results)
	r0 := ret.Error(0)
	return r0
}

// Fail provides a mock function with given fields: ctx, querier, jobID, workerID, message, results
func (_m *MockJobRepository) Fail(ctx context.Context, querier interfaces.DBTX, jobID string, workerID string, message string, results json.RawMessage) error {
	ret := _m.Called(ctx, querier, jobID, workerID, message, results)
	r0 := ret.Error(0)
	return r0
}

// MarkCancelled provides a mock function with given fields: ctx, querier, jobID, workerID, results
func (_m *MockJobRepository) MarkCancelled(ctx context.Context, querier interfaces.DBTX, jobID string, workerID string, results json.RawMessage) error {
	ret := _m.Called(ctx, querier, jobID, workerID, results)
	r0 := ret.Error(0)
	return r0
}

// Requeue provides a mock function with given fields: ctx, querier, jobID, workerID, message, availableAt
func (_m *MockJobRepository) Requeue(ctx context.Context, querier interfaces.DBTX, jobID string, workerID string, message string, availableAt time.Time) error {
	ret := _m.Called(ctx, querier, jobID, workerID, message, availableAt)
	r0 := ret.Error(0)
	return r0
}

// RequestCancel provides a mock function with given fields: ctx, querier, accountID, jobID
func (_m *MockJobRepository) RequestCancel(ctx context.Context, querier interfaces.DBTX, accountID string, jobID string) (*models.Job, error) {
	ret := _m.Called(ctx, querier, accountID, jobID)
	var r0 *models.Job
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.Job)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// ReclaimStalled provides a mock function with given fields: ctx, querier, staleBefore
func (_m *MockJobRepository) ReclaimStalled(ctx context.Context, querier interfaces.DBTX, staleBefore time.Time) ([]models.Job, error) {
	ret := _m.Called(ctx, querier, staleBefore)
	var r0 []models.Job
	if v := ret.Get(0); v != nil {
		r0 = v.([]models.Job)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// FailExhaustedStalled provides a mock function with given fields: ctx, querier, staleBefore
func (_m *MockJobRepository) FailExhaustedStalled(ctx context.Context, querier interfaces.DBTX, staleBefore time.Time) ([]models.Job, error) {
	ret := _m.Called(ctx, querier, staleBefore)
	var r0 []models.Job
	if v := ret.Get(0); v != nil {
		r0 = v.([]models.Job)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// NewMockJobRepository creates a new instance of MockJobRepository. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockJobRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockJobRepository {
	m := &MockJobRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ interfaces.JobRepository = (*MockJobRepository)(nil)

// MockIdempotencyStore is a mock type for the IdempotencyStore type
type MockIdempotencyStore struct {
	mock.Mock
}

// Reserve provides a mock function with given fields: ctx, key, jobID, window
func (_m *MockIdempotencyStore) Reserve(ctx context.Context, key string, jobID string, window time.Duration) (string, bool, error) {
	ret := _m.Called(ctx, key, jobID, window)
	var r0 string
	if v := ret.Get(0); v != nil {
		r0 = v.(string)
	}
	var r1 bool
	if v := ret.Get(1); v != nil {
		r1 = v.(bool)
	}
	r2 := ret.Error(2)
	return r0, r1, r2
}

// Release provides a mock function with given fields: ctx, key
func (_m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	ret := _m.Called(ctx, key)
	r0 := ret.Error(0)
	return r0
}

// NewMockIdempotencyStore creates a new instance of MockIdempotencyStore. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockIdempotencyStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockIdempotencyStore {
	m := &MockIdempotencyStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ interfaces.IdempotencyStore = (*MockIdempotencyStore)(nil)

// MockJobLogRepository is a mock type for the JobLogRepository type
type MockJobLogRepository struct {
	mock.Mock
}

// Append provides a mock function with given fields: ctx, querier, entries
func (_m *MockJobLogRepository) Append(ctx context.Context, querier interfaces.DBTX, entries []models.JobLogEntry) error {
	ret := _m.Called(ctx, querier, entries)
	r0 := ret.Error(0)
	return r0
}

// Tail provides a mock function with given fields: ctx, querier, accountID, filter
func (_m *MockJobLogRepository) Tail(ctx context.Context, querier interfaces.DBTX, accountID string, filter models.LogFilter) ([]models.JobLogEntry, error) {
	ret := _m.Called(ctx, querier, accountID, filter)
	var r0 []models.JobLogEntry
	if v := ret.Get(0); v != nil {
		r0 = v.([]models.JobLogEntry)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// Clear provides a mock function with given fields: ctx, querier, accountID, olderThan
func (_m *MockJobLogRepository) Clear(ctx context.Context, querier interfaces.DBTX, accountID string, olderThan *time.Time) (int64, error) {
	ret := _m.Called(ctx, querier, accountID, olderThan)
	var r0 int64
	if v := ret.Get(0); v != nil {
		r0 = v.(int64)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// CountByLevel provides a mock function with given fields: ctx, querier, accountID, since
func (_m *MockJobLogRepository) CountByLevel(ctx context.Context, querier interfaces.DBTX, accountID string, since time.Time) (map[models.LogLevel]int64, error) {
	ret := _m.Called(ctx, querier, accountID, since)
	var r0 map[models.LogLevel]int64
	if v := ret.Get(0); v != nil {
		r0 = v.(map[models.LogLevel]int64)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// NewMockJobLogRepository creates a new instance of MockJobLogRepository. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockJobLogRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockJobLogRepository {
	m := &MockJobLogRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ interfaces.JobLogRepository = (*MockJobLogRepository)(nil)
