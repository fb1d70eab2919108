package interfaces

import (
	"context"
	"encoding/json"
	"time"

	"content-pipeline/shared/models"
)

// JobRepository is the persistent job queue. Ownership-changing writes are
// conditional updates; a lost race returns models.ErrStallReclaim or models.ErrNotFound.
type JobRepository interface {
	Create(ctx context.Context, querier DBTX, job *models.Job) error
	FindQueuedDuplicate(ctx context.Context, querier DBTX, accountID string, jobType models.JobType, payloadHash string, since time.Time) (*models.Job, error)
	Get(ctx context.Context, querier DBTX, accountID, jobID string) (*models.Job, error)
	List(ctx context.Context, querier DBTX, accountID string, filter models.JobFilter) ([]models.Job, error)

	// ClaimNext moves the oldest eligible queued job to processing. Returns nil, nil when none.
	ClaimNext(ctx context.Context, querier DBTX, workerID string, excludeAccounts []string) (*models.Job, error)
	Heartbeat(ctx context.Context, querier DBTX, jobID, workerID string) (cancelRequested bool, err error)
	UpdateProgress(ctx context.Context, querier DBTX, jobID, workerID string, percentage int, details string) (cancelRequested bool, err error)
	Complete(ctx context.Context, querier DBTX, jobID, workerID string, results json.RawMessage) error
	Fail(ctx context.Context, querier DBTX, jobID, workerID, message string, results json.RawMessage) error
	MarkCancelled(ctx context.Context, querier DBTX, jobID, workerID string, results json.RawMessage) error
	Requeue(ctx context.Context, querier DBTX, jobID, workerID, message string, availableAt time.Time) error

	// RequestCancel cancels a queued job immediately or flags a processing one.
	RequestCancel(ctx context.Context, querier DBTX, accountID, jobID string) (*models.Job, error)
	ReclaimStalled(ctx context.Context, querier DBTX, staleBefore time.Time) ([]models.Job, error)
	FailExhaustedStalled(ctx context.Context, querier DBTX, staleBefore time.Time) ([]models.Job, error)
}

// IdempotencyStore reserves enqueue keys for a short window.
type IdempotencyStore interface {
	// Reserve stores jobID under key unless another id is already there, which it returns.
	Reserve(ctx context.Context, key, jobID string, window time.Duration) (existingJobID string, reserved bool, err error)
	Release(ctx context.Context, key string) error
}

// JobLogRepository stores the job log stream.
type JobLogRepository interface {
	Append(ctx context.Context, querier DBTX, entries []models.JobLogEntry) error
	Tail(ctx context.Context, querier DBTX, accountID string, filter models.LogFilter) ([]models.JobLogEntry, error)
	Clear(ctx context.Context, querier DBTX, accountID string, olderThan *time.Time) (int64, error)
	CountByLevel(ctx context.Context, querier DBTX, accountID string, since time.Time) (map[models.LogLevel]int64, error)
}
