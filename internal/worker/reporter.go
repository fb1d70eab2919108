package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"content-pipeline/internal/service"
	"content-pipeline/shared/interfaces"
	"content-pipeline/shared/models"
)

// Reporter is handed to job handlers. It writes job log entries, records
// progress and tracks the cancel flag seen by heartbeats and progress updates.
type Reporter struct {
	pool      *Pool
	job       *models.Job
	log       *service.JobLogger
	cancelled atomic.Bool
}

var _ service.StepReporter = (*Reporter)(nil)

func newReporter(p *Pool, job *models.Job) *Reporter {
	r := &Reporter{pool: p, job: job, log: p.logs.For(job.AccountID, job.ID, "worker")}
	r.cancelled.Store(job.CancelRequested)
	return r
}

// Log appends a job log entry.
func (r *Reporter) Log(level models.LogLevel, msg string, metadata map[string]any) {
	switch level {
	case models.LogLevelDebug:
		r.log.Debug(msg, metadata)
	case models.LogLevelWarn:
		r.log.Warn(msg, metadata)
	case models.LogLevelError:
		r.log.Error(msg, metadata)
	default:
		r.log.Info(msg, metadata)
	}
}

// ReportProgress stores progress, publishes a progress event and returns
// whether cancellation has been requested.
func (r *Reporter) ReportProgress(ctx context.Context, percentage int, details string) (bool, error) {
	percentage = min(max(percentage, 0), 100)
	cancel, err := r.pool.jobs.UpdateProgress(ctx, r.pool.db, r.job.ID, r.pool.cfg.ID, percentage, details)
	if err != nil {
		return r.cancelled.Load(), err
	}
	if cancel {
		r.cancelled.Store(true)
	}
	r.job.ProgressPercentage = percentage
	r.pool.publish(ctx, r.job, interfaces.JobEventProgress, models.JobStatusProcessing, details)
	return r.cancelled.Load(), nil
}

// RefreshCancel asks the store for the cancel flag without touching progress.
// Phases that run long without a step boundary call it before moving on.
func (r *Reporter) RefreshCancel(ctx context.Context) (bool, error) {
	cancel, err := r.pool.jobs.Heartbeat(ctx, r.pool.db, r.job.ID, r.pool.cfg.ID)
	if err != nil {
		return r.cancelled.Load(), err
	}
	if cancel {
		r.cancelled.Store(true)
	}
	return r.cancelled.Load(), nil
}

// CancelRequested reports the last cancel flag observed for the job.
func (r *Reporter) CancelRequested() bool {
	return r.cancelled.Load()
}

// RetryLogger turns generator retries into warn entries.
func (r *Reporter) RetryLogger(label string) service.RetryFunc {
	return func(attempt int, delay time.Duration, err error) {
		r.log.Warn(fmt.Sprintf("%s attempt %d failed, retrying in %s", label, attempt, delay),
			map[string]any{"attempt": attempt, "error": err.Error()})
	}
}

func (r *Reporter) markCancelled() {
	r.cancelled.Store(true)
}
