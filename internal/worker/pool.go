package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"content-pipeline/internal/account"
	"content-pipeline/internal/config"
	"content-pipeline/internal/service"
	"content-pipeline/shared/interfaces"
	"content-pipeline/shared/models"
)

const finishTimeout = 15 * time.Second

var (
	errHardTimeout = errors.New("job exceeded hard timeout")
	errShutdown    = errors.New("worker shutting down")
)

// Pool claims and executes jobs. Each account runs at most one job at a time;
// Concurrency bounds how many accounts are served in parallel.
type Pool struct {
	cfg       config.WorkerConfig
	db        interfaces.DBTX
	jobs      interfaces.JobRepository
	logs      *service.JobLogStream
	publisher interfaces.JobEventPublisher
	handler   Handler
	logger    *zap.Logger
	now       func() time.Time

	mu     sync.Mutex
	active map[string]string
	wake   chan struct{}
	wg     sync.WaitGroup

	jobsCtx    context.Context
	cancelJobs context.CancelCauseFunc
}

// NewPool creates a worker pool. publisher may be nil.
func NewPool(cfg config.WorkerConfig, db interfaces.DBTX, jobs interfaces.JobRepository, logs *service.JobLogStream,
	publisher interfaces.JobEventPublisher, handler Handler, logger *zap.Logger) *Pool {
	if cfg.ID == "" {
		hostname, _ := os.Hostname()
		cfg.ID = fmt.Sprintf("%s-%s", hostname, uuid.NewString()[:8])
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = 30 * time.Second
	}
	if cfg.StallTimeout <= 0 {
		cfg.StallTimeout = 5 * time.Minute
	}
	if cfg.JobHardTimeout <= 0 {
		cfg.JobHardTimeout = 30 * time.Minute
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 5 * time.Second
	}
	if cfg.BackoffMax < cfg.BackoffBase {
		cfg.BackoffMax = max(cfg.BackoffBase, 5*time.Minute)
	}
	jobsCtx, cancelJobs := context.WithCancelCause(context.Background())
	return &Pool{
		cfg:        cfg,
		db:         db,
		jobs:       jobs,
		logs:       logs,
		publisher:  publisher,
		handler:    handler,
		logger:     logger.Named("WorkerPool").With(zap.String("worker_id", cfg.ID)),
		now:        time.Now,
		active:     make(map[string]string),
		wake:       make(chan struct{}, 1),
		jobsCtx:    jobsCtx,
		cancelJobs: cancelJobs,
	}
}

// ID is the worker id stamped on claimed jobs.
func (p *Pool) ID() string {
	return p.cfg.ID
}

// Run claims jobs until ctx is done. In-flight jobs keep running; call
// Shutdown to wait for them.
func (p *Pool) Run(ctx context.Context) {
	p.logger.Info("Worker pool started",
		zap.Int("concurrency", p.cfg.Concurrency),
		zap.Duration("poll_interval", p.cfg.PollInterval),
		zap.Duration("stall_timeout", p.cfg.StallTimeout),
	)
	go p.reclaimLoop(ctx)

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()
	for {
		p.fill(ctx)
		select {
		case <-ctx.Done():
			p.logger.Info("Worker pool stopped claiming jobs")
			return
		case <-ticker.C:
		case <-p.wake:
		}
	}
}

// Shutdown waits for in-flight jobs. When ctx expires first the remaining
// jobs are interrupted and requeued.
func (p *Pool) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		p.logger.Info("All in-flight jobs finished")
		return nil
	case <-ctx.Done():
		p.logger.Warn("Shutdown timeout reached, interrupting in-flight jobs", zap.Int("in_flight", p.inFlight()))
		p.cancelJobs(errShutdown)
		<-done
		return ctx.Err()
	}
}

// fill claims jobs until the pool is saturated or the queue has nothing eligible.
func (p *Pool) fill(ctx context.Context) {
	for ctx.Err() == nil && p.inFlight() < p.cfg.Concurrency {
		job, err := p.jobs.ClaimNext(ctx, p.db, p.cfg.ID, p.activeAccounts())
		if err != nil {
			if ctx.Err() == nil {
				p.logger.Error("Failed to claim job", zap.Error(err))
			}
			return
		}
		if job == nil {
			return
		}
		p.start(job)
	}
}

func (p *Pool) start(job *models.Job) {
	p.mu.Lock()
	p.active[job.AccountID] = job.ID
	p.mu.Unlock()
	jobsInFlight.Inc()
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.release(job)
		p.Process(job)
	}()
}

func (p *Pool) release(job *models.Job) {
	p.mu.Lock()
	delete(p.active, job.AccountID)
	p.mu.Unlock()
	jobsInFlight.Dec()
	p.signal()
}

func (p *Pool) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// HandleJobEvent wakes the claim loop when a job becomes claimable, so a
// freshly enqueued job does not wait for the next poll tick.
func (p *Pool) HandleJobEvent(event interfaces.JobEvent) {
	switch event.EventType {
	case interfaces.JobEventEnqueued, interfaces.JobEventRequeued:
		p.signal()
	}
}

func (p *Pool) inFlight() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.active)
}

func (p *Pool) activeAccounts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	accounts := make([]string, 0, len(p.active))
	for acct := range p.active {
		accounts = append(accounts, acct)
	}
	return accounts
}

// Process executes a job this worker has claimed and records its outcome.
func (p *Pool) Process(job *models.Job) {
	started := p.now()
	log := p.logger.With(zap.String("job_id", job.ID), zap.String("account_id", job.AccountID), zap.String("job_type", string(job.JobType)))
	jobsClaimed.WithLabelValues(string(job.JobType)).Inc()

	ctx := account.WithAccount(p.jobsCtx, account.Identity{AccountID: job.AccountID, UserID: job.UserID, Role: account.RoleSystem})
	ctx, abort := context.WithCancelCause(ctx)
	defer abort(nil)
	ctx, cancelTimeout := context.WithTimeoutCause(ctx, p.cfg.JobHardTimeout, errHardTimeout)
	defer cancelTimeout()

	rep := newReporter(p, job)
	rep.Log(models.LogLevelInfo, fmt.Sprintf("Job started on worker %s", p.cfg.ID),
		map[string]any{"job_type": job.JobType, "retry_count": job.RetryCount})
	log.Info("Job started", zap.Int("retry_count", job.RetryCount))
	p.publish(ctx, job, interfaces.JobEventStarted, models.JobStatusProcessing, "")

	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	hbDone := make(chan struct{})
	go func() {
		defer close(hbDone)
		p.heartbeat(hbCtx, job, rep, abort, log)
	}()

	results := &models.JobResults{}
	var err error
	if rep.CancelRequested() {
		err = models.ErrJobCancelled
	} else {
		err = p.handler.Handle(ctx, job, rep, results)
	}
	stopHeartbeat()
	<-hbDone

	results.DurationMs = p.now().Sub(started).Milliseconds()
	jobDuration.WithLabelValues(string(job.JobType)).Observe(p.now().Sub(started).Seconds())
	p.finish(ctx, job, rep, results, err, log)
}

// heartbeat keeps the claim alive and picks up cancel requests. Losing
// ownership aborts the job.
func (p *Pool) heartbeat(ctx context.Context, job *models.Job, rep *Reporter, abort context.CancelCauseFunc, log *zap.Logger) {
	ticker := time.NewTicker(p.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cancel, err := p.jobs.Heartbeat(ctx, p.db, job.ID, p.cfg.ID)
			if errors.Is(err, models.ErrStallReclaim) {
				log.Warn("Lost ownership of job", zap.Error(err))
				abort(err)
				return
			}
			if err != nil {
				if ctx.Err() == nil {
					log.Warn("Heartbeat failed", zap.Error(err))
				}
				continue
			}
			if cancel && !rep.CancelRequested() {
				rep.markCancelled()
				rep.Log(models.LogLevelInfo, "Cancel requested, stopping at the next step boundary", nil)
			}
		}
	}
}

func (p *Pool) finish(ctx context.Context, job *models.Job, rep *Reporter, results *models.JobResults, err error, log *zap.Logger) {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finishTimeout)
	defer cancel()
	cause := context.Cause(ctx)
	raw, marshalErr := json.Marshal(results)
	if marshalErr != nil {
		log.Error("Failed to encode job results", zap.Error(marshalErr))
		raw = nil
	}
	jobType := string(job.JobType)

	var outcome string
	var writeErr error
	switch {
	case err == nil:
		outcome = "completed"
		if writeErr = p.jobs.Complete(wctx, p.db, job.ID, p.cfg.ID, raw); writeErr == nil {
			job.ProgressPercentage = 100
			rep.Log(models.LogLevelInfo, fmt.Sprintf("Job completed: %d content items generated", results.ContentGenerated),
				map[string]any{"duration_ms": results.DurationMs})
			p.publish(wctx, job, interfaces.JobEventCompleted, models.JobStatusCompleted, "")
		}

	case errors.Is(err, models.ErrStallReclaim) || errors.Is(cause, models.ErrStallReclaim):
		outcome = "lost"
		log.Warn("Job was reclaimed by another worker, discarding outcome", zap.Error(err))

	case errors.Is(err, models.ErrJobCancelled):
		outcome = "cancelled"
		if writeErr = p.jobs.MarkCancelled(wctx, p.db, job.ID, p.cfg.ID, raw); writeErr == nil {
			rep.Log(models.LogLevelInfo, fmt.Sprintf("Job cancelled after %d content items", results.ContentGenerated), nil)
			p.publish(wctx, job, interfaces.JobEventCancelled, models.JobStatusCancelled, "")
		}

	case errors.Is(cause, errShutdown):
		outcome = "interrupted"
		if writeErr = p.jobs.Requeue(wctx, p.db, job.ID, p.cfg.ID, errShutdown.Error(), p.now()); writeErr == nil {
			rep.Log(models.LogLevelWarn, "Job interrupted by worker shutdown, requeued", nil)
			p.publish(wctx, job, interfaces.JobEventRequeued, models.JobStatusQueued, errShutdown.Error())
		}

	case errors.Is(cause, errHardTimeout):
		outcome = "failed"
		msg := fmt.Sprintf("%s of %s", errHardTimeout, p.cfg.JobHardTimeout)
		if writeErr = p.jobs.Fail(wctx, p.db, job.ID, p.cfg.ID, msg, raw); writeErr == nil {
			rep.Log(models.LogLevelError, msg, nil)
			p.publish(wctx, job, interfaces.JobEventFailed, models.JobStatusFailed, msg)
		}

	case models.IsRetryable(err) && job.RetryCount < job.MaxRetries:
		outcome = "requeued"
		delay := Backoff(job.RetryCount+1, p.cfg.BackoffBase, p.cfg.BackoffMax)
		if writeErr = p.jobs.Requeue(wctx, p.db, job.ID, p.cfg.ID, err.Error(), p.now().Add(delay)); writeErr == nil {
			rep.Log(models.LogLevelWarn, fmt.Sprintf("Job failed with a transient error, retry %d/%d in %s", job.RetryCount+1, job.MaxRetries, delay.Round(time.Second)),
				map[string]any{"error": err.Error()})
			p.publish(wctx, job, interfaces.JobEventRequeued, models.JobStatusQueued, err.Error())
		}

	default:
		outcome = "failed"
		if writeErr = p.jobs.Fail(wctx, p.db, job.ID, p.cfg.ID, err.Error(), raw); writeErr == nil {
			rep.Log(models.LogLevelError, "Job failed: "+err.Error(), nil)
			p.publish(wctx, job, interfaces.JobEventFailed, models.JobStatusFailed, err.Error())
		}
	}

	if writeErr != nil {
		log.Error("Failed to record job outcome", zap.String("outcome", outcome), zap.Error(writeErr))
		outcome = "lost"
	}
	jobsFinished.WithLabelValues(jobType, outcome).Inc()
	log.Info("Job finished",
		zap.String("outcome", outcome),
		zap.Int("content_generated", results.ContentGenerated),
		zap.Int64("duration_ms", results.DurationMs),
		zap.NamedError("job_error", err),
	)
}

func (p *Pool) reclaimLoop(ctx context.Context) {
	interval := max(p.cfg.StallTimeout/5, p.cfg.PollInterval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.ReclaimStalled(ctx); err != nil && ctx.Err() == nil {
				p.logger.Error("Stalled job sweep failed", zap.Error(err))
			}
		}
	}
}

// ReclaimStalled requeues processing jobs whose heartbeat is older than the
// stall timeout and closes the ones with no retries left. It returns how many
// jobs it touched.
func (p *Pool) ReclaimStalled(ctx context.Context) (int, error) {
	staleBefore := p.now().Add(-p.cfg.StallTimeout)

	requeued, err := p.jobs.ReclaimStalled(ctx, p.db, staleBefore)
	if err != nil {
		return 0, err
	}
	for i := range requeued {
		job := &requeued[i]
		stalledJobs.WithLabelValues("requeued").Inc()
		p.logs.For(job.AccountID, job.ID, "worker").Warn(
			fmt.Sprintf("Heartbeat lost, job requeued (retry %d/%d)", job.RetryCount, job.MaxRetries), nil)
		p.publish(ctx, job, interfaces.JobEventRequeued, models.JobStatusQueued, models.ErrStallReclaim.Error())
	}

	closed, err := p.jobs.FailExhaustedStalled(ctx, p.db, staleBefore)
	if err != nil {
		return len(requeued), err
	}
	for i := range closed {
		job := &closed[i]
		jl := p.logs.For(job.AccountID, job.ID, "worker")
		if job.Status == models.JobStatusCancelled {
			stalledJobs.WithLabelValues("cancelled").Inc()
			jl.Info("Heartbeat lost on a cancelled job, closing it", nil)
			p.publish(ctx, job, interfaces.JobEventCancelled, models.JobStatusCancelled, "")
			continue
		}
		stalledJobs.WithLabelValues("failed").Inc()
		jl.Error("Heartbeat lost and retries exhausted, job failed", nil)
		p.publish(ctx, job, interfaces.JobEventFailed, models.JobStatusFailed, "heartbeat lost, retries exhausted")
	}

	if n := len(requeued) + len(closed); n > 0 {
		p.logger.Info("Stalled jobs handled", zap.Int("requeued", len(requeued)), zap.Int("closed", len(closed)))
	}
	return len(requeued) + len(closed), nil
}

func (p *Pool) publish(ctx context.Context, job *models.Job, eventType interfaces.JobEventType, status models.JobStatus, message string) {
	if p.publisher == nil {
		return
	}
	event := interfaces.JobEvent{
		EventType:          eventType,
		JobID:              job.ID,
		AccountID:          job.AccountID,
		JobType:            job.JobType,
		Status:             status,
		ProgressPercentage: job.ProgressPercentage,
		Message:            message,
		OccurredAt:         p.now().UTC(),
	}
	if err := p.publisher.PublishJobEvent(ctx, event); err != nil {
		p.logger.Warn("Failed to publish job event",
			zap.String("job_id", job.ID), zap.String("event_type", string(eventType)), zap.Error(err))
	}
}

// Backoff is base*2^(attempt-1) capped at maxDelay, with the upper half jittered.
func Backoff(attempt int, base, maxDelay time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := maxDelay
	if shift := attempt - 1; shift < 32 {
		if scaled := base << shift; scaled > 0 && scaled < maxDelay {
			d = scaled
		}
	}
	half := d / 2
	return half + time.Duration(rand.Int64N(int64(d-half)+1))
}
