package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"content-pipeline/internal/account"
	"content-pipeline/shared/interfaces"
	"content-pipeline/shared/models"
	"content-pipeline/shared/utils"
)

// JobServiceConfig tunes enqueue behaviour.
type JobServiceConfig struct {
	MaxRetries  int
	DedupWindow time.Duration
}

// EnqueueResult is the job an enqueue resolved to.
type EnqueueResult struct {
	Job *models.Job
	// Duplicate is true when an identical queued job was returned instead of a new one.
	Duplicate bool
}

// JobService is the API side of the job queue.
type JobService interface {
	Enqueue(ctx context.Context, jobType models.JobType, payload json.RawMessage) (*EnqueueResult, error)
	List(ctx context.Context, filter models.JobFilter) ([]models.Job, error)
	Get(ctx context.Context, jobID string) (*models.Job, error)
	Cancel(ctx context.Context, jobID string) (*models.Job, error)
	Retry(ctx context.Context, jobID string) (*EnqueueResult, error)
	Logs(ctx context.Context, jobID string, filter models.LogFilter) (*models.LogTail, error)
}

type jobServiceImpl struct {
	db          interfaces.DBTX
	repo        interfaces.JobRepository
	idempotency interfaces.IdempotencyStore
	publisher   interfaces.JobEventPublisher
	logs        *JobLogStream
	cfg         JobServiceConfig
	logger      *zap.Logger
}

// NewJobService creates the job service. idempotency may be nil, in which case
// only the database duplicate check applies.
func NewJobService(
	db interfaces.DBTX,
	repo interfaces.JobRepository,
	idempotency interfaces.IdempotencyStore,
	publisher interfaces.JobEventPublisher,
	logs *JobLogStream,
	cfg JobServiceConfig,
	logger *zap.Logger,
) JobService {
	if cfg.DedupWindow <= 0 {
		cfg.DedupWindow = 5 * time.Second
	}
	return &jobServiceImpl{
		db:          db,
		repo:        repo,
		idempotency: idempotency,
		publisher:   publisher,
		logs:        logs,
		cfg:         cfg,
		logger:      logger.Named("JobService"),
	}
}

// Enqueue creates a queued job. An identical job (same type and payload)
// enqueued within the dedup window and still queued is returned instead.
func (s *jobServiceImpl) Enqueue(ctx context.Context, jobType models.JobType, payload json.RawMessage) (*EnqueueResult, error) {
	id, err := account.RequirePermission(ctx, account.PermJobsWrite)
	if err != nil {
		return nil, err
	}
	if !jobType.IsValid() {
		return nil, fmt.Errorf("%w: unknown job type %q", models.ErrInvalidInput, jobType)
	}
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}
	if err := ValidatePayload(jobType, payload); err != nil {
		return nil, err
	}
	hash, err := utils.PayloadHash(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	log := s.logger.With(zap.String("account_id", id.AccountID), zap.String("job_type", string(jobType)))

	job := &models.Job{
		ID:          uuid.NewString(),
		AccountID:   id.AccountID,
		UserID:      id.UserID,
		JobType:     jobType,
		Status:      models.JobStatusQueued,
		Payload:     payload,
		PayloadHash: hash,
		MaxRetries:  s.cfg.MaxRetries,
	}

	key := strings.Join([]string{id.AccountID, string(jobType), hash}, ":")
	reserved := false
	if s.idempotency != nil {
		existingID, ok, err := s.idempotency.Reserve(ctx, key, job.ID, s.cfg.DedupWindow)
		switch {
		case err != nil:
			log.Warn("Idempotency store unavailable, relying on database check", zap.Error(err))
		case !ok:
			existing, err := s.repo.Get(ctx, s.db, id.AccountID, existingID)
			if err == nil && existing.Status == models.JobStatusQueued {
				log.Info("Duplicate enqueue collapsed", zap.String("job_id", existing.ID))
				return &EnqueueResult{Job: existing, Duplicate: true}, nil
			}
		default:
			reserved = true
		}
	}

	since := time.Now().UTC().Add(-s.cfg.DedupWindow)
	existing, err := s.repo.FindQueuedDuplicate(ctx, s.db, id.AccountID, jobType, hash, since)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		log.Info("Duplicate enqueue collapsed", zap.String("job_id", existing.ID))
		return &EnqueueResult{Job: existing, Duplicate: true}, nil
	}

	if err := s.repo.Create(ctx, s.db, job); err != nil {
		if reserved {
			if relErr := s.idempotency.Release(ctx, key); relErr != nil {
				log.Warn("Failed to release idempotency key", zap.Error(relErr))
			}
		}
		return nil, err
	}

	log.Info("Job enqueued", zap.String("job_id", job.ID))
	s.logs.For(id.AccountID, job.ID, "queue").Info(fmt.Sprintf("Job %s enqueued", jobType), map[string]any{"user_id": id.UserID})
	s.publish(ctx, interfaces.JobEventEnqueued, job, "")
	return &EnqueueResult{Job: job}, nil
}

func (s *jobServiceImpl) List(ctx context.Context, filter models.JobFilter) ([]models.Job, error) {
	id, err := account.RequirePermission(ctx, account.PermJobsRead)
	if err != nil {
		return nil, err
	}
	if filter.Status != "" {
		switch filter.Status {
		case models.JobStatusQueued, models.JobStatusProcessing, models.JobStatusCompleted, models.JobStatusFailed, models.JobStatusCancelled:
		default:
			return nil, fmt.Errorf("%w: unknown status %q", models.ErrInvalidInput, filter.Status)
		}
	}
	if filter.Type != "" && !filter.Type.IsValid() {
		return nil, fmt.Errorf("%w: unknown job type %q", models.ErrInvalidInput, filter.Type)
	}
	return s.repo.List(ctx, s.db, id.AccountID, filter)
}

func (s *jobServiceImpl) Get(ctx context.Context, jobID string) (*models.Job, error) {
	id, err := account.RequirePermission(ctx, account.PermJobsRead)
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, s.db, id.AccountID, jobID)
}

// Cancel cancels a queued job at once; a processing job is flagged and stops
// at its next step boundary.
func (s *jobServiceImpl) Cancel(ctx context.Context, jobID string) (*models.Job, error) {
	id, err := account.RequirePermission(ctx, account.PermJobsWrite)
	if err != nil {
		return nil, err
	}
	job, err := s.repo.RequestCancel(ctx, s.db, id.AccountID, jobID)
	if err != nil {
		return nil, err
	}

	jl := s.logs.For(id.AccountID, job.ID, "queue")
	if job.Status == models.JobStatusCancelled {
		jl.Info("Job cancelled before it started", map[string]any{"user_id": id.UserID})
		s.publish(ctx, interfaces.JobEventCancelled, job, "cancelled while queued")
	} else {
		jl.Info("Cancellation requested, job stops at the next step boundary", map[string]any{"user_id": id.UserID})
	}
	s.logger.Info("Job cancel requested",
		zap.String("account_id", id.AccountID),
		zap.String("job_id", job.ID),
		zap.String("status", string(job.Status)),
	)
	return job, nil
}

// Retry re-enqueues a failed or cancelled job as a new job. The original stays untouched.
func (s *jobServiceImpl) Retry(ctx context.Context, jobID string) (*EnqueueResult, error) {
	id, err := account.RequirePermission(ctx, account.PermJobsWrite)
	if err != nil {
		return nil, err
	}
	job, err := s.repo.Get(ctx, s.db, id.AccountID, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != models.JobStatusFailed && job.Status != models.JobStatusCancelled {
		return nil, fmt.Errorf("%w: only failed or cancelled jobs can be retried, job is %s", models.ErrInvalidTransition, job.Status)
	}
	res, err := s.Enqueue(ctx, job.JobType, job.Payload)
	if err != nil {
		return nil, err
	}
	s.logs.For(id.AccountID, res.Job.ID, "queue").Info("Job created as retry", map[string]any{"retry_of": job.ID})
	return res, nil
}

func (s *jobServiceImpl) Logs(ctx context.Context, jobID string, filter models.LogFilter) (*models.LogTail, error) {
	if _, err := s.Get(ctx, jobID); err != nil {
		return nil, err
	}
	filter.JobID = jobID
	return s.logs.Tail(ctx, filter)
}

func (s *jobServiceImpl) publish(ctx context.Context, eventType interfaces.JobEventType, job *models.Job, msg string) {
	if s.publisher == nil {
		return
	}
	event := interfaces.JobEvent{
		EventType:          eventType,
		JobID:              job.ID,
		AccountID:          job.AccountID,
		JobType:            job.JobType,
		Status:             job.Status,
		ProgressPercentage: job.ProgressPercentage,
		Message:            msg,
		OccurredAt:         time.Now().UTC(),
	}
	if err := s.publisher.PublishJobEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish job event", zap.String("job_id", job.ID), zap.String("event_type", string(eventType)), zap.Error(err))
	}
}

// ValidatePayload checks that payload decodes into the job type's payload
// shape and carries its required fields.
func ValidatePayload(jobType models.JobType, payload json.RawMessage) error {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s payload: %s", models.ErrInvalidInput, jobType, fmt.Sprintf(format, args...))
	}
	decode := func(v any) error {
		if err := json.Unmarshal(payload, v); err != nil {
			return bad("%v", err)
		}
		return nil
	}
	checkCategories := func(categories []models.PromptCategory) error {
		for _, c := range categories {
			if !c.IsKnown() || c.IsMedia() {
				return bad("unknown text category %q", c)
			}
		}
		return nil
	}

	switch jobType {
	case models.JobTypeFullCycle:
		var p models.FullCyclePayload
		if err := decode(&p); err != nil {
			return err
		}
		if p.Limit < 0 {
			return bad("limit must not be negative")
		}
		return checkCategories(p.Categories)
	case models.JobTypeGenerateForStory:
		var p models.GenerateForStoryPayload
		if err := decode(&p); err != nil {
			return err
		}
		if p.StoryID <= 0 {
			return bad("story_id is required")
		}
		return checkCategories(p.Categories)
	case models.JobTypeRegenerate:
		var p models.RegeneratePayload
		if err := decode(&p); err != nil {
			return err
		}
		if p.ContentID == "" {
			return bad("content_id is required")
		}
	case models.JobTypeSourceRefresh:
		var p models.SourceRefreshPayload
		if err := decode(&p); err != nil {
			return err
		}
		if p.SourceID == "" {
			return bad("source_id is required")
		}
	case models.JobTypeSubmitURLs:
		var p models.SubmitURLsPayload
		if err := decode(&p); err != nil {
			return err
		}
		if len(p.URLs) == 0 {
			return bad("urls must not be empty")
		}
		for _, u := range p.URLs {
			if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
				return bad("invalid url %q", u)
			}
		}
	case models.JobTypeGenerateImage:
		var p models.GenerateImagePayload
		if err := decode(&p); err != nil {
			return err
		}
		if p.ContentID == "" {
			return bad("content_id is required")
		}
		if strings.TrimSpace(p.Params.Prompt) == "" {
			return bad("params.prompt is required")
		}
		if len(p.Params.ReferenceImages) > 3 {
			return bad("at most 3 reference images are allowed")
		}
	case models.JobTypeRunWorkflow:
		var p models.RunWorkflowPayload
		if err := decode(&p); err != nil {
			return err
		}
		if p.WorkflowID == "" || p.StoryID <= 0 {
			return bad("workflow_id and story_id are required")
		}
	}
	return nil
}
