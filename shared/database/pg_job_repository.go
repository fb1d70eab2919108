package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"content-pipeline/shared/interfaces"
	"content-pipeline/shared/models"
)

const (
	jobColumns = `id, account_id, user_id, job_type, status, payload, payload_hash, progress_percentage, progress_details,
        results, error_message, retry_count, max_retries, cancel_requested, available_at, created_at, started_at,
        completed_at, worker_id, heartbeat_at`

	insertJobQuery = `
        INSERT INTO jobs (id, account_id, user_id, job_type, status, payload, payload_hash, max_retries, available_at, created_at)
        VALUES ($1, $2, $3, $4, 'queued', $5, $6, $7, now(), now())
        RETURNING status, available_at, created_at`
	findQueuedDuplicateQuery = `
        SELECT ` + jobColumns + ` FROM jobs
        WHERE account_id = $1 AND job_type = $2 AND payload_hash = $3 AND status = 'queued' AND created_at >= $4
        ORDER BY created_at DESC
        LIMIT 1`
	getJobQuery = `SELECT ` + jobColumns + ` FROM jobs WHERE account_id = $1 AND id = $2`

	// The candidate is the oldest queued job of an account with nothing in
	// processing; the partial unique index backs up the NOT EXISTS check.
	claimNextJobQuery = `
        WITH candidate AS (
            SELECT j.id AS candidate_id
            FROM jobs j
            WHERE j.status = 'queued'
              AND j.available_at <= now()
              AND NOT (j.account_id = ANY($2::text[]))
              AND NOT EXISTS (SELECT 1 FROM jobs p WHERE p.account_id = j.account_id AND p.status = 'processing')
              AND NOT EXISTS (
                  SELECT 1 FROM jobs o
                  WHERE o.account_id = j.account_id AND o.status = 'queued'
                    AND (o.created_at, o.id) < (j.created_at, j.id))
            ORDER BY j.created_at, j.id
            LIMIT 1
            FOR UPDATE OF j SKIP LOCKED
        )
        UPDATE jobs
        SET status = 'processing', worker_id = $1, started_at = now(), heartbeat_at = now()
        FROM candidate
        WHERE jobs.id = candidate.candidate_id AND jobs.status = 'queued'
        RETURNING ` + jobColumns

	heartbeatJobQuery = `
        UPDATE jobs SET heartbeat_at = now()
        WHERE id = $1 AND worker_id = $2 AND status = 'processing'
        RETURNING cancel_requested`
	updateJobProgressQuery = `
        UPDATE jobs SET progress_percentage = $3, progress_details = $4, heartbeat_at = now()
        WHERE id = $1 AND worker_id = $2 AND status = 'processing'
        RETURNING cancel_requested`
	completeJobQuery = `
        UPDATE jobs SET status = 'completed', progress_percentage = 100, results = $3, completed_at = now(), heartbeat_at = now()
        WHERE id = $1 AND worker_id = $2 AND status = 'processing'`
	failJobQuery = `
        UPDATE jobs SET status = 'failed', error_message = $3, results = $4, completed_at = now(), heartbeat_at = now()
        WHERE id = $1 AND worker_id = $2 AND status = 'processing'`
	cancelJobQuery = `
        UPDATE jobs SET status = 'cancelled', results = $3, completed_at = now(), heartbeat_at = now()
        WHERE id = $1 AND worker_id = $2 AND status = 'processing'`
	requeueJobQuery = `
        UPDATE jobs
        SET status = 'queued', retry_count = retry_count + 1, error_message = $3, available_at = $4,
            worker_id = NULL, started_at = NULL, heartbeat_at = NULL
        WHERE id = $1 AND worker_id = $2 AND status = 'processing'`
	requestCancelQuery = `
        UPDATE jobs
        SET cancel_requested = TRUE,
            completed_at = CASE WHEN status = 'queued' THEN now() ELSE completed_at END,
            status = CASE WHEN status = 'queued' THEN 'cancelled' ELSE status END
        WHERE account_id = $1 AND id = $2 AND status IN ('queued', 'processing')
        RETURNING ` + jobColumns
	reclaimStalledQuery = `
        UPDATE jobs
        SET status = 'queued', retry_count = retry_count + 1, error_message = 'heartbeat lost, job reclaimed',
            available_at = now(), worker_id = NULL, started_at = NULL, heartbeat_at = NULL
        WHERE status = 'processing' AND heartbeat_at < $1 AND retry_count < max_retries AND NOT cancel_requested
        RETURNING ` + jobColumns
	failExhaustedStalledQuery = `
        UPDATE jobs
        SET status = CASE WHEN cancel_requested THEN 'cancelled' ELSE 'failed' END,
            error_message = CASE WHEN cancel_requested THEN error_message ELSE 'heartbeat lost, retries exhausted' END,
            completed_at = now()
        WHERE status = 'processing' AND heartbeat_at < $1 AND (retry_count >= max_retries OR cancel_requested)
        RETURNING ` + jobColumns
)

type pgJobRepository struct {
	logger *zap.Logger
}

var _ interfaces.JobRepository = (*pgJobRepository)(nil)

// NewPgJobRepository creates the PostgreSQL job queue repository.
func NewPgJobRepository(logger *zap.Logger) interfaces.JobRepository {
	return &pgJobRepository{logger: logger.Named("PgJobRepo")}
}

func (r *pgJobRepository) Create(ctx context.Context, querier interfaces.DBTX, job *models.Job) error {
	payload := job.Payload
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}
	if job.MaxRetries <= 0 {
		job.MaxRetries = 3
	}
	err := querier.QueryRow(ctx, insertJobQuery,
		job.ID, job.AccountID, job.UserID, job.JobType, payload, job.PayloadHash, job.MaxRetries,
	).Scan(&job.Status, &job.AvailableAt, &job.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert job", zap.String("job_id", job.ID), zap.String("account_id", job.AccountID), zap.Error(err))
		return fmt.Errorf("failed to insert job: %w", err)
	}
	job.Payload = payload
	return nil
}

func (r *pgJobRepository) FindQueuedDuplicate(ctx context.Context, querier interfaces.DBTX, accountID string, jobType models.JobType, payloadHash string, since time.Time) (*models.Job, error) {
	var job models.Job
	if err := pgxscan.Get(ctx, querier, &job, findQueuedDuplicateQuery, accountID, jobType, payloadHash, since); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up duplicate job: %w", err)
	}
	return &job, nil
}

func (r *pgJobRepository) Get(ctx context.Context, querier interfaces.DBTX, accountID, jobID string) (*models.Job, error) {
	var job models.Job
	if err := pgxscan.Get(ctx, querier, &job, getJobQuery, accountID, jobID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get job %s: %w", jobID, err)
	}
	return &job, nil
}

func (r *pgJobRepository) List(ctx context.Context, querier interfaces.DBTX, accountID string, filter models.JobFilter) ([]models.Job, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + jobColumns + ` FROM jobs WHERE account_id = $1`)
	args := []interface{}{accountID}
	paramIndex := 2

	if filter.Status != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND status = $%d", paramIndex))
		args = append(args, filter.Status)
		paramIndex++
	}
	if filter.Type != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND job_type = $%d", paramIndex))
		args = append(args, filter.Type)
		paramIndex++
	}
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", paramIndex, paramIndex+1))
	args = append(args, limit, max(filter.Offset, 0))

	jobs := []models.Job{}
	if err := pgxscan.Select(ctx, querier, &jobs, queryBuilder.String(), args...); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

func (r *pgJobRepository) ClaimNext(ctx context.Context, querier interfaces.DBTX, workerID string, excludeAccounts []string) (*models.Job, error) {
	if excludeAccounts == nil {
		excludeAccounts = []string{}
	}
	var job models.Job
	err := pgxscan.Get(ctx, querier, &job, claimNextJobQuery, workerID, excludeAccounts)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		// Another worker won the race for this account.
		if _, ok := constraintViolation(err, pgUniqueViolation); ok {
			r.logger.Debug("Claim lost per-account race", zap.String("worker_id", workerID))
			return nil, nil
		}
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}
	return &job, nil
}

func (r *pgJobRepository) Heartbeat(ctx context.Context, querier interfaces.DBTX, jobID, workerID string) (bool, error) {
	return r.touchOwned(ctx, querier, heartbeatJobQuery, jobID, workerID)
}

func (r *pgJobRepository) UpdateProgress(ctx context.Context, querier interfaces.DBTX, jobID, workerID string, percentage int, details string) (bool, error) {
	percentage = min(max(percentage, 0), 100)
	return r.touchOwned(ctx, querier, updateJobProgressQuery, jobID, workerID, percentage, details)
}

func (r *pgJobRepository) touchOwned(ctx context.Context, querier interfaces.DBTX, query, jobID, workerID string, extra ...interface{}) (bool, error) {
	args := append([]interface{}{jobID, workerID}, extra...)
	var cancelRequested bool
	if err := querier.QueryRow(ctx, query, args...).Scan(&cancelRequested); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, fmt.Errorf("%w: job %s no longer owned by %s", models.ErrStallReclaim, jobID, workerID)
		}
		return false, fmt.Errorf("failed to update job %s: %w", jobID, err)
	}
	return cancelRequested, nil
}

func (r *pgJobRepository) Complete(ctx context.Context, querier interfaces.DBTX, jobID, workerID string, results json.RawMessage) error {
	return r.finishOwned(ctx, querier, completeJobQuery, jobID, workerID, nullableJSON(results))
}

func (r *pgJobRepository) Fail(ctx context.Context, querier interfaces.DBTX, jobID, workerID, message string, results json.RawMessage) error {
	return r.finishOwned(ctx, querier, failJobQuery, jobID, workerID, message, nullableJSON(results))
}

func (r *pgJobRepository) MarkCancelled(ctx context.Context, querier interfaces.DBTX, jobID, workerID string, results json.RawMessage) error {
	return r.finishOwned(ctx, querier, cancelJobQuery, jobID, workerID, nullableJSON(results))
}

func (r *pgJobRepository) Requeue(ctx context.Context, querier interfaces.DBTX, jobID, workerID, message string, availableAt time.Time) error {
	return r.finishOwned(ctx, querier, requeueJobQuery, jobID, workerID, message, availableAt)
}

func (r *pgJobRepository) finishOwned(ctx context.Context, querier interfaces.DBTX, query, jobID, workerID string, extra ...interface{}) error {
	args := append([]interface{}{jobID, workerID}, extra...)
	tag, err := querier.Exec(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to transition job", zap.String("job_id", jobID), zap.String("worker_id", workerID), zap.Error(err))
		return fmt.Errorf("failed to transition job %s: %w", jobID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: job %s no longer owned by %s", models.ErrStallReclaim, jobID, workerID)
	}
	return nil
}

func (r *pgJobRepository) RequestCancel(ctx context.Context, querier interfaces.DBTX, accountID, jobID string) (*models.Job, error) {
	var job models.Job
	err := pgxscan.Get(ctx, querier, &job, requestCancelQuery, accountID, jobID)
	if err == nil {
		return &job, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to cancel job %s: %w", jobID, err)
	}
	if _, getErr := r.Get(ctx, querier, accountID, jobID); getErr != nil {
		return nil, getErr
	}
	return nil, models.ErrJobTerminal
}

func (r *pgJobRepository) ReclaimStalled(ctx context.Context, querier interfaces.DBTX, staleBefore time.Time) ([]models.Job, error) {
	jobs := []models.Job{}
	if err := pgxscan.Select(ctx, querier, &jobs, reclaimStalledQuery, staleBefore); err != nil {
		return nil, fmt.Errorf("failed to reclaim stalled jobs: %w", err)
	}
	return jobs, nil
}

func (r *pgJobRepository) FailExhaustedStalled(ctx context.Context, querier interfaces.DBTX, staleBefore time.Time) ([]models.Job, error) {
	jobs := []models.Job{}
	if err := pgxscan.Select(ctx, querier, &jobs, failExhaustedStalledQuery, staleBefore); err != nil {
		return nil, fmt.Errorf("failed to close exhausted stalled jobs: %w", err)
	}
	return jobs, nil
}

func nullableJSON(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
