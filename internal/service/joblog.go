package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"content-pipeline/internal/account"
	"content-pipeline/shared/interfaces"
	"content-pipeline/shared/models"
)

const (
	logFlushInterval = 500 * time.Millisecond
	logFlushBatch    = 100
	logQueueSize     = 1024
	// Entries kept in memory while the store is failing.
	logRetainLimit = 5000
)

// LogStreamConfig tunes the job log stream.
type LogStreamConfig struct {
	DefaultTailLimit int
	FlushInterval    time.Duration
}

// JobLogStream is the append-only job log. Appends never block or fail the
// caller; entries are buffered and written in batches. The store stamps each
// entry when it is inserted, so several processes may write the same job.
type JobLogStream struct {
	db     interfaces.DBTX
	repo   interfaces.JobLogRepository
	cfg    LogStreamConfig
	logger *zap.Logger

	queue chan models.JobLogEntry

	mu      sync.Mutex
	pending []models.JobLogEntry
	dropped int

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewJobLogStream creates the stream. Start must be called to flush entries.
func NewJobLogStream(db interfaces.DBTX, repo interfaces.JobLogRepository, cfg LogStreamConfig, logger *zap.Logger) *JobLogStream {
	if cfg.DefaultTailLimit <= 0 {
		cfg.DefaultTailLimit = 200
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = logFlushInterval
	}
	return &JobLogStream{
		db:     db,
		repo:   repo,
		cfg:    cfg,
		logger: logger.Named("JobLogStream"),
		queue:  make(chan models.JobLogEntry, logQueueSize),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start runs the flush loop until Close.
func (s *JobLogStream) Start() {
	go s.run()
}

// Close flushes buffered entries and stops the flush loop.
func (s *JobLogStream) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

// Append records an entry. Order is kept per stream; the timestamp is set
// by the store at insert.
func (s *JobLogStream) Append(entry models.JobLogEntry) {
	if !entry.Level.IsValid() {
		entry.Level = models.LogLevelInfo
	}
	if entry.Source == "" {
		entry.Source = "system"
	}
	entry.Timestamp = time.Time{}

	fields := []zap.Field{
		zap.String("account_id", entry.AccountID),
		zap.String("level", string(entry.Level)),
		zap.String("source", entry.Source),
	}
	if entry.JobID != nil {
		fields = append(fields, zap.String("job_id", *entry.JobID))
	}
	s.logger.Debug(entry.Message, fields...)

	select {
	case s.queue <- entry:
	default:
		s.mu.Lock()
		s.dropped++
		dropped := s.dropped
		s.mu.Unlock()
		if dropped%100 == 1 {
			s.logger.Warn("Job log queue full, dropping entries", zap.Int("dropped_total", dropped))
		}
	}
}

func (s *JobLogStream) run() {
	defer close(s.done)
	ticker := time.NewTicker(s.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]models.JobLogEntry, 0, logFlushBatch)
	for {
		select {
		case entry := <-s.queue:
			batch = append(batch, entry)
			if len(batch) >= logFlushBatch {
				s.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			s.flush(batch)
			batch = batch[:0]
		case <-s.stop:
			for {
				select {
				case entry := <-s.queue:
					batch = append(batch, entry)
				default:
					s.flush(batch)
					return
				}
			}
		}
	}
}

// flush writes pending entries plus batch. On failure everything is retained
// for the next tick, oldest entries dropped beyond logRetainLimit.
func (s *JobLogStream) flush(batch []models.JobLogEntry) {
	s.mu.Lock()
	entries := append(s.pending, batch...)
	s.pending = nil
	s.mu.Unlock()
	if len(entries) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.repo.Append(ctx, s.db, entries); err != nil {
		if len(entries) > logRetainLimit {
			s.logger.Warn("Dropping oldest buffered job log entries", zap.Int("dropped", len(entries)-logRetainLimit))
			entries = entries[len(entries)-logRetainLimit:]
		}
		s.mu.Lock()
		s.pending = append(entries, s.pending...)
		s.mu.Unlock()
		s.logger.Warn("Failed to write job log entries, will retry", zap.Int("buffered", len(entries)), zap.Error(err))
	}
}

// Tail returns entries after the filter's cursor in insert order plus the
// cursor for the next poll.
func (s *JobLogStream) Tail(ctx context.Context, filter models.LogFilter) (*models.LogTail, error) {
	if _, err := account.RequirePermission(ctx, account.PermJobsRead); err != nil {
		return nil, err
	}
	accountID, _ := account.Scoped(ctx)
	if filter.Level != "" && !filter.Level.IsValid() {
		return nil, fmt.Errorf("%w: unknown level %q", models.ErrInvalidInput, filter.Level)
	}
	if filter.Limit <= 0 {
		filter.Limit = s.cfg.DefaultTailLimit
	}
	entries, err := s.repo.Tail(ctx, s.db, accountID, filter)
	if err != nil {
		return nil, err
	}
	tail := &models.LogTail{Entries: entries, Cursor: filter.After}
	if n := len(entries); n > 0 {
		tail.Cursor = entries[n-1].ID
	}
	return tail, nil
}

// Clear deletes the account's entries, all of them or those older than olderThanDays.
func (s *JobLogStream) Clear(ctx context.Context, olderThanDays *int) (int64, error) {
	id, err := account.RequirePermission(ctx, account.PermSettingsWrite)
	if err != nil {
		return 0, err
	}
	var olderThan *time.Time
	if olderThanDays != nil {
		if *olderThanDays < 0 {
			return 0, fmt.Errorf("%w: older_than_days must not be negative", models.ErrInvalidInput)
		}
		cutoff := time.Now().UTC().AddDate(0, 0, -*olderThanDays)
		olderThan = &cutoff
	}
	return s.repo.Clear(ctx, s.db, id.AccountID, olderThan)
}

// Stats counts entries by level over window.
func (s *JobLogStream) Stats(ctx context.Context, window time.Duration) (*models.LogStats, error) {
	if _, err := account.RequirePermission(ctx, account.PermJobsRead); err != nil {
		return nil, err
	}
	accountID, _ := account.Scoped(ctx)
	if window <= 0 {
		window = 24 * time.Hour
	}
	counts, err := s.repo.CountByLevel(ctx, s.db, accountID, time.Now().UTC().Add(-window))
	if err != nil {
		return nil, err
	}
	stats := &models.LogStats{Window: window.String(), ByLevel: map[models.LogLevel]int64{}}
	for _, level := range []models.LogLevel{models.LogLevelDebug, models.LogLevelInfo, models.LogLevelWarn, models.LogLevelError} {
		stats.ByLevel[level] = counts[level]
		stats.Total += counts[level]
	}
	return stats, nil
}

// JobLogger appends entries bound to one account, job and source.
type JobLogger struct {
	stream    *JobLogStream
	accountID string
	jobID     *string
	source    string
}

// For returns a JobLogger. An empty jobID writes account-level entries.
func (s *JobLogStream) For(accountID, jobID, source string) *JobLogger {
	l := &JobLogger{stream: s, accountID: accountID, source: source}
	if jobID != "" {
		l.jobID = &jobID
	}
	return l
}

func (l *JobLogger) log(level models.LogLevel, msg string, metadata map[string]any) {
	l.stream.Append(models.JobLogEntry{
		AccountID: l.accountID,
		JobID:     l.jobID,
		Level:     level,
		Source:    l.source,
		Message:   msg,
		Metadata:  metadata,
	})
}

func (l *JobLogger) Debug(msg string, metadata map[string]any) {
	l.log(models.LogLevelDebug, msg, metadata)
}
func (l *JobLogger) Info(msg string, metadata map[string]any) {
	l.log(models.LogLevelInfo, msg, metadata)
}
func (l *JobLogger) Warn(msg string, metadata map[string]any) {
	l.log(models.LogLevelWarn, msg, metadata)
}
func (l *JobLogger) Error(msg string, metadata map[string]any) {
	l.log(models.LogLevelError, msg, metadata)
}
