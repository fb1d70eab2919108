package database

import (
	"context"
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
	jobLogColumns     = `id, account_id, job_id, level, source, message, metadata, ts`
	insertJobLogQuery = `
        INSERT INTO job_logs (account_id, job_id, level, source, message, metadata, ts)
        VALUES ($1, $2, $3, $4, $5, $6, clock_timestamp())`
	countJobLogsByLevelQuery = `
        SELECT level, COUNT(*) AS total
        FROM job_logs
        WHERE account_id = $1 AND ts >= $2
        GROUP BY level`

	defaultTailLimit = 200
	maxTailLimit     = 1000
)

type pgJobLogRepository struct {
	logger *zap.Logger
}

var _ interfaces.JobLogRepository = (*pgJobLogRepository)(nil)

// NewPgJobLogRepository creates the PostgreSQL job log repository.
func NewPgJobLogRepository(logger *zap.Logger) interfaces.JobLogRepository {
	return &pgJobLogRepository{logger: logger.Named("PgJobLogRepo")}
}

func (r *pgJobLogRepository) Append(ctx context.Context, querier interfaces.DBTX, entries []models.JobLogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i := range entries {
		e := &entries[i]
		var metadata interface{}
		if len(e.Metadata) > 0 {
			metadata = e.Metadata
		}
		batch.Queue(insertJobLogQuery, e.AccountID, e.JobID, e.Level, e.Source, e.Message, metadata)
	}
	results := querier.SendBatch(ctx, batch)
	defer results.Close()
	for range entries {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to append job log batch: %w", err)
		}
	}
	return nil
}

func (r *pgJobLogRepository) Tail(ctx context.Context, querier interfaces.DBTX, accountID string, filter models.LogFilter) ([]models.JobLogEntry, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + jobLogColumns + ` FROM job_logs WHERE account_id = $1`)
	args := []interface{}{accountID}
	paramIndex := 2

	switch {
	case filter.After > 0:
		queryBuilder.WriteString(fmt.Sprintf(" AND id > $%d", paramIndex))
		args = append(args, filter.After)
		paramIndex++
	case filter.Since != nil:
		queryBuilder.WriteString(fmt.Sprintf(" AND ts > $%d", paramIndex))
		args = append(args, *filter.Since)
		paramIndex++
	}
	if filter.Level != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND level = $%d", paramIndex))
		args = append(args, filter.Level)
		paramIndex++
	}
	if filter.Source != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND source = $%d", paramIndex))
		args = append(args, filter.Source)
		paramIndex++
	}
	if filter.JobID != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND job_id = $%d", paramIndex))
		args = append(args, filter.JobID)
		paramIndex++
	}
	if filter.Search != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND message ILIKE $%d", paramIndex))
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		paramIndex++
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultTailLimit
	}
	limit = min(limit, maxTailLimit)
	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY id LIMIT $%d", paramIndex))
	args = append(args, limit)

	entries := []models.JobLogEntry{}
	if err := pgxscan.Select(ctx, querier, &entries, queryBuilder.String(), args...); err != nil {
		return nil, fmt.Errorf("failed to tail job logs: %w", err)
	}
	return entries, nil
}

func (r *pgJobLogRepository) Clear(ctx context.Context, querier interfaces.DBTX, accountID string, olderThan *time.Time) (int64, error) {
	query := `DELETE FROM job_logs WHERE account_id = $1`
	args := []interface{}{accountID}
	if olderThan != nil {
		query += ` AND ts < $2`
		args = append(args, *olderThan)
	}
	tag, err := querier.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to clear job logs: %w", err)
	}
	r.logger.Info("Job logs cleared", zap.String("account_id", accountID), zap.Int64("deleted", tag.RowsAffected()))
	return tag.RowsAffected(), nil
}

func (r *pgJobLogRepository) CountByLevel(ctx context.Context, querier interfaces.DBTX, accountID string, since time.Time) (map[models.LogLevel]int64, error) {
	var rows []struct {
		Level models.LogLevel `db:"level"`
		Total int64           `db:"total"`
	}
	if err := pgxscan.Select(ctx, querier, &rows, countJobLogsByLevelQuery, accountID, since); err != nil {
		return nil, fmt.Errorf("failed to count job logs: %w", err)
	}
	counts := make(map[models.LogLevel]int64, len(rows))
	for _, row := range rows {
		counts[row.Level] = row.Total
	}
	return counts, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
