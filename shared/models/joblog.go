package models

import "time"

// LogLevel is the severity of a job log entry.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// IsValid reports whether l is a known level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true
	}
	return false
}

// JobLogEntry is one append-only structured log line.
type JobLogEntry struct {
	ID        int64          `db:"id" json:"entry_id"`
	AccountID string         `db:"account_id" json:"account_id"`
	JobID     *string        `db:"job_id" json:"job_id,omitempty"`
	Level     LogLevel       `db:"level" json:"level"`
	Source    string         `db:"source" json:"source"`
	Message   string         `db:"message" json:"message"`
	Metadata  map[string]any `db:"metadata" json:"metadata,omitempty"`
	Timestamp time.Time      `db:"ts" json:"timestamp"`
}

// LogFilter narrows a tail query. After is the id of the last entry the
// caller has seen and takes precedence over Since.
type LogFilter struct {
	After  int64
	Since  *time.Time
	Level  LogLevel
	Source string
	JobID  string
	Search string
	Limit  int
}

// LogTail is a page of entries plus the cursor for the next poll. Cursor is
// the id of the last entry returned; ids grow in insert order.
type LogTail struct {
	Entries []JobLogEntry `json:"entries"`
	Cursor  int64         `json:"cursor"`
}

// LogStats counts entries by level over a window.
type LogStats struct {
	Window  string             `json:"window"`
	Total   int64              `json:"total"`
	ByLevel map[LogLevel]int64 `json:"by_level"`
}
