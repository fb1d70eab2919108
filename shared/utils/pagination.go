package utils

import (
	"fmt"
	"strconv"
	"time"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)

// ParseLimitOffset parses optional limit/offset query values, clamping the
// limit to (0, MaxPageLimit].
func ParseLimitOffset(limitStr, offsetStr string) (limit, offset int, err error) {
	limit = DefaultPageLimit
	if limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			return 0, 0, fmt.Errorf("invalid limit %q", limitStr)
		}
		limit = min(limit, MaxPageLimit)
	}
	if offsetStr != "" {
		offset, err = strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("invalid offset %q", offsetStr)
		}
	}
	return limit, offset, nil
}

// ParseTimeCursor parses an RFC 3339 timestamp cursor. Empty input yields nil.
func ParseTimeCursor(cursor string) (*time.Time, error) {
	if cursor == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, cursor)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp cursor %q: %w", cursor, err)
	}
	t = t.UTC()
	return &t, nil
}

// ParseLogCursor reads a log tail cursor: either the id of the last entry
// seen or an RFC 3339 timestamp.
func ParseLogCursor(cursor string) (after int64, since *time.Time, err error) {
	if cursor == "" {
		return 0, nil, nil
	}
	if id, convErr := strconv.ParseInt(cursor, 10, 64); convErr == nil {
		if id < 0 {
			return 0, nil, fmt.Errorf("invalid log cursor %q", cursor)
		}
		return id, nil, nil
	}
	since, err = ParseTimeCursor(cursor)
	return 0, since, err
}
