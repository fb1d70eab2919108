package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestConstraintViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "templates_name_key"})

	name, ok := constraintViolation(err, pgUniqueViolation)
	assert.True(t, ok)
	assert.Equal(t, "templates_name_key", name)

	_, ok = constraintViolation(err, pgForeignKeyViolation)
	assert.False(t, ok)

	_, ok = constraintViolation(errors.New("boom"), pgUniqueViolation)
	assert.False(t, ok)
}

func TestIsRetryableTxError(t *testing.T) {
	assert.True(t, isRetryableTxError(&pgconn.PgError{Code: pgSerializationFailure}))
	assert.True(t, isRetryableTxError(fmt.Errorf("commit: %w", &pgconn.PgError{Code: pgDeadlockDetected})))
	assert.False(t, isRetryableTxError(&pgconn.PgError{Code: pgUniqueViolation}))
	assert.False(t, isRetryableTxError(errors.New("connection reset")))
}
