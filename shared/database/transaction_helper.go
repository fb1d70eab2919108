package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"content-pipeline/shared/interfaces"
)

const (
	txMaxAttempts = 3
	txRetryDelay  = 20 * time.Millisecond
)

// TransactionHelper runs functions inside pgx transactions. A transaction that
// fails with a serialization failure or deadlock is replayed from the start.
type TransactionHelper struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

var _ interfaces.TxManager = (*TransactionHelper)(nil)

func NewTransactionHelper(db *pgxpool.Pool, logger *zap.Logger) *TransactionHelper {
	return &TransactionHelper{
		db:     db,
		logger: logger.Named("TxHelper"),
	}
}

// WithTransaction commits when fn returns nil. fn may run more than once, so it
// must not have side effects outside the transaction.
func (h *TransactionHelper) WithTransaction(
	ctx context.Context,
	fn func(ctx context.Context, tx interfaces.DBTX) error,
) error {
	var err error
	for attempt := 1; attempt <= txMaxAttempts; attempt++ {
		err = pgx.BeginTxFunc(ctx, h.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
			return fn(ctx, tx)
		})
		if err == nil || !isRetryableTxError(err) || attempt == txMaxAttempts {
			break
		}
		h.logger.Warn("Transaction conflict, retrying",
			zap.Int("attempt", attempt),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(time.Duration(attempt) * txRetryDelay):
		}
	}
	if err != nil && isRetryableTxError(err) {
		return fmt.Errorf("transaction gave up after %d attempts: %w", txMaxAttempts, err)
	}
	return err
}
