package mocks

import (
	"context"

	"content-pipeline/shared/interfaces"
)

// TxPassthrough runs the transaction body directly with a nil querier, so
// repository mocks see the body's calls without a database.
type TxPassthrough struct {
	// Calls counts WithTransaction invocations.
	Calls int
}

func (t *TxPassthrough) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx interfaces.DBTX) error) error {
	t.Calls++
	return fn(ctx, nil)
}

var _ interfaces.TxManager = (*TxPassthrough)(nil)
