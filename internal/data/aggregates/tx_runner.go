package aggregates

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	domainagg "github.com/yungbote/discipline-backend/internal/domain/aggregates"
	"github.com/yungbote/discipline-backend/internal/platform/dbctx"
)

// TxRunner provides the transaction boundary for aggregate writes.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type gormTxRunner struct {
	db       *gorm.DB
	attempts int
	backoff  time.Duration
}

type TxOption func(*gormTxRunner)

// WithRetry re-runs the whole transaction when it fails with a retryable
// storage error (sqlite busy, serialization failure, deadlock).
func WithRetry(attempts int, backoff time.Duration) TxOption {
	return func(r *gormTxRunner) {
		if attempts > 0 {
			r.attempts = attempts
		}
		if backoff > 0 {
			r.backoff = backoff
		}
	}
}

// NewGormTxRunner returns a transaction runner backed by GORM transactions.
func NewGormTxRunner(db *gorm.DB, opts ...TxOption) TxRunner {
	r := &gormTxRunner{db: db, attempts: 1, backoff: 20 * time.Millisecond}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return domainagg.NewError(domainagg.CodeInternal, "aggregate.tx", "transaction runner has nil db", nil)
	}
	var err error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(dbctx.Context{Ctx: ctx, Tx: tx})
		})
		if err == nil || attempt == r.attempts || !isRetryableStorage(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(time.Duration(attempt) * r.backoff):
		}
	}
	return err
}

func isRetryableStorage(err error) bool {
	if domainagg.CodeOf(err) != "" || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return domainagg.IsCode(MapError("aggregate.tx", err), domainagg.CodeRetryable)
}
