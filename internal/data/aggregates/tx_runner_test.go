package aggregates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yungbote/discipline-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/discipline-backend/internal/domain/aggregates"
	"github.com/yungbote/discipline-backend/internal/platform/dbctx"
)

func TestGormTxRunnerRetriesBusyStorage(t *testing.T) {
	db := testutil.DB(t)
	runner := NewGormTxRunner(db, WithRetry(3, time.Millisecond))

	calls := 0
	err := runner.InTx(context.Background(), func(dbc dbctx.Context) error {
		calls++
		if dbc.Tx == nil {
			t.Fatalf("tx: want non-nil")
		}
		if calls < 2 {
			return errors.New("database is locked (5) (SQLITE_BUSY)")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("InTx: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls: want=2 got=%d", calls)
	}
}

func TestGormTxRunnerDoesNotRetryDomainErrors(t *testing.T) {
	db := testutil.DB(t)
	runner := NewGormTxRunner(db, WithRetry(3, time.Millisecond))

	calls := 0
	err := runner.InTx(context.Background(), func(dbctx.Context) error {
		calls++
		return domainagg.TooManyActivePlans("op")
	})
	if !errors.Is(err, domainagg.ErrTooManyActivePlans) {
		t.Fatalf("err: want=%v got=%v", domainagg.ErrTooManyActivePlans, err)
	}
	if calls != 1 {
		t.Fatalf("calls: want=1 got=%d", calls)
	}
}
