package aggregates

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/discipline-backend/internal/domain/aggregates"
	"github.com/yungbote/discipline-backend/internal/observability"
	"github.com/yungbote/discipline-backend/internal/platform/dbctx"
	"github.com/yungbote/discipline-backend/internal/platform/logger"
	"github.com/yungbote/discipline-backend/internal/platform/ownerlock"
)

const ownerLockNamespace = "discipline.owner"

type BaseDeps struct {
	DB       *gorm.DB
	Log      *logger.Logger
	Runner   TxRunner
	Hooks    Hooks
	CASGuard CASGuard
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.CASGuard.db == nil {
		d.CASGuard = NewCASGuard(d.DB)
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	return d
}

// executeWrite runs fn in one transaction inside a span named op and reports
// the mapped outcome to the hooks.
func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	start := time.Now()
	deps = deps.withDefaults()
	op = strings.TrimSpace(op)
	if op == "" {
		op = "aggregate.write"
	}
	ctx, span := observability.Tracer().Start(ctx, op)
	defer span.End()

	err := deps.Runner.InTx(ctx, fn)
	mapped := MapError(op, err)

	status := "success"
	if mapped != nil {
		status = aggregateErrorStatus(mapped)
		if domainagg.IsCode(mapped, domainagg.CodeConflict) {
			deps.Hooks.IncConflict(op)
		}
		if domainagg.IsCode(mapped, domainagg.CodeRetryable) {
			deps.Hooks.IncRetry(op)
		}
		span.RecordError(mapped)
		span.SetStatus(codes.Error, status)
	}
	span.SetAttributes(attribute.String("aggregate.status", status))
	deps.Hooks.ObserveOperation(op, status, time.Since(start))
	return mapped
}

// ownerWrite serializes fn against every other write of the owner: in process
// through locker, and across instances through a transaction-scoped advisory
// lock when the store supports one.
func ownerWrite(ctx context.Context, deps BaseDeps, locker ownerlock.Locker, ownerID uuid.UUID, op string, fn func(dbc dbctx.Context) error) error {
	if ownerID == uuid.Nil {
		return domainagg.Invalid(op, "owner is required")
	}
	deps = deps.withDefaults()
	release, err := locker.Lock(ctx, ownerID.String())
	if err != nil {
		deps.Hooks.IncRetry(op)
		return MapError(op, err)
	}
	defer release()
	return executeWrite(ctx, deps, op, func(dbc dbctx.Context) error {
		if err := deps.CASGuard.LockOwnerTx(dbc, ownerLockNamespace, ownerID); err != nil {
			return err
		}
		return fn(dbc)
	})
}

func aggregateErrorStatus(err error) string {
	if err == nil {
		return "success"
	}
	code := strings.TrimSpace(string(domainagg.CodeOf(err)))
	if code == "" {
		code = strings.TrimSpace(string(domainagg.CodeOf(MapError("aggregate.status", err))))
	}
	if code == "" {
		return "failure"
	}
	return code
}
