package aggregates

import (
	"hash/fnv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/discipline-backend/internal/platform/dbctx"
)

// CASGuard provides compare-and-set helpers for aggregate writes.
type CASGuard struct {
	db *gorm.DB
}

func NewCASGuard(db *gorm.DB) CASGuard {
	return CASGuard{db: db}
}

func (g CASGuard) baseDB(dbc dbctx.Context) (*gorm.DB, error) {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx), nil
	}
	if g.db != nil {
		return g.db.WithContext(dbc.Ctx), nil
	}
	return nil, ValidationError("missing db transaction context")
}

// CompareAndSet updates the owner's row only while column still equals
// expected. It reports whether a row changed.
func (g CASGuard) CompareAndSet(dbc dbctx.Context, table string, ownerID, id uuid.UUID, column string, expected any, updates map[string]any) (bool, error) {
	db, err := g.baseDB(dbc)
	if err != nil {
		return false, err
	}
	table = strings.TrimSpace(table)
	column = strings.TrimSpace(column)
	if table == "" || column == "" || id == uuid.Nil || ownerID == uuid.Nil {
		return false, ValidationError("table, column, owner and id are required for CompareAndSet")
	}
	if len(updates) == 0 {
		return false, ValidationError("updates must not be empty")
	}
	res := db.Table(table).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Where(column+" = ?", expected).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// LockOwnerTx takes a transaction-scoped Postgres advisory lock for the owner.
// Other dialects serialize writers on their own and the call is a no-op.
func (g CASGuard) LockOwnerTx(dbc dbctx.Context, namespace string, ownerID uuid.UUID) error {
	if dbc.Tx == nil || ownerID == uuid.Nil {
		return nil
	}
	if dbc.Tx.Dialector == nil || dbc.Tx.Dialector.Name() != "postgres" {
		return nil
	}
	return dbc.Tx.WithContext(dbc.Ctx).Exec("SELECT pg_advisory_xact_lock(?)", advisoryKey64(namespace, ownerID)).Error
}

func advisoryKey64(namespace string, id uuid.UUID) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(namespace))
	_, _ = h.Write([]byte{':'})
	_, _ = h.Write([]byte(id.String()))
	return int64(h.Sum64())
}

// RequireCASSuccess converts a failed compare-and-set into a typed conflict error.
func RequireCASSuccess(ok bool, message string) error {
	if ok {
		return nil
	}
	return ConflictError(strings.TrimSpace(message))
}
