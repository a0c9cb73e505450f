package discipline

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/discipline-backend/internal/domain"
	"github.com/yungbote/discipline-backend/internal/platform/dbctx"
	"github.com/yungbote/discipline-backend/internal/platform/logger"
)

type RollupLedgerRepo interface {
	Append(dbc dbctx.Context, entry *types.RollupLedgerEntry) error
	// ListByRecord returns every entry a record contributed, oldest first.
	ListByRecord(dbc dbctx.Context, ownerID uuid.UUID, kind types.LedgerKind, recordID uuid.UUID) ([]*types.RollupLedgerEntry, error)
	ListByOwner(dbc dbctx.Context, ownerID uuid.UUID) ([]*types.RollupLedgerEntry, error)
}

type rollupLedgerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRollupLedgerRepo(db *gorm.DB, baseLog *logger.Logger) RollupLedgerRepo {
	return &rollupLedgerRepo{db: db, log: baseLog.With("repo", "RollupLedgerRepo")}
}

func (r *rollupLedgerRepo) Append(dbc dbctx.Context, entry *types.RollupLedgerEntry) error {
	if entry == nil {
		return nil
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return dbc.DB(r.db).Create(entry).Error
}

func (r *rollupLedgerRepo) ListByRecord(dbc dbctx.Context, ownerID uuid.UUID, kind types.LedgerKind, recordID uuid.UUID) ([]*types.RollupLedgerEntry, error) {
	var out []*types.RollupLedgerEntry
	if err := dbc.DB(r.db).
		Where("owner_id = ? AND kind = ? AND record_id = ?", ownerID, kind, recordID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *rollupLedgerRepo) ListByOwner(dbc dbctx.Context, ownerID uuid.UUID) ([]*types.RollupLedgerEntry, error) {
	var out []*types.RollupLedgerEntry
	if ownerID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
