package discipline

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/discipline-backend/internal/domain"
	"github.com/yungbote/discipline-backend/internal/platform/dbctx"
	"github.com/yungbote/discipline-backend/internal/platform/logger"
)

// DailyRollupRepo stores per-(owner, date) aggregates. Every Apply* call is a
// single clamped UPDATE so concurrent deltas on the same key never lose writes.
type DailyRollupRepo interface {
	ApplyDelta(dbc dbctx.Context, ownerID uuid.UUID, date string, delta types.RollupDelta) (*types.DailyRollup, error)
	ApplyFocusDelta(dbc dbctx.Context, ownerID uuid.UUID, date string, secondsDelta int64) (*types.DailyRollup, error)
	ApplyPlanCompletionDelta(dbc dbctx.Context, ownerID uuid.UUID, date string, completedDelta int64) (*types.DailyRollup, error)
	ApplyTestDelta(dbc dbctx.Context, ownerID uuid.UUID, date string, questionsDelta, correctDelta, countDelta int64) (*types.DailyRollup, error)

	Get(dbc dbctx.Context, ownerID uuid.UUID, date string) (*types.DailyRollup, error)
	// ListByOwnerSince returns rows with date >= since, newest first. Empty since means all rows.
	ListByOwnerSince(dbc dbctx.Context, ownerID uuid.UUID, since string) ([]*types.DailyRollup, error)
	ListByOwner(dbc dbctx.Context, ownerID uuid.UUID) ([]*types.DailyRollup, error)
	// SetAbsolute overwrites the counters of one row; only rollup replay uses it.
	SetAbsolute(dbc dbctx.Context, row *types.DailyRollup) error
}

type dailyRollupRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDailyRollupRepo(db *gorm.DB, baseLog *logger.Logger) DailyRollupRepo {
	return &dailyRollupRepo{db: db, log: baseLog.With("repo", "DailyRollupRepo")}
}

func (r *dailyRollupRepo) ensureRow(tx *gorm.DB, ownerID uuid.UUID, date string) error {
	now := time.Now().UTC()
	row := &types.DailyRollup{
		OwnerID:   ownerID,
		Date:      date,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}, {Name: "date"}},
		DoNothing: true,
	}).Create(row).Error
}

func clampedAdd(col string, delta int64) clause.Expr {
	return gorm.Expr("CASE WHEN "+col+" + ? < 0 THEN 0 ELSE "+col+" + ? END", delta, delta)
}

func (r *dailyRollupRepo) ApplyDelta(dbc dbctx.Context, ownerID uuid.UUID, date string, delta types.RollupDelta) (*types.DailyRollup, error) {
	if ownerID == uuid.Nil || date == "" {
		return nil, errors.New("rollup key requires owner and date")
	}
	tx := dbc.DB(r.db)
	if err := r.ensureRow(tx, ownerID, date); err != nil {
		return nil, err
	}

	if !delta.IsZero() {
		updates := map[string]any{"updated_at": time.Now().UTC()}
		if delta.FocusSeconds != 0 {
			updates["focus_time_seconds"] = clampedAdd("focus_time_seconds", delta.FocusSeconds)
		}
		if delta.CompletedPlans != 0 {
			updates["completed_plans"] = clampedAdd("completed_plans", delta.CompletedPlans)
		}
		if delta.TestCount != 0 {
			updates["test_count"] = clampedAdd("test_count", delta.TestCount)
		}
		if delta.TestQuestions != 0 {
			updates["test_total_questions"] = clampedAdd("test_total_questions", delta.TestQuestions)
		}
		if delta.TestCorrect != 0 {
			updates["test_correct_answers"] = clampedAdd("test_correct_answers", delta.TestCorrect)
		}
		if err := tx.Model(&types.DailyRollup{}).
			Where("owner_id = ? AND date = ?", ownerID, date).
			Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	return r.Get(dbc, ownerID, date)
}

func (r *dailyRollupRepo) ApplyFocusDelta(dbc dbctx.Context, ownerID uuid.UUID, date string, secondsDelta int64) (*types.DailyRollup, error) {
	return r.ApplyDelta(dbc, ownerID, date, types.RollupDelta{FocusSeconds: secondsDelta})
}

func (r *dailyRollupRepo) ApplyPlanCompletionDelta(dbc dbctx.Context, ownerID uuid.UUID, date string, completedDelta int64) (*types.DailyRollup, error) {
	return r.ApplyDelta(dbc, ownerID, date, types.RollupDelta{CompletedPlans: completedDelta})
}

func (r *dailyRollupRepo) ApplyTestDelta(dbc dbctx.Context, ownerID uuid.UUID, date string, questionsDelta, correctDelta, countDelta int64) (*types.DailyRollup, error) {
	return r.ApplyDelta(dbc, ownerID, date, types.RollupDelta{
		TestQuestions: questionsDelta,
		TestCorrect:   correctDelta,
		TestCount:     countDelta,
	})
}

func (r *dailyRollupRepo) Get(dbc dbctx.Context, ownerID uuid.UUID, date string) (*types.DailyRollup, error) {
	var row types.DailyRollup
	err := dbc.DB(r.db).
		Where("owner_id = ? AND date = ?", ownerID, date).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *dailyRollupRepo) ListByOwnerSince(dbc dbctx.Context, ownerID uuid.UUID, since string) ([]*types.DailyRollup, error) {
	var out []*types.DailyRollup
	if ownerID == uuid.Nil {
		return out, nil
	}
	q := dbc.DB(r.db).Where("owner_id = ?", ownerID)
	if since != "" {
		q = q.Where("date >= ?", since)
	}
	if err := q.Order("date DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *dailyRollupRepo) ListByOwner(dbc dbctx.Context, ownerID uuid.UUID) ([]*types.DailyRollup, error) {
	return r.ListByOwnerSince(dbc, ownerID, "")
}

func (r *dailyRollupRepo) SetAbsolute(dbc dbctx.Context, row *types.DailyRollup) error {
	if row == nil {
		return nil
	}
	now := time.Now().UTC()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now
	return dbc.DB(r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "owner_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"focus_time_seconds",
			"completed_plans",
			"test_count",
			"test_total_questions",
			"test_correct_answers",
			"updated_at",
		}),
	}).Create(row).Error
}
