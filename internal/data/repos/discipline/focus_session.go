package discipline

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/discipline-backend/internal/domain"
	"github.com/yungbote/discipline-backend/internal/platform/dbctx"
	"github.com/yungbote/discipline-backend/internal/platform/logger"
)

type FocusSessionRepo interface {
	Create(dbc dbctx.Context, s *types.FocusSession) error
	GetByID(dbc dbctx.Context, ownerID, sessionID uuid.UUID) (*types.FocusSession, error)
	// ListByOwner returns sessions newest first with the plan title joined in.
	ListByOwner(dbc dbctx.Context, ownerID uuid.UUID) ([]*types.FocusSession, error)
	ListByPlan(dbc dbctx.Context, ownerID, planID uuid.UUID) ([]*types.FocusSession, error)
	Delete(dbc dbctx.Context, ownerID, sessionID uuid.UUID) (bool, error)
}

type focusSessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFocusSessionRepo(db *gorm.DB, baseLog *logger.Logger) FocusSessionRepo {
	return &focusSessionRepo{db: db, log: baseLog.With("repo", "FocusSessionRepo")}
}

func (r *focusSessionRepo) Create(dbc dbctx.Context, s *types.FocusSession) error {
	if s == nil {
		return nil
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.StartTime = s.StartTime.UTC()
	s.EndTime = s.EndTime.UTC()
	return dbc.DB(r.db).Create(s).Error
}

func (r *focusSessionRepo) GetByID(dbc dbctx.Context, ownerID, sessionID uuid.UUID) (*types.FocusSession, error) {
	if ownerID == uuid.Nil || sessionID == uuid.Nil {
		return nil, nil
	}
	var s types.FocusSession
	err := dbc.DB(r.db).
		Where("id = ? AND owner_id = ?", sessionID, ownerID).
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *focusSessionRepo) ListByOwner(dbc dbctx.Context, ownerID uuid.UUID) ([]*types.FocusSession, error) {
	var out []*types.FocusSession
	if ownerID == uuid.Nil {
		return out, nil
	}
	err := dbc.DB(r.db).
		Table("focus_session AS f").
		Select("f.*, p.title AS plan_title").
		Joins("LEFT JOIN plan AS p ON p.id = f.plan_id").
		Where("f.owner_id = ?", ownerID).
		Order("f.start_time DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *focusSessionRepo) ListByPlan(dbc dbctx.Context, ownerID, planID uuid.UUID) ([]*types.FocusSession, error) {
	var out []*types.FocusSession
	if err := dbc.DB(r.db).
		Where("owner_id = ? AND plan_id = ?", ownerID, planID).
		Order("start_time ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *focusSessionRepo) Delete(dbc dbctx.Context, ownerID, sessionID uuid.UUID) (bool, error) {
	res := dbc.DB(r.db).
		Where("id = ? AND owner_id = ?", sessionID, ownerID).
		Delete(&types.FocusSession{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
