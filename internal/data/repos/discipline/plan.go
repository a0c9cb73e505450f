package discipline

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/discipline-backend/internal/domain"
	"github.com/yungbote/discipline-backend/internal/platform/dbctx"
	"github.com/yungbote/discipline-backend/internal/platform/logger"
)

type PlanRepo interface {
	Create(dbc dbctx.Context, p *types.Plan) error
	GetByID(dbc dbctx.Context, ownerID, planID uuid.UUID) (*types.Plan, error)
	ListByOwner(dbc dbctx.Context, ownerID uuid.UUID) ([]*types.Plan, error)
	ListCompleted(dbc dbctx.Context, ownerID uuid.UUID, excludePlanID uuid.UUID) ([]*types.Plan, error)
	Delete(dbc dbctx.Context, ownerID, planID uuid.UUID) (bool, error)
}

type planRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPlanRepo(db *gorm.DB, baseLog *logger.Logger) PlanRepo {
	return &planRepo{db: db, log: baseLog.With("repo", "PlanRepo")}
}

func (r *planRepo) Create(dbc dbctx.Context, p *types.Plan) error {
	if p == nil {
		return nil
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return dbc.DB(r.db).Create(p).Error
}

func (r *planRepo) GetByID(dbc dbctx.Context, ownerID, planID uuid.UUID) (*types.Plan, error) {
	if ownerID == uuid.Nil || planID == uuid.Nil {
		return nil, nil
	}
	var p types.Plan
	err := dbc.DB(r.db).
		Where("id = ? AND owner_id = ?", planID, ownerID).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *planRepo) ListByOwner(dbc dbctx.Context, ownerID uuid.UUID) ([]*types.Plan, error) {
	var out []*types.Plan
	if ownerID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *planRepo) ListCompleted(dbc dbctx.Context, ownerID uuid.UUID, excludePlanID uuid.UUID) ([]*types.Plan, error) {
	var out []*types.Plan
	q := dbc.DB(r.db).Where("owner_id = ? AND completed = ?", ownerID, true)
	if excludePlanID != uuid.Nil {
		q = q.Where("id <> ?", excludePlanID)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *planRepo) Delete(dbc dbctx.Context, ownerID, planID uuid.UUID) (bool, error) {
	res := dbc.DB(r.db).
		Where("id = ? AND owner_id = ?", planID, ownerID).
		Delete(&types.Plan{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
