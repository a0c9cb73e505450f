package discipline

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/discipline-backend/internal/domain"
	"github.com/yungbote/discipline-backend/internal/platform/dbctx"
	"github.com/yungbote/discipline-backend/internal/platform/logger"
)

type TestRecordRepo interface {
	Create(dbc dbctx.Context, t *types.TestRecord) error
	GetByID(dbc dbctx.Context, ownerID, testID uuid.UUID) (*types.TestRecord, error)
	ListByOwner(dbc dbctx.Context, ownerID uuid.UUID) ([]*types.TestRecord, error)
	UpdateScores(dbc dbctx.Context, t *types.TestRecord, at time.Time) error
	Delete(dbc dbctx.Context, ownerID, testID uuid.UUID) (bool, error)
}

type testRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTestRecordRepo(db *gorm.DB, baseLog *logger.Logger) TestRecordRepo {
	return &testRecordRepo{db: db, log: baseLog.With("repo", "TestRecordRepo")}
}

func (r *testRecordRepo) Create(dbc dbctx.Context, t *types.TestRecord) error {
	if t == nil {
		return nil
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return dbc.DB(r.db).Create(t).Error
}

func (r *testRecordRepo) GetByID(dbc dbctx.Context, ownerID, testID uuid.UUID) (*types.TestRecord, error) {
	if ownerID == uuid.Nil || testID == uuid.Nil {
		return nil, nil
	}
	var t types.TestRecord
	err := dbc.DB(r.db).
		Where("id = ? AND owner_id = ?", testID, ownerID).
		First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *testRecordRepo) ListByOwner(dbc dbctx.Context, ownerID uuid.UUID) ([]*types.TestRecord, error) {
	var out []*types.TestRecord
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

func (r *testRecordRepo) UpdateScores(dbc dbctx.Context, t *types.TestRecord, at time.Time) error {
	t.UpdatedAt = at.UTC()
	return dbc.DB(r.db).
		Model(&types.TestRecord{}).
		Where("id = ? AND owner_id = ?", t.ID, t.OwnerID).
		Updates(map[string]any{
			"name":            t.Name,
			"total_questions": t.TotalQuestions,
			"correct_answers": t.CorrectAnswers,
			"updated_at":      t.UpdatedAt,
		}).Error
}

func (r *testRecordRepo) Delete(dbc dbctx.Context, ownerID, testID uuid.UUID) (bool, error) {
	res := dbc.DB(r.db).
		Where("id = ? AND owner_id = ?", testID, ownerID).
		Delete(&types.TestRecord{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
