package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/discipline-backend/internal/data/repos/discipline"
	"github.com/yungbote/discipline-backend/internal/data/repos/user"
	"github.com/yungbote/discipline-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo

type PlanRepo = discipline.PlanRepo
type FocusSessionRepo = discipline.FocusSessionRepo
type TestRecordRepo = discipline.TestRecordRepo
type DailyRollupRepo = discipline.DailyRollupRepo
type RollupLedgerRepo = discipline.RollupLedgerRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }

func NewPlanRepo(db *gorm.DB, baseLog *logger.Logger) PlanRepo {
	return discipline.NewPlanRepo(db, baseLog)
}
func NewFocusSessionRepo(db *gorm.DB, baseLog *logger.Logger) FocusSessionRepo {
	return discipline.NewFocusSessionRepo(db, baseLog)
}
func NewTestRecordRepo(db *gorm.DB, baseLog *logger.Logger) TestRecordRepo {
	return discipline.NewTestRecordRepo(db, baseLog)
}
func NewDailyRollupRepo(db *gorm.DB, baseLog *logger.Logger) DailyRollupRepo {
	return discipline.NewDailyRollupRepo(db, baseLog)
}
func NewRollupLedgerRepo(db *gorm.DB, baseLog *logger.Logger) RollupLedgerRepo {
	return discipline.NewRollupLedgerRepo(db, baseLog)
}
