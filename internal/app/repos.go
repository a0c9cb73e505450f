package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/discipline-backend/internal/data/repos"
	"github.com/yungbote/discipline-backend/internal/platform/logger"
)

type Repos struct {
	User         repos.UserRepo
	Plan         repos.PlanRepo
	FocusSession repos.FocusSessionRepo
	TestRecord   repos.TestRecordRepo
	DailyRollup  repos.DailyRollupRepo
	RollupLedger repos.RollupLedgerRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:         repos.NewUserRepo(db, log),
		Plan:         repos.NewPlanRepo(db, log),
		FocusSession: repos.NewFocusSessionRepo(db, log),
		TestRecord:   repos.NewTestRecordRepo(db, log),
		DailyRollup:  repos.NewDailyRollupRepo(db, log),
		RollupLedger: repos.NewRollupLedgerRepo(db, log),
	}
}
