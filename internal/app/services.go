package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/discipline-backend/internal/data/aggregates"
	domainagg "github.com/yungbote/discipline-backend/internal/domain/aggregates"
	"github.com/yungbote/discipline-backend/internal/observability"
	"github.com/yungbote/discipline-backend/internal/platform/clock"
	"github.com/yungbote/discipline-backend/internal/platform/logger"
	"github.com/yungbote/discipline-backend/internal/platform/ownerlock"
	"github.com/yungbote/discipline-backend/internal/services"
)

type Services struct {
	Auth      services.AuthService
	Plan      services.PlanService
	Focus     services.FocusService
	Test      services.TestService
	Stats     services.StatsService
	Rollup    services.RollupService
	Timer     services.TimerService
	ClientLog services.ClientLogService

	Lifecycle domainagg.RecordLifecycle
	Replay    domainagg.RollupReplay
}

type serviceDeps struct {
	DB      *gorm.DB
	Log     *logger.Logger
	Cfg     Config
	Clock   clock.Clock
	Repos   Repos
	Locker  ownerlock.Locker
	Emitter services.SSEEmitter
	Metrics *observability.Metrics
}

func wireServices(d serviceDeps) Services {
	d.Log.Info("Wiring services...")
	base := aggregates.BaseDeps{
		DB:    d.DB,
		Log:   d.Log,
		Hooks: aggregates.NewObservabilityHooks(d.Metrics),
	}
	lifecycle := aggregates.NewRecordLifecycle(aggregates.RecordLifecycleDeps{
		BaseDeps: base,
		Plans:    d.Repos.Plan,
		Sessions: d.Repos.FocusSession,
		Tests:    d.Repos.TestRecord,
		Rollups:  d.Repos.DailyRollup,
		Ledger:   d.Repos.RollupLedger,
		Locker:   d.Locker,
		Clock:    d.Clock,
	})
	replay := aggregates.NewRollupReplay(aggregates.RollupReplayDeps{
		BaseDeps: base,
		Rollups:  d.Repos.DailyRollup,
		Ledger:   d.Repos.RollupLedger,
		Sessions: d.Repos.FocusSession,
		Locker:   d.Locker,
		Clock:    d.Clock,
	})
	notify := services.NewNotifier(d.Emitter)

	focus := services.NewFocusService(d.Log, d.Repos.FocusSession, lifecycle, notify)
	return Services{
		Auth:   services.NewAuthService(d.DB, d.Log, d.Repos.User, d.Clock, d.Cfg.JWTSecretKey, d.Cfg.AccessTokenTTL),
		Plan:   services.NewPlanService(d.Log, d.Repos.Plan, lifecycle, notify),
		Focus:  focus,
		Test:   services.NewTestService(d.Log, d.Repos.TestRecord, lifecycle, notify),
		Stats:  services.NewStatsService(d.Log, d.Repos.DailyRollup, d.Repos.TestRecord, d.Repos.FocusSession, d.Clock),
		Rollup: services.NewRollupService(d.Log, d.Repos.User, replay),
		Timer: services.NewTimerService(d.Log, d.Repos.Plan, focus, notify, services.TimerServiceOptions{
			Tick: d.Cfg.TimerTick,
			Now:  d.Clock.Now,
		}),
		ClientLog: services.NewClientLogService(d.Log),

		Lifecycle: lifecycle,
		Replay:    replay,
	}
}
