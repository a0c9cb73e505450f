package app

import (
	"gorm.io/gorm"

	httpH "github.com/yungbote/discipline-backend/internal/http/handlers"
	httpMW "github.com/yungbote/discipline-backend/internal/http/middleware"
	"github.com/yungbote/discipline-backend/internal/platform/logger"
	"github.com/yungbote/discipline-backend/internal/realtime"
)

type Handlers struct {
	Health    *httpH.HealthHandler
	Auth      *httpH.AuthHandler
	ClientLog *httpH.ClientLogHandler
	Realtime  *httpH.RealtimeHandler
	Plan      *httpH.PlanHandler
	Focus     *httpH.FocusHandler
	Test      *httpH.TestHandler
	Stats     *httpH.StatsHandler
	Rollup    *httpH.RollupHandler
	Timer     *httpH.TimerHandler

	AuthMiddleware *httpMW.AuthMiddleware
}

func wireHandlers(log *logger.Logger, db *gorm.DB, svc Services, hub *realtime.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:    httpH.NewHealthHandler(db),
		Auth:      httpH.NewAuthHandler(svc.Auth),
		ClientLog: httpH.NewClientLogHandler(svc.ClientLog),
		Realtime:  httpH.NewRealtimeHandler(log, hub),
		Plan:      httpH.NewPlanHandler(svc.Plan),
		Focus:     httpH.NewFocusHandler(svc.Focus),
		Test:      httpH.NewTestHandler(svc.Test),
		Stats:     httpH.NewStatsHandler(svc.Stats),
		Rollup:    httpH.NewRollupHandler(svc.Rollup),
		Timer:     httpH.NewTimerHandler(svc.Timer),

		AuthMiddleware: httpMW.NewAuthMiddleware(log, svc.Auth),
	}
}
