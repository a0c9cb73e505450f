package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/discipline-backend/internal/http/handlers"
	httpMW "github.com/yungbote/discipline-backend/internal/http/middleware"
	"github.com/yungbote/discipline-backend/internal/observability"
	"github.com/yungbote/discipline-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	AllowedOrigins []string
	// TracingService enables otelgin spans when non-empty.
	TracingService string

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler    *httpH.HealthHandler
	AuthHandler      *httpH.AuthHandler
	ClientLogHandler *httpH.ClientLogHandler
	RealtimeHandler  *httpH.RealtimeHandler
	PlanHandler      *httpH.PlanHandler
	FocusHandler     *httpH.FocusHandler
	TestHandler      *httpH.TestHandler
	StatsHandler     *httpH.StatsHandler
	RollupHandler    *httpH.RollupHandler
	TimerHandler     *httpH.TimerHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingService != "" {
		r.Use(otelgin.Middleware(cfg.TracingService))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		if cfg.AuthHandler != nil {
			api.POST("/login", cfg.AuthHandler.Login)
		}
		if cfg.ClientLogHandler != nil {
			api.POST("/logs", cfg.ClientLogHandler.Log)
		}
		if cfg.RealtimeHandler != nil {
			api.GET("/realtime/health", cfg.RealtimeHandler.Health)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		if cfg.AuthHandler != nil {
			protected.GET("/me", cfg.AuthHandler.Me)
		}

		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			protected.GET("/sse/stream", cfg.RealtimeHandler.SSEStream)
			protected.POST("/sse/subscribe", cfg.RealtimeHandler.SSESubscribe)
			protected.POST("/sse/unsubscribe", cfg.RealtimeHandler.SSEUnsubscribe)
		}

		if cfg.PlanHandler != nil {
			protected.GET("/plans", cfg.PlanHandler.List)
			protected.POST("/plans", cfg.PlanHandler.Create)
			protected.PUT("/plans/:id", cfg.PlanHandler.Update)
			protected.DELETE("/plans/:id", cfg.PlanHandler.Delete)
		}

		if cfg.FocusHandler != nil {
			protected.POST("/focus", cfg.FocusHandler.Create)
			protected.GET("/focus/sessions", cfg.FocusHandler.ListSessions)
			protected.DELETE("/focus/sessions/:id", cfg.FocusHandler.DeleteSession)
		}

		if cfg.TestHandler != nil {
			protected.GET("/tests", cfg.TestHandler.List)
			protected.POST("/tests", cfg.TestHandler.Create)
			protected.PUT("/tests/:id", cfg.TestHandler.Update)
			protected.DELETE("/tests/:id", cfg.TestHandler.Delete)
		}

		if cfg.StatsHandler != nil {
			protected.GET("/stats", cfg.StatsHandler.GetStats)
		}

		if cfg.RollupHandler != nil {
			protected.POST("/rollups/rebuild", cfg.RollupHandler.Rebuild)
			protected.GET("/rollups/verify", cfg.RollupHandler.Verify)
		}

		if cfg.TimerHandler != nil {
			protected.GET("/timer", cfg.TimerHandler.Get)
			protected.POST("/timer/start", cfg.TimerHandler.Start)
			protected.POST("/timer/pause", cfg.TimerHandler.Pause)
			protected.POST("/timer/resume", cfg.TimerHandler.Resume)
			protected.POST("/timer/stop", cfg.TimerHandler.Stop)
		}
	}

	return r
}
