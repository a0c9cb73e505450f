package app

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	redisclient "github.com/yungbote/discipline-backend/internal/clients/redis"
	"github.com/yungbote/discipline-backend/internal/data/db"
	httpserver "github.com/yungbote/discipline-backend/internal/http"
	"github.com/yungbote/discipline-backend/internal/observability"
	"github.com/yungbote/discipline-backend/internal/platform/clock"
	"github.com/yungbote/discipline-backend/internal/platform/ctxutil"
	"github.com/yungbote/discipline-backend/internal/platform/dbctx"
	"github.com/yungbote/discipline-backend/internal/platform/logger"
	"github.com/yungbote/discipline-backend/internal/platform/ownerlock"
	"github.com/yungbote/discipline-backend/internal/realtime"
	"github.com/yungbote/discipline-backend/internal/realtime/bus"
	"github.com/yungbote/discipline-backend/internal/services"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	Store    *db.Service
	DB       *gorm.DB
	Clock    clock.Clock
	Metrics  *observability.Metrics
	Redis    goredis.UniversalClient
	SSEHub   *realtime.SSEHub
	Repos    Repos
	Services Services
	Handlers Handlers
	Server   *httpserver.Server

	bus          bus.Bus
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

// New opens storage and wires every layer. Nothing listens until Run.
func New(ctx context.Context, cfg Config, log *logger.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	loc, err := clock.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}
	a := &App{Log: log, Cfg: cfg, Clock: clock.System(loc)}

	store, err := db.Open(cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.Store = store
	a.DB = store.DB()
	if err := store.AutoMigrateAll(); err != nil {
		a.Close()
		return nil, fmt.Errorf("automigrate: %w", err)
	}

	a.Metrics = observability.Init(log, cfg.MetricsEnabled)
	a.otelShutdown = observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.OtelEnabled,
		ServiceName: cfg.OtelServiceName,
		Environment: cfg.AppEnv,
		Version:     cfg.OtelVersion,
		Endpoint:    cfg.OtelEndpoint,
		Headers:     observability.ParseHeaders(cfg.OtelHeaders),
		Insecure:    cfg.OtelInsecure,
		SampleRatio: cfg.OtelSampleRatio,
	})

	if cfg.RedisAddr != "" {
		rdb, err := redisclient.NewClient(ctx, log, redisclient.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Redis = rdb
	}

	a.SSEHub = realtime.NewSSEHub(log)
	emitter, err := a.wireEmitter()
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Repos = wireRepos(a.DB, log)
	a.Services = wireServices(serviceDeps{
		DB:      a.DB,
		Log:     log,
		Cfg:     cfg,
		Clock:   a.Clock,
		Repos:   a.Repos,
		Locker:  a.wireLocker(),
		Emitter: emitter,
		Metrics: a.Metrics,
	})
	a.Handlers = wireHandlers(log, a.DB, a.Services, a.SSEHub)
	a.Server = wireServer(log, cfg, a.Metrics, a.Handlers)
	a.Server.OnShutdown = append(a.Server.OnShutdown, a.SSEHub.CloseAll)
	return a, nil
}

// wireEmitter publishes through redis when it is configured so every
// instance's hub sees every event; otherwise events go straight to the hub.
func (a *App) wireEmitter() (services.SSEEmitter, error) {
	if a.Redis == nil {
		return &services.HubEmitter{Hub: a.SSEHub}, nil
	}
	b, err := bus.NewRedisBus(a.Log, a.Redis, a.Cfg.RedisChannel)
	if err != nil {
		return nil, fmt.Errorf("init redis bus: %w", err)
	}
	a.bus = b
	return &services.RedisEmitter{Bus: b, Log: a.Log}, nil
}

func (a *App) wireLocker() ownerlock.Locker {
	if a.Cfg.OwnerLockBackend == OwnerLockRedis && a.Redis != nil {
		a.Log.Info("Using redis owner lock")
		return ownerlock.NewRedis(a.Redis, a.Log, ownerlock.RedisOptions{TTL: a.Cfg.OwnerLockTTL})
	}
	return ownerlock.NewLocal()
}

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, h Handlers) *httpserver.Server {
	log.Info("Wiring router...")
	tracing := ""
	if cfg.OtelEnabled {
		tracing = cfg.OtelServiceName
	}
	return httpserver.NewServer(httpserver.RouterConfig{
		Log:            log,
		Metrics:        metrics,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		TracingService: tracing,
		AuthMiddleware: h.AuthMiddleware,

		HealthHandler:    h.Health,
		AuthHandler:      h.Auth,
		ClientLogHandler: h.ClientLog,
		RealtimeHandler:  h.Realtime,
		PlanHandler:      h.Plan,
		FocusHandler:     h.Focus,
		TestHandler:      h.Test,
		StatsHandler:     h.Stats,
		RollupHandler:    h.Rollup,
		TimerHandler:     h.Timer,
	})
}

// Start launches background work: metrics, collectors and the bus forwarder.
func (a *App) Start(ctx context.Context) error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if a.Metrics != nil {
		a.Metrics.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
		a.Metrics.StartDBCollector(ctx, a.Log, a.DB, a.Store.Driver())
		if a.Redis != nil {
			a.Metrics.StartRedisCollector(ctx, a.Log, a.Redis)
		}
	}
	if a.bus != nil {
		if err := a.bus.StartForwarder(ctx, a.SSEHub.Broadcast); err != nil {
			return fmt.Errorf("start SSE forwarder: %w", err)
		}
	}
	return nil
}

// SeedUsers creates the configured demo accounts when enabled.
func (a *App) SeedUsers(ctx context.Context) error {
	if !a.Cfg.SeedUsersOnStart {
		return nil
	}
	n, err := a.Services.Auth.SeedUsers(ctx, a.Cfg.SeedUserCount, a.Cfg.SeedUserPassword)
	if err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	a.Log.Info("Seeded users", "created", n)
	return nil
}

// Run serves HTTP until ctx ends.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	if err := a.Start(ctx); err != nil {
		return err
	}
	if err := a.SeedUsers(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.Server.Run(gctx, a.Cfg.HTTPAddr)
	})
	g.Go(func() error {
		<-gctx.Done()
		a.Services.Timer.Close()
		return nil
	})
	return g.Wait()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Services.Timer != nil {
		a.Services.Timer.Close()
	}
	if a.bus != nil {
		if err := a.bus.Close(); err != nil {
			a.Log.Warn("close SSE bus", "error", err)
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.otelShutdown != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(shutdownCtx); err != nil {
			a.Log.Warn("otel shutdown", "error", err)
		}
		cancel()
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Log.Warn("close database", "error", err)
		}
	}
	a.Log.Sync()
}

// AsUser returns ctx carrying the identity of username, for commands that run
// outside an HTTP request.
func (a *App) AsUser(ctx context.Context, username string) (context.Context, error) {
	u, err := a.Repos.User.GetByUsername(dbctx.Context{Ctx: ctx}, username)
	if err != nil {
		return ctx, err
	}
	if u == nil {
		return ctx, fmt.Errorf("unknown user %q", username)
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{UserID: u.ID}), nil
}
