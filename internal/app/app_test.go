package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/yungbote/discipline-backend/internal/data/db"
	"github.com/yungbote/discipline-backend/internal/platform/dbctx"
	"github.com/yungbote/discipline-backend/internal/platform/logger"
	"github.com/yungbote/discipline-backend/internal/services"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		AppEnv:           "test",
		HTTPAddr:         "127.0.0.1:0",
		DB:               db.Config{Driver: db.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "app.db")},
		JWTSecretKey:     "app-test-secret",
		AccessTokenTTL:   time.Hour,
		Timezone:         "UTC",
		OwnerLockBackend: OwnerLockLocal,
		SeedUsersOnStart: true,
		SeedUserCount:    2,
		SeedUserPassword: "pw",
		TimerTick:        time.Second,
	}
}

func TestNewWiresEverything(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(t), logger.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if a.Server == nil || a.Handlers.AuthMiddleware == nil || a.Services.Timer == nil {
		t.Fatalf("app not fully wired")
	}
	if got := a.Services.Lifecycle.Contract().Name; got != "Discipline.RecordLifecycle" {
		t.Fatalf("lifecycle contract: got=%s", got)
	}

	if err := a.SeedUsers(ctx); err != nil {
		t.Fatalf("SeedUsers: %v", err)
	}
	users, err := a.Repos.User.List(dbctx.Context{Ctx: ctx})
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("seeded users: want=2 got=%d", len(users))
	}

	res, err := a.Services.Auth.Login(ctx, "user1", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	authed, err := a.Services.Auth.SetContextFromToken(ctx, res.Token)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	plan, err := a.Services.Plan.Create(authed, services.CreatePlanRequest{Title: "wired"})
	if err != nil {
		t.Fatalf("create plan: %v", err)
	}
	if plan.Title != "wired" {
		t.Fatalf("plan title: want=wired got=%s", plan.Title)
	}

	asUser, err := a.AsUser(ctx, "user2")
	if err != nil {
		t.Fatalf("AsUser: %v", err)
	}
	report, err := a.Services.Stats.GetStats(asUser, "day")
	if err != nil || report == nil {
		t.Fatalf("stats as user2: report=%v err=%v", report, err)
	}
	if _, err := a.AsUser(ctx, "nobody"); err == nil {
		t.Fatalf("unknown user: want error got=nil")
	}

	w := httptest.NewRecorder()
	a.Server.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("healthcheck: want=200 got=%d", w.Code)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.DB.Driver = "oracle"
	if _, err := New(context.Background(), cfg, logger.Nop()); err == nil {
		t.Fatalf("want config error got=nil")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.SeedUsersOnStart = false
	a, err := New(context.Background(), cfg, logger.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}
