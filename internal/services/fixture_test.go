package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/discipline-backend/internal/data/aggregates"
	"github.com/yungbote/discipline-backend/internal/data/repos"
	"github.com/yungbote/discipline-backend/internal/data/repos/testutil"
	"github.com/yungbote/discipline-backend/internal/platform/apierr"
	"github.com/yungbote/discipline-backend/internal/platform/clock"
	"github.com/yungbote/discipline-backend/internal/platform/ctxutil"
	"github.com/yungbote/discipline-backend/internal/platform/ownerlock"
	"github.com/yungbote/discipline-backend/internal/realtime"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type recordingEmitter struct {
	mu   sync.Mutex
	msgs []realtime.SSEMessage
}

func (e *recordingEmitter) Emit(_ context.Context, msg realtime.SSEMessage) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.msgs = append(e.msgs, msg)
}

func (e *recordingEmitter) events() []realtime.SSEEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]realtime.SSEEvent, 0, len(e.msgs))
	for _, m := range e.msgs {
		out = append(out, m.Event)
	}
	return out
}

func (e *recordingEmitter) reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.msgs = nil
}

type env struct {
	db      *gorm.DB
	clock   *clock.Fixed
	emitter *recordingEmitter
	owner   uuid.UUID
	ctx     context.Context

	userRepo repos.UserRepo
	rollups  repos.DailyRollupRepo

	auth   AuthService
	plans  PlanService
	focus  FocusService
	tests  TestService
	stats  StatsService
	rollup RollupService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	e := &env{
		db:       db,
		clock:    clock.NewFixed(testNow),
		emitter:  &recordingEmitter{},
		userRepo: repos.NewUserRepo(db, log),
		rollups:  repos.NewDailyRollupRepo(db, log),
	}
	planRepo := repos.NewPlanRepo(db, log)
	sessionRepo := repos.NewFocusSessionRepo(db, log)
	testRepo := repos.NewTestRecordRepo(db, log)
	ledger := repos.NewRollupLedgerRepo(db, log)
	locker := ownerlock.NewLocal()
	base := aggregates.BaseDeps{DB: db, Log: log}

	lifecycle := aggregates.NewRecordLifecycle(aggregates.RecordLifecycleDeps{
		BaseDeps: base,
		Plans:    planRepo,
		Sessions: sessionRepo,
		Tests:    testRepo,
		Rollups:  e.rollups,
		Ledger:   ledger,
		Locker:   locker,
		Clock:    e.clock,
	})
	replay := aggregates.NewRollupReplay(aggregates.RollupReplayDeps{
		BaseDeps: base,
		Rollups:  e.rollups,
		Ledger:   ledger,
		Sessions: sessionRepo,
		Locker:   locker,
		Clock:    e.clock,
	})
	notify := NewNotifier(e.emitter)

	auth := NewAuthService(db, log, e.userRepo, e.clock, "test-secret", time.Hour).(*authService)
	auth.bcryptCost = bcrypt.MinCost
	e.auth = auth
	e.plans = NewPlanService(log, planRepo, lifecycle, notify)
	e.focus = NewFocusService(log, sessionRepo, lifecycle, notify)
	e.tests = NewTestService(log, testRepo, lifecycle, notify)
	e.stats = NewStatsService(log, e.rollups, testRepo, sessionRepo, e.clock)
	e.rollup = NewRollupService(log, e.userRepo, replay)

	e.owner = testutil.SeedUser(t, testutil.Ctx(t), db, "user1").ID
	e.ctx = ownerCtx(e.owner)
	return e
}

func ownerCtx(owner uuid.UUID) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: owner})
}

func (e *env) plan(t *testing.T, title string) uuid.UUID {
	t.Helper()
	p, err := e.plans.Create(e.ctx, CreatePlanRequest{Title: title})
	if err != nil {
		t.Fatalf("create plan %q: %v", title, err)
	}
	return p.ID
}

func at(hh, mm int) time.Time {
	return time.Date(2024, 3, 1, hh, mm, 0, 0, time.UTC)
}

func wantStatus(t *testing.T, err error, status int, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("want error status=%d code=%s got=nil", status, code)
	}
	ae := apierr.FromAggregate(err)
	if ae.Status != status || (code != "" && ae.Code != code) {
		t.Fatalf("error: want=%d/%s got=%d/%s (%v)", status, code, ae.Status, ae.Code, err)
	}
}

func sameEvents(got, want []realtime.SSEEvent) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

var errBoom = errors.New("boom")
