package aggregates_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/discipline-backend/internal/data/aggregates"
	aggtestutil "github.com/yungbote/discipline-backend/internal/data/aggregates/testutil"
	"github.com/yungbote/discipline-backend/internal/data/repos"
	"github.com/yungbote/discipline-backend/internal/data/repos/testutil"
	types "github.com/yungbote/discipline-backend/internal/domain"
	domainagg "github.com/yungbote/discipline-backend/internal/domain/aggregates"
	"github.com/yungbote/discipline-backend/internal/platform/clock"
	"github.com/yungbote/discipline-backend/internal/platform/dbctx"
	"github.com/yungbote/discipline-backend/internal/platform/ownerlock"
)

var day = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

type fixture struct {
	db        *gorm.DB
	ctx       context.Context
	clock     *clock.Fixed
	hooks     *aggtestutil.HooksRecorder
	lifecycle domainagg.RecordLifecycle
	replay    domainagg.RollupReplay
	rollups   repos.DailyRollupRepo
	ledger    repos.RollupLedgerRepo
	sessions  repos.FocusSessionRepo
	plans     repos.PlanRepo
	tests     repos.TestRecordRepo
	owner     uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := testutil.Ctx(t)
	f := &fixture{
		db:       db,
		ctx:      ctx,
		clock:    clock.NewFixed(day.Add(12 * time.Hour)),
		hooks:    &aggtestutil.HooksRecorder{},
		rollups:  repos.NewDailyRollupRepo(db, log),
		ledger:   repos.NewRollupLedgerRepo(db, log),
		sessions: repos.NewFocusSessionRepo(db, log),
		plans:    repos.NewPlanRepo(db, log),
		tests:    repos.NewTestRecordRepo(db, log),
	}
	locker := ownerlock.NewLocal()
	base := aggregates.BaseDeps{DB: db, Log: log, Hooks: f.hooks}
	f.lifecycle = aggregates.NewRecordLifecycle(aggregates.RecordLifecycleDeps{
		BaseDeps: base,
		Plans:    f.plans,
		Sessions: f.sessions,
		Tests:    f.tests,
		Rollups:  f.rollups,
		Ledger:   f.ledger,
		Locker:   locker,
		Clock:    f.clock,
	})
	f.replay = aggregates.NewRollupReplay(aggregates.RollupReplayDeps{
		BaseDeps: base,
		Rollups:  f.rollups,
		Ledger:   f.ledger,
		Sessions: f.sessions,
		Locker:   locker,
		Clock:    f.clock,
	})
	f.owner = testutil.SeedUser(t, ctx, db, "user1").ID
	return f
}

func (f *fixture) plan(t *testing.T, title string) types.Plan {
	t.Helper()
	p, err := f.lifecycle.CreatePlan(f.ctx, domainagg.CreatePlanInput{OwnerID: f.owner, Title: title})
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	return p
}

func (f *fixture) rollup(t *testing.T, date string) types.DailyRollup {
	t.Helper()
	row, err := f.rollups.Get(dbctx.Context{Ctx: f.ctx}, f.owner, date)
	if err != nil {
		t.Fatalf("rollup Get: %v", err)
	}
	if row == nil {
		return types.DailyRollup{OwnerID: f.owner, Date: date}
	}
	return *row
}

func at(hh, mm int) time.Time {
	return day.Add(time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute)
}

func TestCreateFocusSessionAppliesRollupAndCompletesPlan(t *testing.T) {
	f := newFixture(t)
	p := f.plan(t, "deep work")

	res, err := f.lifecycle.CreateFocusSession(f.ctx, domainagg.CreateFocusSessionInput{
		OwnerID: f.owner, PlanID: p.ID, StartTime: at(9, 0), EndTime: at(9, 30),
	})
	if err != nil {
		t.Fatalf("CreateFocusSession: %v", err)
	}
	if res.Session.DurationMinutes != 30 || res.Session.DurationSeconds != 1800 {
		t.Fatalf("duration: want=30m/1800s got=%dm/%ds", res.Session.DurationMinutes, res.Session.DurationSeconds)
	}
	if !res.PlanCompleted || res.CompletionSkipped != nil {
		t.Fatalf("plan completion: want completed got=%v skipped=%v", res.PlanCompleted, res.CompletionSkipped)
	}

	row := f.rollup(t, "2024-03-01")
	if row.FocusTimeSeconds != 1800 {
		t.Fatalf("focus_time_seconds: want=1800 got=%d", row.FocusTimeSeconds)
	}
	if row.CompletedPlans != 1 {
		t.Fatalf("completed_plans: want=1 got=%d", row.CompletedPlans)
	}
	if f.hooks.RollupDeltas["focus"] != 1 || f.hooks.RollupDeltas["plan_completion"] != 1 {
		t.Fatalf("rollup delta hooks: got=%v", f.hooks.RollupDeltas)
	}
	if got := f.hooks.Statuses("lifecycle.create_focus_session"); len(got) != 1 || got[0] != "success" {
		t.Fatalf("operation statuses: got=%v", got)
	}
}

func TestCreateFocusSessionOverlapRules(t *testing.T) {
	f := newFixture(t)
	p := f.plan(t, "deep work")
	first, err := f.lifecycle.CreateFocusSession(f.ctx, domainagg.CreateFocusSessionInput{
		OwnerID: f.owner, PlanID: p.ID, StartTime: at(9, 0), EndTime: at(9, 30),
	})
	if err != nil {
		t.Fatalf("CreateFocusSession: %v", err)
	}

	cases := []struct {
		name       string
		start, end time.Time
	}{
		{"partial overlap", at(9, 15), at(9, 45)},
		{"touching end boundary", at(9, 30), at(10, 0)},
		{"touching start boundary", at(8, 30), at(9, 0)},
		{"contains existing", at(8, 0), at(11, 0)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.lifecycle.CreateFocusSession(f.ctx, domainagg.CreateFocusSessionInput{
				OwnerID: f.owner, PlanID: p.ID, StartTime: tc.start, EndTime: tc.end,
			})
			var overlap *domainagg.OverlapConflictError
			if !errors.As(err, &overlap) {
				t.Fatalf("err: want OverlapConflictError got=%v", err)
			}
			if overlap.ConflictingSessionID != first.Session.ID {
				t.Fatalf("conflicting id: want=%s got=%s", first.Session.ID, overlap.ConflictingSessionID)
			}
			if !domainagg.IsCode(err, domainagg.CodeConflict) {
				t.Fatalf("code: want=conflict got=%s", domainagg.CodeOf(err))
			}
		})
	}

	if got := f.rollup(t, "2024-03-01").FocusTimeSeconds; got != 1800 {
		t.Fatalf("rollup after conflicts: want=1800 got=%d", got)
	}

	if _, err := f.lifecycle.CreateFocusSession(f.ctx, domainagg.CreateFocusSessionInput{
		OwnerID: f.owner, PlanID: p.ID, StartTime: at(9, 31), EndTime: at(10, 0),
	}); err != nil {
		t.Fatalf("gap after existing: %v", err)
	}
}

func TestCreateFocusSessionValidation(t *testing.T) {
	f := newFixture(t)
	p := f.plan(t, "deep work")

	_, err := f.lifecycle.CreateFocusSession(f.ctx, domainagg.CreateFocusSessionInput{
		OwnerID: f.owner, PlanID: p.ID, StartTime: at(9, 0), EndTime: at(9, 0),
	})
	if !errors.Is(err, domainagg.ErrInvalidInterval) || !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("start=end: want InvalidInterval got=%v", err)
	}

	_, err = f.lifecycle.CreateFocusSession(f.ctx, domainagg.CreateFocusSessionInput{
		OwnerID: f.owner, PlanID: uuid.New(), StartTime: at(9, 0), EndTime: at(9, 30),
	})
	if !errors.Is(err, domainagg.ErrPlanNotFound) {
		t.Fatalf("unknown plan: want PlanNotFound got=%v", err)
	}

	_, err = f.lifecycle.CreateFocusSession(f.ctx, domainagg.CreateFocusSessionInput{
		OwnerID: f.owner, PlanID: p.ID, EndTime: at(9, 30),
	})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("missing start: want validation got=%v", err)
	}

	if row := f.rollup(t, "2024-03-01"); row.FocusTimeSeconds != 0 {
		t.Fatalf("rollup after failures: want=0 got=%d", row.FocusTimeSeconds)
	}
}

func TestConcurrentOverlappingCreatesOneWins(t *testing.T) {
	f := newFixture(t)
	p := f.plan(t, "deep work")

	const n = 4
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.lifecycle.CreateFocusSession(f.ctx, domainagg.CreateFocusSessionInput{
				OwnerID:   f.owner,
				PlanID:    p.ID,
				StartTime: at(9, i),
				EndTime:   at(9, 30+i),
			})
		}(i)
	}
	wg.Wait()

	ok, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domainagg.ErrOverlapConflict):
			conflicts++
		default:
			t.Fatalf("unexpected err: %v", err)
		}
	}
	if ok != 1 || conflicts != n-1 {
		t.Fatalf("outcomes: want ok=1 conflicts=%d got ok=%d conflicts=%d", n-1, ok, conflicts)
	}
	list, _ := f.sessions.ListByOwner(dbctx.Context{Ctx: f.ctx}, f.owner)
	if len(list) != 1 {
		t.Fatalf("persisted sessions: want=1 got=%d", len(list))
	}
	if got := f.rollup(t, "2024-03-01").FocusTimeSeconds; got != 1800 {
		t.Fatalf("focus_time_seconds: want=1800 got=%d", got)
	}
}

func TestSetPlanCompletedSingleCompletion(t *testing.T) {
	f := newFixture(t)
	p1 := f.plan(t, "p1")
	p2 := f.plan(t, "p2")

	res, err := f.lifecycle.SetPlanCompleted(f.ctx, domainagg.SetPlanCompletedInput{OwnerID: f.owner, PlanID: p1.ID, Completed: true})
	if err != nil || !res.Flipped || !res.Plan.Completed {
		t.Fatalf("complete p1: got=%+v err=%v", res, err)
	}

	_, err = f.lifecycle.SetPlanCompleted(f.ctx, domainagg.SetPlanCompletedInput{OwnerID: f.owner, PlanID: p2.ID, Completed: true})
	if !errors.Is(err, domainagg.ErrTooManyActivePlans) || !domainagg.IsCode(err, domainagg.CodeInvariantViolation) {
		t.Fatalf("complete p2: want TooManyActivePlans got=%v", err)
	}

	res, err = f.lifecycle.SetPlanCompleted(f.ctx, domainagg.SetPlanCompletedInput{OwnerID: f.owner, PlanID: p1.ID, Completed: false})
	if err != nil || !res.Flipped || res.Plan.Completed {
		t.Fatalf("uncomplete p1: got=%+v err=%v", res, err)
	}
	if _, err := f.lifecycle.SetPlanCompleted(f.ctx, domainagg.SetPlanCompletedInput{OwnerID: f.owner, PlanID: p2.ID, Completed: true}); err != nil {
		t.Fatalf("complete p2 after release: %v", err)
	}

	// one +1 per false->true transition; un-completing leaves the counter
	if got := f.rollup(t, "2024-03-01").CompletedPlans; got != 2 {
		t.Fatalf("completed_plans: want=2 got=%d", got)
	}

	res, err = f.lifecycle.SetPlanCompleted(f.ctx, domainagg.SetPlanCompletedInput{OwnerID: f.owner, PlanID: p2.ID, Completed: true})
	if err != nil || res.Flipped {
		t.Fatalf("repeat complete: want no flip got=%+v err=%v", res, err)
	}
	if got := f.rollup(t, "2024-03-01").CompletedPlans; got != 2 {
		t.Fatalf("completed_plans after repeat: want=2 got=%d", got)
	}

	_, err = f.lifecycle.SetPlanCompleted(f.ctx, domainagg.SetPlanCompletedInput{OwnerID: f.owner, PlanID: uuid.New(), Completed: true})
	if !errors.Is(err, domainagg.ErrPlanNotFound) {
		t.Fatalf("unknown plan: want PlanNotFound got=%v", err)
	}
}

func TestFocusAutoCompletionSkipsWhenAnotherPlanCompleted(t *testing.T) {
	f := newFixture(t)
	p1 := f.plan(t, "p1")
	p2 := f.plan(t, "p2")
	if _, err := f.lifecycle.SetPlanCompleted(f.ctx, domainagg.SetPlanCompletedInput{OwnerID: f.owner, PlanID: p1.ID, Completed: true}); err != nil {
		t.Fatalf("complete p1: %v", err)
	}

	res, err := f.lifecycle.CreateFocusSession(f.ctx, domainagg.CreateFocusSessionInput{
		OwnerID: f.owner, PlanID: p2.ID, StartTime: at(9, 0), EndTime: at(9, 30),
	})
	if err != nil {
		t.Fatalf("CreateFocusSession: %v", err)
	}
	if res.PlanCompleted {
		t.Fatalf("plan completed: want=false")
	}
	if !errors.Is(res.CompletionSkipped, domainagg.ErrTooManyActivePlans) {
		t.Fatalf("skip reason: want TooManyActivePlans got=%v", res.CompletionSkipped)
	}

	done, _ := f.plans.ListCompleted(dbctx.Context{Ctx: f.ctx}, f.owner, uuid.Nil)
	if len(done) != 1 || done[0].ID != p1.ID {
		t.Fatalf("completed plans: want only p1 got=%v", done)
	}
	row := f.rollup(t, "2024-03-01")
	if row.FocusTimeSeconds != 1800 || row.CompletedPlans != 1 {
		t.Fatalf("rollup: want focus=1800 completed=1 got=%+v", row)
	}
}

func TestFocusDeltaUsesStartDate(t *testing.T) {
	f := newFixture(t)
	p := f.plan(t, "late night")

	start := day.Add(-30 * time.Minute)
	if _, err := f.lifecycle.CreateFocusSession(f.ctx, domainagg.CreateFocusSessionInput{
		OwnerID: f.owner, PlanID: p.ID, StartTime: start, EndTime: start.Add(time.Hour),
	}); err != nil {
		t.Fatalf("CreateFocusSession: %v", err)
	}
	if got := f.rollup(t, "2024-02-29").FocusTimeSeconds; got != 3600 {
		t.Fatalf("start-date focus: want=3600 got=%d", got)
	}
	if got := f.rollup(t, "2024-03-01").FocusTimeSeconds; got != 0 {
		t.Fatalf("end-date focus: want=0 got=%d", got)
	}
	// completion is keyed by the action date
	if got := f.rollup(t, "2024-03-01").CompletedPlans; got != 1 {
		t.Fatalf("completed_plans on action date: want=1 got=%d", got)
	}
}

func TestTestLifecycleDeltas(t *testing.T) {
	f := newFixture(t)

	rec, err := f.lifecycle.CreateTest(f.ctx, domainagg.CreateTestInput{OwnerID: f.owner, Name: "T1", TotalQuestions: 10, CorrectAnswers: 8})
	if err != nil {
		t.Fatalf("CreateTest: %v", err)
	}
	if rec.Accuracy() != 80 {
		t.Fatalf("accuracy: want=80 got=%v", rec.Accuracy())
	}
	row := f.rollup(t, "2024-03-01")
	if row.TestCount != 1 || row.TestTotalQuestions != 10 || row.TestCorrectAnswers != 8 {
		t.Fatalf("after create: got=%+v", row)
	}

	// updates land on the creation date even when applied later
	f.clock.Advance(48 * time.Hour)
	if _, err := f.lifecycle.UpdateTest(f.ctx, domainagg.UpdateTestInput{OwnerID: f.owner, TestID: rec.ID, TotalQuestions: 20, CorrectAnswers: 15}); err != nil {
		t.Fatalf("UpdateTest: %v", err)
	}
	row = f.rollup(t, "2024-03-01")
	if row.TestCount != 1 || row.TestTotalQuestions != 20 || row.TestCorrectAnswers != 15 {
		t.Fatalf("after update: got=%+v", row)
	}

	deleted, err := f.lifecycle.DeleteTest(f.ctx, domainagg.DeleteTestInput{OwnerID: f.owner, TestID: rec.ID})
	if err != nil || deleted.ID != rec.ID {
		t.Fatalf("DeleteTest: got=%+v err=%v", deleted, err)
	}
	row = f.rollup(t, "2024-03-01")
	if row.TestCount != 0 || row.TestTotalQuestions != 0 || row.TestCorrectAnswers != 0 {
		t.Fatalf("after delete: want zero test fields got=%+v", row)
	}

	if _, err := f.lifecycle.DeleteTest(f.ctx, domainagg.DeleteTestInput{OwnerID: f.owner, TestID: rec.ID}); !errors.Is(err, domainagg.ErrTestNotFound) {
		t.Fatalf("second delete: want TestNotFound got=%v", err)
	}
}

func TestTestValidationBoundaries(t *testing.T) {
	f := newFixture(t)

	bad := []domainagg.CreateTestInput{
		{OwnerID: f.owner, Name: "x", TotalQuestions: 5, CorrectAnswers: 6},
		{OwnerID: f.owner, Name: "x", TotalQuestions: -1, CorrectAnswers: 0},
		{OwnerID: f.owner, Name: "x", TotalQuestions: 5, CorrectAnswers: -1},
		{OwnerID: f.owner, Name: "  ", TotalQuestions: 5, CorrectAnswers: 1},
	}
	for i, in := range bad {
		if _, err := f.lifecycle.CreateTest(f.ctx, in); !domainagg.IsCode(err, domainagg.CodeValidation) {
			t.Fatalf("case %d: want validation got=%v", i, err)
		}
	}
	if row := f.rollup(t, "2024-03-01"); row.TestCount != 0 {
		t.Fatalf("rollup after rejected input: want test_count=0 got=%d", row.TestCount)
	}

	full, err := f.lifecycle.CreateTest(f.ctx, domainagg.CreateTestInput{OwnerID: f.owner, Name: "full", TotalQuestions: 7, CorrectAnswers: 7})
	if err != nil || full.Accuracy() != 100 {
		t.Fatalf("correct=total: want accuracy=100 got=%v err=%v", full.Accuracy(), err)
	}
	empty, err := f.lifecycle.CreateTest(f.ctx, domainagg.CreateTestInput{OwnerID: f.owner, Name: "empty"})
	if err != nil || empty.Accuracy() != 0 {
		t.Fatalf("total=0: want accuracy=0 got=%v err=%v", empty.Accuracy(), err)
	}

	_, err = f.lifecycle.UpdateTest(f.ctx, domainagg.UpdateTestInput{OwnerID: f.owner, TestID: uuid.New(), TotalQuestions: 1})
	if !errors.Is(err, domainagg.ErrTestNotFound) {
		t.Fatalf("update unknown: want TestNotFound got=%v", err)
	}
}

func TestUpdateTestRejectsInvalidInputWithoutWrites(t *testing.T) {
	f := newFixture(t)
	rec, err := f.lifecycle.CreateTest(f.ctx, domainagg.CreateTestInput{OwnerID: f.owner, Name: "quiz", TotalQuestions: 4, CorrectAnswers: 2})
	if err != nil {
		t.Fatalf("CreateTest: %v", err)
	}
	rollupBefore := f.rollup(t, "2024-03-01")

	blank := "  "
	bad := []domainagg.UpdateTestInput{
		{OwnerID: f.owner, TestID: rec.ID, TotalQuestions: 5, CorrectAnswers: 6},
		{OwnerID: f.owner, TestID: rec.ID, TotalQuestions: -1, CorrectAnswers: 0},
		{OwnerID: f.owner, TestID: rec.ID, Name: &blank, TotalQuestions: 5, CorrectAnswers: 3},
	}
	for i, in := range bad {
		if _, err := f.lifecycle.UpdateTest(f.ctx, in); !domainagg.IsCode(err, domainagg.CodeValidation) {
			t.Fatalf("case %d: want validation got=%v", i, err)
		}
	}

	got, err := f.tests.GetByID(dbctx.Context{Ctx: f.ctx}, f.owner, rec.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: got=%v err=%v", got, err)
	}
	if got.Name != "quiz" || got.TotalQuestions != 4 || got.CorrectAnswers != 2 {
		t.Fatalf("row after rejected updates: want quiz 2/4 got=%s %d/%d", got.Name, got.CorrectAnswers, got.TotalQuestions)
	}
	row := f.rollup(t, "2024-03-01")
	if row.TestCount != rollupBefore.TestCount || row.TestTotalQuestions != rollupBefore.TestTotalQuestions || row.TestCorrectAnswers != rollupBefore.TestCorrectAnswers {
		t.Fatalf("rollup after rejected updates: want=%+v got=%+v", rollupBefore, row)
	}
	if row.TestCount != 1 || row.TestTotalQuestions != 4 || row.TestCorrectAnswers != 2 {
		t.Fatalf("rollup test totals: want 1/4/2 got=%d/%d/%d", row.TestCount, row.TestTotalQuestions, row.TestCorrectAnswers)
	}
}

func TestDeletePlanReversesSessionsAndCompletion(t *testing.T) {
	f := newFixture(t)
	p := f.plan(t, "deep work")
	other := f.plan(t, "other")

	for _, r := range [][2]time.Time{{at(9, 0), at(9, 30)}, {at(10, 0), at(11, 0)}} {
		if _, err := f.lifecycle.CreateFocusSession(f.ctx, domainagg.CreateFocusSessionInput{
			OwnerID: f.owner, PlanID: p.ID, StartTime: r[0], EndTime: r[1],
		}); err != nil {
			t.Fatalf("CreateFocusSession: %v", err)
		}
	}
	if _, err := f.lifecycle.SetPlanCompleted(f.ctx, domainagg.SetPlanCompletedInput{OwnerID: f.owner, PlanID: p.ID, Completed: false}); err != nil {
		t.Fatalf("uncomplete: %v", err)
	}
	if _, err := f.lifecycle.CreateFocusSession(f.ctx, domainagg.CreateFocusSessionInput{
		OwnerID: f.owner, PlanID: other.ID, StartTime: at(13, 0), EndTime: at(13, 20),
	}); err != nil {
		t.Fatalf("CreateFocusSession other: %v", err)
	}

	res, err := f.lifecycle.DeletePlan(f.ctx, domainagg.DeletePlanInput{OwnerID: f.owner, PlanID: p.ID})
	if err != nil {
		t.Fatalf("DeletePlan: %v", err)
	}
	if len(res.DeletedSessions) != 2 {
		t.Fatalf("deleted sessions: want=2 got=%d", len(res.DeletedSessions))
	}
	row := f.rollup(t, "2024-03-01")
	if row.FocusTimeSeconds != 1200 {
		t.Fatalf("focus after delete: want=1200 got=%d", row.FocusTimeSeconds)
	}
	if row.CompletedPlans != 1 {
		t.Fatalf("completed after delete: want=1 got=%d", row.CompletedPlans)
	}

	if _, err := f.lifecycle.DeletePlan(f.ctx, domainagg.DeletePlanInput{OwnerID: f.owner, PlanID: p.ID}); !errors.Is(err, domainagg.ErrPlanNotFound) {
		t.Fatalf("second delete: want PlanNotFound got=%v", err)
	}
}

func TestDeleteFocusSessionReversesContribution(t *testing.T) {
	f := newFixture(t)
	p := f.plan(t, "deep work")
	res, err := f.lifecycle.CreateFocusSession(f.ctx, domainagg.CreateFocusSessionInput{
		OwnerID: f.owner, PlanID: p.ID, StartTime: at(9, 0), EndTime: at(9, 45),
	})
	if err != nil {
		t.Fatalf("CreateFocusSession: %v", err)
	}
	if _, err := f.lifecycle.DeleteFocusSession(f.ctx, domainagg.DeleteFocusSessionInput{OwnerID: f.owner, SessionID: res.Session.ID}); err != nil {
		t.Fatalf("DeleteFocusSession: %v", err)
	}
	if got := f.rollup(t, "2024-03-01").FocusTimeSeconds; got != 0 {
		t.Fatalf("focus after delete: want=0 got=%d", got)
	}
	_, err = f.lifecycle.DeleteFocusSession(f.ctx, domainagg.DeleteFocusSessionInput{OwnerID: f.owner, SessionID: res.Session.ID})
	if !errors.Is(err, domainagg.ErrFocusSessionNotFound) {
		t.Fatalf("second delete: want FocusSessionNotFound got=%v", err)
	}

	// the freed interval can be reused
	if _, err := f.lifecycle.CreateFocusSession(f.ctx, domainagg.CreateFocusSessionInput{
		OwnerID: f.owner, PlanID: p.ID, StartTime: at(9, 0), EndTime: at(9, 45),
	}); err != nil {
		t.Fatalf("recreate: %v", err)
	}
}

func TestRollupReplayEquivalence(t *testing.T) {
	f := newFixture(t)
	p := f.plan(t, "deep work")

	var ids []uuid.UUID
	for i, start := range []time.Time{at(1, 0), at(9, 0), day.Add(-20 * time.Hour), at(22, 0)} {
		res, err := f.lifecycle.CreateFocusSession(f.ctx, domainagg.CreateFocusSessionInput{
			OwnerID: f.owner, PlanID: p.ID, StartTime: start, EndTime: start.Add(time.Duration(10*(i+1)) * time.Minute),
		})
		if err != nil {
			t.Fatalf("CreateFocusSession %d: %v", i, err)
		}
		ids = append(ids, res.Session.ID)
	}
	if _, err := f.lifecycle.DeleteFocusSession(f.ctx, domainagg.DeleteFocusSessionInput{OwnerID: f.owner, SessionID: ids[1]}); err != nil {
		t.Fatalf("DeleteFocusSession: %v", err)
	}
	rec, err := f.lifecycle.CreateTest(f.ctx, domainagg.CreateTestInput{OwnerID: f.owner, Name: "t", TotalQuestions: 4, CorrectAnswers: 2})
	if err != nil {
		t.Fatalf("CreateTest: %v", err)
	}
	if _, err := f.lifecycle.UpdateTest(f.ctx, domainagg.UpdateTestInput{OwnerID: f.owner, TestID: rec.ID, TotalQuestions: 6, CorrectAnswers: 5}); err != nil {
		t.Fatalf("UpdateTest: %v", err)
	}

	drift, err := f.replay.Verify(f.ctx, f.owner)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(drift) != 0 {
		t.Fatalf("drift after lifecycle writes: want none got=%+v", drift)
	}

	before, err := f.rollups.ListByOwner(dbctx.Context{Ctx: f.ctx}, f.owner)
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}

	// corrupt a row, then rebuild from the ledger
	if err := f.rollups.SetAbsolute(dbctx.Context{Ctx: f.ctx}, &types.DailyRollup{OwnerID: f.owner, Date: "2024-03-01", FocusTimeSeconds: 99999}); err != nil {
		t.Fatalf("SetAbsolute: %v", err)
	}
	drift, err = f.replay.Verify(f.ctx, f.owner)
	if err != nil {
		t.Fatalf("Verify after corruption: %v", err)
	}
	if len(drift) != 1 || drift[0].Date != "2024-03-01" {
		t.Fatalf("drift after corruption: got=%+v", drift)
	}

	rebuilt, err := f.replay.Rebuild(f.ctx, f.owner)
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if len(rebuilt) != len(before) {
		t.Fatalf("rebuilt rows: want=%d got=%d", len(before), len(rebuilt))
	}
	for i := range before {
		b, r := before[i], rebuilt[i]
		if b.Date != r.Date || b.FocusTimeSeconds != r.FocusTimeSeconds || b.CompletedPlans != r.CompletedPlans ||
			b.TestCount != r.TestCount || b.TestTotalQuestions != r.TestTotalQuestions || b.TestCorrectAnswers != r.TestCorrectAnswers {
			t.Fatalf("row %d: want=%+v got=%+v", i, *b, r)
		}
	}
	if drift, _ := f.replay.Verify(f.ctx, f.owner); len(drift) != 0 {
		t.Fatalf("drift after rebuild: got=%+v", drift)
	}
}

func TestInjectedTxFailureLeavesNoPartialState(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := testutil.Ctx(t)
	owner := testutil.SeedUser(t, ctx, db, "user1")
	plan := testutil.SeedPlan(t, ctx, db, owner.ID, "p", false)

	runner := &aggtestutil.InjectedTxRunner{FailBegin: errors.New("database is locked")}
	hooks := &aggtestutil.HooksRecorder{}
	lc := aggregates.NewRecordLifecycle(aggregates.RecordLifecycleDeps{
		BaseDeps: aggregates.BaseDeps{DB: db, Log: log, Runner: runner, Hooks: hooks},
		Plans:    repos.NewPlanRepo(db, log),
		Sessions: repos.NewFocusSessionRepo(db, log),
		Tests:    repos.NewTestRecordRepo(db, log),
		Rollups:  repos.NewDailyRollupRepo(db, log),
		Ledger:   repos.NewRollupLedgerRepo(db, log),
		Clock:    clock.NewFixed(day),
	})
	_, err := lc.CreateFocusSession(ctx, domainagg.CreateFocusSessionInput{
		OwnerID: owner.ID, PlanID: plan.ID, StartTime: at(9, 0), EndTime: at(9, 30),
	})
	if !domainagg.IsCode(err, domainagg.CodeRetryable) {
		t.Fatalf("err: want retryable got=%v", err)
	}
	if len(hooks.Retries) != 1 {
		t.Fatalf("retry hooks: want=1 got=%d", len(hooks.Retries))
	}
	if len(hooks.RollupDeltas) != 0 {
		t.Fatalf("rollup delta hooks: want none got=%v", hooks.RollupDeltas)
	}
	if runner.CommitCalls != 0 {
		t.Fatalf("commits: want=0 got=%d", runner.CommitCalls)
	}
}
