package services

import (
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/discipline-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/discipline-backend/internal/domain/aggregates"
	"github.com/yungbote/discipline-backend/internal/platform/dbctx"
	"github.com/yungbote/discipline-backend/internal/realtime"
)

func TestPlanLifecycleNotifiesOnChange(t *testing.T) {
	e := newEnv(t)
	id := e.plan(t, "read a book")

	if _, err := e.plans.SetCompleted(e.ctx, id, true); err != nil {
		t.Fatalf("SetCompleted: %v", err)
	}
	// Repeating the same value is a no-op and stays silent.
	if _, err := e.plans.SetCompleted(e.ctx, id, true); err != nil {
		t.Fatalf("SetCompleted again: %v", err)
	}
	res, err := e.plans.Delete(e.ctx, id)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if res.Plan.ID != id {
		t.Fatalf("deleted plan: want=%s got=%s", id, res.Plan.ID)
	}

	want := []realtime.SSEEvent{
		realtime.SSEEventPlanUpdated,
		realtime.SSEEventPlanUpdated,
		realtime.SSEEventPlanDeleted,
	}
	if got := e.emitter.events(); !sameEvents(got, want) {
		t.Fatalf("events: want=%v got=%v", want, got)
	}
	for _, m := range e.emitter.msgs {
		if m.Channel != e.owner.String() {
			t.Fatalf("channel: want=%s got=%s", e.owner, m.Channel)
		}
	}

	plans, err := e.plans.List(e.ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(plans) != 0 {
		t.Fatalf("plans after delete: want=0 got=%d", len(plans))
	}
}

func TestPlanCreateRejectsBlankTitle(t *testing.T) {
	e := newEnv(t)
	_, err := e.plans.Create(e.ctx, CreatePlanRequest{Title: "   "})
	wantStatus(t, err, http.StatusBadRequest, "")
	if len(e.emitter.events()) != 0 {
		t.Fatalf("failed create must not notify")
	}
}

func TestFocusCreateCompletesPlanAndRejectsOverlap(t *testing.T) {
	e := newEnv(t)
	id := e.plan(t, "deep work")
	e.emitter.reset()

	res, err := e.focus.Create(e.ctx, CreateFocusSessionRequest{PlanID: id, StartTime: at(9, 0), EndTime: at(9, 30)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !res.PlanCompleted || res.CompletionSkipped != "" {
		t.Fatalf("completion: got=%+v", res)
	}
	if res.Session.DurationSeconds != 1800 {
		t.Fatalf("duration: want=1800 got=%d", res.Session.DurationSeconds)
	}

	_, err = e.focus.Create(e.ctx, CreateFocusSessionRequest{PlanID: id, StartTime: at(9, 15), EndTime: at(9, 45)})
	wantStatus(t, err, http.StatusConflict, "overlap_conflict")

	want := []realtime.SSEEvent{realtime.SSEEventFocusSessionCreated}
	if got := e.emitter.events(); !sameEvents(got, want) {
		t.Fatalf("events: want=%v got=%v", want, got)
	}

	list, err := e.focus.List(e.ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("sessions: want=1 got=%d", len(list))
	}
}

func TestFocusCreateReportsSkippedCompletion(t *testing.T) {
	e := newEnv(t)
	first := e.plan(t, "first")
	second := e.plan(t, "second")
	if _, err := e.plans.SetCompleted(e.ctx, first, true); err != nil {
		t.Fatalf("SetCompleted: %v", err)
	}

	res, err := e.focus.Create(e.ctx, CreateFocusSessionRequest{PlanID: second, StartTime: at(10, 0), EndTime: at(10, 20)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if res.PlanCompleted {
		t.Fatalf("plan completed: want=false")
	}
	if res.CompletionSkipped == "" {
		t.Fatalf("completion skipped: want reason")
	}
}

func TestFocusDeleteUnknownSession(t *testing.T) {
	e := newEnv(t)
	_, err := e.focus.Delete(e.ctx, uuid.New())
	wantStatus(t, err, http.StatusNotFound, "focus_session_not_found")
}

func TestTestRecordCrud(t *testing.T) {
	e := newEnv(t)
	name := "math quiz"
	rec, err := e.tests.Create(e.ctx, TestScoresRequest{Name: &name, TotalQuestions: 10, CorrectAnswers: 7})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := e.tests.Update(e.ctx, rec.ID, TestScoresRequest{TotalQuestions: 20, CorrectAnswers: 15})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != name || updated.TotalQuestions != 20 || updated.CorrectAnswers != 15 {
		t.Fatalf("updated: got=%+v", updated)
	}

	row, err := e.rollups.Get(dbctx.Context{Ctx: testutil.Ctx(t)}, e.owner, "2024-03-01")
	if err != nil || row == nil {
		t.Fatalf("rollup row: row=%v err=%v", row, err)
	}
	if row.TestCount != 1 || row.TestTotalQuestions != 20 || row.TestCorrectAnswers != 15 {
		t.Fatalf("rollup after update: got=%+v", row)
	}

	if _, err := e.tests.Delete(e.ctx, rec.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	want := []realtime.SSEEvent{
		realtime.SSEEventTestChanged,
		realtime.SSEEventTestChanged,
		realtime.SSEEventTestDeleted,
	}
	if got := e.emitter.events(); !sameEvents(got, want) {
		t.Fatalf("events: want=%v got=%v", want, got)
	}
}

func TestTestCreateValidatesScores(t *testing.T) {
	e := newEnv(t)
	name := "quiz"
	_, err := e.tests.Create(e.ctx, TestScoresRequest{Name: &name, TotalQuestions: 5, CorrectAnswers: 6})
	wantStatus(t, err, http.StatusBadRequest, "")
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("code: want=validation got=%s", domainagg.CodeOf(err))
	}
}

func TestRecordsAreScopedToOwner(t *testing.T) {
	e := newEnv(t)
	id := e.plan(t, "mine")
	other := testutil.SeedUser(t, testutil.Ctx(t), e.db, "user2").ID
	otherCtx := ownerCtx(other)

	_, err := e.plans.Delete(otherCtx, id)
	wantStatus(t, err, http.StatusNotFound, "plan_not_found")

	plans, err := e.plans.List(otherCtx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(plans) != 0 {
		t.Fatalf("other owner plans: want=0 got=%d", len(plans))
	}
}

func TestServicesRequireOwner(t *testing.T) {
	e := newEnv(t)
	anon := ownerCtx(uuid.Nil)
	_, err := e.plans.List(anon)
	wantStatus(t, err, http.StatusUnauthorized, "unauthorized")
	_, err = e.focus.List(anon)
	wantStatus(t, err, http.StatusUnauthorized, "unauthorized")
	_, err = e.stats.GetStats(anon, "week")
	wantStatus(t, err, http.StatusUnauthorized, "unauthorized")
}
