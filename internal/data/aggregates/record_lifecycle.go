package aggregates

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/discipline-backend/internal/data/repos"
	types "github.com/yungbote/discipline-backend/internal/domain"
	domainagg "github.com/yungbote/discipline-backend/internal/domain/aggregates"
	"github.com/yungbote/discipline-backend/internal/domain/discipline"
	"github.com/yungbote/discipline-backend/internal/platform/clock"
	"github.com/yungbote/discipline-backend/internal/platform/dbctx"
	"github.com/yungbote/discipline-backend/internal/platform/ownerlock"
	"github.com/yungbote/discipline-backend/internal/timerange"
)

type RecordLifecycleDeps struct {
	BaseDeps

	Plans    repos.PlanRepo
	Sessions repos.FocusSessionRepo
	Tests    repos.TestRecordRepo
	Rollups  repos.DailyRollupRepo
	Ledger   repos.RollupLedgerRepo

	Locker ownerlock.Locker
	Clock  clock.Clock
}

type recordLifecycle struct {
	deps  RecordLifecycleDeps
	guard *OverlapGuard
}

func NewRecordLifecycle(deps RecordLifecycleDeps) domainagg.RecordLifecycle {
	deps.BaseDeps = deps.BaseDeps.withDefaults()
	if deps.Locker == nil {
		deps.Locker = ownerlock.NewLocal()
	}
	if deps.Clock == nil {
		deps.Clock = clock.System(time.Local)
	}
	deps.Log = deps.Log.With("aggregate", "RecordLifecycle")
	return &recordLifecycle{
		deps:  deps,
		guard: NewOverlapGuard(deps.Sessions, deps.Plans),
	}
}

func (a *recordLifecycle) Contract() domainagg.Contract {
	return domainagg.RecordLifecycleContract
}

// effects collects what a committed write applied, reported after commit.
type effects struct {
	kinds []types.LedgerKind
}

func (a *recordLifecycle) write(ctx context.Context, ownerID uuid.UUID, op string, fn func(dbc dbctx.Context, fx *effects) error) error {
	var fx *effects
	err := ownerWrite(ctx, a.deps.BaseDeps, a.deps.Locker, ownerID, op, func(dbc dbctx.Context) error {
		fx = &effects{}
		return fn(dbc, fx)
	})
	if err != nil {
		return err
	}
	for _, k := range fx.kinds {
		a.deps.Hooks.RollupDeltaApplied(string(k))
	}
	return nil
}

func (a *recordLifecycle) today() (time.Time, string) {
	now := a.deps.Clock.Now()
	return now, timerange.DateOf(now, a.deps.Clock.Location())
}

func (a *recordLifecycle) dateOf(t time.Time) string {
	return timerange.DateOf(t, a.deps.Clock.Location())
}

// applyDelta moves one rollup row and records the move in the ledger.
func (a *recordLifecycle) applyDelta(dbc dbctx.Context, fx *effects, ownerID uuid.UUID, date string, kind types.LedgerKind, recordID uuid.UUID, delta types.RollupDelta, payload map[string]any) error {
	if delta.IsZero() {
		return nil
	}
	if _, err := a.deps.Rollups.ApplyDelta(dbc, ownerID, date, delta); err != nil {
		return err
	}
	entry := &types.RollupLedgerEntry{
		OwnerID:        ownerID,
		Date:           date,
		Kind:           kind,
		RecordID:       recordID,
		FocusSeconds:   delta.FocusSeconds,
		CompletedPlans: delta.CompletedPlans,
		TestCount:      delta.TestCount,
		TestQuestions:  delta.TestQuestions,
		TestCorrect:    delta.TestCorrect,
	}
	if len(payload) > 0 {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		entry.Payload = datatypes.JSON(raw)
	}
	if err := a.deps.Ledger.Append(dbc, entry); err != nil {
		return err
	}
	fx.kinds = append(fx.kinds, kind)
	return nil
}

// reverse undoes everything a record contributed, date by date. When the
// ledger holds nothing for the record, fallback is reversed at fallbackDate.
func (a *recordLifecycle) reverse(dbc dbctx.Context, fx *effects, ownerID uuid.UUID, kind types.LedgerKind, recordID uuid.UUID, fallbackDate string, fallback types.RollupDelta) error {
	entries, err := a.deps.Ledger.ListByRecord(dbc, ownerID, kind, recordID)
	if err != nil {
		return err
	}
	net := map[string]types.RollupDelta{}
	for _, e := range entries {
		net[e.Date] = net[e.Date].Add(e.Delta())
	}
	if len(entries) == 0 && fallbackDate != "" {
		net[fallbackDate] = fallback
	}
	dates := make([]string, 0, len(net))
	for d := range net {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	for _, d := range dates {
		if err := a.applyDelta(dbc, fx, ownerID, d, kind, recordID, net[d].Negate(), map[string]any{"reason": "delete"}); err != nil {
			return err
		}
	}
	return nil
}

func (a *recordLifecycle) loadPlan(dbc dbctx.Context, op string, ownerID, planID uuid.UUID) (*types.Plan, error) {
	plan, err := a.deps.Plans.GetByID(dbc, ownerID, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, domainagg.NotFound(op, domainagg.ErrPlanNotFound)
	}
	return plan, nil
}

// ---- plans ----

func (a *recordLifecycle) CreatePlan(ctx context.Context, in domainagg.CreatePlanInput) (types.Plan, error) {
	const op = "lifecycle.create_plan"
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return types.Plan{}, domainagg.Invalid(op, "title is required")
	}
	if !discipline.ValidPriority(in.Priority) {
		return types.Plan{}, domainagg.Invalid(op, "priority must be 0, 1 or 2")
	}

	var out types.Plan
	err := a.write(ctx, in.OwnerID, op, func(dbc dbctx.Context, _ *effects) error {
		now := a.deps.Clock.Now().UTC()
		plan := &types.Plan{
			ID:        uuid.New(),
			OwnerID:   in.OwnerID,
			Title:     title,
			Priority:  in.Priority,
			Category:  strings.TrimSpace(in.Category),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := a.deps.Plans.Create(dbc, plan); err != nil {
			return err
		}
		out = *plan
		return nil
	})
	return out, err
}

func (a *recordLifecycle) SetPlanCompleted(ctx context.Context, in domainagg.SetPlanCompletedInput) (domainagg.SetPlanCompletedResult, error) {
	const op = "lifecycle.set_plan_completed"
	var res domainagg.SetPlanCompletedResult
	err := a.write(ctx, in.OwnerID, op, func(dbc dbctx.Context, fx *effects) error {
		plan, err := a.loadPlan(dbc, op, in.OwnerID, in.PlanID)
		if err != nil {
			return err
		}
		res.Plan = *plan
		if plan.Completed == in.Completed {
			return nil
		}

		now, today := a.today()
		if !in.Completed {
			ok, err := a.deps.CASGuard.CompareAndSet(dbc, "plan", in.OwnerID, plan.ID, "completed", true, map[string]any{
				"completed":    false,
				"completed_at": nil,
				"updated_at":   now.UTC(),
			})
			if err != nil {
				return err
			}
			if err := RequireCASSuccess(ok, "plan completion changed concurrently"); err != nil {
				return err
			}
			// completed_plans is left as is; un-completing never moves the rollup.
			res.Plan.Completed = false
			res.Plan.CompletedAt = nil
			res.Plan.UpdatedAt = now.UTC()
			res.Flipped = true
			return nil
		}

		if err := a.guard.CheckSingleCompletion(dbc, in.OwnerID, plan.ID); err != nil {
			if errors.Is(err, domainagg.ErrTooManyActivePlans) {
				return domainagg.TooManyActivePlans(op)
			}
			return err
		}
		if err := a.completePlan(dbc, fx, plan, now, today, "toggle"); err != nil {
			return err
		}
		res.Plan = *plan
		res.Flipped = true
		return nil
	})
	return res, err
}

// completePlan flips plan false->true and applies +1 completed plan on today.
func (a *recordLifecycle) completePlan(dbc dbctx.Context, fx *effects, plan *types.Plan, now time.Time, today, source string) error {
	at := now.UTC()
	ok, err := a.deps.CASGuard.CompareAndSet(dbc, "plan", plan.OwnerID, plan.ID, "completed", false, map[string]any{
		"completed":    true,
		"completed_at": at,
		"updated_at":   at,
	})
	if err != nil {
		return err
	}
	if err := RequireCASSuccess(ok, "plan completion changed concurrently"); err != nil {
		return err
	}
	if err := a.applyDelta(dbc, fx, plan.OwnerID, today, types.LedgerPlanCompletion, plan.ID,
		types.RollupDelta{CompletedPlans: 1}, map[string]any{"source": source}); err != nil {
		return err
	}
	plan.Completed = true
	plan.CompletedAt = &at
	plan.UpdatedAt = at
	return nil
}

func (a *recordLifecycle) DeletePlan(ctx context.Context, in domainagg.DeletePlanInput) (domainagg.DeletePlanResult, error) {
	const op = "lifecycle.delete_plan"
	var res domainagg.DeletePlanResult
	err := a.write(ctx, in.OwnerID, op, func(dbc dbctx.Context, fx *effects) error {
		plan, err := a.loadPlan(dbc, op, in.OwnerID, in.PlanID)
		if err != nil {
			return err
		}
		sessions, err := a.deps.Sessions.ListByPlan(dbc, in.OwnerID, plan.ID)
		if err != nil {
			return err
		}
		deleted := make([]types.FocusSession, 0, len(sessions))
		for _, s := range sessions {
			if err := a.removeSession(dbc, fx, s); err != nil {
				return err
			}
			deleted = append(deleted, *s)
		}
		if err := a.reverse(dbc, fx, in.OwnerID, types.LedgerPlanCompletion, plan.ID, "", types.RollupDelta{}); err != nil {
			return err
		}
		if _, err := a.deps.Plans.Delete(dbc, in.OwnerID, plan.ID); err != nil {
			return err
		}
		res.Plan = *plan
		res.DeletedSessions = deleted
		return nil
	})
	return res, err
}

// ---- focus sessions ----

func (a *recordLifecycle) CreateFocusSession(ctx context.Context, in domainagg.CreateFocusSessionInput) (domainagg.CreateFocusSessionResult, error) {
	const op = "lifecycle.create_focus_session"
	var res domainagg.CreateFocusSessionResult
	if in.StartTime.IsZero() || in.EndTime.IsZero() {
		return res, domainagg.Invalid(op, "start_time and end_time are required")
	}
	if in.PlanID == uuid.Nil {
		return res, domainagg.Invalid(op, "plan_id is required")
	}

	err := a.write(ctx, in.OwnerID, op, func(dbc dbctx.Context, fx *effects) error {
		plan, err := a.loadPlan(dbc, op, in.OwnerID, in.PlanID)
		if err != nil {
			return err
		}
		if !in.EndTime.After(in.StartTime) {
			return domainagg.Wrap(domainagg.CodeValidation, op, domainagg.ErrInvalidInterval)
		}
		if err := a.guard.CheckOverlap(dbc, in.OwnerID, in.StartTime, in.EndTime, uuid.Nil); err != nil {
			return err
		}

		secs, mins := discipline.SessionDurations(in.StartTime, in.EndTime)
		session := &types.FocusSession{
			ID:              uuid.New(),
			OwnerID:         in.OwnerID,
			PlanID:          plan.ID,
			StartTime:       in.StartTime.UTC(),
			EndTime:         in.EndTime.UTC(),
			DurationSeconds: secs,
			DurationMinutes: mins,
			CreatedAt:       a.deps.Clock.Now().UTC(),
		}
		if err := a.deps.Sessions.Create(dbc, session); err != nil {
			return err
		}
		if err := a.applyDelta(dbc, fx, in.OwnerID, a.dateOf(in.StartTime), types.LedgerFocus, session.ID,
			types.RollupDelta{FocusSeconds: secs}, map[string]any{"plan_id": plan.ID.String()}); err != nil {
			return err
		}
		session.PlanTitle = plan.Title
		res.Session = *session

		if !plan.Completed {
			if skipErr := a.autoComplete(dbc, fx, plan); skipErr != nil {
				res.CompletionSkipped = skipErr
				a.deps.Log.Warn("plan auto-completion skipped",
					"owner_id", in.OwnerID,
					"plan_id", plan.ID,
					"error", skipErr,
				)
			} else {
				res.PlanCompleted = true
			}
		}
		return nil
	})
	if err != nil {
		return domainagg.CreateFocusSessionResult{}, err
	}
	return res, nil
}

// autoComplete is the best-effort completion that follows a focus session.
// It runs under a savepoint so a failure leaves the session write intact.
func (a *recordLifecycle) autoComplete(dbc dbctx.Context, fx *effects, plan *types.Plan) error {
	run := func(inner dbctx.Context) error {
		if err := a.guard.CheckSingleCompletion(inner, plan.OwnerID, plan.ID); err != nil {
			return err
		}
		now, today := a.today()
		return a.completePlan(inner, fx, plan, now, today, "focus_session")
	}
	if dbc.Tx == nil {
		return run(dbc)
	}
	kinds := len(fx.kinds)
	err := dbc.Tx.Transaction(func(sp *gorm.DB) error {
		return run(dbctx.Context{Ctx: dbc.Ctx, Tx: sp})
	})
	if err != nil {
		fx.kinds = fx.kinds[:kinds]
	}
	return err
}

func (a *recordLifecycle) removeSession(dbc dbctx.Context, fx *effects, s *types.FocusSession) error {
	if err := a.reverse(dbc, fx, s.OwnerID, types.LedgerFocus, s.ID,
		a.dateOf(s.StartTime), types.RollupDelta{FocusSeconds: s.DurationSeconds}); err != nil {
		return err
	}
	_, err := a.deps.Sessions.Delete(dbc, s.OwnerID, s.ID)
	return err
}

func (a *recordLifecycle) DeleteFocusSession(ctx context.Context, in domainagg.DeleteFocusSessionInput) (types.FocusSession, error) {
	const op = "lifecycle.delete_focus_session"
	var out types.FocusSession
	err := a.write(ctx, in.OwnerID, op, func(dbc dbctx.Context, fx *effects) error {
		s, err := a.deps.Sessions.GetByID(dbc, in.OwnerID, in.SessionID)
		if err != nil {
			return err
		}
		if s == nil {
			return domainagg.NotFound(op, domainagg.ErrFocusSessionNotFound)
		}
		if err := a.removeSession(dbc, fx, s); err != nil {
			return err
		}
		out = *s
		return nil
	})
	return out, err
}

// ---- tests ----

func validateScores(op string, total, correct int) error {
	if total < 0 {
		return domainagg.Invalid(op, "total_questions must be >= 0")
	}
	if correct < 0 || correct > total {
		return domainagg.Invalid(op, "correct_answers must be between 0 and total_questions")
	}
	return nil
}

func (a *recordLifecycle) CreateTest(ctx context.Context, in domainagg.CreateTestInput) (types.TestRecord, error) {
	const op = "lifecycle.create_test"
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return types.TestRecord{}, domainagg.Invalid(op, "name is required")
	}
	if err := validateScores(op, in.TotalQuestions, in.CorrectAnswers); err != nil {
		return types.TestRecord{}, err
	}

	var out types.TestRecord
	err := a.write(ctx, in.OwnerID, op, func(dbc dbctx.Context, fx *effects) error {
		now, today := a.today()
		rec := &types.TestRecord{
			ID:             uuid.New(),
			OwnerID:        in.OwnerID,
			Name:           name,
			TotalQuestions: in.TotalQuestions,
			CorrectAnswers: in.CorrectAnswers,
			CreatedAt:      now.UTC(),
			UpdatedAt:      now.UTC(),
		}
		if err := a.deps.Tests.Create(dbc, rec); err != nil {
			return err
		}
		if err := a.applyDelta(dbc, fx, in.OwnerID, today, types.LedgerTest, rec.ID, types.RollupDelta{
			TestCount:     1,
			TestQuestions: int64(in.TotalQuestions),
			TestCorrect:   int64(in.CorrectAnswers),
		}, nil); err != nil {
			return err
		}
		out = *rec
		return nil
	})
	return out, err
}

func (a *recordLifecycle) UpdateTest(ctx context.Context, in domainagg.UpdateTestInput) (types.TestRecord, error) {
	const op = "lifecycle.update_test"
	if err := validateScores(op, in.TotalQuestions, in.CorrectAnswers); err != nil {
		return types.TestRecord{}, err
	}
	var name string
	if in.Name != nil {
		name = strings.TrimSpace(*in.Name)
		if name == "" {
			return types.TestRecord{}, domainagg.Invalid(op, "name must not be empty")
		}
	}

	var out types.TestRecord
	err := a.write(ctx, in.OwnerID, op, func(dbc dbctx.Context, fx *effects) error {
		rec, err := a.deps.Tests.GetByID(dbc, in.OwnerID, in.TestID)
		if err != nil {
			return err
		}
		if rec == nil {
			return domainagg.NotFound(op, domainagg.ErrTestNotFound)
		}
		delta := types.RollupDelta{
			TestQuestions: int64(in.TotalQuestions - rec.TotalQuestions),
			TestCorrect:   int64(in.CorrectAnswers - rec.CorrectAnswers),
		}
		if err := a.applyDelta(dbc, fx, in.OwnerID, a.dateOf(rec.CreatedAt), types.LedgerTest, rec.ID, delta,
			map[string]any{"reason": "update"}); err != nil {
			return err
		}
		rec.TotalQuestions = in.TotalQuestions
		rec.CorrectAnswers = in.CorrectAnswers
		if name != "" {
			rec.Name = name
		}
		if err := a.deps.Tests.UpdateScores(dbc, rec, a.deps.Clock.Now()); err != nil {
			return err
		}
		out = *rec
		return nil
	})
	return out, err
}

func (a *recordLifecycle) DeleteTest(ctx context.Context, in domainagg.DeleteTestInput) (types.TestRecord, error) {
	const op = "lifecycle.delete_test"
	var out types.TestRecord
	err := a.write(ctx, in.OwnerID, op, func(dbc dbctx.Context, fx *effects) error {
		rec, err := a.deps.Tests.GetByID(dbc, in.OwnerID, in.TestID)
		if err != nil {
			return err
		}
		if rec == nil {
			return domainagg.NotFound(op, domainagg.ErrTestNotFound)
		}
		fallback := types.RollupDelta{
			TestCount:     1,
			TestQuestions: int64(rec.TotalQuestions),
			TestCorrect:   int64(rec.CorrectAnswers),
		}
		if err := a.reverse(dbc, fx, in.OwnerID, types.LedgerTest, rec.ID, a.dateOf(rec.CreatedAt), fallback); err != nil {
			return err
		}
		if _, err := a.deps.Tests.Delete(dbc, in.OwnerID, rec.ID); err != nil {
			return err
		}
		out = *rec
		return nil
	})
	return out, err
}
