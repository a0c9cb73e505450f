package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/discipline-backend/internal/data/repos"
	domainagg "github.com/yungbote/discipline-backend/internal/domain/aggregates"
	"github.com/yungbote/discipline-backend/internal/focustimer"
	"github.com/yungbote/discipline-backend/internal/observability"
	"github.com/yungbote/discipline-backend/internal/platform/apierr"
	"github.com/yungbote/discipline-backend/internal/platform/dbctx"
	"github.com/yungbote/discipline-backend/internal/platform/logger"
)

var ErrNoActiveTimer = errors.New("no active timer")

// TimerView is the JSON shape of an owner's timer.
type TimerView struct {
	PlanID             uuid.UUID        `json:"plan_id"`
	State              focustimer.State `json:"state"`
	StartedAt          *time.Time       `json:"started_at,omitempty"`
	ElapsedSeconds     int64            `json:"elapsed_seconds"`
	TotalPausedSeconds int64            `json:"total_paused_seconds"`
}

type TimerStopResult struct {
	Timer   TimerView                   `json:"timer"`
	Session *CreateFocusSessionResponse `json:"session"`
}

// TimerService keeps at most one running or paused timer per owner.
type TimerService interface {
	Start(ctx context.Context, planID uuid.UUID) (*TimerView, error)
	Pause(ctx context.Context) (*TimerView, error)
	Resume(ctx context.Context) (*TimerView, error)
	Stop(ctx context.Context) (*TimerStopResult, error)
	Get(ctx context.Context) (*TimerView, error)
	Close()
}

type TimerServiceOptions struct {
	Tick time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

type ownerTimer struct {
	planID uuid.UUID
	timer  *focustimer.Timer
}

type timerService struct {
	log    *logger.Logger
	plans  repos.PlanRepo
	focus  FocusService
	notify Notifier
	opts   TimerServiceOptions

	mu     sync.Mutex
	timers map[uuid.UUID]*ownerTimer
}

func NewTimerService(log *logger.Logger, plans repos.PlanRepo, focus FocusService, notify Notifier, opts TimerServiceOptions) TimerService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &timerService{
		log:    log.With("service", "TimerService"),
		plans:  plans,
		focus:  focus,
		notify: notify,
		opts:   opts,
		timers: map[uuid.UUID]*ownerTimer{},
	}
}

func view(planID uuid.UUID, snap focustimer.Snapshot) *TimerView {
	v := &TimerView{
		PlanID:             planID,
		State:              snap.State,
		ElapsedSeconds:     snap.ElapsedSeconds(),
		TotalPausedSeconds: int64(snap.TotalPaused / time.Second),
	}
	if !snap.StartedAt.IsZero() {
		at := snap.StartedAt.UTC()
		v.StartedAt = &at
	}
	return v
}

func timerConflict(err error) error {
	return apierr.New(http.StatusConflict, "timer_conflict", err)
}

func (s *timerService) current(owner uuid.UUID) *ownerTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timers[owner]
}

func (s *timerService) Start(ctx context.Context, planID uuid.UUID) (*TimerView, error) {
	owner, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	plan, err := s.plans.GetByID(dbctx.Context{Ctx: ctx}, owner, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		observability.Current().IncTimerEvent("start", "not_found")
		return nil, domainagg.NotFound("timer.start", domainagg.ErrPlanNotFound)
	}

	s.mu.Lock()
	if existing := s.timers[owner]; existing != nil {
		snap, err := existing.timer.Snapshot(ctx)
		if err == nil && (snap.State == focustimer.StateRunning || snap.State == focustimer.StatePaused) {
			s.mu.Unlock()
			observability.Current().IncTimerEvent("start", "conflict")
			return nil, timerConflict(focustimer.ErrAlreadyRunning)
		}
		existing.timer.Close()
		delete(s.timers, owner)
	}
	ot := &ownerTimer{planID: plan.ID}
	ot.timer = focustimer.New(focustimer.Options{
		Now:  s.opts.Now,
		Tick: s.opts.Tick,
		OnTick: func(snap focustimer.Snapshot) {
			s.notify.TimerTick(owner, view(ot.planID, snap))
		},
		OnChange: func(snap focustimer.Snapshot) {
			s.notify.TimerStateChanged(owner, view(ot.planID, snap))
		},
	})
	s.timers[owner] = ot
	s.mu.Unlock()

	snap, err := ot.timer.Start(ctx)
	if err != nil {
		return nil, timerConflict(err)
	}
	observability.Current().IncTimerEvent("start", "ok")
	s.log.Debug("Timer started", "owner_id", owner, "plan_id", plan.ID)
	return view(ot.planID, snap), nil
}

func (s *timerService) command(ctx context.Context, action string, fn func(*focustimer.Timer, context.Context) (focustimer.Snapshot, error)) (*ownerTimer, focustimer.Snapshot, error) {
	owner, err := requireOwner(ctx)
	if err != nil {
		return nil, focustimer.Snapshot{}, err
	}
	ot := s.current(owner)
	if ot == nil {
		observability.Current().IncTimerEvent(action, "conflict")
		return nil, focustimer.Snapshot{}, timerConflict(ErrNoActiveTimer)
	}
	snap, err := fn(ot.timer, ctx)
	if err != nil {
		observability.Current().IncTimerEvent(action, "conflict")
		return nil, snap, timerConflict(err)
	}
	observability.Current().IncTimerEvent(action, "ok")
	return ot, snap, nil
}

func (s *timerService) Pause(ctx context.Context) (*TimerView, error) {
	ot, snap, err := s.command(ctx, "pause", (*focustimer.Timer).Pause)
	if err != nil {
		return nil, err
	}
	return view(ot.planID, snap), nil
}

func (s *timerService) Resume(ctx context.Context) (*TimerView, error) {
	ot, snap, err := s.command(ctx, "resume", (*focustimer.Timer).Resume)
	if err != nil {
		return nil, err
	}
	return view(ot.planID, snap), nil
}

// Stop freezes the timer and records the focus session [start, stop]. When
// the session cannot be recorded the timer is reopened so the caller can retry.
func (s *timerService) Stop(ctx context.Context) (*TimerStopResult, error) {
	ot, snap, err := s.command(ctx, "stop", (*focustimer.Timer).Stop)
	if err != nil {
		return nil, err
	}
	out := &TimerStopResult{Timer: *view(ot.planID, snap)}
	sess, err := s.focus.Create(ctx, CreateFocusSessionRequest{
		PlanID:    ot.planID,
		StartTime: snap.StartedAt,
		EndTime:   snap.StoppedAt,
	})
	if err != nil {
		s.log.Warn("Timer stop could not record focus session", "plan_id", ot.planID, "error", err)
		if _, rerr := ot.timer.Reopen(context.WithoutCancel(ctx)); rerr != nil {
			s.log.Error("Reopening timer after failed stop", "plan_id", ot.planID, "error", rerr)
			observability.Current().IncTimerEvent("stop", "lost")
		} else {
			observability.Current().IncTimerEvent("stop", "reopened")
		}
		return nil, err
	}
	out.Session = sess
	return out, nil
}

func (s *timerService) Get(ctx context.Context) (*TimerView, error) {
	owner, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	ot := s.current(owner)
	if ot == nil {
		return &TimerView{State: focustimer.StateIdle}, nil
	}
	snap, err := ot.timer.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return view(ot.planID, snap), nil
}

// Close stops every timer goroutine.
func (s *timerService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for owner, ot := range s.timers {
		ot.timer.Close()
		delete(s.timers, owner)
	}
}
