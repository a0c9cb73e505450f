package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/discipline-backend/internal/data/repos"
	types "github.com/yungbote/discipline-backend/internal/domain"
	domainagg "github.com/yungbote/discipline-backend/internal/domain/aggregates"
	"github.com/yungbote/discipline-backend/internal/platform/dbctx"
	"github.com/yungbote/discipline-backend/internal/platform/logger"
)

type FocusService interface {
	Create(ctx context.Context, in CreateFocusSessionRequest) (*CreateFocusSessionResponse, error)
	List(ctx context.Context) ([]*types.FocusSession, error)
	Delete(ctx context.Context, sessionID uuid.UUID) (*types.FocusSession, error)
}

type CreateFocusSessionRequest struct {
	PlanID    uuid.UUID `json:"plan_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type CreateFocusSessionResponse struct {
	Session       types.FocusSession `json:"session"`
	PlanCompleted bool               `json:"plan_completed"`
	// CompletionSkipped explains why the plan was left incomplete.
	CompletionSkipped string `json:"completion_skipped,omitempty"`
}

type focusService struct {
	log       *logger.Logger
	sessions  repos.FocusSessionRepo
	lifecycle domainagg.RecordLifecycle
	notify    Notifier
}

func NewFocusService(log *logger.Logger, sessions repos.FocusSessionRepo, lifecycle domainagg.RecordLifecycle, notify Notifier) FocusService {
	return &focusService{
		log:       log.With("service", "FocusService"),
		sessions:  sessions,
		lifecycle: lifecycle,
		notify:    notify,
	}
}

func (s *focusService) Create(ctx context.Context, in CreateFocusSessionRequest) (*CreateFocusSessionResponse, error) {
	owner, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.lifecycle.CreateFocusSession(ctx, domainagg.CreateFocusSessionInput{
		OwnerID:   owner,
		PlanID:    in.PlanID,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
	})
	if err != nil {
		return nil, err
	}
	out := &CreateFocusSessionResponse{Session: res.Session, PlanCompleted: res.PlanCompleted}
	if res.CompletionSkipped != nil {
		out.CompletionSkipped = domainagg.PublicMessage(res.CompletionSkipped)
	}
	s.notify.FocusSessionCreated(owner, &out.Session)
	return out, nil
}

func (s *focusService) List(ctx context.Context) ([]*types.FocusSession, error) {
	owner, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	return s.sessions.ListByOwner(dbctx.Context{Ctx: ctx}, owner)
}

func (s *focusService) Delete(ctx context.Context, sessionID uuid.UUID) (*types.FocusSession, error) {
	owner, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	sess, err := s.lifecycle.DeleteFocusSession(ctx, domainagg.DeleteFocusSessionInput{OwnerID: owner, SessionID: sessionID})
	if err != nil {
		return nil, err
	}
	s.notify.FocusSessionDeleted(owner, &sess)
	return &sess, nil
}
