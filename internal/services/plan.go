package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/discipline-backend/internal/data/repos"
	types "github.com/yungbote/discipline-backend/internal/domain"
	domainagg "github.com/yungbote/discipline-backend/internal/domain/aggregates"
	"github.com/yungbote/discipline-backend/internal/platform/dbctx"
	"github.com/yungbote/discipline-backend/internal/platform/logger"
)

type PlanService interface {
	List(ctx context.Context) ([]*types.Plan, error)
	Create(ctx context.Context, in CreatePlanRequest) (*types.Plan, error)
	SetCompleted(ctx context.Context, planID uuid.UUID, completed bool) (*types.Plan, error)
	Delete(ctx context.Context, planID uuid.UUID) (*domainagg.DeletePlanResult, error)
}

type CreatePlanRequest struct {
	Title    string `json:"title"`
	Priority *int   `json:"priority"`
	Category string `json:"category"`
}

type planService struct {
	log       *logger.Logger
	plans     repos.PlanRepo
	lifecycle domainagg.RecordLifecycle
	notify    Notifier
}

func NewPlanService(log *logger.Logger, plans repos.PlanRepo, lifecycle domainagg.RecordLifecycle, notify Notifier) PlanService {
	return &planService{
		log:       log.With("service", "PlanService"),
		plans:     plans,
		lifecycle: lifecycle,
		notify:    notify,
	}
}

func (s *planService) List(ctx context.Context) ([]*types.Plan, error) {
	owner, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	return s.plans.ListByOwner(dbctx.Context{Ctx: ctx}, owner)
}

func (s *planService) Create(ctx context.Context, in CreatePlanRequest) (*types.Plan, error) {
	owner, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	priority := types.PriorityLow
	if in.Priority != nil {
		priority = *in.Priority
	}
	plan, err := s.lifecycle.CreatePlan(ctx, domainagg.CreatePlanInput{
		OwnerID:  owner,
		Title:    in.Title,
		Priority: priority,
		Category: in.Category,
	})
	if err != nil {
		return nil, err
	}
	s.notify.PlanUpdated(owner, &plan)
	return &plan, nil
}

func (s *planService) SetCompleted(ctx context.Context, planID uuid.UUID, completed bool) (*types.Plan, error) {
	owner, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.lifecycle.SetPlanCompleted(ctx, domainagg.SetPlanCompletedInput{
		OwnerID:   owner,
		PlanID:    planID,
		Completed: completed,
	})
	if err != nil {
		return nil, err
	}
	if res.Flipped {
		s.notify.PlanUpdated(owner, &res.Plan)
	}
	return &res.Plan, nil
}

func (s *planService) Delete(ctx context.Context, planID uuid.UUID) (*domainagg.DeletePlanResult, error) {
	owner, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.lifecycle.DeletePlan(ctx, domainagg.DeletePlanInput{OwnerID: owner, PlanID: planID})
	if err != nil {
		return nil, err
	}
	s.notify.PlanDeleted(owner, &res.Plan, len(res.DeletedSessions))
	return &res, nil
}
