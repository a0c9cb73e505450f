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

type TestService interface {
	List(ctx context.Context) ([]*types.TestRecord, error)
	Create(ctx context.Context, in TestScoresRequest) (*types.TestRecord, error)
	Update(ctx context.Context, testID uuid.UUID, in TestScoresRequest) (*types.TestRecord, error)
	Delete(ctx context.Context, testID uuid.UUID) (*types.TestRecord, error)
}

// TestScoresRequest is the create and update body. Name is required on create
// and optional on update.
type TestScoresRequest struct {
	Name           *string `json:"name"`
	TotalQuestions int     `json:"total_questions"`
	CorrectAnswers int     `json:"correct_answers"`
}

type testService struct {
	log       *logger.Logger
	tests     repos.TestRecordRepo
	lifecycle domainagg.RecordLifecycle
	notify    Notifier
}

func NewTestService(log *logger.Logger, tests repos.TestRecordRepo, lifecycle domainagg.RecordLifecycle, notify Notifier) TestService {
	return &testService{
		log:       log.With("service", "TestService"),
		tests:     tests,
		lifecycle: lifecycle,
		notify:    notify,
	}
}

func (s *testService) List(ctx context.Context) ([]*types.TestRecord, error) {
	owner, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	return s.tests.ListByOwner(dbctx.Context{Ctx: ctx}, owner)
}

func (s *testService) Create(ctx context.Context, in TestScoresRequest) (*types.TestRecord, error) {
	owner, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	name := ""
	if in.Name != nil {
		name = *in.Name
	}
	rec, err := s.lifecycle.CreateTest(ctx, domainagg.CreateTestInput{
		OwnerID:        owner,
		Name:           name,
		TotalQuestions: in.TotalQuestions,
		CorrectAnswers: in.CorrectAnswers,
	})
	if err != nil {
		return nil, err
	}
	s.notify.TestChanged(owner, &rec)
	return &rec, nil
}

func (s *testService) Update(ctx context.Context, testID uuid.UUID, in TestScoresRequest) (*types.TestRecord, error) {
	owner, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	rec, err := s.lifecycle.UpdateTest(ctx, domainagg.UpdateTestInput{
		OwnerID:        owner,
		TestID:         testID,
		Name:           in.Name,
		TotalQuestions: in.TotalQuestions,
		CorrectAnswers: in.CorrectAnswers,
	})
	if err != nil {
		return nil, err
	}
	s.notify.TestChanged(owner, &rec)
	return &rec, nil
}

func (s *testService) Delete(ctx context.Context, testID uuid.UUID) (*types.TestRecord, error) {
	owner, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	rec, err := s.lifecycle.DeleteTest(ctx, domainagg.DeleteTestInput{OwnerID: owner, TestID: testID})
	if err != nil {
		return nil, err
	}
	s.notify.TestDeleted(owner, &rec)
	return &rec, nil
}
