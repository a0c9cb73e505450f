package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/discipline-backend/internal/domain/discipline"
)

var RecordLifecycleContract = Contract{
	Name:               "Discipline.RecordLifecycle",
	OwnsTx:             true,
	PerOwnerSerialized: true,
	LedgerBacked:       true,
	Notes: "Persists plans, focus sessions and tests together with the matching rollup delta and " +
		"ledger entry in one transaction, serialized per owner.",
}

// RecordLifecycle owns every write that contributes to daily rollups.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeConflict, CodeInvariantViolation, CodeRetryable, CodeInternal.
type RecordLifecycle interface {
	Aggregate

	CreatePlan(ctx context.Context, in CreatePlanInput) (discipline.Plan, error)
	SetPlanCompleted(ctx context.Context, in SetPlanCompletedInput) (SetPlanCompletedResult, error)
	DeletePlan(ctx context.Context, in DeletePlanInput) (DeletePlanResult, error)

	CreateFocusSession(ctx context.Context, in CreateFocusSessionInput) (CreateFocusSessionResult, error)
	DeleteFocusSession(ctx context.Context, in DeleteFocusSessionInput) (discipline.FocusSession, error)

	CreateTest(ctx context.Context, in CreateTestInput) (discipline.TestRecord, error)
	UpdateTest(ctx context.Context, in UpdateTestInput) (discipline.TestRecord, error)
	DeleteTest(ctx context.Context, in DeleteTestInput) (discipline.TestRecord, error)
}

type CreatePlanInput struct {
	OwnerID  uuid.UUID
	Title    string
	Priority int
	Category string
}

type SetPlanCompletedInput struct {
	OwnerID   uuid.UUID
	PlanID    uuid.UUID
	Completed bool
}

type SetPlanCompletedResult struct {
	Plan discipline.Plan
	// Flipped is true when the stored value changed.
	Flipped bool
}

type DeletePlanInput struct {
	OwnerID uuid.UUID
	PlanID  uuid.UUID
}

type DeletePlanResult struct {
	Plan            discipline.Plan
	DeletedSessions []discipline.FocusSession
}

type CreateFocusSessionInput struct {
	OwnerID   uuid.UUID
	PlanID    uuid.UUID
	StartTime time.Time
	EndTime   time.Time
}

type CreateFocusSessionResult struct {
	Session discipline.FocusSession
	// PlanCompleted is true when this session flipped its plan to completed.
	PlanCompleted bool
	// CompletionSkipped carries the reason the best-effort plan completion did not happen.
	CompletionSkipped error
}

type DeleteFocusSessionInput struct {
	OwnerID   uuid.UUID
	SessionID uuid.UUID
}

type CreateTestInput struct {
	OwnerID        uuid.UUID
	Name           string
	TotalQuestions int
	CorrectAnswers int
}

type UpdateTestInput struct {
	OwnerID        uuid.UUID
	TestID         uuid.UUID
	Name           *string
	TotalQuestions int
	CorrectAnswers int
}

type DeleteTestInput struct {
	OwnerID uuid.UUID
	TestID  uuid.UUID
}

var RollupReplayContract = Contract{
	Name:               "Discipline.RollupReplay",
	OwnsTx:             true,
	PerOwnerSerialized: true,
	Notes:              "Rewrites an owner's rollup rows from the ledger; rows are zeroed, never deleted.",
}

// RollupReplay rebuilds and audits derived rollup state.
type RollupReplay interface {
	Aggregate

	Rebuild(ctx context.Context, ownerID uuid.UUID) ([]discipline.DailyRollup, error)
	Verify(ctx context.Context, ownerID uuid.UUID) ([]RollupDrift, error)
}

// RollupDrift describes a date whose rollup focus time disagrees with its sessions.
type RollupDrift struct {
	Date           string `json:"date"`
	RollupSeconds  int64  `json:"rollup_seconds"`
	SessionSeconds int64  `json:"session_seconds"`
}
