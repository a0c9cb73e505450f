package aggregates

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrPlanNotFound         = errors.New("plan not found")
	ErrTestNotFound         = errors.New("test not found")
	ErrFocusSessionNotFound = errors.New("focus session not found")
	ErrInvalidInterval      = errors.New("end time must be after start time")
	ErrTooManyActivePlans   = errors.New("only one plan may be completed at a time")
	ErrOverlapConflict      = errors.New("time range overlaps an existing focus session")
)

// OverlapConflictError names the existing session a candidate collided with.
type OverlapConflictError struct {
	ConflictingSessionID uuid.UUID
}

func (e *OverlapConflictError) Error() string {
	return fmt.Sprintf("%s (%s)", ErrOverlapConflict.Error(), e.ConflictingSessionID)
}

func (e *OverlapConflictError) Unwrap() error { return ErrOverlapConflict }

// NotFound wraps one of the not-found sentinels with CodeNotFound.
func NotFound(op string, sentinel error) error {
	return Wrap(CodeNotFound, op, sentinel)
}

// Overlap builds the conflict error for a colliding session.
func Overlap(op string, conflicting uuid.UUID) error {
	return Wrap(CodeConflict, op, &OverlapConflictError{ConflictingSessionID: conflicting})
}

// TooManyActivePlans reports the single-completed-plan rule.
func TooManyActivePlans(op string) error {
	return Wrap(CodeInvariantViolation, op, ErrTooManyActivePlans)
}

// Invalid reports a validation failure with a message.
func Invalid(op, message string) error {
	return NewError(CodeValidation, op, message, nil)
}
