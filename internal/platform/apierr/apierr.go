package apierr

import (
	"errors"
	"fmt"
	"net/http"

	domainagg "github.com/yungbote/discipline-backend/internal/domain/aggregates"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// FromAggregate maps a domain error onto an HTTP status and error code.
// Errors that already are *Error pass through unchanged.
func FromAggregate(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	var overlap *domainagg.OverlapConflictError
	switch {
	case errors.As(err, &overlap):
		return New(http.StatusConflict, "overlap_conflict", err)
	case errors.Is(err, domainagg.ErrTooManyActivePlans):
		return New(http.StatusConflict, "too_many_active_plans", err)
	case errors.Is(err, domainagg.ErrPlanNotFound):
		return New(http.StatusNotFound, "plan_not_found", err)
	case errors.Is(err, domainagg.ErrTestNotFound):
		return New(http.StatusNotFound, "test_not_found", err)
	case errors.Is(err, domainagg.ErrFocusSessionNotFound):
		return New(http.StatusNotFound, "focus_session_not_found", err)
	case errors.Is(err, domainagg.ErrInvalidInterval):
		return New(http.StatusBadRequest, "invalid_interval", err)
	}
	switch domainagg.CodeOf(err) {
	case domainagg.CodeValidation:
		return New(http.StatusBadRequest, "validation_error", err)
	case domainagg.CodeNotFound:
		return New(http.StatusNotFound, "not_found", err)
	case domainagg.CodeConflict:
		return New(http.StatusConflict, "conflict", err)
	case domainagg.CodeInvariantViolation:
		return New(http.StatusConflict, "invariant_violation", err)
	case domainagg.CodePreconditionFailed:
		return New(http.StatusPreconditionFailed, "precondition_failed", err)
	case domainagg.CodeRetryable:
		return New(http.StatusServiceUnavailable, "retryable", err)
	default:
		return New(http.StatusInternalServerError, "storage_error", err)
	}
}
