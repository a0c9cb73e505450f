package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainagg "github.com/yungbote/discipline-backend/internal/domain/aggregates"
	"github.com/yungbote/discipline-backend/internal/platform/apierr"
)

type APIError struct {
	Message              string     `json:"message"`
	Code                 string     `json:"code,omitempty"`
	ConflictingSessionID *uuid.UUID `json:"conflicting_session_id,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondServiceError maps a service or domain error onto its status and
// envelope. Internal causes are not echoed back.
func RespondServiceError(c *gin.Context, err error) {
	ae := apierr.FromAggregate(err)
	body := APIError{Code: ae.Code}
	switch {
	case domainagg.CodeOf(err) != "":
		body.Message = domainagg.PublicMessage(err)
	case ae.Status >= http.StatusInternalServerError:
		body.Message = "internal error"
	case ae.Err != nil:
		body.Message = ae.Err.Error()
	default:
		body.Message = ae.Error()
	}
	var overlap *domainagg.OverlapConflictError
	if errors.As(err, &overlap) {
		id := overlap.ConflictingSessionID
		body.ConflictingSessionID = &id
	}
	if ae.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(ae.Status, ErrorEnvelope{Error: body})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
