package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/discipline-backend/internal/http/response"
	"github.com/yungbote/discipline-backend/internal/services"
)

type FocusHandler struct {
	focus services.FocusService
}

func NewFocusHandler(focus services.FocusService) *FocusHandler {
	return &FocusHandler{focus: focus}
}

func (h *FocusHandler) Create(c *gin.Context) {
	var req services.CreateFocusSessionRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.focus.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, res)
}

func (h *FocusHandler) ListSessions(c *gin.Context) {
	sessions, err := h.focus.List(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"sessions": sessions})
}

func (h *FocusHandler) DeleteSession(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	sess, err := h.focus.Delete(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"session": sess})
}
