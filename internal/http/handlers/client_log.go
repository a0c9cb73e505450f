package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/discipline-backend/internal/http/response"
	"github.com/yungbote/discipline-backend/internal/services"
)

type ClientLogHandler struct {
	logs services.ClientLogService
}

func NewClientLogHandler(logs services.ClientLogService) *ClientLogHandler {
	return &ClientLogHandler{logs: logs}
}

func (h *ClientLogHandler) Log(c *gin.Context) {
	var req services.ClientErrorReport
	if !bindJSON(c, &req) {
		return
	}
	if err := h.logs.Log(c.Request.Context(), req); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "logged"})
}
