package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/discipline-backend/internal/http/response"
	"github.com/yungbote/discipline-backend/internal/services"
)

type RollupHandler struct {
	rollups services.RollupService
}

func NewRollupHandler(rollups services.RollupService) *RollupHandler {
	return &RollupHandler{rollups: rollups}
}

func (h *RollupHandler) Rebuild(c *gin.Context) {
	rows, err := h.rollups.Rebuild(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"stats": rows})
}

func (h *RollupHandler) Verify(c *gin.Context) {
	drift, err := h.rollups.Verify(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": len(drift) == 0, "drift": drift})
}
