package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/discipline-backend/internal/http/response"
	"github.com/yungbote/discipline-backend/internal/services"
)

type StatsHandler struct {
	stats services.StatsService
}

func NewStatsHandler(stats services.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

func (h *StatsHandler) GetStats(c *gin.Context) {
	rep, err := h.stats.GetStats(c.Request.Context(), c.Query("period"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, rep)
}
