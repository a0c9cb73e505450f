package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/discipline-backend/internal/http/response"
	"github.com/yungbote/discipline-backend/internal/services"
)

type TimerHandler struct {
	timer services.TimerService
}

func NewTimerHandler(timer services.TimerService) *TimerHandler {
	return &TimerHandler{timer: timer}
}

func (h *TimerHandler) Get(c *gin.Context) {
	h.respond(c, h.timer.Get)
}

func (h *TimerHandler) Start(c *gin.Context) {
	var req struct {
		PlanID uuid.UUID `json:"plan_id"`
	}
	if !bindJSON(c, &req) {
		return
	}
	h.respond(c, func(ctx context.Context) (*services.TimerView, error) {
		return h.timer.Start(ctx, req.PlanID)
	})
}

func (h *TimerHandler) Pause(c *gin.Context) {
	h.respond(c, h.timer.Pause)
}

func (h *TimerHandler) Resume(c *gin.Context) {
	h.respond(c, h.timer.Resume)
}

func (h *TimerHandler) Stop(c *gin.Context) {
	res, err := h.timer.Stop(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, res)
}

func (h *TimerHandler) respond(c *gin.Context, fn func(context.Context) (*services.TimerView, error)) {
	v, err := fn(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"timer": v})
}
