package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/discipline-backend/internal/http/response"
	"github.com/yungbote/discipline-backend/internal/services"
)

type PlanHandler struct {
	plans services.PlanService
}

func NewPlanHandler(plans services.PlanService) *PlanHandler {
	return &PlanHandler{plans: plans}
}

func (h *PlanHandler) List(c *gin.Context) {
	plans, err := h.plans.List(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"plans": plans})
}

func (h *PlanHandler) Create(c *gin.Context) {
	var req services.CreatePlanRequest
	if !bindJSON(c, &req) {
		return
	}
	plan, err := h.plans.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"plan": plan})
}

// Update toggles completion; it is the only mutable plan field.
func (h *PlanHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		Completed *bool `json:"completed"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if req.Completed == nil {
		response.RespondError(c, http.StatusBadRequest, "validation_error", errors.New("completed is required"))
		return
	}
	plan, err := h.plans.SetCompleted(c.Request.Context(), id, *req.Completed)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"plan": plan})
}

func (h *PlanHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	res, err := h.plans.Delete(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"plan":             res.Plan,
		"deleted_sessions": len(res.DeletedSessions),
	})
}
