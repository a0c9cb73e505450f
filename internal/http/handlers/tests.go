package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/discipline-backend/internal/http/response"
	"github.com/yungbote/discipline-backend/internal/services"
)

type TestHandler struct {
	tests services.TestService
}

func NewTestHandler(tests services.TestService) *TestHandler {
	return &TestHandler{tests: tests}
}

func (h *TestHandler) List(c *gin.Context) {
	tests, err := h.tests.List(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"tests": tests})
}

func (h *TestHandler) Create(c *gin.Context) {
	var req services.TestScoresRequest
	if !bindJSON(c, &req) {
		return
	}
	rec, err := h.tests.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"test": rec})
}

func (h *TestHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req services.TestScoresRequest
	if !bindJSON(c, &req) {
		return
	}
	rec, err := h.tests.Update(c.Request.Context(), id, req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"test": rec})
}

func (h *TestHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	rec, err := h.tests.Delete(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"test": rec})
}
