package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursetrack-backend/internal/http/response"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
	"github.com/yungbote/coursetrack-backend/internal/services"
)

type CurriculumHandler struct {
	curriculum services.CurriculumService
}

func NewCurriculumHandler(curriculum services.CurriculumService) *CurriculumHandler {
	return &CurriculumHandler{curriculum: curriculum}
}

// GET /api/curriculum
func (h *CurriculumHandler) Mine(c *gin.Context) {
	courses, err := h.curriculum.Mine(dbctx.New(c.Request.Context()))
	if err != nil {
		response.RespondAPIError(c, err, "curriculum_failed")
		return
	}
	response.RespondOK(c, gin.H{"courses": courses})
}

// GET /api/admin/users/:id/curriculum
func (h *CurriculumHandler) ForUser(c *gin.Context) {
	userID, ok := pathUUID(c, "id", "invalid_user_id")
	if !ok {
		return
	}
	courses, err := h.curriculum.ForUser(dbctx.New(c.Request.Context()), userID)
	if err != nil {
		response.RespondAPIError(c, err, "curriculum_failed")
		return
	}
	response.RespondOK(c, gin.H{"courses": courses})
}
