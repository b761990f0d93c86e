package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursetrack-backend/internal/http/response"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
	"github.com/yungbote/coursetrack-backend/internal/services"
)

type ProgressHandler struct {
	progress services.ProgressService
}

func NewProgressHandler(progress services.ProgressService) *ProgressHandler {
	return &ProgressHandler{progress: progress}
}

// POST /api/progress
func (h *ProgressHandler) Upsert(c *gin.Context) {
	var req services.ProgressInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.progress.Upsert(dbctx.New(c.Request.Context()), req)
	if err != nil {
		response.RespondAPIError(c, err, "progress_upsert_failed")
		return
	}
	response.RespondOK(c, res)
}

// GET /api/progress
func (h *ProgressHandler) ListMine(c *gin.Context) {
	rows, err := h.progress.ListMine(dbctx.New(c.Request.Context()))
	if err != nil {
		response.RespondAPIError(c, err, "progress_list_failed")
		return
	}
	response.RespondOK(c, gin.H{"progress": rows})
}

// GET /api/progress/:lesson_id
func (h *ProgressHandler) ForLesson(c *gin.Context) {
	row, err := h.progress.ForLesson(dbctx.New(c.Request.Context()), c.Param("lesson_id"))
	if err != nil {
		response.RespondAPIError(c, err, "progress_lookup_failed")
		return
	}
	response.RespondOK(c, gin.H{"progress": row})
}

// GET /api/admin/users/:id/progress
func (h *ProgressHandler) ListForUser(c *gin.Context) {
	userID, ok := pathUUID(c, "id", "invalid_user_id")
	if !ok {
		return
	}
	rows, err := h.progress.ListForUser(dbctx.New(c.Request.Context()), userID)
	if err != nil {
		response.RespondAPIError(c, err, "progress_list_failed")
		return
	}
	response.RespondOK(c, gin.H{"progress": rows})
}
