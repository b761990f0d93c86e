package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursetrack-backend/internal/http/response"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
	"github.com/yungbote/coursetrack-backend/internal/services"
)

type SessionHandler struct {
	sessions services.SessionService
}

func NewSessionHandler(sessions services.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// POST /api/sessions
func (h *SessionHandler) Start(c *gin.Context) {
	var req services.SessionStartInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	sess, err := h.sessions.Start(dbctx.New(c.Request.Context()), req)
	if err != nil {
		response.RespondAPIError(c, err, "session_start_failed")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session_id": sess.ID, "session_started_at": sess.SessionStartedAt})
}

// PATCH /api/sessions/:id/end
//
// Always ok when the request is well formed. A session owned by someone else
// is left alone.
func (h *SessionHandler) End(c *gin.Context) {
	var req services.SessionEndInput
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if _, err := h.sessions.End(dbctx.New(c.Request.Context()), c.Param("id"), req); err != nil {
		response.RespondAPIError(c, err, "session_end_failed")
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
