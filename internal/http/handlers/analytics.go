package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/coursetrack-backend/internal/http/response"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
	"github.com/yungbote/coursetrack-backend/internal/services"
)

type AnalyticsHandler struct {
	analytics services.AnalyticsService
}

func NewAnalyticsHandler(analytics services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// GET /api/admin/lessons/:id/stats
func (h *AnalyticsHandler) LessonStats(c *gin.Context) {
	lessonID, ok := pathUUID(c, "id", "invalid_lesson_id")
	if !ok {
		return
	}
	st, err := h.analytics.LessonStats(dbctx.New(c.Request.Context()), lessonID)
	if err != nil {
		response.RespondAPIError(c, err, "lesson_stats_failed")
		return
	}
	response.RespondOK(c, gin.H{"stats": st})
}

// GET /api/admin/sessions/active?lesson_id=&limit=
func (h *AnalyticsHandler) ActiveSessions(c *gin.Context) {
	var lessonID *uuid.UUID
	if raw := strings.TrimSpace(c.Query("lesson_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_lesson_id", err)
			return
		}
		lessonID = &id
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	rows, err := h.analytics.ActiveSessions(dbctx.New(c.Request.Context()), lessonID, limit)
	if err != nil {
		response.RespondAPIError(c, err, "active_sessions_failed")
		return
	}
	response.RespondOK(c, gin.H{"sessions": rows})
}

// GET /api/admin/sessions/:id/events
func (h *AnalyticsHandler) SessionEvents(c *gin.Context) {
	sessionID, ok := pathUUID(c, "id", "invalid_session_id")
	if !ok {
		return
	}
	replay, err := h.analytics.SessionReplay(dbctx.New(c.Request.Context()), sessionID)
	if err != nil {
		response.RespondAPIError(c, err, "session_replay_failed")
		return
	}
	response.RespondOK(c, replay)
}

// GET /api/admin/users/:id/sessions?limit=
func (h *AnalyticsHandler) UserSessions(c *gin.Context) {
	userID, ok := pathUUID(c, "id", "invalid_user_id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	rows, err := h.analytics.UserSessions(dbctx.New(c.Request.Context()), userID, limit)
	if err != nil {
		response.RespondAPIError(c, err, "user_sessions_failed")
		return
	}
	response.RespondOK(c, gin.H{"sessions": rows})
}
