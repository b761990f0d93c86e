package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursetrack-backend/internal/http/response"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
	"github.com/yungbote/coursetrack-backend/internal/services"
)

type EventHandler struct {
	events services.EventService
}

func NewEventHandler(events services.EventService) *EventHandler {
	return &EventHandler{events: events}
}

// POST /api/events/batch
func (h *EventHandler) Batch(c *gin.Context) {
	var req services.EventBatchInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	n, err := h.events.Batch(dbctx.New(c.Request.Context()), req)
	if err != nil {
		response.RespondAPIError(c, err, "event_batch_failed")
		return
	}
	response.RespondOK(c, gin.H{"count": n})
}
