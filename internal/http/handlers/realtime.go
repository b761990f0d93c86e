package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
	"github.com/yungbote/coursetrack-backend/internal/realtime"
	"github.com/yungbote/coursetrack-backend/internal/realtime/bus"
)

const keepAliveInterval = 25 * time.Second

type RealtimeHandler struct {
	log *logger.Logger
	bus bus.Bus
}

func NewRealtimeHandler(log *logger.Logger, b bus.Bus) *RealtimeHandler {
	return &RealtimeHandler{log: log.With("handler", "RealtimeHandler"), bus: b}
}

// GET /api/admin/completions/stream
func (h *RealtimeHandler) CompletionStream(c *gin.Context) {
	ctx := c.Request.Context()
	msgs := make(chan realtime.Message, 32)
	if err := h.bus.Subscribe(ctx, func(m realtime.Message) {
		select {
		case msgs <- m:
		default:
		}
	}); err != nil {
		h.log.Warn("completion stream subscribe failed", "error", err)
		c.Status(http.StatusServiceUnavailable)
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case m := <-msgs:
			c.SSEvent(m.Event, m)
			return true
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"ts": time.Now().UTC()})
			return true
		}
	})
}
