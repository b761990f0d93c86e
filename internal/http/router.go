package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/coursetrack-backend/internal/http/handlers"
	httpMW "github.com/yungbote/coursetrack-backend/internal/http/middleware"
	"github.com/yungbote/coursetrack-backend/internal/observability"
	"github.com/yungbote/coursetrack-backend/internal/platform/ctxutil"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	AllowedOrigins []string

	AuthMiddleware *httpMW.AuthMiddleware
	RateLimiter    *httpMW.RateLimiter
	WritesPerMin   int

	SessionHandler    *httpH.SessionHandler
	EventHandler      *httpH.EventHandler
	ProgressHandler   *httpH.ProgressHandler
	CurriculumHandler *httpH.CurriculumHandler
	AnalyticsHandler  *httpH.AnalyticsHandler
	RealtimeHandler   *httpH.RealtimeHandler
	HealthHandler     *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	protected := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}
	limit := func(name string) gin.HandlerFunc {
		return cfg.RateLimiter.Limit(name, cfg.WritesPerMin, time.Minute)
	}

	// Tracking pipeline
	if cfg.SessionHandler != nil {
		protected.POST("/sessions", limit("sessions"), cfg.SessionHandler.Start)
		protected.PATCH("/sessions/:id/end", cfg.SessionHandler.End)
	}
	if cfg.EventHandler != nil {
		protected.POST("/events/batch", limit("events"), cfg.EventHandler.Batch)
	}
	if cfg.ProgressHandler != nil {
		protected.POST("/progress", limit("progress"), cfg.ProgressHandler.Upsert)
		protected.GET("/progress", cfg.ProgressHandler.ListMine)
		protected.GET("/progress/:lesson_id", cfg.ProgressHandler.ForLesson)
	}
	if cfg.CurriculumHandler != nil {
		protected.GET("/curriculum", cfg.CurriculumHandler.Mine)
	}

	// Admin
	admin := protected.Group("/admin")
	if cfg.AuthMiddleware != nil {
		admin.Use(cfg.AuthMiddleware.RequireRole(ctxutil.RoleAdmin))
	}
	if cfg.ProgressHandler != nil {
		admin.GET("/users/:id/progress", cfg.ProgressHandler.ListForUser)
	}
	if cfg.CurriculumHandler != nil {
		admin.GET("/users/:id/curriculum", cfg.CurriculumHandler.ForUser)
	}
	if cfg.AnalyticsHandler != nil {
		admin.GET("/users/:id/sessions", cfg.AnalyticsHandler.UserSessions)
		admin.GET("/lessons/:id/stats", cfg.AnalyticsHandler.LessonStats)
		admin.GET("/sessions/active", cfg.AnalyticsHandler.ActiveSessions)
		admin.GET("/sessions/:id/events", cfg.AnalyticsHandler.SessionEvents)
	}
	if cfg.RealtimeHandler != nil {
		admin.GET("/completions/stream", cfg.RealtimeHandler.CompletionStream)
	}

	return r
}
