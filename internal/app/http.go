package app

import (
	"github.com/yungbote/coursetrack-backend/internal/data/db"
	httpapi "github.com/yungbote/coursetrack-backend/internal/http"
	httpH "github.com/yungbote/coursetrack-backend/internal/http/handlers"
	httpMW "github.com/yungbote/coursetrack-backend/internal/http/middleware"
	"github.com/yungbote/coursetrack-backend/internal/observability"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
)

type Middleware struct {
	Auth      *httpMW.AuthMiddleware
	RateLimit *httpMW.RateLimiter
}

type Handlers struct {
	Health     *httpH.HealthHandler
	Session    *httpH.SessionHandler
	Event      *httpH.EventHandler
	Progress   *httpH.ProgressHandler
	Curriculum *httpH.CurriculumHandler
	Analytics  *httpH.AnalyticsHandler
	Realtime   *httpH.RealtimeHandler
}

func wireMiddleware(log *logger.Logger, services Services, clients Clients, metrics *observability.Metrics) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth:      httpMW.NewAuthMiddleware(log, services.Auth),
		RateLimit: httpMW.NewRateLimiter(log, clients.Redis, metrics),
	}
}

func wireHandlers(log *logger.Logger, pg *db.PostgresService, services Services, clients Clients) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:     httpH.NewHealthHandler(pg),
		Session:    httpH.NewSessionHandler(services.Session),
		Event:      httpH.NewEventHandler(services.Events),
		Progress:   httpH.NewProgressHandler(services.Progress),
		Curriculum: httpH.NewCurriculumHandler(services.Curriculum),
		Analytics:  httpH.NewAnalyticsHandler(services.Analytics),
		Realtime:   httpH.NewRealtimeHandler(log, clients.Bus),
	}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, metrics *observability.Metrics) *httpapi.Server {
	serviceName := ""
	if cfg.OtelEnabled {
		serviceName = cfg.OtelServiceName
	}
	return httpapi.NewServer(httpapi.RouterConfig{
		Log:               log,
		Metrics:           metrics,
		ServiceName:       serviceName,
		AllowedOrigins:    cfg.AllowedOrigins(),
		AuthMiddleware:    middleware.Auth,
		RateLimiter:       middleware.RateLimit,
		WritesPerMin:      cfg.RateLimitPerMinute,
		SessionHandler:    handlers.Session,
		EventHandler:      handlers.Event,
		ProgressHandler:   handlers.Progress,
		CurriculumHandler: handlers.Curriculum,
		AnalyticsHandler:  handlers.Analytics,
		RealtimeHandler:   handlers.Realtime,
		HealthHandler:     handlers.Health,
	})
}
