package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/coursetrack-backend/internal/observability"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
	"github.com/yungbote/coursetrack-backend/internal/services"
)

type Services struct {
	Auth services.AuthService

	// Tracking pipeline
	Session  services.SessionService
	Events   services.EventService
	Progress services.ProgressService

	// Read side
	Curriculum services.CurriculumService
	Analytics  services.AnalyticsService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")
	return Services{
		Auth:       services.NewAuthService(log, cfg.JWTSecretKey),
		Session:    services.NewSessionService(log, repos.Session, metrics),
		Events:     services.NewEventService(db, log, repos.EventLog, repos.Session, metrics),
		Progress:   services.NewProgressService(log, repos.LessonProgress, clients.Bus, metrics),
		Curriculum: services.NewCurriculumService(log, repos.Curriculum, repos.User, clients.Videos),
		Analytics:  services.NewAnalyticsService(log, repos.LessonProgress, repos.Session, repos.EventLog),
	}
}
