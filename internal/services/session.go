package services

import (
	"net/http"
	"time"

	"github.com/yungbote/coursetrack-backend/internal/data/dberr"
	"github.com/yungbote/coursetrack-backend/internal/data/repos"
	types "github.com/yungbote/coursetrack-backend/internal/domain"
	"github.com/yungbote/coursetrack-backend/internal/observability"
	"github.com/yungbote/coursetrack-backend/internal/platform/apierr"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
)

type SessionStartInput struct {
	LessonID string `json:"lesson_id"`
}

type SessionEndInput struct {
	TotalActiveSeconds *float64 `json:"total_active_seconds"`
	TotalIdleSeconds   *float64 `json:"total_idle_seconds"`
}

type SessionService interface {
	Start(dbc dbctx.Context, in SessionStartInput) (*types.LearningSession, error)
	// End reports whether a row owned by the caller was closed. A session that
	// belongs to someone else is left untouched and is not an error.
	End(dbc dbctx.Context, rawSessionID string, in SessionEndInput) (bool, error)
}

type sessionService struct {
	log     *logger.Logger
	repo    repos.LearningSessionRepo
	metrics *observability.Metrics
	now     func() time.Time
}

func NewSessionService(baseLog *logger.Logger, repo repos.LearningSessionRepo, metrics *observability.Metrics) SessionService {
	return &sessionService{
		log:     baseLog.With("service", "SessionService"),
		repo:    repo,
		metrics: metrics,
		now:     time.Now,
	}
}

func (s *sessionService) Start(dbc dbctx.Context, in SessionStartInput) (*types.LearningSession, error) {
	rd, err := requireUser(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	lessonID, err := parseRequiredUUID(in.LessonID, "missing_lesson_id", "lesson_id")
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	row, err := s.repo.Create(dbc, &types.LearningSession{
		UserID:           rd.UserID,
		LessonID:         lessonID,
		SessionStartedAt: now,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		if dberr.IsForeignKeyViolation(err) {
			return nil, apierr.BadRequest("unknown_lesson", "lesson does not exist")
		}
		s.log.Error("session start failed", "user_id", rd.UserID, "lesson_id", lessonID, "error", err)
		return nil, apierr.New(http.StatusInternalServerError, "session_start_failed", err)
	}
	s.metrics.IncSessionOpened()
	return row, nil
}

func (s *sessionService) End(dbc dbctx.Context, rawSessionID string, in SessionEndInput) (bool, error) {
	rd, err := requireUser(dbc.Ctx)
	if err != nil {
		return false, err
	}
	sessionID, err := parseRequiredUUID(rawSessionID, "invalid_session_id", "session_id")
	if err != nil {
		return false, err
	}
	active := wholeSeconds(in.TotalActiveSeconds)
	idle := wholeSeconds(in.TotalIdleSeconds)

	n, err := s.repo.Close(dbc, sessionID, rd.UserID, active, idle, s.now())
	if err != nil {
		s.metrics.IncSessionClosed("error")
		s.log.Error("session end failed", "session_id", sessionID, "error", err)
		return false, apierr.New(http.StatusInternalServerError, "session_end_failed", err)
	}
	if n == 0 {
		s.metrics.IncSessionClosed("noop")
		s.log.Debug("session end matched no owned row", "session_id", sessionID, "user_id", rd.UserID)
		return false, nil
	}
	if idle < 0 {
		s.log.Debug("session closed with negative idle seconds", "session_id", sessionID, "idle", idle, "active", active)
	}
	s.metrics.IncSessionClosed("closed")
	return true, nil
}
