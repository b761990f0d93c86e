package services

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/coursetrack-backend/internal/data/dberr"
	"github.com/yungbote/coursetrack-backend/internal/data/repos"
	types "github.com/yungbote/coursetrack-backend/internal/domain"
	"github.com/yungbote/coursetrack-backend/internal/platform/apierr"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
)

const (
	defaultActiveSessionLimit = 200
	defaultUserSessionLimit   = 100
)

type ActiveSession struct {
	*types.LearningSession
	ElapsedSeconds int64 `json:"elapsed_seconds"`
}

type SessionReplay struct {
	Session *types.LearningSession `json:"session"`
	Events  []*types.EventLogEntry `json:"events"`
	Counts  map[string]int64       `json:"counts"`
}

// AnalyticsService backs the admin dashboards. It only reads.
type AnalyticsService interface {
	LessonStats(dbc dbctx.Context, lessonID uuid.UUID) (*repos.LessonStats, error)
	// ActiveSessions lists sessions that were never closed. An abandoned tab
	// stays here forever; elapsed time keeps growing.
	ActiveSessions(dbc dbctx.Context, lessonID *uuid.UUID, limit int) ([]*ActiveSession, error)
	SessionReplay(dbc dbctx.Context, sessionID uuid.UUID) (*SessionReplay, error)
	// UserSessions is one learner's session history, newest first.
	UserSessions(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.LearningSession, error)
}

type analyticsService struct {
	log      *logger.Logger
	progress repos.LessonProgressRepo
	sessions repos.LearningSessionRepo
	events   repos.EventLogRepo
	now      func() time.Time
}

func NewAnalyticsService(baseLog *logger.Logger, progress repos.LessonProgressRepo, sessions repos.LearningSessionRepo, events repos.EventLogRepo) AnalyticsService {
	return &analyticsService{
		log:      baseLog.With("service", "AnalyticsService"),
		progress: progress,
		sessions: sessions,
		events:   events,
		now:      time.Now,
	}
}

func (s *analyticsService) LessonStats(dbc dbctx.Context, lessonID uuid.UUID) (*repos.LessonStats, error) {
	if lessonID == uuid.Nil {
		return nil, apierr.BadRequest("invalid_lesson_id", "invalid lesson id")
	}
	st, err := s.progress.StatsByLesson(dbc, lessonID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "lesson_stats_failed", err)
	}
	return st, nil
}

func (s *analyticsService) ActiveSessions(dbc dbctx.Context, lessonID *uuid.UUID, limit int) ([]*ActiveSession, error) {
	if limit <= 0 || limit > defaultActiveSessionLimit {
		limit = defaultActiveSessionLimit
	}
	rows, err := s.sessions.ListOpen(dbc, lessonID, limit)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "active_sessions_failed", err)
	}
	now := s.now()
	out := make([]*ActiveSession, 0, len(rows))
	for _, row := range rows {
		out = append(out, &ActiveSession{
			LearningSession: row,
			ElapsedSeconds:  int64(now.Sub(row.SessionStartedAt) / time.Second),
		})
	}
	return out, nil
}

func (s *analyticsService) SessionReplay(dbc dbctx.Context, sessionID uuid.UUID) (*SessionReplay, error) {
	if sessionID == uuid.Nil {
		return nil, apierr.BadRequest("invalid_session_id", "invalid session id")
	}
	sess, err := s.sessions.GetByID(dbc, sessionID)
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, apierr.NotFound("session_not_found", "session not found")
		}
		return nil, apierr.New(http.StatusInternalServerError, "session_replay_failed", err)
	}
	events, err := s.events.ListBySession(dbc, sessionID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "session_replay_failed", err)
	}
	counts, err := s.events.CountByType(dbc, sessionID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "session_replay_failed", err)
	}
	return &SessionReplay{Session: sess, Events: events, Counts: counts}, nil
}

func (s *analyticsService) UserSessions(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.LearningSession, error) {
	if userID == uuid.Nil {
		return nil, apierr.BadRequest("invalid_user_id", "invalid user id")
	}
	if limit <= 0 || limit > defaultUserSessionLimit {
		limit = defaultUserSessionLimit
	}
	rows, err := s.sessions.ListByUser(dbc, userID, limit)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "user_sessions_failed", err)
	}
	return rows, nil
}
