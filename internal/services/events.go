package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/coursetrack-backend/internal/data/dberr"
	"github.com/yungbote/coursetrack-backend/internal/data/repos"
	types "github.com/yungbote/coursetrack-backend/internal/domain"
	"github.com/yungbote/coursetrack-backend/internal/observability"
	"github.com/yungbote/coursetrack-backend/internal/platform/apierr"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
)

type EventInput struct {
	EventType    string          `json:"event_type"`
	EventPayload json.RawMessage `json:"event_payload,omitempty"`
	ClientTS     *time.Time      `json:"client_ts,omitempty"`
}

type EventBatchInput struct {
	SessionID string       `json:"session_id"`
	LessonID  string       `json:"lesson_id"`
	Events    []EventInput `json:"events"`
}

type EventService interface {
	// Batch appends every event and credits the session with one heartbeat
	// unit of active time per video heartbeat, all in one transaction.
	Batch(dbc dbctx.Context, in EventBatchInput) (int, error)
	ListForSession(dbc dbctx.Context, sessionID uuid.UUID) ([]*types.EventLogEntry, error)
}

type eventService struct {
	db       *gorm.DB
	log      *logger.Logger
	events   repos.EventLogRepo
	sessions repos.LearningSessionRepo
	metrics  *observability.Metrics
	now      func() time.Time
}

func NewEventService(db *gorm.DB, baseLog *logger.Logger, events repos.EventLogRepo, sessions repos.LearningSessionRepo, metrics *observability.Metrics) EventService {
	return &eventService{
		db:       db,
		log:      baseLog.With("service", "EventService"),
		events:   events,
		sessions: sessions,
		metrics:  metrics,
		now:      time.Now,
	}
}

func (s *eventService) Batch(dbc dbctx.Context, in EventBatchInput) (int, error) {
	rd, err := requireUser(dbc.Ctx)
	if err != nil {
		return 0, err
	}
	sessionID, err := parseRequiredUUID(in.SessionID, "missing_session_id", "session_id")
	if err != nil {
		return 0, err
	}
	lessonID, err := parseRequiredUUID(in.LessonID, "missing_lesson_id", "lesson_id")
	if err != nil {
		return 0, err
	}
	if len(in.Events) == 0 {
		return 0, nil
	}

	now := s.now().UTC()
	rows := make([]*types.EventLogEntry, 0, len(in.Events))
	counts := map[string]int{}
	heartbeats := 0
	for i, ev := range in.Events {
		if !types.IsKnownEventType(ev.EventType) {
			s.metrics.ObserveEventBatch("invalid", nil, len(in.Events))
			return 0, apierr.BadRequest("invalid_event_type", fmt.Sprintf("unknown event_type %q at index %d", ev.EventType, i))
		}
		clientTS := now
		if ev.ClientTS != nil && !ev.ClientTS.IsZero() {
			clientTS = ev.ClientTS.UTC()
		}
		rows = append(rows, &types.EventLogEntry{
			SessionID:    sessionID,
			LessonID:     lessonID,
			UserID:       rd.UserID,
			EventType:    ev.EventType,
			EventPayload: payloadJSON(ev.EventPayload),
			ClientTS:     clientTS,
			ServerTS:     now,
		})
		counts[ev.EventType]++
		if ev.EventType == types.EventVideoProgressHeartbeat {
			heartbeats++
		}
	}

	run := func(inner dbctx.Context) error {
		if err := s.events.Append(inner, rows); err != nil {
			return err
		}
		if heartbeats == 0 {
			return nil
		}
		_, err := s.sessions.AddActiveSeconds(inner, sessionID, rd.UserID, heartbeats*types.HeartbeatActiveSeconds)
		return err
	}

	if dbc.Tx != nil {
		err = run(dbc)
	} else {
		err = s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
			return run(dbctx.Context{Ctx: dbc.Ctx, Tx: tx})
		})
	}
	if err != nil {
		s.metrics.ObserveEventBatch("error", nil, len(rows))
		if dberr.IsForeignKeyViolation(err) {
			return 0, apierr.BadRequest("unknown_lesson", "lesson does not exist")
		}
		s.log.Warn("event batch failed", "session_id", sessionID, "size", len(rows), "error", err)
		return 0, apierr.New(http.StatusInternalServerError, "event_batch_failed", err)
	}
	s.metrics.ObserveEventBatch("ok", counts, len(rows))
	return len(rows), nil
}

func (s *eventService) ListForSession(dbc dbctx.Context, sessionID uuid.UUID) ([]*types.EventLogEntry, error) {
	rows, err := s.events.ListBySession(dbc, sessionID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "event_list_failed", err)
	}
	return rows, nil
}

func payloadJSON(raw json.RawMessage) datatypes.JSON {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return datatypes.JSON("{}")
	}
	cp := make([]byte, len(raw))
	copy(cp, raw)
	return datatypes.JSON(cp)
}
