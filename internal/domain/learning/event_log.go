package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	EventPageView               = "page_view"
	EventClick                  = "click"
	EventScroll                 = "scroll"
	EventVideoPlay              = "video_play"               // data: {position}
	EventVideoPause             = "video_pause"              // data: {position}
	EventVideoSeek              = "video_seek"               // data: {from, to}
	EventVideoProgressHeartbeat = "video_progress_heartbeat" // data: {position, percent}
	EventManualViewHeartbeat    = "manual_view_heartbeat"
	EventIdleStart              = "idle_start"
	EventIdleEnd                = "idle_end"
	EventLessonComplete         = "lesson_complete"
)

var eventTypes = map[string]struct{}{
	EventPageView:               {},
	EventClick:                  {},
	EventScroll:                 {},
	EventVideoPlay:              {},
	EventVideoPause:             {},
	EventVideoSeek:              {},
	EventVideoProgressHeartbeat: {},
	EventManualViewHeartbeat:    {},
	EventIdleStart:              {},
	EventIdleEnd:                {},
	EventLessonComplete:         {},
}

func IsKnownEventType(t string) bool {
	_, ok := eventTypes[t]
	return ok
}

// EventLogEntry is an append-only interaction fact. Replay order is ClientTS.
type EventLogEntry struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;index:idx_event_log_session_client_ts,priority:1" json:"session_id"`
	LessonID  uuid.UUID `gorm:"type:uuid;not null;index" json:"lesson_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	EventType    string         `gorm:"column:event_type;not null;index" json:"event_type"`
	EventPayload datatypes.JSON `gorm:"column:event_payload" json:"event_payload"`
	ClientTS     time.Time      `gorm:"column:client_ts;not null;index:idx_event_log_session_client_ts,priority:2" json:"client_ts"`
	ServerTS     time.Time      `gorm:"column:server_ts;not null" json:"server_ts"`
}

func (EventLogEntry) TableName() string { return "event_log" }
