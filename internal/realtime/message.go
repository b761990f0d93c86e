package realtime

import (
	"time"

	"github.com/google/uuid"
)

const EventLessonCompleted = "lesson_completed"

// Message is a progress notification fanned out to dashboards.
type Message struct {
	Event     string    `json:"event"`
	UserID    uuid.UUID `json:"user_id"`
	LessonID  uuid.UUID `json:"lesson_id"`
	Percent   float64   `json:"percent_watched"`
	Timestamp time.Time `json:"ts"`
}
