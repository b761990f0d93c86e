package learning

import (
	"time"

	"github.com/google/uuid"
)

// LearningSession is one viewing of one lesson. A nil SessionEndedAt means the
// session is still open; nothing ever closes it on a timeout.
type LearningSession struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	LessonID uuid.UUID `gorm:"type:uuid;not null;index" json:"lesson_id"`

	SessionStartedAt   time.Time  `gorm:"column:session_started_at;not null" json:"session_started_at"`
	SessionEndedAt     *time.Time `gorm:"column:session_ended_at;index" json:"session_ended_at,omitempty"`
	TotalActiveSeconds int        `gorm:"column:total_active_seconds;not null;default:0" json:"total_active_seconds"`
	TotalIdleSeconds   int        `gorm:"column:total_idle_seconds;not null;default:0" json:"total_idle_seconds"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (LearningSession) TableName() string { return "learning_sessions" }

func (s *LearningSession) IsOpen() bool { return s != nil && s.SessionEndedAt == nil }
