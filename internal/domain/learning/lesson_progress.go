package learning

import (
	"time"

	"github.com/google/uuid"
)

// LessonProgress is the reconciled per-(user, lesson) state, aggregated across
// every session. It has no soft delete so the conflict key always hits the live row.
type LessonProgress struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_lesson_progress_user_lesson,priority:1" json:"user_id"`
	LessonID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_lesson_progress_user_lesson,priority:2;index" json:"lesson_id"`

	PercentWatched      float64    `gorm:"column:percent_watched;not null;default:0" json:"percent_watched"`
	LastPositionSeconds float64    `gorm:"column:last_position_seconds;not null;default:0" json:"last_position_seconds"`
	TotalWatchSeconds   int        `gorm:"column:total_watch_seconds;not null;default:0" json:"total_watch_seconds"`
	Completed           bool       `gorm:"column:completed;not null;default:false" json:"completed"`
	CompletedAt         *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	WatchCount          int        `gorm:"column:watch_count;not null;default:0" json:"watch_count"`
	LastActivityAt      time.Time  `gorm:"column:last_activity_at;not null" json:"last_activity_at"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (LessonProgress) TableName() string { return "lesson_progress" }

// ProgressReport is one incoming heartbeat-driven report for a lesson.
type ProgressReport struct {
	UserID                 uuid.UUID
	LessonID               uuid.UUID
	PercentWatched         float64
	LastPositionSeconds    float64
	TotalWatchSecondsDelta int
}

// ProgressMergeResult is the stored state after a report was merged.
type ProgressMergeResult struct {
	Completed         bool    `gorm:"column:completed"`
	NewlyCompleted    bool    `gorm:"column:newly_completed"`
	PercentWatched    float64 `gorm:"column:percent_watched"`
	TotalWatchSeconds int     `gorm:"column:total_watch_seconds"`
	WatchCount        int     `gorm:"column:watch_count"`
}
