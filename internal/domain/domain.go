package domain

import (
	"github.com/yungbote/coursetrack-backend/internal/domain/content"
	"github.com/yungbote/coursetrack-backend/internal/domain/learning"
	"github.com/yungbote/coursetrack-backend/internal/domain/user"
)

type (
	User = user.User

	Course               = content.Course
	Section              = content.Section
	Lesson               = content.Lesson
	CurriculumAssignment = content.CurriculumAssignment

	LessonProgress      = learning.LessonProgress
	ProgressReport      = learning.ProgressReport
	ProgressMergeResult = learning.ProgressMergeResult
	LearningSession     = learning.LearningSession
	EventLogEntry       = learning.EventLogEntry
)

const (
	EventPageView               = learning.EventPageView
	EventClick                  = learning.EventClick
	EventScroll                 = learning.EventScroll
	EventVideoPlay              = learning.EventVideoPlay
	EventVideoPause             = learning.EventVideoPause
	EventVideoSeek              = learning.EventVideoSeek
	EventVideoProgressHeartbeat = learning.EventVideoProgressHeartbeat
	EventManualViewHeartbeat    = learning.EventManualViewHeartbeat
	EventIdleStart              = learning.EventIdleStart
	EventIdleEnd                = learning.EventIdleEnd
	EventLessonComplete         = learning.EventLessonComplete

	CompletionThresholdPercent = learning.CompletionThresholdPercent
	RewatchPriorMinPercent     = learning.RewatchPriorMinPercent
	RewatchRestartMaxPercent   = learning.RewatchRestartMaxPercent
	HeartbeatInterval          = learning.HeartbeatInterval
	HeartbeatActiveSeconds     = learning.HeartbeatActiveSeconds
	IdleTimeout                = learning.IdleTimeout
	FlushInterval              = learning.FlushInterval
)

func IsKnownEventType(t string) bool { return learning.IsKnownEventType(t) }

// AllModels is the migration set, in dependency order.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Course{},
		&Section{},
		&Lesson{},
		&CurriculumAssignment{},
		&LessonProgress{},
		&LearningSession{},
		&EventLogEntry{},
	}
}
