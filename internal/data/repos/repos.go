package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/coursetrack-backend/internal/data/repos/content"
	"github.com/yungbote/coursetrack-backend/internal/data/repos/learning"
	"github.com/yungbote/coursetrack-backend/internal/data/repos/user"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo

type ContentRepo = content.ContentRepo
type CurriculumRepo = content.CurriculumRepo
type CurriculumRow = content.CurriculumRow

type LessonProgressRepo = learning.LessonProgressRepo
type LessonStats = learning.LessonStats
type LearningSessionRepo = learning.LearningSessionRepo
type EventLogRepo = learning.EventLogRepo

func NewUserRepo(db *gorm.DB, log *logger.Logger) UserRepo { return user.NewUserRepo(db, log) }

func NewContentRepo(db *gorm.DB, log *logger.Logger) ContentRepo {
	return content.NewContentRepo(db, log)
}
func NewCurriculumRepo(db *gorm.DB, log *logger.Logger) CurriculumRepo {
	return content.NewCurriculumRepo(db, log)
}

func NewLessonProgressRepo(db *gorm.DB, log *logger.Logger) LessonProgressRepo {
	return learning.NewLessonProgressRepo(db, log)
}
func NewLearningSessionRepo(db *gorm.DB, log *logger.Logger) LearningSessionRepo {
	return learning.NewLearningSessionRepo(db, log)
}
func NewEventLogRepo(db *gorm.DB, log *logger.Logger) EventLogRepo {
	return learning.NewEventLogRepo(db, log)
}
