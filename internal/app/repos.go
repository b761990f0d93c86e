package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/coursetrack-backend/internal/data/repos"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
)

type Repos struct {
	User           repos.UserRepo
	Curriculum     repos.CurriculumRepo
	LessonProgress repos.LessonProgressRepo
	Session        repos.LearningSessionRepo
	EventLog       repos.EventLogRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:           repos.NewUserRepo(db, log),
		Curriculum:     repos.NewCurriculumRepo(db, log),
		LessonProgress: repos.NewLessonProgressRepo(db, log),
		Session:        repos.NewLearningSessionRepo(db, log),
		EventLog:       repos.NewEventLogRepo(db, log),
	}
}
