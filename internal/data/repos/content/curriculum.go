package content

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/coursetrack-backend/internal/domain"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
)

// CurriculumRow is one assigned lesson joined to its section, course and the
// learner's progress. Progress columns are NULL when no progress row exists.
type CurriculumRow struct {
	CourseID          uuid.UUID `gorm:"column:course_id"`
	CourseTitle       string    `gorm:"column:course_title"`
	CourseDescription string    `gorm:"column:course_description"`
	CourseSortOrder   int       `gorm:"column:course_sort_order"`

	SectionID uuid.UUID `gorm:"column:section_id"`

	LessonID              uuid.UUID `gorm:"column:lesson_id"`
	LessonTitle           string    `gorm:"column:lesson_title"`
	LessonVideoURL        string    `gorm:"column:lesson_video_url"`
	LessonVideoObjectKey  string    `gorm:"column:lesson_video_object_key"`
	LessonDurationSeconds int       `gorm:"column:lesson_duration_seconds"`
	LessonSortOrder       int       `gorm:"column:lesson_sort_order"`

	PercentWatched      *float64 `gorm:"column:percent_watched"`
	Completed           *bool    `gorm:"column:completed"`
	LastPositionSeconds *float64 `gorm:"column:last_position_seconds"`
	WatchCount          *int     `gorm:"column:watch_count"`
}

type CurriculumRepo interface {
	// AssignedLessons lists active lessons of active courses assigned to
	// learnerType, ordered course, section, lesson by sort_order then insertion.
	AssignedLessons(dbc dbctx.Context, learnerType string, userID uuid.UUID) ([]*CurriculumRow, error)
	SectionsByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) ([]*types.Section, error)
}

type curriculumRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCurriculumRepo(db *gorm.DB, baseLog *logger.Logger) CurriculumRepo {
	return &curriculumRepo{db: db, log: baseLog.With("repo", "CurriculumRepo")}
}

const assignedLessonsSQL = `
SELECT
	c.id AS course_id,
	c.title AS course_title,
	c.description AS course_description,
	c.sort_order AS course_sort_order,
	s.id AS section_id,
	l.id AS lesson_id,
	l.title AS lesson_title,
	l.video_url AS lesson_video_url,
	l.video_object_key AS lesson_video_object_key,
	l.duration_seconds AS lesson_duration_seconds,
	l.sort_order AS lesson_sort_order,
	lp.percent_watched AS percent_watched,
	lp.completed AS completed,
	lp.last_position_seconds AS last_position_seconds,
	lp.watch_count AS watch_count
FROM curriculum_assignment ca
JOIN lesson l ON l.id = ca.lesson_id AND l.is_active = ?
JOIN section s ON s.id = l.section_id
JOIN course c ON c.id = s.course_id AND c.is_active = ?
LEFT JOIN lesson_progress lp ON lp.lesson_id = l.id AND lp.user_id = ?
WHERE ca.learner_type = ?
ORDER BY
	c.sort_order ASC, c.created_at ASC, c.id ASC,
	l.sort_order ASC, l.created_at ASC, l.id ASC
`

func (r *curriculumRepo) AssignedLessons(dbc dbctx.Context, learnerType string, userID uuid.UUID) ([]*CurriculumRow, error) {
	rows := []*CurriculumRow{}
	if learnerType == "" {
		return rows, nil
	}
	if err := dbc.DB(r.db).Raw(assignedLessonsSQL, true, true, userID, learnerType).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *curriculumRepo) SectionsByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) ([]*types.Section, error) {
	rows := []*types.Section{}
	if len(courseIDs) == 0 {
		return rows, nil
	}
	if err := dbc.DB(r.db).
		Where("course_id IN ?", courseIDs).
		Order("sort_order ASC, created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
