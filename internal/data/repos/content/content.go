package content

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/coursetrack-backend/internal/domain"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
)

// ContentRepo is the narrow write surface used to mirror the external content
// store (seeding and sync). The tracking pipeline itself only reads.
type ContentRepo interface {
	UpsertCourse(dbc dbctx.Context, row *types.Course) error
	UpsertSection(dbc dbctx.Context, row *types.Section) error
	UpsertLesson(dbc dbctx.Context, row *types.Lesson) error
	Assign(dbc dbctx.Context, learnerType string, lessonIDs []uuid.UUID) error

}

type contentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContentRepo(db *gorm.DB, baseLog *logger.Logger) ContentRepo {
	return &contentRepo{db: db, log: baseLog.With("repo", "ContentRepo")}
}

func stamp(created, updated *time.Time) {
	now := time.Now().UTC()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

func (r *contentRepo) UpsertCourse(dbc dbctx.Context, row *types.Course) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	stamp(&row.CreatedAt, &row.UpdatedAt)
	return dbc.DB(r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "description", "is_active", "sort_order", "updated_at"}),
	}).Create(row).Error
}

func (r *contentRepo) UpsertSection(dbc dbctx.Context, row *types.Section) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	stamp(&row.CreatedAt, &row.UpdatedAt)
	return dbc.DB(r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"course_id", "parent_section_id", "title", "sort_order", "updated_at"}),
	}).Create(row).Error
}

func (r *contentRepo) UpsertLesson(dbc dbctx.Context, row *types.Lesson) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	stamp(&row.CreatedAt, &row.UpdatedAt)
	return dbc.DB(r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"section_id", "title", "video_url", "video_object_key",
			"duration_seconds", "is_active", "sort_order", "updated_at",
		}),
	}).Create(row).Error
}

func (r *contentRepo) Assign(dbc dbctx.Context, learnerType string, lessonIDs []uuid.UUID) error {
	if learnerType == "" || len(lessonIDs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]*types.CurriculumAssignment, 0, len(lessonIDs))
	for _, id := range lessonIDs {
		rows = append(rows, &types.CurriculumAssignment{
			ID:          uuid.New(),
			LearnerType: learnerType,
			LessonID:    id,
			CreatedAt:   now,
		})
	}
	return dbc.DB(r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "learner_type"}, {Name: "lesson_id"}},
		DoNothing: true,
	}).Create(&rows).Error
}
