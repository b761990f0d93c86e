package learning

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/coursetrack-backend/internal/domain"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
)

type LessonProgressRepo interface {
	// Merge folds one report into the (user, lesson) row in a single statement.
	Merge(dbc dbctx.Context, report types.ProgressReport, now time.Time) (*types.ProgressMergeResult, error)

	GetByUserAndLesson(dbc dbctx.Context, userID, lessonID uuid.UUID) (*types.LessonProgress, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.LessonProgress, error)
	StatsByLesson(dbc dbctx.Context, lessonID uuid.UUID) (*LessonStats, error)
}

type LessonStats struct {
	LessonID          uuid.UUID `json:"lesson_id" gorm:"-"`
	Learners          int64     `json:"learners" gorm:"column:learners"`
	Completed         int64     `json:"completed" gorm:"column:completed"`
	AvgPercentWatched float64   `json:"avg_percent_watched" gorm:"column:avg_percent_watched"`
	TotalWatchSeconds int64     `json:"total_watch_seconds" gorm:"column:total_watch_seconds"`
	Rewatches         int64     `json:"rewatches" gorm:"column:rewatches"`
}

type lessonProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonProgressRepo(db *gorm.DB, baseLog *logger.Logger) LessonProgressRepo {
	return &lessonProgressRepo{db: db, log: baseLog.With("repo", "LessonProgressRepo")}
}

// Every SET expression reads the existing row, so concurrent reports for the
// same pair serialize on the row lock and none of them can be lost or regress
// the stored state. Do not split this into a read followed by a write.
//
// newly_completed is true only when this statement flipped completed, since
// completed_at and last_activity_at are then written from the same value.
var mergeProgressSQL = fmt.Sprintf(`
INSERT INTO lesson_progress (
	id, user_id, lesson_id,
	percent_watched, last_position_seconds, total_watch_seconds,
	completed, completed_at, watch_count,
	last_activity_at, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?)
ON CONFLICT (user_id, lesson_id) DO UPDATE SET
	percent_watched = CASE
		WHEN excluded.percent_watched > lesson_progress.percent_watched THEN excluded.percent_watched
		ELSE lesson_progress.percent_watched END,
	last_position_seconds = excluded.last_position_seconds,
	total_watch_seconds = lesson_progress.total_watch_seconds + excluded.total_watch_seconds,
	completed = CASE
		WHEN lesson_progress.completed OR excluded.percent_watched >= %[1]g THEN TRUE
		ELSE FALSE END,
	completed_at = CASE
		WHEN NOT lesson_progress.completed AND excluded.percent_watched >= %[1]g THEN excluded.last_activity_at
		ELSE lesson_progress.completed_at END,
	watch_count = CASE
		WHEN lesson_progress.percent_watched > %[2]g AND excluded.percent_watched <= %[3]g THEN lesson_progress.watch_count + 1
		ELSE lesson_progress.watch_count END,
	last_activity_at = excluded.last_activity_at,
	updated_at = excluded.updated_at
RETURNING
	completed,
	(completed_at IS NOT NULL AND completed_at = last_activity_at) AS newly_completed,
	percent_watched,
	total_watch_seconds,
	watch_count
`, types.CompletionThresholdPercent, types.RewatchPriorMinPercent, types.RewatchRestartMaxPercent)

func (r *lessonProgressRepo) Merge(dbc dbctx.Context, report types.ProgressReport, now time.Time) (*types.ProgressMergeResult, error) {
	if report.UserID == uuid.Nil || report.LessonID == uuid.Nil {
		return nil, fmt.Errorf("merge progress: user_id and lesson_id required")
	}
	now = now.UTC()
	completed := report.PercentWatched >= types.CompletionThresholdPercent
	var completedAt *time.Time
	if completed {
		completedAt = &now
	}

	var out types.ProgressMergeResult
	res := dbc.DB(r.db).Raw(mergeProgressSQL,
		uuid.New(), report.UserID, report.LessonID,
		report.PercentWatched, report.LastPositionSeconds, report.TotalWatchSecondsDelta,
		completed, completedAt,
		now, now, now,
	).Scan(&out)
	if res.Error != nil {
		return nil, fmt.Errorf("merge progress: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("merge progress: no row returned")
	}
	return &out, nil
}

func (r *lessonProgressRepo) GetByUserAndLesson(dbc dbctx.Context, userID, lessonID uuid.UUID) (*types.LessonProgress, error) {
	var row types.LessonProgress
	err := dbc.DB(r.db).
		Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		Take(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *lessonProgressRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.LessonProgress, error) {
	var rows []*types.LessonProgress
	if err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("last_activity_at DESC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *lessonProgressRepo) StatsByLesson(dbc dbctx.Context, lessonID uuid.UUID) (*LessonStats, error) {
	var out LessonStats
	err := dbc.DB(r.db).
		Model(&types.LessonProgress{}).
		Select(`COUNT(*) AS learners,
			COALESCE(SUM(CASE WHEN completed THEN 1 ELSE 0 END), 0) AS completed,
			COALESCE(AVG(percent_watched), 0) AS avg_percent_watched,
			CAST(COALESCE(SUM(total_watch_seconds), 0) AS BIGINT) AS total_watch_seconds,
			CAST(COALESCE(SUM(watch_count), 0) AS BIGINT) AS rewatches`).
		Where("lesson_id = ?", lessonID).
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	out.LessonID = lessonID
	return &out, nil
}
