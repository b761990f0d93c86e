package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/coursetrack-backend/internal/domain"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
)

type LearningSessionRepo interface {
	Create(dbc dbctx.Context, row *types.LearningSession) (*types.LearningSession, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.LearningSession, error)

	// Close writes the final counters. Rows owned by another user are not touched.
	Close(dbc dbctx.Context, id, userID uuid.UUID, activeSeconds, idleSeconds int, endedAt time.Time) (int64, error)
	AddActiveSeconds(dbc dbctx.Context, id, userID uuid.UUID, seconds int) (int64, error)

	ListOpen(dbc dbctx.Context, lessonID *uuid.UUID, limit int) ([]*types.LearningSession, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.LearningSession, error)
}

type learningSessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLearningSessionRepo(db *gorm.DB, baseLog *logger.Logger) LearningSessionRepo {
	return &learningSessionRepo{db: db, log: baseLog.With("repo", "LearningSessionRepo")}
}

func (r *learningSessionRepo) Create(dbc dbctx.Context, row *types.LearningSession) (*types.LearningSession, error) {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if err := dbc.DB(r.db).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *learningSessionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.LearningSession, error) {
	var row types.LearningSession
	if err := dbc.DB(r.db).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *learningSessionRepo) Close(dbc dbctx.Context, id, userID uuid.UUID, activeSeconds, idleSeconds int, endedAt time.Time) (int64, error) {
	res := dbc.DB(r.db).
		Model(&types.LearningSession{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{
			"session_ended_at":     endedAt.UTC(),
			"total_active_seconds": activeSeconds,
			"total_idle_seconds":   idleSeconds,
			"updated_at":           endedAt.UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *learningSessionRepo) AddActiveSeconds(dbc dbctx.Context, id, userID uuid.UUID, seconds int) (int64, error) {
	if seconds == 0 {
		return 0, nil
	}
	res := dbc.DB(r.db).
		Model(&types.LearningSession{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{
			"total_active_seconds": gorm.Expr("total_active_seconds + ?", seconds),
			"updated_at":           time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *learningSessionRepo) ListOpen(dbc dbctx.Context, lessonID *uuid.UUID, limit int) ([]*types.LearningSession, error) {
	q := dbc.DB(r.db).Where("session_ended_at IS NULL")
	if lessonID != nil && *lessonID != uuid.Nil {
		q = q.Where("lesson_id = ?", *lessonID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []*types.LearningSession
	if err := q.Order("session_started_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *learningSessionRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.LearningSession, error) {
	q := dbc.DB(r.db).Where("user_id = ?", userID)
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []*types.LearningSession
	if err := q.Order("session_started_at DESC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
