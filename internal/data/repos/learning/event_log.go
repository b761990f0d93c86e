package learning

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/coursetrack-backend/internal/domain"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
)

type EventLogRepo interface {
	// Append inserts rows as-is. The log is never updated or deleted.
	Append(dbc dbctx.Context, rows []*types.EventLogEntry) error
	ListBySession(dbc dbctx.Context, sessionID uuid.UUID) ([]*types.EventLogEntry, error)
	CountByType(dbc dbctx.Context, sessionID uuid.UUID) (map[string]int64, error)
}

type eventLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEventLogRepo(db *gorm.DB, baseLog *logger.Logger) EventLogRepo {
	return &eventLogRepo{db: db, log: baseLog.With("repo", "EventLogRepo")}
}

func (r *eventLogRepo) Append(dbc dbctx.Context, rows []*types.EventLogEntry) error {
	if len(rows) == 0 {
		return nil
	}
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
	}
	return dbc.DB(r.db).CreateInBatches(rows, 200).Error
}

// ListBySession returns the replay order: client time first, server time to break ties.
func (r *eventLogRepo) ListBySession(dbc dbctx.Context, sessionID uuid.UUID) ([]*types.EventLogEntry, error) {
	var rows []*types.EventLogEntry
	if err := dbc.DB(r.db).
		Where("session_id = ?", sessionID).
		Order("client_ts ASC, server_ts ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *eventLogRepo) CountByType(dbc dbctx.Context, sessionID uuid.UUID) (map[string]int64, error) {
	var rows []struct {
		EventType string
		N         int64
	}
	if err := dbc.DB(r.db).
		Model(&types.EventLogEntry{}).
		Select("event_type, COUNT(*) AS n").
		Where("session_id = ?", sessionID).
		Group("event_type").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.EventType] = row.N
	}
	return out, nil
}
