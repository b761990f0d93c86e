package services

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/coursetrack-backend/internal/data/dberr"
	"github.com/yungbote/coursetrack-backend/internal/data/repos"
	types "github.com/yungbote/coursetrack-backend/internal/domain"
	"github.com/yungbote/coursetrack-backend/internal/observability"
	"github.com/yungbote/coursetrack-backend/internal/platform/apierr"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
	"github.com/yungbote/coursetrack-backend/internal/realtime"
	"github.com/yungbote/coursetrack-backend/internal/realtime/bus"
)

type ProgressInput struct {
	LessonID               string   `json:"lesson_id"`
	PercentWatched         *float64 `json:"percent_watched"`
	LastPositionSeconds    *float64 `json:"last_position_seconds"`
	TotalWatchSecondsDelta *float64 `json:"total_watch_seconds_delta"`
}

type ProgressResult struct {
	Completed bool `json:"completed"`
}

type ProgressService interface {
	// Upsert merges one report for the caller. Percent values are stored as sent.
	Upsert(dbc dbctx.Context, in ProgressInput) (*ProgressResult, error)
	ListForUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.LessonProgress, error)
	ListMine(dbc dbctx.Context) ([]*types.LessonProgress, error)
	// ForLesson is the caller's row for one lesson, used to resume playback.
	// A lesson never reported reads as an empty row.
	ForLesson(dbc dbctx.Context, lessonID string) (*types.LessonProgress, error)
}

type progressService struct {
	log     *logger.Logger
	repo    repos.LessonProgressRepo
	notify  bus.Bus
	metrics *observability.Metrics
	now     func() time.Time
}

func NewProgressService(baseLog *logger.Logger, repo repos.LessonProgressRepo, notify bus.Bus, metrics *observability.Metrics) ProgressService {
	return &progressService{
		log:     baseLog.With("service", "ProgressService"),
		repo:    repo,
		notify:  notify,
		metrics: metrics,
		now:     time.Now,
	}
}

func (s *progressService) Upsert(dbc dbctx.Context, in ProgressInput) (*ProgressResult, error) {
	start := time.Now()
	rd, err := requireUser(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	lessonID, err := parseRequiredUUID(in.LessonID, "missing_lesson_id", "lesson_id")
	if err != nil {
		s.metrics.ObserveProgressUpsert("invalid", false, 0)
		return nil, err
	}

	ctx, span := observability.Tracer().Start(dbc.Ctx, "progress.upsert")
	defer span.End()

	report := types.ProgressReport{
		UserID:                 rd.UserID,
		LessonID:               lessonID,
		PercentWatched:         floatOr(in.PercentWatched, 0),
		LastPositionSeconds:    floatOr(in.LastPositionSeconds, 0),
		TotalWatchSecondsDelta: wholeSeconds(in.TotalWatchSecondsDelta),
	}
	span.SetAttributes(
		attribute.String("lesson.id", lessonID.String()),
		attribute.Float64("progress.percent", report.PercentWatched),
		attribute.Int("progress.delta_seconds", report.TotalWatchSecondsDelta),
	)

	res, err := s.repo.Merge(dbctx.Context{Ctx: ctx, Tx: dbc.Tx}, report, s.now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "merge failed")
		s.metrics.ObserveProgressUpsert("error", false, time.Since(start))
		if dberr.IsForeignKeyViolation(err) {
			return nil, apierr.New(http.StatusBadRequest, "unknown_lesson", fmt.Errorf("lesson %s does not exist", lessonID))
		}
		s.log.Error("progress merge failed", "user_id", rd.UserID, "lesson_id", lessonID, "error", err)
		return nil, apierr.New(http.StatusInternalServerError, "progress_upsert_failed", err)
	}

	outcome := "incomplete"
	if res.Completed {
		outcome = "completed"
	}
	span.SetAttributes(
		attribute.Bool("progress.completed", res.Completed),
		attribute.Bool("progress.newly_completed", res.NewlyCompleted),
		attribute.Int("progress.watch_count", res.WatchCount),
	)
	s.metrics.ObserveProgressUpsert(outcome, res.NewlyCompleted, time.Since(start))

	if res.NewlyCompleted {
		s.publishCompletion(dbc, rd.UserID, lessonID, res.PercentWatched)
	}
	return &ProgressResult{Completed: res.Completed}, nil
}

// publishCompletion never fails the report; the merge has already committed.
func (s *progressService) publishCompletion(dbc dbctx.Context, userID, lessonID uuid.UUID, percent float64) {
	if s.notify == nil {
		return
	}
	msg := realtime.Message{
		Event:     realtime.EventLessonCompleted,
		UserID:    userID,
		LessonID:  lessonID,
		Percent:   percent,
		Timestamp: s.now().UTC(),
	}
	if err := s.notify.Publish(dbc.Ctx, msg); err != nil {
		s.metrics.IncNotifyFailure()
		s.log.Warn("completion notify failed", "user_id", userID, "lesson_id", lessonID, "error", err)
	}
}

func (s *progressService) ListForUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.LessonProgress, error) {
	if userID == uuid.Nil {
		return nil, apierr.BadRequest("invalid_user_id", "invalid user id")
	}
	rows, err := s.repo.ListByUser(dbc, userID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "progress_list_failed", err)
	}
	return rows, nil
}

func (s *progressService) ListMine(dbc dbctx.Context) ([]*types.LessonProgress, error) {
	rd, err := requireUser(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	return s.ListForUser(dbc, rd.UserID)
}

func (s *progressService) ForLesson(dbc dbctx.Context, lessonID string) (*types.LessonProgress, error) {
	rd, err := requireUser(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseRequiredUUID(lessonID, "missing_lesson_id", "lesson_id")
	if err != nil {
		return nil, err
	}
	row, err := s.repo.GetByUserAndLesson(dbc, rd.UserID, id)
	switch {
	case err == nil:
		return row, nil
	case dberr.IsNotFound(err):
		return &types.LessonProgress{UserID: rd.UserID, LessonID: id}, nil
	default:
		return nil, apierr.New(http.StatusInternalServerError, "progress_lookup_failed", err)
	}
}
