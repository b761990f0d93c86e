package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/coursetrack-backend/internal/data/repos/testutil"
	types "github.com/yungbote/coursetrack-backend/internal/domain"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
)

func TestAnalytics_ActiveSessionsNeverTimeOut(t *testing.T) {
	f := newSvcFixture(t)
	ctx := context.Background()
	open := testutil.SeedSession(t, ctx, f.db, f.user.ID, f.lesson.ID)
	closed := testutil.SeedSession(t, ctx, f.db, f.user.ID, f.lesson.ID)
	if _, err := f.sessions.Close(dbctx.New(ctx), closed.ID, f.user.ID, 10, 0, time.Now()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	svc := NewAnalyticsService(testutil.Logger(t), f.progress, f.sessions, f.events).(*analyticsService)
	svc.now = func() time.Time { return open.SessionStartedAt.Add(72 * time.Hour) }

	rows, err := svc.ActiveSessions(dbctx.New(ctx), &f.lesson.ID, 0)
	if err != nil {
		t.Fatalf("ActiveSessions: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != open.ID {
		t.Fatalf("active: want only the open session got=%d", len(rows))
	}
	if d := rows[0].ElapsedSeconds - 72*3600; d < -1 || d > 1 {
		t.Fatalf("elapsed: want~=%d got=%d", 72*3600, rows[0].ElapsedSeconds)
	}

	other := uuid.New()
	rows, err = svc.ActiveSessions(dbctx.New(ctx), &other, 10)
	if err != nil || len(rows) != 0 {
		t.Fatalf("other lesson: want none got=%d err=%v", len(rows), err)
	}
}

func TestAnalytics_LessonStatsAndReplay(t *testing.T) {
	f := newSvcFixture(t)
	ctx := context.Background()
	sess := testutil.SeedSession(t, ctx, f.db, f.user.ID, f.lesson.ID)

	events := NewEventService(f.db, testutil.Logger(t), f.events, f.sessions, nil)
	if _, err := events.Batch(asUser(f.user), EventBatchInput{
		SessionID: sess.ID.String(),
		LessonID:  f.lesson.ID.String(),
		Events: []EventInput{
			{EventType: types.EventPageView},
			{EventType: types.EventVideoProgressHeartbeat},
			{EventType: types.EventVideoProgressHeartbeat},
		},
	}); err != nil {
		t.Fatalf("Batch: %v", err)
	}
	progress := NewProgressService(testutil.Logger(t), f.progress, nil, nil)
	if _, err := progress.Upsert(asUser(f.user), ProgressInput{
		LessonID:               f.lesson.ID.String(),
		PercentWatched:         ptr(90.0),
		TotalWatchSecondsDelta: ptr(10.0),
	}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	svc := NewAnalyticsService(testutil.Logger(t), f.progress, f.sessions, f.events)
	st, err := svc.LessonStats(dbctx.New(ctx), f.lesson.ID)
	if err != nil {
		t.Fatalf("LessonStats: %v", err)
	}
	if st.Learners != 1 || st.Completed != 1 || st.TotalWatchSeconds != 10 {
		t.Fatalf("stats: got=%+v", st)
	}

	replay, err := svc.SessionReplay(dbctx.New(ctx), sess.ID)
	if err != nil {
		t.Fatalf("SessionReplay: %v", err)
	}
	if len(replay.Events) != 3 || replay.Counts[types.EventVideoProgressHeartbeat] != 2 {
		t.Fatalf("replay: events=%d counts=%v", len(replay.Events), replay.Counts)
	}
	if replay.Session.TotalActiveSeconds != 10 {
		t.Fatalf("session active: want=10 got=%d", replay.Session.TotalActiveSeconds)
	}

	_, err = svc.SessionReplay(dbctx.New(ctx), uuid.New())
	wantAPIError(t, err, http.StatusNotFound, "session_not_found")
}

func TestAnalytics_UserSessionsNewestFirst(t *testing.T) {
	f := newSvcFixture(t)
	ctx := context.Background()
	older := testutil.SeedSession(t, ctx, f.db, f.user.ID, f.lesson.ID)
	newer := testutil.SeedSession(t, ctx, f.db, f.user.ID, f.lesson.ID)
	if err := f.db.Model(&types.LearningSession{}).Where("id = ?", older.ID).
		Update("session_started_at", newer.SessionStartedAt.Add(-time.Hour)).Error; err != nil {
		t.Fatalf("backdate: %v", err)
	}

	svc := NewAnalyticsService(testutil.Logger(t), f.progress, f.sessions, f.events)
	rows, err := svc.UserSessions(dbctx.New(ctx), f.user.ID, 0)
	if err != nil {
		t.Fatalf("UserSessions: %v", err)
	}
	if len(rows) != 2 || rows[0].ID != newer.ID || rows[1].ID != older.ID {
		t.Fatalf("order: want newer,older got=%d rows", len(rows))
	}
	if rows, _ := svc.UserSessions(dbctx.New(ctx), f.user.ID, 1); len(rows) != 1 {
		t.Fatalf("limit: want=1 got=%d", len(rows))
	}
	if rows, _ := svc.UserSessions(dbctx.New(ctx), uuid.New(), 0); len(rows) != 0 {
		t.Fatalf("other user: want none got=%d", len(rows))
	}

	_, err = svc.UserSessions(dbctx.New(ctx), uuid.Nil, 0)
	wantAPIError(t, err, http.StatusBadRequest, "invalid_user_id")
}
