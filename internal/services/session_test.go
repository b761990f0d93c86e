package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/yungbote/coursetrack-backend/internal/data/repos/testutil"
	"github.com/yungbote/coursetrack-backend/internal/observability"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
)

func TestSessionStartEnd(t *testing.T) {
	f := newSvcFixture(t)
	svc := NewSessionService(testutil.Logger(t), f.sessions, observability.New()).(*sessionService)
	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return started }

	sess, err := svc.Start(asUser(f.user), SessionStartInput{LessonID: f.lesson.ID.String()})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !sess.IsOpen() || sess.TotalActiveSeconds != 0 || sess.TotalIdleSeconds != 0 {
		t.Fatalf("new session: got=%+v", sess)
	}
	if !sess.SessionStartedAt.Equal(started) {
		t.Fatalf("started_at: want=%v got=%v", started, sess.SessionStartedAt)
	}

	ended := started.Add(10 * time.Minute)
	svc.now = func() time.Time { return ended }
	ok, err := svc.End(asUser(f.user), sess.ID.String(), SessionEndInput{
		TotalActiveSeconds: ptr(420.0),
		TotalIdleSeconds:   ptr(180.0),
	})
	if err != nil || !ok {
		t.Fatalf("End: ok=%v err=%v", ok, err)
	}
	row, err := f.sessions.GetByID(dbctx.New(context.Background()), sess.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if row.SessionEndedAt == nil || !row.SessionEndedAt.Equal(ended) {
		t.Fatalf("ended_at: want=%v got=%v", ended, row.SessionEndedAt)
	}
	if row.TotalActiveSeconds != 420 || row.TotalIdleSeconds != 180 {
		t.Fatalf("counters: want=420/180 got=%d/%d", row.TotalActiveSeconds, row.TotalIdleSeconds)
	}
}

func TestSessionEnd_OtherUserIsSilentNoop(t *testing.T) {
	f := newSvcFixture(t)
	other := testutil.SeedUser(t, context.Background(), f.db, "general")
	svc := NewSessionService(testutil.Logger(t), f.sessions, nil)

	sess, err := svc.Start(asUser(f.user), SessionStartInput{LessonID: f.lesson.ID.String()})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	ok, err := svc.End(asUser(other), sess.ID.String(), SessionEndInput{TotalActiveSeconds: ptr(5.0)})
	if err != nil {
		t.Fatalf("End by other user: want nil error got=%v", err)
	}
	if ok {
		t.Fatalf("End by other user: want ok=false")
	}
	row, err := f.sessions.GetByID(dbctx.New(context.Background()), sess.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if row.SessionEndedAt != nil || row.TotalActiveSeconds != 0 {
		t.Fatalf("session changed: ended_at=%v active=%d", row.SessionEndedAt, row.TotalActiveSeconds)
	}
}

func TestSessionEnd_KeepsNegativeIdle(t *testing.T) {
	f := newSvcFixture(t)
	svc := NewSessionService(testutil.Logger(t), f.sessions, nil)
	sess, err := svc.Start(asUser(f.user), SessionStartInput{LessonID: f.lesson.ID.String()})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := svc.End(asUser(f.user), sess.ID.String(), SessionEndInput{
		TotalActiveSeconds: ptr(65.0),
		TotalIdleSeconds:   ptr(-3.0),
	}); err != nil {
		t.Fatalf("End: %v", err)
	}
	row, _ := f.sessions.GetByID(dbctx.New(context.Background()), sess.ID)
	if row.TotalIdleSeconds != -3 {
		t.Fatalf("idle: want=-3 got=%d", row.TotalIdleSeconds)
	}
}

func TestSessionValidation(t *testing.T) {
	f := newSvcFixture(t)
	svc := NewSessionService(testutil.Logger(t), f.sessions, nil)

	_, err := svc.Start(asUser(f.user), SessionStartInput{})
	wantAPIError(t, err, http.StatusBadRequest, "missing_lesson_id")

	_, err = svc.End(asUser(f.user), "not-a-uuid", SessionEndInput{})
	wantAPIError(t, err, http.StatusBadRequest, "invalid_session_id")

	_, err = svc.Start(dbctx.New(context.Background()), SessionStartInput{LessonID: f.lesson.ID.String()})
	wantAPIError(t, err, http.StatusUnauthorized, "unauthorized")
}
