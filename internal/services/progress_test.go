package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/coursetrack-backend/internal/data/repos/testutil"
	"github.com/yungbote/coursetrack-backend/internal/observability"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
	"github.com/yungbote/coursetrack-backend/internal/realtime"
	"github.com/yungbote/coursetrack-backend/internal/realtime/bus"
)

func TestProgressUpsert_Validation(t *testing.T) {
	f := newSvcFixture(t)
	svc := NewProgressService(testutil.Logger(t), f.progress, nil, nil)

	_, err := svc.Upsert(dbctx.New(context.Background()), ProgressInput{LessonID: f.lesson.ID.String()})
	wantAPIError(t, err, http.StatusUnauthorized, "unauthorized")

	_, err = svc.Upsert(asUser(f.user), ProgressInput{PercentWatched: ptr(50.0)})
	wantAPIError(t, err, http.StatusBadRequest, "missing_lesson_id")

	_, err = svc.Upsert(asUser(f.user), ProgressInput{LessonID: "lesson-42"})
	wantAPIError(t, err, http.StatusBadRequest, "missing_lesson_id")
}

func TestProgressUpsert_EndToEnd(t *testing.T) {
	f := newSvcFixture(t)
	m := observability.New()
	notify := bus.NewMemoryBus()
	defer notify.Close()

	got := make(chan realtime.Message, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := notify.Subscribe(ctx, func(msg realtime.Message) { got <- msg }); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	svc := NewProgressService(testutil.Logger(t), f.progress, notify, m).(*progressService)
	first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	second := first.Add(5 * time.Second)

	svc.now = func() time.Time { return first }
	res, err := svc.Upsert(asUser(f.user), ProgressInput{
		LessonID:               f.lesson.ID.String(),
		PercentWatched:         ptr(30.0),
		LastPositionSeconds:    ptr(90.0),
		TotalWatchSecondsDelta: ptr(5.0),
	})
	if err != nil {
		t.Fatalf("Upsert #1: %v", err)
	}
	if res.Completed {
		t.Fatalf("completed after 30%%: want=false got=true")
	}

	svc.now = func() time.Time { return second }
	res, err = svc.Upsert(asUser(f.user), ProgressInput{
		LessonID:               f.lesson.ID.String(),
		PercentWatched:         ptr(85.0),
		LastPositionSeconds:    ptr(310.0),
		TotalWatchSecondsDelta: ptr(5.0),
	})
	if err != nil {
		t.Fatalf("Upsert #2: %v", err)
	}
	if !res.Completed {
		t.Fatalf("completed after 85%%: want=true got=false")
	}

	row, err := f.progress.GetByUserAndLesson(dbctx.New(context.Background()), f.user.ID, f.lesson.ID)
	if err != nil {
		t.Fatalf("GetByUserAndLesson: %v", err)
	}
	if row.PercentWatched != 85 || row.LastPositionSeconds != 310 || row.TotalWatchSeconds != 10 || !row.Completed {
		t.Fatalf("row: got percent=%v pos=%v total=%v completed=%v", row.PercentWatched, row.LastPositionSeconds, row.TotalWatchSeconds, row.Completed)
	}
	if row.CompletedAt == nil || !row.CompletedAt.Equal(second) {
		t.Fatalf("completed_at: want=%v got=%v", second, row.CompletedAt)
	}

	select {
	case msg := <-got:
		if msg.Event != realtime.EventLessonCompleted || msg.UserID != f.user.ID || msg.LessonID != f.lesson.ID {
			t.Fatalf("notification: got=%+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected completion notification")
	}

	// A later report below the threshold keeps the lesson complete and does not notify again.
	svc.now = func() time.Time { return second.Add(5 * time.Second) }
	res, err = svc.Upsert(asUser(f.user), ProgressInput{LessonID: f.lesson.ID.String(), PercentWatched: ptr(40.0)})
	if err != nil {
		t.Fatalf("Upsert #3: %v", err)
	}
	if !res.Completed {
		t.Fatalf("completed after regression: want=true got=false")
	}
	select {
	case msg := <-got:
		t.Fatalf("unexpected second notification: %+v", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestProgressUpsert_MissingFieldsDefaultToZero(t *testing.T) {
	f := newSvcFixture(t)
	svc := NewProgressService(testutil.Logger(t), f.progress, nil, nil)
	if _, err := svc.Upsert(asUser(f.user), ProgressInput{LessonID: f.lesson.ID.String()}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	row, err := f.progress.GetByUserAndLesson(dbctx.New(context.Background()), f.user.ID, f.lesson.ID)
	if err != nil {
		t.Fatalf("GetByUserAndLesson: %v", err)
	}
	if row.PercentWatched != 0 || row.TotalWatchSeconds != 0 || row.Completed {
		t.Fatalf("row: got percent=%v total=%v completed=%v", row.PercentWatched, row.TotalWatchSeconds, row.Completed)
	}
}

func TestProgressUpsert_AcceptsOutOfRangePercent(t *testing.T) {
	f := newSvcFixture(t)
	svc := NewProgressService(testutil.Logger(t), f.progress, nil, nil)
	res, err := svc.Upsert(asUser(f.user), ProgressInput{LessonID: f.lesson.ID.String(), PercentWatched: ptr(140.0)})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if !res.Completed {
		t.Fatalf("completed: want=true got=false")
	}
	rows, err := svc.ListMine(asUser(f.user))
	if err != nil {
		t.Fatalf("ListMine: %v", err)
	}
	if len(rows) != 1 || rows[0].PercentWatched != 140 {
		t.Fatalf("ListMine: want one row at 140 got=%+v", rows)
	}
}

func TestProgressListForUser_RejectsNil(t *testing.T) {
	f := newSvcFixture(t)
	svc := NewProgressService(testutil.Logger(t), f.progress, nil, nil)
	_, err := svc.ListForUser(dbctx.New(context.Background()), uuid.Nil)
	wantAPIError(t, err, http.StatusBadRequest, "invalid_user_id")
}

func TestProgressForLesson_ResumesOrDefaults(t *testing.T) {
	f := newSvcFixture(t)
	svc := NewProgressService(testutil.Logger(t), f.progress, nil, nil)

	row, err := svc.ForLesson(asUser(f.user), f.lesson.ID.String())
	if err != nil {
		t.Fatalf("ForLesson before any report: %v", err)
	}
	if row.LessonID != f.lesson.ID || row.PercentWatched != 0 || row.Completed {
		t.Fatalf("empty row: got=%+v", row)
	}

	if _, err := svc.Upsert(asUser(f.user), ProgressInput{
		LessonID:            f.lesson.ID.String(),
		PercentWatched:      ptr(42.0),
		LastPositionSeconds: ptr(126.0),
	}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	row, err = svc.ForLesson(asUser(f.user), f.lesson.ID.String())
	if err != nil {
		t.Fatalf("ForLesson: %v", err)
	}
	if row.LastPositionSeconds != 126 || row.PercentWatched != 42 {
		t.Fatalf("resume: want pos=126 percent=42 got pos=%v percent=%v", row.LastPositionSeconds, row.PercentWatched)
	}

	_, err = svc.ForLesson(asUser(f.user), "nope")
	wantAPIError(t, err, http.StatusBadRequest, "missing_lesson_id")
}
