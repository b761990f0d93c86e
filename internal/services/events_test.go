package services

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/yungbote/coursetrack-backend/internal/data/repos/testutil"
	types "github.com/yungbote/coursetrack-backend/internal/domain"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
)

func TestEventBatch_AppendsAndCreditsHeartbeats(t *testing.T) {
	f := newSvcFixture(t)
	ctx := context.Background()
	sess := testutil.SeedSession(t, ctx, f.db, f.user.ID, f.lesson.ID)
	svc := NewEventService(f.db, testutil.Logger(t), f.events, f.sessions, nil)

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	in := EventBatchInput{
		SessionID: sess.ID.String(),
		LessonID:  f.lesson.ID.String(),
		Events: []EventInput{
			{EventType: types.EventVideoProgressHeartbeat, EventPayload: json.RawMessage(`{"position":10,"percent":2.7}`), ClientTS: ptr(base.Add(10 * time.Second))},
			{EventType: types.EventClick, ClientTS: ptr(base.Add(2 * time.Second))},
			{EventType: types.EventVideoProgressHeartbeat, ClientTS: ptr(base.Add(15 * time.Second))},
			{EventType: types.EventVideoProgressHeartbeat, ClientTS: ptr(base.Add(20 * time.Second))},
		},
	}
	n, err := svc.Batch(asUser(f.user), in)
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	if n != 4 {
		t.Fatalf("count: want=4 got=%d", n)
	}

	row, err := f.sessions.GetByID(dbctx.New(ctx), sess.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if row.TotalActiveSeconds != 15 {
		t.Fatalf("active seconds: want=15 got=%d", row.TotalActiveSeconds)
	}

	logged, err := svc.ListForSession(dbctx.New(ctx), sess.ID)
	if err != nil {
		t.Fatalf("ListForSession: %v", err)
	}
	if len(logged) != 4 {
		t.Fatalf("logged: want=4 got=%d", len(logged))
	}
	if logged[0].EventType != types.EventClick {
		t.Fatalf("replay order: want click first got=%s", logged[0].EventType)
	}
	for _, e := range logged {
		if e.UserID != f.user.ID || e.LessonID != f.lesson.ID || e.ServerTS.IsZero() {
			t.Fatalf("attribution: got=%+v", e)
		}
	}
	if string(logged[0].EventPayload) != "{}" {
		t.Fatalf("empty payload: want={} got=%s", logged[0].EventPayload)
	}
}

func TestEventBatch_UnknownTypeRejectsBatch(t *testing.T) {
	f := newSvcFixture(t)
	ctx := context.Background()
	sess := testutil.SeedSession(t, ctx, f.db, f.user.ID, f.lesson.ID)
	svc := NewEventService(f.db, testutil.Logger(t), f.events, f.sessions, nil)

	_, err := svc.Batch(asUser(f.user), EventBatchInput{
		SessionID: sess.ID.String(),
		LessonID:  f.lesson.ID.String(),
		Events: []EventInput{
			{EventType: types.EventVideoProgressHeartbeat},
			{EventType: "video_rewind"},
		},
	})
	wantAPIError(t, err, http.StatusBadRequest, "invalid_event_type")

	logged, _ := f.events.ListBySession(dbctx.New(ctx), sess.ID)
	if len(logged) != 0 {
		t.Fatalf("logged: want=0 got=%d", len(logged))
	}
	row, _ := f.sessions.GetByID(dbctx.New(ctx), sess.ID)
	if row.TotalActiveSeconds != 0 {
		t.Fatalf("active seconds: want=0 got=%d", row.TotalActiveSeconds)
	}
}

func TestEventBatch_RequiresSessionAndLesson(t *testing.T) {
	f := newSvcFixture(t)
	svc := NewEventService(f.db, testutil.Logger(t), f.events, f.sessions, nil)

	_, err := svc.Batch(asUser(f.user), EventBatchInput{LessonID: f.lesson.ID.String(), Events: []EventInput{{EventType: types.EventClick}}})
	wantAPIError(t, err, http.StatusBadRequest, "missing_session_id")

	_, err = svc.Batch(asUser(f.user), EventBatchInput{SessionID: f.lesson.ID.String(), Events: []EventInput{{EventType: types.EventClick}}})
	wantAPIError(t, err, http.StatusBadRequest, "missing_lesson_id")
}

func TestEventBatch_EmptyIsNoop(t *testing.T) {
	f := newSvcFixture(t)
	sess := testutil.SeedSession(t, context.Background(), f.db, f.user.ID, f.lesson.ID)
	svc := NewEventService(f.db, testutil.Logger(t), f.events, f.sessions, nil)
	n, err := svc.Batch(asUser(f.user), EventBatchInput{SessionID: sess.ID.String(), LessonID: f.lesson.ID.String()})
	if err != nil || n != 0 {
		t.Fatalf("empty batch: want 0,nil got=%d,%v", n, err)
	}
}
