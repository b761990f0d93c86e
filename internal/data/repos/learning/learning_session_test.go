package learning

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/coursetrack-backend/internal/data/repos/testutil"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
)

func TestLearningSessionCloseIsScopedToOwner(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	owner := testutil.SeedUser(t, ctx, db, "general")
	intruder := testutil.SeedUser(t, ctx, db, "general")
	c := testutil.SeedCourse(t, ctx, db, "course", 0)
	s := testutil.SeedSection(t, ctx, db, c.ID, nil, "section", 0)
	l := testutil.SeedLesson(t, ctx, db, s.ID, "lesson", 0)
	sess := testutil.SeedSession(t, ctx, db, owner.ID, l.ID)

	repo := NewLearningSessionRepo(db, testutil.Logger(t))
	dbc := dbctx.New(ctx)

	n, err := repo.Close(dbc, sess.ID, intruder.ID, 100, 20, time.Now())
	if err != nil {
		t.Fatalf("Close (intruder): %v", err)
	}
	if n != 0 {
		t.Fatalf("rows affected: want=0 got=%d", n)
	}
	got, err := repo.GetByID(dbc, sess.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.SessionEndedAt != nil || got.TotalActiveSeconds != 0 {
		t.Fatalf("session changed by non-owner: %+v", got)
	}

	n, err = repo.Close(dbc, sess.ID, owner.ID, 100, -3, time.Now())
	if err != nil {
		t.Fatalf("Close (owner): %v", err)
	}
	if n != 1 {
		t.Fatalf("rows affected: want=1 got=%d", n)
	}
	got, _ = repo.GetByID(dbc, sess.ID)
	if got.SessionEndedAt == nil {
		t.Fatalf("session_ended_at: want set")
	}
	if got.TotalActiveSeconds != 100 || got.TotalIdleSeconds != -3 {
		t.Fatalf("counters: want=100/-3 got=%d/%d", got.TotalActiveSeconds, got.TotalIdleSeconds)
	}
}

func TestLearningSessionAddActiveSecondsAndListOpen(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, db, "general")
	c := testutil.SeedCourse(t, ctx, db, "course", 0)
	s := testutil.SeedSection(t, ctx, db, c.ID, nil, "section", 0)
	l := testutil.SeedLesson(t, ctx, db, s.ID, "lesson", 0)
	open := testutil.SeedSession(t, ctx, db, u.ID, l.ID)
	closed := testutil.SeedSession(t, ctx, db, u.ID, l.ID)

	repo := NewLearningSessionRepo(db, testutil.Logger(t))
	dbc := dbctx.New(ctx)

	if _, err := repo.AddActiveSeconds(dbc, open.ID, u.ID, 15); err != nil {
		t.Fatalf("AddActiveSeconds: %v", err)
	}
	if _, err := repo.AddActiveSeconds(dbc, open.ID, u.ID, 10); err != nil {
		t.Fatalf("AddActiveSeconds: %v", err)
	}
	if n, _ := repo.AddActiveSeconds(dbc, open.ID, uuid.New(), 10); n != 0 {
		t.Fatalf("AddActiveSeconds foreign user: want=0 rows got=%d", n)
	}
	got, _ := repo.GetByID(dbc, open.ID)
	if got.TotalActiveSeconds != 25 {
		t.Fatalf("total_active_seconds: want=25 got=%d", got.TotalActiveSeconds)
	}

	if _, err := repo.Close(dbc, closed.ID, u.ID, 5, 0, time.Now()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	rows, err := repo.ListOpen(dbc, &l.ID, 0)
	if err != nil {
		t.Fatalf("ListOpen: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != open.ID {
		t.Fatalf("ListOpen: want only %s got=%d rows", open.ID, len(rows))
	}
}
