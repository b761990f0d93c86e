package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/coursetrack-backend/internal/data/repos"
	"github.com/yungbote/coursetrack-backend/internal/data/repos/testutil"
	types "github.com/yungbote/coursetrack-backend/internal/domain"
	"github.com/yungbote/coursetrack-backend/internal/platform/apierr"
	"github.com/yungbote/coursetrack-backend/internal/platform/ctxutil"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
)

type svcFixture struct {
	db       *gorm.DB
	user     *types.User
	lesson   *types.Lesson
	progress repos.LessonProgressRepo
	sessions repos.LearningSessionRepo
	events   repos.EventLogRepo
}

func newSvcFixture(t *testing.T) svcFixture {
	t.Helper()
	db := testutil.DB(t)
	ctx := context.Background()
	log := testutil.Logger(t)
	u := testutil.SeedUser(t, ctx, db, "general")
	c := testutil.SeedCourse(t, ctx, db, "course", 0)
	s := testutil.SeedSection(t, ctx, db, c.ID, nil, "section", 0)
	l := testutil.SeedLesson(t, ctx, db, s.ID, "lesson", 0)
	return svcFixture{
		db:       db,
		user:     u,
		lesson:   l,
		progress: repos.NewLessonProgressRepo(db, log),
		sessions: repos.NewLearningSessionRepo(db, log),
		events:   repos.NewEventLogRepo(db, log),
	}
}

func asUser(u *types.User) dbctx.Context {
	return dbctx.New(ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{
		UserID:      u.ID,
		Role:        u.Role,
		LearnerType: u.LearnerType,
	}))
}

func asUserID(id uuid.UUID, learnerType string) dbctx.Context {
	return dbctx.New(ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{
		UserID:      id,
		Role:        ctxutil.RoleLearner,
		LearnerType: learnerType,
	}))
}

func ptr[T any](v T) *T { return &v }

func wantAPIError(t *testing.T, err error, status int, code string) {
	t.Helper()
	var ae *apierr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("error: want *apierr.Error got=%T (%v)", err, err)
	}
	if ae.Status != status || ae.Code != code {
		t.Fatalf("api error: want=%d/%s got=%d/%s", status, code, ae.Status, ae.Code)
	}
}
