package learning

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/coursetrack-backend/internal/domain"
	"github.com/yungbote/coursetrack-backend/internal/data/repos/testutil"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
)

type progressFixture struct {
	db     *gorm.DB
	repo   LessonProgressRepo
	userID uuid.UUID
	lesson *types.Lesson
}

func newProgressFixture(t *testing.T) progressFixture {
	t.Helper()
	db := testutil.DB(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, db, "general")
	c := testutil.SeedCourse(t, ctx, db, "course", 0)
	s := testutil.SeedSection(t, ctx, db, c.ID, nil, "section", 0)
	l := testutil.SeedLesson(t, ctx, db, s.ID, "lesson", 0)
	return progressFixture{
		db:     db,
		repo:   NewLessonProgressRepo(db, testutil.Logger(t)),
		userID: u.ID,
		lesson: l,
	}
}

func (f progressFixture) merge(t *testing.T, percent, position float64, delta int, now time.Time) *types.ProgressMergeResult {
	t.Helper()
	res, err := f.repo.Merge(dbctx.New(context.Background()), types.ProgressReport{
		UserID:                 f.userID,
		LessonID:               f.lesson.ID,
		PercentWatched:         percent,
		LastPositionSeconds:    position,
		TotalWatchSecondsDelta: delta,
	}, now)
	if err != nil {
		t.Fatalf("Merge(%v): %v", percent, err)
	}
	return res
}

func (f progressFixture) stored(t *testing.T) *types.LessonProgress {
	t.Helper()
	row, err := f.repo.GetByUserAndLesson(dbctx.New(context.Background()), f.userID, f.lesson.ID)
	if err != nil {
		t.Fatalf("GetByUserAndLesson: %v", err)
	}
	return row
}

func TestLessonProgressMergeEndToEnd(t *testing.T) {
	f := newProgressFixture(t)
	first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	second := first.Add(4 * time.Minute)

	res := f.merge(t, 30, 90, 5, first)
	if res.Completed || res.NewlyCompleted {
		t.Fatalf("first report: want incomplete got=%+v", res)
	}
	res = f.merge(t, 85, 310, 5, second)
	if !res.Completed || !res.NewlyCompleted {
		t.Fatalf("second report: want newly completed got=%+v", res)
	}

	row := f.stored(t)
	if row.PercentWatched != 85 {
		t.Fatalf("percent_watched: want=85 got=%v", row.PercentWatched)
	}
	if row.LastPositionSeconds != 310 {
		t.Fatalf("last_position_seconds: want=310 got=%v", row.LastPositionSeconds)
	}
	if row.TotalWatchSeconds != 10 {
		t.Fatalf("total_watch_seconds: want=10 got=%d", row.TotalWatchSeconds)
	}
	if !row.Completed {
		t.Fatalf("completed: want=true got=false")
	}
	if row.CompletedAt == nil || !row.CompletedAt.Equal(second) {
		t.Fatalf("completed_at: want=%v got=%v", second, row.CompletedAt)
	}
}

func TestLessonProgressMergeKeepsMaxPercentAndLatestPosition(t *testing.T) {
	f := newProgressFixture(t)
	now := time.Now().UTC()

	f.merge(t, 60, 200, 5, now)
	f.merge(t, 40, 120, 5, now.Add(time.Second))

	row := f.stored(t)
	if row.PercentWatched != 60 {
		t.Fatalf("percent_watched: want=60 got=%v", row.PercentWatched)
	}
	if row.LastPositionSeconds != 120 {
		t.Fatalf("last_position_seconds: want=120 got=%v", row.LastPositionSeconds)
	}
}

func TestLessonProgressCompletionThreshold(t *testing.T) {
	cases := []struct {
		percent float64
		want    bool
	}{
		{79, false},
		{79.99, false},
		{80, true},
		{100, true},
	}
	for _, tc := range cases {
		f := newProgressFixture(t)
		res := f.merge(t, tc.percent, 0, 0, time.Now().UTC())
		if res.Completed != tc.want {
			t.Fatalf("percent=%v: completed want=%v got=%v", tc.percent, tc.want, res.Completed)
		}
	}
}

func TestLessonProgressCompletionIsOneWay(t *testing.T) {
	f := newProgressFixture(t)
	start := time.Now().UTC().Truncate(time.Millisecond)

	f.merge(t, 90, 300, 5, start)
	completedAt := f.stored(t).CompletedAt

	res := f.merge(t, 10, 20, 5, start.Add(time.Minute))
	if !res.Completed {
		t.Fatalf("completed: want=true after lower report")
	}
	if res.NewlyCompleted {
		t.Fatalf("newly_completed: want=false on already completed row")
	}
	res = f.merge(t, 95, 340, 5, start.Add(2*time.Minute))
	if res.NewlyCompleted {
		t.Fatalf("newly_completed: want=false on second crossing")
	}
	row := f.stored(t)
	if row.CompletedAt == nil || !row.CompletedAt.Equal(*completedAt) {
		t.Fatalf("completed_at: want first-wins %v got=%v", completedAt, row.CompletedAt)
	}
}

func TestLessonProgressRewatchCounting(t *testing.T) {
	cases := []struct {
		name     string
		prior    float64
		incoming float64
		want     int
	}{
		{"finished then restarted", 95, 15, 1},
		{"half watched then seek back", 50, 15, 0},
		{"prior exactly at gate", 80, 10, 0},
		{"incoming exactly at gate", 85, 20, 1},
		{"incoming above gate", 85, 21, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newProgressFixture(t)
			now := time.Now().UTC()
			f.merge(t, tc.prior, 0, 0, now)
			res := f.merge(t, tc.incoming, 0, 0, now.Add(time.Second))
			if res.WatchCount != tc.want {
				t.Fatalf("watch_count: want=%d got=%d", tc.want, res.WatchCount)
			}
		})
	}
}

func TestLessonProgressMergeIsOrderIndependent(t *testing.T) {
	f := newProgressFixture(t)
	percents := []float64{12, 47.5, 3, 81, 66, 25, 79}
	rng := rand.New(rand.NewSource(7))
	rng.Shuffle(len(percents), func(i, j int) { percents[i], percents[j] = percents[j], percents[i] })

	var wg sync.WaitGroup
	errs := make(chan error, len(percents))
	for i, p := range percents {
		wg.Add(1)
		go func(i int, p float64) {
			defer wg.Done()
			_, err := f.repo.Merge(dbctx.New(context.Background()), types.ProgressReport{
				UserID:                 f.userID,
				LessonID:               f.lesson.ID,
				PercentWatched:         p,
				LastPositionSeconds:    float64(i),
				TotalWatchSecondsDelta: 5,
			}, time.Now().UTC())
			errs <- err
		}(i, p)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent Merge: %v", err)
		}
	}

	var count int64
	if err := f.db.Model(&types.LessonProgress{}).
		Where("user_id = ? AND lesson_id = ?", f.userID, f.lesson.ID).
		Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("rows: want=1 got=%d", count)
	}
	row := f.stored(t)
	if row.PercentWatched != 81 {
		t.Fatalf("percent_watched: want=81 got=%v", row.PercentWatched)
	}
	if row.TotalWatchSeconds != 5*len(percents) {
		t.Fatalf("total_watch_seconds: want=%d got=%d", 5*len(percents), row.TotalWatchSeconds)
	}
	if !row.Completed {
		t.Fatalf("completed: want=true")
	}
}

func TestLessonProgressStatsByLesson(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()
	other := testutil.SeedUser(t, ctx, f.db, "general")

	now := time.Now().UTC()
	f.merge(t, 95, 300, 30, now)
	f.merge(t, 10, 30, 5, now.Add(time.Second))
	if _, err := f.repo.Merge(dbctx.New(ctx), types.ProgressReport{
		UserID:                 other.ID,
		LessonID:               f.lesson.ID,
		PercentWatched:         40,
		TotalWatchSecondsDelta: 15,
	}, now); err != nil {
		t.Fatalf("Merge other: %v", err)
	}

	stats, err := f.repo.StatsByLesson(dbctx.New(ctx), f.lesson.ID)
	if err != nil {
		t.Fatalf("StatsByLesson: %v", err)
	}
	if stats.Learners != 2 || stats.Completed != 1 {
		t.Fatalf("learners/completed: want=2/1 got=%d/%d", stats.Learners, stats.Completed)
	}
	if stats.TotalWatchSeconds != 50 {
		t.Fatalf("total_watch_seconds: want=50 got=%d", stats.TotalWatchSeconds)
	}
	if stats.Rewatches != 1 {
		t.Fatalf("rewatches: want=1 got=%d", stats.Rewatches)
	}
	if stats.AvgPercentWatched != 67.5 {
		t.Fatalf("avg_percent_watched: want=67.5 got=%v", stats.AvgPercentWatched)
	}
}

func TestLessonProgressMergeRequiresIDs(t *testing.T) {
	f := newProgressFixture(t)
	_, err := f.repo.Merge(dbctx.New(context.Background()), types.ProgressReport{UserID: f.userID}, time.Now())
	if err == nil {
		t.Fatalf("Merge without lesson: want error")
	}
}
