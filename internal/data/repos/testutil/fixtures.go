package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/coursetrack-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, learnerType string) *types.User {
	tb.Helper()
	now := time.Now().UTC()
	id := uuid.New()
	u := &types.User{
		ID:          id,
		Email:       id.String() + "@example.test",
		Name:        "Learner",
		Role:        "learner",
		LearnerType: learnerType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

type CourseOpt func(*types.Course)

func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, title string, sortOrder int, opts ...CourseOpt) *types.Course {
	tb.Helper()
	now := time.Now().UTC()
	c := &types.Course{
		ID:        uuid.New(),
		Title:     title,
		IsActive:  true,
		SortOrder: sortOrder,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

func InactiveCourse() CourseOpt { return func(c *types.Course) { c.IsActive = false } }

func SeedSection(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uuid.UUID, parentID *uuid.UUID, title string, sortOrder int) *types.Section {
	tb.Helper()
	now := time.Now().UTC()
	s := &types.Section{
		ID:              uuid.New(),
		CourseID:        courseID,
		ParentSectionID: parentID,
		Title:           title,
		SortOrder:       sortOrder,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed section: %v", err)
	}
	return s
}

type LessonOpt func(*types.Lesson)

func InactiveLesson() LessonOpt { return func(l *types.Lesson) { l.IsActive = false } }

func WithVideoObjectKey(key string) LessonOpt {
	return func(l *types.Lesson) { l.VideoObjectKey = key }
}

func SeedLesson(tb testing.TB, ctx context.Context, tx *gorm.DB, sectionID uuid.UUID, title string, sortOrder int, opts ...LessonOpt) *types.Lesson {
	tb.Helper()
	now := time.Now().UTC()
	l := &types.Lesson{
		ID:              uuid.New(),
		SectionID:       sectionID,
		Title:           title,
		VideoURL:        "https://cdn.example.test/" + title + ".mp4",
		DurationSeconds: 360,
		IsActive:        true,
		SortOrder:       sortOrder,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed lesson: %v", err)
	}
	return l
}

func Assign(tb testing.TB, ctx context.Context, tx *gorm.DB, learnerType string, lessons ...*types.Lesson) {
	tb.Helper()
	for _, l := range lessons {
		row := &types.CurriculumAssignment{
			ID:          uuid.New(),
			LearnerType: learnerType,
			LessonID:    l.ID,
			CreatedAt:   time.Now().UTC(),
		}
		if err := tx.WithContext(ctx).Create(row).Error; err != nil {
			tb.Fatalf("assign lesson: %v", err)
		}
	}
}

func SeedSession(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, lessonID uuid.UUID) *types.LearningSession {
	tb.Helper()
	now := time.Now().UTC()
	s := &types.LearningSession{
		ID:               uuid.New(),
		UserID:           userID,
		LessonID:         lessonID,
		SessionStartedAt: now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed session: %v", err)
	}
	return s
}
