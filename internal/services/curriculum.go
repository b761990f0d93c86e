package services

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/yungbote/coursetrack-backend/internal/data/dberr"
	"github.com/yungbote/coursetrack-backend/internal/data/repos"
	"github.com/yungbote/coursetrack-backend/internal/platform/apierr"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
	"github.com/yungbote/coursetrack-backend/internal/platform/gcp"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
)

type CurriculumLesson struct {
	ID                  uuid.UUID `json:"id"`
	Title               string    `json:"title"`
	VideoURL            string    `json:"video_url"`
	DurationSeconds     int       `json:"duration_seconds"`
	SortOrder           int       `json:"sort_order"`
	PercentWatched      float64   `json:"percent_watched"`
	Completed           bool      `json:"completed"`
	LastPositionSeconds *float64  `json:"last_position_seconds"`
	WatchCount          int       `json:"watch_count"`
}

type CurriculumSection struct {
	ID              uuid.UUID            `json:"id"`
	ParentSectionID *uuid.UUID           `json:"parent_section_id,omitempty"`
	Title           string               `json:"title"`
	SortOrder       int                  `json:"sort_order"`
	Lessons         []*CurriculumLesson  `json:"lessons"`
	Sections        []*CurriculumSection `json:"sections,omitempty"`
}

type CurriculumCourse struct {
	ID          uuid.UUID            `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	SortOrder   int                  `json:"sort_order"`
	Sections    []*CurriculumSection `json:"sections"`
}

type CurriculumService interface {
	// Mine projects the caller's curriculum using the learner type on the token.
	Mine(dbc dbctx.Context) ([]*CurriculumCourse, error)
	ForUser(dbc dbctx.Context, userID uuid.UUID) ([]*CurriculumCourse, error)
}

type curriculumService struct {
	log    *logger.Logger
	repo   repos.CurriculumRepo
	users  repos.UserRepo
	videos gcp.VideoURLResolver
}

func NewCurriculumService(baseLog *logger.Logger, repo repos.CurriculumRepo, users repos.UserRepo, videos gcp.VideoURLResolver) CurriculumService {
	return &curriculumService{
		log:    baseLog.With("service", "CurriculumService"),
		repo:   repo,
		users:  users,
		videos: videos,
	}
}

func (s *curriculumService) Mine(dbc dbctx.Context) ([]*CurriculumCourse, error) {
	rd, err := requireUser(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	if rd.LearnerType == "" {
		return s.ForUser(dbc, rd.UserID)
	}
	return s.project(dbc, rd.LearnerType, rd.UserID)
}

func (s *curriculumService) ForUser(dbc dbctx.Context, userID uuid.UUID) ([]*CurriculumCourse, error) {
	u, err := s.users.GetByID(dbc, userID)
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, apierr.NotFound("user_not_found", "user not found")
		}
		return nil, apierr.New(http.StatusInternalServerError, "curriculum_failed", err)
	}
	return s.project(dbc, u.LearnerType, u.ID)
}

func (s *curriculumService) project(dbc dbctx.Context, learnerType string, userID uuid.UUID) ([]*CurriculumCourse, error) {
	rows, err := s.repo.AssignedLessons(dbc, learnerType, userID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "curriculum_failed", err)
	}
	if len(rows) == 0 {
		return []*CurriculumCourse{}, nil
	}

	courses := []*CurriculumCourse{}
	courseByID := map[uuid.UUID]*CurriculumCourse{}
	lessonsBySection := map[uuid.UUID][]*CurriculumLesson{}
	seenLesson := map[uuid.UUID]bool{}
	for _, row := range rows {
		if _, ok := courseByID[row.CourseID]; !ok {
			c := &CurriculumCourse{
				ID:          row.CourseID,
				Title:       row.CourseTitle,
				Description: row.CourseDescription,
				SortOrder:   row.CourseSortOrder,
				Sections:    []*CurriculumSection{},
			}
			courseByID[row.CourseID] = c
			courses = append(courses, c)
		}
		if seenLesson[row.LessonID] {
			continue
		}
		seenLesson[row.LessonID] = true

		lesson := &CurriculumLesson{
			ID:                  row.LessonID,
			Title:               row.LessonTitle,
			VideoURL:            s.videoURL(dbc, row.LessonVideoObjectKey, row.LessonVideoURL),
			DurationSeconds:     row.LessonDurationSeconds,
			SortOrder:           row.LessonSortOrder,
			LastPositionSeconds: row.LastPositionSeconds,
		}
		if row.PercentWatched != nil {
			lesson.PercentWatched = *row.PercentWatched
		}
		if row.Completed != nil {
			lesson.Completed = *row.Completed
		}
		if row.WatchCount != nil {
			lesson.WatchCount = *row.WatchCount
		}
		lessonsBySection[row.SectionID] = append(lessonsBySection[row.SectionID], lesson)
	}

	courseIDs := make([]uuid.UUID, 0, len(courses))
	for _, c := range courses {
		courseIDs = append(courseIDs, c.ID)
	}
	sections, err := s.repo.SectionsByCourseIDs(dbc, courseIDs)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "curriculum_failed", err)
	}

	// Sections arrive in display order. Children hang off a parent that is
	// itself top level; anything deeper is promoted to the top.
	nodes := map[uuid.UUID]*CurriculumSection{}
	for _, sec := range sections {
		nodes[sec.ID] = &CurriculumSection{
			ID:              sec.ID,
			ParentSectionID: sec.ParentSectionID,
			Title:           sec.Title,
			SortOrder:       sec.SortOrder,
			Lessons:         lessonsBySection[sec.ID],
		}
		if nodes[sec.ID].Lessons == nil {
			nodes[sec.ID].Lessons = []*CurriculumLesson{}
		}
	}
	isTopLevel := func(id uuid.UUID) bool {
		n := nodes[id]
		return n.ParentSectionID == nil || nodes[*n.ParentSectionID] == nil || nodes[*n.ParentSectionID].ParentSectionID != nil
	}
	for _, sec := range sections {
		n := nodes[sec.ID]
		if isTopLevel(sec.ID) {
			continue
		}
		parent := nodes[*n.ParentSectionID]
		if len(n.Lessons) > 0 {
			parent.Sections = append(parent.Sections, n)
		}
	}
	for _, sec := range sections {
		n := nodes[sec.ID]
		if !isTopLevel(sec.ID) {
			continue
		}
		if len(n.Lessons) == 0 && len(n.Sections) == 0 {
			continue
		}
		if c := courseByID[sec.CourseID]; c != nil {
			c.Sections = append(c.Sections, n)
		}
	}
	return courses, nil
}

func (s *curriculumService) videoURL(dbc dbctx.Context, objectKey, fallback string) string {
	if s.videos == nil || objectKey == "" {
		return fallback
	}
	u, err := s.videos.ResolveVideoURL(dbc.Ctx, objectKey, fallback)
	if err != nil {
		s.log.Warn("video url resolve failed", "object_key", objectKey, "error", err)
		return fallback
	}
	return u
}
