package seed

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/yungbote/coursetrack-backend/internal/data/repos"
	types "github.com/yungbote/coursetrack-backend/internal/domain"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
)

// namespace for ids derived from titles, so re-running a fixture updates rows in place.
var namespace = uuid.MustParse("6f1d3c64-4a8e-4b8f-9d0e-2f6c1b7a9e51")

type Fixture struct {
	Users   []UserSpec   `yaml:"users"`
	Courses []CourseSpec `yaml:"courses"`
}

type UserSpec struct {
	Email       string `yaml:"email"`
	Name        string `yaml:"name"`
	Role        string `yaml:"role"`
	LearnerType string `yaml:"learner_type"`
}

type CourseSpec struct {
	ID          string        `yaml:"id"`
	Title       string        `yaml:"title"`
	Description string        `yaml:"description"`
	Inactive    bool          `yaml:"inactive"`
	Sections    []SectionSpec `yaml:"sections"`
}

type SectionSpec struct {
	ID       string        `yaml:"id"`
	Title    string        `yaml:"title"`
	Lessons  []LessonSpec  `yaml:"lessons"`
	Sections []SectionSpec `yaml:"sections"`
}

type LessonSpec struct {
	ID              string   `yaml:"id"`
	Title           string   `yaml:"title"`
	VideoURL        string   `yaml:"video_url"`
	VideoObjectKey  string   `yaml:"video_object_key"`
	DurationSeconds int      `yaml:"duration_seconds"`
	Inactive        bool     `yaml:"inactive"`
	LearnerTypes    []string `yaml:"learner_types"`
}

type Result struct {
	Users       []*types.User
	Courses     int
	Sections    int
	Lessons     int
	Assignments int
}

// Load parses a fixture. Unknown keys are rejected.
func Load(r io.Reader) (*Fixture, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	var f Fixture
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Fixture) validate() error {
	for i, u := range f.Users {
		if strings.TrimSpace(u.Email) == "" {
			return fmt.Errorf("users[%d]: email required", i)
		}
	}
	for i, c := range f.Courses {
		if strings.TrimSpace(c.Title) == "" {
			return fmt.Errorf("courses[%d]: title required", i)
		}
		for j, s := range c.Sections {
			if err := s.validate(fmt.Sprintf("courses[%d].sections[%d]", i, j), 0); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s SectionSpec) validate(path string, depth int) error {
	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("%s: title required", path)
	}
	if depth > 0 && len(s.Sections) > 0 {
		return fmt.Errorf("%s: sections nest one level deep", path)
	}
	for k, l := range s.Lessons {
		if strings.TrimSpace(l.Title) == "" {
			return fmt.Errorf("%s.lessons[%d]: title required", path, k)
		}
	}
	for k, child := range s.Sections {
		if err := child.validate(fmt.Sprintf("%s.sections[%d]", path, k), depth+1); err != nil {
			return err
		}
	}
	return nil
}

type Seeder struct {
	db      *gorm.DB
	log     *logger.Logger
	content repos.ContentRepo
	users   repos.UserRepo
}

func NewSeeder(db *gorm.DB, baseLog *logger.Logger, content repos.ContentRepo, users repos.UserRepo) *Seeder {
	return &Seeder{db: db, log: baseLog.With("service", "Seeder"), content: content, users: users}
}

// Apply writes the fixture in one transaction. Sort order follows list position.
func (s *Seeder) Apply(dbc dbctx.Context, f *Fixture) (*Result, error) {
	res := &Result{}
	err := s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		for _, u := range f.Users {
			row := &types.User{
				Email:       strings.TrimSpace(u.Email),
				Name:        u.Name,
				Role:        u.Role,
				LearnerType: u.LearnerType,
			}
			if row.Role == "" {
				row.Role = "learner"
			}
			if row.Name == "" {
				row.Name = row.Email
			}
			if err := s.users.Upsert(inner, row); err != nil {
				return fmt.Errorf("upsert user %s: %w", row.Email, err)
			}
			res.Users = append(res.Users, row)
		}
		for i, c := range f.Courses {
			course := &types.Course{
				ID:          idFor(c.ID, "course", c.Title),
				Title:       c.Title,
				Description: c.Description,
				IsActive:    !c.Inactive,
				SortOrder:   i,
			}
			if err := s.content.UpsertCourse(inner, course); err != nil {
				return fmt.Errorf("upsert course %q: %w", c.Title, err)
			}
			res.Courses++
			for j, sec := range c.Sections {
				if err := s.applySection(inner, res, course.ID, nil, course.Title, j, sec); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("fixture applied",
		"users", len(res.Users),
		"courses", res.Courses,
		"sections", res.Sections,
		"lessons", res.Lessons,
		"assignments", res.Assignments,
	)
	return res, nil
}

func (s *Seeder) applySection(dbc dbctx.Context, res *Result, courseID uuid.UUID, parentID *uuid.UUID, scope string, order int, in SectionSpec) error {
	scope = scope + "/" + in.Title
	section := &types.Section{
		ID:              idFor(in.ID, "section", scope),
		CourseID:        courseID,
		ParentSectionID: parentID,
		Title:           in.Title,
		SortOrder:       order,
	}
	if err := s.content.UpsertSection(dbc, section); err != nil {
		return fmt.Errorf("upsert section %q: %w", scope, err)
	}
	res.Sections++

	for k, l := range in.Lessons {
		lesson := &types.Lesson{
			ID:              idFor(l.ID, "lesson", scope+"/"+l.Title),
			SectionID:       section.ID,
			Title:           l.Title,
			VideoURL:        l.VideoURL,
			VideoObjectKey:  l.VideoObjectKey,
			DurationSeconds: l.DurationSeconds,
			IsActive:        !l.Inactive,
			SortOrder:       k,
		}
		if err := s.content.UpsertLesson(dbc, lesson); err != nil {
			return fmt.Errorf("upsert lesson %q: %w", l.Title, err)
		}
		res.Lessons++
		for _, lt := range l.LearnerTypes {
			if err := s.content.Assign(dbc, lt, []uuid.UUID{lesson.ID}); err != nil {
				return fmt.Errorf("assign lesson %q to %s: %w", l.Title, lt, err)
			}
			res.Assignments++
		}
	}
	for k, child := range in.Sections {
		if err := s.applySection(dbc, res, courseID, &section.ID, scope, k, child); err != nil {
			return err
		}
	}
	return nil
}

func idFor(explicit, kind, name string) uuid.UUID {
	if id, err := uuid.Parse(strings.TrimSpace(explicit)); err == nil && id != uuid.Nil {
		return id
	}
	return uuid.NewSHA1(namespace, []byte(kind+":"+name))
}
