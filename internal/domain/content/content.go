package content

import (
	"time"

	"github.com/google/uuid"
)

// Course, Section and Lesson are read models of the external content store.
// Editors own them; the tracking pipeline only reads is_active, sort_order,
// duration_seconds and the video location.

type Course struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string    `gorm:"column:title;not null" json:"title"`
	Description string    `gorm:"column:description;type:text" json:"description"`
	IsActive    bool      `gorm:"column:is_active;not null;index" json:"is_active"`
	SortOrder   int       `gorm:"column:sort_order;not null;default:0" json:"sort_order"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Course) TableName() string { return "course" }

type Section struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"course_id"`
	ParentSectionID *uuid.UUID `gorm:"type:uuid;index" json:"parent_section_id,omitempty"`
	Title           string     `gorm:"column:title;not null" json:"title"`
	SortOrder       int        `gorm:"column:sort_order;not null;default:0" json:"sort_order"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Section) TableName() string { return "section" }

type Lesson struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SectionID       uuid.UUID `gorm:"type:uuid;not null;index" json:"section_id"`
	Title           string    `gorm:"column:title;not null" json:"title"`
	VideoURL        string    `gorm:"column:video_url" json:"video_url"`
	VideoObjectKey  string    `gorm:"column:video_object_key" json:"video_object_key,omitempty"`
	DurationSeconds int       `gorm:"column:duration_seconds;not null;default:0" json:"duration_seconds"`
	IsActive        bool      `gorm:"column:is_active;not null;index" json:"is_active"`
	SortOrder       int       `gorm:"column:sort_order;not null;default:0" json:"sort_order"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Lesson) TableName() string { return "lesson" }

// CurriculumAssignment targets a lesson at every learner of a learner type.
type CurriculumAssignment struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	LearnerType string    `gorm:"column:learner_type;not null;uniqueIndex:idx_curriculum_assignment_type_lesson" json:"learner_type"`
	LessonID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_curriculum_assignment_type_lesson;index" json:"lesson_id"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (CurriculumAssignment) TableName() string { return "curriculum_assignment" }
