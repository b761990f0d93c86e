package user

import (
	"time"

	"github.com/google/uuid"
)

// User mirrors the external user/role directory. This service never writes it
// outside of seeding; identity on requests comes from the bearer token.
type User struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email       string    `gorm:"column:email;uniqueIndex;not null" json:"email"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Role        string    `gorm:"column:role;not null;default:'learner'" json:"role"`
	LearnerType string    `gorm:"column:learner_type;index" json:"learner_type"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "user" }
