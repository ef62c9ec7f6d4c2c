package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClassFavorite struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MemberID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_favorite_member_class,priority:1" json:"member_id"`
	ClassID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_favorite_member_class,priority:2" json:"class_id"`

	Class Class `gorm:"foreignKey:ClassID" json:"class,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (f *ClassFavorite) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

type InstructorRating struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MemberID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_rating_member_schedule,priority:1" json:"member_id"`
	ClassScheduleID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_rating_member_schedule,priority:2" json:"class_schedule_id"`
	TrainerID       uuid.UUID `gorm:"type:uuid;not null;index" json:"trainer_id"`
	Rating          int       `gorm:"not null" json:"rating"`
	Comment         string    `gorm:"type:text" json:"comment"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *InstructorRating) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
