package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Class is the reusable template. Rows are never deleted because schedules
// reference them.
type Class struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string    `gorm:"size:255;not null" json:"name"`
	Description     string    `gorm:"type:text" json:"description"`
	Category        string    `gorm:"size:100;index" json:"category"`
	DurationMinutes int       `gorm:"not null" json:"duration_minutes"`
	MaxCapacity     int       `gorm:"not null" json:"max_capacity"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Class) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type ClassSchedule struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClassID        uuid.UUID `gorm:"type:uuid;not null;index" json:"class_id"`
	TrainerID      uuid.UUID `gorm:"type:uuid;not null;index:idx_schedule_trainer_active,priority:1" json:"trainer_id"`
	StartTime      time.Time `gorm:"not null;index" json:"start_time"`
	EndTime        time.Time `gorm:"not null" json:"end_time"`
	IsActive       bool      `gorm:"index:idx_schedule_trainer_active,priority:2" json:"is_active"`
	RecurrenceRule *string   `gorm:"type:text" json:"recurrence_rule,omitempty"`

	Class   Class   `gorm:"foreignKey:ClassID" json:"class"`
	Trainer Trainer `gorm:"foreignKey:TrainerID" json:"trainer"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *ClassSchedule) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
