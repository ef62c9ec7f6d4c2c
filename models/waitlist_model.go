package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WaitlistStatus string

const (
	WaitlistWaiting   WaitlistStatus = "WAITING"
	WaitlistNotified  WaitlistStatus = "NOTIFIED"
	WaitlistBooked    WaitlistStatus = "BOOKED"
	WaitlistCancelled WaitlistStatus = "CANCELLED"
)

// ActiveWaitlistStatuses are counted for position numbering.
var ActiveWaitlistStatuses = []WaitlistStatus{WaitlistWaiting, WaitlistNotified}

type ClassWaitlist struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	MemberID        uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_waitlist_member_schedule,priority:1" json:"member_id"`
	ClassScheduleID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_waitlist_member_schedule,priority:2;index" json:"class_schedule_id"`
	Position        int            `gorm:"not null" json:"position"`
	Status          WaitlistStatus `gorm:"size:20;not null;index" json:"status"`
	JoinedAt        time.Time      `gorm:"not null" json:"joined_at"`
	NotifiedAt      *time.Time     `json:"notified_at,omitempty"`

	Member Member `gorm:"foreignKey:MemberID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (w *ClassWaitlist) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

func (w ClassWaitlist) IsActive() bool {
	return w.Status == WaitlistWaiting || w.Status == WaitlistNotified
}
