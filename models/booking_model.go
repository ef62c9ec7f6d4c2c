package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingConfirmed  BookingStatus = "CONFIRMED"
	BookingCancelled  BookingStatus = "CANCELLED"
	BookingCompleted  BookingStatus = "COMPLETED"
	BookingNoShow     BookingStatus = "NO_SHOW"
	BookingWaitlisted BookingStatus = "WAITLISTED"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingConfirmed, BookingCancelled, BookingCompleted, BookingNoShow, BookingWaitlisted:
		return true
	}
	return false
}

// ClassBooking holds at most one row per (member, schedule); rebooking flips
// the status of the existing row.
type ClassBooking struct {
	ID              uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	MemberID        uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_booking_member_schedule,priority:1" json:"member_id"`
	ClassScheduleID uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_booking_member_schedule,priority:2;index" json:"class_schedule_id"`
	Status          BookingStatus `gorm:"size:20;not null;index" json:"status"`
	BookedAt        time.Time     `gorm:"not null" json:"booked_at"`
	CancelledAt     *time.Time    `json:"cancelled_at,omitempty"`

	Member        Member        `gorm:"foreignKey:MemberID" json:"-"`
	ClassSchedule ClassSchedule `gorm:"foreignKey:ClassScheduleID" json:"class_schedule,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *ClassBooking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
