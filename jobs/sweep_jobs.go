package jobs

import (
	"context"
	"time"
)

type PassExpirer interface {
	ExpirePasses(ctx context.Context) (int64, error)
}

// PassExpiryJob flips ACTIVE passes past their expiry to EXPIRED.
type PassExpiryJob struct {
	Credits PassExpirer
}

func (j PassExpiryJob) Name() string { return "pass_expiry" }

func (j PassExpiryJob) Run(ctx context.Context) error {
	_, err := j.Credits.ExpirePasses(ctx)
	return err
}

type BookingCompleter interface {
	CompletePastBookings(ctx context.Context, endedBefore time.Time) (int64, error)
}

// AttendanceJob closes out bookings for classes that have ended.
type AttendanceJob struct {
	Bookings BookingCompleter
	Now      func() time.Time
}

func (j AttendanceJob) Name() string { return "attendance" }

func (j AttendanceJob) Run(ctx context.Context) error {
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}
	_, err := j.Bookings.CompletePastBookings(ctx, now().UTC())
	return err
}
