package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anjiri1684/gym_studio/metrics"
	"github.com/anjiri1684/gym_studio/models"
	"github.com/anjiri1684/gym_studio/notifications"
	"github.com/anjiri1684/gym_studio/services/serverrors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingService struct {
	*base
	waitlist *WaitlistService
	credits  *CreditService
}

// BookClass confirms a seat for the member. When the class is full the
// member is queued on the waitlist and a *serverrors.WaitlistedError is
// returned.
func (s *BookingService) BookClass(ctx context.Context, p Principal, memberID, scheduleID uuid.UUID) (models.ClassBooking, error) {
	var booking models.ClassBooking

	member, err := s.findMember(ctx, s.db, memberID)
	if err != nil {
		return booking, err
	}
	if err := requireMember(p, member); err != nil {
		return booking, err
	}
	schedule, err := s.findSchedule(ctx, s.db, scheduleID)
	if err != nil {
		return booking, err
	}
	if !schedule.IsActive {
		return booking, serverrors.InvalidState("class schedule %s is inactive", schedule.ID)
	}

	var (
		entry      models.ClassWaitlist
		waitlisted bool
		joined     bool
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := lockSchedule(tx, schedule.ID)
		if err != nil {
			return err
		}

		var existing models.ClassBooking
		err = tx.Where("member_id = ? AND class_schedule_id = ?", member.ID, schedule.ID).First(&existing).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err == nil && existing.Status == models.BookingConfirmed {
			return serverrors.Conflict("member %s already booked schedule %s", member.ID, schedule.ID)
		}

		n, err := confirmedCount(tx, schedule.ID)
		if err != nil {
			return err
		}
		if n >= int64(locked.Class.MaxCapacity) {
			entry, joined, err = s.waitlist.joinTx(tx, member.ID, schedule.ID)
			waitlisted = err == nil
			return err
		}

		booking, _, err = upsertConfirmed(tx, member.ID, schedule.ID, s.clock())
		if err != nil {
			return err
		}

		var queued models.ClassWaitlist
		err = tx.Where("member_id = ? AND class_schedule_id = ? AND status IN ?", member.ID, schedule.ID, models.ActiveWaitlistStatuses).
			First(&queued).Error
		switch {
		case err == nil:
			if err := s.waitlist.markBookedTx(tx, queued); err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		return s.credits.consume(tx, member.ID, booking.ID)
	})
	if err != nil {
		if errors.Is(err, serverrors.ErrConflict) {
			metrics.Bookings.WithLabelValues(metrics.OutcomeRejected).Inc()
		}
		return booking, err
	}

	if waitlisted {
		metrics.Bookings.WithLabelValues(metrics.OutcomeWaitlisted).Inc()
		if joined {
			s.waitlist.joined(ctx, member, schedule, entry)
		}
		return booking, &serverrors.WaitlistedError{ScheduleID: schedule.ID, Position: entry.Position}
	}

	metrics.Bookings.WithLabelValues(metrics.OutcomeConfirmed).Inc()
	s.invalidateClasses(ctx)
	s.log.Info("class booked",
		slog.String("booking_id", booking.ID.String()),
		slog.String("member_id", member.ID.String()),
		slog.String("schedule_id", schedule.ID.String()))

	s.notifyRole(ctx, notifications.KindNewBooking, notifications.RoleMessage{
		Role:      models.RoleAdmin,
		Title:     "New booking",
		Message:   fmt.Sprintf("%s booked %s on %s.", member.FullName, schedule.Class.Name, schedule.StartTime.Format(time.RFC1123)),
		Type:      notifications.TypeInfo,
		ActionURL: "/schedules/" + schedule.ID.String(),
	})

	booking.ClassSchedule = schedule
	return booking, nil
}

// upsertConfirmed flips the existing (member, schedule) row to CONFIRMED or
// creates it.
func upsertConfirmed(tx *gorm.DB, memberID, scheduleID uuid.UUID, now time.Time) (models.ClassBooking, bool, error) {
	var b models.ClassBooking
	err := tx.Where("member_id = ? AND class_schedule_id = ?", memberID, scheduleID).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		b = models.ClassBooking{
			MemberID:        memberID,
			ClassScheduleID: scheduleID,
			Status:          models.BookingConfirmed,
			BookedAt:        now,
		}
		return b, true, tx.Create(&b).Error
	}
	if err != nil {
		return b, false, err
	}

	b.Status = models.BookingConfirmed
	b.BookedAt = now
	b.CancelledAt = nil
	err = tx.Model(&models.ClassBooking{}).Where("id = ?", b.ID).Updates(map[string]any{
		"status":       b.Status,
		"booked_at":    now,
		"cancelled_at": nil,
		"updated_at":   now,
	}).Error
	return b, false, err
}

// CancelBooking cancels the booking, refunds its credit and offers the seat
// to the waitlist. A failed promotion does not fail the cancellation.
func (s *BookingService) CancelBooking(ctx context.Context, p Principal, bookingID uuid.UUID) (models.ClassBooking, error) {
	var booking models.ClassBooking
	if err := s.db.WithContext(ctx).Preload("Member").First(&booking, "id = ?", bookingID).Error; err != nil {
		return booking, notFoundOr(err, "booking", bookingID)
	}
	if booking.Status == models.BookingCancelled {
		return booking, serverrors.InvalidState("booking %s is already cancelled", booking.ID)
	}
	if err := requireMember(p, booking.Member); err != nil {
		return booking, err
	}

	now := s.clock()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockSchedule(tx, booking.ClassScheduleID); err != nil {
			return err
		}
		res := tx.Model(&models.ClassBooking{}).
			Where("id = ? AND status <> ?", booking.ID, models.BookingCancelled).
			Updates(map[string]any{
				"status":       models.BookingCancelled,
				"cancelled_at": now,
				"updated_at":   now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return serverrors.InvalidState("booking %s is already cancelled", booking.ID)
		}
		return s.credits.refund(tx, booking.ID)
	})
	if err != nil {
		return booking, err
	}
	booking.Status = models.BookingCancelled
	booking.CancelledAt = &now

	metrics.Bookings.WithLabelValues(metrics.OutcomeCancelled).Inc()
	s.invalidateClasses(ctx)
	s.log.Info("booking cancelled", slog.String("booking_id", booking.ID.String()))

	if _, err := s.waitlist.PromoteWaitlist(ctx, booking.ClassScheduleID); err != nil {
		s.log.Error("waitlist promotion failed",
			slog.String("schedule_id", booking.ClassScheduleID.String()),
			slog.Any("error", err))
	}

	s.notifyRole(ctx, notifications.KindBookingCancelled, notifications.RoleMessage{
		Role:      models.RoleAdmin,
		Title:     "Booking cancelled",
		Message:   fmt.Sprintf("%s cancelled booking %s.", booking.Member.FullName, booking.ID),
		Type:      notifications.TypeWarning,
		ActionURL: "/schedules/" + booking.ClassScheduleID.String(),
	})
	return booking, nil
}

// UpdateBookingStatus is the staff path for attendance and manual fixes.
// WAITLISTED can only be reached through the waitlist.
func (s *BookingService) UpdateBookingStatus(ctx context.Context, p Principal, bookingID uuid.UUID, status models.BookingStatus) (models.ClassBooking, error) {
	var booking models.ClassBooking

	if err := RequireStaff(p); err != nil {
		return booking, err
	}
	if !status.Valid() {
		return booking, serverrors.Validation("unknown booking status %q", status)
	}
	if status == models.BookingWaitlisted {
		return booking, serverrors.InvalidState("booking status cannot be set to %s directly", status)
	}

	if err := s.db.WithContext(ctx).First(&booking, "id = ?", bookingID).Error; err != nil {
		return booking, notFoundOr(err, "booking", bookingID)
	}
	if booking.Status == status {
		return booking, nil
	}
	if status == models.BookingCancelled {
		return s.CancelBooking(ctx, p, bookingID)
	}

	previous := booking.Status
	now := s.clock()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if status == models.BookingConfirmed {
			schedule, err := lockSchedule(tx, booking.ClassScheduleID)
			if err != nil {
				return err
			}
			n, err := confirmedCount(tx, booking.ClassScheduleID)
			if err != nil {
				return err
			}
			if n >= int64(schedule.Class.MaxCapacity) {
				return serverrors.Conflict("class schedule %s is full", schedule.ID)
			}
		}

		updates := map[string]any{"status": status, "updated_at": now}
		if status == models.BookingConfirmed {
			updates["cancelled_at"] = nil
		}
		if err := tx.Model(&models.ClassBooking{}).Where("id = ?", booking.ID).Updates(updates).Error; err != nil {
			return err
		}

		if status == models.BookingConfirmed && previous == models.BookingCancelled {
			return s.credits.consume(tx, booking.MemberID, booking.ID)
		}
		return nil
	})
	if err != nil {
		return booking, err
	}

	booking.Status = status
	if status == models.BookingConfirmed {
		booking.CancelledAt = nil
	}
	s.invalidateClasses(ctx)
	s.log.Info("booking status updated",
		slog.String("booking_id", booking.ID.String()),
		slog.String("from", string(previous)),
		slog.String("to", string(status)))
	return booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, p Principal, bookingID uuid.UUID) (models.ClassBooking, error) {
	var booking models.ClassBooking
	err := s.db.WithContext(ctx).
		Preload("Member").
		Preload("ClassSchedule.Class").
		Preload("ClassSchedule.Trainer").
		First(&booking, "id = ?", bookingID).Error
	if err != nil {
		return booking, notFoundOr(err, "booking", bookingID)
	}
	if err := requireMember(p, booking.Member); err != nil {
		return booking, err
	}
	return booking, nil
}

func (s *BookingService) ListMemberBookings(ctx context.Context, p Principal, memberID uuid.UUID, status models.BookingStatus) ([]models.ClassBooking, error) {
	member, err := s.findMember(ctx, s.db, memberID)
	if err != nil {
		return nil, err
	}
	if err := requireMember(p, member); err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).
		Preload("ClassSchedule.Class").
		Preload("ClassSchedule.Trainer").
		Where("member_id = ?", member.ID)
	if status != "" {
		if !status.Valid() {
			return nil, serverrors.Validation("unknown booking status %q", status)
		}
		q = q.Where("status = ?", status)
	}

	var bookings []models.ClassBooking
	err = q.Order("booked_at DESC").Find(&bookings).Error
	return bookings, err
}

func (s *BookingService) ListScheduleBookings(ctx context.Context, p Principal, scheduleID uuid.UUID) ([]models.ClassBooking, error) {
	if err := RequireStaff(p); err != nil {
		return nil, err
	}
	if _, err := s.findSchedule(ctx, s.db, scheduleID); err != nil {
		return nil, err
	}

	var bookings []models.ClassBooking
	err := s.db.WithContext(ctx).
		Preload("Member").
		Where("class_schedule_id = ?", scheduleID).
		Order("booked_at ASC").
		Find(&bookings).Error
	return bookings, err
}

// CompletePastBookings marks CONFIRMED bookings whose class ended before
// the cutoff as COMPLETED. Staff can still correct individual rows to
// NO_SHOW afterwards.
func (s *BookingService) CompletePastBookings(ctx context.Context, endedBefore time.Time) (int64, error) {
	ended := s.db.Model(&models.ClassSchedule{}).Select("id").Where("end_time <= ?", endedBefore.UTC())
	res := s.db.WithContext(ctx).Model(&models.ClassBooking{}).
		Where("status = ? AND class_schedule_id IN (?)", models.BookingConfirmed, ended).
		Updates(map[string]any{"status": models.BookingCompleted, "updated_at": s.clock()})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		s.invalidateClasses(ctx)
	}
	return res.RowsAffected, nil
}
