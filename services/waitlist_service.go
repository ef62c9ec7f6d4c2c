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

type WaitlistService struct {
	*base
	credits *CreditService
}

// JoinWaitlist queues the member for the schedule. Joining twice returns the
// existing active entry.
func (s *WaitlistService) JoinWaitlist(ctx context.Context, p Principal, memberID, scheduleID uuid.UUID) (models.ClassWaitlist, error) {
	var entry models.ClassWaitlist

	member, err := s.findMember(ctx, s.db, memberID)
	if err != nil {
		return entry, err
	}
	if err := requireMember(p, member); err != nil {
		return entry, err
	}
	schedule, err := s.findSchedule(ctx, s.db, scheduleID)
	if err != nil {
		return entry, err
	}
	if !schedule.IsActive {
		return entry, serverrors.InvalidState("class schedule %s is inactive", schedule.ID)
	}

	var created bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockSchedule(tx, schedule.ID); err != nil {
			return err
		}

		var booking models.ClassBooking
		err := tx.Where("member_id = ? AND class_schedule_id = ?", member.ID, schedule.ID).First(&booking).Error
		if err == nil && booking.Status == models.BookingConfirmed {
			return serverrors.Conflict("member %s already has a confirmed booking for schedule %s", member.ID, schedule.ID)
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		entry, created, err = s.joinTx(tx, member.ID, schedule.ID)
		return err
	})
	if err != nil {
		return entry, err
	}

	if created {
		s.joined(ctx, member, schedule, entry)
	}
	return entry, nil
}

// joinTx returns the active entry for (member, schedule) or appends the
// member at the end of the queue, reusing an old row when one exists.
func (s *WaitlistService) joinTx(tx *gorm.DB, memberID, scheduleID uuid.UUID) (models.ClassWaitlist, bool, error) {
	var entry models.ClassWaitlist
	err := tx.Where("member_id = ? AND class_schedule_id = ?", memberID, scheduleID).First(&entry).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return entry, false, err
	}
	exists := err == nil
	if exists && entry.IsActive() {
		return entry, false, nil
	}

	var maxPosition int
	err = tx.Model(&models.ClassWaitlist{}).
		Select("COALESCE(MAX(position), 0)").
		Where("class_schedule_id = ? AND status IN ?", scheduleID, models.ActiveWaitlistStatuses).
		Scan(&maxPosition).Error
	if err != nil {
		return entry, false, err
	}

	now := s.clock()
	if exists {
		entry.Position = maxPosition + 1
		entry.Status = models.WaitlistWaiting
		entry.JoinedAt = now
		entry.NotifiedAt = nil
		err = tx.Model(&models.ClassWaitlist{}).Where("id = ?", entry.ID).Updates(map[string]any{
			"position":    entry.Position,
			"status":      entry.Status,
			"joined_at":   now,
			"notified_at": nil,
			"updated_at":  now,
		}).Error
		return entry, true, err
	}

	entry = models.ClassWaitlist{
		MemberID:        memberID,
		ClassScheduleID: scheduleID,
		Position:        maxPosition + 1,
		Status:          models.WaitlistWaiting,
		JoinedAt:        now,
	}
	return entry, true, tx.Create(&entry).Error
}

func (s *WaitlistService) joined(ctx context.Context, member models.Member, schedule models.ClassSchedule, entry models.ClassWaitlist) {
	metrics.WaitlistJoins.Inc()
	s.log.Info("member joined waitlist",
		slog.String("member_id", member.ID.String()),
		slog.String("schedule_id", schedule.ID.String()),
		slog.Int("position", entry.Position))
	s.notifyUser(ctx, notifications.UserMessage{
		UserID:  member.UserID,
		Kind:    notifications.KindWaitlistJoined,
		Title:   "You're on the waitlist",
		Message: fmt.Sprintf("You are number %d on the waitlist for %s on %s.", entry.Position, schedule.Class.Name, schedule.StartTime.Format(time.RFC1123)),
		Type:    notifications.TypeInfo,
	})
}

// LeaveWaitlist cancels an entry. Other positions are left as they are.
func (s *WaitlistService) LeaveWaitlist(ctx context.Context, p Principal, entryID uuid.UUID) (models.ClassWaitlist, error) {
	var entry models.ClassWaitlist
	if err := s.db.WithContext(ctx).Preload("Member").First(&entry, "id = ?", entryID).Error; err != nil {
		return entry, notFoundOr(err, "waitlist entry", entryID)
	}
	if err := requireMember(p, entry.Member); err != nil {
		return entry, err
	}
	if !entry.IsActive() {
		return entry, serverrors.InvalidState("waitlist entry %s is already %s", entry.ID, entry.Status)
	}

	entry.Status = models.WaitlistCancelled
	err := s.db.WithContext(ctx).Model(&models.ClassWaitlist{}).Where("id = ?", entry.ID).Updates(map[string]any{
		"status":     entry.Status,
		"updated_at": s.clock(),
	}).Error
	return entry, err
}

// PromoteNext is the staff entry point for a manual promotion.
func (s *WaitlistService) PromoteNext(ctx context.Context, p Principal, scheduleID uuid.UUID) (*models.ClassBooking, error) {
	if err := RequireStaff(p); err != nil {
		return nil, err
	}
	if _, err := s.findSchedule(ctx, s.db, scheduleID); err != nil {
		return nil, err
	}
	return s.PromoteWaitlist(ctx, scheduleID)
}

// PromoteWaitlist books the first waiting member if the schedule has room.
// It returns nil when nobody is waiting or the class is still full.
func (s *WaitlistService) PromoteWaitlist(ctx context.Context, scheduleID uuid.UUID) (*models.ClassBooking, error) {
	var (
		booking  *models.ClassBooking
		entry    models.ClassWaitlist
		schedule models.ClassSchedule
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		schedule, err = lockSchedule(tx, scheduleID)
		if err != nil {
			return err
		}
		if !schedule.IsActive {
			return nil
		}

		err = tx.Preload("Member").
			Where("class_schedule_id = ? AND status = ?", scheduleID, models.WaitlistWaiting).
			Order("position ASC").
			First(&entry).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		n, err := confirmedCount(tx, scheduleID)
		if err != nil {
			return err
		}
		if n >= int64(schedule.Class.MaxCapacity) {
			return nil
		}

		b, _, err := upsertConfirmed(tx, entry.MemberID, scheduleID, s.clock())
		if err != nil {
			return err
		}
		if err := s.credits.consume(tx, entry.MemberID, b.ID); err != nil {
			return err
		}

		if err := s.markBookedTx(tx, entry); err != nil {
			return err
		}

		booking = &b
		return nil
	})
	if err != nil || booking == nil {
		return nil, err
	}

	metrics.WaitlistPromotions.Inc()
	s.invalidateClasses(ctx)
	s.log.Info("waitlist promoted",
		slog.String("schedule_id", scheduleID.String()),
		slog.String("member_id", entry.MemberID.String()),
		slog.String("booking_id", booking.ID.String()))

	s.notifyUser(ctx, notifications.UserMessage{
		UserID:    entry.Member.UserID,
		Kind:      notifications.KindWaitlistPromoted,
		Title:     "You're in!",
		Message:   fmt.Sprintf("A spot opened up in %s on %s and your booking is confirmed.", schedule.Class.Name, schedule.StartTime.Format(time.RFC1123)),
		Type:      notifications.TypeSuccess,
		ActionURL: "/bookings/" + booking.ID.String(),
	})
	return booking, nil
}

// markBookedTx takes entry out of the queue and shifts everyone behind it
// up by one so active positions stay contiguous.
func (s *WaitlistService) markBookedTx(tx *gorm.DB, entry models.ClassWaitlist) error {
	now := s.clock()
	if err := tx.Model(&models.ClassWaitlist{}).Where("id = ?", entry.ID).Updates(map[string]any{
		"status":      models.WaitlistBooked,
		"notified_at": now,
		"updated_at":  now,
	}).Error; err != nil {
		return err
	}

	return tx.Model(&models.ClassWaitlist{}).
		Where("class_schedule_id = ? AND status IN ? AND position > ?", entry.ClassScheduleID, models.ActiveWaitlistStatuses, entry.Position).
		Update("position", gorm.Expr("position - 1")).Error
}

// ListWaitlist returns the active entries in queue order.
func (s *WaitlistService) ListWaitlist(ctx context.Context, p Principal, scheduleID uuid.UUID) ([]models.ClassWaitlist, error) {
	if err := RequireStaff(p); err != nil {
		return nil, err
	}
	var entries []models.ClassWaitlist
	err := s.db.WithContext(ctx).
		Where("class_schedule_id = ? AND status IN ?", scheduleID, models.ActiveWaitlistStatuses).
		Order("position ASC").
		Find(&entries).Error
	return entries, err
}

// MemberWaitlist returns the member's active entries.
func (s *WaitlistService) MemberWaitlist(ctx context.Context, p Principal, memberID uuid.UUID) ([]models.ClassWaitlist, error) {
	member, err := s.findMember(ctx, s.db, memberID)
	if err != nil {
		return nil, err
	}
	if err := requireMember(p, member); err != nil {
		return nil, err
	}
	var entries []models.ClassWaitlist
	err = s.db.WithContext(ctx).
		Where("member_id = ? AND status IN ?", member.ID, models.ActiveWaitlistStatuses).
		Order("joined_at ASC").
		Find(&entries).Error
	return entries, err
}
