package jobs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/anjiri1684/gym_studio/metrics"
	"github.com/anjiri1684/gym_studio/models"
	"github.com/anjiri1684/gym_studio/notifications"
	"gorm.io/gorm"
)

// UserNotifier is the part of the notification service reminders need.
type UserNotifier interface {
	CreateForUser(ctx context.Context, msg notifications.UserMessage) error
}

// Window is a look-ahead slice [now+Lead, now+Lead+Span).
type Window struct {
	Name string
	Lead time.Duration
	Span time.Duration
}

// DefaultWindows match a half-hourly sweep so each booking is reminded
// once per window.
var DefaultWindows = []Window{
	{Name: "2h", Lead: 2 * time.Hour, Span: 30 * time.Minute},
	{Name: "24h", Lead: 24 * time.Hour, Span: 30 * time.Minute},
}

type ReminderJob struct {
	db       *gorm.DB
	notifier UserNotifier
	windows  []Window
	log      *slog.Logger
	now      func() time.Time
}

func NewReminderJob(db *gorm.DB, notifier UserNotifier, log *slog.Logger) *ReminderJob {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ReminderJob{
		db:       db,
		notifier: notifier,
		windows:  DefaultWindows,
		log:      log,
		now:      time.Now,
	}
}

func (j *ReminderJob) Name() string { return "class_reminders" }

// Run notifies every member holding a CONFIRMED booking on an active
// schedule that starts inside one of the windows.
func (j *ReminderJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	for _, w := range j.windows {
		from := now.Add(w.Lead)
		to := from.Add(w.Span)

		var bookings []models.ClassBooking
		err := j.db.WithContext(ctx).
			Preload("Member").
			Preload("ClassSchedule.Class").
			Joins("JOIN class_schedules ON class_schedules.id = class_bookings.class_schedule_id").
			Where("class_bookings.status = ? AND class_schedules.is_active = ?", models.BookingConfirmed, true).
			Where("class_schedules.start_time >= ? AND class_schedules.start_time < ?", from, to).
			Find(&bookings).Error
		if err != nil {
			return fmt.Errorf("load bookings for %s reminders: %w", w.Name, err)
		}

		for _, b := range bookings {
			err := j.notifier.CreateForUser(ctx, notifications.UserMessage{
				UserID: b.Member.UserID,
				Kind:   notifications.KindClassReminder,
				Title:  "Class reminder",
				Message: fmt.Sprintf("%s starts at %s.",
					b.ClassSchedule.Class.Name, b.ClassSchedule.StartTime.Format("Mon 02 Jan 15:04")),
				Type:      notifications.TypeInfo,
				ActionURL: "/bookings/" + b.ID.String(),
			})
			if err != nil {
				j.log.Warn("reminder failed", slog.String("booking_id", b.ID.String()), slog.Any("error", err))
				continue
			}
			metrics.RemindersSent.WithLabelValues(w.Name).Inc()
		}
		if len(bookings) > 0 {
			j.log.Info("class reminders sent", slog.String("window", w.Name), slog.Int("count", len(bookings)))
		}
	}
	return nil
}
