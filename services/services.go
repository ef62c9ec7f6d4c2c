package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/anjiri1684/gym_studio/models"
	"github.com/anjiri1684/gym_studio/notifications"
	"github.com/anjiri1684/gym_studio/services/serverrors"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Notifier is the best-effort notification sink. Errors are logged by the
// caller and never fail the operation that triggered them.
type Notifier interface {
	NotifyIfEnabled(ctx context.Context, kind string, msg notifications.RoleMessage) error
	CreateForUser(ctx context.Context, msg notifications.UserMessage) error
}

type Deps struct {
	DB       *gorm.DB
	Cache    Cache
	CacheTTL time.Duration
	Notifier Notifier
	Log      *slog.Logger
	Now      func() time.Time
}

// Services groups the booking subsystem. The members share one set of deps
// and call each other for waitlist fallback, promotion and credit writes.
type Services struct {
	Schedules  *ScheduleService
	Bookings   *BookingService
	Waitlist   *WaitlistService
	Credits    *CreditService
	Members    *MemberService
	Engagement *EngagementService
}

type base struct {
	db       *gorm.DB
	cache    Cache
	cacheTTL time.Duration
	notifier Notifier
	log      *slog.Logger
	now      func() time.Time
}

func New(d Deps) *Services {
	b := &base{
		db:       d.DB,
		cache:    d.Cache,
		cacheTTL: d.CacheTTL,
		notifier: d.Notifier,
		log:      d.Log,
		now:      d.Now,
	}
	if b.log == nil {
		b.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if b.now == nil {
		b.now = func() time.Time { return time.Now().UTC() }
	}
	if b.cacheTTL <= 0 {
		b.cacheTTL = time.Minute
	}

	credits := &CreditService{base: b}
	waitlist := &WaitlistService{base: b, credits: credits}
	return &Services{
		Schedules:  &ScheduleService{base: b},
		Bookings:   &BookingService{base: b, waitlist: waitlist, credits: credits},
		Waitlist:   waitlist,
		Credits:    credits,
		Members:    &MemberService{base: b},
		Engagement: &EngagementService{base: b},
	}
}

func (b *base) clock() time.Time {
	return b.now().UTC()
}

func (b *base) notifyRole(ctx context.Context, kind string, msg notifications.RoleMessage) {
	if b.notifier == nil {
		return
	}
	if err := b.notifier.NotifyIfEnabled(ctx, kind, msg); err != nil {
		b.log.Warn("role notification failed", slog.String("kind", kind), slog.Any("error", err))
	}
}

func (b *base) notifyUser(ctx context.Context, msg notifications.UserMessage) {
	if b.notifier == nil {
		return
	}
	if err := b.notifier.CreateForUser(ctx, msg); err != nil {
		b.log.Warn("user notification failed", slog.String("user_id", msg.UserID.String()), slog.Any("error", err))
	}
}

func (b *base) findMember(ctx context.Context, db *gorm.DB, id uuid.UUID) (models.Member, error) {
	var m models.Member
	if err := db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return m, notFoundOr(err, "member", id)
	}
	return m, nil
}

func (b *base) findSchedule(ctx context.Context, db *gorm.DB, id uuid.UUID) (models.ClassSchedule, error) {
	var s models.ClassSchedule
	if err := db.WithContext(ctx).Preload("Class").Preload("Trainer").First(&s, "id = ?", id).Error; err != nil {
		return s, notFoundOr(err, "class schedule", id)
	}
	return s, nil
}

// lockSchedule takes a row lock on the schedule for the rest of tx. Every
// capacity check followed by a booking write goes through it.
func lockSchedule(tx *gorm.DB, id uuid.UUID) (models.ClassSchedule, error) {
	var s models.ClassSchedule
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&s, "id = ?", id).Error; err != nil {
		return s, notFoundOr(err, "class schedule", id)
	}
	if err := tx.First(&s.Class, "id = ?", s.ClassID).Error; err != nil {
		return s, notFoundOr(err, "class", s.ClassID)
	}
	return s, nil
}

func confirmedCount(tx *gorm.DB, scheduleID uuid.UUID) (int64, error) {
	var n int64
	err := tx.Model(&models.ClassBooking{}).
		Where("class_schedule_id = ? AND status = ?", scheduleID, models.BookingConfirmed).
		Count(&n).Error
	return n, err
}

func notFoundOr(err error, entity string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return serverrors.NotFound(entity, id)
	}
	return err
}

func (b *base) invalidateClasses(ctx context.Context) {
	if b.cache == nil {
		return
	}
	if err := b.cache.DeletePrefix(ctx, classesPrefix); err != nil {
		b.log.Warn("cache invalidation failed", slog.String("prefix", classesPrefix), slog.Any("error", err))
	}
}

// Page is one page of a listing.
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
