package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anjiri1684/gym_studio/models"
	"github.com/anjiri1684/gym_studio/notifications"
	"github.com/anjiri1684/gym_studio/recurrence"
	"github.com/anjiri1684/gym_studio/services/serverrors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ScheduleService struct {
	*base
}

type CreateClassInput struct {
	Name            string
	Description     string
	Category        string
	DurationMinutes int
	MaxCapacity     int
	TrainerID       uuid.UUID
	StartTime       time.Time
	RecurrenceRule  string
	MaxOccurrences  int
}

type UpdateScheduleInput struct {
	StartTime *time.Time
	TrainerID *uuid.UUID
	IsActive  *bool
}

type UpdateClassInput struct {
	Name            *string
	Description     *string
	Category        *string
	DurationMinutes *int
	MaxCapacity     *int
}

type ScheduleFilter struct {
	From            *time.Time
	To              *time.Time
	TrainerID       *uuid.UUID
	Category        string
	IncludeInactive bool
	Page            int
	Limit           int
}

// ScheduleDetail is a schedule with its current occupancy.
type ScheduleDetail struct {
	models.ClassSchedule
	ConfirmedCount int64 `json:"confirmed_count"`
	SpotsLeft      int   `json:"spots_left"`
}

func (f ScheduleFilter) fingerprint() string {
	parts := []string{
		fmt.Sprintf("p%d", f.Page),
		fmt.Sprintf("l%d", f.Limit),
		"c" + strings.ToLower(f.Category),
		fmt.Sprintf("i%t", f.IncludeInactive),
	}
	if f.From != nil {
		parts = append(parts, "f"+f.From.UTC().Format(time.RFC3339))
	}
	if f.To != nil {
		parts = append(parts, "t"+f.To.UTC().Format(time.RFC3339))
	}
	if f.TrainerID != nil {
		parts = append(parts, "tr"+f.TrainerID.String())
	}
	return strings.Join(parts, "|")
}

// CreateClassWithSchedule creates the class template and one schedule per
// occurrence of the recurrence in a single transaction. It returns the first
// schedule.
func (s *ScheduleService) CreateClassWithSchedule(ctx context.Context, p Principal, in CreateClassInput) (models.ClassSchedule, error) {
	var first models.ClassSchedule

	if err := RequireStaff(p); err != nil {
		return first, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return first, serverrors.Validation("class name is required")
	}
	if in.DurationMinutes <= 0 {
		return first, serverrors.Validation("duration_minutes must be positive")
	}
	if in.MaxCapacity <= 0 {
		return first, serverrors.Validation("max_capacity must be positive")
	}
	if in.StartTime.IsZero() {
		return first, serverrors.Validation("start_time is required")
	}

	var trainer models.Trainer
	if err := s.db.WithContext(ctx).First(&trainer, "id = ?", in.TrainerID).Error; err != nil {
		return first, notFoundOr(err, "trainer", in.TrainerID)
	}

	req := recurrence.Request{
		Start:          in.StartTime,
		Duration:       time.Duration(in.DurationMinutes) * time.Minute,
		MaxOccurrences: in.MaxOccurrences,
	}
	var ruleText *string
	if strings.TrimSpace(in.RecurrenceRule) != "" {
		rule, err := recurrence.Parse(in.RecurrenceRule)
		if err != nil {
			return first, serverrors.InvalidRecurrence(err)
		}
		req.Rule = &rule
		text := rule.String()
		ruleText = &text
	}
	occurrences, err := recurrence.Expand(req)
	if err != nil {
		return first, serverrors.InvalidRecurrence(err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		class := models.Class{
			Name:            strings.TrimSpace(in.Name),
			Description:     in.Description,
			Category:        in.Category,
			DurationMinutes: in.DurationMinutes,
			MaxCapacity:     in.MaxCapacity,
		}
		if err := tx.Create(&class).Error; err != nil {
			return err
		}

		for i, occ := range occurrences {
			conflict, err := hasConflict(tx, trainer.ID, occ.Start, occ.End, nil)
			if err != nil {
				return err
			}
			if conflict {
				return serverrors.Conflict("trainer %s already has a class between %s and %s",
					trainer.ID, occ.Start.Format(time.RFC3339), occ.End.Format(time.RFC3339))
			}

			schedule := models.ClassSchedule{
				ClassID:        class.ID,
				TrainerID:      trainer.ID,
				StartTime:      occ.Start,
				EndTime:        occ.End,
				IsActive:       true,
				RecurrenceRule: ruleText,
			}
			if err := tx.Create(&schedule).Error; err != nil {
				return err
			}
			if i == 0 {
				first = schedule
			}
		}
		return nil
	})
	if err != nil {
		return first, err
	}

	s.invalidateClasses(ctx)
	s.log.Info("class scheduled",
		slog.String("schedule_id", first.ID.String()),
		slog.Int("occurrences", len(occurrences)))

	return s.findSchedule(ctx, s.db, first.ID)
}

// UpdateSchedule moves a schedule, reassigns its trainer or toggles it.
// The end time follows the class duration.
func (s *ScheduleService) UpdateSchedule(ctx context.Context, p Principal, id uuid.UUID, in UpdateScheduleInput) (models.ClassSchedule, error) {
	if err := RequireStaff(p); err != nil {
		return models.ClassSchedule{}, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		schedule, err := lockSchedule(tx, id)
		if err != nil {
			return err
		}

		start, end := schedule.StartTime, schedule.EndTime
		if in.StartTime != nil {
			start = in.StartTime.UTC().Truncate(time.Second)
			end = start.Add(time.Duration(schedule.Class.DurationMinutes) * time.Minute)
		}
		trainerID := schedule.TrainerID
		if in.TrainerID != nil && *in.TrainerID != trainerID {
			var trainer models.Trainer
			if err := tx.First(&trainer, "id = ?", *in.TrainerID).Error; err != nil {
				return notFoundOr(err, "trainer", *in.TrainerID)
			}
			trainerID = trainer.ID
		}
		active := schedule.IsActive
		if in.IsActive != nil {
			active = *in.IsActive
		}

		if active {
			conflict, err := hasConflict(tx, trainerID, start, end, &schedule.ID)
			if err != nil {
				return err
			}
			if conflict {
				return serverrors.Conflict("trainer %s already has a class between %s and %s",
					trainerID, start.Format(time.RFC3339), end.Format(time.RFC3339))
			}
		}

		return tx.Model(&models.ClassSchedule{}).Where("id = ?", schedule.ID).Updates(map[string]any{
			"start_time": start,
			"end_time":   end,
			"trainer_id": trainerID,
			"is_active":  active,
			"updated_at": s.clock(),
		}).Error
	})
	if err != nil {
		return models.ClassSchedule{}, err
	}

	s.invalidateClasses(ctx)
	return s.findSchedule(ctx, s.db, id)
}

// DeactivateSchedule takes a schedule off the timetable and tells every
// confirmed member. Rows are never deleted.
func (s *ScheduleService) DeactivateSchedule(ctx context.Context, p Principal, id uuid.UUID) (models.ClassSchedule, error) {
	inactive := false
	schedule, err := s.UpdateSchedule(ctx, p, id, UpdateScheduleInput{IsActive: &inactive})
	if err != nil {
		return schedule, err
	}

	var bookings []models.ClassBooking
	err = s.db.WithContext(ctx).Preload("Member").
		Where("class_schedule_id = ? AND status = ?", id, models.BookingConfirmed).
		Find(&bookings).Error
	if err != nil {
		s.log.Warn("load bookings for cancelled class", slog.String("schedule_id", id.String()), slog.Any("error", err))
		return schedule, nil
	}
	for _, b := range bookings {
		s.notifyUser(ctx, notifications.UserMessage{
			UserID:  b.Member.UserID,
			Kind:    notifications.KindClassCancelled,
			Title:   "Class cancelled",
			Message: fmt.Sprintf("%s on %s has been cancelled.", schedule.Class.Name, schedule.StartTime.Format(time.RFC1123)),
			Type:    notifications.TypeWarning,
		})
	}
	return schedule, nil
}

func (s *ScheduleService) UpdateClass(ctx context.Context, p Principal, id uuid.UUID, in UpdateClassInput) (models.Class, error) {
	var class models.Class
	if err := RequireStaff(p); err != nil {
		return class, err
	}
	if err := s.db.WithContext(ctx).First(&class, "id = ?", id).Error; err != nil {
		return class, notFoundOr(err, "class", id)
	}

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return class, serverrors.Validation("class name cannot be empty")
		}
		class.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		class.Description = *in.Description
	}
	if in.Category != nil {
		class.Category = *in.Category
	}
	if in.DurationMinutes != nil {
		if *in.DurationMinutes <= 0 {
			return class, serverrors.Validation("duration_minutes must be positive")
		}
		class.DurationMinutes = *in.DurationMinutes
	}
	if in.MaxCapacity != nil {
		if *in.MaxCapacity <= 0 {
			return class, serverrors.Validation("max_capacity must be positive")
		}
		class.MaxCapacity = *in.MaxCapacity
	}

	if err := s.db.WithContext(ctx).Save(&class).Error; err != nil {
		return class, err
	}
	s.invalidateClasses(ctx)
	return class, nil
}

func (s *ScheduleService) GetSchedule(ctx context.Context, id uuid.UUID) (ScheduleDetail, error) {
	key := fmt.Sprintf("%sschedule:%s", classesPrefix, id)
	return GetOrSet(s.cache, s.log, ctx, key, s.cacheTTL, func() (ScheduleDetail, error) {
		schedule, err := s.findSchedule(ctx, s.db, id)
		if err != nil {
			return ScheduleDetail{}, err
		}
		details, err := s.withOccupancy(ctx, []models.ClassSchedule{schedule})
		if err != nil {
			return ScheduleDetail{}, err
		}
		return details[0], nil
	})
}

func (s *ScheduleService) ListSchedules(ctx context.Context, f ScheduleFilter) (Page[ScheduleDetail], error) {
	f.Page, f.Limit = normalizePage(f.Page, f.Limit)
	key := classesPrefix + "list:" + f.fingerprint()

	return GetOrSet(s.cache, s.log, ctx, key, s.cacheTTL, func() (Page[ScheduleDetail], error) {
		page := Page[ScheduleDetail]{Page: f.Page, Limit: f.Limit, Items: []ScheduleDetail{}}

		q := s.db.WithContext(ctx).Model(&models.ClassSchedule{})
		if !f.IncludeInactive {
			q = q.Where("is_active = ?", true)
		}
		if f.From != nil {
			q = q.Where("start_time >= ?", f.From.UTC())
		}
		if f.To != nil {
			q = q.Where("start_time < ?", f.To.UTC())
		}
		if f.TrainerID != nil {
			q = q.Where("trainer_id = ?", *f.TrainerID)
		}
		if f.Category != "" {
			q = q.Where("class_id IN (?)", s.db.Model(&models.Class{}).Select("id").Where("LOWER(category) = ?", strings.ToLower(f.Category)))
		}

		if err := q.Session(&gorm.Session{}).Count(&page.Total).Error; err != nil {
			return page, err
		}

		var schedules []models.ClassSchedule
		err := q.Preload("Class").Preload("Trainer").
			Order("start_time ASC").
			Offset((f.Page - 1) * f.Limit).
			Limit(f.Limit).
			Find(&schedules).Error
		if err != nil {
			return page, err
		}

		items, err := s.withOccupancy(ctx, schedules)
		if err != nil {
			return page, err
		}
		page.Items = items
		return page, nil
	})
}

func (s *ScheduleService) withOccupancy(ctx context.Context, schedules []models.ClassSchedule) ([]ScheduleDetail, error) {
	out := make([]ScheduleDetail, len(schedules))
	if len(schedules) == 0 {
		return out, nil
	}

	ids := make([]uuid.UUID, len(schedules))
	for i, sc := range schedules {
		ids[i] = sc.ID
	}

	var rows []struct {
		ClassScheduleID uuid.UUID
		Confirmed       int64
	}
	err := s.db.WithContext(ctx).Model(&models.ClassBooking{}).
		Select("class_schedule_id, COUNT(*) AS confirmed").
		Where("class_schedule_id IN ? AND status = ?", ids, models.BookingConfirmed).
		Group("class_schedule_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		counts[r.ClassScheduleID] = r.Confirmed
	}

	for i, sc := range schedules {
		n := counts[sc.ID]
		left := sc.Class.MaxCapacity - int(n)
		if left < 0 {
			left = 0
		}
		out[i] = ScheduleDetail{ClassSchedule: sc, ConfirmedCount: n, SpotsLeft: left}
	}
	return out, nil
}

// HasConflict reports whether trainerID already has an active schedule
// overlapping [start, end). Touching intervals do not overlap.
func (s *ScheduleService) HasConflict(ctx context.Context, trainerID uuid.UUID, start, end time.Time, exclude *uuid.UUID) (bool, error) {
	return hasConflict(s.db.WithContext(ctx), trainerID, start, end, exclude)
}

func hasConflict(db *gorm.DB, trainerID uuid.UUID, start, end time.Time, exclude *uuid.UUID) (bool, error) {
	q := db.Model(&models.ClassSchedule{}).
		Where("trainer_id = ? AND is_active = ? AND start_time < ? AND end_time > ?", trainerID, true, end.UTC(), start.UTC())
	if exclude != nil {
		q = q.Where("id <> ?", *exclude)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// HasCapacity reports whether the schedule has fewer confirmed bookings than
// its class allows.
func (s *ScheduleService) HasCapacity(ctx context.Context, scheduleID uuid.UUID) (bool, error) {
	schedule, err := s.findSchedule(ctx, s.db, scheduleID)
	if err != nil {
		return false, err
	}
	n, err := confirmedCount(s.db.WithContext(ctx), scheduleID)
	if err != nil {
		return false, err
	}
	return n < int64(schedule.Class.MaxCapacity), nil
}
