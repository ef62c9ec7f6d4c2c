package services

import (
	"context"
	"errors"
	"strings"

	"github.com/anjiri1684/gym_studio/models"
	"github.com/anjiri1684/gym_studio/services/serverrors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EngagementService struct {
	*base
}

type RatingSummary struct {
	TrainerID uuid.UUID `json:"trainer_id"`
	Average   float64   `json:"average"`
	Count     int64     `json:"count"`
}

// AddFavorite is idempotent.
func (s *EngagementService) AddFavorite(ctx context.Context, p Principal, memberID, classID uuid.UUID) (models.ClassFavorite, error) {
	var fav models.ClassFavorite

	member, err := s.findMember(ctx, s.db, memberID)
	if err != nil {
		return fav, err
	}
	if err := requireMember(p, member); err != nil {
		return fav, err
	}
	var class models.Class
	if err := s.db.WithContext(ctx).First(&class, "id = ?", classID).Error; err != nil {
		return fav, notFoundOr(err, "class", classID)
	}

	err = s.db.WithContext(ctx).
		Where(models.ClassFavorite{MemberID: member.ID, ClassID: class.ID}).
		FirstOrCreate(&fav).Error
	fav.Class = class
	return fav, err
}

func (s *EngagementService) RemoveFavorite(ctx context.Context, p Principal, memberID, classID uuid.UUID) error {
	member, err := s.findMember(ctx, s.db, memberID)
	if err != nil {
		return err
	}
	if err := requireMember(p, member); err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Where("member_id = ? AND class_id = ?", member.ID, classID).
		Delete(&models.ClassFavorite{}).Error
}

func (s *EngagementService) ListFavorites(ctx context.Context, p Principal, memberID uuid.UUID) ([]models.ClassFavorite, error) {
	member, err := s.findMember(ctx, s.db, memberID)
	if err != nil {
		return nil, err
	}
	if err := requireMember(p, member); err != nil {
		return nil, err
	}
	var favs []models.ClassFavorite
	err = s.db.WithContext(ctx).Preload("Class").
		Where("member_id = ?", member.ID).
		Order("created_at DESC").
		Find(&favs).Error
	return favs, err
}

// RateInstructor records or replaces the member's rating of the trainer who
// ran the schedule. Only attended classes can be rated.
func (s *EngagementService) RateInstructor(ctx context.Context, p Principal, memberID, scheduleID uuid.UUID, rating int, comment string) (models.InstructorRating, error) {
	var r models.InstructorRating

	if rating < 1 || rating > 5 {
		return r, serverrors.Validation("rating must be between 1 and 5")
	}
	member, err := s.findMember(ctx, s.db, memberID)
	if err != nil {
		return r, err
	}
	if err := requireMember(p, member); err != nil {
		return r, err
	}
	schedule, err := s.findSchedule(ctx, s.db, scheduleID)
	if err != nil {
		return r, err
	}

	var booking models.ClassBooking
	err = s.db.WithContext(ctx).
		Where("member_id = ? AND class_schedule_id = ?", member.ID, schedule.ID).
		First(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && booking.Status != models.BookingCompleted) {
		return r, serverrors.InvalidState("member %s has not completed schedule %s", member.ID, schedule.ID)
	}
	if err != nil {
		return r, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("member_id = ? AND class_schedule_id = ?", member.ID, schedule.ID).First(&r).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		r.MemberID = member.ID
		r.ClassScheduleID = schedule.ID
		r.TrainerID = schedule.TrainerID
		r.Rating = rating
		r.Comment = strings.TrimSpace(comment)
		return tx.Save(&r).Error
	})
	return r, err
}

func (s *EngagementService) TrainerAverageRating(ctx context.Context, trainerID uuid.UUID) (RatingSummary, error) {
	summary := RatingSummary{TrainerID: trainerID}

	var trainer models.Trainer
	if err := s.db.WithContext(ctx).First(&trainer, "id = ?", trainerID).Error; err != nil {
		return summary, notFoundOr(err, "trainer", trainerID)
	}

	var row struct {
		Average float64
		Count   int64
	}
	err := s.db.WithContext(ctx).Model(&models.InstructorRating{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Where("trainer_id = ?", trainerID).
		Scan(&row).Error
	summary.Average = row.Average
	summary.Count = row.Count
	return summary, err
}
