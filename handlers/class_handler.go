package handlers

import (
	"time"

	"github.com/anjiri1684/gym_studio/services"
	"github.com/anjiri1684/gym_studio/services/serverrors"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CreateClassRequest struct {
	Name            string    `json:"name" validate:"required,max=255"`
	Description     string    `json:"description"`
	Category        string    `json:"category" validate:"max=100"`
	DurationMinutes int       `json:"duration_minutes" validate:"required,min=1,max=1440"`
	MaxCapacity     int       `json:"max_capacity" validate:"required,min=1"`
	TrainerID       string    `json:"trainer_id" validate:"required,uuid"`
	StartTime       time.Time `json:"start_time" validate:"required"`
	RecurrenceRule  string    `json:"recurrence_rule"`
	MaxOccurrences  int       `json:"max_occurrences" validate:"min=0,max=366"`
}

type UpdateClassRequest struct {
	Name            *string `json:"name" validate:"omitempty,min=1,max=255"`
	Description     *string `json:"description"`
	Category        *string `json:"category" validate:"omitempty,max=100"`
	DurationMinutes *int    `json:"duration_minutes" validate:"omitempty,min=1,max=1440"`
	MaxCapacity     *int    `json:"max_capacity" validate:"omitempty,min=1"`
}

type UpdateScheduleRequest struct {
	StartTime *time.Time `json:"start_time"`
	TrainerID *string    `json:"trainer_id" validate:"omitempty,uuid"`
	IsActive  *bool      `json:"is_active"`
}

// CreateClass creates the class and its schedules, expanding the
// recurrence rule when one is given.
func (h *Handler) CreateClass(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req CreateClassRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	schedule, err := h.svc.Schedules.CreateClassWithSchedule(c.UserContext(), p, services.CreateClassInput{
		Name:            req.Name,
		Description:     req.Description,
		Category:        req.Category,
		DurationMinutes: req.DurationMinutes,
		MaxCapacity:     req.MaxCapacity,
		TrainerID:       uuid.MustParse(req.TrainerID),
		StartTime:       req.StartTime,
		RecurrenceRule:  req.RecurrenceRule,
		MaxOccurrences:  req.MaxOccurrences,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(schedule)
}

func (h *Handler) UpdateClass(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "classId")
	if err != nil {
		return err
	}
	var req UpdateClassRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	class, err := h.svc.Schedules.UpdateClass(c.UserContext(), p, id, services.UpdateClassInput{
		Name:            req.Name,
		Description:     req.Description,
		Category:        req.Category,
		DurationMinutes: req.DurationMinutes,
		MaxCapacity:     req.MaxCapacity,
	})
	if err != nil {
		return err
	}
	return c.JSON(class)
}

func (h *Handler) ListSchedules(c *fiber.Ctx) error {
	page, limit := pageQuery(c)
	f := services.ScheduleFilter{
		Category: c.Query("category"),
		Page:     page,
		Limit:    limit,
	}
	for name, dst := range map[string]**time.Time{"from": &f.From, "to": &f.To} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return serverrors.Validation("%s must be an RFC 3339 timestamp", name)
		}
		*dst = &t
	}
	if raw := c.Query("trainer_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return serverrors.Validation("invalid trainer_id")
		}
		f.TrainerID = &id
	}

	out, err := h.svc.Schedules.ListSchedules(c.UserContext(), f)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (h *Handler) GetSchedule(c *fiber.Ctx) error {
	id, err := uuidParam(c, "scheduleId")
	if err != nil {
		return err
	}
	detail, err := h.svc.Schedules.GetSchedule(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(detail)
}

func (h *Handler) UpdateSchedule(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "scheduleId")
	if err != nil {
		return err
	}
	var req UpdateScheduleRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	in := services.UpdateScheduleInput{StartTime: req.StartTime, IsActive: req.IsActive}
	if req.TrainerID != nil {
		trainerID := uuid.MustParse(*req.TrainerID)
		in.TrainerID = &trainerID
	}
	schedule, err := h.svc.Schedules.UpdateSchedule(c.UserContext(), p, id, in)
	if err != nil {
		return err
	}
	return c.JSON(schedule)
}

// DeactivateSchedule cancels a class occurrence and tells the booked members.
func (h *Handler) DeactivateSchedule(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "scheduleId")
	if err != nil {
		return err
	}
	schedule, err := h.svc.Schedules.DeactivateSchedule(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	return c.JSON(schedule)
}
