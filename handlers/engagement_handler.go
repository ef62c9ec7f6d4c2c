package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type RateInstructorRequest struct {
	ScheduleID string `json:"schedule_id" validate:"required,uuid"`
	Rating     int    `json:"rating" validate:"required,min=1,max=5"`
	Comment    string `json:"comment" validate:"max=1000"`
}

func (h *Handler) AddFavorite(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	memberID, err := h.memberParam(c, p)
	if err != nil {
		return err
	}
	classID, err := uuidParam(c, "classId")
	if err != nil {
		return err
	}
	fav, err := h.svc.Engagement.AddFavorite(c.UserContext(), p, memberID, classID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fav)
}

func (h *Handler) RemoveFavorite(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	memberID, err := h.memberParam(c, p)
	if err != nil {
		return err
	}
	classID, err := uuidParam(c, "classId")
	if err != nil {
		return err
	}
	if err := h.svc.Engagement.RemoveFavorite(c.UserContext(), p, memberID, classID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) ListFavorites(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	memberID, err := h.memberParam(c, p)
	if err != nil {
		return err
	}
	favs, err := h.svc.Engagement.ListFavorites(c.UserContext(), p, memberID)
	if err != nil {
		return err
	}
	return c.JSON(favs)
}

func (h *Handler) RateInstructor(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	memberID, err := h.memberParam(c, p)
	if err != nil {
		return err
	}
	var req RateInstructorRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	rating, err := h.svc.Engagement.RateInstructor(c.UserContext(), p, memberID, uuid.MustParse(req.ScheduleID), req.Rating, req.Comment)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(rating)
}

func (h *Handler) TrainerRating(c *fiber.Ctx) error {
	id, err := uuidParam(c, "trainerId")
	if err != nil {
		return err
	}
	summary, err := h.svc.Engagement.TrainerAverageRating(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(summary)
}
