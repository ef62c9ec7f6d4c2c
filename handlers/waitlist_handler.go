package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type JoinWaitlistRequest struct {
	ScheduleID string `json:"schedule_id" validate:"required,uuid"`
	MemberID   string `json:"member_id" validate:"omitempty,uuid"`
}

func (h *Handler) JoinWaitlist(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req JoinWaitlistRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	memberID, err := h.memberOrSelf(c, p, req.MemberID)
	if err != nil {
		return err
	}

	entry, err := h.svc.Waitlist.JoinWaitlist(c.UserContext(), p, memberID, uuid.MustParse(req.ScheduleID))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

func (h *Handler) LeaveWaitlist(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "entryId")
	if err != nil {
		return err
	}
	entry, err := h.svc.Waitlist.LeaveWaitlist(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	return c.JSON(entry)
}

func (h *Handler) ListWaitlist(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "scheduleId")
	if err != nil {
		return err
	}
	entries, err := h.svc.Waitlist.ListWaitlist(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	return c.JSON(entries)
}

func (h *Handler) MemberWaitlist(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	memberID, err := h.memberParam(c, p)
	if err != nil {
		return err
	}
	entries, err := h.svc.Waitlist.MemberWaitlist(c.UserContext(), p, memberID)
	if err != nil {
		return err
	}
	return c.JSON(entries)
}

// PromoteWaitlist lets staff pull the next waiting member in by hand.
func (h *Handler) PromoteWaitlist(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "scheduleId")
	if err != nil {
		return err
	}
	booking, err := h.svc.Waitlist.PromoteNext(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	if booking == nil {
		return c.JSON(fiber.Map{"promoted": false})
	}
	return c.JSON(fiber.Map{"promoted": true, "booking": booking})
}
