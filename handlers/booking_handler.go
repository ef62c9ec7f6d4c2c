package handlers

import (
	"github.com/anjiri1684/gym_studio/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type BookClassRequest struct {
	ScheduleID string `json:"schedule_id" validate:"required,uuid"`
	MemberID   string `json:"member_id" validate:"omitempty,uuid"`
}

type UpdateBookingStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=CONFIRMED CANCELLED COMPLETED NO_SHOW WAITLISTED"`
}

// BookClass books the caller, or the given member when staff book on
// someone's behalf. A full class answers 409 with the waitlist position.
func (h *Handler) BookClass(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req BookClassRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	memberID, err := h.memberOrSelf(c, p, req.MemberID)
	if err != nil {
		return err
	}

	booking, err := h.svc.Bookings.BookClass(c.UserContext(), p, memberID, uuid.MustParse(req.ScheduleID))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(booking)
}

func (h *Handler) GetBooking(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "bookingId")
	if err != nil {
		return err
	}
	booking, err := h.svc.Bookings.GetBooking(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	return c.JSON(booking)
}

func (h *Handler) CancelBooking(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "bookingId")
	if err != nil {
		return err
	}
	booking, err := h.svc.Bookings.CancelBooking(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	return c.JSON(booking)
}

func (h *Handler) UpdateBookingStatus(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "bookingId")
	if err != nil {
		return err
	}
	var req UpdateBookingStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	booking, err := h.svc.Bookings.UpdateBookingStatus(c.UserContext(), p, id, models.BookingStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(booking)
}

func (h *Handler) ListMemberBookings(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	memberID, err := h.memberParam(c, p)
	if err != nil {
		return err
	}
	bookings, err := h.svc.Bookings.ListMemberBookings(c.UserContext(), p, memberID, models.BookingStatus(c.Query("status")))
	if err != nil {
		return err
	}
	return c.JSON(bookings)
}

func (h *Handler) ListScheduleBookings(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "scheduleId")
	if err != nil {
		return err
	}
	bookings, err := h.svc.Bookings.ListScheduleBookings(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	return c.JSON(bookings)
}
