package routes

import (
	"github.com/anjiri1684/gym_studio/handlers"
	"github.com/anjiri1684/gym_studio/middleware"
	"github.com/gofiber/fiber/v2"
)

func BookingRoutes(api fiber.Router, h *handlers.Handler, auth fiber.Handler) {
	booking := api.Group("/bookings", auth)
	booking.Post("", h.BookClass)
	booking.Get("/:bookingId", h.GetBooking)
	booking.Post("/:bookingId/cancel", h.CancelBooking)
	booking.Patch("/:bookingId/status", middleware.StaffRequired(), h.UpdateBookingStatus)

	waitlist := api.Group("/waitlist", auth)
	waitlist.Post("", h.JoinWaitlist)
	waitlist.Delete("/:entryId", h.LeaveWaitlist)
}
