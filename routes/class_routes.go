package routes

import (
	"github.com/anjiri1684/gym_studio/handlers"
	"github.com/anjiri1684/gym_studio/middleware"
	"github.com/gofiber/fiber/v2"
)

func ClassRoutes(api fiber.Router, h *handlers.Handler, auth fiber.Handler) {
	staff := middleware.StaffRequired()

	api.Post("/classes", auth, staff, h.CreateClass)
	api.Patch("/classes/:classId", auth, staff, h.UpdateClass)
	api.Post("/packages", auth, staff, h.CreatePackage)

	// GET /schedules/:scheduleId is public, so guards are attached per route.
	schedules := api.Group("/schedules/:scheduleId")
	schedules.Patch("", auth, staff, h.UpdateSchedule)
	schedules.Delete("", auth, staff, h.DeactivateSchedule)
	schedules.Get("/bookings", auth, staff, h.ListScheduleBookings)
	schedules.Get("/waitlist", auth, staff, h.ListWaitlist)
	schedules.Post("/waitlist/promote", auth, staff, h.PromoteWaitlist)
}
