package routes

import (
	"github.com/anjiri1684/gym_studio/handlers"
	"github.com/gofiber/fiber/v2"
)

func PublicRoutes(api fiber.Router, h *handlers.Handler) {
	api.Get("/schedules", h.ListSchedules)
	api.Get("/schedules/:scheduleId", h.GetSchedule)
	api.Get("/trainers", h.ListTrainers)
	api.Get("/trainers/:trainerId/rating", h.TrainerRating)
	api.Get("/packages", h.ListPackages)
}
