package routes

import (
	"github.com/anjiri1684/gym_studio/handlers"
	"github.com/anjiri1684/gym_studio/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Setup mounts every route on app.
func Setup(app *fiber.App, h *handlers.Handler, jwtSecret string) {
	auth := middleware.Protected(jwtSecret)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api/v1")

	AuthRoutes(api, h)
	PublicRoutes(api, h)
	MemberRoutes(api, h, auth)
	ClassRoutes(api, h, auth)
	BookingRoutes(api, h, auth)
	NotificationRoutes(api, h, auth)
}
