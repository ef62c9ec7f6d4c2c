package routes

import (
	"log/slog"

	config "github.com/anjiri1684/gym_studio/configs"
	"github.com/anjiri1684/gym_studio/handlers"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// NewApp builds the fiber app with the shared middleware stack and JSON
// error handler. accessLog turns on the request logger.
func NewApp(cfg config.HTTP, log *slog.Logger, accessLog bool) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:       "Gym Studio",
		CaseSensitive: true,
		ReadTimeout:   cfg.ReadTimeout,
		WriteTimeout:  cfg.WriteTimeout,
		IdleTimeout:   cfg.IdleTimeout,
		ErrorHandler:  handlers.ErrorHandler(log),
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.AllowOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Authorization",
		MaxAge:        86400,
	}))
	if accessLog {
		app.Use(logger.New(logger.Config{
			TimeFormat: "2006-01-02 15:04:05",
			TimeZone:   "UTC",
			Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		}))
	}
	return app
}
