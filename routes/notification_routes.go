package routes

import (
	"github.com/anjiri1684/gym_studio/handlers"
	"github.com/anjiri1684/gym_studio/middleware"
	"github.com/anjiri1684/gym_studio/models"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func NotificationRoutes(api fiber.Router, h *handlers.Handler, auth fiber.Handler) {
	notifications := api.Group("/notifications", auth)
	notifications.Get("", h.ListNotifications)
	notifications.Post("/:notificationId/read", h.MarkNotificationRead)

	api.Put("/admin/notification-settings/:kind", auth, middleware.RolesRequired(models.RoleAdmin), h.SetNotificationSetting)

	api.Get("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	}, auth, websocket.New(h.ServeWs))
}
