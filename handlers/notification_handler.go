package handlers

import (
	"errors"
	"log/slog"

	"github.com/anjiri1684/gym_studio/middleware"
	"github.com/anjiri1684/gym_studio/services/serverrors"
	"github.com/anjiri1684/gym_studio/websocket"
	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type NotificationSettingRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

func (h *Handler) ListNotifications(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	list, err := h.notifications.ListForUser(c.UserContext(), p.UserID, p.Role, c.QueryBool("unread", false))
	if err != nil {
		return err
	}
	return c.JSON(list)
}

func (h *Handler) MarkNotificationRead(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "notificationId")
	if err != nil {
		return err
	}
	err = h.notifications.MarkRead(c.UserContext(), p.UserID, id, h.now())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return serverrors.NotFound("notification", id)
	}
	if err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SetNotificationSetting switches a role broadcast kind on or off.
func (h *Handler) SetNotificationSetting(c *fiber.Ctx) error {
	kind := c.Params("kind")
	if kind == "" {
		return serverrors.Validation("kind is required")
	}
	var req NotificationSettingRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.notifications.SetEnabled(c.UserContext(), kind, *req.Enabled); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"kind": kind, "enabled": *req.Enabled})
}

// ServeWs keeps a live notification channel open for the authenticated
// caller. Inbound frames are only read to detect the close.
func (h *Handler) ServeWs(c *websocketcontrib.Conn) {
	p, err := middleware.PrincipalFromToken(c.Locals(middleware.TokenLocal))
	if err != nil {
		_ = c.WriteJSON(fiber.Map{"error": "Invalid token"})
		c.Close()
		return
	}

	client := &websocket.Client{UserID: p.UserID, Role: p.Role, Conn: c}
	h.clients.Register(client)
	defer func() {
		h.clients.Unregister(client)
		c.Close()
	}()

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if websocketcontrib.IsCloseError(err, websocketcontrib.CloseGoingAway, websocketcontrib.CloseNormalClosure, websocketcontrib.CloseAbnormalClosure) {
				h.log.Debug("websocket closed", slog.String("user_id", p.UserID.String()))
			} else {
				h.log.Warn("websocket read error", slog.String("user_id", p.UserID.String()), slog.Any("error", err))
			}
			return
		}
	}
}
