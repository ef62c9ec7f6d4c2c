package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/anjiri1684/gym_studio/middleware"
	"github.com/anjiri1684/gym_studio/models"
	"github.com/anjiri1684/gym_studio/services"
	"github.com/anjiri1684/gym_studio/services/serverrors"
	"github.com/anjiri1684/gym_studio/websocket"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var validate = validator.New()

// NotificationStore is the read side of the notification service.
type NotificationStore interface {
	ListForUser(ctx context.Context, userID uuid.UUID, role string, unreadOnly bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID, at time.Time) error
	SetEnabled(ctx context.Context, kind string, enabled bool) error
}

// ClientRegistry tracks live websocket clients.
type ClientRegistry interface {
	Register(c *websocket.Client)
	Unregister(c *websocket.Client)
}

type AuthConfig struct {
	Secret string
	TTL    time.Duration
}

type Deps struct {
	Services      *services.Services
	Statements    *services.StatementService
	Notifications NotificationStore
	Clients       ClientRegistry
	Auth          AuthConfig
	Log           *slog.Logger
	Now           func() time.Time
}

type Handler struct {
	svc           *services.Services
	statements    *services.StatementService
	notifications NotificationStore
	clients       ClientRegistry
	auth          AuthConfig
	log           *slog.Logger
	now           func() time.Time
}

func New(d Deps) *Handler {
	h := &Handler{
		svc:           d.Services,
		statements:    d.Statements,
		notifications: d.Notifications,
		clients:       d.Clients,
		auth:          d.Auth,
		log:           d.Log,
		now:           d.Now,
	}
	if h.log == nil {
		h.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.auth.TTL <= 0 {
		h.auth.TTL = 24 * time.Hour
	}
	return h
}

// StatusFor maps a service error to an HTTP status.
func StatusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, serverrors.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, serverrors.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, serverrors.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, serverrors.ErrInvalidState):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, serverrors.ErrInvalidRecurrence), errors.Is(err, serverrors.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, serverrors.ErrUnauthorized):
		return fiber.StatusUnauthorized
	}
	return fiber.StatusInternalServerError
}

// ErrorHandler renders every error returned by a handler as
// {"status":"error","code":N,"message":...}.
func ErrorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := StatusFor(err)
		body := fiber.Map{
			"status":  "error",
			"code":    code,
			"message": err.Error(),
		}

		var waitlisted *serverrors.WaitlistedError
		if errors.As(err, &waitlisted) {
			body["waitlisted"] = true
			body["waitlist_position"] = waitlisted.Position
		}

		if code >= fiber.StatusInternalServerError {
			log.Error("request failed",
				slog.String("method", c.Method()),
				slog.String("path", c.Path()),
				slog.Any("error", err))
			body["message"] = "Internal server error"
		}
		return c.Status(code).JSON(body)
	}
}

func principal(c *fiber.Ctx) (services.Principal, error) {
	p, err := middleware.CurrentPrincipal(c)
	if err != nil {
		return p, fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}
	return p, nil
}

func uuidParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, serverrors.Validation("invalid %s", name)
	}
	return id, nil
}

func bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Cannot parse JSON")
	}
	if err := validate.Struct(dst); err != nil {
		return serverrors.Validation("%s", err.Error())
	}
	return nil
}

// memberParam resolves :memberId, where "me" stands for the caller's own
// member profile.
func (h *Handler) memberParam(c *fiber.Ctx, p services.Principal) (uuid.UUID, error) {
	if c.Params("memberId") == "me" {
		return h.ownMember(c, p)
	}
	return uuidParam(c, "memberId")
}

// memberOrSelf parses an optional member id from a request body and falls
// back to the caller's own profile.
func (h *Handler) memberOrSelf(c *fiber.Ctx, p services.Principal, raw string) (uuid.UUID, error) {
	if raw == "" {
		return h.ownMember(c, p)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, serverrors.Validation("invalid member_id")
	}
	return id, nil
}

func (h *Handler) ownMember(c *fiber.Ctx, p services.Principal) (uuid.UUID, error) {
	m, err := h.svc.Members.MemberForUser(c.UserContext(), p.UserID)
	if err != nil {
		return uuid.Nil, err
	}
	return m.ID, nil
}

func pageQuery(c *fiber.Ctx) (int, int) {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	return page, limit
}
