package handlers

import (
	"time"

	"github.com/anjiri1684/gym_studio/middleware"
	"github.com/anjiri1684/gym_studio/models"
	"github.com/anjiri1684/gym_studio/services"
	"github.com/gofiber/fiber/v2"
)

type RegisterRequest struct {
	FullName string `json:"full_name" validate:"required,min=2,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Phone    string `json:"phone" validate:"omitempty,max=50"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

// Register signs up a new member.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	member, err := h.svc.Members.CreateMember(c.UserContext(), services.CreateMemberInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(member)
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.svc.Members.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	now := h.now()
	token, err := middleware.IssueToken(h.auth.Secret, user.ID, user.Role, h.auth.TTL, now)
	if err != nil {
		return err
	}
	return c.JSON(LoginResponse{Token: token, ExpiresAt: now.Add(h.auth.TTL).UTC(), User: user})
}
