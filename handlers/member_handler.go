package handlers

import (
	"github.com/anjiri1684/gym_studio/services"
	"github.com/gofiber/fiber/v2"
)

type CreateTrainerRequest struct {
	FullName       string `json:"full_name" validate:"required,max=255"`
	Specialization string `json:"specialization" validate:"max=255"`
	Email          string `json:"email" validate:"omitempty,email"`
	Password       string `json:"password" validate:"required_with=Email,omitempty,min=8"`
}

type MemberStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active suspended"`
}

func (h *Handler) GetMember(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := h.memberParam(c, p)
	if err != nil {
		return err
	}
	member, err := h.svc.Members.GetMember(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	return c.JSON(member)
}

func (h *Handler) ListMembers(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	page, limit := pageQuery(c)
	out, err := h.svc.Members.ListMembers(c.UserContext(), p, c.Query("search"), page, limit)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (h *Handler) CreateTrainer(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req CreateTrainerRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	trainer, err := h.svc.Members.CreateTrainer(c.UserContext(), p, services.CreateTrainerInput{
		FullName:       req.FullName,
		Specialization: req.Specialization,
		Email:          req.Email,
		Password:       req.Password,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(trainer)
}

func (h *Handler) ListTrainers(c *fiber.Ctx) error {
	trainers, err := h.svc.Members.ListTrainers(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(trainers)
}

func (h *Handler) SetMemberStatus(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "memberId")
	if err != nil {
		return err
	}
	var req MemberStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	member, err := h.svc.Members.SetMemberStatus(c.UserContext(), p, id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(member)
}
