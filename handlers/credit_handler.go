package handlers

import (
	"github.com/anjiri1684/gym_studio/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CreatePackageRequest struct {
	Name             string  `json:"name" validate:"required,max=255"`
	Description      string  `json:"description"`
	CreditsIncluded  int     `json:"credits_included" validate:"min=0"`
	Price            float64 `json:"price" validate:"min=0"`
	Currency         string  `json:"currency" validate:"omitempty,len=3"`
	ValidityDays     int     `json:"validity_days" validate:"min=0"`
	MonthlyUnlimited bool    `json:"monthly_unlimited"`
}

type PurchasePackageRequest struct {
	PackageID string `json:"package_id" validate:"required,uuid"`
}

func (h *Handler) CreatePackage(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req CreatePackageRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	pkg, err := h.svc.Credits.CreatePackage(c.UserContext(), p, services.CreatePackageInput{
		Name:             req.Name,
		Description:      req.Description,
		CreditsIncluded:  req.CreditsIncluded,
		Price:            req.Price,
		Currency:         req.Currency,
		ValidityDays:     req.ValidityDays,
		MonthlyUnlimited: req.MonthlyUnlimited,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(pkg)
}

func (h *Handler) ListPackages(c *fiber.Ctx) error {
	pkgs, err := h.svc.Credits.ListPackages(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(pkgs)
}

func (h *Handler) PurchasePackage(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	memberID, err := h.memberParam(c, p)
	if err != nil {
		return err
	}
	var req PurchasePackageRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	pass, err := h.svc.Credits.PurchasePackage(c.UserContext(), p, memberID, uuid.MustParse(req.PackageID))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(pass)
}

func (h *Handler) GetMemberCredits(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	memberID, err := h.memberParam(c, p)
	if err != nil {
		return err
	}
	summary, err := h.svc.Credits.GetMemberCredits(c.UserContext(), p, memberID)
	if err != nil {
		return err
	}
	return c.JSON(summary)
}

func (h *Handler) ListTransactions(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	memberID, err := h.memberParam(c, p)
	if err != nil {
		return err
	}
	page, limit := pageQuery(c)
	out, err := h.svc.Credits.ListTransactions(c.UserContext(), p, memberID, page, limit)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// GenerateStatement renders the member's ledger to PDF and returns the
// stored statement with its download URL.
func (h *Handler) GenerateStatement(c *fiber.Ctx) error {
	if h.statements == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "Statements are not configured")
	}
	p, err := principal(c)
	if err != nil {
		return err
	}
	memberID, err := h.memberParam(c, p)
	if err != nil {
		return err
	}
	statement, err := h.statements.Generate(c.UserContext(), p, memberID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(statement)
}
