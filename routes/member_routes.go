package routes

import (
	"github.com/anjiri1684/gym_studio/handlers"
	"github.com/anjiri1684/gym_studio/middleware"
	"github.com/anjiri1684/gym_studio/models"
	"github.com/gofiber/fiber/v2"
)

// MemberRoutes serves a member's own resources. ":memberId" accepts "me".
func MemberRoutes(api fiber.Router, h *handlers.Handler, auth fiber.Handler) {
	api.Get("/members", auth, middleware.StaffRequired(), h.ListMembers)
	api.Post("/trainers", auth, middleware.RolesRequired(models.RoleAdmin, models.RoleStaff), h.CreateTrainer)

	member := api.Group("/members/:memberId", auth)
	member.Get("", h.GetMember)
	member.Patch("/status", middleware.RolesRequired(models.RoleAdmin, models.RoleStaff), h.SetMemberStatus)
	member.Get("/bookings", h.ListMemberBookings)
	member.Get("/waitlist", h.MemberWaitlist)

	member.Get("/credits", h.GetMemberCredits)
	member.Get("/transactions", h.ListTransactions)
	member.Post("/passes", h.PurchasePackage)
	member.Post("/statements", h.GenerateStatement)

	member.Get("/favorites", h.ListFavorites)
	member.Put("/favorites/:classId", h.AddFavorite)
	member.Delete("/favorites/:classId", h.RemoveFavorite)
	member.Post("/ratings", h.RateInstructor)
}
