package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/innovativecursor/szc-sub001/pkg/constant"
)

func RegisterRoutes(app *fiber.App, h *AuthHandler) {
	auth := app.Group("/auth")
	auth.Post("/register", h.Register)
	auth.Post("/login", h.Login)
	auth.Post("/refresh", h.Refresh)

	auth.Get("/profile", h.RequireAuth, h.GetProfile)
	auth.Put("/profile", h.RequireAuth, h.UpdateProfile)
	auth.Post("/change-password", h.RequireAuth, h.ChangePassword)
	auth.Post("/logout", h.RequireAuth, h.Logout)

	// Admin-only endpoints
	admin := app.Group("/admin", h.RequireRole(constant.RoleAdmin))
	admin.Get("/users", h.GetAllUsers)
	admin.Get("/users/:id/sessions", h.GetUserSessions)
	admin.Delete("/users/:id/sessions", h.ForceLogout)
	admin.Patch("/users/:id/role", h.UpdateUserRole)
}
