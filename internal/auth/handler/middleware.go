package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	apperrors "github.com/innovativecursor/szc-sub001/internal/errors"
	"github.com/innovativecursor/szc-sub001/pkg/constant"
)

// RequireAuth verifies the bearer token and stashes the verified identity
// in the request locals for downstream handlers.
func (h *AuthHandler) RequireAuth(c *fiber.Ctx) error {
	claims, err := h.verifyBearer(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	c.Locals(constant.LocalsUserID, claims.UserID)
	c.Locals(constant.LocalsEmail, claims.Email)
	c.Locals(constant.LocalsRole, claims.Role)
	return c.Next()
}

// RequireRole gates a route on the caller's role. Admins pass user-level
// checks; the reverse never holds.
func (h *AuthHandler) RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := h.verifyBearer(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
		}

		if !roleSatisfies(claims.Role, role) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": apperrors.ErrForbidden.Error()})
		}

		c.Locals(constant.LocalsUserID, claims.UserID)
		c.Locals(constant.LocalsEmail, claims.Email)
		c.Locals(constant.LocalsRole, claims.Role)
		return c.Next()
	}
}

func (h *AuthHandler) verifyBearer(c *fiber.Ctx) (*claimsView, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return nil, apperrors.ErrUnauthorized
	}

	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return nil, apperrors.ErrUnauthorized
	}

	claims, err := h.tokens.VerifyAccessToken(token)
	if err != nil {
		return nil, err
	}

	return &claimsView{UserID: claims.UserID, Email: claims.Email, Role: claims.Role}, nil
}

type claimsView struct {
	UserID string
	Email  string
	Role   string
}

func roleSatisfies(have, want string) bool {
	if have == want {
		return true
	}
	return have == constant.RoleAdmin && want == constant.RoleUser
}
