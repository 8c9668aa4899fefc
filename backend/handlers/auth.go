package handlers

import (
	"net/http"
	"strings"

	"inteqt-web/backend/services"

	"github.com/gofiber/fiber/v2"
)

// LoginRequest struct
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// BootstrapAdmin creates the first admin account.
// POST /api/auth/bootstrap-admin
func (h *Handler) BootstrapAdmin(c *fiber.Ctx) error {
	var in services.AccountInput
	if err := c.BodyParser(&in); err != nil {
		return badInput(c)
	}

	acc, err := h.Accounts.BootstrapFirstAdmin(c.UserContext(), in)
	if err != nil {
		// "Admin already exists" is reported as 403 like the other refusals.
		if services.KindOf(err) == services.KindConflict {
			return respondErrorStatus(c, http.StatusForbidden, err)
		}
		return respondError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"message": "Admin created", "user": acc.Summary()})
}

// Login issues a bearer token.
// POST /api/auth/login
func (h *Handler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badInput(c)
	}

	res, err := h.Accounts.Login(c.UserContext(), req.Email, req.Password, c.IP())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"token":      res.Token,
		"expires_at": res.ExpiresAt,
		"user":       res.Account.Summary(),
	})
}

// Me returns the authenticated account.
// GET /api/auth/me
func (h *Handler) Me(c *fiber.Ctx) error {
	return c.JSON(currentAccount(c))
}

// ChangePassword handler
// POST /api/auth/change-password
func (h *Handler) ChangePassword(c *fiber.Ctx) error {
	var req struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badInput(c)
	}

	if err := h.Accounts.ChangePassword(c.UserContext(), currentAccount(c), req.OldPassword, req.NewPassword); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password updated"})
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	return token, token != ""
}

// RequireAuth resolves the bearer token to an active account.
func (h *Handler) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c)
		if !ok {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"message": "Missing or malformed authorization header"})
		}

		acc, err := h.Accounts.Authenticate(c.UserContext(), token)
		if err != nil {
			return respondError(c, err)
		}

		c.Locals(localAccount, acc)
		return c.Next()
	}
}

// OptionalAuth sets the account when a valid token is present and
// otherwise lets the request through anonymously.
func (h *Handler) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token, ok := bearerToken(c); ok {
			if acc, err := h.Accounts.Authenticate(c.UserContext(), token); err == nil {
				c.Locals(localAccount, acc)
			}
		}
		return c.Next()
	}
}
