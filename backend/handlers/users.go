package handlers

import (
	"net/http"

	"inteqt-web/backend/models"
	"inteqt-web/backend/services"

	"github.com/gofiber/fiber/v2"
)

// GetUsers lists accounts.
// GET /api/auth/admin/users
func (h *Handler) GetUsers(c *fiber.Ctx) error {
	accounts, err := h.Accounts.ListAccounts(c.UserContext(), currentAccount(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(accounts)
}

// CreateUser creates an account; role defaults to user.
// POST /api/auth/admin/create-user
func (h *Handler) CreateUser(c *fiber.Ctx) error {
	var in services.AccountInput
	if err := c.BodyParser(&in); err != nil {
		return badInput(c)
	}
	return h.createAccount(c, in)
}

// CreateAdmin creates an admin account.
// POST /api/auth/admin/create-admin
func (h *Handler) CreateAdmin(c *fiber.Ctx) error {
	var in services.AccountInput
	if err := c.BodyParser(&in); err != nil {
		return badInput(c)
	}
	in.Role = models.RoleAdmin
	return h.createAccount(c, in)
}

func (h *Handler) createAccount(c *fiber.Ctx, in services.AccountInput) error {
	acc, err := h.Accounts.CreateAccount(c.UserContext(), currentAccount(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"message": "User created", "user": acc})
}

// DeactivateUser disables and soft-deletes an account.
// PUT /api/auth/admin/users/:id/deactivate
func (h *Handler) DeactivateUser(c *fiber.Ctx) error {
	if err := h.Accounts.Deactivate(c.UserContext(), currentAccount(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "User deactivated"})
}
