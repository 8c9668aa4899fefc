package handlers

import (
	"errors"
	"net/http"

	"inteqt-web/backend/config"
	"inteqt-web/backend/models"
	"inteqt-web/backend/services"
	"inteqt-web/backend/system"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const localAccount = "account"

type Handler struct {
	DB       *gorm.DB
	Accounts *services.AccountService
	Workflow *services.WorkflowService
	Media    services.MediaStore
	Config   *config.Config
}

func NewHandler(db *gorm.DB, accounts *services.AccountService, workflow *services.WorkflowService, media services.MediaStore, cfg *config.Config) *Handler {
	return &Handler{DB: db, Accounts: accounts, Workflow: workflow, Media: media, Config: cfg}
}

// statusFor maps a service error kind to its HTTP status.
func statusFor(kind services.Kind) int {
	switch kind {
	case services.KindUnauthorized:
		return http.StatusUnauthorized
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindBadRequest:
		return http.StatusBadRequest
	case services.KindConflict:
		return http.StatusConflict
	case services.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"message": ...} with the status for err's kind.
func respondError(c *fiber.Ctx, err error) error {
	return respondErrorStatus(c, statusFor(services.KindOf(err)), err)
}

func respondErrorStatus(c *fiber.Ctx, status int, err error) error {
	body := fiber.Map{"message": err.Error()}
	var appErr *services.AppError
	if errors.As(err, &appErr) && len(appErr.Invalid) > 0 {
		body["invalid"] = appErr.Invalid
	}
	if status >= http.StatusInternalServerError {
		system.Error("%s %s failed: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(body)
}

func badInput(c *fiber.Ctx) error {
	return c.Status(http.StatusBadRequest).JSON(fiber.Map{"message": "Invalid input"})
}

// currentAccount returns the account set by RequireAuth/OptionalAuth, or nil.
func currentAccount(c *fiber.Ctx) *models.Account {
	acc, _ := c.Locals(localAccount).(*models.Account)
	return acc
}

// Health reports whether the database answers.
func (h *Handler) Health(c *fiber.Ctx) error {
	sqlDB, err := h.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.UserContext())
	}
	if err != nil {
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{"status": "down", "message": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
