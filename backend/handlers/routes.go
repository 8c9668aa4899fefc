package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// SetupRoutes registers the API, uploaded media and, when configured, the SPA.
func SetupRoutes(app *fiber.App, h *Handler) {
	cfg := h.Config
	api := app.Group("/api")

	api.Get("/health", h.Health)

	// ===== Accounts =====
	auth := api.Group("/auth")
	auth.Post("/bootstrap-admin", h.BootstrapAdmin)
	if cfg.Auth.LoginRateLimit > 0 {
		auth.Post("/login", limiter.New(limiter.Config{
			Max:        cfg.Auth.LoginRateLimit,
			Expiration: cfg.Auth.LoginRateWindow,
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(http.StatusTooManyRequests).JSON(fiber.Map{"message": "Too many login attempts, try again later"})
			},
		}), h.Login)
	} else {
		auth.Post("/login", h.Login)
	}

	authed := auth.Group("", h.RequireAuth())
	authed.Get("/me", h.Me)
	authed.Post("/change-password", h.ChangePassword)
	authed.Post("/admin/create-user", h.CreateUser)
	authed.Post("/admin/create-admin", h.CreateAdmin)
	authed.Get("/admin/users", h.GetUsers)
	authed.Put("/admin/users/:id/deactivate", h.DeactivateUser)

	// ===== Country submissions =====
	countries := api.Group("/countries")
	countries.Get("/submission/:slug", h.OptionalAuth(), h.GetSubmissionBySlug)

	protected := countries.Group("", h.RequireAuth())
	protected.Post("/submit", h.Submit)
	protected.Post("/draft", h.SaveDraft)
	protected.Get("/my-submissions", h.GetMySubmissions)
	protected.Get("/my-submissions/summary", h.GetMySummary)
	protected.Get("/my-submissions/status/:status", h.GetMySubmissionsByStatus)
	protected.Get("/my-submission/:id", h.GetMySubmission)
	protected.Put("/user/submission/:id", h.UpdateSubmission)
	protected.Put("/user/submission/:id/references", h.UpdateMyReferences)
	protected.Get("/my-stats", h.GetMyStats)

	// Admin (role checked by the workflow service)
	protected.Get("/all", h.GetAllSubmissions)
	protected.Put("/review/:id", h.ReviewSubmission)
	protected.Put("/admin/submission/:id/references", h.ManageReferences)
	protected.Get("/admin-stats", h.GetAdminStats)

	// ===== Media =====
	api.Post("/upload/image", h.RequireAuth(), h.UploadImage)
	app.Static(cfg.Media.PublicPrefix, cfg.Media.UploadDir, fiber.Static{
		Browse: false,
		MaxAge: 86400,
	})

	// ===== SPA =====
	if cfg.Server.StaticDir == "" {
		return
	}
	if _, err := os.Stat(cfg.Server.StaticDir); err != nil {
		return
	}
	app.Static("/", cfg.Server.StaticDir, fiber.Static{
		ByteRange: true,
		Browse:    false,
		MaxAge:    3600,
	})
	app.Get("/*", func(c *fiber.Ctx) error {
		return c.SendFile(filepath.Join(cfg.Server.StaticDir, "index.html"))
	})
}
