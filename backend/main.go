package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"inteqt-web/backend/config"
	"inteqt-web/backend/handlers"
	"inteqt-web/backend/models"
	"inteqt-web/backend/services"
	"inteqt-web/backend/system"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 0. Initialize Logger
	if err := system.InitLogger(cfg.Logging.Dir, cfg.Logging.Level); err != nil {
		log.Printf("Warning: Could not initialize file logger: %v", err)
	}
	defer system.Close()

	system.Info("inte-QT backend starting...")

	// 1. Setup Database
	db, err := OpenDatabase(cfg.Database.Path)
	if err != nil {
		system.Error("Failed to open database: %v", err)
		log.Fatal("Failed to open database:", err)
	}
	system.Info("Database ready: %s", cfg.Database.Path)

	// 2. Setup Services
	geo, err := services.NewGeoIPService(cfg.GeoIP.Path)
	if err != nil {
		system.Warn("GeoIP disabled: %v", err)
		geo, _ = services.NewGeoIPService("")
	}
	defer geo.Close()

	webhook := services.NewWebhookService()
	if cfg.Notify.DiscordWebhookURL != "" {
		webhook.SetWebhookURL(cfg.Notify.DiscordWebhookURL)
		system.Info("Discord webhook configured")
	}

	media, err := services.NewLocalMediaStore(cfg.Media)
	if err != nil {
		log.Fatalf("CRITICAL: media store unavailable: %v", err)
	}

	accounts := services.NewAccountService(db, cfg.Auth, geo)
	workflow := services.NewWorkflowService(db, cfg.Workflow, media, webhook)
	if len(cfg.Auth.AdminAllowList) == 0 {
		system.Warn("ADMIN_EMAILS is empty: no account can be bootstrapped or promoted to admin")
	}

	var reporter *services.DailyReporter
	if cfg.Notify.DailyReport && webhook.IsEnabled() {
		reporter = services.NewDailyReporter(db, webhook)
		reporter.Start()
	}

	// 3. Setup Handlers
	h := handlers.NewHandler(db, accounts, workflow, media, cfg)
	app := NewApp(cfg)
	handlers.SetupRoutes(app, h)

	// Graceful Shutdown Handling
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c // Wait for signal
		system.Info("Gracefully shutting down...")
		if reporter != nil {
			reporter.Stop()
		}
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	system.Info("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatal(err)
	}
}

// OpenDatabase opens SQLite at path and migrates the schema.
func OpenDatabase(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	// WAL avoids "database is locked" between readers and the writer
	if err := db.Exec("PRAGMA journal_mode=WAL;").Error; err != nil {
		system.Warn("Failed to enable WAL mode: %v", err)
	}

	if err := db.AutoMigrate(&models.Account{}, &models.CountryProfile{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// NewApp builds the fiber app with the shared middleware stack.
func NewApp(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "inte-QT",
		BodyLimit: cfg.Server.BodyLimitBytes,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${ip} | ${locals:requestid} | ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
		Output:     os.Stdout,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.Server.CORSOriginList(), ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	return app
}
