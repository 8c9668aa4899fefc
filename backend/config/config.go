// Package config holds runtime configuration for the inte-QT backend.
// Precedence: defaults < YAML file < .env file < environment variables.
package config

import "time"

// Config holds all runtime configuration.
type Config struct {
	Server   Server   `yaml:"server"`
	Database Database `yaml:"database"`
	Auth     Auth     `yaml:"auth"`
	Workflow Workflow `yaml:"workflow"`
	Media    Media    `yaml:"media"`
	Logging  Logging  `yaml:"logging"`
	GeoIP    GeoIP    `yaml:"geoip"`
	Notify   Notify   `yaml:"notify"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port           string `yaml:"port"`
	CORSOrigins    string `yaml:"cors_origins"`     // Comma-separated, "*" allows all
	BodyLimitBytes int    `yaml:"body_limit_bytes"` // Fiber request body limit
	StaticDir      string `yaml:"static_dir"`       // Built SPA, optional
}

// Database holds the SQLite database location.
type Database struct {
	Path string `yaml:"path"`
}

// Auth holds account and session settings.
type Auth struct {
	JWTSecret       string        `yaml:"jwt_secret"`
	TokenTTL        time.Duration `yaml:"token_ttl"`
	BcryptCost      int           `yaml:"bcrypt_cost"`
	AdminDomain     string        `yaml:"admin_domain"`     // e.g. "@inte-qt.com"
	AdminAllowList  []string      `yaml:"admin_allow_list"` // Emails permitted to hold the admin role
	LoginRateLimit  int           `yaml:"login_rate_limit"` // Attempts per window per IP, 0 = disabled
	LoginRateWindow time.Duration `yaml:"login_rate_window"`
}

// Workflow holds submission workflow tuning.
type Workflow struct {
	DefaultPageSize int `yaml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`
	SlugMaxAttempts int `yaml:"slug_max_attempts"` // Upper bound on "-N" suffixes tried at approval
}

// Media holds image upload settings.
type Media struct {
	UploadDir    string   `yaml:"upload_dir"`
	PublicPrefix string   `yaml:"public_prefix"` // URL prefix the upload dir is served under
	MaxBytes     int64    `yaml:"max_bytes"`
	AllowedTypes []string `yaml:"allowed_types"`
}

// Logging holds file logger configuration.
type Logging struct {
	Dir   string `yaml:"dir"`
	Level string `yaml:"level"`
}

// GeoIP points at an optional MaxMind country database.
type GeoIP struct {
	Path string `yaml:"path"`
}

// Notify holds Discord webhook settings.
type Notify struct {
	DiscordWebhookURL string `yaml:"discord_webhook_url"`
	DailyReport       bool   `yaml:"daily_report"`
}

// Defaults returns a Config with values suitable for local development.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:           "8080",
			CORSOrigins:    "*",
			BodyLimitBytes: 8 * 1024 * 1024,
		},
		Database: Database{
			Path: "inteqt.db",
		},
		Auth: Auth{
			JWTSecret:       "dev-secret-change-me",
			TokenTTL:        7 * 24 * time.Hour,
			BcryptCost:      10,
			AdminDomain:     "@inte-qt.com",
			LoginRateLimit:  10,
			LoginRateWindow: time.Minute,
		},
		Workflow: Workflow{
			DefaultPageSize: 10,
			MaxPageSize:     100,
			SlugMaxAttempts: 100,
		},
		Media: Media{
			UploadDir:    "./uploads",
			PublicPrefix: "/uploads",
			MaxBytes:     5 * 1024 * 1024,
			AllowedTypes: []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
		},
		Logging: Logging{
			Dir:   "./logs",
			Level: "info",
		},
		Notify: Notify{
			DailyReport: true,
		},
	}
}
