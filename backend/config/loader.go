package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "inteqt.yaml"

// devSecret is the JWT secret shipped in Defaults. It is refused when
// INTEQT_ENV=production.
const devSecret = "dev-secret-change-me"

// Load returns a Config using the hierarchy: defaults < YAML < .env < ENV.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile, ".env")
}

// LoadFrom is Load with explicit file locations. Both files are optional.
func LoadFrom(yamlPath, envPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	// godotenv never overrides variables already present in the process.
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config env file: %w", err)
		}
	}

	loadEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}
	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "INTEQT_PORT")
	setString(&cfg.Server.CORSOrigins, "INTEQT_CORS_ORIGINS")
	setInt(&cfg.Server.BodyLimitBytes, "INTEQT_BODY_LIMIT")
	setString(&cfg.Server.StaticDir, "INTEQT_STATIC_DIR")

	setString(&cfg.Database.Path, "INTEQT_DB_PATH")

	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setDuration(&cfg.Auth.TokenTTL, "INTEQT_TOKEN_TTL")
	setInt(&cfg.Auth.BcryptCost, "INTEQT_BCRYPT_COST")
	setString(&cfg.Auth.AdminDomain, "INTEQT_ADMIN_DOMAIN")
	setList(&cfg.Auth.AdminAllowList, "ADMIN_EMAILS")
	setInt(&cfg.Auth.LoginRateLimit, "INTEQT_LOGIN_RATE_LIMIT")
	setDuration(&cfg.Auth.LoginRateWindow, "INTEQT_LOGIN_RATE_WINDOW")

	setInt(&cfg.Workflow.DefaultPageSize, "INTEQT_PAGE_SIZE")
	setInt(&cfg.Workflow.MaxPageSize, "INTEQT_MAX_PAGE_SIZE")
	setInt(&cfg.Workflow.SlugMaxAttempts, "INTEQT_SLUG_MAX_ATTEMPTS")

	setString(&cfg.Media.UploadDir, "INTEQT_UPLOAD_DIR")
	setString(&cfg.Media.PublicPrefix, "INTEQT_UPLOAD_PREFIX")
	setInt64(&cfg.Media.MaxBytes, "INTEQT_UPLOAD_MAX_BYTES")
	setList(&cfg.Media.AllowedTypes, "INTEQT_UPLOAD_TYPES")

	setString(&cfg.Logging.Dir, "INTEQT_LOG_DIR")
	setString(&cfg.Logging.Level, "INTEQT_LOG_LEVEL")

	setString(&cfg.GeoIP.Path, "INTEQT_GEOIP_PATH")

	setString(&cfg.Notify.DiscordWebhookURL, "DISCORD_WEBHOOK_URL")
	setBool(&cfg.Notify.DailyReport, "INTEQT_DAILY_REPORT")
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("jwt secret is required")
	}
	if c.Auth.JWTSecret == devSecret && strings.EqualFold(os.Getenv("INTEQT_ENV"), "production") {
		return errors.New("jwt secret must be set in production")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("token ttl must be positive")
	}
	if !strings.HasPrefix(c.Auth.AdminDomain, "@") {
		return fmt.Errorf("admin domain %q must start with @", c.Auth.AdminDomain)
	}
	if c.Workflow.DefaultPageSize < 1 || c.Workflow.MaxPageSize < c.Workflow.DefaultPageSize {
		return errors.New("page sizes must be positive and max >= default")
	}
	if c.Workflow.SlugMaxAttempts < 1 {
		return errors.New("slug max attempts must be positive")
	}
	if c.Media.MaxBytes <= 0 {
		return errors.New("media max bytes must be positive")
	}
	return nil
}

// CORSOriginList splits Server.CORSOrigins for middleware that wants a list.
func (s Server) CORSOriginList() []string {
	return splitList(s.CORSOrigins)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func setList(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = splitList(v)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
