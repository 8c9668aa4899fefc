package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "@inte-qt.com", cfg.Auth.AdminDomain)
	assert.Equal(t, 10, cfg.Workflow.DefaultPageSize)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFrom_MissingFilesUseDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadFrom(filepath.Join(dir, "missing.yaml"), filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "inteqt.db", cfg.Database.Path)
}

func TestLoadFrom_YAMLOverride(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "inteqt.yaml")
	content := `
server:
  port: "9090"
auth:
  admin_allow_list:
    - ops@inte-qt.com
    - cto@inte-qt.com
workflow:
  slug_max_attempts: 5
`
	require.NoError(t, os.WriteFile(yamlPath, []byte(content), 0o644))

	cfg, err := LoadFrom(yamlPath, "")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, []string{"ops@inte-qt.com", "cto@inte-qt.com"}, cfg.Auth.AdminAllowList)
	assert.Equal(t, 5, cfg.Workflow.SlugMaxAttempts)
	// Unchanged fields keep defaults
	assert.Equal(t, "@inte-qt.com", cfg.Auth.AdminDomain)
}

func TestLoadFrom_EnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "inteqt.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("server:\n  port: \"9090\"\n"), 0o644))

	t.Setenv("INTEQT_PORT", "7070")
	t.Setenv("ADMIN_EMAILS", " ops@inte-qt.com , , sales@inte-qt.com")
	t.Setenv("INTEQT_TOKEN_TTL", "24h")

	cfg, err := LoadFrom(yamlPath, "")
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, []string{"ops@inte-qt.com", "sales@inte-qt.com"}, cfg.Auth.AdminAllowList)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
}

func TestLoadFrom_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("INTEQT_DB_PATH=/tmp/dotenv.db\n"), 0o644))
	t.Setenv("INTEQT_DB_PATH", "")
	require.NoError(t, os.Unsetenv("INTEQT_DB_PATH"))

	cfg, err := LoadFrom(filepath.Join(dir, "none.yaml"), envPath)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/dotenv.db", cfg.Database.Path)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty secret", func(c *Config) { c.Auth.JWTSecret = "" }},
		{"zero ttl", func(c *Config) { c.Auth.TokenTTL = 0 }},
		{"domain without at", func(c *Config) { c.Auth.AdminDomain = "inte-qt.com" }},
		{"zero page size", func(c *Config) { c.Workflow.DefaultPageSize = 0 }},
		{"max below default", func(c *Config) { c.Workflow.MaxPageSize = 1 }},
		{"zero slug attempts", func(c *Config) { c.Workflow.SlugMaxAttempts = 0 }},
		{"zero media size", func(c *Config) { c.Media.MaxBytes = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_ProductionRejectsDevSecret(t *testing.T) {
	t.Setenv("INTEQT_ENV", "production")
	cfg := Defaults()
	assert.Error(t, cfg.Validate())

	cfg.Auth.JWTSecret = "a-real-secret"
	assert.NoError(t, cfg.Validate())
}

func TestCORSOriginList(t *testing.T) {
	s := Server{CORSOrigins: "https://inte-qt.com, https://www.inte-qt.com"}
	assert.Equal(t, []string{"https://inte-qt.com", "https://www.inte-qt.com"}, s.CORSOriginList())
}
