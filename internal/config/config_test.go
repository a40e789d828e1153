package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "bootstrap3", cfg.Pagination.CSSFramework)
	assert.Equal(t, "sm", cfg.Pagination.LinkSize)
	assert.False(t, cfg.Pagination.ShowSinglePage)
	assert.Equal(t, 10, cfg.Pagination.PerPage)
	assert.Equal(t, ServiceName, cfg.Observability.ServiceName)
	assert.Equal(t, cfg.Primary.Env, cfg.Observability.Environment)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("RSWEB_PRIMARY__ENV", "production")
	t.Setenv("RSWEB_SERVER__PORT", "8080")
	t.Setenv("RSWEB_PAGINATION__CSS_FRAMEWORK", "bootstrap4")
	t.Setenv("RSWEB_PAGINATION__SHOW_SINGLE_PAGE", "true")
	t.Setenv("RSWEB_REDIS__CACHE_TTL", "30s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "bootstrap4", cfg.Pagination.CSSFramework)
	assert.True(t, cfg.Pagination.ShowSinglePage)
	assert.Equal(t, 30*time.Second, cfg.Redis.CacheTTL)
	assert.True(t, cfg.Observability.IsProduction())
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rsweb.yaml")
	content := `
pagination:
  css_framework: foundation
  link_size: lg
  per_page: 25
store:
  driver: postgres
  postgres:
    host: db.internal
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("RSWEB_PAGINATION__PER_PAGE", "5")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "foundation", cfg.Pagination.CSSFramework)
	assert.Equal(t, "lg", cfg.Pagination.LinkSize)
	assert.Equal(t, 5, cfg.Pagination.PerPage, "env must win over the file")
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "db.internal", cfg.Store.Postgres.Host)
	assert.Equal(t, 5432, cfg.Store.Postgres.Port, "unset keys keep their defaults")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown driver", "RSWEB_STORE__DRIVER", "mongo"},
		{"unknown css framework", "RSWEB_PAGINATION__CSS_FRAMEWORK", "tailwind"},
		{"zero per page", "RSWEB_PAGINATION__PER_PAGE", "0"},
		{"bad log level", "RSWEB_OBSERVABILITY__LOGGING__LEVEL", "verbose"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestObservabilityConfig_HasCheck(t *testing.T) {
	c := DefaultObservabilityConfig()
	assert.True(t, c.HasCheck("store"))
	assert.True(t, c.HasCheck("redis"))
	assert.False(t, c.HasCheck("nats"))

	c.HealthChecks.Enabled = false
	assert.False(t, c.HasCheck("store"))
}

func TestObservabilityConfig_GetLogLevel(t *testing.T) {
	c := DefaultObservabilityConfig()
	c.Logging.Level = ""
	c.Environment = "development"
	assert.Equal(t, "debug", c.GetLogLevel())

	c.Environment = "production"
	assert.Equal(t, "info", c.GetLogLevel())

	c.Logging.Level = "warn"
	assert.Equal(t, "warn", c.GetLogLevel())
}
