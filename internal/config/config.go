// Package config manages the application configuration.
//
// It reads an optional YAML file and environment variables (optionally from a `.env`
// file), loads them into structured Go types and validates that required values are
// present so they can be reused across the application runtime.
//
// Responsibilities:
//   - Load environment variables (optionally from a `.env` file).
//   - Layer env vars over an optional YAML config file.
//   - Map both into a structured Go config (structs).
//   - Validate required values so the app fails fast on bad/missing config.
//   - Provide sane defaults for optional config blocks (e.g. observability, pagination).
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	// Side-effect import: if a `.env` file exists, it gets loaded into the
	// process env before any env var is read.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

/*
	Key idea in this file:
	- An optional YAML file is loaded first (RSWEB_CONFIG_FILE or --config).
	- Env vars are read using a prefix: RSWEB_ and override file values.
	- Keys are normalized (lowercased, prefix removed) and "__" marks nesting
	  e.g. RSWEB_SERVER__PORT -> server.port -> Config.Server.Port
	- Everything is decoded on top of Default(), so missing keys keep defaults.
*/

// EnvPrefix is the prefix every environment variable must carry to be read.
const EnvPrefix = "RSWEB_"

// Config is the root configuration object for the application.
//
// The `koanf:"..."` tags specify where koanf should map values from.
// The `validate:"..."` tags are enforced by go-playground/validator.
//
// Observability is a pointer because it is optional. If not provided,
// defaults are injected at runtime.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Store         StoreConfig          `koanf:"store" validate:"required"`
	Redis         RedisConfig          `koanf:"redis"`
	Pagination    PaginationConfig     `koanf:"pagination" validate:"required"`
	Queries       QueriesConfig        `koanf:"queries" validate:"required"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the HTTP server runtime.
// Timeouts are seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required,min=1"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required,min=1"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required,min=1"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required"`

	// RateLimit is the number of query POSTs per second allowed per client IP.
	// Zero disables rate limiting.
	RateLimit float64 `koanf:"rate_limit" validate:"min=0"`
}

// StoreConfig selects and configures the scene document store.
type StoreConfig struct {
	Driver   string         `koanf:"driver" validate:"required,oneof=postgres sqlite"`
	Postgres PostgresConfig `koanf:"postgres"`
	SQLite   SQLiteConfig   `koanf:"sqlite"`
}

// PostgresConfig contains PostgreSQL connection parameters and pool tuning.
type PostgresConfig struct {
	Host            string `koanf:"host" validate:"required"`
	Port            int    `koanf:"port" validate:"required"`
	User            string `koanf:"user" validate:"required"`
	Password        string `koanf:"password"`
	Name            string `koanf:"name" validate:"required"`
	SSLMode         string `koanf:"ssl_mode" validate:"required"`
	MaxConns        int32  `koanf:"max_conns" validate:"min=1"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime" validate:"min=0"`
}

// SQLiteConfig points at a local SQLite scene database.
type SQLiteConfig struct {
	Path string `koanf:"path" validate:"required"`
}

// RedisConfig contains Redis connection details.
// An empty Address disables the image cache and the prefetch jobs.
type RedisConfig struct {
	Address  string        `koanf:"address"`
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

// Enabled reports whether a Redis address was configured.
func (r RedisConfig) Enabled() bool {
	return r.Address != ""
}

// PaginationConfig drives the pagination widget rendered under scene lists.
type PaginationConfig struct {
	CSSFramework   string `koanf:"css_framework" validate:"required,oneof=bootstrap bootstrap3 bootstrap4 foundation semantic"`
	LinkSize       string `koanf:"link_size" validate:"omitempty,oneof=sm lg"`
	ShowSinglePage bool   `koanf:"show_single_page"`
	PerPage        int    `koanf:"per_page" validate:"required,min=1,max=500"`
}

// QueriesConfig locates the canned console queries served by /_get_queries.
type QueriesConfig struct {
	Path string `koanf:"path" validate:"required"`
}

// Default returns the configuration used when nothing overrides a key.
func Default() *Config {
	return &Config{
		Primary: Primary{Env: "development"},
		Server: ServerConfig{
			Port:               "5000",
			ReadTimeout:        30,
			WriteTimeout:       30,
			IdleTimeout:        60,
			CORSAllowedOrigins: []string{"*"},
			RateLimit:          20,
		},
		Store: StoreConfig{
			Driver: "sqlite",
			Postgres: PostgresConfig{
				Host:            "localhost",
				Port:            5432,
				User:            "postgres",
				Name:            "scenes_annotated",
				SSLMode:         "disable",
				MaxConns:        10,
				ConnMaxLifetime: 3600,
			},
			SQLite: SQLiteConfig{Path: "scenes_annotated.db"},
		},
		Redis: RedisConfig{CacheTTL: 10 * time.Minute},
		Pagination: PaginationConfig{
			CSSFramework:   "bootstrap3",
			LinkSize:       "sm",
			ShowSinglePage: false,
			PerPage:        10,
		},
		Queries:       QueriesConfig{Path: "static/testQueries.json"},
		Observability: DefaultObservabilityConfig(),
	}
}

// envKey maps RSWEB_SERVER__PORT to server.port.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, then validates it.
//
// configFile may be empty; in that case RSWEB_CONFIG_FILE is consulted.
func Load(configFile string) (*Config, error) {
	k := koanf.New(".")

	if configFile == "" {
		if v, ok := os.LookupEnv(EnvPrefix + "CONFIG_FILE"); ok {
			configFile = v
		}
	}

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("could not load config file %s: %w", configFile, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	mainConfig := Default()
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}

	// Service name is fixed; environment always follows primary.env.
	mainConfig.Observability.ServiceName = ServiceName
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}
