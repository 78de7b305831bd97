package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverFile     = "file"
	DriverSupabase = "supabase"
)

// Config is read from the environment; .env files are loaded by main first.
type Config struct {
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"comments-api"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"PORT" envDefault:"3001"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	CORSOrigins     []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`

	// StoreDriver selects where comments live: a relational table (postgres,
	// sqlite) or a single JSON blob (file, supabase).
	StoreDriver    string        `env:"STORE_DRIVER" envDefault:"sqlite"`
	DatabaseURL    string        `env:"DATABASE_URL"`
	SQLitePath     string        `env:"SQLITE_PATH" envDefault:"comments.db"`
	DBMaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBMaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"100"`
	DBConnLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"1h"`
	DBConnIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"10m"`

	BlobPath       string `env:"BLOB_PATH" envDefault:"data/comments.json"`
	WatchBlob      bool   `env:"WATCH_BLOB" envDefault:"true"`
	SupabaseURL    string `env:"SUPABASE_URL"`
	SupabaseKey    string `env:"SUPABASE_KEY"`
	SupabaseBucket string `env:"SUPABASE_BUCKET" envDefault:"uploads"`
	SupabaseObject string `env:"SUPABASE_OBJECT" envDefault:"comments/comments.json"`
}

// Load parses environment variables into Config and validates the store
// selection.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))

	switch cfg.StoreDriver {
	case DriverSQLite, DriverFile:
	case DriverPostgres:
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when STORE_DRIVER is postgres")
		}
	case DriverSupabase:
		if strings.TrimSpace(cfg.SupabaseURL) == "" || strings.TrimSpace(cfg.SupabaseKey) == "" {
			return nil, fmt.Errorf("SUPABASE_URL and SUPABASE_KEY are required when STORE_DRIVER is supabase")
		}
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	return cfg, nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// Relational reports whether the configured store is a SQL table.
func (c *Config) Relational() bool {
	return c.StoreDriver == DriverPostgres || c.StoreDriver == DriverSQLite
}
