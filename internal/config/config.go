package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

type Config struct {
	App      AppConfig
	Store    StoreConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Upload   UploadConfig
	Seed     SeedConfig
}

// AppConfig holds application configuration
type AppConfig struct {
	Port              int           `env:"APP_PORT" envDefault:"8080"`
	Env               string        `env:"APP_ENV" envDefault:"development"`
	LogLevel          string        `env:"LOG_LEVEL" envDefault:"info"`
	TimeZone          string        `env:"APP_TIMEZONE" envDefault:"Local"`
	FrontendURL       string        `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
	ReconcileInterval time.Duration `env:"STATUS_RECONCILE_INTERVAL" envDefault:"15m"`
}

// StoreConfig selects where the employee, attendance and leave collections live.
type StoreConfig struct {
	Backend     string        `env:"STORE_BACKEND" envDefault:"file"`
	DataDir     string        `env:"DATA_DIR" envDefault:"data"`
	SQLitePath  string        `env:"SQLITE_PATH" envDefault:"data/dayflow.db"`
	LockTimeout time.Duration `env:"STORE_LOCK_TIMEOUT" envDefault:"5s"`
}

// DatabaseConfig is only used by the postgres store backend.
type DatabaseConfig struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     int    `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME" envDefault:"dayflow"`
	SSLMode  string `env:"DB_SSL_MODE" envDefault:"disable"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string        `env:"JWT_SECRET_KEY"`
	AccessExpiration time.Duration `env:"JWT_ACCESS_EXPIRATION_TIME" envDefault:"24h"`
}

type UploadConfig struct {
	BasePath string `env:"UPLOAD_DIR" envDefault:"uploads"`
	BaseURL  string `env:"UPLOAD_BASE_URL" envDefault:"/uploads"`
}

// SeedConfig is the admin account created when no admin exists yet.
type SeedConfig struct {
	AdminID       string `env:"SEED_ADMIN_ID" envDefault:"EMP001"`
	AdminEmail    string `env:"SEED_ADMIN_EMAIL" envDefault:"admin@dayflow.com"`
	AdminPassword string `env:"SEED_ADMIN_PASSWORD" envDefault:"admin123"`
	AdminName     string `env:"SEED_ADMIN_NAME" envDefault:"Admin User"`
}

// Load reads .env when present and parses the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded, using process environment", "error", err)
	}

	config := &Config{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	config.Store.Backend = strings.ToLower(strings.TrimSpace(config.Store.Backend))

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []error

	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET_KEY is required"))
	}
	if c.JWT.AccessExpiration <= 0 {
		errs = append(errs, errors.New("JWT_ACCESS_EXPIRATION_TIME must be positive"))
	}

	switch c.Store.Backend {
	case BackendFile:
		if c.Store.DataDir == "" {
			errs = append(errs, errors.New("DATA_DIR is required for the file backend"))
		}
	case BackendSQLite:
		if c.Store.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite backend"))
		}
	case BackendPostgres:
		if c.Database.Password == "" {
			errs = append(errs, errors.New("DB_PASSWORD is required for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND must be one of file, sqlite, postgres (got %q)", c.Store.Backend))
	}
	if c.Store.LockTimeout <= 0 {
		errs = append(errs, errors.New("STORE_LOCK_TIMEOUT must be positive"))
	}

	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}

	if c.Seed.AdminID == "" || c.Seed.AdminEmail == "" || c.Seed.AdminPassword == "" {
		errs = append(errs, errors.New("SEED_ADMIN_ID, SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD must not be empty"))
	}

	return errors.Join(errs...)
}

// Location is the business time zone that attendance days are counted in.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.App.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", c.App.TimeZone, err)
	}
	return loc, nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.App.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
