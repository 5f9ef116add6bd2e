// Package config loads the kiosk server settings from the environment, an
// optional .env file and command-line flags bound into viper.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Config holds application configuration.
type Config struct {
	Host string
	Port int

	DataDir        string
	CatalogFile    string
	CustomerFile   string
	CatalogBackend string
	DatabaseURL    string
	StaticDir      string

	LogLevel  string
	LogFormat string

	JWTSecret     string
	AdminUsername string
	AdminPassword string

	MetricsEnabled bool
	MetricsToken   string

	CORSAllowedOrigins []string
	ShutdownTimeout    time.Duration
	ActivityLogSize    int
}

// SetDefaults registers every key with its default so AutomaticEnv can see it.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("HOST", "")
	v.SetDefault("PORT", 8080)
	v.SetDefault("DATA_DIR", "data")
	v.SetDefault("CATALOG_FILE", "produtos.json")
	v.SetDefault("CUSTOMER_FILE", "cliente.json")
	v.SetDefault("CATALOG_BACKEND", BackendFile)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("STATIC_DIR", "public")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("ADMIN_PASSWORD", "admin123")
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("METRICS_TOKEN", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("ACTIVITY_LOG_SIZE", 200)
}

// Load reads .env (if present) and the environment. Callers validate the
// parts they need.
func Load(v *viper.Viper) Config {
	_ = godotenv.Load()

	SetDefaults(v)
	v.AutomaticEnv()

	cfg := Config{
		Host:               strings.TrimSpace(v.GetString("HOST")),
		Port:               v.GetInt("PORT"),
		DataDir:            v.GetString("DATA_DIR"),
		CatalogFile:        v.GetString("CATALOG_FILE"),
		CustomerFile:       v.GetString("CUSTOMER_FILE"),
		CatalogBackend:     strings.ToLower(strings.TrimSpace(v.GetString("CATALOG_BACKEND"))),
		DatabaseURL:        strings.TrimSpace(v.GetString("DATABASE_URL")),
		StaticDir:          v.GetString("STATIC_DIR"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		LogFormat:          strings.ToLower(v.GetString("LOG_FORMAT")),
		JWTSecret:          strings.TrimSpace(v.GetString("JWT_SECRET")),
		AdminUsername:      strings.TrimSpace(v.GetString("ADMIN_USERNAME")),
		AdminPassword:      v.GetString("ADMIN_PASSWORD"),
		MetricsEnabled:     v.GetBool("METRICS_ENABLED"),
		MetricsToken:       strings.TrimSpace(v.GetString("METRICS_TOKEN")),
		CORSAllowedOrigins: ParseList(v.GetString("CORS_ALLOWED_ORIGINS")),
		ShutdownTimeout:    v.GetDuration("SHUTDOWN_TIMEOUT"),
		ActivityLogSize:    v.GetInt("ACTIVITY_LOG_SIZE"),
	}

	return cfg
}

// ValidateStorage checks the settings needed to open the catalog.
func (c Config) ValidateStorage() error {
	switch c.CatalogBackend {
	case BackendFile:
		if strings.TrimSpace(c.CatalogFile) == "" {
			return errors.New("CATALOG_FILE is required")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when CATALOG_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("CATALOG_BACKEND must be %q or %q, got %q", BackendFile, BackendPostgres, c.CatalogBackend)
	}
	return nil
}

// Validate checks that the configuration can start a server.
func (c Config) Validate() error {
	errs := []error{c.ValidateStorage()}

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}
	if len(c.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET is required and must be at least 32 chars"))
	}
	if c.AdminUsername == "" || c.AdminPassword == "" {
		errs = append(errs, errors.New("ADMIN_USERNAME and ADMIN_PASSWORD are required"))
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.LogFormat))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}
	if c.ActivityLogSize <= 0 {
		errs = append(errs, errors.New("ACTIVITY_LOG_SIZE must be positive"))
	}

	return errors.Join(errs...)
}

func (c Config) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

// CatalogPath resolves CATALOG_FILE against DATA_DIR unless it is absolute.
func (c Config) CatalogPath() string { return c.resolve(c.CatalogFile) }

func (c Config) CustomerPath() string { return c.resolve(c.CustomerFile) }

func (c Config) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

// ParseList splits a comma separated value, dropping blanks.
func ParseList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
