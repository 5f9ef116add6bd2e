package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", secret)

	cfg := Load(viper.New())
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, BackendFile, cfg.CatalogBackend)
	assert.Equal(t, filepath.Join("data", "produtos.json"), cfg.CatalogPath())
	assert.Equal(t, filepath.Join("data", "cliente.json"), cfg.CustomerPath())
	assert.Equal(t, "admin", cfg.AdminUsername)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 200, cfg.ActivityLogSize)
	assert.Empty(t, cfg.CORSAllowedOrigins)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", secret)
	t.Setenv("PORT", "9090")
	t.Setenv("CATALOG_FILE", "/srv/menu.json")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.local, ,http://b.local")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")

	cfg := Load(viper.New())
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "/srv/menu.json", cfg.CatalogPath())
	assert.Equal(t, []string{"http://a.local", "http://b.local"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
}

func TestValidate(t *testing.T) {
	t.Setenv("JWT_SECRET", "short")
	cfg := Load(viper.New())
	require.NoError(t, cfg.ValidateStorage())
	require.ErrorContains(t, cfg.Validate(), "JWT_SECRET")

	t.Setenv("JWT_SECRET", secret)
	t.Setenv("CATALOG_BACKEND", "postgres")
	require.ErrorContains(t, Load(viper.New()).Validate(), "DATABASE_URL")

	t.Setenv("DATABASE_URL", "postgres://totem@localhost/totem")
	require.NoError(t, Load(viper.New()).Validate())

	t.Setenv("CATALOG_BACKEND", "sqlite")
	require.ErrorContains(t, Load(viper.New()).ValidateStorage(), "CATALOG_BACKEND")
}
