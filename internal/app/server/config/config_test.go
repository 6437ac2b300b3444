package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URI", "postgres://localhost/shop")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvLocal, cfg.Env)
	assert.Equal(t, ":8080", cfg.Server.RunAddress)
	assert.Equal(t, "migrations/postgres", cfg.DB.Migrations)
	assert.Equal(t, 30*24*time.Hour, cfg.Server.TokenTTL)
	assert.Equal(t, 1000, cfg.Server.MaxPageSize)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URI", "postgres://db/shop")
	t.Setenv("APP_ENV", EnvProd)
	t.Setenv("RUN_ADDRESS", ":9000")
	t.Setenv("TOKEN_TTL", "2h")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvProd, cfg.Env)
	assert.Equal(t, ":9000", cfg.Server.RunAddress)
	assert.Equal(t, 2*time.Hour, cfg.Server.TokenTTL)
}

func TestLoad_RequiresDatabase(t *testing.T) {
	t.Setenv("DATABASE_URI", "")

	_, err := Load()
	assert.Error(t, err)
}
