package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.DB.URL)
	assert.Equal(t, 25, cfg.DB.MaxOpenConns)
	assert.Equal(t, 30*time.Minute, cfg.DB.ConnMaxLifetime)
	assert.False(t, cfg.Custody.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Custody.Timeout)
	assert.Equal(t, "none", cfg.DepositInfo.Generator)
	assert.Equal(t, "config/assets.yaml", cfg.Assets.File)
	assert.Equal(t, 8080, cfg.Server.HealthPort)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost/anchor")
	t.Setenv("DB_MAX_OPEN_CONNS", "50")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("CUSTODY_ENABLED", "true")
	t.Setenv("CUSTODY_BASE_URL", "http://custody.local")
	t.Setenv("CUSTODY_TIMEOUT_SEC", "10")
	t.Setenv("HEALTH_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/anchor", cfg.DB.URL)
	assert.Equal(t, 50, cfg.DB.MaxOpenConns)
	assert.Equal(t, "redis://localhost:6379", cfg.Redis.URL)
	assert.True(t, cfg.Custody.Enabled)
	assert.Equal(t, "http://custody.local", cfg.Custody.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Custody.Timeout)
	assert.Equal(t, 9090, cfg.Server.HealthPort)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MalformedIntFallsBack(t *testing.T) {
	t.Setenv("HEALTH_PORT", "not-a-port")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.HealthPort)
}

func TestValidate(t *testing.T) {
	t.Run("custody enabled without base url", func(t *testing.T) {
		t.Setenv("CUSTODY_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "CUSTODY_BASE_URL is required")
	})

	t.Run("self generator without distribution account", func(t *testing.T) {
		t.Setenv("DEPOSIT_INFO_GENERATOR", "self")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DISTRIBUTION_ACCOUNT is required")
	})

	t.Run("self generator with distribution account", func(t *testing.T) {
		t.Setenv("DEPOSIT_INFO_GENERATOR", "self")
		t.Setenv("DISTRIBUTION_ACCOUNT", "GDIST")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "self", cfg.DepositInfo.Generator)
	})

	t.Run("unknown generator rejected", func(t *testing.T) {
		t.Setenv("DEPOSIT_INFO_GENERATOR", "custodial")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be none or self")
	})
}
