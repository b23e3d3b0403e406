package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "earth2-mcp", cfg.ServerName)
	assert.Equal(t, "1.0.0", cfg.ServerVersion)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "http://earth_2_fourcastnet:8000", cfg.Earth2BaseURL)
	assert.Equal(t, "/health", cfg.Earth2HealthPath)
	assert.Equal(t, "/api/forecast", cfg.Earth2ForecastPath)
	assert.Equal(t, "/api/visual", cfg.Earth2VisualPath)
	assert.Equal(t, "/api/analyze", cfg.Earth2AnalyzePath)
	assert.Equal(t, "/api/forecast/stream", cfg.Earth2StreamPath)
	assert.Equal(t, 20*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 60*time.Second, cfg.SubmitTimeout)
	assert.Equal(t, 3, cfg.RetryMaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.RetryBaseDelay)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("EARTH2_BASE_URL", "http://localhost:9000/")
	t.Setenv("EARTH2_RETRY_MAX_ATTEMPTS", "5")
	t.Setenv("EARTH2_REQUEST_TIMEOUT_SECONDS", "2")
	t.Setenv("INTERNAL_API_TOKEN", "secret-token")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000", cfg.Earth2BaseURL, "trailing slash should be trimmed")
	assert.Equal(t, 5, cfg.RetryMaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "secret-token", cfg.InternalAPIToken)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfigRejectsBadValuesGracefully(t *testing.T) {
	t.Setenv("LOG_LEVEL", "chatty")
	t.Setenv("EARTH2_RETRY_MAX_ATTEMPTS", "0")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel, "unknown level falls back to info")
	assert.Equal(t, 1, cfg.RetryMaxAttempts, "attempt floor is one")
}
