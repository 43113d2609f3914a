package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 30*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 100, cfg.Optimization.GridSize)
	assert.Equal(t, uint(10000000), cfg.Optimization.MaxEvaluations)
	assert.Equal(t, 5*time.Minute, cfg.Optimization.JobTimeout)
	assert.Equal(t, 0, cfg.Reprojection.Workers)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("OPT_GRID_SIZE", "11")
	t.Setenv("OPT_JOB_TIMEOUT", "2s")
	t.Setenv("REPROJECT_WORKERS", "3")
	t.Setenv("ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 11, cfg.Optimization.GridSize)
	assert.Equal(t, 2*time.Second, cfg.Optimization.JobTimeout)
	assert.Equal(t, 3, cfg.Reprojection.Workers)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"OPT_GRID_SIZE":   "1",
		"OPT_JOB_TIMEOUT": "0s",
		"OPT_MAX_JOBS":    "0",
		"HTTP_PORT":       "not-a-number",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
