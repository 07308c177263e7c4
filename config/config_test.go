package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("ENGINE_BASE_URL", "https://engine.example")
	t.Setenv("ENGINE_API_KEY", "key")
	t.Setenv("ENGINE_APP_ID", "app")
}

func TestLoadMissingSettingsEnumeratedByName(t *testing.T) {
	t.Setenv("ENGINE_BASE_URL", "")
	t.Setenv("ENGINE_API_KEY", "")
	t.Setenv("ENGINE_APP_ID", "app")

	_, err := Load()

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, []string{"ENGINE_BASE_URL", "ENGINE_API_KEY"}, cfgErr.Missing)
	assert.Contains(t, cfgErr.Error(), "ENGINE_BASE_URL, ENGINE_API_KEY")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ENGINE_USER_ID", "")
	t.Setenv("PORT", "")
	t.Setenv("BATCH_SUBMIT_DELAY_MS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "sentinel-review-web", cfg.Engine.UserID)
	assert.Equal(t, 350*time.Millisecond, cfg.BatchDelay)
}

func TestLoadBatchDelayOverride(t *testing.T) {
	setRequiredEnv(t)

	t.Setenv("BATCH_SUBMIT_DELAY_MS", "50")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 50*time.Millisecond, cfg.BatchDelay)

	// Junk falls back to the default throttle.
	t.Setenv("BATCH_SUBMIT_DELAY_MS", "soon")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 350*time.Millisecond, cfg.BatchDelay)
}
