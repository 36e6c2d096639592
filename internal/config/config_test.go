package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LIFECYCLE_START_LEAD_MINUTES", "")
	t.Setenv("REDIS_DB", "")

	cfg, err := Load()
	require.NoError(t, err)

	windows := cfg.Lifecycle.Windows()
	assert.Equal(t, 2*time.Hour, windows.StartLead)
	assert.Equal(t, 2*time.Hour, windows.StartGrace)
	assert.Equal(t, 2*time.Hour, windows.AutoCompleteGrace)
	assert.Equal(t, time.Minute, cfg.Worker.Interval())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LIFECYCLE_START_LEAD_MINUTES", "30")
	t.Setenv("LIFECYCLE_AUTO_COMPLETE_GRACE_MINUTES", "-5")
	t.Setenv("WORKER_AUTO_COMPLETE_INTERVAL_SECONDS", "15")
	t.Setenv("WORKER_LOCK_TTL_SECONDS", "0")
	t.Setenv("APP_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	windows := cfg.Lifecycle.Windows()
	assert.Equal(t, 30*time.Minute, windows.StartLead)
	assert.Equal(t, 2*time.Hour, windows.AutoCompleteGrace)
	assert.Equal(t, 15*time.Second, cfg.Worker.Interval())
	assert.Equal(t, 15*time.Second, cfg.Worker.LockTTL())
	assert.Equal(t, "0.0.0.0:9090", cfg.App.Addr())
}

func TestLoadRejectsInvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "primary")

	_, err := Load()
	assert.Error(t, err)
}
