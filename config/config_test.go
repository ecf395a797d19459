package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "casekit.db", cfg.DatabasePath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.LogPretty)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL())
	assert.Equal(t, 4, cfg.PreloadConcurrency)
	assert.Equal(t, 30*time.Second, cfg.DecodeRetryAfter())
	assert.Equal(t, 0, cfg.BcryptCost)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("CASEKIT_DATABASE_PATH", "/var/lib/casekit/cases.db")
	t.Setenv("CASEKIT_SESSION_TTL_HOURS", "8")
	t.Setenv("CASEKIT_PRELOAD_CONCURRENCY", "2")
	t.Setenv("CASEKIT_LOG_PRETTY", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/casekit/cases.db", cfg.DatabasePath)
	assert.Equal(t, 8*time.Hour, cfg.SessionTTL())
	assert.Equal(t, 2, cfg.PreloadConcurrency)
	assert.False(t, cfg.LogPretty)
}
