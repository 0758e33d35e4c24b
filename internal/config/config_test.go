package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("MATCH_STRATEGY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Empty(t, cfg.Postgres.DSN)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "rating_distance", cfg.Match.Strategy)
	assert.Equal(t, 5*time.Second, cfg.Match.CandidateTimeout())
	assert.Equal(t, 15*time.Second, cfg.Match.LockTTL())
	assert.Equal(t, 2, cfg.Notification.Workers)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("MATCH_STRATEGY", "balanced")
	t.Setenv("ASSIGNMENT_LOCK_TTL_SECONDS", "3")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("NOTIFY_WORKERS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.App.Addr())
	assert.Equal(t, "balanced", cfg.Match.Strategy)
	assert.Equal(t, 3*time.Second, cfg.Match.LockTTL())
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 2, cfg.Notification.Workers)
}

func TestLoad_RejectsUnknownStrategy(t *testing.T) {
	t.Setenv("MATCH_STRATEGY", "coin_flip")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MATCH_STRATEGY")
}

func TestLoad_RejectsBadRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "zero")

	_, err := Load()
	require.Error(t, err)
}
