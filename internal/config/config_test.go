package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"HTTP_ADDR", "DATA_FILE", "ADMIN_PASSWORD", "REDIS_ADDR",
		"REDIS_DB", "BID_RATE_LIMIT", "BID_RATE_WINDOW_SEC", "MAX_BODY_BYTES",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "auction.json", cfg.DataFile)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, 10, cfg.BidRateLimit)
	assert.Equal(t, time.Second, cfg.BidRateWindow)
	assert.Equal(t, int64(50<<20), cfg.MaxBodyBytes)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("DATA_FILE", "/data/auction.json")
	t.Setenv("ADMIN_PASSWORD", "hunter2")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("BID_RATE_LIMIT", "5")
	t.Setenv("BID_RATE_WINDOW_SEC", "2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, "/data/auction.json", cfg.DataFile)
	assert.Equal(t, "hunter2", cfg.AdminPassword)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 5, cfg.BidRateLimit)
	assert.Equal(t, 2*time.Second, cfg.BidRateWindow)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("BID_RATE_LIMIT", "zero")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsNonPositiveLimits(t *testing.T) {
	t.Setenv("BID_RATE_LIMIT", "0")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("BID_RATE_LIMIT", "10")
	t.Setenv("BID_RATE_WINDOW_SEC", "-1")
	_, err = Load()
	assert.Error(t, err)
}
