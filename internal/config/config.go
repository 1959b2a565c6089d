package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig aggregates runtime configuration, injected through
// environment variables so nothing is hardcoded.
type AppConfig struct {
	HTTPAddr string
	DataFile string

	// Shared static admin password required on mutating admin
	// endpoints. A single secret is all the access control this
	// system carries.
	AdminPassword string

	LogLevel string
	LogFile  string

	// Redis-backed bid rate limiting; disabled when RedisAddr is
	// empty.
	RedisAddr     string
	RedisDB       int
	BidRateLimit  int
	BidRateWindow time.Duration

	// Request body cap. Item images travel as data URLs, so the
	// default is generous.
	MaxBodyBytes int64
}

// Load reads and validates configuration, falling back to defaults for
// anything unset.
func Load() (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		DataFile:      getEnv("DATA_FILE", "auction.json"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "dev-admin-password"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFile:       getEnv("LOG_FILE", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisDB:       0,
		BidRateLimit:  10,
		BidRateWindow: time.Second,
		MaxBodyBytes:  50 << 20,
	}

	redisDB, err := getEnvInt("REDIS_DB", cfg.RedisDB)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	cfg.RedisDB = redisDB

	rateLimit, err := getEnvInt("BID_RATE_LIMIT", cfg.BidRateLimit)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid BID_RATE_LIMIT: %w", err)
	}
	if rateLimit <= 0 {
		return AppConfig{}, fmt.Errorf("BID_RATE_LIMIT must be > 0")
	}
	cfg.BidRateLimit = rateLimit

	rateWindowSec, err := getEnvInt("BID_RATE_WINDOW_SEC", int(cfg.BidRateWindow.Seconds()))
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid BID_RATE_WINDOW_SEC: %w", err)
	}
	if rateWindowSec <= 0 {
		return AppConfig{}, fmt.Errorf("BID_RATE_WINDOW_SEC must be > 0")
	}
	cfg.BidRateWindow = time.Duration(rateWindowSec) * time.Second

	maxBody, err := getEnvInt("MAX_BODY_BYTES", int(cfg.MaxBodyBytes))
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid MAX_BODY_BYTES: %w", err)
	}
	if maxBody <= 0 {
		return AppConfig{}, fmt.Errorf("MAX_BODY_BYTES must be > 0")
	}
	cfg.MaxBodyBytes = int64(maxBody)

	if cfg.AdminPassword == "" {
		return AppConfig{}, fmt.Errorf("ADMIN_PASSWORD must not be empty")
	}

	return cfg, nil
}

// getEnv reads a string environment variable, returning fallback when
// unset or blank.
func getEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

// getEnvInt reads an integer environment variable, returning fallback
// when unset or blank.
func getEnvInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}
