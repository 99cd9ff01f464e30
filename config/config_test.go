package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost:5432/auth")
	t.Setenv("ACCESS_TOKEN_SECRET", "access-secret")
	t.Setenv("REFRESH_TOKEN_SECRET", "refresh-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg := Load()

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres://localhost:5432/auth", cfg.DBURL)
	assert.Equal(t, "postgres", cfg.SessionStore)
	assert.Equal(t, 15, cfg.AccessExpiryMin)
	assert.Equal(t, 10080, cfg.RefreshExpiryMin)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, 60, cfg.SweepIntervalMin)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ENV", "production")
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_STORE", "redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("ACCESS_TOKEN_EXPIRY", "5")
	t.Setenv("REFRESH_TOKEN_EXPIRY", "1440")
	t.Setenv("BCRYPT_COST", "10")

	cfg := Load()

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "redis", cfg.SessionStore)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, 5, cfg.AccessExpiryMin)
	assert.Equal(t, 1440, cfg.RefreshExpiryMin)
	assert.Equal(t, 10, cfg.BcryptCost)
}

func TestLoad_InvalidIntFallsBackToDefault(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ACCESS_TOKEN_EXPIRY", "not-a-number")

	cfg := Load()

	assert.Equal(t, 15, cfg.AccessExpiryMin)
}

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		value      string
		defaultVal string
		expected   string
	}{
		{name: "set value wins", key: "TEST_GET_ENV", value: "custom", defaultVal: "fallback", expected: "custom"},
		{name: "empty falls back", key: "TEST_GET_ENV", value: "", defaultVal: "fallback", expected: "fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			assert.Equal(t, tt.expected, getEnv(tt.key, tt.defaultVal))
		})
	}
}
