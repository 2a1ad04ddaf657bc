package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/esn")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, time.Second, cfg.OfflineDebounce)
	assert.Equal(t, "https://textbelt.com/text", cfg.SMSAPIURL)
}

func TestLoadConfig_RequiresDatabaseURL(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DATABASE_URL", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_ParsesDebounce(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("OFFLINE_DEBOUNCE", "250ms")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.OfflineDebounce)

	t.Setenv("OFFLINE_DEBOUNCE", "soon")
	_, err = LoadConfig()
	assert.Error(t, err)
}
