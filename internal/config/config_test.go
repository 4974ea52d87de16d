package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.RunAddr)
	assert.Equal(t, "http://localhost:8080", cfg.ShortURLBase)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "tinylinks_session", cfg.AuthCookieName)
	assert.Equal(t, 10, cfg.PasswordHashCost)
	assert.Equal(t, 6, cfg.ShortKeyLength)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestConfigEnvOverridesDefaults(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", ":7000")
	t.Setenv("BASE_URL", "http://envonly.com")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("AUTH_COOKIE_NAME", "session_from_env")
	t.Setenv("SHORT_KEY_LENGTH", "8")

	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.RunAddr)
	assert.Equal(t, "http://envonly.com", cfg.ShortURLBase)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "session_from_env", cfg.AuthCookieName)
	assert.Equal(t, 8, cfg.ShortKeyLength)
}

func TestConfigRejectsUnknownLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "chatty")

	_, err := New(WithDisableFlagsParsing(true))
	assert.Error(t, err)
}

func TestConfigRejectsMalformedBaseURL(t *testing.T) {
	t.Setenv("BASE_URL", "not a url")

	_, err := New(WithDisableFlagsParsing(true))
	assert.Error(t, err)
}

func TestConfigRejectsBadSigningKey(t *testing.T) {
	t.Setenv("AUTH_COOKIE_SIGNING_SECRET_KEY", "!!! not base64 !!!")

	_, err := New(WithDisableFlagsParsing(true))
	assert.Error(t, err)
}
