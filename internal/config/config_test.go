package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 720*time.Hour, cfg.RefreshTTL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "3")
	t.Setenv("ACCESS_TOKEN_TTL", "1m")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("ASSET_URL_HOST", "https://cdn.example/")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, time.Minute, cfg.AccessTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, "https://cdn.example", cfg.AssetURLHost)
}

func TestFromEnv_InvalidDurationFallsBack(t *testing.T) {
	t.Setenv("REFRESH_TOKEN_TTL", "soon")

	cfg := FromEnv()

	assert.Equal(t, 30*24*time.Hour, cfg.RefreshTTL)
}
