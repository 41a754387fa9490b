package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, ":8090", cfg.HTTPAddr)
	assert.Equal(t, "http://localhost:8080/api/v1", cfg.RemoteBaseURL)
	assert.Empty(t, cfg.AuthToken)
	assert.NotEmpty(t, cfg.CachePath)
	assert.Equal(t, 10*time.Second, cfg.RemoteTimeout)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("CART_API_URL", "https://shop.example.com/api/v1")
	t.Setenv("CART_API_TOKEN", "tok-123")
	t.Setenv("CART_CACHE_PATH", "/tmp/cartsync-test")
	t.Setenv("REMOTE_TIMEOUT_SECONDS", "5")

	cfg := FromEnv()

	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, "https://shop.example.com/api/v1", cfg.RemoteBaseURL)
	assert.Equal(t, "tok-123", cfg.AuthToken)
	assert.Equal(t, "/tmp/cartsync-test", cfg.CachePath)
	assert.Equal(t, 5*time.Second, cfg.RemoteTimeout)
}

func TestFromEnv_MalformedDurationFallsBack(t *testing.T) {
	t.Setenv("REMOTE_TIMEOUT_SECONDS", "not-a-number")

	cfg := FromEnv()
	assert.Equal(t, 10*time.Second, cfg.RemoteTimeout)
}
