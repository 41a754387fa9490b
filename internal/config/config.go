package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds runtime configuration parsed from environment variables.
type Config struct {
	HTTPAddr        string
	RemoteBaseURL   string
	AuthToken       string
	CachePath       string
	RemoteTimeout   time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// FromEnv builds Config with defaults, overridden by environment variables.
func FromEnv() Config {
	return Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8090"),
		RemoteBaseURL:   envOrDefault("CART_API_URL", "http://localhost:8080/api/v1"),
		AuthToken:       envOrDefault("CART_API_TOKEN", ""),
		CachePath:       envOrDefault("CART_CACHE_PATH", defaultCachePath()),
		RemoteTimeout:   envDuration("REMOTE_TIMEOUT_SECONDS", 10*time.Second),
		RequestTimeout:  envDuration("REQUEST_TIMEOUT_SECONDS", 30*time.Second),
		ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT_SECONDS", 10*time.Second),
	}
}

func defaultCachePath() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return dir + "/cartsync"
	}
	return ".cartsync"
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		seconds, err := strconv.Atoi(v)
		if err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return def
}
