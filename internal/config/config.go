package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	// Upstream HR API.
	APIBaseURL     string
	RequestTimeout time.Duration
	MaxRetries     int

	// Cache behaviour.
	NotificationRefetchInterval time.Duration
	SessionTTL                  time.Duration
	SurfaceReadFailures         bool // expose a degraded flag on feeds instead of silent fallback

	JWTPublicKeyPath string

	AllowedOrigins []string // CORS allowed origins
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		APIBaseURL:     getEnv("API_URL", "http://localhost:8000"),
		RequestTimeout: getEnvDuration("API_REQUEST_TIMEOUT_MS", 10000),
		MaxRetries:     getEnvInt("API_MAX_RETRIES", 3),

		NotificationRefetchInterval: getEnvDuration("NOTIFICATION_REFETCH_MS", 30000),
		SessionTTL:                  getEnvDuration("SESSION_TTL_MS", int((30 * time.Minute).Milliseconds())),
		SurfaceReadFailures:         getEnv("READ_FAILURE_MODE", "silent") == "surface",

		JWTPublicKeyPath: getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallbackMs int) time.Duration {
	return time.Duration(getEnvInt(key, fallbackMs)) * time.Millisecond
}
