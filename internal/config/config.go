package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process settings. The backend base URL is deliberately absent: it is
// resolved per request by backend.Resolver.
type Config struct {
	ServerPort           string
	Environment          string
	LogLevel             string
	BackendTimeout       time.Duration
	DatabaseURL          string
	RedisURL             string
	SessionSecret        string
	SessionTTL           time.Duration
	ChatRateLimitPerHour int
	AdminAPIKey          string
}

func Load() (*Config, error) {
	godotenv.Load()

	timeout, err := getDuration("BACKEND_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	ttl, err := getDuration("SESSION_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	limit, err := getInt("CHAT_RATE_LIMIT_PER_HOUR", 60)
	if err != nil {
		return nil, err
	}

	return &Config{
		ServerPort:           getEnv("SERVER_PORT", "8080"),
		Environment:          getEnv("APP_ENV", "production"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		BackendTimeout:       timeout,
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		RedisURL:             getEnv("REDIS_URL", ""),
		SessionSecret:        getEnv("SESSION_SECRET", ""),
		SessionTTL:           ttl,
		ChatRateLimitPerHour: limit,
		AdminAPIKey:          getEnv("ADMIN_API_KEY", ""),
	}, nil
}

func (c *Config) Development() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, defaultVal int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return n, nil
}
