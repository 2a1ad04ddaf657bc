package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

type Config struct {
	ServerPort      string
	DatabaseURL     string
	RedisURL        string
	JWTSecret       string
	JWTExpiry       time.Duration
	OfflineDebounce time.Duration
	SMSAPIURL       string
	SMSAPIKey       string
	LogLevel        int
}

func LoadConfig() (*Config, error) {
	expiryStr := getEnv("JWT_EXPIRY", "24h")
	expiry, err := time.ParseDuration(expiryStr)
	if err != nil {
		return nil, errors.New("invalid JWT_EXPIRY format")
	}

	debounceStr := getEnv("OFFLINE_DEBOUNCE", "1s")
	debounce, err := time.ParseDuration(debounceStr)
	if err != nil {
		return nil, errors.New("invalid OFFLINE_DEBOUNCE format")
	}

	logLevel, err := strconv.Atoi(getEnv("LOG_LEVEL", "0"))
	if err != nil {
		return nil, errors.New("invalid LOG_LEVEL format")
	}

	cfg := &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		JWTExpiry:       expiry,
		OfflineDebounce: debounce,
		SMSAPIURL:       getEnv("SMS_API_URL", "https://textbelt.com/text"),
		SMSAPIKey:       os.Getenv("SMS_API_KEY"),
		LogLevel:        logLevel,
	}

	// Validate required fields
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

// Helper: get env with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
