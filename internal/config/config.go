package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Auth        AuthConfig
	Email       EmailConfig
	RateLimit   RateLimitConfig
	Logging     LoggingConfig
	Environment string
}

type ServerConfig struct {
	Host    string
	Port    int
	BaseURL string
}

type DatabaseConfig struct {
	URL            string
	MaxConnections int
	MaxIdle        int
}

type AuthConfig struct {
	JWTSecret string
	JWTExpiry time.Duration
	Issuer    string
}

type EmailConfig struct {
	Enabled      bool
	From         string
	ResendAPIKey string
	// SendTimeout bounds a single alert dispatch so a slow provider
	// cannot stall the login response path.
	SendTimeout time.Duration
}

type RateLimitConfig struct {
	PublicPerMinute   int
	LoginPer15Minutes int
	TrustedProxyCIDRs []string
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host:    getEnv("SERVER_HOST", "0.0.0.0"),
			Port:    getEnvInt("SERVER_PORT", 8080),
			BaseURL: getEnv("SERVER_BASE_URL", "http://localhost:8080"),
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConnections: getEnvInt("DATABASE_MAX_CONNECTIONS", 25),
			MaxIdle:        getEnvInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			JWTExpiry: time.Duration(getEnvInt("JWT_EXPIRY_MINUTES", 60)) * time.Minute,
			Issuer:    getEnv("JWT_ISSUER", "gatherpoint"),
		},
		Email: EmailConfig{
			Enabled:      getEnvBool("EMAIL_ENABLED", false),
			From:         getEnv("EMAIL_FROM", ""),
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			SendTimeout:  time.Duration(getEnvInt("EMAIL_SEND_TIMEOUT_SECONDS", 5)) * time.Second,
		},
		RateLimit: RateLimitConfig{
			PublicPerMinute:   getEnvInt("RATE_LIMIT_PUBLIC", 120),
			LoginPer15Minutes: getEnvInt("RATE_LIMIT_LOGIN", 5),
			TrustedProxyCIDRs: getEnvList("TRUSTED_PROXY_CIDRS"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	if cfg.Database.URL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Email.Enabled {
		if cfg.Email.From == "" {
			return Config{}, fmt.Errorf("EMAIL_FROM is required when EMAIL_ENABLED is set")
		}
		if cfg.Email.ResendAPIKey == "" {
			return Config{}, fmt.Errorf("RESEND_API_KEY is required when EMAIL_ENABLED is set")
		}
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
