package config

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

const DefaultAPIURL = "http://localhost:8000"

// Config holds the client settings.
type Config struct {
	APIURL     string
	TokenFile  string
	APITimeout time.Duration
}

// ServerConfig holds the settings of the local stub backend.
type ServerConfig struct {
	AppPort          string
	PublicURL        string
	JWTSecret        string
	JWTExpiration    time.Duration
	ResetExpiration  time.Duration
	ResetRateLimit   time.Duration
	SMTPHost         string
	SMTPPort         string
	SMTPUsername     string
	SMTPPassword     string
	EmailFrom        string
	ResetLinkBaseURL string
}

func LoadConfig() *Config {
	// Try to load .env file but don't fail if it doesn't exist
	_ = godotenv.Load()

	return &Config{
		APIURL:     getEnv("API_URL", DefaultAPIURL),
		TokenFile:  getEnv("TOKEN_FILE", defaultTokenFile()),
		APITimeout: getDuration("API_TIMEOUT", 0),
	}
}

func LoadServerConfig() *ServerConfig {
	_ = godotenv.Load()

	port := getEnv("APP_PORT", "8000")
	return &ServerConfig{
		AppPort:          port,
		PublicURL:        getEnv("PUBLIC_URL", "http://localhost:"+port),
		JWTSecret:        getEnv("JWT_SECRET", "default-secret"),
		JWTExpiration:    getDuration("JWT_EXPIRATION", 30*time.Minute),
		ResetExpiration:  getDuration("RESET_EXPIRATION", time.Hour),
		ResetRateLimit:   getDuration("RESET_RATE_LIMIT", 20*time.Minute),
		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPPort:         getEnv("SMTP_PORT", "587"),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		EmailFrom:        getEnv("EMAIL_FROM", ""),
		ResetLinkBaseURL: getEnv("RESET_LINK_BASE_URL", "http://localhost:5173/reset-password"),
	}
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "student-connect", "session.json")
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Fatalf("Invalid %s format %q. Use format like '30s' or '24h'", key, value)
	}
	return d
}
