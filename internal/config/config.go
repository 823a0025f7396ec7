package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins string

	DatabaseURL string
	RedisURL    string

	MeiliSearchHost string
	MeiliMasterKey  string

	// Notification targets
	AdminEmail string
	MailFrom   string

	ChatTimeout     time.Duration
	ChatRateLimit   int
	TicketRateLimit int
	RateLimitWindow time.Duration
	DigestCronSpec  string
}

func Load() *Config {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	return &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		MeiliSearchHost: getEnv("MEILISEARCH_HOST", "http://localhost:7700"),
		MeiliMasterKey:  os.Getenv("MEILI_MASTER_KEY"),

		AdminEmail: getEnv("SUPPORT_ADMIN_EMAIL", "support@aidesk.local"),
		MailFrom:   getEnv("MAIL_FROM", "AIDesk Support <noreply@aidesk.local>"),

		ChatTimeout:     getEnvDuration("CHAT_TIMEOUT_SECONDS", 60*time.Second),
		ChatRateLimit:   getEnvInt("CHAT_RATE_LIMIT", 20),
		TicketRateLimit: getEnvInt("TICKET_RATE_LIMIT", 5),
		RateLimitWindow: getEnvDuration("RATE_LIMIT_WINDOW_SECONDS", time.Minute),
		DigestCronSpec:  getEnv("DIGEST_CRON", "0 8 * * *"),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return fallback
}
