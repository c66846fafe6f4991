package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// DefaultIdempotencyTTL keeps consumed request keys long enough to cover client retry windows
	DefaultIdempotencyTTL = 24 * time.Hour
	// DefaultReminderSweepSchedule runs the reminder sweeper every five minutes
	DefaultReminderSweepSchedule = "*/5 * * * *"
)

type Config struct {
	ServerPort  string
	DBPath      string
	Environment string
	AppURL      string
	Timezone    string
	// Shared backing store for rate limiting and idempotency (optional)
	RedisAddr     string
	RedisPassword string
	// Request guards
	IdempotencyTTL    time.Duration
	RateLimitRequests int
	RateLimitWindow   time.Duration
	// Reminders
	ReminderSweepSchedule string
	ReminderFallbackEmail string
	// Email (Resend)
	ResendAPIKey  string
	EmailFrom     string
	EmailFromName string
	EmailTestMode bool // When true, emails are logged to console instead of sent
	// Attachments
	UploadDir         string
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
}

func Load() *Config {
	// Load .env file (ignore error if not present - use system env vars)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	return &Config{
		ServerPort:            getEnv("SERVER_PORT", "8080"),
		DBPath:                getEnv("DB_PATH", "db/procurement.db"),
		Environment:           getEnv("ENVIRONMENT", "development"),
		AppURL:                getEnv("APP_URL", "http://localhost:8080"),
		Timezone:              getEnv("TIMEZONE", "Asia/Manila"),
		RedisAddr:             getEnv("REDIS_ADDR", ""),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		IdempotencyTTL:        getEnvDuration("IDEMPOTENCY_TTL", DefaultIdempotencyTTL),
		RateLimitRequests:     getEnvInt("RATE_LIMIT_REQUESTS", 30),
		RateLimitWindow:       getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		ReminderSweepSchedule: getEnv("REMINDER_SWEEP_SCHEDULE", DefaultReminderSweepSchedule),
		ReminderFallbackEmail: getEnv("REMINDER_FALLBACK_EMAIL", ""),
		ResendAPIKey:          os.Getenv("RESEND_API_KEY"),
		EmailFrom:             getEnv("EMAIL_FROM", "noreply@procurement.local"),
		EmailFromName:         getEnv("EMAIL_FROM_NAME", "Procurement Tracker"),
		EmailTestMode:         getEnvBool("EMAIL_TEST_MODE", true), // Default true for safety
		UploadDir:             getEnv("UPLOAD_DIR", "static/uploads"),
		R2AccountID:           os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:         os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey:     os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:          os.Getenv("R2_BUCKET_NAME"),
	}
}

// IsProduction reports whether the server runs with production settings
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// HasRedis reports whether a shared backing store is configured
func (c *Config) HasRedis() bool {
	return c.RedisAddr != ""
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Printf("Using default value for %s: %s", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	// Accept common boolean representations
	switch strings.ToLower(value) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		log.Printf("[WARNING] Invalid value for %s: %q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		log.Printf("[WARNING] Invalid duration for %s: %q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
