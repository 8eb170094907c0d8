package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer string // Optional: name shown in authenticator apps (default: Majestic Motors)

	DatabaseFile string // Optional: path to SQLite database file (default: ./dealerauth.db)
	PepperFile   string // Optional: path to file containing pepper for password hashing (default: ./pepper)

	RedisAddr     string // Optional: Redis address for the rate limiter; empty disables it
	RedisPassword string // Optional: Redis AUTH password

	MailProvider   string // Optional: mail backend (smtp, sendgrid) (default: smtp)
	SMTPHost       string // SMTP relay host
	SMTPPort       int    // SMTP relay port (default: 587)
	SMTPUsername   string // SMTP auth username
	SMTPPassword   string // SMTP auth password
	MailFrom       string // From address for verification emails
	MailFromName   string // Display name for the From address
	SendGridAPIKey string // SendGrid API key (when MailProvider is sendgrid)

	SessionTTL   time.Duration // Session lifetime (default: 168h)
	ChallengeTTL time.Duration // Emailed code lifetime (default: 10m)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		Issuer: getEnvOrDefault("AUTH_ISSUER", "Majestic Motors"),

		DatabaseFile: getEnvOrDefault("AUTH_DATABASE_FILE", "dealerauth.db"),
		PepperFile:   getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		MailProvider:   getEnvOrDefault("MAIL_PROVIDER", "smtp"),
		SMTPHost:       os.Getenv("SMTP_HOST"),
		SMTPPort:       getEnvIntOrDefault("SMTP_PORT", 587),
		SMTPUsername:   os.Getenv("SMTP_USERNAME"),
		SMTPPassword:   os.Getenv("SMTP_PASSWORD"),
		MailFrom:       getEnvOrDefault("MAIL_FROM", "no-reply@majesticmotors.example"),
		MailFromName:   getEnvOrDefault("MAIL_FROM_NAME", "Majestic Motors"),
		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),

		SessionTTL:   getEnvDurationOrDefault("SESSION_TTL", 7*24*time.Hour),
		ChallengeTTL: getEnvDurationOrDefault("CHALLENGE_TTL", 10*time.Minute),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Integer values are read as minutes.
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
