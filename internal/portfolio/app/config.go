package app

import (
	"errors"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer         string // Issuer claim for session tokens
	SigningKeyFile string // Optional: PEM Ed25519 key; ephemeral key generated when empty
	DatabaseFile   string // Path to SQLite database file (default: ./portfolio.db)
	PepperFile     string // Path to password hashing pepper file (default: ./pepper)

	TokenTTL            time.Duration // Session token lifetime (default: 1h)
	ResendCooldown      time.Duration // Verification resend throttle window (default: 15m)
	VerificationLinkTTL time.Duration // Presigned completion link validity (default: 48h)
	PresignSecret       string        // HMAC secret for completion links; generated when empty

	BackendOrigin  string // Origin serving /v1/auth/complete
	FrontendOrigin string // Origin hosting the complete-signup page

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string
	MailWorkers  int
	MailBuffer   int

	S3Region     string
	S3AccessKey  string
	S3SecretKey  string
	S3Endpoint   string // Optional: S3-compatible endpoint (MinIO)
	S3Bucket     string
	S3PresignTTL time.Duration

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		Issuer:         getEnvOrDefault("PORTFOLIO_ISSUER", "portfolio-toolkit"),
		SigningKeyFile: os.Getenv("PORTFOLIO_SIGNING_KEY_FILE"),
		DatabaseFile:   getEnvOrDefault("PORTFOLIO_DATABASE_FILE", "portfolio.db"),
		PepperFile:     getEnvOrDefault("PORTFOLIO_PEPPER_FILE", "pepper"),

		TokenTTL:            getEnvDurationOrDefault("PORTFOLIO_TOKEN_TTL", 1*time.Hour),
		ResendCooldown:      getEnvDurationOrDefault("PORTFOLIO_RESEND_COOLDOWN", 15*time.Minute),
		VerificationLinkTTL: getEnvDurationOrDefault("PORTFOLIO_VERIFICATION_LINK_TTL", 48*time.Hour),
		PresignSecret:       os.Getenv("PORTFOLIO_PRESIGN_SECRET"),

		BackendOrigin:  getEnvOrDefault("PORTFOLIO_BACKEND_ORIGIN", "http://localhost:8080"),
		FrontendOrigin: getEnvOrDefault("PORTFOLIO_FRONTEND_ORIGIN", "http://localhost:3000"),

		SMTPHost:     getEnvOrDefault("SMTP_HOST", "localhost"),
		SMTPPort:     getEnvIntOrDefault("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		MailFrom:     getEnvOrDefault("MAIL_FROM", "no-reply@localhost"),
		MailWorkers:  getEnvIntOrDefault("MAIL_WORKERS", 2),
		MailBuffer:   getEnvIntOrDefault("MAIL_BUFFER", 64),

		S3Region:     getEnvOrDefault("S3_REGION", "us-east-1"),
		S3AccessKey:  os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:  os.Getenv("S3_SECRET_KEY"),
		S3Endpoint:   os.Getenv("S3_ENDPOINT"),
		S3Bucket:     getEnvOrDefault("S3_BUCKET", "portfolio"),
		S3PresignTTL: getEnvDurationOrDefault("S3_PRESIGN_TTL", 15*time.Minute),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

// Validate fails fast on settings that would otherwise surface as confusing
// runtime errors. Durations are never defaulted silently past this point.
func (c Config) Validate() error {
	if c.TokenTTL <= 0 {
		return errors.New("config: token TTL must be positive")
	}
	if c.ResendCooldown <= 0 {
		return errors.New("config: resend cooldown must be positive")
	}
	if c.VerificationLinkTTL <= 0 {
		return errors.New("config: verification link TTL must be positive")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return errors.New("config: invalid port")
	}
	return nil
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

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
