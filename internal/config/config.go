package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Storage backends accepted by STORAGE_BACKEND.
const (
	StorageLocal      = "local"
	StorageCloudinary = "cloudinary"
	StorageS3         = "s3"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // development, production

	// HTTP
	Port           string   `env:"PORT" envDefault:"5000"`
	ClientURL      string   `env:"CLIENT_URL" envDefault:"http://localhost:3000"`
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:"," envDefault:"127.0.0.1"`

	// PostgreSQL. DATABASE_URL wins over the discrete settings when set.
	DatabaseURL string `env:"DATABASE_URL"`
	DBHost      string `env:"DB_HOST" envDefault:"localhost"`
	DBPort      string `env:"DB_PORT" envDefault:"5432"`
	DBUser      string `env:"DB_USER" envDefault:"postgres"`
	DBPassword  string `env:"DB_PASSWORD" envDefault:"postgres"`
	DBName      string `env:"DB_NAME" envDefault:"recoverydesk"`
	DBSSLMode   string `env:"DB_SSL_MODE" envDefault:"disable"`
	DBMaxIdle   int    `env:"DB_MAX_IDLE" envDefault:"10"`
	DBMaxOpen   int    `env:"DB_MAX_OPEN" envDefault:"100"`

	// Auth
	JWTSecret          string        `env:"JWT_SECRET"`
	JWTExpiry          time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`
	AuthRateLimitRPS   float64       `env:"AUTH_RATE_LIMIT_RPS" envDefault:"1"`
	AuthRateLimitBurst int           `env:"AUTH_RATE_LIMIT_BURST" envDefault:"5"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"` // text, json

	// Reminder sweep
	ReminderEnabled    bool          `env:"REMINDER_ENABLED" envDefault:"true"`
	ReminderRunAt      string        `env:"REMINDER_RUN_AT" envDefault:"08:00"`
	ReminderTimezone   string        `env:"REMINDER_TIMEZONE" envDefault:"Local"`
	ReminderRunOnStart bool          `env:"REMINDER_RUN_ON_START" envDefault:"false"`
	ReminderTimeout    time.Duration `env:"REMINDER_TIMEOUT" envDefault:"5m"`
	ReminderLockTTL    time.Duration `env:"REMINDER_LOCK_TTL" envDefault:"10m"`

	// Redis, used for the sweep lock only
	RedisURL string `env:"REDIS_URL"`

	// Document storage
	StorageBackend      string `env:"STORAGE_BACKEND" envDefault:"local"`
	UploadDir           string `env:"UPLOAD_DIR" envDefault:"uploads/documents"`
	CloudinaryCloudName string `env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `env:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `env:"CLOUDINARY_API_SECRET"`
	S3Bucket            string `env:"S3_BUCKET"`
	AWSRegion           string `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSEndpointURL      string `env:"AWS_ENDPOINT_URL"`
	AWSAccessKeyID      string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey        string `env:"AWS_SECRET_ACCESS_KEY"`

	// SendGrid
	SendGridAPIKey    string `env:"SENDGRID_API_KEY"`
	SendGridFromEmail string `env:"SENDGRID_FROM_EMAIL"`
	SendGridFromName  string `env:"SENDGRID_FROM_NAME" envDefault:"Recovery Desk"`

	// Google
	GoogleMapsAPIKey   string `env:"GOOGLE_MAPS_API_KEY"`
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL"`

	// Kafka
	KafkaBrokers            []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaNotificationsTopic string   `env:"KAFKA_NOTIFICATIONS_TOPIC" envDefault:"notifications"`
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("WARN: cannot load .env file: %v, using environment variables", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if _, _, err := c.ReminderClock(); err != nil {
		return fmt.Errorf("REMINDER_RUN_AT: %w", err)
	}
	if _, err := c.ReminderLocation(); err != nil {
		return fmt.Errorf("REMINDER_TIMEZONE: %w", err)
	}
	switch c.StorageBackend {
	case StorageLocal:
	case StorageCloudinary:
		if c.CloudinaryCloudName == "" || c.CloudinaryAPIKey == "" || c.CloudinaryAPISecret == "" {
			return errors.New("cloudinary storage requires CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET")
		}
	case StorageS3:
		if c.S3Bucket == "" {
			return errors.New("s3 storage requires S3_BUCKET")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	return nil
}

// DSN returns the postgres connection string.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s connect_timeout=10",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development")
}

// ReminderClock parses REMINDER_RUN_AT as HH:MM.
func (c *Config) ReminderClock() (hour, minute int, err error) {
	t, err := time.Parse("15:04", c.ReminderRunAt)
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}

func (c *Config) ReminderLocation() (*time.Location, error) {
	return time.LoadLocation(c.ReminderTimezone)
}

func (c *Config) GoogleSignInEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRedirectURL != ""
}
