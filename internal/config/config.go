package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	SMTP     SMTPConfig
	AI       AIConfig
	Digest   DigestConfig
	Identity IdentityConfig
	Admin    AdminConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port         string        `env:"SERVER_PORT" env-default:"8080"`
	Env          string        `env:"SERVER_ENV" env-default:"development"`
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" env-default:"15s"`
	ServerURL    string        `env:"SERVER_URL" env-default:"http://localhost:3000"`
}

// DatabaseConfig holds SurrealDB connection settings
type DatabaseConfig struct {
	Host      string `env:"DB_HOST" env-default:"localhost"`
	Port      string `env:"DB_PORT" env-default:"8000"`
	Namespace string `env:"DB_NAMESPACE" env-default:"jobboard"`
	Database  string `env:"DB_DATABASE" env-default:"main"`
	User      string `env:"DB_USER" env-default:"root"`
	Password  string `env:"DB_PASSWORD" env-default:"root"`
}

// RedisConfig holds the Redis connection used for delivery deduplication
type RedisConfig struct {
	URL string `env:"REDIS_URL" env-default:"redis://localhost:6379/0"`
}

// SMTPConfig holds outbound email settings
type SMTPConfig struct {
	Host     string `env:"SMTP_HOST" env-default:"localhost"`
	Port     string `env:"SMTP_PORT" env-default:"587"`
	User     string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM" env-default:"Job Board <onboarding@resend.dev>"`
}

// AIConfig holds settings for the job matching model
type AIConfig struct {
	APIKey        string        `env:"AI_API_KEY"`
	Model         string        `env:"AI_MODEL" env-default:"gemini-2.0-flash"`
	Timeout       time.Duration `env:"AI_TIMEOUT" env-default:"30s"`
	MaxCandidates int           `env:"AI_MAX_CANDIDATES" env-default:"100"`
}

// DigestConfig holds the daily digest schedule and pipeline tuning.
// The throttle limits are sends per minute for each digest flow.
type DigestConfig struct {
	CronSpec         string        `env:"DIGEST_CRON" env-default:"0 7 * * *"`
	Timezone         string        `env:"DIGEST_TIMEZONE" env-default:"Asia/Yerevan"`
	Lookback         time.Duration `env:"DIGEST_LOOKBACK" env-default:"24h"`
	PollInterval     time.Duration `env:"DIGEST_POLL_INTERVAL" env-default:"1s"`
	JobListingLimit  int           `env:"DIGEST_JOB_LISTING_LIMIT" env-default:"10"`
	ApplicationLimit int           `env:"DIGEST_APPLICATION_LIMIT" env-default:"1000"`
	// EventRetention is how long done and dead bus events are kept before
	// the daily sweep deletes them.
	EventRetention time.Duration `env:"DIGEST_EVENT_RETENTION" env-default:"720h"`
}

// IdentityConfig holds settings for the delegated auth provider
type IdentityConfig struct {
	BaseURL       string        `env:"IDENTITY_BASE_URL" env-default:"https://api.clerk.com"`
	APIKey        string        `env:"IDENTITY_API_KEY"`
	WebhookSecret string        `env:"IDENTITY_WEBHOOK_SECRET"`
	Timeout       time.Duration `env:"IDENTITY_TIMEOUT" env-default:"10s"`
}

// AdminConfig holds credentials for operational endpoints
type AdminConfig struct {
	APIKey string `env:"ADMIN_API_KEY"`
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	return &cfg, nil
}

// Validate checks that required configuration is present
func (c *Config) Validate() error {
	if c.IsProduction() {
		if c.AI.APIKey == "" {
			return errors.New("AI_API_KEY is required in production")
		}
		if c.Identity.APIKey == "" {
			return errors.New("IDENTITY_API_KEY is required in production")
		}
		if c.Identity.WebhookSecret == "" {
			return errors.New("IDENTITY_WEBHOOK_SECRET is required in production")
		}
	}
	if _, err := time.LoadLocation(c.Digest.Timezone); err != nil {
		return fmt.Errorf("invalid DIGEST_TIMEZONE %q: %w", c.Digest.Timezone, err)
	}
	if c.Digest.Lookback <= 0 {
		return errors.New("DIGEST_LOOKBACK must be positive")
	}
	if c.Digest.JobListingLimit <= 0 || c.Digest.ApplicationLimit <= 0 {
		return errors.New("digest throttle limits must be positive")
	}
	return nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}
