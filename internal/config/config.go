package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort   string `env:"PORT" envDefault:"8080"`
	DatabaseType string `env:"DB_TYPE" envDefault:"sqlite"`
	DatabasePath string `env:"DB_PATH" envDefault:"./focusquest.db"`
	DatabaseURL  string `env:"DATABASE_URL"`

	Timezone  string `env:"APP_TIMEZONE" envDefault:"Asia/Ho_Chi_Minh"`
	JWTSecret string `env:"JWT_SECRET"`

	Rewards   RewardsConfig
	Scheduler SchedulerConfig
	Notify    NotificationConfig

	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	LockTTL       time.Duration `env:"LOCK_TTL" envDefault:"10s"`

	AWSRegion    string `env:"AWS_REGION" envDefault:"us-east-1"`
	SESFromEmail string `env:"SES_FROM_EMAIL"`
	SESFromName  string `env:"SES_FROM_NAME" envDefault:"FocusQuest"`
	EmailDebug   bool   `env:"EMAIL_DEBUG" envDefault:"false"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// RewardsConfig holds point values and leveling thresholds
type RewardsConfig struct {
	LevelSize          int `env:"REWARDS_LEVEL_SIZE" envDefault:"100"`
	ScheduleCompletion int `env:"POINTS_SCHEDULE_COMPLETION" envDefault:"5"`
	MedicineTaken      int `env:"POINTS_MEDICINE_TAKEN" envDefault:"10"`
}

// SchedulerConfig controls the periodic adherence sweep
type SchedulerConfig struct {
	SweepInterval time.Duration `env:"SCHEDULER_SWEEP_INTERVAL" envDefault:"60s"`
	Concurrency   int           `env:"SCHEDULER_CONCURRENCY" envDefault:"4"`
	Enabled       bool          `env:"SCHEDULER_ENABLED" envDefault:"true"`
}

// NotificationConfig controls inbox retention and delivery retries
type NotificationConfig struct {
	RetentionDays int           `env:"NOTIFICATION_RETENTION_DAYS" envDefault:"30"`
	MaxAttempts   int           `env:"NOTIFICATION_MAX_ATTEMPTS" envDefault:"5"`
	RetryBackoff  time.Duration `env:"NOTIFICATION_RETRY_BACKOFF" envDefault:"2s"`
	QueueSize     int           `env:"NOTIFICATION_QUEUE_SIZE" envDefault:"256"`
}

// Load reads configuration from the environment, loading a .env file first when present
func Load() (*Config, error) {
	// A missing .env file is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks that the loaded values are usable
func (c *Config) Validate() error {
	switch strings.ToLower(c.DatabaseType) {
	case "sqlite", "sqlite3", "":
		if c.DatabasePath == "" {
			return errors.New("DB_PATH is required for sqlite")
		}
	case "postgres", "postgresql", "mysql":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for %s", c.DatabaseType)
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Rewards.LevelSize <= 0 {
		return errors.New("REWARDS_LEVEL_SIZE must be positive")
	}
	if c.Rewards.ScheduleCompletion <= 0 || c.Rewards.MedicineTaken <= 0 {
		return errors.New("point values must be positive")
	}
	if c.Scheduler.SweepInterval <= 0 {
		return errors.New("SCHEDULER_SWEEP_INTERVAL must be positive")
	}
	if c.Scheduler.Concurrency <= 0 {
		c.Scheduler.Concurrency = 1
	}
	return nil
}

// Location returns the timezone used for calendar-day boundaries
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}
