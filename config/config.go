package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env  string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	Port string `env:"PORT" envDefault:"8080" validate:"required"`

	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`
	DedupeURL   string `env:"DEDUPE_URL" envDefault:"redis://localhost:6379/0"`

	WorkerCount     int `env:"WORKER_COUNT" envDefault:"5" validate:"min=1,max=100"`
	TickIntervalSec int `env:"TICK_INTERVAL_SEC" envDefault:"5" validate:"min=1,max=60"`

	DefaultTimezone string `env:"DEFAULT_TIMEZONE" envDefault:"UTC"`
	DryRun          bool   `env:"DRY_RUN" envDefault:"false"`
	MaxAttempts     int    `env:"MAX_ATTEMPTS" envDefault:"5" validate:"min=1,max=20"`

	RRuleCacheSize int           `env:"RRULE_CACHE_SIZE" envDefault:"1024" validate:"min=16"`
	DedupeLockTTL  time.Duration `env:"DEDUPE_LOCK_TTL" envDefault:"5m"`

	StaleEnqueuedTimeout time.Duration `env:"STALE_ENQUEUED_TIMEOUT" envDefault:"10m"`
	SweeperCooldown      time.Duration `env:"SWEEPER_COOLDOWN" envDefault:"2m"`
	SweeperIntervalSec   int           `env:"SWEEPER_INTERVAL_SEC" envDefault:"30" validate:"min=5,max=300"`

	PublishRatePerMin int `env:"PUBLISH_RATE_PER_MIN" envDefault:"50" validate:"min=1"`

	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info" validate:"required,oneof=debug info warn error"`

	JWTSecret      string        `env:"JWT_SECRET,required" validate:"required"`
	TokenTTL       time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	OperatorEmail  string        `env:"OPERATOR_EMAIL,required" validate:"required,email"`
	OperatorPass   string        `env:"OPERATOR_PASSWORD,required" validate:"required"`

	ResendAPIKey string `env:"RESEND_API_KEY" validate:"required_if=Env production,required_if=Env staging"`
	ResendFrom   string `env:"RESEND_FROM" validate:"required_if=Env production,required_if=Env staging"`
	AlertTo      string `env:"DEAD_LETTER_ALERT_TO" validate:"required_if=Env production,required_if=Env staging"`

	PublisherBaseURL string `env:"PUBLISHER_BASE_URL" envDefault:"http://localhost:9900"`
	PublisherToken   string `env:"PUBLISHER_TOKEN"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SlogLevel converts the LOG_LEVEL string to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
