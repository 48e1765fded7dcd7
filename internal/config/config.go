package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"go.uber.org/zap"
)

// storeWriteBudget matches the per-call store timeout of the service layer.
const storeWriteBudget = 2 * time.Second

// Config holds all configuration for the application.
type Config struct {
	AppEnv                string `env:"APP_ENV" env-default:"development"`
	DBPath                string `env:"DB_PATH" env-default:"./data/feedback.db"`
	DBDriver              string `env:"DB_DRIVER" env-default:"sqlite3"`
	RedisAddr             string `env:"REDIS_ADDR"`
	RedisPassword         string `env:"REDIS_PASSWORD"`
	RedisDB               int    `env:"REDIS_DB" env-default:"0"`
	GRPCPort              int    `env:"GRPC_PORT" env-default:"50051"`
	GRPCReflectionEnabled bool   `env:"GRPC_REFLECTION_ENABLED" env-default:"false"`
	GRPCMaxRecvBytes      int    `env:"GRPC_MAX_RECV_BYTES" env-default:"1048576"`
	MetricsAddr           string `env:"METRICS_ADDR" env-default:":9090"`

	AnthropicAPIKey   string        `env:"ANTHROPIC_API_KEY"`
	AIModel           string        `env:"AI_MODEL"`
	AIBaseURL         string        `env:"AI_BASE_URL"`
	AIMaxTokens       int64         `env:"AI_MAX_TOKENS" env-default:"1024"`
	ClassifierTimeout time.Duration `env:"CLASSIFIER_TIMEOUT" env-default:"10s"`
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT" env-default:"30s"`
	BatchDelay        time.Duration `env:"BATCH_DELAY" env-default:"1s"`

	ReportCacheTTL   time.Duration `env:"REPORT_CACHE_TTL" env-default:"1m"`
	BackfillSchedule string        `env:"BACKFILL_SCHEDULE" env-default:"@every 15m"`
	BackfillLimit    int           `env:"BACKFILL_LIMIT" env-default:"50"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	switch c.AppEnv {
	case "development", "production", "test":
	default:
		errs = append(errs, fmt.Errorf("APP_ENV must be development, production or test, got %q", c.AppEnv))
	}
	if c.DBDriver == "" || c.DBPath == "" {
		errs = append(errs, errors.New("DB_DRIVER and DB_PATH are required"))
	}
	if c.GRPCPort < 1 || c.GRPCPort > 65535 {
		errs = append(errs, fmt.Errorf("GRPC_PORT %d out of range", c.GRPCPort))
	}
	if c.GRPCMaxRecvBytes <= 0 {
		errs = append(errs, errors.New("GRPC_MAX_RECV_BYTES must be positive"))
	}
	if c.ClassifierTimeout <= 0 {
		errs = append(errs, errors.New("CLASSIFIER_TIMEOUT must be positive"))
	}
	// Submissions classify and then write inside one request budget.
	if c.ClassifierTimeout+storeWriteBudget > c.RequestTimeout {
		errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT %s must exceed CLASSIFIER_TIMEOUT %s by at least %s",
			c.RequestTimeout, c.ClassifierTimeout, storeWriteBudget))
	}
	if c.BatchDelay < 0 {
		errs = append(errs, errors.New("BATCH_DELAY must not be negative"))
	}
	if c.ReportCacheTTL < 0 {
		errs = append(errs, errors.New("REPORT_CACHE_TTL must not be negative"))
	}
	if c.AIMaxTokens <= 0 {
		errs = append(errs, errors.New("AI_MAX_TOKENS must be positive"))
	}
	return errors.Join(errs...)
}

// AIEnabled reports whether an external classification provider is configured.
func (c *Config) AIEnabled() bool {
	return c.AnthropicAPIKey != ""
}

// CacheEnabled reports whether report responses are cached in redis.
func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != "" && c.ReportCacheTTL > 0
}

// NewLogger creates a new Zap logger based on the config.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	if cfg.AppEnv == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
