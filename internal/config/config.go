// Package config loads starcat settings: defaults, then an optional YAML
// file, then .env and STARCAT_* environment overrides, then validation.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/mcs-education/starcat"
)

type Config struct {
	Dataset   DatasetConfig   `yaml:"dataset"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Reload    ReloadConfig    `yaml:"reload"`
	Lang      string          `yaml:"lang" validate:"oneof=en ja"`
}

type DatasetConfig struct {
	Path          string `yaml:"path"`
	MaxBytes      int64  `yaml:"maxBytes" validate:"gte=0"`
	MaxDepth      int    `yaml:"maxDepth" validate:"gte=0"`
	MaxBodies     int    `yaml:"maxBodies" validate:"gte=1"`
	DuplicateKeys string `yaml:"duplicateKeys" validate:"oneof=ignore warn error"`
}

type ServerConfig struct {
	Addr           string        `yaml:"addr" validate:"required"`
	ReadTimeout    time.Duration `yaml:"readTimeout" validate:"gt=0"`
	WriteTimeout   time.Duration `yaml:"writeTimeout" validate:"gt=0"`
	IdleTimeout    time.Duration `yaml:"idleTimeout" validate:"gt=0"`
	MaxBodyBytes   int64         `yaml:"maxBodyBytes" validate:"gt=0"`
	AllowedOrigins []string      `yaml:"allowedOrigins"`
	CORSDebug      bool          `yaml:"corsDebug"`
}

type LoggingConfig struct {
	Level      string `yaml:"level" validate:"oneof=debug info warn error"`
	JSONFormat bool   `yaml:"jsonFormat"`
}

type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond" validate:"gt=0"`
	BurstSize         int     `yaml:"burstSize" validate:"gte=1"`
	TrustProxy        bool    `yaml:"trustProxy"`
}

type ReloadConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule" validate:"required_if=Enabled true,omitempty,cron_schedule"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Dataset: DatasetConfig{
			MaxBytes:      starcat.DefaultMaxBytes,
			MaxDepth:      starcat.DefaultMaxDepth,
			MaxBodies:     starcat.DefaultMaxBodies,
			DuplicateKeys: "warn",
		},
		Server: ServerConfig{
			Addr:           ":8080",
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxBodyBytes:   starcat.DefaultMaxBytes,
			AllowedOrigins: []string{"*"},
		},
		Logging: LoggingConfig{Level: "info"},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 1,
			BurstSize:         5,
		},
		Reload: ReloadConfig{Schedule: "0 */5 * * * *"},
		Lang:   "en",
	}
}

// Load builds the configuration. path names an optional YAML file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using system environment variables")
	}
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Dataset.Path = GetEnv("STARCAT_DATASET_PATH", cfg.Dataset.Path)
	cfg.Dataset.MaxBytes = int64(GetIntEnv("STARCAT_MAX_BYTES", int(cfg.Dataset.MaxBytes)))
	cfg.Dataset.MaxDepth = GetIntEnv("STARCAT_MAX_DEPTH", cfg.Dataset.MaxDepth)
	cfg.Dataset.MaxBodies = GetIntEnv("STARCAT_MAX_BODIES", cfg.Dataset.MaxBodies)
	cfg.Dataset.DuplicateKeys = GetEnv("STARCAT_DUPLICATE_KEYS", cfg.Dataset.DuplicateKeys)

	cfg.Server.Addr = GetEnv("STARCAT_ADDR", cfg.Server.Addr)
	cfg.Server.ReadTimeout = GetDurationEnv("STARCAT_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = GetDurationEnv("STARCAT_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.IdleTimeout = GetDurationEnv("STARCAT_IDLE_TIMEOUT", cfg.Server.IdleTimeout)
	cfg.Server.MaxBodyBytes = int64(GetIntEnv("STARCAT_MAX_BODY_BYTES", int(cfg.Server.MaxBodyBytes)))
	if v := os.Getenv("STARCAT_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}
	cfg.Server.CORSDebug = GetBoolEnv("STARCAT_CORS_DEBUG", cfg.Server.CORSDebug)

	cfg.Logging.Level = strings.ToLower(GetEnv("STARCAT_LOG_LEVEL", cfg.Logging.Level))
	cfg.Logging.JSONFormat = GetBoolEnv("STARCAT_LOG_JSON", cfg.Logging.JSONFormat)

	cfg.RateLimit.Enabled = GetBoolEnv("STARCAT_RATE_LIMIT_ENABLED", cfg.RateLimit.Enabled)
	cfg.RateLimit.RequestsPerSecond = GetFloatEnv("STARCAT_RATE_LIMIT_RPS", cfg.RateLimit.RequestsPerSecond)
	cfg.RateLimit.BurstSize = GetIntEnv("STARCAT_RATE_LIMIT_BURST", cfg.RateLimit.BurstSize)
	cfg.RateLimit.TrustProxy = GetBoolEnv("STARCAT_TRUST_PROXY", cfg.RateLimit.TrustProxy)

	cfg.Reload.Enabled = GetBoolEnv("STARCAT_RELOAD_ENABLED", cfg.Reload.Enabled)
	cfg.Reload.Schedule = GetEnv("STARCAT_RELOAD_SCHEDULE", cfg.Reload.Schedule)

	cfg.Lang = GetEnv("STARCAT_LANG", cfg.Lang)
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// CronParser parses reload schedules: six fields with seconds, or a
// descriptor such as "@every 30s".
var CronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Validate checks field constraints, including the reload schedule syntax.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.RegisterValidation("cron_schedule", validateCronExpression); err != nil {
		return fmt.Errorf("failed to register cron validator: %w", err)
	}
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, formatValidationError(fe))
			}
			return fmt.Errorf("%s", strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

func validateCronExpression(fl validator.FieldLevel) bool {
	_, err := CronParser.Parse(fl.Field().String())
	return err == nil
}

func formatValidationError(err validator.FieldError) string {
	switch err.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", err.Namespace())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", err.Namespace(), err.Param())
	case "gt", "gte":
		return fmt.Sprintf("%s must be %s %s", err.Namespace(), err.Tag(), err.Param())
	case "cron_schedule":
		return fmt.Sprintf("%s must be a valid cron schedule", err.Namespace())
	default:
		return fmt.Sprintf("%s is invalid", err.Namespace())
	}
}

// LoadOpt converts the dataset settings into load options.
func (c *Config) LoadOpt() starcat.LoadOpt {
	sev := starcat.Warn
	switch c.Dataset.DuplicateKeys {
	case "ignore":
		sev = starcat.Ignore
	case "error":
		sev = starcat.Error
	}
	return starcat.LoadOpt{
		Strictness: starcat.Strictness{OnDuplicateKey: sev},
		MaxDepth:   c.Dataset.MaxDepth,
		MaxBytes:   c.Dataset.MaxBytes,
		MaxBodies:  c.Dataset.MaxBodies,
	}
}

// GetEnv returns the value of an environment variable or a default value if not set
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetBoolEnv returns the boolean value of an environment variable or a default value if not set
func GetBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetIntEnv returns the integer value of an environment variable or a default value if not set
func GetIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func GetFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func GetDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
