package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. TRACKER_SERVER_PORT.
const EnvPrefix = "TRACKER"

var defaults = map[string]any{
	"server.port":             8080,
	"server.log_level":        "info",
	"server.shutdown_timeout": "15s",

	"database.max_open_conns": 10,

	"redis.addr":     "localhost:6379",
	"redis.password": "",
	"redis.db":       0,

	"cache.backend":     "memory",
	"cache.max_entries": 10000,
	"cache.key_prefix":  "tracker:",
	"cache.default_ttl": "5m",

	"queue.poll_interval":      "1s",
	"queue.stuck_job_age":      "10m",
	"queue.retention":          "168h",
	"queue.retention_schedule": "@hourly",
	"queue.workers_enabled":    true,

	"queue.push.concurrency":  4,
	"queue.push.max_attempts": 5,
	"queue.push.backoff_base": "2s",
	"queue.push.backoff_max":  "5m",

	"queue.email.concurrency":  2,
	"queue.email.max_attempts": 5,
	"queue.email.backoff_base": "5s",
	"queue.email.backoff_max":  "10m",

	"queue.compute.concurrency":  2,
	"queue.compute.max_attempts": 3,
	"queue.compute.backoff_base": "1s",
	"queue.compute.backoff_max":  "1m",

	"auth.token_lifetime": "1h",

	"notify.provider":    "log",
	"notify.webhook_url": "",
	"notify.timeout":     "10s",
}

// Keys without a default still need binding so AutomaticEnv sees them on Unmarshal.
var requiredKeys = []string{"database.url", "auth.jwt_secret"}

// Load reads configuration from defaults, an optional config.yaml in the
// working directory, and TRACKER_ environment variables, in increasing order
// of precedence. The result is validated before it is returned.
func Load() (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range requiredKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the struct tags of cfg plus the cross-section rules tags
// cannot express.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if cfg.Cache.Backend == "redis" && strings.TrimSpace(cfg.Redis.Addr) == "" {
		return errors.New("config validation failed: redis.addr is required for the redis cache backend")
	}
	return nil
}
