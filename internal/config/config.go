package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Cache    CacheConfig    `mapstructure:"cache" validate:"required"`
	Queue    QueueConfig    `mapstructure:"queue" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Notify   NotifyConfig   `mapstructure:"notify"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL          string `mapstructure:"url" validate:"required,url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`
}

// RedisConfig is only required when the cache backend is redis.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
}

// CacheConfig selects the response and computation cache backend.
type CacheConfig struct {
	Backend    string        `mapstructure:"backend" validate:"required,oneof=memory redis"`
	MaxEntries int           `mapstructure:"max_entries" validate:"gte=1"`
	KeyPrefix  string        `mapstructure:"key_prefix"`
	DefaultTTL time.Duration `mapstructure:"default_ttl" validate:"gt=0"`
}

// QueueConfig configures the background job runner.
type QueueConfig struct {
	PollInterval      time.Duration `mapstructure:"poll_interval" validate:"gt=0"`
	StuckJobAge       time.Duration `mapstructure:"stuck_job_age" validate:"gt=0"`
	Retention         time.Duration `mapstructure:"retention" validate:"gt=0"`
	RetentionSchedule string        `mapstructure:"retention_schedule" validate:"required"`
	WorkersEnabled    bool          `mapstructure:"workers_enabled"`
	Push              QueuePolicy   `mapstructure:"push" validate:"required"`
	Email             QueuePolicy   `mapstructure:"email" validate:"required"`
	Compute           QueuePolicy   `mapstructure:"compute" validate:"required"`
}

// QueuePolicy holds the concurrency and retry settings of one logical queue.
type QueuePolicy struct {
	Concurrency int           `mapstructure:"concurrency" validate:"gte=1,lte=256"`
	MaxAttempts int           `mapstructure:"max_attempts" validate:"gte=1"`
	BackoffBase time.Duration `mapstructure:"backoff_base" validate:"gt=0"`
	BackoffMax  time.Duration `mapstructure:"backoff_max" validate:"gtefield=BackoffBase"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetime time.Duration `mapstructure:"token_lifetime" validate:"gt=0"`
}

// NotifyConfig selects the push and email delivery providers.
type NotifyConfig struct {
	Provider   string        `mapstructure:"provider" validate:"oneof=log webhook"`
	WebhookURL string        `mapstructure:"webhook_url" validate:"required_if=Provider webhook,omitempty,url"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gt=0"`
}
