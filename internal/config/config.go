// Package config provides configuration management for the cryptodash backtest service.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Cache     CacheConfig     `mapstructure:"cache" validate:"required"`
	Backtest  BacktestConfig  `mapstructure:"backtest" validate:"required"`
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Health    HealthConfig    `mapstructure:"health"`
	Metrics   MetricsConfig   `mapstructure:"metrics" validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host" validate:"required"`
	Port               int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required"`
	User               string `mapstructure:"user" validate:"required"`
	Password           string `mapstructure:"password" validate:"required"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"required,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"required,gt=0"`
}

// CacheConfig selects and configures the result cache backend
type CacheConfig struct {
	Backend    string      `mapstructure:"backend" validate:"required,cachebackend"`
	TTLSeconds int         `mapstructure:"ttl_seconds" validate:"required,gt=0"`
	MaxSize    int         `mapstructure:"max_size" validate:"required,gt=0"`
	Redis      RedisConfig `mapstructure:"redis"`
}

// RedisConfig represents the shared cache connection
type RedisConfig struct {
	Addr           string `mapstructure:"addr"`
	Password       string `mapstructure:"password"`
	DB             int    `mapstructure:"db" validate:"gte=0"`
	KeyPrefix      string `mapstructure:"key_prefix"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"gte=0"`
	// zero disables the circuit breaker
	BreakerFailures        int `mapstructure:"breaker_failures" validate:"gte=0"`
	BreakerCooldownSeconds int `mapstructure:"breaker_cooldown_seconds" validate:"gte=0"`
}

// BacktestConfig represents batch evaluation policy
type BacktestConfig struct {
	InitialCapital       float64  `mapstructure:"initial_capital" validate:"required,gt=0"`
	Workers              int      `mapstructure:"workers" validate:"required,gt=0,lte=64"`
	ProgressEvery        int      `mapstructure:"progress_every" validate:"required,gt=0"`
	DefaultInterval      string   `mapstructure:"default_interval" validate:"required,interval"`
	SupportedIntervals   []string `mapstructure:"supported_intervals" validate:"required,min=1,dive,interval"`
	AnnualizationPeriods float64  `mapstructure:"annualization_periods" validate:"required,gt=0"`
	RiskFreeRate         float64  `mapstructure:"risk_free_rate" validate:"gte=0,lte=1"`
	PersistResults       bool     `mapstructure:"persist_results"`
}

// ServerConfig represents the HTTP API server
type ServerConfig struct {
	Port                int      `mapstructure:"port" validate:"required,min=1,max=65535"`
	ReadTimeoutSeconds  int      `mapstructure:"read_timeout_seconds" validate:"required,gt=0"`
	WriteTimeoutSeconds int      `mapstructure:"write_timeout_seconds" validate:"gte=0"`
	AllowedOrigins      []string `mapstructure:"allowed_origins"`
	RateLimitPerSecond  float64  `mapstructure:"rate_limit_per_second" validate:"gte=0"`
	RateLimitBurst      int      `mapstructure:"rate_limit_burst" validate:"gte=0"`
}

// HealthConfig represents the health endpoint server
type HealthConfig struct {
	Port string `mapstructure:"port"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// SchedulerConfig holds the cache warm-up jobs
type SchedulerConfig struct {
	Enabled bool        `mapstructure:"enabled"`
	Warmup  []WarmupJob `mapstructure:"warmup" validate:"dive"`
}

// WarmupJob runs a full batch on a cron schedule to pre-populate the cache
type WarmupJob struct {
	Name       string             `mapstructure:"name" validate:"required"`
	Cron       string             `mapstructure:"cron" validate:"required"`
	StrategyID string             `mapstructure:"strategy_id" validate:"required"`
	Interval   string             `mapstructure:"interval" validate:"omitempty,interval"`
	Parameters map[string]float64 `mapstructure:"parameters"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// TTL returns the cache entry lifetime
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// Timeout returns the per-command redis timeout, defaulting to one second
func (r RedisConfig) Timeout() time.Duration {
	if r.TimeoutSeconds <= 0 {
		return time.Second
	}
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// SupportsInterval reports whether interval is enabled for evaluation
func (b BacktestConfig) SupportsInterval(interval string) bool {
	for _, s := range b.SupportedIntervals {
		if s == interval {
			return true
		}
	}
	return false
}
