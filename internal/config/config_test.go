// Package config provides configuration management for the cryptodash backtest service.
package config

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	validConfigPath       = "testdata/valid_config.yaml"
	expansionConfigPath   = "testdata/expansion_config.yaml"
	nonexistentConfigPath = "testdata/nonexistent_config.yaml"
	appName               = "cryptodash-backtest"
	testAppName           = "test-app"
	expandedSecretValue   = "expanded_secret_value"
)

func loadValid(t *testing.T) *Config {
	t.Helper()
	cfg, err := Load(validConfigPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	return cfg
}

func TestLoadConfigSuccess(t *testing.T) {
	cfg := loadValid(t)

	assert.Equal(t, appName, cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 4, cfg.Backtest.Workers)
	assert.Equal(t, []string{"1h", "4h", "1d"}, cfg.Backtest.SupportedIntervals)
	require.Len(t, cfg.Scheduler.Warmup, 1)
	assert.Equal(t, "rsi", cfg.Scheduler.Warmup[0].StrategyID)
	assert.Equal(t, 14.0, cfg.Scheduler.Warmup[0].Parameters["period"])
}

func TestLoadConfigFileNotFound(t *testing.T) {
	_, err := Load(nonexistentConfigPath)
	assert.Error(t, err)
}

func TestLoadWithDefaultsMissingFile(t *testing.T) {
	cfg, err := LoadWithDefaults(nonexistentConfigPath)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 4, cfg.Backtest.Workers)
	assert.Equal(t, "1h", cfg.Backtest.DefaultInterval)
	assert.Equal(t, 1.0, cfg.Backtest.AnnualizationPeriods)
}

func TestLoadConfigEnvironmentVariables(t *testing.T) {
	t.Setenv("CRYPTODASH_APP_NAME", testAppName)

	cfg := loadValid(t)
	assert.Equal(t, testAppName, cfg.App.Name)
}

func TestLoadConfigExpandsPlaceholders(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", expandedSecretValue)
	t.Setenv("TEST_REDIS_ADDR", "redis:6379")

	cfg, err := Load(expansionConfigPath)
	require.NoError(t, err)

	assert.Equal(t, expandedSecretValue, cfg.Database.Password)
	assert.Equal(t, "redis:6379", cfg.Cache.Redis.Addr)
	assert.Equal(t, 8760.0, cfg.Backtest.AnnualizationPeriods)
	require.NoError(t, Validate(cfg))
}

func TestValidateSuccess(t *testing.T) {
	cfg := loadValid(t)
	assert.NoError(t, Validate(cfg))
}

func TestValidateFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"invalid environment", func(c *Config) { c.App.Environment = "invalid" }, "Environment"},
		{"invalid log level", func(c *Config) { c.App.LogLevel = "verbose" }, "LogLevel"},
		{"unknown cache backend", func(c *Config) { c.Cache.Backend = "memcached" }, "Backend"},
		{"unsupported interval", func(c *Config) { c.Backtest.SupportedIntervals = []string{"2h"} }, "SupportedIntervals"},
		{"default interval not supported", func(c *Config) { c.Backtest.DefaultInterval = "1d"; c.Backtest.SupportedIntervals = []string{"1h"} }, "default_interval"},
		{"zero workers", func(c *Config) { c.Backtest.Workers = 0 }, "Workers"},
		{"workers exceed pool", func(c *Config) { c.Backtest.Workers = 12 }, "max_connections"},
		{"redis without addr", func(c *Config) { c.Cache.Backend = "redis"; c.Cache.Redis.Addr = "" }, "cache.redis.addr"},
		{"production without ssl", func(c *Config) { c.App.Environment = "production" }, "SSL"},
		{"bad cron", func(c *Config) { c.Scheduler.Warmup[0].Cron = "every day" }, "cron"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadValid(t)
			tt.mutate(cfg)

			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestSupportsInterval(t *testing.T) {
	b := BacktestConfig{SupportedIntervals: []string{"1h", "1d"}}
	assert.True(t, b.SupportsInterval("1h"))
	assert.False(t, b.SupportsInterval("4h"))
}

func TestParseSecretData(t *testing.T) {
	out := &secretsmanager.GetSecretValueOutput{
		SecretString: aws.String(`{"database_password":"db-secret","redis_password":"redis-secret"}`),
	}

	secrets, err := parseSecretData(out)
	require.NoError(t, err)

	cfg := loadValid(t)
	overlaySecretsOnConfig(cfg, secrets)
	assert.Equal(t, "db-secret", cfg.Database.Password)
	assert.Equal(t, "redis-secret", cfg.Cache.Redis.Password)

	_, err = parseSecretData(&secretsmanager.GetSecretValueOutput{})
	assert.ErrorIs(t, err, errNoSecretDataFound)
}
