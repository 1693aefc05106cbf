package config

import (
	"testing"
	"time"

	"github.com/stemsi/exstem-quiz/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"SERVER_PORT", "TICK_INTERVAL_MS", "SESSION_RETENTION_MINUTES",
		"DEFAULT_QUESTION_COUNT", "DEFAULT_NAVIGATION_MODE", "DEFAULT_AUTO_SUBMIT", "ALLOWED_ORIGINS",
		"START_RATE_LIMIT_PER_MINUTE",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, time.Second, cfg.TickInterval)
	assert.Equal(t, 30*time.Minute, cfg.SessionRetention)
	assert.Equal(t, 20, cfg.DefaultSettings.QuestionCount)
	assert.Equal(t, model.NavigationFree, cfg.DefaultSettings.NavigationMode)
	assert.True(t, cfg.DefaultSettings.AutoSubmit)
	assert.Nil(t, cfg.AllowedOrigins)
	assert.Equal(t, 30, cfg.StartRateLimit)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("TICK_INTERVAL_MS", "250")
	t.Setenv("DEFAULT_NAVIGATION_MODE", "sequential")
	t.Setenv("DEFAULT_AUTO_SUBMIT", "false")
	t.Setenv("DEFAULT_PASSING_PERCENTAGE", "72.5")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg := Load()
	assert.Equal(t, 250*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, model.NavigationSequential, cfg.DefaultSettings.NavigationMode)
	assert.False(t, cfg.DefaultSettings.AutoSubmit)
	assert.InDelta(t, 72.5, cfg.DefaultSettings.PassingPercentage, 1e-9)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoad_MalformedNumbersFallBack(t *testing.T) {
	t.Setenv("MAX_DB_CONNS", "lots")
	t.Setenv("DEFAULT_AUTO_SUBMIT", "maybe")

	cfg := Load()
	assert.Equal(t, int32(16), cfg.MaxDBConns)
	assert.True(t, cfg.DefaultSettings.AutoSubmit)
}

func validConfig() *Config {
	return &Config{
		ServerPort:       "8080",
		GinMode:          "release",
		LogFormat:        "json",
		DatabaseURL:      "postgres://localhost/db",
		MaxDBConns:       4,
		RedisURL:         "redis://localhost:6379/0",
		TickInterval:     time.Second,
		SessionRetention: time.Minute,
		ResultBatchSize:  10,
		DefaultSettings: model.Settings{
			QuestionCount:     10,
			PassingPercentage: 50,
			NavigationMode:    model.NavigationFree,
		},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		envVar string
	}{
		{"port", func(c *Config) { c.ServerPort = "http" }, "SERVER_PORT"},
		{"gin mode", func(c *Config) { c.GinMode = "verbose" }, "GIN_MODE"},
		{"log format", func(c *Config) { c.LogFormat = "xml" }, "LOG_FORMAT"},
		{"database", func(c *Config) { c.DatabaseURL = "" }, "DATABASE_URL"},
		{"conns", func(c *Config) { c.MaxDBConns = 0 }, "MAX_DB_CONNS"},
		{"redis", func(c *Config) { c.RedisURL = "" }, "REDIS_URL"},
		{"tick", func(c *Config) { c.TickInterval = 0 }, "TICK_INTERVAL_MS"},
		{"batch", func(c *Config) { c.ResultBatchSize = -1 }, "RESULT_BATCH_SIZE"},
		{"rate limit", func(c *Config) { c.StartRateLimit = -1 }, "START_RATE_LIMIT_PER_MINUTE"},
		{"count", func(c *Config) { c.DefaultSettings.QuestionCount = 0 }, "DEFAULT_QUESTION_COUNT"},
		{"limit", func(c *Config) { c.DefaultSettings.TimeLimitSeconds = -5 }, "DEFAULT_TIME_LIMIT_SECONDS"},
		{"passing", func(c *Config) { c.DefaultSettings.PassingPercentage = 120 }, "DEFAULT_PASSING_PERCENTAGE"},
		{"mode", func(c *Config) { c.DefaultSettings.NavigationMode = "RANDOM" }, "DEFAULT_NAVIGATION_MODE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.envVar)
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.DatabaseURL = ""
	cfg.RedisURL = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "REDIS_URL")
}
