package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	Sandbox   SandboxConfig
	Pager     PagerConfig
	Telegram  TelegramConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port    string `envconfig:"PORT" default:"8000"`
	Host    string `envconfig:"HOST" default:"0.0.0.0"`
	Enabled bool   `envconfig:"HTTP_ENABLED" default:"true"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// SandboxConfig holds evaluation limits and the module surface.
type SandboxConfig struct {
	TimeoutMS        int      `envconfig:"SANDBOX_TIMEOUT_MS" default:"1000"`
	AwaitLimitMS     int      `envconfig:"SANDBOX_AWAIT_LIMIT_MS" default:"30000"`
	MaxCallStack     int      `envconfig:"SANDBOX_MAX_CALL_STACK" default:"1024"`
	MaxConcurrent    int      `envconfig:"SANDBOX_MAX_CONCURRENT" default:"4"`
	AcquireTimeoutMS int      `envconfig:"SANDBOX_ACQUIRE_TIMEOUT_MS" default:"5000"`
	AllowedModules   []string `envconfig:"SANDBOX_ALLOWED_MODULES" default:"assert,buffer,crypto,events,path,perf_hooks,timers,url,util"`
	CapabilityFile   string   `envconfig:"SANDBOX_CAPABILITY_FILE"`
}

// Timeout is the default synchronous budget.
func (s SandboxConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutMS) * time.Millisecond
}

// AwaitLimit bounds waiting for a deferred result.
func (s SandboxConfig) AwaitLimit() time.Duration {
	return time.Duration(s.AwaitLimitMS) * time.Millisecond
}

// AcquireTimeout bounds waiting for a free evaluation slot.
func (s SandboxConfig) AcquireTimeout() time.Duration {
	return time.Duration(s.AcquireTimeoutMS) * time.Millisecond
}

// PagerConfig holds output pagination configuration.
type PagerConfig struct {
	Budget int `envconfig:"PAGER_BUDGET" default:"3950"`
}

// TelegramConfig holds chat transport configuration.
type TelegramConfig struct {
	Enabled     bool    `envconfig:"TELEGRAM_ENABLED" default:"false"`
	Token       string  `envconfig:"TELEGRAM_TOKEN"`
	Operators   []int64 `envconfig:"TELEGRAM_OPERATORS"`
	PollTimeout int     `envconfig:"TELEGRAM_POLL_TIMEOUT" default:"30"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"5"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"10"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate rejects combinations that cannot run.
func (c *Config) Validate() error {
	if c.Telegram.Enabled && c.Telegram.Token == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required when TELEGRAM_ENABLED is set")
	}
	if c.Telegram.Enabled && len(c.Telegram.Operators) == 0 {
		return fmt.Errorf("TELEGRAM_OPERATORS must name at least one operator")
	}
	if c.Sandbox.MaxConcurrent <= 0 {
		return fmt.Errorf("SANDBOX_MAX_CONCURRENT must be positive, got %d", c.Sandbox.MaxConcurrent)
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:    "8000",
			Host:    "0.0.0.0",
			Enabled: true,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		Sandbox: SandboxConfig{
			TimeoutMS:        1000,
			AwaitLimitMS:     30000,
			MaxCallStack:     1024,
			MaxConcurrent:    4,
			AcquireTimeoutMS: 5000,
			AllowedModules: []string{
				"assert", "buffer", "crypto", "events", "path",
				"perf_hooks", "timers", "url", "util",
			},
		},
		Pager: PagerConfig{
			Budget: 3950,
		},
		Telegram: TelegramConfig{
			PollTimeout: 30,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 5,
			Burst:             10,
			Enabled:           true,
		},
	}
}
