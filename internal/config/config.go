package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Server    ServerConfig    `mapstructure:",squash"`
	Upstream  UpstreamConfig  `mapstructure:",squash"`
	Redis     RedisConfig     `mapstructure:",squash"`
	Scheduler SchedulerConfig `mapstructure:",squash"`
	Logging   LoggingConfig   `mapstructure:",squash"`
}

type ServerConfig struct {
	Port         string `mapstructure:"SERVER_PORT"`
	Host         string `mapstructure:"SERVER_HOST"`
	Env          string `mapstructure:"ENV"`
	ReadTimeout  string `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout string `mapstructure:"SERVER_WRITE_TIMEOUT"`
}

type UpstreamConfig struct {
	BaseURL     string `mapstructure:"UPSTREAM_BASE_URL"`
	Timeout     string `mapstructure:"UPSTREAM_TIMEOUT"`
	FanOutLimit int    `mapstructure:"UPSTREAM_FANOUT_LIMIT"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"REDIS_ENABLED"`
	Host     string `mapstructure:"REDIS_HOST"`
	Port     string `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
	TTL      string `mapstructure:"REDIS_SNAPSHOT_TTL"`
}

type SchedulerConfig struct {
	RefreshSpec string `mapstructure:"SCHEDULER_REFRESH_SPEC"`
	TargetURL   string `mapstructure:"SCHEDULER_TARGET_URL"`
}

type LoggingConfig struct {
	Level string `mapstructure:"LOG_LEVEL"`
}

// Load reads configuration from environment variables and files
func Load() (*Config, error) {
	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("SERVER_READ_TIMEOUT", "15s")
	viper.SetDefault("SERVER_WRITE_TIMEOUT", "15s")
	// Registering a default makes AutomaticEnv pick the key up in Unmarshal
	viper.SetDefault("UPSTREAM_BASE_URL", "")
	viper.SetDefault("UPSTREAM_TIMEOUT", "30s")
	viper.SetDefault("UPSTREAM_FANOUT_LIMIT", 8)
	viper.SetDefault("REDIS_ENABLED", false)
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_SNAPSHOT_TTL", "10m")
	viper.SetDefault("SCHEDULER_REFRESH_SPEC", "0 */5 * * * *")
	viper.SetDefault("SCHEDULER_TARGET_URL", "http://localhost:8080")
	viper.SetDefault("LOG_LEVEL", "info")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read from .env file (optional)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./deployments")

	// Don't fail if .env file doesn't exist
	_ = viper.ReadInConfig()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("UPSTREAM_BASE_URL is required")
	}

	if u, err := url.Parse(c.Upstream.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("UPSTREAM_BASE_URL must be an absolute URL")
	}

	if c.Upstream.FanOutLimit <= 0 {
		return fmt.Errorf("UPSTREAM_FANOUT_LIMIT must be greater than 0")
	}

	for name, value := range map[string]string{
		"SERVER_READ_TIMEOUT":  c.Server.ReadTimeout,
		"SERVER_WRITE_TIMEOUT": c.Server.WriteTimeout,
		"UPSTREAM_TIMEOUT":     c.Upstream.Timeout,
		"REDIS_SNAPSHOT_TTL":   c.Redis.TTL,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("%s must be a valid duration: %w", name, err)
		}
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// GetReadTimeout returns the server read timeout as duration
func (c *Config) GetReadTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Server.ReadTimeout)
	return d
}

// GetWriteTimeout returns the server write timeout as duration
func (c *Config) GetWriteTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Server.WriteTimeout)
	return d
}

// GetUpstreamTimeout returns the upstream request timeout as duration
func (c *Config) GetUpstreamTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Upstream.Timeout)
	return d
}

// GetSnapshotTTL returns the redis snapshot mirror TTL as duration
func (c *Config) GetSnapshotTTL() time.Duration {
	d, _ := time.ParseDuration(c.Redis.TTL)
	return d
}
