// Package config loads the scheduler's runtime configuration from an
// optional YAML or JSON file and SCHEDULER_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SCHEDULER_PORT.
const EnvPrefix = "SCHEDULER"

// Config holds the server configuration
type Config struct {
	Port        int    `mapstructure:"port"`
	DatabaseURL string `mapstructure:"database_url"` // empty runs on the in-memory store
	RedisURL    string `mapstructure:"redis_url"`    // empty uses in-process locks and no pub/sub

	LogLevel string `mapstructure:"log_level"`
	LogJSON  bool   `mapstructure:"log_json"`

	CORSOrigins []string `mapstructure:"cors_origins"`

	NotifyTimeout   time.Duration `mapstructure:"notify_timeout"`
	LockTTL         time.Duration `mapstructure:"lock_ttl"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	EventsChannel   string        `mapstructure:"events_channel"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("database_url", "")
	v.SetDefault("redis_url", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", true)
	v.SetDefault("cors_origins", []string{"*"})
	v.SetDefault("notify_timeout", 5*time.Second)
	v.SetDefault("lock_ttl", 10*time.Second)
	v.SetDefault("shutdown_timeout", 15*time.Second)
	v.SetDefault("events_channel", "interview_events")
}

// Load reads configuration. path may be empty, in which case only defaults
// and the environment apply. DATABASE_URL, REDIS_URL and PORT are honoured
// without the prefix as well.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for key, fallback := range map[string]string{
		"database_url": "DATABASE_URL",
		"redis_url":    "REDIS_URL",
		"port":         "PORT",
	} {
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(key), fallback); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.CORSOrigins = splitOrigins(cfg.CORSOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 1 and 65535, got %d", c.Port)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config error: unknown 'log_level' %q", c.LogLevel)
	}
	if c.NotifyTimeout <= 0 {
		return fmt.Errorf("config error: 'notify_timeout' must be positive")
	}
	if c.LockTTL <= 0 {
		return fmt.Errorf("config error: 'lock_ttl' must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("config error: 'shutdown_timeout' must be positive")
	}
	if c.RedisURL != "" && c.EventsChannel == "" {
		return fmt.Errorf("config error: 'events_channel' is required when redis_url is set")
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// splitOrigins flattens comma-separated entries so that env values such as
// "https://a.example,https://b.example" behave like a list.
func splitOrigins(in []string) []string {
	var out []string
	for _, entry := range in {
		for _, o := range strings.Split(entry, ",") {
			if o = strings.TrimSpace(o); o != "" {
				out = append(out, o)
			}
		}
	}
	return out
}
