// Package config loads the service configuration from YAML with environment
// variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Storage struct {
		// postgres | memory
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Migrate  bool   `yaml:"migrate"`
		Postgres struct {
			MaxOpenConns    int    `yaml:"max_open_conns"`
			MaxIdleConns    int    `yaml:"max_idle_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		// memory | redis
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL string `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	Auth struct {
		// ExchangeTTL is the lifetime of issued exchange tokens.
		ExchangeTTL string `yaml:"exchange_ttl"`
		// TOTPSkew is the accepted clock-drift window in 30s steps.
		TOTPSkew int `yaml:"totp_skew"`
		// TokenRetention controls how long terminal (used/expired) tokens are
		// kept before the sweeper deletes them. "0" disables sweeping.
		TokenRetention string `yaml:"token_retention"`
		SweepInterval  string `yaml:"sweep_interval"`
	} `yaml:"auth"`
}

// Load reads the YAML file at path, applies defaults and env overrides.
// An empty path yields a default config (still honoring env overrides).
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	// sane defaults
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "postgres"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Memory.DefaultTTL == "" {
		c.Cache.Memory.DefaultTTL = "2m"
	}
	if c.Auth.ExchangeTTL == "" {
		c.Auth.ExchangeTTL = "5m"
	}
	if c.Auth.TOTPSkew == 0 {
		c.Auth.TOTPSkew = 1
	}
	if c.Auth.TokenRetention == "" {
		c.Auth.TokenRetention = "24h"
	}
	if c.Auth.SweepInterval == "" {
		c.Auth.SweepInterval = "10m"
	}

	c.applyEnvOverrides()
	return &c, c.Validate()
}

func getEnvStr(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	v, ok := getEnvStr(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	return n, err == nil
}

func getEnvBool(key string) (bool, bool) {
	v, ok := getEnvStr(key)
	if !ok {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	return b, err == nil
}

func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = v
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("DATABASE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvBool("STORAGE_MIGRATE"); ok {
		c.Storage.Migrate = v
	}
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("AUTH_EXCHANGE_TTL"); ok {
		c.Auth.ExchangeTTL = v
	}
	if v, ok := getEnvInt("AUTH_TOTP_SKEW"); ok {
		c.Auth.TOTPSkew = v
	}
	if v, ok := getEnvStr("AUTH_TOKEN_RETENTION"); ok {
		c.Auth.TokenRetention = v
	}
	if v, ok := getEnvStr("AUTH_SWEEP_INTERVAL"); ok {
		c.Auth.SweepInterval = v
	}
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("config: storage.dsn is required for the postgres driver")
		}
	case "memory":
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	if _, err := time.ParseDuration(c.Auth.ExchangeTTL); err != nil {
		return fmt.Errorf("config: invalid auth.exchange_ttl: %w", err)
	}
	if c.Auth.TOTPSkew < 0 || c.Auth.TOTPSkew > 3 {
		return fmt.Errorf("config: auth.totp_skew must be between 0 and 3")
	}
	return nil
}

// ExchangeTTL returns the parsed exchange-token lifetime.
func (c *Config) ExchangeTTL() time.Duration {
	d, err := time.ParseDuration(c.Auth.ExchangeTTL)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// TokenRetention returns the parsed sweeper retention; 0 disables sweeping.
func (c *Config) TokenRetention() time.Duration {
	d, err := time.ParseDuration(c.Auth.TokenRetention)
	if err != nil || d < 0 {
		return 24 * time.Hour
	}
	return d
}

// CacheTTL returns the parsed tenant-cache entry lifetime.
func (c *Config) CacheTTL() time.Duration {
	d, err := time.ParseDuration(c.Cache.Memory.DefaultTTL)
	if err != nil || d <= 0 {
		return 2 * time.Minute
	}
	return d
}

// SweepInterval returns the parsed sweeper interval.
func (c *Config) SweepInterval() time.Duration {
	d, err := time.ParseDuration(c.Auth.SweepInterval)
	if err != nil || d <= 0 {
		return 10 * time.Minute
	}
	return d
}
