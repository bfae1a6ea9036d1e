package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "netclub/libs/config"
)

// Config defines netclub service configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"NETCLUB_HTTP_PORT"`
	} `yaml:"http"`
	Database struct {
		DSN           string `yaml:"dsn" env:"NETCLUB_POSTGRES_DSN"`
		MaxOpenConns  int    `yaml:"maxOpenConns" env:"NETCLUB_POSTGRES_MAX_CONNS"`
		MigrationsDir string `yaml:"migrationsDir" env:"NETCLUB_MIGRATIONS_DIR"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr" env:"NETCLUB_REDIS_ADDR"`
		Password string `yaml:"password" env:"NETCLUB_REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"NETCLUB_REDIS_DB"`
		TTL      int    `yaml:"ttlSeconds" env:"NETCLUB_REDIS_TTL"`
	} `yaml:"redis"`
	Auth struct {
		JWTSecret string `yaml:"jwtSecret" env:"NETCLUB_JWT_SECRET"`
		TokenTTL  int    `yaml:"tokenTTLSeconds" env:"NETCLUB_TOKEN_TTL"`
	} `yaml:"auth"`
	Metrics struct {
		Enabled bool `yaml:"enabled" env:"NETCLUB_METRICS_ENABLED"`
	} `yaml:"metrics"`
}

// Load reads configuration via the shared helper and applies defaults.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "8080"
	cfg.Database.MigrationsDir = "migrations"
	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.TTL = 86400
	cfg.Auth.TokenTTL = 86400

	if err := libconfig.Load(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, errors.New("config: database dsn required")
	}
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return nil, errors.New("config: jwt secret required")
	}
	return cfg, nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// ActiveSessionTTL returns cache ttl as duration.
func (c *Config) ActiveSessionTTL() time.Duration {
	if c.Redis.TTL <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Redis.TTL) * time.Second
}

// TokenTTL returns JWT lifetime as duration.
func (c *Config) TokenTTL() time.Duration {
	if c.Auth.TokenTTL <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Auth.TokenTTL) * time.Second
}
