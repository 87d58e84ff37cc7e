// Package config reads the service settings from the environment.
package config

import (
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/redis/go-redis/v9"
)

const (
	BackendMemory   = "memory"
	BackendTables   = "tables"
	BackendPostgres = "postgres"
)

type Config struct {
	Debug       bool     `env:"DEBUG" env-default:"false"`
	Port        string   `env:"PORT" env-default:"8080"`
	HandlerPort string   `env:"FUNCTIONS_CUSTOMHANDLER_PORT"`
	CORSOrigins []string `env:"CORS_ALLOW_ORIGINS" env-separator:","`
	MaxTasks    int      `env:"MAX_TASKS" env-default:"0"`

	BoardIdleTTL time.Duration `env:"BOARD_IDLE_TTL" env-default:"10m"`

	Completion CompletionConfig
	Storage    StorageConfig
	Redis      RedisConfig
	Auth       AuthConfig
	Events     EventsConfig
}

type CompletionConfig struct {
	APIKey         string        `env:"OPENAI_API_KEY"`
	BaseURL        string        `env:"OPENAI_BASE_URL"`
	Timeout        time.Duration `env:"COMPLETION_TIMEOUT" env-default:"45s"`
	PhraseBookFile string        `env:"PHRASEBOOK_FILE"`
}

type StorageConfig struct {
	Backend          string        `env:"STORAGE_BACKEND" env-default:"memory"`
	ConnectionString string        `env:"STORAGE_CONNECTION_STRING"`
	TasksTable       string        `env:"TASKS_TABLE" env-default:"tasks"`
	PostgresURL      string        `env:"POSTGRES_URL"`
	ConnectTimeout   time.Duration `env:"POSTGRES_CONNECT_TIMEOUT" env-default:"10s"`
	PingTimeout      time.Duration `env:"POSTGRES_PING_TIMEOUT" env-default:"10s"`
}

type RedisConfig struct {
	ConnectionString string        `env:"REDIS_CONNECTION_STRING"`
	DeduperTTL       time.Duration `env:"DEDUPER_TTL" env-default:"24h"`
	TasksCacheTTL    time.Duration `env:"TASKS_CACHE_TTL" env-default:"5m"`
	CompletionTTL    time.Duration `env:"COMPLETION_CACHE_TTL" env-default:"1h"`
}

type AuthConfig struct {
	Domain       string        `env:"AUTH0_DOMAIN"`
	Audience     string        `env:"AUTH0_AUDIENCE"`
	SharedSecret string        `env:"LOCAL_AUTH_SHARED_SECRET"`
	KeyCacheTTL  time.Duration `env:"JWKS_KEY_CACHE_TTL" env-default:"15m"`
}

type EventsConfig struct {
	Queue          string        `env:"EVENTS_QUEUE"`
	Workers        int           `env:"EVENTS_WORKERS" env-default:"0"`
	Buffer         int           `env:"EVENTS_BUFFER" env-default:"0"`
	SendTimeout    time.Duration `env:"EVENTS_SEND_TIMEOUT" env-default:"60s"`
	HandoffTimeout time.Duration `env:"EVENTS_HANDOFF_TIMEOUT" env-default:"15ms"`
}

// Read loads the configuration from the environment and validates it.
func Read() (*Config, error) {
	cfg, err := ReadEnv()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReadEnv loads the configuration without cross-field validation, for
// commands that only need part of it.
func ReadEnv() (*Config, error) {
	cfg := new(Config)
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that depend on each other.
func (c *Config) Validate() error {
	if c.MaxTasks < 0 {
		return errors.New("invalid MAX_TASKS: must not be negative")
	}
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendTables:
		if c.Storage.ConnectionString == "" || c.Storage.TasksTable == "" {
			return errors.New("missing storage config")
		}
	case BackendPostgres:
		if c.Storage.PostgresURL == "" {
			return errors.New("missing POSTGRES_URL")
		}
	default:
		return fmt.Errorf("invalid STORAGE_BACKEND %q", c.Storage.Backend)
	}
	if c.Events.Queue != "" && c.Storage.ConnectionString == "" {
		return errors.New("EVENTS_QUEUE requires STORAGE_CONNECTION_STRING")
	}
	if c.Auth.SharedSecret == "" && (c.Auth.Domain == "" || c.Auth.Audience == "") {
		return errors.New("missing Auth0 config")
	}
	if c.BoardIdleTTL < 0 {
		return errors.New("invalid BOARD_IDLE_TTL: must not be negative")
	}
	if c.Redis.DeduperTTL <= 0 {
		return errors.New("invalid DEDUPER_TTL: must be greater than zero")
	}
	return nil
}

// ListenAddr prefers the Azure Functions custom handler port.
func (c *Config) ListenAddr() string {
	if c.HandlerPort != "" {
		return ":" + c.HandlerPort
	}
	return ":" + c.Port
}

// Usage describes every supported variable.
func Usage() string {
	var b strings.Builder
	cleanenv.FUsage(&b, new(Config), nil)()
	return b.String()
}

// RedisOptions accepts a redis:// URL or an Azure style
// "host:port,password=...,ssl=True" connection string.
func RedisOptions(conn string) (*redis.Options, error) {
	conn = strings.TrimSpace(conn)
	if conn == "" {
		return nil, errors.New("empty redis connection string")
	}
	if opts, err := redis.ParseURL(conn); err == nil {
		return opts, nil
	}
	parts := strings.Split(conn, ",")
	opts := &redis.Options{Addr: strings.TrimSpace(parts[0])}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(kv[0])) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.EqualFold(strings.TrimSpace(kv[1]), "true") {
				opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
			}
		}
	}
	return opts, nil
}
