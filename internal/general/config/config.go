package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// State backends.
const (
	StateBackendFile     = "file"
	StateBackendRedis    = "redis"
	StateBackendPostgres = "postgres"
	StateBackendMemory   = "memory"
)

// DatabaseConfig holds PostgreSQL connection settings for the postgres state backend.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"database"`
}

type Config struct {
	Dispatch struct {
		WSURL          string        `yaml:"ws_url"`
		APIBaseURL     string        `yaml:"api_base_url"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
	} `yaml:"dispatch"`
	Session struct {
		ReconnectDelay   time.Duration `yaml:"reconnect_delay"`
		PingInterval     time.Duration `yaml:"ping_interval"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	} `yaml:"session"`
	Telemetry struct {
		Interval time.Duration `yaml:"interval"`
	} `yaml:"telemetry"`
	Supervisor struct {
		DataDir          string        `yaml:"data_dir"`
		WakePeriod       time.Duration `yaml:"wake_period"`
		DismissWakeDelay time.Duration `yaml:"dismiss_wake_delay"`
	} `yaml:"supervisor"`
	State struct {
		Backend       string         `yaml:"backend"`
		Path          string         `yaml:"path"`
		Namespace     string         `yaml:"namespace"`
		RedisAddr     string         `yaml:"redis_addr"`
		RedisPassword string         `yaml:"redis_password"`
		RedisDB       int            `yaml:"redis_db"`
		Database      DatabaseConfig `yaml:"database"`
	} `yaml:"state"`
	Control struct {
		Addr string `yaml:"addr"`
	} `yaml:"control"`
	RabbitMQ struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
	} `yaml:"rabbitmq"`
	JWT struct {
		SecretKey string `yaml:"secret_key"`
	} `yaml:"jwt"`
}

// LoadFromFile loads config from a YAML file, applies env overrides and defaults, and validates required fields.
// A missing file is not an error: the agent can run purely from env + defaults.
func LoadFromFile(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		// env + defaults only
	default:
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets safe defaults for some fields.
func applyDefaults(cfg *Config) {
	// Dispatch
	if cfg.Dispatch.RequestTimeout == 0 {
		cfg.Dispatch.RequestTimeout = 30 * time.Second
	}

	// Session
	if cfg.Session.ReconnectDelay == 0 {
		cfg.Session.ReconnectDelay = 5 * time.Second
	}
	if cfg.Session.PingInterval == 0 {
		cfg.Session.PingInterval = 20 * time.Second
	}
	if cfg.Session.WriteTimeout == 0 {
		cfg.Session.WriteTimeout = 30 * time.Second
	}
	if cfg.Session.HandshakeTimeout == 0 {
		cfg.Session.HandshakeTimeout = 30 * time.Second
	}

	// Telemetry
	if cfg.Telemetry.Interval == 0 {
		cfg.Telemetry.Interval = 30 * time.Second
	}

	// Supervisor
	if cfg.Supervisor.DataDir == "" {
		cfg.Supervisor.DataDir = defaultDataDir()
	}
	if cfg.Supervisor.WakePeriod == 0 {
		cfg.Supervisor.WakePeriod = 4 * time.Minute
	}
	if cfg.Supervisor.DismissWakeDelay == 0 {
		cfg.Supervisor.DismissWakeDelay = 2 * time.Second
	}

	// State
	if cfg.State.Backend == "" {
		cfg.State.Backend = StateBackendFile
	}
	if cfg.State.Path == "" {
		cfg.State.Path = filepath.Join(cfg.Supervisor.DataDir, "state.json")
	}
	if cfg.State.Namespace == "" {
		cfg.State.Namespace = "driver-link"
	}
	if cfg.State.RedisAddr == "" {
		cfg.State.RedisAddr = "localhost:6379"
	}
	if cfg.State.Database.Host == "" {
		cfg.State.Database.Host = "localhost"
	}
	if cfg.State.Database.Port == 0 {
		cfg.State.Database.Port = 5432
	}

	// Control API
	if cfg.Control.Addr == "" {
		cfg.Control.Addr = "127.0.0.1:7070"
	}

	// RabbitMQ
	if cfg.RabbitMQ.Host == "" {
		cfg.RabbitMQ.Host = "localhost"
	}
	if cfg.RabbitMQ.Port == 0 {
		cfg.RabbitMQ.Port = 5672
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "driver-link")
	}
	return filepath.Join(os.TempDir(), "driver-link")
}

// validate checks required fields and basic ranges.
func (c *Config) validate() error {
	var problems []string

	// Dispatch
	if c.Dispatch.WSURL == "" {
		problems = append(problems, "dispatch.ws_url is required")
	} else if u, err := url.Parse(c.Dispatch.WSURL); err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
		problems = append(problems, "dispatch.ws_url must be a ws:// or wss:// URL")
	}
	if c.Dispatch.APIBaseURL == "" {
		problems = append(problems, "dispatch.api_base_url is required")
	} else if u, err := url.Parse(c.Dispatch.APIBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		problems = append(problems, "dispatch.api_base_url must be an http:// or https:// URL")
	}
	if c.Dispatch.RequestTimeout < 0 {
		problems = append(problems, "dispatch.request_timeout must be positive")
	}

	// Session
	if c.Session.ReconnectDelay < 0 {
		problems = append(problems, "session.reconnect_delay must be positive")
	}
	if c.Session.PingInterval < 0 {
		problems = append(problems, "session.ping_interval must be positive")
	}

	// Telemetry
	if c.Telemetry.Interval < time.Second {
		problems = append(problems, "telemetry.interval must be at least 1s")
	}

	// Supervisor
	if c.Supervisor.WakePeriod < time.Minute {
		problems = append(problems, "supervisor.wake_period must be at least 1m")
	}

	// State
	switch c.State.Backend {
	case StateBackendFile, StateBackendMemory:
	case StateBackendRedis:
	case StateBackendPostgres:
		if c.State.Database.Port <= 0 || c.State.Database.Port > 65535 {
			problems = append(problems, "state.database.port must be in 1..65535")
		}
		if c.State.Database.User == "" {
			problems = append(problems, "state.database.user is required")
		}
		if c.State.Database.Name == "" {
			problems = append(problems, "state.database.database is required")
		}
	default:
		problems = append(problems, fmt.Sprintf("state.backend must be one of file|redis|postgres|memory, got %q", c.State.Backend))
	}

	// RabbitMQ
	if c.RabbitMQ.Enabled {
		if c.RabbitMQ.Port <= 0 || c.RabbitMQ.Port > 65535 {
			problems = append(problems, "rabbitmq.port must be in 1..65535")
		}
		if c.RabbitMQ.User == "" {
			problems = append(problems, "rabbitmq.user is required")
		}
		if c.RabbitMQ.Password == "" {
			problems = append(problems, "rabbitmq.password is required")
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
