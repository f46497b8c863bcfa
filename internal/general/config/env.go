package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const envPrefix = "DRIVER_LINK_"

// applyEnv overrides file values with DRIVER_LINK_* environment variables.
func applyEnv(cfg *Config) {
	cfg.Dispatch.WSURL = envOrDefault("WS_URL", cfg.Dispatch.WSURL)
	cfg.Dispatch.APIBaseURL = envOrDefault("API_BASE_URL", cfg.Dispatch.APIBaseURL)
	cfg.Dispatch.RequestTimeout = envOrDefaultDuration("REQUEST_TIMEOUT", cfg.Dispatch.RequestTimeout)

	cfg.Session.ReconnectDelay = envOrDefaultDuration("RECONNECT_DELAY", cfg.Session.ReconnectDelay)
	cfg.Session.PingInterval = envOrDefaultDuration("PING_INTERVAL", cfg.Session.PingInterval)

	cfg.Telemetry.Interval = envOrDefaultDuration("TELEMETRY_INTERVAL", cfg.Telemetry.Interval)

	cfg.Supervisor.DataDir = envOrDefault("DATA_DIR", cfg.Supervisor.DataDir)
	cfg.Supervisor.WakePeriod = envOrDefaultDuration("WAKE_PERIOD", cfg.Supervisor.WakePeriod)

	cfg.State.Backend = strings.ToLower(envOrDefault("STATE_BACKEND", cfg.State.Backend))
	cfg.State.Path = envOrDefault("STATE_PATH", cfg.State.Path)
	cfg.State.RedisAddr = envOrDefault("REDIS_ADDR", cfg.State.RedisAddr)
	cfg.State.RedisPassword = envOrDefault("REDIS_PASSWORD", cfg.State.RedisPassword)
	cfg.State.RedisDB = envOrDefaultInt("REDIS_DB", cfg.State.RedisDB)
	cfg.State.Database.Host = envOrDefault("DB_HOST", cfg.State.Database.Host)
	cfg.State.Database.Port = envOrDefaultInt("DB_PORT", cfg.State.Database.Port)
	cfg.State.Database.User = envOrDefault("DB_USER", cfg.State.Database.User)
	cfg.State.Database.Password = envOrDefault("DB_PASSWORD", cfg.State.Database.Password)
	cfg.State.Database.Name = envOrDefault("DB_NAME", cfg.State.Database.Name)

	cfg.Control.Addr = envOrDefault("CONTROL_ADDR", cfg.Control.Addr)

	cfg.RabbitMQ.Enabled = envOrDefaultBool("RABBITMQ_ENABLED", cfg.RabbitMQ.Enabled)
	cfg.RabbitMQ.Host = envOrDefault("RABBITMQ_HOST", cfg.RabbitMQ.Host)
	cfg.RabbitMQ.Port = envOrDefaultInt("RABBITMQ_PORT", cfg.RabbitMQ.Port)
	cfg.RabbitMQ.User = envOrDefault("RABBITMQ_USER", cfg.RabbitMQ.User)
	cfg.RabbitMQ.Password = envOrDefault("RABBITMQ_PASSWORD", cfg.RabbitMQ.Password)

	cfg.JWT.SecretKey = envOrDefault("JWT_SECRET", cfg.JWT.SecretKey)
}

func envOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(envPrefix + key)); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(envPrefix + key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(envPrefix + key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(envPrefix + key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
