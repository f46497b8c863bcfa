package redis

import (
	"context"
	"fmt"
	"time"

	"driver-link/internal/general/logger"

	goredis "github.com/redis/go-redis/v9"
)

// Options for NewClient.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewClient creates a Redis client and verifies connectivity.
func NewClient(ctx context.Context, opts Options, logger *logger.Logger) (*goredis.Client, error) {
	start := time.Now()

	client := goredis.NewClient(&goredis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	logger.Info(ctx, "redis_connected", "Connected to Redis", map[string]any{
		"addr":        opts.Addr,
		"db":          opts.DB,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return client, nil
}
