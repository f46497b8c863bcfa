package statestore

import (
	"context"
	"fmt"

	"driver-link/internal/general/config"
	"driver-link/internal/general/logger"
	"driver-link/internal/general/postgres"
	"driver-link/internal/general/redis"
)

// Open builds the backend selected by cfg.State.Backend and wraps it in a Store.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Store, error) {
	switch cfg.State.Backend {
	case config.StateBackendFile, "":
		f, err := OpenFile(cfg.State.Path)
		if err != nil {
			return nil, err
		}
		log.Info(ctx, "state_store_opened", "Using file state store", map[string]any{"path": cfg.State.Path})
		return New(f), nil

	case config.StateBackendRedis:
		client, err := redis.NewClient(ctx, redis.Options{
			Addr:     cfg.State.RedisAddr,
			Password: cfg.State.RedisPassword,
			DB:       cfg.State.RedisDB,
		}, log)
		if err != nil {
			return nil, err
		}
		return New(NewRedis(client, cfg.State.Namespace)), nil

	case config.StateBackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.State.Database, log)
		if err != nil {
			return nil, err
		}
		pg, err := NewPostgres(ctx, pool, cfg.State.Namespace)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return New(pg), nil

	case config.StateBackendMemory:
		log.Warn(ctx, "state_store_ephemeral", "Using in-memory state store, flags are lost on exit", nil, nil)
		return New(NewMemory()), nil

	default:
		return nil, fmt.Errorf("statestore: unknown backend %q", cfg.State.Backend)
	}
}
