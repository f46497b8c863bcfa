package statestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createStateTable = `
CREATE TABLE IF NOT EXISTS driver_state (
	namespace  TEXT        NOT NULL,
	key        TEXT        NOT NULL,
	value      TEXT        NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (namespace, key)
)`

// Postgres stores keys as rows of driver_state scoped by namespace.
type Postgres struct {
	pool      *pgxpool.Pool
	namespace string
}

// NewPostgres takes ownership of pool and ensures the table exists.
func NewPostgres(ctx context.Context, pool *pgxpool.Pool, namespace string) (*Postgres, error) {
	if _, err := pool.Exec(ctx, createStateTable); err != nil {
		return nil, fmt.Errorf("statestore: create driver_state: %w", err)
	}
	return &Postgres{pool: pool, namespace: namespace}, nil
}

func (p *Postgres) Get(ctx context.Context, key string) (string, bool, error) {
	const q = `SELECT value FROM driver_state WHERE namespace = $1 AND key = $2`

	var v string
	err := p.pool.QueryRow(ctx, q, p.namespace, key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("statestore: select %s: %w", key, err)
	}
	return v, true, nil
}

func (p *Postgres) Set(ctx context.Context, key, value string) error {
	const q = `
INSERT INTO driver_state (namespace, key, value, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`

	if _, err := p.pool.Exec(ctx, q, p.namespace, key, value); err != nil {
		return fmt.Errorf("statestore: upsert %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	const q = `DELETE FROM driver_state WHERE namespace = $1 AND key = $2`

	if _, err := p.pool.Exec(ctx, q, p.namespace, key); err != nil {
		return fmt.Errorf("statestore: delete %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
