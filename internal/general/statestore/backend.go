package statestore

import (
	"context"
	"errors"
)

var ErrClosed = errors.New("statestore: closed")

// Backend is a durable string key-value store. Get reports absence with ok=false, never with an error.
type Backend interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}
