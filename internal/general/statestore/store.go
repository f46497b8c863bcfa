package statestore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Persisted keys.
const (
	KeyIsOnline            = "driver_is_online"
	KeyCurrentOrderID      = "current_order_id"
	KeySessionToken        = "session_token"
	KeyCleanShutdownMarker = "clean_shutdown_marker"
	KeyCurrentCheckpoint   = "current_checkpoint"
)

var ErrCorruptValue = errors.New("statestore: corrupt value")

// Flags is what a cold start reads. CurrentOrderID is 0 when no order is held.
type Flags struct {
	IsOnline       bool   `json:"isOnline"`
	CurrentOrderID int64  `json:"currentOrderId,omitempty"`
	SessionToken   string `json:"-"`
}

// HasOrder reports whether an order id is persisted.
func (f Flags) HasOrder() bool {
	return f.CurrentOrderID > 0
}

// Store is the typed view over a Backend.
type Store struct {
	backend Backend
}

func New(backend Backend) *Store {
	return &Store{backend: backend}
}

func (s *Store) Close() error {
	return s.backend.Close()
}

// Load reads all flags in one go.
func (s *Store) Load(ctx context.Context) (Flags, error) {
	var flags Flags
	var err error

	if flags.IsOnline, err = s.IsOnline(ctx); err != nil {
		return Flags{}, err
	}
	if flags.CurrentOrderID, _, err = s.CurrentOrderID(ctx); err != nil {
		return Flags{}, err
	}
	if flags.SessionToken, err = s.SessionToken(ctx); err != nil {
		return Flags{}, err
	}
	return flags, nil
}

// ----- driver_is_online -----

func (s *Store) IsOnline(ctx context.Context) (bool, error) {
	v, ok, err := s.backend.Get(ctx, KeyIsOnline)
	if err != nil || !ok {
		return false, err
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s=%q", ErrCorruptValue, KeyIsOnline, v)
	}
	return b, nil
}

func (s *Store) SetOnline(ctx context.Context, online bool) error {
	return s.backend.Set(ctx, KeyIsOnline, strconv.FormatBool(online))
}

// ----- current_order_id / current_checkpoint -----

// CurrentOrderID returns the persisted order id, ok=false when none is held.
func (s *Store) CurrentOrderID(ctx context.Context) (int64, bool, error) {
	v, ok, err := s.backend.Get(ctx, KeyCurrentOrderID)
	if err != nil || !ok {
		return 0, false, err
	}
	id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || id <= 0 {
		return 0, false, fmt.Errorf("%w: %s=%q", ErrCorruptValue, KeyCurrentOrderID, v)
	}
	return id, true, nil
}

// SetCurrentOrder stores id and the checkpoint reached so far.
func (s *Store) SetCurrentOrder(ctx context.Context, id int64, checkpoint string) error {
	if id <= 0 {
		return fmt.Errorf("statestore: order id must be positive, got %d", id)
	}
	if err := s.backend.Set(ctx, KeyCurrentOrderID, strconv.FormatInt(id, 10)); err != nil {
		return err
	}
	return s.SetCheckpoint(ctx, checkpoint)
}

// ClearCurrentOrder removes the order id and its checkpoint.
func (s *Store) ClearCurrentOrder(ctx context.Context) error {
	if err := s.backend.Delete(ctx, KeyCurrentOrderID); err != nil {
		return err
	}
	return s.backend.Delete(ctx, KeyCurrentCheckpoint)
}

// Checkpoint returns the last checkpoint persisted for the current order, "" if unknown.
func (s *Store) Checkpoint(ctx context.Context) (string, error) {
	v, _, err := s.backend.Get(ctx, KeyCurrentCheckpoint)
	return v, err
}

func (s *Store) SetCheckpoint(ctx context.Context, checkpoint string) error {
	if checkpoint == "" {
		return s.backend.Delete(ctx, KeyCurrentCheckpoint)
	}
	return s.backend.Set(ctx, KeyCurrentCheckpoint, checkpoint)
}

// ----- session_token -----

func (s *Store) SessionToken(ctx context.Context) (string, error) {
	v, _, err := s.backend.Get(ctx, KeySessionToken)
	return v, err
}

func (s *Store) SetSessionToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return s.backend.Delete(ctx, KeySessionToken)
	}
	return s.backend.Set(ctx, KeySessionToken, token)
}

// ----- clean_shutdown_marker -----

// CleanShutdownMarker returns the boot identity recorded by the last clean shutdown, "" if none.
func (s *Store) CleanShutdownMarker(ctx context.Context) (string, error) {
	v, _, err := s.backend.Get(ctx, KeyCleanShutdownMarker)
	return v, err
}

func (s *Store) SetCleanShutdownMarker(ctx context.Context, bootID string) error {
	return s.backend.Set(ctx, KeyCleanShutdownMarker, bootID)
}

func (s *Store) ClearCleanShutdownMarker(ctx context.Context) error {
	return s.backend.Delete(ctx, KeyCleanShutdownMarker)
}
