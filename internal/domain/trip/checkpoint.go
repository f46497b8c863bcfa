package trip

import (
	"errors"
	"strings"
)

// Checkpoint is a physically verified milestone of a delivery.
type Checkpoint string

const (
	CheckpointUnknown         Checkpoint = "UNKNOWN"
	CheckpointAssigned        Checkpoint = "ASSIGNED"
	CheckpointArrivedAtPickup Checkpoint = "ARRIVED_AT_PICKUP"
	CheckpointStarted         Checkpoint = "STARTED"
	CheckpointArrivedAtDrop   Checkpoint = "ARRIVED_AT_DROP"
	CheckpointCompleted       Checkpoint = "COMPLETED"
	CheckpointCancelled       Checkpoint = "CANCELLED"
)

var ErrInvalidCheckpoint = errors.New("invalid checkpoint")

// ParseCheckpoint normalizes (uppercases+trims) and validates a checkpoint string.
func ParseCheckpoint(in string) (Checkpoint, error) {
	checkpoint := Checkpoint(strings.ToUpper(strings.TrimSpace(in)))
	if checkpoint.Valid() {
		return checkpoint, nil
	}
	return "", ErrInvalidCheckpoint
}

// Valid reports whether checkpoint is one of the allowed constants.
func (checkpoint Checkpoint) Valid() bool {
	switch checkpoint {
	case CheckpointUnknown, CheckpointAssigned, CheckpointArrivedAtPickup, CheckpointStarted,
		CheckpointArrivedAtDrop, CheckpointCompleted, CheckpointCancelled:
		return true
	default:
		return false
	}
}

// String returns the string representation of the Checkpoint.
func (checkpoint Checkpoint) String() string {
	return string(checkpoint)
}

// CanTransitionTo specifies if the checkpoint can move to next.
// UNKNOWN is the position of a trip restored from a persisted order id only; the backend owns ordering there.
func (checkpoint Checkpoint) CanTransitionTo(next Checkpoint) bool {
	switch checkpoint {
	case CheckpointAssigned:
		return next == CheckpointArrivedAtPickup || next == CheckpointCancelled

	case CheckpointArrivedAtPickup:
		return next == CheckpointStarted || next == CheckpointCancelled

	case CheckpointStarted:
		return next == CheckpointArrivedAtDrop || next == CheckpointCancelled

	case CheckpointArrivedAtDrop:
		return next == CheckpointCompleted || next == CheckpointCancelled

	case CheckpointUnknown:
		return next.Valid() && next != CheckpointUnknown && next != CheckpointAssigned

	case CheckpointCompleted, CheckpointCancelled:
		return false

	default:
		return false
	}
}

// Terminal indicates if the trip is finished.
func (checkpoint Checkpoint) Terminal() bool {
	return checkpoint == CheckpointCompleted || checkpoint == CheckpointCancelled
}
