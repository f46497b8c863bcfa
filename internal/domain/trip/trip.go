package trip

import (
	"errors"
	"time"
)

// Trip is the delivery currently assigned to this device.
type Trip struct {
	OrderID     int64
	Checkpoint  Checkpoint
	StartedAt   time.Time
	CompletedAt *time.Time
}

var (
	ErrOrderIDRequired     = errors.New("order id must be positive")
	ErrInvalidTransition   = errors.New("invalid checkpoint transition")
	ErrTripAlreadyFinished = errors.New("trip already finished")
)

// New creates a trip in ASSIGNED state for an accepted order.
func New(orderID int64) (*Trip, error) {
	if orderID <= 0 {
		return nil, ErrOrderIDRequired
	}
	return &Trip{
		OrderID:    orderID,
		Checkpoint: CheckpointAssigned,
		StartedAt:  time.Now().UTC(),
	}, nil
}

// Restore rebuilds a trip from persisted state. An invalid or empty checkpoint becomes UNKNOWN.
func Restore(orderID int64, checkpoint string) (*Trip, error) {
	if orderID <= 0 {
		return nil, ErrOrderIDRequired
	}
	cp, err := ParseCheckpoint(checkpoint)
	if err != nil {
		cp = CheckpointUnknown
	}
	return &Trip{
		OrderID:    orderID,
		Checkpoint: cp,
		StartedAt:  time.Now().UTC(),
	}, nil
}

// Advance moves the trip to next. Completion and cancellation stamp CompletedAt.
func (trip *Trip) Advance(next Checkpoint) error {
	if trip.Checkpoint.Terminal() {
		return ErrTripAlreadyFinished
	}
	if !trip.Checkpoint.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	trip.Checkpoint = next
	if next.Terminal() {
		now := time.Now().UTC()
		trip.CompletedAt = &now
	}
	return nil
}
