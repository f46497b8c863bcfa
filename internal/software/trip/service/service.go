package service

import (
	"context"
	"errors"
	"sync"

	"driver-link/internal/domain/trip"
	"driver-link/internal/general/contracts"
	"driver-link/internal/general/logger"
	"driver-link/internal/ports"
)

const (
	producerName     = "driver-link-agent"
	msgNoActiveOrder = "No active order"
)

var (
	ErrNoActiveOrder  = errors.New(msgNoActiveOrder)
	ErrStepInProgress = errors.New("trip: step already in progress")
	ErrTripFinished   = errors.New("trip: already finished")
)

// slot is one observable step result. changed is closed and replaced on every write.
type slot struct {
	result  trip.Result
	changed chan struct{}
}

// tripService is the trip lifecycle state machine.
// mu guards the in-memory trip, the slots and the detail cache, and serializes writes to the trip store.
type tripService struct {
	logger  *logger.Logger
	api     ports.OrderAPI
	store   ports.TripStore
	journal ports.EventPublisher

	mu      sync.Mutex
	current *trip.Trip
	gen     uint64 // bumped on every reset; results of an older generation are discarded
	slots   [len(trip.Steps)]slot
	details *contracts.OrderDetails
}

// NewTripService constructs the machine. A nil journal disables event publishing.
func NewTripService(
	log *logger.Logger,
	api ports.OrderAPI,
	store ports.TripStore,
	journal ports.EventPublisher,
) ports.TripService {
	if log == nil {
		log = logger.Discard()
	}
	service := &tripService{
		logger:  log,
		api:     api,
		store:   store,
		journal: journal,
	}
	for i := range service.slots {
		service.slots[i] = slot{result: trip.Unset(), changed: make(chan struct{})}
	}
	return service
}

// Result returns the current value of the step's slot.
func (service *tripService) Result(step trip.Step) trip.Result {
	if !step.Valid() {
		return trip.Unset()
	}
	service.mu.Lock()
	defer service.mu.Unlock()
	return service.slots[step].result
}

// Watch returns the current value of the step's slot and a channel closed on its next change.
func (service *tripService) Watch(step trip.Step) (trip.Result, <-chan struct{}) {
	if !step.Valid() {
		return trip.Unset(), nil
	}
	service.mu.Lock()
	defer service.mu.Unlock()
	s := service.slots[step]
	return s.result, s.changed
}

// Snapshot reports the in-memory trip and all step results.
func (service *tripService) Snapshot() ports.TripSnapshot {
	service.mu.Lock()
	defer service.mu.Unlock()

	out := ports.TripSnapshot{Results: make(map[string]trip.Result, len(trip.Steps))}
	for _, step := range trip.Steps {
		out.Results[step.String()] = service.slots[step].result
	}
	if service.current != nil {
		out.OrderID = service.current.OrderID
		out.Checkpoint = service.current.Checkpoint.String()
	}
	return out
}

// setSlotLocked stores result and wakes watchers. Caller holds mu.
func (service *tripService) setSlotLocked(step trip.Step, result trip.Result) {
	s := &service.slots[step]
	s.result = result
	close(s.changed)
	s.changed = make(chan struct{})
}

// resetLocked clears every slot and the detail cache and starts a new generation. Caller holds mu.
func (service *tripService) resetLocked() {
	service.gen++
	for _, step := range trip.Steps {
		service.setSlotLocked(step, trip.Unset())
	}
	service.details = nil
}

// resolveLocked returns the trip steps act on: the in-memory one, or one restored from the store.
// Caller holds mu.
func (service *tripService) resolveLocked(ctx context.Context) (*trip.Trip, error) {
	if service.current != nil {
		return service.current, nil
	}

	id, ok, err := service.store.CurrentOrderID(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoActiveOrder
	}
	checkpoint, err := service.store.Checkpoint(ctx)
	if err != nil {
		return nil, err
	}
	restored, err := trip.Restore(id, checkpoint)
	if err != nil {
		return nil, ErrNoActiveOrder
	}

	service.current = restored
	service.logger.Info(service.logger.WithOrderID(ctx, id), "trip_restored", "Resumed trip from persisted state", map[string]any{
		"checkpoint": restored.Checkpoint.String(),
	})
	return restored, nil
}
