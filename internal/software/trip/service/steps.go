package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"driver-link/internal/domain/geo"
	"driver-link/internal/domain/trip"
	"driver-link/internal/general/contracts"
	"driver-link/internal/general/orderapi"
)

// stepCall performs the remote checkpoint call for one order.
type stepCall func(ctx context.Context, orderID int64) (string, error)

func (service *tripService) ArrivedAtPickup(ctx context.Context, pos geo.Point) (trip.Result, error) {
	return service.runStep(ctx, trip.StepArrivedAtPickup, pos, func(ctx context.Context, id int64) (string, error) {
		return service.api.ArrivedAtPickup(ctx, id, pos)
	})
}

func (service *tripService) StartTrip(ctx context.Context, otp string, pos geo.Point) (trip.Result, error) {
	return service.runStep(ctx, trip.StepStartTrip, pos, func(ctx context.Context, id int64) (string, error) {
		return service.api.StartTrip(ctx, id, otp, pos)
	})
}

func (service *tripService) ArrivedAtDrop(ctx context.Context, pos geo.Point) (trip.Result, error) {
	return service.runStep(ctx, trip.StepArrivedAtDrop, pos, func(ctx context.Context, id int64) (string, error) {
		return service.api.ArrivedAtDrop(ctx, id, pos)
	})
}

// EndTrip completes the trip. On success the persisted order id is cleared.
func (service *tripService) EndTrip(ctx context.Context, pos geo.Point) (trip.Result, error) {
	return service.runStep(ctx, trip.StepEndTrip, pos, func(ctx context.Context, id int64) (string, error) {
		return service.api.EndTrip(ctx, id, pos)
	})
}

// runStep moves the step's slot to Loading and then to exactly one terminal result.
// Nothing is retried; a failure is left for the driver to retry.
func (service *tripService) runStep(ctx context.Context, step trip.Step, pos geo.Point, call stepCall) (trip.Result, error) {
	service.mu.Lock()
	if service.slots[step].result.Phase == trip.PhaseLoading {
		service.mu.Unlock()
		return service.Result(step), ErrStepInProgress
	}
	service.setSlotLocked(step, trip.Loading())
	gen := service.gen

	// preconditions are checked locally, without any request
	current, err := service.resolveLocked(ctx)
	if err != nil {
		service.mu.Unlock()
		if errors.Is(err, ErrNoActiveOrder) {
			return service.finish(ctx, step, gen, 0, trip.Failure(msgNoActiveOrder)), nil
		}
		service.logger.Error(ctx, "trip_state_read_failed", "Failed to read current order", err, map[string]any{
			"step": step.String(),
		})
		return service.finish(ctx, step, gen, 0, trip.Failure("Could not read the current order")), nil
	}
	orderID, checkpoint := current.OrderID, current.Checkpoint
	service.mu.Unlock()

	ctx = service.logger.WithOrderID(ctx, orderID)

	if err := pos.Validate(); err != nil {
		return service.finish(ctx, step, gen, orderID, trip.Failure(err.Error())), nil
	}
	if checkpoint.Terminal() {
		return service.finish(ctx, step, gen, orderID, trip.Failure("Trip is already "+checkpoint.String())), nil
	}
	if !checkpoint.CanTransitionTo(step.Target()) {
		msg := fmt.Sprintf("Cannot mark %s while trip is %s", step.String(), checkpoint.String())
		return service.finish(ctx, step, gen, orderID, trip.Failure(msg)), nil
	}

	start := time.Now()
	message, err := call(ctx, orderID)
	if err != nil {
		service.logger.Warn(ctx, "trip_step_failed", "Checkpoint call failed", err, map[string]any{
			"step":        step.String(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return service.finish(ctx, step, gen, orderID, trip.Failure(failureMessage(err))), nil
	}
	if message == "" {
		message = defaultSuccessMessage(step)
	}
	return service.finish(ctx, step, gen, orderID, trip.Success(message)), nil
}

// finish writes the terminal result, advances the trip on success and journals the attempt.
// A result from an older generation (a new order arrived meanwhile) is returned but not stored.
func (service *tripService) finish(ctx context.Context, step trip.Step, gen uint64, orderID int64, result trip.Result) trip.Result {
	service.mu.Lock()
	if service.gen != gen {
		service.mu.Unlock()
		service.logger.Info(ctx, "trip_step_stale", "Discarding result for a replaced order", map[string]any{
			"step":  step.String(),
			"phase": string(result.Phase),
		})
		return result
	}

	checkpoint := trip.CheckpointUnknown
	if service.current != nil && service.current.OrderID == orderID {
		checkpoint = service.current.Checkpoint
	}

	var persistErr error
	if result.Phase == trip.PhaseSuccess && service.current != nil && service.current.OrderID == orderID {
		if err := service.current.Advance(step.Target()); err != nil {
			// the server accepted it, so follow the server
			service.current.Checkpoint = step.Target()
		}
		checkpoint = service.current.Checkpoint

		if step == trip.StepEndTrip {
			persistErr = service.store.ClearCurrentOrder(ctx)
			service.current = nil
		} else {
			persistErr = service.store.SetCheckpoint(ctx, checkpoint.String())
		}
	}
	service.setSlotLocked(step, result)
	service.mu.Unlock()

	if persistErr != nil {
		service.logger.Error(ctx, "trip_persist_failed", "Failed to persist trip checkpoint", persistErr, map[string]any{
			"step":       step.String(),
			"checkpoint": checkpoint.String(),
		})
	}

	if orderID > 0 {
		service.logger.Info(ctx, "trip_step_finished", "Checkpoint step finished", map[string]any{
			"step":       step.String(),
			"phase":      string(result.Phase),
			"checkpoint": checkpoint.String(),
			"message":    result.Message,
		})
		service.publish(ctx, contracts.TripEvent{
			OrderID:    orderID,
			Step:       step.String(),
			Checkpoint: checkpoint.String(),
			Success:    result.Phase == trip.PhaseSuccess,
			Message:    result.Message,
			Timestamp:  time.Now().UTC(),
		})
	}
	return result
}

// failureMessage maps a step error to the text shown to the driver.
func failureMessage(err error) string {
	var stepErr *orderapi.StepError
	switch {
	case errors.As(err, &stepErr):
		return stepErr.Message
	case errors.Is(err, orderapi.ErrNoToken):
		return "Not signed in"
	case errors.Is(err, context.DeadlineExceeded):
		return "Request timed out. Check the trip status before retrying"
	default:
		return "Could not reach the server. Please retry"
	}
}

func defaultSuccessMessage(step trip.Step) string {
	switch step {
	case trip.StepArrivedAtPickup:
		return "Arrived at pickup"
	case trip.StepStartTrip:
		return "Trip started"
	case trip.StepArrivedAtDrop:
		return "Arrived at drop"
	default:
		return "Trip completed"
	}
}
