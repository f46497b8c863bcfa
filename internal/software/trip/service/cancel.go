package service

import (
	"context"
	"strings"
	"time"

	"driver-link/internal/domain/trip"
	"driver-link/internal/general/contracts"
)

// Cancel cancels the current order on the server and forgets it locally.
func (service *tripService) Cancel(ctx context.Context, reason string) (string, error) {
	service.mu.Lock()
	current, err := service.resolveLocked(ctx)
	if err != nil {
		service.mu.Unlock()
		return "", err
	}
	orderID, checkpoint, gen := current.OrderID, current.Checkpoint, service.gen
	service.mu.Unlock()

	if checkpoint.Terminal() {
		return "", ErrTripFinished
	}
	ctx = service.logger.WithOrderID(ctx, orderID)

	message, err := service.api.CancelOrder(ctx, orderID, strings.TrimSpace(reason))
	if err != nil {
		service.logger.Warn(ctx, "trip_cancel_failed", "Failed to cancel order", err, nil)
		return "", err
	}
	if message == "" {
		message = "Order cancelled"
	}

	service.mu.Lock()
	if service.gen == gen && service.current != nil && service.current.OrderID == orderID {
		_ = service.current.Advance(trip.CheckpointCancelled)
		service.current = nil
		service.details = nil
		err = service.store.ClearCurrentOrder(ctx)
	}
	service.mu.Unlock()
	if err != nil {
		service.logger.Error(ctx, "trip_persist_failed", "Failed to clear cancelled order", err, nil)
	}

	service.logger.Info(ctx, "trip_cancelled", "Order cancelled", map[string]any{"reason": reason})
	service.publish(ctx, contracts.TripEvent{
		OrderID:    orderID,
		Checkpoint: trip.CheckpointCancelled.String(),
		Success:    true,
		Message:    message,
		Timestamp:  time.Now().UTC(),
	})
	return message, nil
}
