package service

import (
	"context"
	"errors"

	"driver-link/internal/domain/trip"
	"driver-link/internal/general/contracts"
)

// AcceptOrder makes order the current trip. Every step slot and the detail cache
// are cleared before the new order id becomes visible. An offer for the trip already
// in progress is a redelivery and leaves its checkpoint and results alone.
func (service *tripService) AcceptOrder(ctx context.Context, order contracts.NewOrder) error {
	next, err := trip.New(order.OrderID)
	if err != nil {
		return err
	}
	ctx = service.logger.WithOrderID(ctx, order.OrderID)

	service.mu.Lock()
	previous, rerr := service.resolveLocked(ctx)
	if rerr != nil && !errors.Is(rerr, ErrNoActiveOrder) {
		service.logger.Warn(ctx, "trip_resolve_failed", "Could not read the persisted order", rerr, nil)
	}
	if previous != nil && previous.OrderID == next.OrderID && !previous.Checkpoint.Terminal() {
		checkpoint := previous.Checkpoint.String()
		service.mu.Unlock()
		service.logger.Info(ctx, "trip_resignaled", "Offer for the current trip received again", map[string]any{
			"checkpoint": checkpoint,
		})
		return nil
	}
	service.resetLocked()
	service.current = next
	err = service.store.SetCurrentOrder(ctx, next.OrderID, next.Checkpoint.String())
	service.mu.Unlock()

	if previous != nil && previous.OrderID != next.OrderID && !previous.Checkpoint.Terminal() {
		service.logger.Warn(ctx, "trip_replaced", "New order replaced an unfinished trip", nil, map[string]any{
			"previous_order_id":   previous.OrderID,
			"previous_checkpoint": previous.Checkpoint.String(),
		})
	}
	if err != nil {
		service.logger.Error(ctx, "trip_persist_failed", "Failed to persist accepted order", err, nil)
		return err
	}

	service.logger.Info(ctx, "trip_assigned", "Order assigned", map[string]any{
		"pickup":          order.Pickup,
		"drop":            order.Drop,
		"distance_km":     order.DistanceKm,
		"estimated_fare":  order.EstimatedFare,
		"helper_required": order.HelperRequired,
	})
	service.publish(ctx, contracts.TripEvent{
		OrderID:    next.OrderID,
		Checkpoint: next.Checkpoint.String(),
		Success:    true,
		Timestamp:  next.StartedAt,
	})
	return nil
}
