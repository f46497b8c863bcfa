package service

import (
	"context"

	"driver-link/internal/domain/trip"
	"driver-link/internal/general/contracts"
)

// Details returns the server's view of the current order. The answer is cached until the next order.
// A trip restored without a known checkpoint adopts the server's status.
func (service *tripService) Details(ctx context.Context) (contracts.OrderDetails, error) {
	service.mu.Lock()
	if service.details != nil {
		out := *service.details
		service.mu.Unlock()
		return out, nil
	}
	current, err := service.resolveLocked(ctx)
	if err != nil {
		service.mu.Unlock()
		return contracts.OrderDetails{}, err
	}
	orderID, gen := current.OrderID, service.gen
	service.mu.Unlock()

	ctx = service.logger.WithOrderID(ctx, orderID)
	details, err := service.api.OrderDetails(ctx, orderID)
	if err != nil {
		service.logger.Warn(ctx, "trip_details_failed", "Failed to fetch order details", err, nil)
		return contracts.OrderDetails{}, err
	}

	service.mu.Lock()
	defer service.mu.Unlock()
	if service.gen != gen {
		return details, nil
	}
	service.details = &details

	// reconcile an ambiguous restart against the server
	if service.current != nil && service.current.OrderID == orderID && service.current.Checkpoint == trip.CheckpointUnknown {
		if cp, perr := trip.ParseCheckpoint(details.Status); perr == nil && cp != trip.CheckpointUnknown {
			service.current.Checkpoint = cp
			if err := service.store.SetCheckpoint(ctx, cp.String()); err != nil {
				service.logger.Error(ctx, "trip_persist_failed", "Failed to persist reconciled checkpoint", err, nil)
			}
			service.logger.Info(ctx, "trip_reconciled", "Checkpoint taken from server", map[string]any{
				"checkpoint": cp.String(),
			})
		}
	}
	return details, nil
}
