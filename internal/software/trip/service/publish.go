package service

import (
	"context"
	"time"

	"driver-link/internal/general/contracts"
	"driver-link/internal/general/logger"
)

const journalTimeout = 3 * time.Second

// publish journals a trip event. Journal failures never affect the trip.
func (service *tripService) publish(ctx context.Context, event contracts.TripEvent) {
	if service.journal == nil {
		return
	}
	event.Envelope = contracts.NewEnvelope(producerName, logger.RequestID(ctx))

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalTimeout)
	defer cancel()

	key := contracts.RouteDriverTripPrefix + event.Checkpoint
	if err := service.journal.Publish(ctx, key, event); err != nil {
		service.logger.Warn(ctx, "trip_journal_failed", "Failed to journal trip event", err, map[string]any{
			"routing_key": key,
		})
	}
}
