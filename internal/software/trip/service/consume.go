package service

import (
	"context"

	"driver-link/internal/general/contracts"
)

// Consume applies dispatch messages until ctx is done or messages is closed.
func (service *tripService) Consume(ctx context.Context, messages <-chan contracts.DispatchMessage) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			service.handle(ctx, msg)
		}
	}
}

func (service *tripService) handle(ctx context.Context, msg contracts.DispatchMessage) {
	switch m := msg.(type) {
	case contracts.NewOrder:
		// errors are logged inside
		_ = service.AcceptOrder(ctx, m)
	case contracts.Error:
		service.logger.Warn(ctx, "dispatch_error", "Dispatch reported an error", nil, map[string]any{
			"message":  m.Message,
			"protocol": m.Protocol,
		})
	case contracts.Connected:
		service.logger.Debug(ctx, "dispatch_connected", "Dispatch greeted the session", map[string]any{"message": m.Message})
	case contracts.Ack:
		service.logger.Debug(ctx, "dispatch_ack", "Dispatch acknowledged", map[string]any{"message": m.Message})
	}
}
