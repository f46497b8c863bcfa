package service

import (
	"context"
	"time"

	"driver-link/internal/general/contracts"
)

// OnConnected starts telemetry after every (re)connect. Start replaces a running schedule.
// Telemetry is started under mu so a concurrent GoOffline always stops it afterwards.
func (supervisor *Supervisor) OnConnected() {
	ctx := context.Background()

	supervisor.mu.Lock()
	supervisor.lastAuthErr = nil
	if !supervisor.online {
		supervisor.mu.Unlock()
		return
	}
	supervisor.telemetry.Start(supervisor.opts.TelemetryInterval, supervisor.provider)
	supervisor.mu.Unlock()

	supervisor.refreshIndicator(ctx)
	supervisor.publishConnection(ctx, "CONNECTED", nil)
}

// OnConnectionError records a transport failure. The session retries on its own.
func (supervisor *Supervisor) OnConnectionError(err error) {
	ctx := context.Background()
	supervisor.logger.Warn(ctx, "driver_connection_lost", "Dispatch connection failed", err, nil)
	supervisor.refreshIndicator(ctx)
	supervisor.publishConnection(ctx, "DISCONNECTED", err)
}

// OnAuthError stops telemetry and waits for UpdateToken.
func (supervisor *Supervisor) OnAuthError(err error) {
	ctx := context.Background()
	supervisor.recordAuthError(err)
	supervisor.telemetry.Stop()
	supervisor.logger.Error(ctx, "driver_auth_failed", "Dispatch rejected the session token, waiting for a new one", err, nil)
	supervisor.refreshIndicator(ctx)
	supervisor.publishConnection(ctx, "AUTH_FAILED", err)
}

func (supervisor *Supervisor) publishConnection(ctx context.Context, state string, err error) {
	event := contracts.ConnectionEvent{
		State:     state,
		Timestamp: time.Now().UTC(),
		Envelope:  contracts.NewEnvelope(producerName, ""),
	}
	if err != nil {
		event.Error = err.Error()
	}
	supervisor.publish(ctx, contracts.RouteDriverConnectionPrefix+state, event)
}
