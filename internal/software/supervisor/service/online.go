package service

import (
	"context"
	"errors"
	"os"
	"time"

	"driver-link/internal/domain/driver"
	"driver-link/internal/general/contracts"
	"driver-link/internal/general/websocket"
	"driver-link/internal/ports"
)

// GoOnline marks the driver online and brings up the session. Calling it while online is a no-op.
// Transport failures are retried by the session; only an auth failure is returned.
func (supervisor *Supervisor) GoOnline(ctx context.Context) error {
	supervisor.mu.Lock()
	if supervisor.online {
		supervisor.mu.Unlock()
		return nil
	}

	if err := supervisor.flags.SetOnline(ctx, true); err != nil {
		supervisor.mu.Unlock()
		supervisor.logger.Error(ctx, "driver_go_online_failed", "Failed to persist online flag", err, nil)
		return err
	}
	provider, err := supervisor.positions.Acquire()
	if err != nil {
		supervisor.mu.Unlock()
		supervisor.logger.Error(ctx, "driver_go_online_failed", "Failed to acquire position source", err, nil)
		return err
	}
	supervisor.online = true
	supervisor.provider = provider
	supervisor.since = time.Now().UTC()
	supervisor.lastAuthErr = nil
	supervisor.mu.Unlock()

	supervisor.refreshIndicator(ctx)
	supervisor.publishStatus(ctx, driver.StatusOnline, "")

	token, err := supervisor.flags.SessionToken(ctx)
	if err != nil {
		supervisor.logger.Error(ctx, "driver_token_read_failed", "Failed to read session token", err, nil)
		return err
	}

	// connection is bounded by the handshake timeout, not by the caller
	if err := supervisor.session.Connect(context.WithoutCancel(ctx), token); err != nil {
		if errors.Is(err, websocket.ErrAuth) {
			supervisor.recordAuthError(err)
			return err
		}
		supervisor.logger.Warn(ctx, "driver_connect_deferred", "Dispatch unreachable, will keep retrying", err, nil)
	}

	supervisor.logger.Info(ctx, "driver_online", "Driver is online", nil)
	return nil
}

// GoOffline marks the driver offline and releases everything GoOnline acquired. Safe to repeat.
func (supervisor *Supervisor) GoOffline(ctx context.Context) error {
	supervisor.mu.Lock()
	wasOnline := supervisor.online
	supervisor.online = false
	supervisor.provider = nil
	supervisor.telemetry.Stop()
	err := supervisor.flags.SetOnline(ctx, false)
	supervisor.mu.Unlock()

	supervisor.release(ctx)

	if err != nil {
		supervisor.logger.Error(ctx, "driver_go_offline_failed", "Failed to persist offline flag", err, nil)
		return err
	}
	if wasOnline {
		supervisor.publishStatus(ctx, driver.StatusOffline, "")
		supervisor.logger.Info(ctx, "driver_offline", "Driver is offline", nil)
	}
	return nil
}

// UpdateToken stores a fresh token and reconnects if the session is down while online.
func (supervisor *Supervisor) UpdateToken(ctx context.Context, token string) error {
	if err := supervisor.flags.SetSessionToken(ctx, token); err != nil {
		return err
	}

	supervisor.mu.Lock()
	online := supervisor.online
	supervisor.lastAuthErr = nil
	supervisor.mu.Unlock()

	if !online || supervisor.session.IsConnected() {
		return nil
	}
	if err := supervisor.session.Connect(context.WithoutCancel(ctx), token); err != nil {
		if errors.Is(err, websocket.ErrAuth) {
			supervisor.recordAuthError(err)
			return err
		}
		supervisor.logger.Warn(ctx, "driver_connect_deferred", "Dispatch unreachable, will keep retrying", err, nil)
	}
	return nil
}

// release stops telemetry, closes the session and frees the position source and indicator.
func (supervisor *Supervisor) release(ctx context.Context) {
	supervisor.telemetry.Stop()
	supervisor.session.Disconnect()
	supervisor.positions.Release()
	if supervisor.indicator != nil {
		if err := supervisor.indicator.Clear(); err != nil {
			supervisor.logger.Warn(ctx, "status_indicator_failed", "Failed to clear status indicator", err, nil)
		}
	}
}

func (supervisor *Supervisor) recordAuthError(err error) {
	supervisor.mu.Lock()
	supervisor.lastAuthErr = err
	supervisor.mu.Unlock()
}

// refreshIndicator shows the current state while online.
func (supervisor *Supervisor) refreshIndicator(ctx context.Context) {
	if supervisor.indicator == nil {
		return
	}
	supervisor.mu.Lock()
	online, since := supervisor.online, supervisor.since
	supervisor.mu.Unlock()
	if !online {
		return
	}

	report := ports.StatusReport{
		PID:        os.Getpid(),
		State:      driver.StatusOnline.String(),
		Connection: supervisor.session.State().String(),
		Since:      since,
		UpdatedAt:  time.Now().UTC(),
	}
	if id, ok, err := supervisor.flags.CurrentOrderID(ctx); err == nil && ok {
		report.OrderID = id
	}
	if err := supervisor.indicator.Show(report); err != nil {
		supervisor.logger.Warn(ctx, "status_indicator_failed", "Failed to update status indicator", err, nil)
	}
}

func (supervisor *Supervisor) publishStatus(ctx context.Context, status driver.Status, reason string) {
	supervisor.publish(ctx, contracts.RouteDriverStatusPrefix+status.String(), contracts.DriverStatusEvent{
		Status:    status.String(),
		Reason:    reason,
		Timestamp: time.Now().UTC(),
		Envelope:  contracts.NewEnvelope(producerName, ""),
	})
}

func (supervisor *Supervisor) publish(ctx context.Context, key string, event any) {
	if supervisor.journal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := supervisor.journal.Publish(ctx, key, event); err != nil {
		supervisor.logger.Warn(ctx, "driver_journal_failed", "Failed to journal driver event", err, map[string]any{
			"routing_key": key,
		})
	}
}
