package service

import (
	"context"
)

// Start runs the resume check of a fresh process. It returns true when the driver was
// online and the session is being brought back, false when the process should exit.
func (supervisor *Supervisor) Start(ctx context.Context, reason Reason) (bool, error) {
	var guardErr error
	supervisor.guard.Do(func() {
		guardErr = supervisor.coldStartGuard(ctx, reason)
	})
	if guardErr != nil {
		return false, guardErr
	}

	online, err := supervisor.flags.IsOnline(ctx)
	if err != nil {
		supervisor.logger.Error(ctx, "supervisor_flags_read_failed", "Failed to read online flag", err, nil)
		return false, err
	}
	if !online {
		supervisor.logger.Info(ctx, "supervisor_offline", "Driver is offline, nothing to resume", map[string]any{
			"reason": string(reason),
		})
		return false, nil
	}

	supervisor.logger.Info(ctx, "supervisor_resume", "Resuming online session", map[string]any{
		"reason": string(reason),
	})
	return true, supervisor.GoOnline(ctx)
}

// coldStartGuard consumes the clean-shutdown marker. A manual start without a marker from
// this boot means the last run was killed, so a stale online flag is cleared.
func (supervisor *Supervisor) coldStartGuard(ctx context.Context, reason Reason) error {
	marker, err := supervisor.flags.CleanShutdownMarker(ctx)
	if err != nil {
		supervisor.logger.Error(ctx, "supervisor_marker_read_failed", "Failed to read clean shutdown marker", err, nil)
		return err
	}
	if err := supervisor.flags.ClearCleanShutdownMarker(ctx); err != nil {
		supervisor.logger.Warn(ctx, "supervisor_marker_clear_failed", "Failed to clear clean shutdown marker", err, nil)
	}

	if reason.Resuming() {
		return nil
	}
	if marker != "" && marker == supervisor.opts.BootID {
		return nil
	}

	if err := supervisor.flags.SetOnline(ctx, false); err != nil {
		supervisor.logger.Error(ctx, "supervisor_reset_failed", "Failed to reset online flag on cold start", err, nil)
		return err
	}
	supervisor.logger.Info(ctx, "supervisor_cold_start", "Cold start without clean shutdown, online flag reset", map[string]any{
		"had_marker": marker != "",
	})
	return nil
}
