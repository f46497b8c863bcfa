package service

import (
	"context"
)

// ShutdownKind says why the process is going away.
type ShutdownKind int

const (
	// ShutdownStop is an operator stop. The driver stays online and the next start resumes.
	ShutdownStop ShutdownKind = iota
	// ShutdownDismissed is the host ending the task. A one-shot wake is scheduled as well.
	ShutdownDismissed
)

// Shutdown releases the process resources without touching the online flag.
// While online it records the clean-shutdown marker for this boot.
func (supervisor *Supervisor) Shutdown(ctx context.Context, kind ShutdownKind) {
	supervisor.mu.Lock()
	online := supervisor.online
	supervisor.online = false
	supervisor.provider = nil
	supervisor.telemetry.Stop()
	supervisor.mu.Unlock()

	supervisor.release(ctx)
	if !online {
		return
	}

	if err := supervisor.flags.SetCleanShutdownMarker(ctx, supervisor.opts.BootID); err != nil {
		supervisor.logger.Error(ctx, "supervisor_marker_write_failed", "Failed to record clean shutdown", err, nil)
	}
	if kind != ShutdownDismissed || supervisor.launcher == nil {
		supervisor.logger.Info(ctx, "supervisor_stopped", "Agent stopped while online", nil)
		return
	}

	if err := supervisor.launcher.ScheduleWake(ctx, supervisor.opts.DismissWakeDelay, "dismissed"); err != nil {
		supervisor.logger.Error(ctx, "supervisor_wake_failed", "Failed to schedule resume after dismissal", err, nil)
		return
	}
	supervisor.logger.Info(ctx, "supervisor_dismissed", "Agent dismissed while online, resume scheduled", map[string]any{
		"after": supervisor.opts.DismissWakeDelay.String(),
	})
}
