package agent

import (
	"context"
	"time"

	"driver-link/internal/general/config"
	"driver-link/internal/general/logger"
	"driver-link/internal/general/statestore"
	"driver-link/internal/general/wake"
	supervisorservice "driver-link/internal/software/supervisor/service"
)

// RunWake waits for after and then runs the agent as a resume trigger.
// The agent itself exits at once if the driver is offline or another agent is running.
func RunWake(ctx context.Context, configPath string, after time.Duration, reason supervisorservice.Reason) error {
	if after > 0 {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(after):
		}
	}
	return Run(ctx, configPath, reason)
}

// RunWatchdog checks every period whether an online driver lost its agent, and spawns one if so.
func RunWatchdog(ctx context.Context, configPath string, period time.Duration) error {
	log := logger.New("driver-link-watchdog")
	ctx = log.WithRequestID(ctx, "watchdog")

	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		log.Error(ctx, "config_load_failed", "Failed to load configuration", err, map[string]any{"path": configPath})
		return err
	}
	if period <= 0 {
		period = cfg.Supervisor.WakePeriod
	}
	launcher := &wake.ExecLauncher{BaseArgs: []string{"--config=" + configPath}, Logger: log}

	log.Info(ctx, "watchdog_started", "Watchdog started", map[string]any{"period": period.String()})
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		if err := watchdogTick(ctx, cfg, launcher, log); err != nil {
			log.Warn(ctx, "watchdog_tick_failed", "Watchdog check failed", err, nil)
		}
		select {
		case <-ctx.Done():
			log.Info(ctx, "watchdog_stopped", "Watchdog stopped", nil)
			return nil
		case <-ticker.C:
		}
	}
}

func watchdogTick(ctx context.Context, cfg *config.Config, launcher *wake.ExecLauncher, log *logger.Logger) error {
	running, err := wake.Running(cfg.Supervisor.DataDir)
	if err != nil || running {
		return err
	}

	store, err := statestore.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	online, err := store.IsOnline(ctx)
	_ = store.Close()
	if err != nil || !online {
		return err
	}

	return launcher.ScheduleWake(ctx, 0, string(supervisorservice.ReasonWatchdog))
}
