package wake

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"driver-link/internal/general/logger"
)

// ExecLauncher schedules a resume check by spawning a detached `wake` child of this executable.
// The child sleeps for the delay and then starts the agent if the driver is still online.
type ExecLauncher struct {
	Executable string   // defaults to os.Executable()
	BaseArgs   []string // passed before the mode, e.g. --config=...
	Logger     *logger.Logger
}

// ScheduleWake starts the child and returns without waiting for it.
func (l *ExecLauncher) ScheduleWake(ctx context.Context, delay time.Duration, reason string) error {
	exe := l.Executable
	if exe == "" {
		var err error
		if exe, err = os.Executable(); err != nil {
			return fmt.Errorf("wake: resolve executable: %w", err)
		}
	}

	args := append(append([]string(nil), l.BaseArgs...), WakeArgs(delay, reason)...)
	cmd := exec.Command(exe, args...)
	cmd.SysProcAttr = detached()

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("wake: start child: %w", err)
	}
	pid := cmd.Process.Pid
	// the child must outlive us
	_ = cmd.Process.Release()

	if l.Logger != nil {
		l.Logger.Info(ctx, "wake_scheduled", "Scheduled a resume check", map[string]any{
			"pid":    pid,
			"after":  delay.String(),
			"reason": reason,
		})
	}
	return nil
}

// WakeArgs are the command line arguments of a wake child.
func WakeArgs(delay time.Duration, reason string) []string {
	return []string{"wake", "--after=" + delay.String(), "--reason=" + reason}
}
