package service

import (
	"context"
	"sync"
	"time"

	"driver-link/internal/domain/geo"
	"driver-link/internal/general/logger"
	"driver-link/internal/general/websocket"
	"driver-link/internal/ports"
)

const producerName = "driver-link-agent"

// Reason says which trigger started the process.
type Reason string

const (
	ReasonManual   Reason = "manual"
	ReasonWake     Reason = "wake"
	ReasonBoot     Reason = "boot"
	ReasonWatchdog Reason = "watchdog"
)

// Resuming reports whether the trigger exists to bring a previous session back.
func (r Reason) Resuming() bool {
	return r == ReasonWake || r == ReasonBoot || r == ReasonWatchdog
}

// Session is the dispatch connection as the supervisor drives it.
type Session interface {
	Connect(ctx context.Context, token string) error
	Disconnect()
	IsConnected() bool
	State() websocket.State
	LastError() error
}

// Telemetry is the location reporting schedule.
type Telemetry interface {
	Start(interval time.Duration, provider ports.LocationProvider)
	Stop()
	Running() bool
}

// PositionFeed is a position source that also accepts fixes pushed from outside.
type PositionFeed interface {
	ports.PositionSource
	Update(sample geo.Sample) error
}

// Options tunes the supervisor. Zero values take the defaults.
type Options struct {
	BootID            string
	TelemetryInterval time.Duration
	DismissWakeDelay  time.Duration
}

// Supervisor keeps the session and telemetry alive while the driver is online.
// It is the only writer of the online flag and the clean-shutdown marker.
type Supervisor struct {
	logger    *logger.Logger
	flags     ports.FlagStore
	session   Session
	telemetry Telemetry
	positions PositionFeed
	indicator ports.StatusIndicator
	launcher  ports.WakeLauncher
	journal   ports.EventPublisher
	opts      Options

	guard sync.Once

	mu          sync.Mutex
	online      bool
	provider    ports.LocationProvider
	since       time.Time
	lastAuthErr error
}

// NewSupervisor wires the supervisor. indicator, launcher and journal may be nil.
func NewSupervisor(
	log *logger.Logger,
	flags ports.FlagStore,
	session Session,
	telemetry Telemetry,
	positions PositionFeed,
	indicator ports.StatusIndicator,
	launcher ports.WakeLauncher,
	journal ports.EventPublisher,
	opts Options,
) *Supervisor {
	if log == nil {
		log = logger.Discard()
	}
	if opts.DismissWakeDelay <= 0 {
		opts.DismissWakeDelay = 2 * time.Second
	}
	return &Supervisor{
		logger:    log,
		flags:     flags,
		session:   session,
		telemetry: telemetry,
		positions: positions,
		indicator: indicator,
		launcher:  launcher,
		journal:   journal,
		opts:      opts,
	}
}

// Online reports whether the supervisor currently holds the online resources.
func (supervisor *Supervisor) Online() bool {
	supervisor.mu.Lock()
	defer supervisor.mu.Unlock()
	return supervisor.online
}

// Status reports the supervisor and connection state.
func (supervisor *Supervisor) Status() ports.SupervisorStatus {
	supervisor.mu.Lock()
	out := ports.SupervisorStatus{
		Online: supervisor.online,
		Since:  supervisor.since,
	}
	if supervisor.lastAuthErr != nil {
		out.LastAuthError = supervisor.lastAuthErr.Error()
	}
	supervisor.mu.Unlock()

	out.Connection = supervisor.session.State().String()
	out.Telemetry = supervisor.telemetry.Running()
	if err := supervisor.session.LastError(); err != nil {
		out.LastError = err.Error()
	}
	return out
}

// UpdatePosition feeds a fix to the position source.
func (supervisor *Supervisor) UpdatePosition(sample geo.Sample) error {
	return supervisor.positions.Update(sample)
}
