package ports

import (
	"context"
	"time"

	"driver-link/internal/domain/geo"
	"driver-link/internal/domain/trip"
	"driver-link/internal/general/contracts"
)

// LocationProvider yields the latest fix without waiting.
type LocationProvider interface {
	Latest() (geo.Sample, bool)
}

// PositionSource is acquired while online and released when going offline.
type PositionSource interface {
	Acquire() (LocationProvider, error)
	Release()
}

// EventPublisher journals domain events. Implementations must not block callers for long.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// OrderAPI is the remote checkpoint collaborator.
type OrderAPI interface {
	ArrivedAtPickup(ctx context.Context, orderID int64, pos geo.Point) (string, error)
	StartTrip(ctx context.Context, orderID int64, otp string, pos geo.Point) (string, error)
	ArrivedAtDrop(ctx context.Context, orderID int64, pos geo.Point) (string, error)
	EndTrip(ctx context.Context, orderID int64, pos geo.Point) (string, error)
	CancelOrder(ctx context.Context, orderID int64, reason string) (string, error)
	OrderDetails(ctx context.Context, orderID int64) (contracts.OrderDetails, error)
}

// StatusReport is what the user-visible indicator shows while online.
type StatusReport struct {
	PID        int       `json:"pid"`
	State      string    `json:"state"`
	Connection string    `json:"connection"`
	OrderID    int64     `json:"order_id,omitempty"`
	Since      time.Time `json:"since"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// StatusIndicator pins the running agent in a user-visible place.
type StatusIndicator interface {
	Show(report StatusReport) error
	Clear() error
}

// WakeLauncher schedules a one-shot resume check in a process that outlives this one.
type WakeLauncher interface {
	ScheduleWake(ctx context.Context, delay time.Duration, reason string) error
}

// TripSnapshot is the observable state of the trip machine.
type TripSnapshot struct {
	OrderID    int64                  `json:"order_id,omitempty"`
	Checkpoint string                 `json:"checkpoint,omitempty"`
	Results    map[string]trip.Result `json:"results"`
}

// TripService drives the checkpoint calls of the current delivery.
// Step methods return an error only when the call was refused because the same step is in flight.
// Every other outcome is reported in the returned Result.
type TripService interface {
	AcceptOrder(ctx context.Context, order contracts.NewOrder) error
	ArrivedAtPickup(ctx context.Context, pos geo.Point) (trip.Result, error)
	StartTrip(ctx context.Context, otp string, pos geo.Point) (trip.Result, error)
	ArrivedAtDrop(ctx context.Context, pos geo.Point) (trip.Result, error)
	EndTrip(ctx context.Context, pos geo.Point) (trip.Result, error)
	Cancel(ctx context.Context, reason string) (string, error)
	Details(ctx context.Context) (contracts.OrderDetails, error)
	Result(step trip.Step) trip.Result
	Watch(step trip.Step) (trip.Result, <-chan struct{})
	Snapshot() TripSnapshot
	Consume(ctx context.Context, messages <-chan contracts.DispatchMessage)
}

// SupervisorStatus is what the control surface reports about the agent.
type SupervisorStatus struct {
	Online        bool      `json:"online"`
	Connection    string    `json:"connection"`
	Telemetry     bool      `json:"telemetry"`
	LastError     string    `json:"last_error,omitempty"`
	LastAuthError string    `json:"last_auth_error,omitempty"`
	Since         time.Time `json:"since,omitempty"`
}

// Supervisor owns the online lifecycle of the agent.
type Supervisor interface {
	GoOnline(ctx context.Context) error
	GoOffline(ctx context.Context) error
	UpdateToken(ctx context.Context, token string) error
	UpdatePosition(sample geo.Sample) error
	Status() SupervisorStatus
}
