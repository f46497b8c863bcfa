package contracts

import "time"

// DriverStatusEvent is journaled when the driver goes online or offline.
// Routing key: "driver.status.{status}" on ExchangeDriverTopic.
type DriverStatusEvent struct {
	Status    string    `json:"status"` // ONLINE|OFFLINE
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Envelope
}

// TripEvent is journaled after every checkpoint call.
// Routing key: "driver.trip.{checkpoint}" on ExchangeDriverTopic.
type TripEvent struct {
	OrderID    int64     `json:"order_id"`
	Step       string    `json:"step,omitempty"`
	Checkpoint string    `json:"checkpoint"`
	Success    bool      `json:"success"`
	Message    string    `json:"message,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Envelope
}

// ConnectionEvent is journaled on session state changes.
// Routing key: "driver.connection.{state}" on ExchangeDriverTopic.
type ConnectionEvent struct {
	State     string    `json:"state"` // CONNECTED|DISCONNECTED|AUTH_FAILED
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Envelope
}
