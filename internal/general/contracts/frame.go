package contracts

import (
	"encoding/json"
	"time"
)

// MessageType tags a frame on the dispatch channel.
type MessageType string

const (
	MessageLocation  MessageType = "LOCATION"
	MessageAck       MessageType = "ACK"
	MessageConnected MessageType = "CONNECTED"
	MessageNewOrder  MessageType = "NEW_ORDER"
	MessageError     MessageType = "ERROR"
)

// Frame is the JSON envelope of every message on the dispatch channel.
type Frame struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewFrame marshals payload into a frame of type t.
func NewFrame(t MessageType, payload any) (Frame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Type: t, Payload: raw}, nil
}

// LocationPayload is the outbound LOCATION body.
type LocationPayload struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp string  `json:"timestamp"` // ISO-8601 UTC
}

// NewLocationPayload formats capturedAt as RFC3339 UTC.
func NewLocationPayload(latitude, longitude float64, capturedAt time.Time) LocationPayload {
	return LocationPayload{
		Latitude:  latitude,
		Longitude: longitude,
		Timestamp: capturedAt.UTC().Format(time.RFC3339),
	}
}

// NewOrderPayload is the inbound NEW_ORDER body.
type NewOrderPayload struct {
	OrderID        int64   `json:"orderId"`
	Pickup         string  `json:"pickup"`
	Drop           string  `json:"drop"`
	DistanceKm     float64 `json:"distanceKm"`
	EstimatedFare  float64 `json:"estimatedFare"`
	HelperRequired bool    `json:"helperRequired"`
	CustomerName   *string `json:"customerName,omitempty"`
}

// MessagePayload carries the text of CONNECTED, ACK and ERROR frames.
type MessagePayload struct {
	Message string `json:"message"`
}
