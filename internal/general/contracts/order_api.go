package contracts

import "encoding/json"

// APIEnvelope wraps every response of the order REST API.
type APIEnvelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data,omitempty"`
	Message   string          `json:"message,omitempty"`
	ErrorCode string          `json:"errorCode,omitempty"`
}

// StepData is the data object of a checkpoint response.
type StepData struct {
	Message string `json:"message"`
}

// PositionBody is sent by arrived-pickup, arrived-drop and end-trip.
type PositionBody struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// StartTripBody is sent by start-trip/confirm.
type StartTripBody struct {
	OTP string  `json:"otp"`
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type CancelBody struct {
	Reason string `json:"reason"`
}

// OrderDetails is the data object of GET /orders/{id}.
type OrderDetails struct {
	OrderID        int64    `json:"orderId"`
	Status         string   `json:"status"`
	Pickup         string   `json:"pickup,omitempty"`
	Drop           string   `json:"drop,omitempty"`
	DistanceKm     float64  `json:"distanceKm,omitempty"`
	EstimatedFare  float64  `json:"estimatedFare,omitempty"`
	FinalFare      *float64 `json:"finalFare,omitempty"`
	HelperRequired bool     `json:"helperRequired,omitempty"`
	CustomerName   *string  `json:"customerName,omitempty"`
	UpdatedAt      string   `json:"updatedAt,omitempty"`
}
