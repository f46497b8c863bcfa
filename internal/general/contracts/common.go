package contracts

import "time"

// Envelope adds cross-cutting headers all journal messages carry.
type Envelope struct {
	CorrelationID string    `json:"correlation_id,omitempty"` // Correlation for tracing across services
	Producer      string    `json:"producer,omitempty"`       // Producer name, e.g. "driver-link-agent"
	SentAt        time.Time `json:"sent_at,omitempty"`        // ISO-8601 send time (UTC)
}

// NewEnvelope stamps producer and send time.
func NewEnvelope(producer, correlationID string) Envelope {
	return Envelope{
		CorrelationID: correlationID,
		Producer:      producer,
		SentAt:        time.Now().UTC(),
	}
}
