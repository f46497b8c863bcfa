package contracts

// DispatchMessage is a decoded inbound frame. The concrete types below are the only implementations.
type DispatchMessage interface {
	Kind() MessageType
}

type Connected struct {
	Message string
}

type Ack struct {
	Message string
}

// NewOrder is a work offer pushed by dispatch. OrderID is always positive once decoded.
type NewOrder struct {
	OrderID        int64
	Pickup         string
	Drop           string
	DistanceKm     float64
	EstimatedFare  float64
	HelperRequired bool
	CustomerName   *string
}

// Error is either an ERROR frame from the backend or a frame this client could not decode (Protocol=true).
type Error struct {
	Message  string
	Protocol bool
}

// Unknown keeps the tag of a frame type this client does not understand.
type Unknown struct {
	RawType string
}

func (Connected) Kind() MessageType { return MessageConnected }
func (Ack) Kind() MessageType       { return MessageAck }
func (NewOrder) Kind() MessageType  { return MessageNewOrder }
func (Error) Kind() MessageType     { return MessageError }
func (u Unknown) Kind() MessageType { return MessageType(u.RawType) }
