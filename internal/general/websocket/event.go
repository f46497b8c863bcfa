package websocket

// EventKind classifies what a Session reports on its event channel.
type EventKind int

const (
	EventConnected EventKind = iota + 1
	EventFrame
	EventTransportError
	EventAuthError
	EventClosed
)

func (k EventKind) String() string {
	switch k {
	case EventConnected:
		return "connected"
	case EventFrame:
		return "frame"
	case EventTransportError:
		return "transport_error"
	case EventAuthError:
		return "auth_error"
	case EventClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Event is one item of the Session event stream. Data is set for EventFrame, Err for the error kinds.
type Event struct {
	Kind EventKind
	Data []byte
	Err  error
}
