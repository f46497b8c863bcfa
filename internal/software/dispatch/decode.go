package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"

	"driver-link/internal/general/contracts"
)

var ErrProtocol = errors.New("dispatch: malformed frame")

// Decode turns a raw frame into a DispatchMessage.
// Frames that cannot be decoded come back as contracts.Error{Protocol: true} together with an error wrapping ErrProtocol.
// Types this client does not know decode to contracts.Unknown without error.
func Decode(data []byte) (contracts.DispatchMessage, error) {
	var frame contracts.Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return protocolError("invalid frame: %v", err)
	}
	if frame.Type == "" {
		return protocolError("frame has no type")
	}

	switch frame.Type {
	case contracts.MessageConnected, contracts.MessageAck, contracts.MessageError:
		var p contracts.MessagePayload
		if err := decodePayload(frame.Payload, &p); err != nil {
			return protocolError("invalid %s payload: %v", frame.Type, err)
		}
		switch frame.Type {
		case contracts.MessageConnected:
			return contracts.Connected{Message: p.Message}, nil
		case contracts.MessageAck:
			return contracts.Ack{Message: p.Message}, nil
		default:
			return contracts.Error{Message: p.Message}, nil
		}

	case contracts.MessageNewOrder:
		if len(frame.Payload) == 0 {
			return protocolError("NEW_ORDER without payload")
		}
		var p contracts.NewOrderPayload
		if err := json.Unmarshal(frame.Payload, &p); err != nil {
			return protocolError("invalid NEW_ORDER payload: %v", err)
		}
		if p.OrderID <= 0 {
			return protocolError("NEW_ORDER with invalid orderId %d", p.OrderID)
		}
		return contracts.NewOrder{
			OrderID:        p.OrderID,
			Pickup:         p.Pickup,
			Drop:           p.Drop,
			DistanceKm:     p.DistanceKm,
			EstimatedFare:  p.EstimatedFare,
			HelperRequired: p.HelperRequired,
			CustomerName:   p.CustomerName,
		}, nil

	default:
		return contracts.Unknown{RawType: string(frame.Type)}, nil
	}
}

// decodePayload accepts a missing or null payload as empty.
func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func protocolError(format string, args ...any) (contracts.DispatchMessage, error) {
	msg := fmt.Sprintf(format, args...)
	return contracts.Error{Message: msg, Protocol: true}, fmt.Errorf("%w: %s", ErrProtocol, msg)
}
