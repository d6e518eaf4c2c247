// Package connstate models the lifecycle of one messaging-gateway session
// as an explicit state machine. The gateway reports lifecycle transitions
// as free-form strings; each recognized string maps to a state, and each
// state projects to the flag triple stored on the Instance row so the
// persisted shape stays compatible with the administrative layer.
package connstate

import "fmt"

// State is one connection lifecycle state.
type State int

const (
	Disconnected State = iota
	AwaitingQR
	QRError
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case AwaitingQR:
		return "awaiting_qr"
	case QRError:
		return "qr_error"
	case Connected:
		return "connected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Flags is the persisted projection of a State.
type Flags struct {
	PhoneConnected bool
	WaitingQRCode  bool
	QRReadError    bool
}

// Flags returns the Instance flag triple for the state.
func (s State) Flags() Flags {
	switch s {
	case Connected:
		return Flags{PhoneConnected: true}
	case AwaitingQR:
		return Flags{WaitingQRCode: true}
	case QRError:
		return Flags{QRReadError: true}
	default:
		return Flags{}
	}
}

// gatewayStates maps the lifecycle strings the gateway sends in
// STATUS_CONNECT events. The three close/error variants all collapse into
// QRError: the session needs a fresh QR scan either way.
var gatewayStates = map[string]State{
	"CONNECTED":       Connected,
	"autocloseCalled": QRError,
	"browserClose":    QRError,
	"qrReadError":     QRError,
}

// FromGatewayState resolves a gateway lifecycle string to a State. Unknown
// strings are an error; the dispatcher rejects the event rather than
// guessing.
func FromGatewayState(state string) (State, error) {
	s, ok := gatewayStates[state]
	if !ok {
		return Disconnected, fmt.Errorf("unknown gateway state %q", state)
	}
	return s, nil
}
