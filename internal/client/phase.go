package client

// Phase represents the current state of the connection lifecycle.
// Transitions are monotonic per connection attempt: Disconnected,
// Connecting, AwaitingAuth, Authenticated, back to Disconnected.
type Phase int

const (
	// PhaseDisconnected means no transport is active.
	PhaseDisconnected Phase = iota

	// PhaseConnecting means the transport is being established.
	PhaseConnecting

	// PhaseAwaitingAuth means the transport is open and an
	// authenticate request has been sent.
	PhaseAwaitingAuth

	// PhaseAuthenticated means the server accepted the session.
	PhaseAuthenticated
)

// String returns the string representation of a Phase.
func (p Phase) String() string {
	switch p {
	case PhaseDisconnected:
		return "disconnected"
	case PhaseConnecting:
		return "connecting"
	case PhaseAwaitingAuth:
		return "awaiting_auth"
	case PhaseAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}
