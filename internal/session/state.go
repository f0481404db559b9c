package session

// State is the request state shared between the completion callback and the
// controller loop.
type State uint32

const (
	// Idle means no request is outstanding and a new one may be issued.
	Idle State = iota

	// Awaiting means a request is outstanding; the buffer belongs to the transport.
	Awaiting

	// Ready means the completion has been dispatched and the buffer is readable.
	Ready
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Awaiting:
		return "awaiting"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}
