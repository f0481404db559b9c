package poller

import "time"

// Cycle outcomes reported in [CycleResult.Status].
const (
	StatusScheduled     = "scheduled"
	StatusStale         = "stale"
	StatusNotFound      = "not_found"
	StatusInvalid       = "invalid"
	StatusResolveFailed = "resolve_failed"
	StatusRequestFailed = "request_failed"
	StatusTimeout       = "timeout"
	StatusNotified      = "notified"
)

// CycleResult is the outcome of one poll cycle or one notification.
type CycleResult struct {
	// CycleID identifies the cycle; it is also sent as X-Request-Id.
	CycleID string

	// Target is the target's name.
	Target string

	// Host is the hostname polled.
	Host string

	// Address is the address the request was sent to, if any.
	Address string

	// Status is one of the Status* constants.
	Status string

	// Token is the raw extracted value, if one was found.
	Token string

	// EventAt is the event the schedule currently points at.
	EventAt time.Time

	// NotifyAt is when the armed notification fires. Zero if none is armed.
	NotifyAt time.Time

	// NextPollAt is when the next request is due.
	NextPollAt time.Time

	// StatusCode is the HTTP status code. Zero if no response was received.
	StatusCode int

	// Latency is the request round-trip time.
	Latency time.Duration

	// CheckedAt is when the result was produced.
	CheckedAt time.Time

	// Notified is set on the result reporting a fired notification.
	Notified bool

	// Err describes why the cycle did not schedule anything.
	Err error
}
