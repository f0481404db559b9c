package risewatch

import "time"

// Status is the outcome of one poll cycle or notification.
//
// Status is a string type so results log and serialize readably.
type Status string

const (
	// StatusScheduled means a future event was extracted and a notification armed.
	StatusScheduled Status = "scheduled"

	// StatusStale means the extracted event is in the past or was already notified.
	StatusStale Status = "stale"

	// StatusNotFound means the keyword was not present in the response.
	StatusNotFound Status = "not_found"

	// StatusInvalid means the keyword was found but its value is empty or not
	// an unsigned decimal.
	StatusInvalid Status = "invalid"

	// StatusResolveFailed means the host could not be resolved and no
	// previous address was known.
	StatusResolveFailed Status = "resolve_failed"

	// StatusRequestFailed means the request could not be issued or the
	// transport failed.
	StatusRequestFailed Status = "request_failed"

	// StatusTimeout means the request did not finish before its deadline.
	StatusTimeout Status = "timeout"

	// StatusNotified means the notification for an event fired.
	StatusNotified Status = "notified"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// Event is handed to a [Notifier] when a notification falls due.
type Event struct {
	// Target is the name of the target the event came from.
	Target string

	// Host is the hostname the event was fetched from.
	Host string

	// At is the predicted event time.
	At time.Time

	// FiredAt is when the notification was triggered.
	FiredAt time.Time
}

// Until returns how long after FiredAt the event happens.
func (e Event) Until() time.Duration {
	return e.At.Sub(e.FiredAt)
}

// CycleResult holds the outcome of one poll cycle or one notification.
//
// CycleResult is passed by value to callbacks registered with
// [WithCycleCallback] and contains no references into internal buffers.
type CycleResult struct {
	// CycleID identifies the cycle; it is also sent as the X-Request-Id header.
	CycleID string

	// Target is the target's name.
	Target string

	// Host is the hostname polled.
	Host string

	// Address is the resolved address the request went to. Empty if unknown.
	Address string

	// Status is the cycle outcome.
	Status Status

	// Token is the raw extracted value, if the keyword was found.
	Token string

	// EventAt is the event the schedule points at. Zero if none is known.
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

	// Notified is true on the result reporting a fired notification.
	Notified bool

	// Err describes why the cycle did not schedule anything. A notifier
	// error is reported here on the notified result.
	Err error
}
