package store

import "time"

// Snapshot is the latest known state of one target.
//
// Snapshot is the JSON form served by the status API. It is decoupled from the
// poller's CycleResult so the wire shape can stay stable.
type Snapshot struct {
	// Target is the target's name.
	Target string `json:"target"`

	// Host is the hostname polled.
	Host string `json:"host"`

	// Address is the resolved address the last request went to.
	Address string `json:"address,omitempty"`

	// Status is the outcome of the last cycle (e.g. "scheduled", "not_found").
	Status string `json:"status"`

	// Token is the raw extracted value, if any.
	Token string `json:"token,omitempty"`

	// EventAt is the event currently scheduled. nil if none is known.
	EventAt *time.Time `json:"event_at"`

	// NotifyAt is when the armed notification fires. nil if none is armed.
	NotifyAt *time.Time `json:"notify_at"`

	// NextPollAt is when the next request is due.
	NextPollAt *time.Time `json:"next_poll_at"`

	// StatusCode is the HTTP status code of the last response. 0 if none.
	StatusCode int `json:"status_code"`

	// LatencyMs is the round-trip time of the last request in milliseconds.
	LatencyMs int64 `json:"latency_ms"`

	// CheckedAt is when the snapshot was produced.
	CheckedAt time.Time `json:"checked_at"`

	// LastNotifiedAt is when the most recent notification fired. nil if never.
	LastNotifiedAt *time.Time `json:"last_notified_at"`

	// Error contains the error message if the cycle failed.
	Error *string `json:"error"`
}

// Store defines the interface for storing and subscribing to snapshots.
//
// Implementations must be safe for concurrent access.
type Store interface {
	// Update stores a snapshot and notifies all subscribers.
	// Snapshots are keyed by Target; later updates replace earlier ones.
	Update(s Snapshot)

	// Get returns the snapshot for target, if one has been stored.
	Get(target string) (Snapshot, bool)

	// GetAll returns all stored snapshots ordered by Target.
	GetAll() []Snapshot

	// Subscribe returns a buffered channel of updates. Slow consumers miss
	// updates. Callers must call Unsubscribe when done.
	Subscribe() <-chan Snapshot

	// Unsubscribe removes a subscription and closes its channel.
	// Safe to call more than once.
	Unsubscribe(ch <-chan Snapshot)
}
