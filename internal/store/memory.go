package store

import (
	"slices"
	"strings"
	"sync"
)

// subscriberBuffer is the channel capacity given to each subscriber.
const subscriberBuffer = 64

// MemoryStore is an in-memory implementation of [Store].
//
// Updates are sent to subscribers without blocking; if a subscriber's buffer
// is full the update is dropped for that subscriber.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]Snapshot

	subMu       sync.RWMutex
	subscribers map[<-chan Snapshot]chan Snapshot
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots:   make(map[string]Snapshot),
		subscribers: make(map[<-chan Snapshot]chan Snapshot),
	}
}

// Update stores s under s.Target and publishes it.
//
// A snapshot without LastNotifiedAt inherits the stored one, so the time of
// the last notification survives the ordinary cycles that follow it.
func (m *MemoryStore) Update(s Snapshot) {
	m.mu.Lock()
	if prev, ok := m.snapshots[s.Target]; ok && s.LastNotifiedAt == nil {
		s.LastNotifiedAt = prev.LastNotifiedAt
	}
	m.snapshots[s.Target] = s
	m.mu.Unlock()

	m.publish(s)
}

// Get returns the snapshot stored for target.
func (m *MemoryStore) Get(target string) (Snapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.snapshots[target]
	return s, ok
}

// GetAll returns a copy of all snapshots ordered by target name.
func (m *MemoryStore) GetAll() []Snapshot {
	m.mu.RLock()
	all := make([]Snapshot, 0, len(m.snapshots))
	for _, s := range m.snapshots {
		all = append(all, s)
	}
	m.mu.RUnlock()

	slices.SortFunc(all, func(a, b Snapshot) int {
		return strings.Compare(a.Target, b.Target)
	})
	return all
}

// Subscribe registers a subscriber. Callers must call
// [MemoryStore.Unsubscribe] when done.
func (m *MemoryStore) Subscribe() <-chan Snapshot {
	ch := make(chan Snapshot, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = ch
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes the subscription and closes its channel.
// Unknown or already removed channels are ignored.
func (m *MemoryStore) Unsubscribe(ch <-chan Snapshot) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	if sub, ok := m.subscribers[ch]; ok {
		delete(m.subscribers, ch)
		close(sub)
	}
}

func (m *MemoryStore) publish(s Snapshot) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for _, ch := range m.subscribers {
		select {
		case ch <- s:
		default:
			// slow subscriber, drop
		}
	}
}
