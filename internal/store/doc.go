// Package store keeps the latest cycle snapshot per target and fans updates
// out to subscribers.
//
// This package is internal to risewatch. It backs the status API: the
// controller's observer writes a [Snapshot] after every cycle and every
// notification, GET /api/status reads them back, and /api/sse subscribes.
//
// The main components are:
//
//   - [Store]: Interface defining storage and subscription operations
//   - [MemoryStore]: In-memory implementation of Store with pub/sub
//   - [Snapshot]: JSON representation of a target's latest cycle
//
// Subscribers receive updates via channels with non-blocking sends; a slow
// subscriber misses updates rather than stalling the controller.
package store
