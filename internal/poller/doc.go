// Package poller drives the risewatch poll cycle.
//
// This package is internal to risewatch. A [Controller] runs a single
// cooperative loop: each [Controller.Step] dispatches any pending completion
// from the session, extracts and parses the scheduled value once a response
// is ready, fires the notification when it falls due, and starts the next
// cycle when the poll interval has elapsed.
//
// The main components are:
//
//   - [Controller]: the loop and the per-cycle decisions
//   - [Schedule]: next-poll and notify-due bookkeeping
//   - [CycleResult]: outcome of one cycle or notification, handed to the observer
//
// Users of the risewatch library should not need to interact with this
// package directly. Configuration is done through the main risewatch package.
package poller
