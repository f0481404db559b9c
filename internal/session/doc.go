// Package session owns the network side of a risewatch poll cycle.
//
// This package is internal to risewatch. A [Session] performs link bring-up,
// resolves a [Target]'s hostname, and issues one request at a time into a
// fixed-capacity [Buffer]. Completion is asynchronous: the [Transport] runs in
// its own goroutine and posts a [Completion], which the owning loop dispatches
// by calling [Session.Poll]. Only then does the state become [Ready] and the
// response bytes become readable.
//
// The main components are:
//
//   - [Session]: request state machine (Idle, Awaiting, Ready)
//   - [Buffer]: the single response buffer, capacity-checked on every write
//   - [Link]: address acquisition ([HostLink], [StaticLink])
//   - [Resolver]: hostname resolution ([DNSResolver])
//   - [Transport]: request execution ([HTTPTransport])
package session
