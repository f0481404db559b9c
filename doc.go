// Package risewatch polls an HTTP endpoint for a predicted event time and
// triggers a local notification shortly before it.
//
// The typical use is the ISS pass API: the response carries the next rise
// time as Unix seconds under a field such as "risetime". risewatch finds that
// field in the raw response bytes, parses the value, and fires a [Notifier] a
// configurable lead time before the event.
//
// # Quick Start
//
//	target, _ := risewatch.NewTarget("iss",
//	    "http://api.open-notify.org/iss-pass.json?lat=45.5&lon=-73.6&n=1",
//	    "risetime",
//	)
//	w, _ := risewatch.New(risewatch.WithTarget(target))
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	w.Start(ctx) // blocks until ctx is cancelled
//
// # Configuration
//
// Watchers and targets use functional options:
//
//	target, err := risewatch.NewTarget("iss", url, "risetime",
//	    risewatch.WithTimeout(5*time.Second),
//	    risewatch.WithMaxTokenLength(12),
//	)
//	w, err := risewatch.New(
//	    risewatch.WithTarget(target),
//	    risewatch.WithPollInterval(30*time.Minute),
//	    risewatch.WithNotifyLead(5*time.Minute),
//	    risewatch.WithNotifier(risewatch.BellNotifier{Rings: 3}),
//	    risewatch.WithStatusPort(8080),
//	)
//
// # Poll Cycle
//
// At start the network is brought up once: the local address, gateway and
// name servers are read from the host, or taken from [WithStaticNetwork].
// Each cycle then resolves the target's host, sends one request to the
// resolved address and waits for its completion without blocking the loop.
// The response lands in a fixed-size buffer; the value after the keyword is
// copied into a fixed-size token and parsed as an unsigned decimal. A DNS
// failure keeps the last-known address. Every other failure is reported as a
// [CycleResult] and retried at the next poll.
//
// Only one request is outstanding at a time and every request carries a
// deadline, so a lost response can never stall the loop.
//
// # Notifiers
//
// Built-in notifiers: [LogNotifier], [BellNotifier], [CommandNotifier] and
// [MultiNotifier]. Any function can be used through [NotifierFunc]. A
// notification fires once per event; later polls that report the same event
// do not fire it again.
//
// # Architecture
//
// risewatch consists of several internal packages (under internal/):
//
//   - internal/extract: Keyword search and numeric parsing over raw bytes
//   - internal/session: Network bring-up, DNS, and the single-request HTTP session
//   - internal/poller: The poll loop and its schedule
//   - internal/store: In-memory snapshots with pub/sub
//   - internal/server: Optional status API with Server-Sent Events
//
// The internal packages are not part of the public API and may change
// without notice.
package risewatch
