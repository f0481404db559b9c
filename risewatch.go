package risewatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/risewatch/internal/poller"
	"github.com/jpalmerr/risewatch/internal/server"
	"github.com/jpalmerr/risewatch/internal/session"
	"github.com/jpalmerr/risewatch/internal/store"
)

const (
	defaultPollInterval    = poller.DefaultInterval
	defaultNotifyLead      = poller.DefaultLead
	defaultTick            = poller.DefaultTick
	defaultBringUpAttempts = 3
	defaultBringUpDelay    = 5 * time.Second
	defaultDNSTimeout      = 5 * time.Second
)

// ErrBringUp is returned by [Watcher.Start] when the network could not be
// brought up within the configured attempts.
var ErrBringUp = errors.New("network bring-up failed")

// Watcher polls one [Target] for an event time and notifies ahead of it.
//
// A Watcher is created with [New] and run with [Watcher.Start]:
//
//	target, err := risewatch.NewTarget("iss", url, "risetime")
//	if err != nil {
//	    return err
//	}
//	w, err := risewatch.New(
//	    risewatch.WithTarget(target),
//	    risewatch.WithNotifier(risewatch.BellNotifier{Rings: 3}),
//	)
//	if err != nil {
//	    return err
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	return w.Start(ctx) // blocks until ctx is cancelled
type Watcher struct {
	target          Target
	pollInterval    time.Duration
	notifyLead      time.Duration
	tick            time.Duration
	bufferSize      int
	bringUpAttempts int
	bringUpDelay    time.Duration
	resolveTTL      time.Duration
	statusPort      int
	notifier        Notifier
	cycleCallbacks  []func(CycleResult)
	logger          *slog.Logger

	link      session.Link
	resolver  session.Resolver
	transport session.Transport
	now       func() time.Time
}

// New creates a [Watcher].
//
// A target must be configured with [WithTarget]. Other options default to:
//   - Poll interval: 1 hour
//   - Notify lead: 10 minutes
//   - Loop tick: 1 second
//   - Response buffer: 2048 bytes
//   - Bring-up: 3 attempts, 5 seconds apart
//   - Resolved address reused for: 30 minutes
//   - Network: read from the host
//   - Notifier: [LogNotifier]
//   - Status API: disabled
func New(opts ...Option) (*Watcher, error) {
	cfg := &wConfig{
		pollInterval:    defaultPollInterval,
		notifyLead:      defaultNotifyLead,
		tick:            defaultTick,
		bufferSize:      session.DefaultBufferSize,
		bringUpAttempts: defaultBringUpAttempts,
		bringUpDelay:    defaultBringUpDelay,
		dnsTimeout:      defaultDNSTimeout,
		resolveTTL:      session.DefaultResolveTTL,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.target == nil {
		return nil, errors.New("a target is required")
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	var notifier Notifier
	switch len(cfg.notifiers) {
	case 0:
		notifier = LogNotifier{Logger: logger}
	case 1:
		notifier = cfg.notifiers[0]
	default:
		notifier = MultiNotifier(cfg.notifiers)
	}

	link := cfg.link
	if link == nil {
		if cfg.staticLease != nil {
			link = session.StaticLink{Lease: *cfg.staticLease}
		} else {
			link = session.HostLink{Interface: cfg.iface, ResolvConf: cfg.resolvConf}
		}
	}
	resolver := cfg.resolver
	if resolver == nil {
		resolver = session.NewDNSResolver(cfg.dnsTimeout)
	}
	transport := cfg.transport
	if transport == nil {
		transport = session.NewHTTPTransport()
	}
	now := cfg.now
	if now == nil {
		now = time.Now
	}

	return &Watcher{
		target:          *cfg.target,
		pollInterval:    cfg.pollInterval,
		notifyLead:      cfg.notifyLead,
		tick:            cfg.tick,
		bufferSize:      cfg.bufferSize,
		bringUpAttempts: cfg.bringUpAttempts,
		bringUpDelay:    cfg.bringUpDelay,
		resolveTTL:      cfg.resolveTTL,
		statusPort:      cfg.statusPort,
		notifier:        notifier,
		cycleCallbacks:  cfg.cycleCallbacks,
		logger:          logger,
		link:            link,
		resolver:        resolver,
		transport:       transport,
		now:             now,
	}, nil
}

// Target returns the configured target.
func (w *Watcher) Target() Target {
	return w.target
}

// PollInterval returns the time between polls.
func (w *Watcher) PollInterval() time.Duration {
	return w.pollInterval
}

// NotifyLead returns how long before the event the notification fires.
func (w *Watcher) NotifyLead() time.Duration {
	return w.notifyLead
}

// StatusPort returns the status API port, or 0 if disabled.
func (w *Watcher) StatusPort() int {
	return w.statusPort
}

// Start brings the network up, then polls until ctx is cancelled.
//
// Start blocks. It returns nil on cancellation, an error wrapping [ErrBringUp]
// if the network cannot be brought up, or an error if the status API cannot
// bind its port.
func (w *Watcher) Start(ctx context.Context) error {
	w.logger.Info("risewatch starting",
		"target", w.target.name,
		"url", w.target.url,
		"keyword", w.target.keyword,
		"poll_interval", w.pollInterval.String(),
		"notify_lead", w.notifyLead.String(),
	)

	if ctx.Err() != nil {
		return nil
	}

	target, err := w.target.sessionTarget()
	if err != nil {
		return fmt.Errorf("target %q: %w", w.target.name, err)
	}

	sess := session.New(w.link, w.resolver, w.transport, session.Config{
		BufferSize: w.bufferSize,
		Timeout:    w.target.timeout,
		ResolveTTL: w.resolveTTL,
		Now:        w.now,
	}, w.logger)
	defer sess.Close()

	if err := w.bringUp(ctx, sess); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	// the first lookup happens before the loop; a failure is retried by the
	// first poll cycle
	_ = sess.Resolve(ctx, target)

	statusStore := store.NewMemoryStore()
	if w.statusPort > 0 {
		srv := server.NewServer(statusStore, w.statusPort, w.logger)
		if err := srv.Start(ctx); err != nil {
			return fmt.Errorf("failed to start status API: %w", err)
		}
	}

	observe := func(r poller.CycleResult) {
		statusStore.Update(toSnapshot(r))
		if len(w.cycleCallbacks) == 0 {
			return
		}
		public := toPublicResult(r)
		for _, cb := range w.cycleCallbacks {
			invokeCallbackSafe(cb, public, w.logger)
		}
	}

	notify := func(ctx context.Context, eventAt time.Time) error {
		return w.notifier.Notify(ctx, Event{
			Target:  w.target.name,
			Host:    target.Host(),
			At:      eventAt,
			FiredAt: w.now(),
		})
	}

	ctrl := poller.NewController(sess, target, poller.Config{
		Interval: w.pollInterval,
		Lead:     w.notifyLead,
		Tick:     w.tick,
		Now:      w.now,
	}, notify, observe, w.logger)

	ctrl.Run(ctx)
	w.logger.Info("risewatch stopped")
	return nil
}

// bringUp acquires the lease, retrying up to the configured number of attempts.
func (w *Watcher) bringUp(ctx context.Context, sess *session.Session) error {
	var err error
	for attempt := 1; attempt <= w.bringUpAttempts; attempt++ {
		if _, err = sess.BringUp(ctx); err == nil {
			return nil
		}
		w.logger.Warn("network bring-up failed",
			"attempt", attempt,
			"max_attempts", w.bringUpAttempts,
			"error", err,
		)
		if attempt == w.bringUpAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.bringUpDelay):
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrBringUp, w.bringUpAttempts, err)
}

// toSnapshot converts a poller result to its stored form.
func toSnapshot(r poller.CycleResult) store.Snapshot {
	var errStr *string
	if r.Err != nil {
		s := r.Err.Error()
		errStr = &s
	}
	var notifiedAt *time.Time
	if r.Notified {
		notifiedAt = timePtr(r.CheckedAt)
	}

	return store.Snapshot{
		Target:         r.Target,
		Host:           r.Host,
		Address:        r.Address,
		Status:         r.Status,
		Token:          r.Token,
		EventAt:        timePtr(r.EventAt),
		NotifyAt:       timePtr(r.NotifyAt),
		NextPollAt:     timePtr(r.NextPollAt),
		StatusCode:     r.StatusCode,
		LatencyMs:      r.Latency.Milliseconds(),
		CheckedAt:      r.CheckedAt,
		LastNotifiedAt: notifiedAt,
		Error:          errStr,
	}
}

// timePtr returns nil for the zero time.
func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// toPublicResult converts an internal poller result to the public type.
func toPublicResult(r poller.CycleResult) CycleResult {
	return CycleResult{
		CycleID:    r.CycleID,
		Target:     r.Target,
		Host:       r.Host,
		Address:    r.Address,
		Status:     Status(r.Status),
		Token:      r.Token,
		EventAt:    r.EventAt,
		NotifyAt:   r.NotifyAt,
		NextPollAt: r.NextPollAt,
		StatusCode: r.StatusCode,
		Latency:    r.Latency,
		CheckedAt:  r.CheckedAt,
		Notified:   r.Notified,
		Err:        r.Err,
	}
}

// invokeCallbackSafe calls a cycle callback with panic recovery.
// Panics are logged under a correlation ID and do not propagate.
func invokeCallbackSafe(cb func(CycleResult), result CycleResult, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("cycle callback panicked",
				"correlation_id", uuid.NewString(),
				"panic", r,
				"target", result.Target,
				"status", result.Status,
			)
		}
	}()
	cb(result)
}
