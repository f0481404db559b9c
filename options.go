package risewatch

import (
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"time"

	"github.com/jpalmerr/risewatch/internal/session"
)

// wConfig holds mutable state during Watcher construction.
type wConfig struct {
	target          *Target
	pollInterval    time.Duration
	notifyLead      time.Duration
	tick            time.Duration
	bufferSize      int
	bringUpAttempts int
	bringUpDelay    time.Duration
	statusPort      int
	dnsTimeout      time.Duration
	resolveTTL      time.Duration
	iface           string
	resolvConf      string
	staticLease     *session.Lease
	logger          *slog.Logger
	notifiers       []Notifier
	cycleCallbacks  []func(CycleResult)

	// injected by tests
	link      session.Link
	resolver  session.Resolver
	transport session.Transport
	now       func() time.Time
}

// Option configures a [Watcher] during construction.
//
// Options return an error if validation fails; [New] stops at the first one.
type Option func(*wConfig) error

// WithTarget sets the [Target] to poll. Required.
//
// Returns an error if called more than once.
func WithTarget(t Target) Option {
	return func(cfg *wConfig) error {
		if cfg.target != nil {
			return fmt.Errorf("target already set to %q", cfg.target.name)
		}
		cfg.target = &t
		return nil
	}
}

// WithPollInterval sets the time between requests. The next poll is brought
// forward when a notification falls due sooner. Defaults to 1 hour.
//
// Returns an error if the duration is zero or negative.
func WithPollInterval(d time.Duration) Option {
	return func(cfg *wConfig) error {
		if d <= 0 {
			return errors.New("poll interval must be positive")
		}
		cfg.pollInterval = d
		return nil
	}
}

// WithNotifyLead sets how long before the event the notification fires.
// Defaults to 10 minutes.
//
// Returns an error if the duration is zero or negative.
func WithNotifyLead(d time.Duration) Option {
	return func(cfg *wConfig) error {
		if d <= 0 {
			return errors.New("notify lead must be positive")
		}
		cfg.notifyLead = d
		return nil
	}
}

// WithTick sets how often the poll loop checks its schedule when nothing else
// wakes it. Defaults to 1 second.
//
// Returns an error if the duration is zero or negative.
func WithTick(d time.Duration) Option {
	return func(cfg *wConfig) error {
		if d <= 0 {
			return errors.New("tick must be positive")
		}
		cfg.tick = d
		return nil
	}
}

// WithBufferSize sets the capacity of the response buffer. Responses longer
// than this are truncated. Defaults to 2048 bytes.
//
// Returns an error if size is below 64 bytes.
func WithBufferSize(size int) Option {
	return func(cfg *wConfig) error {
		if size < 64 {
			return fmt.Errorf("buffer size must be at least 64 bytes, got %d", size)
		}
		cfg.bufferSize = size
		return nil
	}
}

// WithBringUp sets how many times link bring-up is attempted at start and the
// delay between attempts. Defaults to 3 attempts, 5 seconds apart.
//
// Returns an error if attempts is below 1 or delay is negative.
func WithBringUp(attempts int, delay time.Duration) Option {
	return func(cfg *wConfig) error {
		if attempts < 1 {
			return errors.New("bring-up attempts must be at least 1")
		}
		if delay < 0 {
			return errors.New("bring-up delay cannot be negative")
		}
		cfg.bringUpAttempts = attempts
		cfg.bringUpDelay = delay
		return nil
	}
}

// WithStaticNetwork uses a fixed address configuration instead of reading the
// host's. gateway may be the zero Addr.
//
// Example:
//
//	w, err := risewatch.New(
//	    risewatch.WithTarget(target),
//	    risewatch.WithStaticNetwork(
//	        netip.MustParseAddr("192.168.1.20"),
//	        netip.MustParseAddr("192.168.1.1"),
//	        netip.MustParseAddrPort("192.168.1.1:53"),
//	    ),
//	)
//
// Returns an error if local is invalid or no DNS server is given.
func WithStaticNetwork(local, gateway netip.Addr, dns ...netip.AddrPort) Option {
	return func(cfg *wConfig) error {
		if !local.IsValid() {
			return errors.New("static network requires a local address")
		}
		if len(dns) == 0 {
			return errors.New("static network requires at least one DNS server")
		}
		cfg.staticLease = &session.Lease{
			Interface: "static",
			Local:     local,
			Gateway:   gateway,
			DNS:       append([]netip.AddrPort(nil), dns...),
		}
		return nil
	}
}

// WithInterface selects the host interface whose address is used. Empty picks
// the first non-loopback interface that is up. Ignored with
// [WithStaticNetwork].
func WithInterface(name string) Option {
	return func(cfg *wConfig) error {
		cfg.iface = name
		return nil
	}
}

// WithResolvConf reads name servers from path instead of /etc/resolv.conf.
// Ignored with [WithStaticNetwork].
func WithResolvConf(path string) Option {
	return func(cfg *wConfig) error {
		cfg.resolvConf = path
		return nil
	}
}

// WithDNSTimeout bounds each DNS exchange. Defaults to 5 seconds.
//
// Returns an error if the duration is zero or negative.
func WithDNSTimeout(d time.Duration) Option {
	return func(cfg *wConfig) error {
		if d <= 0 {
			return errors.New("DNS timeout must be positive")
		}
		cfg.dnsTimeout = d
		return nil
	}
}

// WithResolveTTL sets how long a resolved address is reused before the host
// is looked up again. Lookups run alongside the request and never stall the
// poll loop. Defaults to 30 minutes.
//
// Returns an error if the duration is zero or negative.
func WithResolveTTL(d time.Duration) Option {
	return func(cfg *wConfig) error {
		if d <= 0 {
			return errors.New("resolve TTL must be positive")
		}
		cfg.resolveTTL = d
		return nil
	}
}

// WithStatusPort serves the status API on port: GET /api/status,
// GET /api/status/{target} and GET /api/sse. Disabled by default.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithStatusPort(port int) Option {
	return func(cfg *wConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.statusPort = port
		return nil
	}
}

// WithLogger sets the [slog.Logger]. Defaults to [slog.Default].
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *wConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithNotifier adds a [Notifier]. Several notifiers run in registration order.
// Without one, a [LogNotifier] on the Watcher's logger is used.
//
// Nil notifiers are ignored.
func WithNotifier(n Notifier) Option {
	return func(cfg *wConfig) error {
		if n != nil {
			cfg.notifiers = append(cfg.notifiers, n)
		}
		return nil
	}
}

// WithCycleCallback registers a function called with every [CycleResult].
//
// Callbacks run synchronously on the poll loop, in registration order, after
// the status store is updated. They must not block. Panics are recovered and
// logged.
//
// Nil callbacks are ignored.
func WithCycleCallback(cb func(CycleResult)) Option {
	return func(cfg *wConfig) error {
		if cb != nil {
			cfg.cycleCallbacks = append(cfg.cycleCallbacks, cb)
		}
		return nil
	}
}

func withLink(l session.Link) Option {
	return func(cfg *wConfig) error {
		cfg.link = l
		return nil
	}
}

func withResolver(r session.Resolver) Option {
	return func(cfg *wConfig) error {
		cfg.resolver = r
		return nil
	}
}

func withTransport(t session.Transport) Option {
	return func(cfg *wConfig) error {
		cfg.transport = t
		return nil
	}
}

func withClock(now func() time.Time) Option {
	return func(cfg *wConfig) error {
		cfg.now = now
		return nil
	}
}
