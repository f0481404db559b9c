package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// DefaultTimeout bounds a request when none is configured.
	DefaultTimeout = 10 * time.Second

	// DefaultResolveTTL is how long a resolved address is used before the
	// next request resolves the host again.
	DefaultResolveTTL = 30 * time.Minute
)

// maxLoggedBody caps how much of an error body is written to the log.
const maxLoggedBody = 512

var (
	// ErrBusy is returned by [Session.Issue] while a request is outstanding
	// or its response has not been released.
	ErrBusy = errors.New("request already outstanding")

	// ErrTimeout marks a completion whose request hit its deadline.
	ErrTimeout = errors.New("request timed out")
)

// Config holds the session's fixed resources.
type Config struct {
	// BufferSize is the response buffer capacity. Defaults to [DefaultBufferSize].
	BufferSize int

	// Timeout is the per-request deadline, covering resolution when the
	// request has to resolve first. Defaults to [DefaultTimeout].
	Timeout time.Duration

	// ResolveTTL is how long a resolved address stays fresh. Defaults to
	// [DefaultResolveTTL].
	ResolveTTL time.Duration

	// Now is the clock used to stamp and age resolutions. Defaults to time.Now.
	Now func() time.Time
}

// Response is a read-only view of a dispatched completion.
type Response struct {
	// Body aliases the session buffer. It is valid until [Session.Release].
	Body []byte

	StatusCode int
	Latency    time.Duration
	Truncated  bool
	Err        error
}

// Session runs one request at a time against a [Target].
//
// All methods except the transport goroutine's writes are meant to be called
// from a single loop. The buffer changes hands twice per request: to the
// transport in [Session.Issue], and back to the loop when [Session.Poll]
// dispatches the completion and stores [Ready].
type Session struct {
	link      Link
	resolver  Resolver
	transport Transport
	buf        *Buffer
	timeout    time.Duration
	resolveTTL time.Duration
	now        func() time.Time
	logger     *slog.Logger

	state   atomic.Uint32
	pending chan Completion
	wake    chan struct{}
	last    Completion
	target  *Target
	lease   Lease
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a [Session]. The response buffer is allocated here, once.
func New(link Link, resolver Resolver, transport Transport, cfg Config, logger *slog.Logger) *Session {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.ResolveTTL <= 0 {
		cfg.ResolveTTL = DefaultResolveTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Session{
		link:       link,
		resolver:   resolver,
		transport:  transport,
		buf:        NewBuffer(cfg.BufferSize),
		timeout:    cfg.Timeout,
		resolveTTL: cfg.ResolveTTL,
		now:        cfg.Now,
		logger:     logger,
		pending:    make(chan Completion, 1),
		wake:       make(chan struct{}, 1),
	}
}

// BringUp acquires the lease. Errors wrap [ErrLinkInit] or [ErrLease].
func (s *Session) BringUp(ctx context.Context) (Lease, error) {
	lease, err := s.link.Acquire(ctx)
	if err != nil {
		s.logger.Error("bring-up failed", "error", err)
		return Lease{}, err
	}
	s.lease = lease

	s.logger.Info("bring-up complete",
		"interface", lease.Interface,
		"my_ip", lease.Local.String(),
		"gw_ip", lease.Gateway.String(),
		"dns_ip", fmt.Sprint(lease.DNS),
	)
	return lease, nil
}

// Lease returns the lease acquired by [Session.BringUp].
func (s *Session) Lease() Lease {
	return s.lease
}

// Resolve refreshes t.Address synchronously. On failure the error wraps
// [ErrResolve] and t is left unchanged.
//
// Resolve blocks on DNS. The poll loop never calls it; [Session.Issue]
// resolves stale targets on the request goroutine instead.
func (s *Session) Resolve(ctx context.Context, t *Target) error {
	addr, err := s.lookup(ctx, t.Name, t.Host(), t.Address, s.lease.DNS)
	if err != nil {
		return err
	}
	s.setAddress(t, addr)
	return nil
}

// Stale reports whether t needs resolving before its next request.
func (s *Session) Stale(t *Target) bool {
	return !t.Address.IsValid() || s.now().Sub(t.ResolvedAt) >= s.resolveTTL
}

func (s *Session) lookup(ctx context.Context, name, host string, last netip.Addr, servers []netip.AddrPort) (netip.Addr, error) {
	addr, err := s.resolver.Resolve(ctx, host, servers)
	if err == nil && !addr.IsValid() {
		err = errors.New("no address returned")
	}
	if err != nil {
		if !errors.Is(err, ErrResolve) {
			err = fmt.Errorf("%w: %s: %w", ErrResolve, host, err)
		}
		s.logger.Warn("DNS failed",
			"target", name,
			"host", host,
			"last_known", last.String(),
			"error", err,
		)
		return netip.Addr{}, err
	}
	s.logger.Debug("host resolved", "target", name, "host", host, "ip", addr.String())
	return addr, nil
}

func (s *Session) setAddress(t *Target, addr netip.Addr) {
	t.Address = addr
	t.ResolvedAt = s.now()
}

// Issue starts a request for t. It moves the session from [Idle] to
// [Awaiting]; the completion arrives later through [Session.Poll].
//
// When t is stale (see [Session.Stale]) the host is resolved first, on the
// request goroutine. A failed lookup falls back to the last-known address;
// with none, the completion carries the [ErrResolve] error and no request is
// sent. A new address is written to t when the completion is dispatched.
func (s *Session) Issue(ctx context.Context, t *Target, id string) error {
	if !s.state.CompareAndSwap(uint32(Idle), uint32(Awaiting)) {
		return ErrBusy
	}

	s.buf.Reset()
	s.target = t
	resolve := s.Stale(t)
	last := t.Address
	name, host, port := t.Name, t.Host(), t.Port()
	servers := s.lease.DNS
	req := Request{URL: t.URL, Headers: t.Headers, ID: id}

	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()

		addr := last
		var resolved netip.Addr
		if resolve {
			a, err := s.lookup(reqCtx, name, host, last, servers)
			switch {
			case err == nil:
				addr, resolved = a, a
			case !last.IsValid():
				s.post(Completion{Err: err})
				return
			}
		}

		req.Addr = netip.AddrPortFrom(addr, port)
		s.logger.Debug(">>> request sent", "target", name, "url", req.URL.String(), "ip", addr.String(), "request_id", id)

		c := s.transport.Do(reqCtx, req, s.buf)
		if c.Err != nil && errors.Is(reqCtx.Err(), context.DeadlineExceeded) && !errors.Is(c.Err, ErrTimeout) {
			c.Err = fmt.Errorf("%w after %s: %w", ErrTimeout, s.timeout, c.Err)
		}
		c.Resolved = resolved
		s.post(c)
	}()

	return nil
}

// post hands c to the loop. There is one outstanding request, so the slot is
// always free.
func (s *Session) post(c Completion) {
	s.pending <- c
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Poll dispatches a pending completion, if any, and reports whether it did.
func (s *Session) Poll() bool {
	select {
	case c := <-s.pending:
		s.complete(c)
		return true
	default:
		return false
	}
}

// complete is the completion callback. It only logs, records the completion
// and flips the state; the body is left for the controller.
func (s *Session) complete(c Completion) {
	switch {
	case c.Err != nil:
		s.logger.Warn("web request failed", "error", c.Err, "latency_ms", c.Latency.Milliseconds())
	case !c.OK():
		s.logger.Warn("web request returned non-2xx status",
			"status_code", c.StatusCode,
			"body", string(s.view(c, maxLoggedBody)),
		)
	}
	s.logger.Info("<<< reply", "latency_ms", c.Latency.Milliseconds(), "bytes", c.Length, "truncated", c.Truncated)

	if c.Resolved.IsValid() && s.target != nil {
		s.setAddress(s.target, c.Resolved)
	}

	s.last = c
	s.state.Store(uint32(Ready))
}

// State returns the current request state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Wake is signalled whenever a completion is posted.
func (s *Session) Wake() <-chan struct{} {
	return s.wake
}

// Response returns the dispatched response. It reports false unless the
// state is [Ready].
func (s *Session) Response() (Response, bool) {
	if s.State() != Ready {
		return Response{}, false
	}
	c := s.last
	return Response{
		Body:       s.view(c, -1),
		StatusCode: c.StatusCode,
		Latency:    c.Latency,
		Truncated:  c.Truncated,
		Err:        c.Err,
	}, true
}

// Release hands the buffer back and returns the session to [Idle].
func (s *Session) Release() {
	if s.state.CompareAndSwap(uint32(Ready), uint32(Idle)) {
		s.buf.Reset()
		s.last = Completion{}
	}
}

// Close cancels an in-flight request and waits for its goroutine to finish.
func (s *Session) Close() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// view returns the body bytes of c, clamped to what was written and to limit
// bytes when limit is positive.
func (s *Session) view(c Completion, limit int) []byte {
	written := s.buf.Bytes()
	lo := min(max(c.Offset, 0), len(written))
	hi := min(max(c.Length, lo), len(written))
	if limit > 0 && hi-lo > limit {
		hi = lo + limit
	}
	return written[lo:hi]
}
