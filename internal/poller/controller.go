package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/jpalmerr/risewatch/internal/extract"
	"github.com/jpalmerr/risewatch/internal/session"
)

const (
	// DefaultInterval is the time between polls when none is configured.
	DefaultInterval = time.Hour

	// DefaultLead is how long before the event the notification fires when
	// none is configured.
	DefaultLead = 10 * time.Minute

	// DefaultTick is how often [Controller.Run] steps without a wake-up.
	DefaultTick = time.Second
)

var (
	// ErrNotFound is reported when the keyword is absent from the response.
	ErrNotFound = errors.New("keyword not found")

	// ErrEmptyToken is reported when the keyword is followed by a delimiter.
	ErrEmptyToken = errors.New("keyword has an empty value")
)

// Session is the part of [session.Session] the controller drives.
type Session interface {
	Issue(ctx context.Context, t *session.Target, id string) error
	Poll() bool
	State() session.State
	Response() (session.Response, bool)
	Release()
	Wake() <-chan struct{}
}

// NotifyFunc fires the local notification for an event.
type NotifyFunc func(ctx context.Context, eventAt time.Time) error

// Config holds the controller's timing.
type Config struct {
	// Interval is the time between polls. Defaults to 1 hour.
	Interval time.Duration

	// Lead is how long before the event the notification fires. Defaults to 10 minutes.
	Lead time.Duration

	// Tick is how often [Controller.Run] steps without a wake-up. Defaults to 1 second.
	Tick time.Duration

	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

// Controller runs poll cycles for one target.
//
// Controller is not safe for concurrent use; [Controller.Step] and
// [Controller.Run] must be called from one goroutine.
type Controller struct {
	session Session
	target  *session.Target
	cfg     Config
	notify  NotifyFunc
	observe func(CycleResult)
	logger  *slog.Logger

	schedule Schedule
	token    []byte
	cycleID  string
}

// NewController creates a [Controller].
//
// The token array is allocated here with room for the target's maximum token
// length plus the terminator, and reused for every cycle. observe may be nil.
func NewController(s Session, t *session.Target, cfg Config, notify NotifyFunc, observe func(CycleResult), logger *slog.Logger) *Controller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Lead <= 0 {
		cfg.Lead = DefaultLead
	}
	if cfg.Tick <= 0 {
		cfg.Tick = DefaultTick
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if observe == nil {
		observe = func(CycleResult) {}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Controller{
		session: s,
		target:  t,
		cfg:     cfg,
		notify:  notify,
		observe: observe,
		logger:  logger,
		token:   make([]byte, t.MaxTokenLen+1),
	}
}

// Schedule returns a copy of the current schedule.
func (c *Controller) Schedule() Schedule {
	return c.schedule
}

// Run steps the controller until ctx is cancelled. It steps once immediately,
// then on every tick and whenever the session posts a completion.
func (c *Controller) Run(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.Tick)
	defer ticker.Stop()

	c.Step(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Step(ctx)
		case <-c.session.Wake():
			c.Step(ctx)
		}
	}
}

// Step runs one loop iteration. It never blocks on the network: resolution
// and the request both run on the session's request goroutine and come back
// as a completion.
func (c *Controller) Step(ctx context.Context) {
	c.session.Poll()
	now := c.cfg.Now()

	if c.session.State() == session.Ready {
		c.consume(now)
	}

	if c.schedule.NotifyDue(now) {
		c.fire(ctx, now)
	}

	if c.session.State() == session.Idle && c.schedule.PollDue(now) && ctx.Err() == nil {
		c.startCycle(ctx, now)
	}
}

// startCycle issues the request; the session resolves the host first when
// its address is stale. The next poll is re-armed first so a failure here can
// never stall the loop.
func (c *Controller) startCycle(ctx context.Context, now time.Time) {
	c.cycleID = uuid.NewString()
	c.schedule.Rearm(now, c.cfg.Interval)

	if err := c.session.Issue(ctx, c.target, c.cycleID); err != nil {
		result := c.newResult(now)
		result.Status = StatusRequestFailed
		result.Err = err
		c.emit(result)
	}
}

// consume reads the ready response, updates the schedule and releases the
// session for the next cycle.
func (c *Controller) consume(now time.Time) {
	resp, ok := c.session.Response()
	if !ok {
		return
	}

	result := c.newResult(now)
	result.StatusCode = resp.StatusCode
	result.Latency = resp.Latency

	switch {
	case errors.Is(resp.Err, session.ErrResolve):
		result.Status = StatusResolveFailed
		result.Err = resp.Err
	case errors.Is(resp.Err, session.ErrTimeout):
		result.Status = StatusTimeout
		result.Err = resp.Err
	case resp.Err != nil:
		result.Status = StatusRequestFailed
		result.Err = resp.Err
	default:
		c.probeMessage(resp.Body)
		result.Status, result.Token, result.Err = c.evaluate(resp.Body, now)
	}

	// token and schedule are copied out; the buffer can go back
	c.session.Release()

	c.schedule.Rearm(now, c.cfg.Interval)
	result.EventAt = c.schedule.EventAt
	result.NotifyAt = c.schedule.NotifyAt
	result.NextPollAt = c.schedule.NextPoll
	c.emit(result)
}

// evaluate extracts and parses the value from body and arms the schedule.
// Failures leave the previous schedule in place.
func (c *Controller) evaluate(body []byte, now time.Time) (status, token string, err error) {
	n, found := extract.Field(body, c.target.Keyword, c.token, c.target.Lookahead)
	if !found {
		return StatusNotFound, "", fmt.Errorf("%w: %s", ErrNotFound, c.target.Needle())
	}
	if n == 0 {
		return StatusInvalid, "", ErrEmptyToken
	}
	token = string(c.token[:n])

	value, err := extract.ParseUint(c.token[:n])
	if err != nil {
		return StatusInvalid, token, fmt.Errorf("invalid %s value: %w", c.target.Keyword, err)
	}
	c.logger.Debug("value extracted", "keyword", c.target.Keyword, "token", token, "value", value)

	if !c.schedule.Arm(time.Unix(int64(value), 0), c.cfg.Lead, now) {
		return StatusStale, token, nil
	}
	return StatusScheduled, token, nil
}

// probeMessage logs the API's own failure message when the body is JSON
// carrying a top-level "message" other than "success".
func (c *Controller) probeMessage(body []byte) {
	if !gjson.ValidBytes(body) {
		return
	}
	msg := gjson.GetBytes(body, "message")
	if msg.Exists() && msg.String() != "success" {
		c.logger.Warn("api reported failure", "target", c.target.Name, "message", msg.String())
	}
}

// fire triggers the notification for the armed event. The event is marked
// notified before the notifier runs, so an error or panic does not re-fire it.
func (c *Controller) fire(ctx context.Context, now time.Time) {
	event := c.schedule.Fire()

	result := c.newResult(now)
	result.Status = StatusNotified
	result.Notified = true
	result.EventAt = event
	result.NextPollAt = c.schedule.NextPoll
	result.Err = c.safeNotify(ctx, event)
	c.emit(result)
}

// safeNotify calls the notifier with panic recovery.
// A panic is logged with its stack under a correlation ID and returned as an
// error carrying that ID.
func (c *Controller) safeNotify(ctx context.Context, event time.Time) (err error) {
	if c.notify == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			c.logger.Error("notifier panic",
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("notifier panic (correlation_id: %s)", correlationID)
		}
	}()
	return c.notify(ctx, event)
}

func (c *Controller) newResult(now time.Time) CycleResult {
	r := CycleResult{
		CycleID:    c.cycleID,
		Target:     c.target.Name,
		Host:       c.target.Host(),
		EventAt:    c.schedule.EventAt,
		NotifyAt:   c.schedule.NotifyAt,
		NextPollAt: c.schedule.NextPoll,
		CheckedAt:  now,
	}
	if c.target.Address.IsValid() {
		r.Address = c.target.Address.String()
	}
	return r
}

// emit logs the result and hands it to the observer.
func (c *Controller) emit(r CycleResult) {
	attrs := []any{
		"target", r.Target,
		"status", r.Status,
		"cycle_id", r.CycleID,
	}
	if r.Token != "" {
		attrs = append(attrs, "token", r.Token)
	}
	if !r.EventAt.IsZero() {
		attrs = append(attrs, "event_at", r.EventAt.UTC().Format(time.RFC3339))
	}
	if !r.NotifyAt.IsZero() {
		attrs = append(attrs, "notify_at", r.NotifyAt.UTC().Format(time.RFC3339))
	}
	if !r.NextPollAt.IsZero() {
		attrs = append(attrs, "next_poll_at", r.NextPollAt.UTC().Format(time.RFC3339))
	}

	switch {
	case r.Err != nil:
		c.logger.Warn("cycle completed with error", append(attrs, "error", r.Err.Error())...)
	case r.Notified:
		c.logger.Info("notification fired", attrs...)
	default:
		c.logger.Info("cycle completed", attrs...)
	}

	c.observe(r)
}
