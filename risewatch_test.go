package risewatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpalmerr/risewatch/internal/poller"
	"github.com/jpalmerr/risewatch/internal/session"
	"github.com/jpalmerr/risewatch/internal/store"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// loopbackResolver resolves every host to 127.0.0.1.
type loopbackResolver struct {
	calls atomic.Int32
}

func (r *loopbackResolver) Resolve(context.Context, string, []netip.AddrPort) (netip.Addr, error) {
	r.calls.Add(1)
	return netip.MustParseAddr("127.0.0.1"), nil
}

// failingLink never acquires a lease.
type failingLink struct {
	calls atomic.Int32
}

func (l *failingLink) Acquire(context.Context) (session.Lease, error) {
	l.calls.Add(1)
	return session.Lease{}, fmt.Errorf("%w: cable unplugged", session.ErrLinkInit)
}

// passServer serves an ISS pass response with the given rise time, and
// returns a target URL whose host only resolves through loopbackResolver.
func passServer(t *testing.T, rise time.Time) string {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Host == "" || r.Header.Get("X-Request-Id") == "" {
			http.Error(w, "missing host or request id", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"message": "success", "request": {"passes": 1}, "response": [{"duration": 345, "risetime": %d}]}`, rise.Unix())
	}))
	t.Cleanup(ts.Close)

	u, err := url.Parse(ts.URL)
	require.NoError(t, err)
	return fmt.Sprintf("http://api.iss.test:%s/iss-pass.json?lat=45&lon=-73", u.Port())
}

func staticNetwork() Option {
	return WithStaticNetwork(
		netip.MustParseAddr("192.168.1.20"),
		netip.MustParseAddr("192.168.1.1"),
		netip.MustParseAddrPort("192.168.1.1:53"),
	)
}

// TestWatcher_EndToEnd polls a real HTTP server through the dial override and
// fires the notification once.
func TestWatcher_EndToEnd(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	rise := now.Add(5 * time.Minute)

	target, err := NewTarget("iss", passServer(t, rise), "risetime", WithTimeout(2*time.Second))
	require.NoError(t, err)

	results := make(chan CycleResult, 16)
	var notified atomic.Int32
	resolver := &loopbackResolver{}

	w, err := New(
		WithTarget(target),
		WithLogger(testLogger()),
		WithTick(10*time.Millisecond),
		staticNetwork(),
		withResolver(resolver),
		withClock(func() time.Time { return now }),
		WithNotifier(NotifierFunc(func(_ context.Context, e Event) error {
			notified.Add(1)
			assert.Equal(t, "iss", e.Target)
			assert.Equal(t, "api.iss.test", e.Host)
			assert.True(t, e.At.Equal(rise))
			return nil
		})),
		WithCycleCallback(func(r CycleResult) { results <- r }),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	var got []CycleResult
	deadline := time.After(5 * time.Second)
	for len(got) < 2 {
		select {
		case r := <-results:
			got = append(got, r)
		case <-deadline:
			t.Fatalf("timeout waiting for results, got %+v", got)
		}
	}

	scheduled, fired := got[0], got[1]
	assert.Equal(t, StatusScheduled, scheduled.Status)
	assert.NoError(t, scheduled.Err)
	assert.Equal(t, fmt.Sprint(rise.Unix()), scheduled.Token)
	assert.Equal(t, 200, scheduled.StatusCode)
	assert.Equal(t, "127.0.0.1", scheduled.Address)
	assert.True(t, scheduled.NotifyAt.Equal(rise.Add(-10*time.Minute)))

	assert.Equal(t, StatusNotified, fired.Status)
	assert.True(t, fired.Notified)
	assert.NoError(t, fired.Err)

	// the fixed clock keeps the next poll an hour away, so nothing else happens
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), notified.Load())
	assert.Equal(t, int32(1), resolver.calls.Load())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestWatcher_StatusAPI(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	now := time.Now().Truncate(time.Second)
	rise := now.Add(2 * time.Hour)
	target, err := NewTarget("iss", passServer(t, rise), "risetime")
	require.NoError(t, err)

	results := make(chan CycleResult, 4)
	w, err := New(
		WithTarget(target),
		WithLogger(testLogger()),
		WithStatusPort(port),
		staticNetwork(),
		withResolver(&loopbackResolver{}),
		withClock(func() time.Time { return now }),
		WithCycleCallback(func(r CycleResult) { results <- r }),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Start(ctx) }()

	select {
	case r := <-results:
		require.Equal(t, StatusScheduled, r.Status)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for first cycle")
	}

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/api/status/iss", port))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap store.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, "scheduled", snap.Status)
	require.NotNil(t, snap.EventAt)
	assert.True(t, snap.EventAt.Equal(rise))
	require.NotNil(t, snap.NotifyAt)
	assert.True(t, snap.NotifyAt.Equal(rise.Add(-10*time.Minute)))
	assert.Nil(t, snap.LastNotifiedAt)
}

func TestWatcher_BringUpFailure(t *testing.T) {
	link := &failingLink{}
	w, err := New(
		WithTarget(testTarget(t)),
		WithLogger(testLogger()),
		WithBringUp(3, time.Millisecond),
		withLink(link),
	)
	require.NoError(t, err)

	err = w.Start(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBringUp))
	assert.True(t, errors.Is(err, session.ErrLinkInit))
	assert.Equal(t, int32(3), link.calls.Load())
}

func TestWatcher_BringUpCancelled(t *testing.T) {
	link := &failingLink{}
	w, err := New(
		WithTarget(testTarget(t)),
		WithLogger(testLogger()),
		WithBringUp(5, time.Hour),
		withLink(link),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err, "cancellation during bring-up is a clean stop")
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
	assert.Equal(t, int32(1), link.calls.Load())
}

func TestWatcher_StartWithCancelledContext(t *testing.T) {
	w, err := New(WithTarget(testTarget(t)), WithLogger(testLogger()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, w.Start(ctx))
}

func TestInvokeCallbackSafe_RecoversPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		invokeCallbackSafe(func(CycleResult) { panic("boom") }, CycleResult{Target: "iss"}, testLogger())
	})
}

func TestToSnapshot(t *testing.T) {
	checked := time.Unix(1723458600, 0)
	snap := toSnapshot(pollerResult(checked))

	assert.Equal(t, "iss", snap.Target)
	assert.Equal(t, "notified", snap.Status)
	assert.Nil(t, snap.NotifyAt)
	require.NotNil(t, snap.LastNotifiedAt)
	assert.True(t, snap.LastNotifiedAt.Equal(checked))
	require.NotNil(t, snap.Error)
	assert.Equal(t, "buzzer unplugged", *snap.Error)
	assert.Equal(t, int64(12), snap.LatencyMs)
}

func pollerResult(checked time.Time) poller.CycleResult {
	return poller.CycleResult{
		Target:    "iss",
		Status:    poller.StatusNotified,
		EventAt:   time.Unix(1723459200, 0),
		Latency:   12 * time.Millisecond,
		CheckedAt: checked,
		Notified:  true,
		Err:       errors.New("buzzer unplugged"),
	}
}
