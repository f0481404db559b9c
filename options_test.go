package risewatch

import (
	"bytes"
	"log/slog"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpalmerr/risewatch/internal/session"
)

func testTarget(t *testing.T) Target {
	t.Helper()
	target, err := NewTarget("iss", "http://api.open-notify.org/iss-pass.json?lat=45&lon=-73", "risetime")
	require.NoError(t, err)
	return target
}

func TestNew_Valid(t *testing.T) {
	w, err := New(WithTarget(testTarget(t)))

	require.NoError(t, err)
	assert.Equal(t, "iss", w.Target().Name())
	assert.Equal(t, time.Hour, w.PollInterval())
	assert.Equal(t, 10*time.Minute, w.NotifyLead())
	assert.Equal(t, 0, w.StatusPort())
	assert.IsType(t, LogNotifier{}, w.notifier)
	assert.IsType(t, session.HostLink{}, w.link)
	assert.IsType(t, &session.DNSResolver{}, w.resolver)
	assert.IsType(t, &session.HTTPTransport{}, w.transport)
}

func TestNew_NoTarget(t *testing.T) {
	_, err := New()
	assert.ErrorContains(t, err, "target is required")
}

func TestNew_TargetTwice(t *testing.T) {
	_, err := New(WithTarget(testTarget(t)), WithTarget(testTarget(t)))
	assert.ErrorContains(t, err, "target already set")
}

func TestNew_OptionValidation(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"zero poll interval", WithPollInterval(0)},
		{"negative poll interval", WithPollInterval(-time.Second)},
		{"zero notify lead", WithNotifyLead(0)},
		{"zero tick", WithTick(0)},
		{"tiny buffer", WithBufferSize(16)},
		{"zero bring-up attempts", WithBringUp(0, time.Second)},
		{"negative bring-up delay", WithBringUp(1, -time.Second)},
		{"port zero", WithStatusPort(0)},
		{"port too large", WithStatusPort(70000)},
		{"nil logger", WithLogger(nil)},
		{"zero DNS timeout", WithDNSTimeout(0)},
		{"zero resolve TTL", WithResolveTTL(0)},
		{"static network without local", WithStaticNetwork(netip.Addr{}, netip.Addr{}, netip.MustParseAddrPort("1.1.1.1:53"))},
		{"static network without DNS", WithStaticNetwork(netip.MustParseAddr("192.168.1.20"), netip.Addr{})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(WithTarget(testTarget(t)), tt.opt)
			assert.Error(t, err)
		})
	}
}

func TestNew_AppliesOptions(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	w, err := New(
		WithTarget(testTarget(t)),
		WithPollInterval(30*time.Minute),
		WithNotifyLead(5*time.Minute),
		WithTick(100*time.Millisecond),
		WithBufferSize(4096),
		WithBringUp(5, time.Second),
		WithResolveTTL(2*time.Hour),
		WithStatusPort(9090),
		WithLogger(logger),
		WithStaticNetwork(
			netip.MustParseAddr("192.168.1.20"),
			netip.MustParseAddr("192.168.1.1"),
			netip.MustParseAddrPort("192.168.1.1:53"),
		),
	)

	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, w.PollInterval())
	assert.Equal(t, 5*time.Minute, w.NotifyLead())
	assert.Equal(t, 100*time.Millisecond, w.tick)
	assert.Equal(t, 4096, w.bufferSize)
	assert.Equal(t, 5, w.bringUpAttempts)
	assert.Equal(t, 2*time.Hour, w.resolveTTL)
	assert.Equal(t, 9090, w.StatusPort())
	assert.Same(t, logger, w.logger)

	link, ok := w.link.(session.StaticLink)
	require.True(t, ok, "static network should select StaticLink")
	assert.Equal(t, netip.MustParseAddr("192.168.1.20"), link.Lease.Local)
	assert.Equal(t, []netip.AddrPort{netip.MustParseAddrPort("192.168.1.1:53")}, link.Lease.DNS)
}

func TestNew_HostLinkOptions(t *testing.T) {
	w, err := New(
		WithTarget(testTarget(t)),
		WithInterface("eth1"),
		WithResolvConf("/tmp/resolv.conf"),
	)

	require.NoError(t, err)
	assert.Equal(t, session.HostLink{Interface: "eth1", ResolvConf: "/tmp/resolv.conf"}, w.link)
}

func TestNew_Notifiers(t *testing.T) {
	bell := BellNotifier{}
	cmd := CommandNotifier{Path: "/bin/true"}

	single, err := New(WithTarget(testTarget(t)), WithNotifier(bell), WithNotifier(nil))
	require.NoError(t, err)
	assert.Equal(t, bell, single.notifier)

	multi, err := New(WithTarget(testTarget(t)), WithNotifier(bell), WithNotifier(cmd))
	require.NoError(t, err)
	assert.Equal(t, MultiNotifier{bell, cmd}, multi.notifier)
}

func TestWithCycleCallback_NilIgnored(t *testing.T) {
	w, err := New(WithTarget(testTarget(t)), WithCycleCallback(nil), WithCycleCallback(func(CycleResult) {}))

	require.NoError(t, err)
	assert.Len(t, w.cycleCallbacks, 1)
}
