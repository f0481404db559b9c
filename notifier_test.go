package risewatch

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEvent = Event{
	Target:  "iss",
	Host:    "api.open-notify.org",
	At:      time.Unix(1723459200, 0),
	FiredAt: time.Unix(1723459200, 0).Add(-10 * time.Minute),
}

func TestEvent_Until(t *testing.T) {
	assert.Equal(t, 10*time.Minute, testEvent.Until())
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := LogNotifier{Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	require.NoError(t, n.Notify(context.Background(), testEvent))

	out := buf.String()
	assert.Contains(t, out, "event approaching")
	assert.Contains(t, out, "target=iss")
	assert.Contains(t, out, "event_at=2024-08-12T10:40:00Z")
	assert.Contains(t, out, "in=10m0s")
}

func TestBellNotifier(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, BellNotifier{W: &buf, Rings: 3}.Notify(context.Background(), testEvent))
	assert.Equal(t, "\a\a\a", buf.String())

	buf.Reset()
	require.NoError(t, BellNotifier{W: &buf}.Notify(context.Background(), testEvent))
	assert.Equal(t, "\a", buf.String(), "zero rings should ring once")
}

func TestBellNotifier_CancelBetweenRings(t *testing.T) {
	var buf bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := BellNotifier{W: &buf, Rings: 3, Interval: time.Hour}.Notify(ctx, testEvent)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "\a", buf.String())
}

func TestCommandNotifier(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	var out bytes.Buffer
	n := CommandNotifier{
		Path:    sh,
		Args:    []string{"-c", `echo "$RISEWATCH_TARGET $RISEWATCH_HOST $RISEWATCH_EVENT_AT $RISEWATCH_EVENT_UNIX"`},
		Timeout: 5 * time.Second,
		Stdout:  &out,
	}

	require.NoError(t, n.Notify(context.Background(), testEvent))

	assert.Equal(t, "iss api.open-notify.org 2024-08-12T10:40:00Z 1723459200", strings.TrimSpace(out.String()))
}

func TestCommandNotifier_Errors(t *testing.T) {
	err := CommandNotifier{}.Notify(context.Background(), testEvent)
	assert.ErrorContains(t, err, "no command configured")

	err = CommandNotifier{Path: "/nonexistent/risewatch-notify"}.Notify(context.Background(), testEvent)
	assert.ErrorContains(t, err, "/nonexistent/risewatch-notify")
}

func TestMultiNotifier(t *testing.T) {
	var calls []string
	first := NotifierFunc(func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("buzzer unplugged")
	})
	second := NotifierFunc(func(_ context.Context, e Event) error {
		calls = append(calls, "second:"+e.Target)
		return nil
	})

	err := MultiNotifier{first, second}.Notify(context.Background(), testEvent)

	assert.Equal(t, []string{"first", "second:iss"}, calls)
	assert.ErrorContains(t, err, "buzzer unplugged")
}

func TestMultiNotifier_Empty(t *testing.T) {
	assert.NoError(t, MultiNotifier{}.Notify(context.Background(), testEvent))
}
