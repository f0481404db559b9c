package risewatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"time"
)

// Notifier triggers the local notification for an approaching event.
//
// Notify is called from the poll loop exactly once per event. It should
// return promptly; long work belongs in a goroutine. A returned error is
// logged and reported on the notified [CycleResult] but never retried.
// Panics are recovered.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// NotifierFunc adapts a function to [Notifier].
type NotifierFunc func(ctx context.Context, e Event) error

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, e Event) error {
	return f(ctx, e)
}

// LogNotifier logs the event at INFO. It is the default notifier.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify implements [Notifier].
func (n LogNotifier) Notify(_ context.Context, e Event) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("event approaching",
		"target", e.Target,
		"event_at", e.At.UTC().Format(time.RFC3339),
		"in", e.Until().Round(time.Second).String(),
	)
	return nil
}

// BellNotifier rings the terminal bell by writing BEL bytes.
type BellNotifier struct {
	// W receives the bell. Defaults to os.Stdout.
	W io.Writer

	// Rings is the number of bells. Defaults to 1.
	Rings int

	// Interval is the pause between bells.
	Interval time.Duration
}

// Notify implements [Notifier].
func (n BellNotifier) Notify(ctx context.Context, _ Event) error {
	w := n.W
	if w == nil {
		w = os.Stdout
	}
	rings := max(n.Rings, 1)

	for i := 0; i < rings; i++ {
		if i > 0 && n.Interval > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(n.Interval):
			}
		}
		if _, err := w.Write([]byte{'\a'}); err != nil {
			return fmt.Errorf("bell: %w", err)
		}
	}
	return nil
}

// CommandNotifier runs an external command. The event is passed in the
// environment as RISEWATCH_TARGET, RISEWATCH_HOST, RISEWATCH_EVENT_AT
// (RFC 3339) and RISEWATCH_EVENT_UNIX.
type CommandNotifier struct {
	// Path is the executable.
	Path string

	// Args are passed to the executable.
	Args []string

	// Timeout kills the command if it runs longer. Zero means no limit beyond ctx.
	Timeout time.Duration

	// Stdout and Stderr receive the command's output. Nil discards it.
	Stdout io.Writer
	Stderr io.Writer
}

// Notify implements [Notifier].
func (n CommandNotifier) Notify(ctx context.Context, e Event) error {
	if n.Path == "" {
		return errors.New("command notifier: no command configured")
	}
	if n.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, n.Path, n.Args...)
	cmd.Env = append(os.Environ(),
		"RISEWATCH_TARGET="+e.Target,
		"RISEWATCH_HOST="+e.Host,
		"RISEWATCH_EVENT_AT="+e.At.UTC().Format(time.RFC3339),
		"RISEWATCH_EVENT_UNIX="+strconv.FormatInt(e.At.Unix(), 10),
	)
	cmd.Stdout = n.Stdout
	cmd.Stderr = n.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("command notifier %s: %w", n.Path, err)
	}
	return nil
}

// MultiNotifier calls every notifier in order, even if one fails, and joins
// their errors.
type MultiNotifier []Notifier

// Notify implements [Notifier].
func (m MultiNotifier) Notify(ctx context.Context, e Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
