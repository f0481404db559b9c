package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/risewatch"
)

func main() {
	// start mock server (see mock_server.go)
	go StartMockPassServer("127.0.0.1:9999")
	time.Sleep(100 * time.Millisecond)

	target, err := risewatch.NewTarget("mock-iss",
		"http://127.0.0.1:9999/iss-pass.json?lat=45.5&lon=-73.6&n=1",
		"risetime",
		risewatch.WithTimeout(5*time.Second),
	)
	if err != nil {
		slog.Error("failed to create target", "error", err)
		os.Exit(1)
	}

	w, err := risewatch.New(
		risewatch.WithTarget(target),
		risewatch.WithPollInterval(20*time.Second),
		risewatch.WithNotifyLead(time.Minute),
		// the target is an IP literal, so the name server is never queried
		risewatch.WithStaticNetwork(
			netip.MustParseAddr("127.0.0.1"),
			netip.Addr{},
			netip.MustParseAddrPort("127.0.0.1:53"),
		),
		risewatch.WithNotifier(risewatch.BellNotifier{Rings: 3, Interval: 300 * time.Millisecond}),
		risewatch.WithNotifier(risewatch.LogNotifier{}),
		risewatch.WithStatusPort(8080),
	)
	if err != nil {
		slog.Error("failed to create watcher", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  risewatch demo")
	fmt.Println()
	fmt.Println("  Mock pass API on http://127.0.0.1:9999, a pass every 3 minutes.")
	fmt.Println("  The bell rings one minute before each pass.")
	fmt.Println("  Status: http://localhost:8080/api/status")
	fmt.Println()
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := w.Start(ctx); err != nil {
		slog.Error("risewatch error", "error", err)
		os.Exit(1)
	}
}
