// Standalone mock pass API for trying the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/risewatch run -c example/config.yaml
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:9999", "listen address")
	every := flag.Duration("every", 3*time.Minute, "time between passes")
	flag.Parse()

	start := time.Now()
	fmt.Printf("Mock pass API on %s, a pass every %s\n", *addr, *every)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	http.HandleFunc("/iss-pass.json", func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		rise := start.Add((now.Sub(start)/(*every) + 1) * (*every))
		slog.Info("pass served", "remote", r.RemoteAddr, "risetime", rise.Format(time.TimeOnly))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"message": "success", "request": {"datetime": %d, "passes": 1}, "response": [{"duration": 540, "risetime": %d}]}`,
			now.Unix(), rise.Unix())
	})

	if err := http.ListenAndServe(*addr, nil); err != nil {
		slog.Error("mock server error", "error", err)
		os.Exit(1)
	}
}
