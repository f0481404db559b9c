package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"time"
)

// passSchedule announces a pass every period, the first one offset after
// start.
type passSchedule struct {
	start  time.Time
	offset time.Duration
	period time.Duration
}

// next returns the first pass that has not yet started.
func (p passSchedule) next(now time.Time) time.Time {
	first := p.start.Add(p.offset)
	if now.Before(first) {
		return first
	}
	n := now.Sub(first)/p.period + 1
	return first.Add(n * p.period)
}

// StartMockPassServer runs a pass API on addr in the shape of
// api.open-notify.org/iss-pass.json. A pass is announced every 3 minutes,
// the first one 2 minutes after start.
func StartMockPassServer(addr string) {
	sched := passSchedule{start: time.Now(), offset: 2 * time.Minute, period: 3 * time.Minute}

	mux := http.NewServeMux()
	mux.HandleFunc("/iss-pass.json", func(w http.ResponseWriter, r *http.Request) {
		// simulate small latency variance
		time.Sleep(time.Duration(50+rand.Intn(150)) * time.Millisecond)

		now := time.Now()
		rise := sched.next(now)
		slog.Info("mock pass served", "risetime", rise.Format(time.TimeOnly))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"message": "success", "request": {"altitude": 100, "datetime": %d, "passes": 1}, "response": [{"duration": 540, "risetime": %d}]}`,
			now.Unix(), rise.Unix())
	})

	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("mock server error", "error", err)
	}
}
