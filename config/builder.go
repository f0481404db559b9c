package config

import (
	"os"
	"sort"

	"github.com/jpalmerr/risewatch"
)

// BuildTarget converts the target section into an SDK [risewatch.Target].
func BuildTarget(cfg *Config) (risewatch.Target, error) {
	tc := cfg.Target
	opts := []risewatch.TargetOption{
		risewatch.WithMaxTokenLength(tc.MaxTokenLength),
		risewatch.WithLookahead(tc.Lookahead),
		risewatch.WithTimeout(tc.Timeout.Duration()),
	}
	if len(tc.Headers) > 0 {
		opts = append(opts, risewatch.WithHeaders(mapToKeyValuePairs(tc.Headers)...))
	}
	return risewatch.NewTarget(tc.Name, tc.URL, tc.Keyword, opts...)
}

// BuildOptions converts parsed configuration into SDK options, target
// included. Logging is left to the caller.
func BuildOptions(cfg *Config) ([]risewatch.Option, error) {
	target, err := BuildTarget(cfg)
	if err != nil {
		return nil, err
	}

	opts := []risewatch.Option{
		risewatch.WithTarget(target),
		risewatch.WithPollInterval(cfg.PollInterval.Duration()),
		risewatch.WithNotifyLead(cfg.NotifyLead.Duration()),
		risewatch.WithTick(cfg.Tick.Duration()),
		risewatch.WithBufferSize(cfg.BufferSize),
		risewatch.WithBringUp(cfg.Network.BringUpAttempts, cfg.Network.BringUpRetryDelay.Duration()),
		risewatch.WithDNSTimeout(cfg.Network.DNSTimeout.Duration()),
		risewatch.WithResolveTTL(cfg.Network.ResolveTTL.Duration()),
	}

	if cfg.StatusPort > 0 {
		opts = append(opts, risewatch.WithStatusPort(cfg.StatusPort))
	}

	nc := cfg.Network
	if nc.Static() {
		opts = append(opts, risewatch.WithStaticNetwork(nc.local, nc.gateway, nc.dns...))
	} else {
		opts = append(opts, risewatch.WithInterface(nc.Interface), risewatch.WithResolvConf(nc.ResolvConf))
	}

	for _, n := range buildNotifiers(cfg.Notify) {
		opts = append(opts, risewatch.WithNotifier(n))
	}

	return opts, nil
}

// buildNotifiers returns the configured notifiers. An empty result makes the
// SDK fall back to its log notifier.
func buildNotifiers(nc NotifyConfig) []risewatch.Notifier {
	var out []risewatch.Notifier
	if nc.Log {
		out = append(out, risewatch.LogNotifier{})
	}
	if nc.Bell != nil {
		out = append(out, risewatch.BellNotifier{
			Rings:    nc.Bell.Rings,
			Interval: nc.Bell.Interval.Duration(),
		})
	}
	if nc.Command != nil {
		out = append(out, risewatch.CommandNotifier{
			Path:    nc.Command.Path,
			Args:    append([]string(nil), nc.Command.Args...),
			Timeout: nc.Command.Timeout.Duration(),
			Stdout:  os.Stdout,
			Stderr:  os.Stderr,
		})
	}
	return out
}

// mapToKeyValuePairs converts a map to key-value pairs sorted by key.
func mapToKeyValuePairs(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(m)*2)
	for _, k := range keys {
		pairs = append(pairs, k, m[k])
	}
	return pairs
}
