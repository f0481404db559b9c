package risewatch

import (
	"errors"
	"time"
)

// targetConfig holds mutable state during target construction.
type targetConfig struct {
	maxTokenLength int
	lookahead      int
	timeout        time.Duration
	headers        map[string]string
}

// TargetOption configures a [Target] during construction.
//
// Built-in options: [WithHeaders], [WithTimeout], [WithMaxTokenLength],
// [WithLookahead].
type TargetOption func(*targetConfig) error

// WithHeaders adds request headers, as variadic key-value pairs.
//
// Example:
//
//	target, err := risewatch.NewTarget("iss", url, "risetime",
//	    risewatch.WithHeaders("User-Agent", "risewatch/1.0"),
//	)
//
// Returns an error if an odd number of arguments is provided.
func WithHeaders(keyValues ...string) TargetOption {
	return func(cfg *targetConfig) error {
		if len(keyValues)%2 != 0 {
			return errors.New("WithHeaders requires an even number of arguments (key-value pairs)")
		}
		for i := 0; i < len(keyValues); i += 2 {
			cfg.headers[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}

// WithTimeout sets the per-request deadline. A request that does not finish in
// time completes with [StatusTimeout]. Defaults to 10 seconds.
//
// Returns an error if the duration is zero or negative.
func WithTimeout(d time.Duration) TargetOption {
	return func(cfg *targetConfig) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		cfg.timeout = d
		return nil
	}
}

// WithMaxTokenLength bounds how many bytes are copied after the keyword.
// Longer values are truncated, which makes them fail to parse. Defaults to 16.
//
// Returns an error if n is zero or negative.
func WithMaxTokenLength(n int) TargetOption {
	return func(cfg *targetConfig) error {
		if n <= 0 {
			return errors.New("max token length must be positive")
		}
		cfg.maxTokenLength = n
		return nil
	}
}

// WithLookahead sets how many bytes of the body are searched for the keyword.
// The keyword must end within this window. Defaults to 1000.
//
// Returns an error if n is zero or negative.
func WithLookahead(n int) TargetOption {
	return func(cfg *targetConfig) error {
		if n <= 0 {
			return errors.New("lookahead must be positive")
		}
		cfg.lookahead = n
		return nil
	}
}
