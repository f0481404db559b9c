package risewatch

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/jpalmerr/risewatch/internal/extract"
	"github.com/jpalmerr/risewatch/internal/session"
)

const (
	// DefaultMaxTokenLength bounds the extracted value when not configured.
	// A uint32 needs at most 10 digits.
	DefaultMaxTokenLength = 16

	// DefaultLookahead is the number of body bytes searched for the keyword.
	DefaultLookahead = extract.DefaultLookahead

	defaultTargetTimeout = session.DefaultTimeout
)

// Target is the HTTP endpoint polled for the event time.
//
// Target is immutable after creation via [NewTarget]. Getters return copies
// of mutable data.
type Target struct {
	name           string
	url            string
	keyword        string
	maxTokenLength int
	lookahead      int
	timeout        time.Duration
	headers        map[string]string
}

// NewTarget creates a [Target].
//
// The keyword is the field name whose value holds the event time; the response
// is searched for "<keyword>": and the value after it, with any whitespace
// after the colon skipped, is parsed as Unix seconds. A keyword holding a
// quote or a colon, such as `risetime": `, is searched for exactly as given.
// rawURL must be an absolute http or https URL.
//
// Example:
//
//	target, err := risewatch.NewTarget("iss",
//	    "http://api.open-notify.org/iss-pass.json?lat=45.5&lon=-73.6&n=1",
//	    "risetime",
//	    risewatch.WithTimeout(5*time.Second),
//	)
func NewTarget(name, rawURL, keyword string, opts ...TargetOption) (Target, error) {
	if name == "" {
		return Target{}, errors.New("target name cannot be empty")
	}

	cfg := &targetConfig{
		maxTokenLength: DefaultMaxTokenLength,
		lookahead:      DefaultLookahead,
		timeout:        defaultTargetTimeout,
		headers:        make(map[string]string),
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return Target{}, err
		}
	}

	// validates URL and keyword the same way the session will
	if _, err := session.NewTarget(name, rawURL, keyword, cfg.maxTokenLength, cfg.lookahead); err != nil {
		return Target{}, fmt.Errorf("target %q: %w", name, err)
	}

	return Target{
		name:           name,
		url:            rawURL,
		keyword:        keyword,
		maxTokenLength: cfg.maxTokenLength,
		lookahead:      cfg.lookahead,
		timeout:        cfg.timeout,
		headers:        cfg.headers,
	}, nil
}

// Name returns the target's name.
func (t Target) Name() string {
	return t.name
}

// URL returns the URL polled.
func (t Target) URL() string {
	return t.url
}

// Host returns the hostname of the URL.
func (t Target) Host() string {
	u, err := url.Parse(t.url)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// Keyword returns the field name, or literal pattern, whose value is extracted.
func (t Target) Keyword() string {
	return t.keyword
}

// MaxTokenLength returns the maximum number of bytes extracted after the keyword.
func (t Target) MaxTokenLength() int {
	return t.maxTokenLength
}

// Lookahead returns the number of body bytes searched for the keyword.
func (t Target) Lookahead() int {
	return t.lookahead
}

// Timeout returns the per-request deadline.
func (t Target) Timeout() time.Duration {
	return t.timeout
}

// Headers returns a copy of the request headers.
func (t Target) Headers() map[string]string {
	return copyMap(t.headers)
}

// sessionTarget builds the mutable internal target.
func (t Target) sessionTarget() (*session.Target, error) {
	st, err := session.NewTarget(t.name, t.url, t.keyword, t.maxTokenLength, t.lookahead)
	if err != nil {
		return nil, err
	}
	st.Headers = copyMap(t.headers)
	return st, nil
}

// copyMap returns a shallow copy of the map.
func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
