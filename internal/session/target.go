package session

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strconv"
	"time"

	"github.com/jpalmerr/risewatch/internal/extract"
)

// Target is one remote source polled by the controller.
//
// Everything except the address is fixed at construction. Address and
// ResolvedAt are written by the [Session] on the loop goroutine, after a
// successful lookup.
type Target struct {
	// Name identifies the target in logs and results.
	Name string

	// URL is the request URL. Its host is what gets resolved.
	URL *url.URL

	// Keyword is the field name whose value is extracted, or a literal
	// pattern when it holds a quote or a colon. See [extract.Needle].
	Keyword string

	// MaxTokenLen bounds the extracted value, excluding the terminator.
	MaxTokenLen int

	// Lookahead is the number of body bytes searched for the keyword.
	Lookahead int

	// Headers are sent with every request.
	Headers map[string]string

	// Address is the last successfully resolved address.
	Address netip.Addr

	// ResolvedAt is when Address was last refreshed.
	ResolvedAt time.Time

	needle []byte
}

// NewTarget builds a Target from a raw URL and the keyword to extract.
func NewTarget(name, rawURL, keyword string, maxTokenLen, lookahead int) (*Target, error) {
	if keyword == "" {
		return nil, errors.New("keyword cannot be empty")
	}
	if maxTokenLen <= 0 {
		return nil, fmt.Errorf("max token length must be positive, got %d", maxTokenLen)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return nil, errors.New("URL must have a host")
	}

	return &Target{
		Name:        name,
		URL:         u,
		Keyword:     keyword,
		MaxTokenLen: maxTokenLen,
		Lookahead:   lookahead,
		needle:      extract.Needle(keyword),
	}, nil
}

// Host returns the hostname to resolve.
func (t *Target) Host() string {
	return t.URL.Hostname()
}

// Port returns the TCP port, defaulting by scheme.
func (t *Target) Port() uint16 {
	if p := t.URL.Port(); p != "" {
		if n, err := strconv.ParseUint(p, 10, 16); err == nil {
			return uint16(n)
		}
	}
	if t.URL.Scheme == "https" {
		return 443
	}
	return 80
}

// Needle returns the byte pattern searched for in the body: `"keyword":` for
// a bare field name, the keyword itself for a literal pattern.
func (t *Target) Needle() []byte {
	return t.needle
}

// DialAddr returns the resolved address and port, or false if the target has
// never been resolved.
func (t *Target) DialAddr() (netip.AddrPort, bool) {
	if !t.Address.IsValid() {
		return netip.AddrPort{}, false
	}
	return netip.AddrPortFrom(t.Address, t.Port()), true
}

// String returns host:port for logging.
func (t *Target) String() string {
	return net.JoinHostPort(t.Host(), strconv.Itoa(int(t.Port())))
}
