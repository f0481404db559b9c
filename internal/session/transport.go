package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"time"
)

const (
	defaultDialTimeout         = 10 * time.Second
	defaultTLSHandshakeTimeout = 10 * time.Second

	// requestIDHeader carries the per-cycle id so server-side logs can be
	// matched to ours.
	requestIDHeader = "X-Request-Id"
)

// Request describes one outstanding request.
type Request struct {
	// URL is the request URL. Its host is sent as the Host header and TLS
	// server name.
	URL *url.URL

	// Addr is the resolved address the connection is dialled to.
	Addr netip.AddrPort

	// Headers are added to the request.
	Headers map[string]string

	// ID is the cycle id, sent as X-Request-Id when set.
	ID string
}

// Completion is posted by the transport when a request finishes, whether it
// succeeded, failed, or timed out.
type Completion struct {
	// StatusCode is the HTTP status code. Zero if no response was received.
	StatusCode int

	// Offset is where the body starts inside the buffer.
	Offset int

	// Length is the number of buffer bytes written in total.
	Length int

	// Latency is the round-trip time.
	Latency time.Duration

	// Truncated is set when the response did not fit in the buffer.
	Truncated bool

	// Err is set when the request failed before a complete response was read,
	// or wraps [ErrResolve] when no address could be found.
	Err error

	// Resolved is set by the [Session] when this request refreshed the
	// target's address.
	Resolved netip.Addr
}

// OK reports whether the completion carries a 2xx response.
func (c Completion) OK() bool {
	return c.Err == nil && c.StatusCode >= 200 && c.StatusCode < 300
}

// Transport executes a [Request], writing the raw response into dst.
//
// Do is called from its own goroutine and owns dst until it returns. It must
// honour ctx cancellation and always return a Completion.
type Transport interface {
	Do(ctx context.Context, req Request, dst *Buffer) Completion
}

type dialAddrKey struct{}

// HTTPTransport is the [Transport] backed by net/http.
//
// Connections are dialled to the request's resolved address rather than the
// URL host, so name resolution stays with the [Session]. Keep-alives are off
// and redirects are not followed: a redirect target would need its own
// resolution.
type HTTPTransport struct {
	httpClient *http.Client
}

// NewHTTPTransport creates an [HTTPTransport].
func NewHTTPTransport() *HTTPTransport {
	dialer := &net.Dialer{Timeout: defaultDialTimeout}

	return &HTTPTransport{
		httpClient: &http.Client{
			// no default timeout - the session applies a deadline per request
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
					if ap, ok := ctx.Value(dialAddrKey{}).(netip.AddrPort); ok && ap.IsValid() {
						addr = ap.String()
					}
					return dialer.DialContext(ctx, network, addr)
				},
				TLSHandshakeTimeout: defaultTLSHandshakeTimeout,
				DisableKeepAlives:   true,
			},
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Do implements [Transport].
//
// The status line and header block are written first, then the body, so the
// completion's Offset points at the first body byte. A response larger than
// dst is truncated; that is reported in Truncated and is not an error.
func (t *HTTPTransport) Do(ctx context.Context, req Request, dst *Buffer) Completion {
	start := time.Now()
	ctx = context.WithValue(ctx, dialAddrKey{}, req.Addr)

	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL.String(), nil)
	if err != nil {
		return Completion{
			Latency: time.Since(start),
			Err:     fmt.Errorf("failed to create request: %w", err),
		}
	}
	for key, value := range req.Headers {
		hreq.Header.Set(key, value)
	}
	if req.ID != "" {
		hreq.Header.Set(requestIDHeader, req.ID)
	}

	resp, err := t.httpClient.Do(hreq)
	if err != nil {
		return Completion{
			Latency: time.Since(start),
			Err:     fmt.Errorf("request failed: %w", err),
		}
	}
	defer func() { _ = resp.Body.Close() }()

	// header block overflow is fine: the body offset then sits at capacity
	_, _ = fmt.Fprintf(dst, "%s %s\r\n", resp.Proto, resp.Status)
	_ = resp.Header.Write(dst)
	_, _ = dst.WriteString("\r\n")
	offset := dst.Len()

	_, err = io.Copy(dst, resp.Body)

	c := Completion{
		StatusCode: resp.StatusCode,
		Offset:     offset,
		Length:     dst.Len(),
		Latency:    time.Since(start),
		Truncated:  dst.Truncated(),
	}
	if err != nil && !errors.Is(err, ErrBufferFull) {
		c.Err = fmt.Errorf("failed to read response body: %w", err)
	}
	return c
}
