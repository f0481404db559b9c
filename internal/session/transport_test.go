package session

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requestTo builds a Request whose URL names host but whose dial address is
// the test server.
func requestTo(t *testing.T, server *httptest.Server, host, path string) Request {
	t.Helper()
	ap := netip.MustParseAddrPort(server.Listener.Addr().String())
	u, err := url.Parse("http://" + net.JoinHostPort(host, strconv.Itoa(int(ap.Port()))) + path)
	require.NoError(t, err)
	return Request{URL: u, Addr: ap}
}

func TestHTTPTransport_DialsResolvedAddress(t *testing.T) {
	var gotHost, gotID, gotHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHost = r.Host
		gotID = r.Header.Get("X-Request-Id")
		gotHeader = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"risetime":1723459200}`))
	}))
	defer server.Close()

	req := requestTo(t, server, "api.open-notify.test", "/iss-pass.json")
	req.ID = "cycle-1"
	req.Headers = map[string]string{"Accept": "application/json"}
	buf := NewBuffer(1024)

	c := NewHTTPTransport().Do(context.Background(), req, buf)

	require.NoError(t, c.Err)
	assert.True(t, c.OK())
	assert.Equal(t, http.StatusOK, c.StatusCode)
	assert.True(t, strings.HasPrefix(gotHost, "api.open-notify.test:"))
	assert.Equal(t, "cycle-1", gotID)
	assert.Equal(t, "application/json", gotHeader)

	raw := buf.Bytes()
	assert.True(t, strings.HasPrefix(string(raw), "HTTP/1.1 200 OK\r\n"))
	assert.Equal(t, `{"risetime":1723459200}`, string(raw[c.Offset:c.Length]))
	assert.False(t, c.Truncated)
}

func TestHTTPTransport_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"message":"failure"}`))
	}))
	defer server.Close()

	buf := NewBuffer(1024)
	c := NewHTTPTransport().Do(context.Background(), requestTo(t, server, "example.test", "/"), buf)

	require.NoError(t, c.Err)
	assert.False(t, c.OK())
	assert.Equal(t, http.StatusServiceUnavailable, c.StatusCode)
	assert.Equal(t, `{"message":"failure"}`, string(buf.Bytes()[c.Offset:c.Length]))
}

func TestHTTPTransport_TruncatesLargeBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 4096)))
	}))
	defer server.Close()

	buf := NewBuffer(256)
	c := NewHTTPTransport().Do(context.Background(), requestTo(t, server, "example.test", "/"), buf)

	require.NoError(t, c.Err)
	assert.True(t, c.Truncated)
	assert.Equal(t, 256, c.Length)
	assert.Less(t, c.Offset, c.Length)
}

func TestHTTPTransport_DoesNotFollowRedirects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://elsewhere.test/", http.StatusFound)
	}))
	defer server.Close()

	buf := NewBuffer(1024)
	c := NewHTTPTransport().Do(context.Background(), requestTo(t, server, "example.test", "/"), buf)

	require.NoError(t, c.Err)
	assert.Equal(t, http.StatusFound, c.StatusCode)
}

func TestHTTPTransport_ContextTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := NewHTTPTransport().Do(ctx, requestTo(t, server, "example.test", "/"), NewBuffer(256))

	assert.Error(t, c.Err)
	assert.Zero(t, c.StatusCode)
}

func TestHTTPTransport_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	req := requestTo(t, server, "example.test", "/")
	server.Close()

	c := NewHTTPTransport().Do(context.Background(), req, NewBuffer(256))

	assert.Error(t, c.Err)
	assert.False(t, c.OK())
}

// TestSession_WithHTTPTransport runs a full cycle through the real transport.
func TestSession_WithHTTPTransport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message": "success", "response": [{"duration": 345, "risetime": 1723459200}]}`))
	}))
	defer server.Close()

	ap := netip.MustParseAddrPort(server.Listener.Addr().String())
	resolver := &fakeResolver{addr: ap.Addr()}
	s := New(StaticLink{Lease: testLease}, resolver, NewHTTPTransport(), Config{}, testLogger())
	target, err := NewTarget("iss", "http://iss.test:"+strconv.Itoa(int(ap.Port()))+"/iss-pass.json", "risetime", 16, 0)
	require.NoError(t, err)

	require.NoError(t, s.Resolve(context.Background(), target))
	require.NoError(t, s.Issue(context.Background(), target, "id"))
	awaitCompletion(t, s)

	resp, ok := s.Response()
	require.True(t, ok)
	require.NoError(t, resp.Err)
	assert.Contains(t, string(resp.Body), `"risetime": 1723459200`)
	s.Release()
	s.Close()
}
