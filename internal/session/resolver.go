package session

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"time"

	"github.com/miekg/dns"
)

const defaultDNSTimeout = 5 * time.Second

// ErrResolve is returned when a hostname could not be resolved.
var ErrResolve = errors.New("DNS resolution failed")

// Resolver maps a hostname to an address using the given name servers.
type Resolver interface {
	Resolve(ctx context.Context, host string, servers []netip.AddrPort) (netip.Addr, error)
}

// DNSResolver queries A records directly against the lease's name servers.
//
// Servers are tried in order; the first answer carrying an A record wins. A
// truncated UDP answer is retried over TCP.
type DNSResolver struct {
	udp *dns.Client
	tcp *dns.Client
}

// NewDNSResolver creates a [DNSResolver] with the given per-query timeout.
// A timeout of zero or less selects 5 seconds.
func NewDNSResolver(timeout time.Duration) *DNSResolver {
	if timeout <= 0 {
		timeout = defaultDNSTimeout
	}
	return &DNSResolver{
		udp: &dns.Client{Net: "udp", Timeout: timeout},
		tcp: &dns.Client{Net: "tcp", Timeout: timeout},
	}
}

// Resolve implements [Resolver]. IP literals are returned without a query.
func (r *DNSResolver) Resolve(ctx context.Context, host string, servers []netip.AddrPort) (netip.Addr, error) {
	if addr, err := netip.ParseAddr(host); err == nil {
		return addr, nil
	}
	if len(servers) == 0 {
		return netip.Addr{}, fmt.Errorf("%w: %s: no name server", ErrResolve, host)
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), dns.TypeA)
	msg.RecursionDesired = true

	var lastErr error
	for _, server := range servers {
		addr, err := r.exchange(ctx, msg, server.String())
		if err == nil {
			return addr, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return netip.Addr{}, fmt.Errorf("%w: %s: %w", ErrResolve, host, lastErr)
}

// exchange sends one query to server and returns the first A record.
func (r *DNSResolver) exchange(ctx context.Context, msg *dns.Msg, server string) (netip.Addr, error) {
	in, _, err := r.udp.ExchangeContext(ctx, msg, server)
	if err == nil && in.Truncated {
		in, _, err = r.tcp.ExchangeContext(ctx, msg, server)
	}
	if err != nil {
		return netip.Addr{}, fmt.Errorf("query %s: %w", server, err)
	}
	if in.Rcode != dns.RcodeSuccess {
		return netip.Addr{}, fmt.Errorf("query %s: rcode %s", server, dns.RcodeToString[in.Rcode])
	}

	for _, rr := range in.Answer {
		a, ok := rr.(*dns.A)
		if !ok {
			continue
		}
		if addr, ok := netip.AddrFromSlice(a.A.To4()); ok {
			return addr, nil
		}
	}
	return netip.Addr{}, fmt.Errorf("query %s: no A record", server)
}
