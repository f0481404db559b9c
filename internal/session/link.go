package session

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"strconv"
	"strings"

	"github.com/miekg/dns"
)

const (
	defaultResolvConf = "/etc/resolv.conf"
	defaultRouteTable = "/proc/net/route"
	defaultDNSPort    = 53
)

var (
	// ErrLinkInit is returned when no usable network interface is available.
	ErrLinkInit = errors.New("link initialization failed")

	// ErrLease is returned when the link is up but no address configuration
	// could be acquired.
	ErrLease = errors.New("address lease failed")
)

// Lease is the address configuration acquired at bring-up.
type Lease struct {
	// Interface is the name of the interface the lease belongs to.
	Interface string

	// Local is the host's own address.
	Local netip.Addr

	// Gateway is the default gateway. Invalid if none is known.
	Gateway netip.Addr

	// DNS lists the name servers used for resolution.
	DNS []netip.AddrPort
}

// Link acquires a [Lease].
type Link interface {
	Acquire(ctx context.Context) (Lease, error)
}

// StaticLink returns a fixed lease. It is used when addresses come from
// configuration instead of the host.
type StaticLink struct {
	Lease Lease
}

// Acquire returns the configured lease. It fails with [ErrLease] if the lease
// carries no local address or no name server.
func (l StaticLink) Acquire(ctx context.Context) (Lease, error) {
	if err := ctx.Err(); err != nil {
		return Lease{}, fmt.Errorf("%w: %w", ErrLinkInit, err)
	}
	if !l.Lease.Local.IsValid() {
		return Lease{}, fmt.Errorf("%w: no local address configured", ErrLease)
	}
	if len(l.Lease.DNS) == 0 {
		return Lease{}, fmt.Errorf("%w: no DNS server configured", ErrLease)
	}
	return l.Lease, nil
}

// HostLink reads the lease the host already holds: the first non-loopback
// interface that is up (or the named one), the default gateway from the
// kernel route table, and the name servers from resolv.conf.
type HostLink struct {
	// Interface selects an interface by name. Empty picks the first suitable one.
	Interface string

	// ResolvConf overrides the resolv.conf path.
	ResolvConf string

	// RouteTable overrides the route table path. A missing table leaves the
	// gateway unset.
	RouteTable string
}

// Acquire implements [Link].
func (l HostLink) Acquire(ctx context.Context) (Lease, error) {
	if err := ctx.Err(); err != nil {
		return Lease{}, fmt.Errorf("%w: %w", ErrLinkInit, err)
	}

	iface, err := l.pickInterface()
	if err != nil {
		return Lease{}, err
	}

	local, err := interfaceIPv4(iface)
	if err != nil {
		return Lease{}, err
	}

	servers, err := readNameservers(l.resolvConf())
	if err != nil {
		return Lease{}, fmt.Errorf("%w: %w", ErrLease, err)
	}

	// gateway is diagnostic only
	gw, _ := readGateway(l.routeTable(), iface.Name)

	return Lease{
		Interface: iface.Name,
		Local:     local,
		Gateway:   gw,
		DNS:       servers,
	}, nil
}

func (l HostLink) resolvConf() string {
	if l.ResolvConf != "" {
		return l.ResolvConf
	}
	return defaultResolvConf
}

func (l HostLink) routeTable() string {
	if l.RouteTable != "" {
		return l.RouteTable
	}
	return defaultRouteTable
}

// pickInterface returns the named interface or the first non-loopback one
// that is up.
func (l HostLink) pickInterface() (net.Interface, error) {
	if l.Interface != "" {
		iface, err := net.InterfaceByName(l.Interface)
		if err != nil {
			return net.Interface{}, fmt.Errorf("%w: %w", ErrLinkInit, err)
		}
		if iface.Flags&net.FlagUp == 0 {
			return net.Interface{}, fmt.Errorf("%w: interface %s is down", ErrLinkInit, iface.Name)
		}
		return *iface, nil
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return net.Interface{}, fmt.Errorf("%w: %w", ErrLinkInit, err)
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		return iface, nil
	}
	return net.Interface{}, fmt.Errorf("%w: no interface is up", ErrLinkInit)
}

// interfaceIPv4 returns the first IPv4 address assigned to iface.
func interfaceIPv4(iface net.Interface) (netip.Addr, error) {
	addrs, err := iface.Addrs()
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%w: %s: %w", ErrLease, iface.Name, err)
	}
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		if ip4 := ipnet.IP.To4(); ip4 != nil {
			addr, _ := netip.AddrFromSlice(ip4)
			return addr, nil
		}
	}
	return netip.Addr{}, fmt.Errorf("%w: %s has no IPv4 address", ErrLease, iface.Name)
}

// readNameservers parses a resolv.conf file.
func readNameservers(path string) ([]netip.AddrPort, error) {
	cfg, err := dns.ClientConfigFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	port := uint16(defaultDNSPort)
	if p, err := strconv.ParseUint(cfg.Port, 10, 16); err == nil && p != 0 {
		port = uint16(p)
	}

	servers := make([]netip.AddrPort, 0, len(cfg.Servers))
	for _, s := range cfg.Servers {
		addr, err := netip.ParseAddr(s)
		if err != nil {
			continue
		}
		servers = append(servers, netip.AddrPortFrom(addr, port))
	}
	if len(servers) == 0 {
		return nil, fmt.Errorf("no nameserver in %s", path)
	}
	return servers, nil
}

// readGateway returns the default IPv4 gateway of iface from a
// /proc/net/route formatted table.
func readGateway(path, iface string) (netip.Addr, error) {
	f, err := os.Open(path)
	if err != nil {
		return netip.Addr{}, err
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Scan() // header
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 || fields[0] != iface || fields[1] != "00000000" {
			continue
		}
		raw, err := strconv.ParseUint(fields[2], 16, 32)
		if err != nil {
			continue
		}
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(raw))
		return netip.AddrFrom4(b), nil
	}
	if err := scanner.Err(); err != nil {
		return netip.Addr{}, err
	}
	return netip.Addr{}, fmt.Errorf("no default route for %s", iface)
}
