package config

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strconv"
	"strings"
)

// ErrInvalidEndpoint is returned for malformed or unsafe endpoints.
var ErrInvalidEndpoint = errors.New("config: invalid endpoint")

var blockedHosts = map[string]struct{}{
	"localhost": {},
	"127.0.0.1": {},
	"0.0.0.0":   {},
	"::1":       {},
}

// reservedPrefixes covers ranges not caught by the netip predicates.
var reservedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("192.0.0.0/24"),
	netip.MustParsePrefix("192.0.2.0/24"),
	netip.MustParsePrefix("198.18.0.0/15"),
	netip.MustParsePrefix("198.51.100.0/24"),
	netip.MustParsePrefix("203.0.113.0/24"),
	netip.MustParsePrefix("240.0.0.0/4"),
	netip.MustParsePrefix("2001:db8::/32"),
	netip.MustParsePrefix("64:ff9b::/96"),
}

// Endpoint is a normalized S3 service endpoint.
type Endpoint struct {
	Scheme   string // http or https
	Hostname string // without brackets or port
	Port     string // empty when the scheme default
	Path     string // escaped, no trailing slash
}

// Host returns host[:port] as used in the URL authority and the signed host header.
func (e *Endpoint) Host() string {
	if e.Port != "" {
		return net.JoinHostPort(e.Hostname, e.Port)
	}
	if strings.Contains(e.Hostname, ":") {
		return "[" + e.Hostname + "]"
	}
	return e.Hostname
}

// String renders scheme://host[:port][path].
func (e *Endpoint) String() string {
	return e.Scheme + "://" + e.Host() + e.Path
}

// Policy controls which hosts ResolveEndpoint accepts.
type Policy struct {
	// AllowPrivateHosts disables the SSRF guard. Only for trusted deployments
	// (a MinIO on the LAN) and tests.
	AllowPrivateHosts bool
}

// ResolveEndpoint validates and normalizes raw with the strict policy.
func ResolveEndpoint(raw string) (*Endpoint, error) {
	return Policy{}.Resolve(raw)
}

// Resolve validates and normalizes raw.
func (p Policy) Resolve(raw string) (*Endpoint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidEndpoint)
	}

	lower := strings.ToLower(raw)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		if strings.Contains(raw, "://") {
			return nil, fmt.Errorf("%w: unsupported scheme", ErrInvalidEndpoint)
		}
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
	}

	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidEndpoint)
	}

	if !p.AllowPrivateHosts {
		if _, blocked := blockedHosts[strings.ToLower(host)]; blocked {
			return nil, fmt.Errorf("%w: blocked host %q", ErrInvalidEndpoint, host)
		}
		if addr, err := netip.ParseAddr(host); err == nil && IsRestrictedAddr(addr) {
			return nil, fmt.Errorf("%w: restricted address %q", ErrInvalidEndpoint, host)
		}
	}

	scheme := strings.ToLower(u.Scheme)
	port := u.Port()
	if port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n < 1 || n > 65535 {
			return nil, fmt.Errorf("%w: bad port %q", ErrInvalidEndpoint, port)
		}
		if (scheme == "https" && n == 443) || (scheme == "http" && n == 80) {
			port = ""
		}
	}

	return &Endpoint{
		Scheme:   scheme,
		Hostname: host,
		Port:     port,
		Path:     strings.TrimRight(u.EscapedPath(), "/"),
	}, nil
}

// IsRestrictedAddr reports whether addr is loopback, private, link-local,
// unspecified, multicast or otherwise reserved.
func IsRestrictedAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	if addr.IsLoopback() || addr.IsPrivate() || addr.IsUnspecified() ||
		addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast() ||
		addr.IsInterfaceLocalMulticast() || addr.IsMulticast() {
		return true
	}
	for _, p := range reservedPrefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
