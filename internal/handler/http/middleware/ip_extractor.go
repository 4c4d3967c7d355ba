package middleware

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// IPExtractor returns the client address a request should be attributed to.
type IPExtractor interface {
	ExtractIP(r *http.Request) (string, error)
}

// RemoteAddrExtractor uses the TCP peer address and ignores forwarding headers.
type RemoteAddrExtractor struct{}

// ExtractIP implements IPExtractor.
func (RemoteAddrExtractor) ExtractIP(r *http.Request) (string, error) {
	return hostFromAddr(r.RemoteAddr)
}

// TrustedProxyExtractor honours X-Forwarded-For and X-Real-IP only when the
// peer is inside one of the trusted prefixes.
type TrustedProxyExtractor struct {
	Trusted []netip.Prefix
}

// ParseTrustedProxies parses IPs or CIDRs into prefixes. Single IPs become /32 or /128.
func ParseTrustedProxies(entries []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if p, err := netip.ParsePrefix(e); err == nil {
			prefixes = append(prefixes, p)
			continue
		}
		addr, err := netip.ParseAddr(e)
		if err != nil {
			return nil, fmt.Errorf("invalid IP or CIDR %q", e)
		}
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// ExtractIP implements IPExtractor.
func (e TrustedProxyExtractor) ExtractIP(r *http.Request) (string, error) {
	peer, err := hostFromAddr(r.RemoteAddr)
	if err != nil {
		return "", err
	}
	if !e.trusts(peer) {
		return peer, nil
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if addr, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
			return addr.String(), nil
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if addr, err := netip.ParseAddr(strings.TrimSpace(xri)); err == nil {
			return addr.String(), nil
		}
	}
	return peer, nil
}

func (e TrustedProxyExtractor) trusts(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	for _, p := range e.Trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// hostFromAddr strips the port from "host:port". A bare IP is returned as is.
func hostFromAddr(addr string) (string, error) {
	host, _, err := net.SplitHostPort(addr)
	if err == nil {
		return host, nil
	}
	if ip, perr := netip.ParseAddr(strings.Trim(addr, "[]")); perr == nil {
		return ip.String(), nil
	}
	return "", fmt.Errorf("invalid address format: %s", addr)
}
