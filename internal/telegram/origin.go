// Origin validation for webhook pushes.
//
// Telegram delivers webhooks from published IP ranges and a fixed set of
// ports. Requests from anywhere else never reach the queue. The allow-list is
// static configuration: the ranges below are the ones Telegram documents, and
// staleness is an accepted operational risk rather than a runtime concern.
package telegram

import "net/netip"

// Telegram's published webhook source ranges and ports.
// https://core.telegram.org/bots/webhooks
var (
	defaultSourceRanges = []string{
		"149.154.160.0/20",
		"91.108.4.0/22",
	}
	defaultSourcePorts = []string{"443", "80", "88", "8443"}
)

// OriginPolicy decides whether a webhook request's network origin is trusted.
// Both the address and the port must match; either failing rejects the
// request. The zero value rejects everything — use NewOriginPolicy or
// DefaultOriginPolicy.
type OriginPolicy struct {
	prefixes []netip.Prefix
	ports    map[string]struct{}
}

// DefaultOriginPolicy returns the policy for Telegram's documented ranges.
func DefaultOriginPolicy() *OriginPolicy {
	p, err := NewOriginPolicy(defaultSourceRanges, defaultSourcePorts)
	if err != nil {
		// The defaults are compile-time constants; a parse failure here is a
		// programming error.
		panic(err)
	}
	return p
}

// NewOriginPolicy builds a policy from CIDR range strings and port strings.
// It returns an error if any range is not a valid CIDR, so misconfiguration
// fails at startup rather than silently rejecting all traffic.
func NewOriginPolicy(ranges, ports []string) (*OriginPolicy, error) {
	p := &OriginPolicy{
		prefixes: make([]netip.Prefix, 0, len(ranges)),
		ports:    make(map[string]struct{}, len(ports)),
	}
	for _, r := range ranges {
		pref, err := netip.ParsePrefix(r)
		if err != nil {
			return nil, err
		}
		p.prefixes = append(p.prefixes, pref)
	}
	for _, port := range ports {
		p.ports[port] = struct{}{}
	}
	return p, nil
}

// IsTrustedOrigin reports whether the given source address and port belong to
// the allow-list. It fails closed: malformed or empty addresses, and ports
// outside the list, all return false.
func (p *OriginPolicy) IsTrustedOrigin(address, port string) bool {
	addr, err := netip.ParseAddr(address)
	if err != nil {
		return false
	}
	if _, ok := p.ports[port]; !ok {
		return false
	}
	addr = addr.Unmap()
	for _, pref := range p.prefixes {
		if pref.Contains(addr) {
			return true
		}
	}
	return false
}
