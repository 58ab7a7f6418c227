// Package hostutil resolves tenant identity from request hostnames.
// Tenant identifiers are derived from the leftmost DNS label of the
// request host, so "acme.example.com:8080" belongs to tenant "acme".
package hostutil

import "strings"

// Hostname strips any port from a Host header value.
func Hostname(host string) string {
	if idx := strings.Index(host, ":"); idx != -1 {
		return host[:idx]
	}
	return host
}

// Port returns the port suffix of a Host header value including the
// leading colon, or "" when no port is present.
func Port(host string) string {
	if idx := strings.Index(host, ":"); idx != -1 {
		return host[idx:]
	}
	return ""
}

// Subdomain returns the leftmost DNS label of a host, which is the
// tenant identifier for tenant-domain requests. A host without a dot
// has no subdomain and yields "".
func Subdomain(host string) string {
	hostname := Hostname(host)
	idx := strings.Index(hostname, ".")
	if idx == -1 {
		return ""
	}
	return hostname[:idx]
}

// MatchesTenant reports whether a request host is bound to the given
// tenant. Matching is by exact leftmost-label equality; substring
// matching would let tenant "a" authorize against "tenanta.example.com".
func MatchesTenant(host, tenantID string) bool {
	if tenantID == "" {
		return false
	}
	return Subdomain(host) == tenantID
}
