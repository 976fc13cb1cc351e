package urlnorm

import (
	"strings"

	"golang.org/x/net/idna"
)

// CanonicalHost returns a host in canonical form:
// - Trimmed of surrounding whitespace
// - Lowercased
// - No trailing dot
// - Decoded from its ASCII-compatible (punycode) encoding into Unicode
//
// Configured domain lists and request hosts are both folded through this
// function so comparisons always see the same representation on both sides.
func CanonicalHost(host string) string {
	host = strings.TrimSpace(host)
	host = strings.ToLower(host)
	for strings.HasSuffix(host, ".") {
		host = strings.TrimSuffix(host, ".")
	}
	if host == "" {
		return ""
	}
	// Only ACE-encoded hosts need the IDNA round trip.
	if strings.Contains(host, "xn--") {
		if decoded, err := idna.Lookup.ToUnicode(host); err == nil && decoded != "" {
			host = strings.ToLower(decoded)
		}
	}
	return host
}
