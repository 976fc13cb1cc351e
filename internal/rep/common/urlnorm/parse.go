// Package urlnorm canonicalizes URLs and hosts for reputation checks:
// scheme/host extraction, lowercase folding, punycode decoding, registrable
// label splitting, and mixed-script (homograph) detection.
package urlnorm

import (
	"net/url"
	"strings"
)

// Parts is the result of normalizing a raw URL.
//
// A URL that cannot be parsed, or that carries no scheme or host, is not an
// error: the missing pieces are simply absent and cannot match host-based
// rules.
type Parts struct {
	Scheme string // lowercased, "" when absent
	Host   string // canonical decoded host, "" when absent
	IsIP   bool   // host is an IPv4/IPv6 literal
}

// HasHost reports whether a host could be extracted.
func (p Parts) HasHost() bool { return p.Host != "" }

// HasScheme reports whether a scheme could be extracted.
func (p Parts) HasScheme() bool { return p.Scheme != "" }

// Parse extracts and canonicalizes the scheme and host of a raw URL.
// The host comes back lowercased, with port, brackets, and trailing dot
// stripped, and decoded from punycode to its Unicode form so that host
// comparisons and homograph analysis see the same representation.
func Parse(raw string) Parts {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Parts{}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Parts{}
	}

	p := Parts{Scheme: strings.ToLower(u.Scheme)}

	host := u.Hostname()
	if host == "" {
		return p
	}
	if IsIPLiteral(host) {
		p.Host = strings.ToLower(host)
		p.IsIP = true
		return p
	}
	p.Host = CanonicalHost(host)
	return p
}
