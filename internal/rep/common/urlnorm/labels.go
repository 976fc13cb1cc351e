package urlnorm

import (
	"net"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// RegistrableLabels returns the portion of a host before its public suffix:
// the label(s) a registrant actually chose, which is what entropy scoring
// should look at. For "api.xj9q2.example.com" that is "api.xj9q2.example";
// for a host that is all suffix the host itself is returned.
func RegistrableLabels(host string) string {
	suffix, _ := publicsuffix.PublicSuffix(host)
	if suffix == "" || len(suffix) >= len(host) {
		return host
	}
	return strings.TrimSuffix(host[:len(host)-len(suffix)], ".")
}

// SuffixICANN reports whether the host's public suffix appears in the ICANN
// section of the public suffix list, i.e. whether its TLD is delegated.
func SuffixICANN(host string) bool {
	_, icann := publicsuffix.PublicSuffix(host)
	return icann
}

// IsIPLiteral reports whether the host is an IPv4 or IPv6 literal,
// with or without IPv6 brackets.
func IsIPLiteral(host string) bool {
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	return net.ParseIP(host) != nil
}
