package domain

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// DefaultEntropyThreshold is the Shannon-entropy cutoff applied when the
// operator enables heuristics without tuning the threshold. Lower is stricter.
const DefaultEntropyThreshold = 3.65

// Policy is the validated reputation configuration. It is built once at
// plugin construction and never mutated afterward, so evaluators may read it
// from any number of goroutines without synchronization.
//
// Domain lists are matched case-insensitively against the normalized host;
// normalization happens per request, not here, so the same Policy value can
// back evaluators with independent normalization pipelines.
type Policy struct {
	// WhitelistDomains are always allowed, bypassing every other check.
	// Matching is exact-or-subdomain.
	WhitelistDomains []string

	// AllowedPatterns are regular expressions matched case-insensitively
	// against the raw URL; a match allows unconditionally.
	AllowedPatterns []string

	// BlockedDomains deny on exact-or-subdomain host match.
	BlockedDomains []string

	// BlockedPatterns are regular expressions matched against the
	// lower-cased URL; a match denies.
	BlockedPatterns []string

	// UseHeuristicCheck enables the entropy, TLD, and host-safety checks
	// that run after all deterministic rules.
	UseHeuristicCheck bool

	// EntropyThreshold is the Shannon-entropy cutoff for the heuristic
	// check. Must be >= 0.
	EntropyThreshold float64

	// BlockNonSecureHTTP denies any scheme other than https unless a
	// whitelist or allow-pattern matched first.
	BlockNonSecureHTTP bool
}

// NewPolicy constructs a Policy and validates it.
func NewPolicy(p Policy) (Policy, error) {
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// Validate checks the Policy for construction-time configuration errors.
// Pattern problems and a negative threshold are configuration errors and must
// prevent the plugin from activating, never surface per request.
func (p Policy) Validate() error {
	if math.IsNaN(p.EntropyThreshold) || p.EntropyThreshold < 0 {
		return fmt.Errorf("entropy threshold must be >= 0, got %v", p.EntropyThreshold)
	}
	if err := validatePatterns("allowed", p.AllowedPatterns); err != nil {
		return err
	}
	if err := validatePatterns("blocked", p.BlockedPatterns); err != nil {
		return err
	}
	for _, d := range p.WhitelistDomains {
		if strings.TrimSpace(d) == "" {
			return fmt.Errorf("whitelist contains an empty domain")
		}
	}
	for _, d := range p.BlockedDomains {
		if strings.TrimSpace(d) == "" {
			return fmt.Errorf("blocklist contains an empty domain")
		}
	}
	return nil
}

func validatePatterns(kind string, patterns []string) error {
	for _, pat := range patterns {
		if pat == "" {
			return fmt.Errorf("%s patterns contain an empty entry", kind)
		}
		if _, err := regexp.Compile(pat); err != nil {
			return fmt.Errorf("invalid %s pattern %q: %w", kind, pat, err)
		}
	}
	return nil
}

// MatchesDomain reports whether host equals d or is a subdomain of d.
// Both sides are expected in canonical (lowercased, decoded) form.
func MatchesDomain(host, d string) bool {
	return host == d || strings.HasSuffix(host, "."+d)
}
