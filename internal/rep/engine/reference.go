package engine

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/urlwarden/urlwarden/internal/rep/common/urlnorm"
	"github.com/urlwarden/urlwarden/internal/rep/domain"
)

// Reference is the straightforward evaluator: canonical domain slices walked
// linearly, patterns compiled once at construction. It is the behavioral
// contract the accelerated engine is measured against.
type Reference struct {
	policy    domain.Policy
	whitelist []string // canonical form
	blocked   []string // canonical form
	allowRe   []*regexp.Regexp
	blockRe   []compiledPattern
	secure    string
}

// compiledPattern keeps the original pattern source next to the compiled
// regexp so violations can report the configured text verbatim.
type compiledPattern struct {
	source string
	re     *regexp.Regexp
}

// NewReference builds a Reference evaluator from a validated policy.
// Domain lists are folded to canonical form and patterns compiled here, so
// the policy value itself is never mutated and stays shareable.
func NewReference(p domain.Policy) (*Reference, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	r := &Reference{
		policy:    p,
		whitelist: canonicalDomains(p.WhitelistDomains),
		blocked:   canonicalDomains(p.BlockedDomains),
		secure:    "https",
	}

	for _, pat := range p.AllowedPatterns {
		// Allowed patterns match the raw URL case-insensitively.
		re, err := regexp.Compile("(?i)" + pat)
		if err != nil {
			return nil, fmt.Errorf("invalid allowed pattern %q: %w", pat, err)
		}
		r.allowRe = append(r.allowRe, re)
	}
	for _, pat := range p.BlockedPatterns {
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, fmt.Errorf("invalid blocked pattern %q: %w", pat, err)
		}
		r.blockRe = append(r.blockRe, compiledPattern{source: pat, re: re})
	}
	return r, nil
}

// canonicalDomains folds configured domain entries through the same
// normalization applied to request hosts, dropping empties.
func canonicalDomains(entries []string) []string {
	out := make([]string, 0, len(entries))
	for _, d := range entries {
		if cd := urlnorm.CanonicalHost(d); cd != "" {
			out = append(out, cd)
		}
	}
	return out
}

// Evaluate runs the ordered rule chain and returns the first terminal
// outcome. The order is fixed: whitelist, allowed patterns, scheme policy,
// blocked domains, blocked patterns, heuristics, default allow. Explicit
// configuration always wins over heuristics.
func (r *Reference) Evaluate(_ context.Context, rawURL string) (domain.Decision, error) {
	parts := urlnorm.Parse(rawURL)

	// 1. Whitelisted domains bypass every later check.
	if parts.HasHost() {
		for _, d := range r.whitelist {
			if domain.MatchesDomain(parts.Host, d) {
				return domain.Allow(), nil
			}
		}
	}

	// 2. Allowed patterns are the operator's escape hatch for specific
	// paths independent of host.
	for _, re := range r.allowRe {
		if re.MatchString(rawURL) {
			return domain.Allow(), nil
		}
	}

	// 3. Scheme policy. An absent scheme counts as non-secure.
	if r.policy.BlockNonSecureHTTP && parts.Scheme != r.secure {
		return blockNonSecure(rawURL), nil
	}

	// 4. Blocked domains, exact or subdomain.
	if parts.HasHost() {
		for _, d := range r.blocked {
			if domain.MatchesDomain(parts.Host, d) {
				return blockDomain(parts.Host), nil
			}
		}
	}

	// 5. Blocked patterns over the lower-cased URL.
	lower := strings.ToLower(rawURL)
	for _, cp := range r.blockRe {
		if cp.re.MatchString(lower) {
			return blockPattern(cp.source), nil
		}
	}

	// 6. Heuristics, only after every deterministic rule declined.
	// IP-literal hosts are skipped: entropy and script analysis are
	// meaningless for addresses.
	if r.policy.UseHeuristicCheck && parts.HasHost() && !parts.IsIP {
		labels := urlnorm.RegistrableLabels(parts.Host)
		if score, over := entropyExceeds(labels, r.policy.EntropyThreshold); over {
			return blockEntropy(parts.Host, score), nil
		}
		if !urlnorm.SuffixICANN(parts.Host) {
			return blockIllegalTLD(parts.Host), nil
		}
		if !urlnorm.HostSafe(parts.Host) {
			return blockUnicodeInsecure(parts.Host), nil
		}
	}

	// 7. Nothing matched.
	return domain.Allow(), nil
}

var _ Evaluator = (*Reference)(nil)
