package engine

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	bitsbloom "github.com/bits-and-blooms/bloom/v3"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/urlwarden/urlwarden/internal/rep/common/urlnorm"
	"github.com/urlwarden/urlwarden/internal/rep/domain"
)

// DefaultCacheSize is the decision cache capacity used when the caller does
// not specify one.
const DefaultCacheSize = 1024

// bloomFPRate is the target false-positive rate for the blocked-domain
// pre-filter. False positives only cost a set lookup; false negatives cannot
// occur, which is what keeps the engine equivalent to the reference.
const bloomFPRate = 0.01

// Accelerated is the performance-oriented evaluator. Domain sets become hash
// sets walked per label, a Bloom filter answers definite-negative blocklist
// probes without the walk, and a bounded LRU memoizes whole decisions per
// URL. Decisions are deterministic for a fixed policy, so the cache is
// invisible to callers.
type Accelerated struct {
	policy    domain.Policy
	whitelist map[string]struct{}
	blocked   map[string]struct{}
	bloom     *bitsbloom.BloomFilter
	allowRe   []*regexp.Regexp
	blockRe   []compiledPattern
	cache     *lru.Cache[string, domain.Decision]
}

// NewAccelerated builds the accelerated evaluator from a validated policy.
// cacheSize <= 0 selects DefaultCacheSize.
func NewAccelerated(p domain.Policy, cacheSize int) (*Accelerated, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}

	a := &Accelerated{
		policy:    p,
		whitelist: make(map[string]struct{}, len(p.WhitelistDomains)),
		blocked:   make(map[string]struct{}, len(p.BlockedDomains)),
	}
	for _, d := range canonicalDomains(p.WhitelistDomains) {
		a.whitelist[d] = struct{}{}
	}
	blocked := canonicalDomains(p.BlockedDomains)
	for _, d := range blocked {
		a.blocked[d] = struct{}{}
	}
	if n := len(blocked); n > 0 {
		a.bloom = bitsbloom.NewWithEstimates(uint(n), bloomFPRate)
		for _, d := range blocked {
			a.bloom.AddString(d)
		}
	}

	for _, pat := range p.AllowedPatterns {
		re, err := regexp.Compile("(?i)" + pat)
		if err != nil {
			return nil, fmt.Errorf("invalid allowed pattern %q: %w", pat, err)
		}
		a.allowRe = append(a.allowRe, re)
	}
	for _, pat := range p.BlockedPatterns {
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, fmt.Errorf("invalid blocked pattern %q: %w", pat, err)
		}
		a.blockRe = append(a.blockRe, compiledPattern{source: pat, re: re})
	}

	cache, err := lru.New[string, domain.Decision](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("decision cache: %w", err)
	}
	a.cache = cache
	return a, nil
}

// Evaluate returns the memoized decision when present, otherwise runs the
// rule chain and stores the result. Outcomes match the reference evaluator
// for every config/URL pair.
func (a *Accelerated) Evaluate(_ context.Context, rawURL string) (domain.Decision, error) {
	if dec, ok := a.cache.Get(rawURL); ok {
		return dec, nil
	}
	dec := a.evaluate(rawURL)
	a.cache.Add(rawURL, dec)
	return dec, nil
}

func (a *Accelerated) evaluate(rawURL string) domain.Decision {
	parts := urlnorm.Parse(rawURL)

	if parts.HasHost() && matchesAnchor(a.whitelist, parts.Host) {
		return domain.Allow()
	}

	for _, re := range a.allowRe {
		if re.MatchString(rawURL) {
			return domain.Allow()
		}
	}

	if a.policy.BlockNonSecureHTTP && parts.Scheme != "https" {
		return blockNonSecure(rawURL)
	}

	if parts.HasHost() && a.blockedMatch(parts.Host) {
		return blockDomain(parts.Host)
	}

	lower := strings.ToLower(rawURL)
	for _, cp := range a.blockRe {
		if cp.re.MatchString(lower) {
			return blockPattern(cp.source)
		}
	}

	if a.policy.UseHeuristicCheck && parts.HasHost() && !parts.IsIP {
		labels := urlnorm.RegistrableLabels(parts.Host)
		if score, over := entropyExceeds(labels, a.policy.EntropyThreshold); over {
			return blockEntropy(parts.Host, score)
		}
		if !urlnorm.SuffixICANN(parts.Host) {
			return blockIllegalTLD(parts.Host)
		}
		if !urlnorm.HostSafe(parts.Host) {
			return blockUnicodeInsecure(parts.Host)
		}
	}

	return domain.Allow()
}

// blockedMatch walks the host's suffix anchors from most specific to apex,
// consulting the Bloom filter before the set so definitively absent anchors
// cost a hash probe and nothing more.
func (a *Accelerated) blockedMatch(host string) bool {
	for anchor := host; anchor != ""; anchor = nextAnchor(anchor) {
		if a.bloom != nil && !a.bloom.TestString(anchor) {
			continue
		}
		if _, ok := a.blocked[anchor]; ok {
			return true
		}
	}
	return false
}

// matchesAnchor reports whether host or any of its suffix anchors is in set.
func matchesAnchor(set map[string]struct{}, host string) bool {
	for anchor := host; anchor != ""; anchor = nextAnchor(anchor) {
		if _, ok := set[anchor]; ok {
			return true
		}
	}
	return false
}

// nextAnchor strips the leading label, returning "" past the last one.
func nextAnchor(anchor string) string {
	if i := strings.IndexByte(anchor, '.'); i >= 0 {
		return anchor[i+1:]
	}
	return ""
}

var _ Evaluator = (*Accelerated)(nil)
