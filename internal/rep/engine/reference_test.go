package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urlwarden/urlwarden/internal/rep/domain"
)

func mustReference(t *testing.T, p domain.Policy) *Reference {
	t.Helper()
	ref, err := NewReference(p)
	require.NoError(t, err)
	return ref
}

func evalRef(t *testing.T, ref *Reference, url string) domain.Decision {
	t.Helper()
	dec, err := ref.Evaluate(context.Background(), url)
	require.NoError(t, err)
	return dec
}

func TestReference_WhitelistBypassesEverything(t *testing.T) {
	ref := mustReference(t, domain.Policy{
		WhitelistDomains:   []string{"trusted.example"},
		BlockedDomains:     []string{"trusted.example"},
		BlockedPatterns:    []string{".*trusted.*"},
		UseHeuristicCheck:  true,
		EntropyThreshold:   0,
		BlockNonSecureHTTP: true,
	})

	// Whitelisted host wins over blocklist, patterns, scheme, and heuristics.
	assert.True(t, evalRef(t, ref, "http://trusted.example/x").Allowed())
	assert.True(t, evalRef(t, ref, "https://api.trusted.example/v1").Allowed())
	assert.True(t, evalRef(t, ref, "https://a.b.trusted.example").Allowed())
}

func TestReference_WhitelistCaseInsensitive(t *testing.T) {
	ref := mustReference(t, domain.Policy{
		WhitelistDomains: []string{"Example.COM"},
	})
	assert.True(t, evalRef(t, ref, "https://example.com/path").Allowed())
	assert.True(t, evalRef(t, ref, "https://EXAMPLE.com/path").Allowed())
}

func TestReference_WhitelistDecodedBothSides(t *testing.T) {
	ref := mustReference(t, domain.Policy{
		WhitelistDomains:   []string{"bücher.com"},
		BlockNonSecureHTTP: true,
	})
	// Request arrives in punycode; the whitelist entry is unicode.
	assert.True(t, evalRef(t, ref, "http://xn--bcher-kva.com/shop").Allowed())
}

func TestReference_HomographNotWhitelisted(t *testing.T) {
	ref := mustReference(t, domain.Policy{
		WhitelistDomains:  []string{"paypal.com"},
		UseHeuristicCheck: true,
		EntropyThreshold:  5.0,
	})

	// The genuine domain passes heuristics via the whitelist.
	assert.True(t, evalRef(t, ref, "https://paypal.com/login").Allowed())

	// The Cyrillic-а lookalike is not an exact/subdomain whitelist match
	// and fails the host-safety heuristic instead.
	dec := evalRef(t, ref, "https://pаypal.com/login")
	require.False(t, dec.Allowed())
	require.NotNil(t, dec.Violation)
	assert.Equal(t, domain.ReasonUnicodeInsecure, dec.Violation.Reason)
	assert.Equal(t, domain.CodeReputationHeuristic, dec.Violation.Code)
}

func TestReference_AllowedPatternBeatsBlocking(t *testing.T) {
	ref := mustReference(t, domain.Policy{
		AllowedPatterns:    []string{`safe\.com/allowed`},
		BlockedDomains:     []string{"safe.com"},
		BlockedPatterns:    []string{".*allowed.*"},
		BlockNonSecureHTTP: true,
	})

	assert.True(t, evalRef(t, ref, "https://safe.com/allowed").Allowed())
	// Case-insensitive over the raw URL.
	assert.True(t, evalRef(t, ref, "https://SAFE.com/Allowed").Allowed())
	// Allowed pattern also bypasses the scheme rule.
	assert.True(t, evalRef(t, ref, "http://safe.com/allowed").Allowed())

	// The same host without the allowed path is still blocked.
	dec := evalRef(t, ref, "https://safe.com/other")
	require.False(t, dec.Allowed())
	assert.Equal(t, domain.ReasonBlockedDomain, dec.Violation.Reason)
}

func TestReference_SchemePolicy(t *testing.T) {
	ref := mustReference(t, domain.Policy{BlockNonSecureHTTP: true})

	dec := evalRef(t, ref, "http://safe.com")
	require.False(t, dec.Allowed())
	require.NotNil(t, dec.Violation)
	assert.Equal(t, domain.ReasonNonSecureHTTP, dec.Violation.Reason)
	assert.Equal(t, domain.CodeReputationBlock, dec.Violation.Code)
	assert.Equal(t, "http://safe.com", dec.Violation.Details["url"])

	assert.True(t, evalRef(t, ref, "https://safe.com").Allowed())

	// Non-http schemes and absent schemes are equally non-secure.
	assert.False(t, evalRef(t, ref, "ftp://safe.com/file").Allowed())
	assert.False(t, evalRef(t, ref, "mailto:user@example.com").Allowed())
	assert.False(t, evalRef(t, ref, "notaurl").Allowed())
}

func TestReference_SchemePolicyDisabled(t *testing.T) {
	ref := mustReference(t, domain.Policy{BlockNonSecureHTTP: false})
	assert.True(t, evalRef(t, ref, "http://safe.com").Allowed())
	// Unparseable input matches no rule at all.
	assert.True(t, evalRef(t, ref, "notaurl").Allowed())
}

func TestReference_BlockedDomain(t *testing.T) {
	ref := mustReference(t, domain.Policy{
		BlockedDomains: []string{"bad.example"},
	})

	dec := evalRef(t, ref, "https://api.bad.example/v1")
	require.False(t, dec.Allowed())
	require.NotNil(t, dec.Violation)
	assert.Equal(t, domain.ReasonBlockedDomain, dec.Violation.Reason)
	assert.Equal(t, domain.CodeReputationBlock, dec.Violation.Code)
	assert.Equal(t, "api.bad.example", dec.Violation.Details["domain"])

	assert.False(t, evalRef(t, ref, "https://bad.example").Allowed())
	assert.True(t, evalRef(t, ref, "https://notbad.example").Allowed())
	assert.True(t, evalRef(t, ref, "https://bad.example.org").Allowed())
}

func TestReference_BlockedPattern(t *testing.T) {
	ref := mustReference(t, domain.Policy{
		BlockedPatterns: []string{".*admin.*", ".*login.*"},
	})

	dec := evalRef(t, ref, "https://example.com/admin/dashboard")
	require.False(t, dec.Allowed())
	require.NotNil(t, dec.Violation)
	assert.Equal(t, domain.ReasonBlockedPattern, dec.Violation.Reason)
	assert.Equal(t, ".*admin.*", dec.Violation.Details["pattern"])

	// Patterns run against the lower-cased URL.
	assert.False(t, evalRef(t, ref, "https://example.com/LOGIN").Allowed())
	assert.True(t, evalRef(t, ref, "https://example.com/home").Allowed())
}

func TestReference_EntropyHeuristic(t *testing.T) {
	ref := mustReference(t, domain.Policy{
		UseHeuristicCheck: true,
		EntropyThreshold:  2.5,
	})

	dec := evalRef(t, ref, "https://ajsd9a8sd7a98sda7sd9.com")
	require.False(t, dec.Allowed())
	require.NotNil(t, dec.Violation)
	assert.Equal(t, domain.ReasonHighEntropy, dec.Violation.Reason)
	assert.Equal(t, domain.CodeReputationHeuristic, dec.Violation.Code)
	assert.Equal(t, "ajsd9a8sd7a98sda7sd9.com", dec.Violation.Details["domain"])
	assert.NotEmpty(t, dec.Violation.Details["entropy"])
}

func TestReference_EntropyDefaultThreshold(t *testing.T) {
	ref := mustReference(t, domain.Policy{
		UseHeuristicCheck: true,
		EntropyThreshold:  domain.DefaultEntropyThreshold,
	})

	// Thirteen distinct characters: log2(13) ≈ 3.70 exceeds 3.65.
	assert.False(t, evalRef(t, ref, "https://axb12c34d56ef.com").Allowed())
	// Dictionary-looking labels stay under the default cutoff.
	assert.True(t, evalRef(t, ref, "https://rust-lang.org").Allowed())
	// Short labels are never scored.
	assert.True(t, evalRef(t, ref, "https://abc.com").Allowed())
}

func TestReference_HeuristicOnlyWhenEnabled(t *testing.T) {
	ref := mustReference(t, domain.Policy{
		UseHeuristicCheck: false,
		EntropyThreshold:  0,
	})
	assert.True(t, evalRef(t, ref, "https://ajsd9a8sd7a98sda7sd9.com").Allowed())
}

func TestReference_IllegalTLD(t *testing.T) {
	ref := mustReference(t, domain.Policy{
		UseHeuristicCheck: true,
		EntropyThreshold:  5.65,
	})

	dec := evalRef(t, ref, "https://test.daks/test")
	require.False(t, dec.Allowed())
	require.NotNil(t, dec.Violation)
	assert.Equal(t, domain.ReasonIllegalTLD, dec.Violation.Reason)
}

func TestReference_IPHostsSkipHeuristics(t *testing.T) {
	ref := mustReference(t, domain.Policy{
		UseHeuristicCheck: true,
		EntropyThreshold:  5.0,
	})

	assert.True(t, evalRef(t, ref, "https://192.168.0.1:442").Allowed())
	assert.True(t, evalRef(t, ref, "https://[2001:db8::1]:442/").Allowed())

	// A malformed IPv4 is not an address, so heuristics apply and its
	// numeric "TLD" fails the delegation check.
	dec := evalRef(t, ref, "https://332.168.0.1:442")
	require.False(t, dec.Allowed())
	assert.Equal(t, domain.ReasonIllegalTLD, dec.Violation.Reason)
}

func TestReference_UnicodeSecurity(t *testing.T) {
	ref := mustReference(t, domain.Policy{
		UseHeuristicCheck: true,
		EntropyThreshold:  5.0,
	})

	for _, url := range []string{
		"https://my..com",
		"https://exa!mple.com",
	} {
		dec := evalRef(t, ref, url)
		require.False(t, dec.Allowed(), "expected %s blocked", url)
		assert.Equal(t, domain.ReasonUnicodeInsecure, dec.Violation.Reason)
	}

	assert.True(t, evalRef(t, ref, "https://domain.com").Allowed())
}

func TestReference_Idempotent(t *testing.T) {
	ref := mustReference(t, domain.Policy{
		BlockedDomains:     []string{"bad.example"},
		BlockNonSecureHTTP: true,
	})

	first := evalRef(t, ref, "https://bad.example/x")
	second := evalRef(t, ref, "https://bad.example/x")
	assert.Equal(t, first, second)
}

func TestNewReference_InvalidPolicy(t *testing.T) {
	_, err := NewReference(domain.Policy{EntropyThreshold: -1})
	assert.Error(t, err)

	_, err = NewReference(domain.Policy{BlockedPatterns: []string{"[bad"}})
	assert.Error(t, err)
}
