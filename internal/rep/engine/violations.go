package engine

import (
	"fmt"
	"strconv"

	"github.com/urlwarden/urlwarden/internal/rep/domain"
)

// Violation constructors shared by both evaluators so that blocking outcomes
// stay textually identical across engines, not just equivalent in reason/code.

func blockNonSecure(rawURL string) domain.Decision {
	return domain.Block(domain.Violation{
		Reason:      domain.ReasonNonSecureHTTP,
		Description: fmt.Sprintf("URL %s is blocked", rawURL),
		Code:        domain.CodeReputationBlock,
		Details:     map[string]string{"url": rawURL},
	})
}

func blockDomain(host string) domain.Decision {
	return domain.Block(domain.Violation{
		Reason:      domain.ReasonBlockedDomain,
		Description: fmt.Sprintf("Domain %s is blocked", host),
		Code:        domain.CodeReputationBlock,
		Details:     map[string]string{"domain": host},
	})
}

func blockPattern(pattern string) domain.Decision {
	return domain.Block(domain.Violation{
		Reason:      domain.ReasonBlockedPattern,
		Description: fmt.Sprintf("URL matches blocked pattern: %s", pattern),
		Code:        domain.CodeReputationBlock,
		Details:     map[string]string{"pattern": pattern},
	})
}

func blockEntropy(host string, score float64) domain.Decision {
	return domain.Block(domain.Violation{
		Reason:      domain.ReasonHighEntropy,
		Description: fmt.Sprintf("Domain exceeds entropy threshold: %s", host),
		Code:        domain.CodeReputationHeuristic,
		Details: map[string]string{
			"domain":  host,
			"entropy": strconv.FormatFloat(score, 'f', 2, 64),
		},
	})
}

func blockIllegalTLD(host string) domain.Decision {
	return domain.Block(domain.Violation{
		Reason:      domain.ReasonIllegalTLD,
		Description: fmt.Sprintf("Domain TLD not legal: %s", host),
		Code:        domain.CodeReputationHeuristic,
		Details:     map[string]string{"domain": host},
	})
}

func blockUnicodeInsecure(host string) domain.Decision {
	return domain.Block(domain.Violation{
		Reason:      domain.ReasonUnicodeInsecure,
		Description: fmt.Sprintf("Domain unicode is not secure for domain: %s", host),
		Code:        domain.CodeReputationHeuristic,
		Details:     map[string]string{"domain": host},
	})
}
