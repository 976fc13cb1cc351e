package domain

// Stable violation codes. The deterministic rules share one code; heuristic
// blocks carry their own so downstream consumers can tune alerting separately.
const (
	CodeReputationBlock    = "URL_REPUTATION_BLOCK"
	CodeReputationHeuristic = "URL_REPUTATION_HEURISTIC"
)

// Stable violation reasons. These are part of the logging/audit contract and
// must not be reworded.
const (
	ReasonNonSecureHTTP   = "Blocked non secure http url"
	ReasonBlockedDomain   = "Blocked domain"
	ReasonBlockedPattern  = "Blocked pattern"
	ReasonHighEntropy     = "High entropy domain"
	ReasonIllegalTLD      = "Illegal TLD"
	ReasonUnicodeInsecure = "Domain unicode is not secure"
)

// Violation describes why a URL was refused.
//
// Details is a free-form string map; the "domain" and "pattern" keys are
// stable identifiers relied on by downstream log processing.
type Violation struct {
	Reason      string            `json:"reason"`
	Description string            `json:"description"`
	Code        string            `json:"code"`
	Details     map[string]string `json:"details,omitempty"`
}

// Decision is the per-URL verdict returned to the host framework.
// Pure value type, computed fresh per call, no state between calls.
//
// Invariant: Violation is non-nil iff ContinueProcessing is false, with one
// exception: the engine selector's fail-open path returns an allow with no
// violation after an accelerated-backend failure, even though no rule
// explicitly allowed the URL.
type Decision struct {
	ContinueProcessing bool       `json:"continue_processing"`
	Violation          *Violation `json:"violation,omitempty"`
}

// Allowed reports whether the fetch may proceed.
func (d Decision) Allowed() bool { return d.ContinueProcessing }

// Allow returns an allow decision with no violation.
func Allow() Decision { return Decision{ContinueProcessing: true} }

// Block returns a deny decision carrying the given violation.
func Block(v Violation) Decision {
	return Decision{ContinueProcessing: false, Violation: &v}
}
