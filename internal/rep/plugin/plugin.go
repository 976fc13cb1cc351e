// Package plugin exposes the resource pre-fetch hook the host framework
// invokes before fetching a URL. The host calls ResourcePreFetch exactly
// once per outbound fetch and aborts the fetch when the decision says stop,
// surfacing the violation to its own audit log.
package plugin

import (
	"context"

	"github.com/urlwarden/urlwarden/internal/rep/common/log"
	"github.com/urlwarden/urlwarden/internal/rep/domain"
	"github.com/urlwarden/urlwarden/internal/rep/engine"
)

// Name identifies this plugin to the host framework.
const Name = "url_reputation"

// URLReputation gates resource fetches on URL reputation. Construction
// validates the policy and selects an engine; after that the plugin is
// immutable and safe for unsynchronized concurrent calls.
type URLReputation struct {
	selector *engine.Selector
	logger   log.Logger
}

// New builds the plugin from a policy. Invalid configuration is returned as
// an error so the host never activates a misconfigured instance.
func New(p domain.Policy, opts engine.Options) (*URLReputation, error) {
	if opts.Logger == nil {
		opts.Logger = log.GetLogger()
	}
	sel, err := engine.NewSelector(p, opts)
	if err != nil {
		return nil, err
	}
	return &URLReputation{selector: sel, logger: opts.Logger}, nil
}

// Accelerated reports whether the accelerated engine backs this instance.
func (u *URLReputation) Accelerated() bool { return u.selector.Accelerated() }

// ResourcePreFetch decides whether the fetch of uri may proceed. The context
// is the host's per-request context; evaluation itself is synchronous and
// CPU-bound, so it is passed through but never awaited on.
func (u *URLReputation) ResourcePreFetch(ctx context.Context, uri string) domain.Decision {
	dec := u.selector.Evaluate(ctx, uri)
	if !dec.Allowed() && dec.Violation != nil {
		u.logger.Debug(map[string]any{
			"url":    uri,
			"reason": dec.Violation.Reason,
			"code":   dec.Violation.Code,
		}, "blocked resource fetch")
	}
	return dec
}
