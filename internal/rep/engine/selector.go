package engine

import (
	"context"
	"fmt"

	"github.com/urlwarden/urlwarden/internal/rep/common/log"
	"github.com/urlwarden/urlwarden/internal/rep/domain"
)

// Mode controls which evaluator a Selector uses.
type Mode string

const (
	// ModeAuto probes the accelerated engine and falls back to the
	// reference evaluator when it cannot be constructed.
	ModeAuto Mode = "auto"
	// ModeReference forces the reference evaluator.
	ModeReference Mode = "reference"
	// ModeAccelerated requires the accelerated engine; construction fails
	// if it is unavailable.
	ModeAccelerated Mode = "accelerated"
)

// Options configures a Selector.
type Options struct {
	Mode      Mode       // defaults to ModeAuto
	CacheSize int        // accelerated decision cache capacity, 0 = default
	Logger    log.Logger // defaults to the global logger
}

// Selector owns the evaluator choice. The choice is made once at
// construction and is an explicit field, never process-wide state, so tests
// can build reference-only and accelerated selectors side by side.
//
// Fail-open: when a call into the chosen engine returns an error or panics,
// the failure is logged at warning level and that single call answers
// allow with no violation. Availability of the fetch path is deliberately
// prioritized over blocking on internal malfunction, which weakens the
// security guarantee for exactly those calls. The selection itself is left
// unchanged for subsequent calls.
type Selector struct {
	engine      Evaluator
	accelerated bool
	logger      log.Logger
}

// NewSelector builds a Selector for the given policy.
func NewSelector(p domain.Policy, opts Options) (*Selector, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.GetLogger()
	}
	mode := opts.Mode
	if mode == "" {
		mode = ModeAuto
	}

	s := &Selector{logger: logger}
	switch mode {
	case ModeReference:
		ref, err := NewReference(p)
		if err != nil {
			return nil, err
		}
		s.engine = ref
	case ModeAccelerated:
		acc, err := NewAccelerated(p, opts.CacheSize)
		if err != nil {
			return nil, err
		}
		s.engine = acc
		s.accelerated = true
	case ModeAuto:
		acc, err := NewAccelerated(p, opts.CacheSize)
		if err == nil {
			s.engine = acc
			s.accelerated = true
			break
		}
		logger.Warn(map[string]any{"error": err.Error()}, "accelerated engine unavailable, using reference evaluator")
		ref, rerr := NewReference(p)
		if rerr != nil {
			return nil, rerr
		}
		s.engine = ref
	default:
		return nil, fmt.Errorf("unsupported engine mode: %q", mode)
	}
	return s, nil
}

// Accelerated reports whether the accelerated engine was selected.
func (s *Selector) Accelerated() bool { return s.accelerated }

// Evaluate answers the decision for rawURL, recovering any engine failure
// into a fail-open allow for this call only.
func (s *Selector) Evaluate(ctx context.Context, rawURL string) (dec domain.Decision) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn(map[string]any{"url": rawURL, "panic": fmt.Sprint(r)}, "engine panicked, failing open")
			dec = domain.Allow()
		}
	}()

	d, err := s.engine.Evaluate(ctx, rawURL)
	if err != nil {
		s.logger.Warn(map[string]any{"url": rawURL, "error": err.Error()}, "engine failed, failing open")
		return domain.Allow()
	}
	return d
}
