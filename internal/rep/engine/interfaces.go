package engine

import (
	"context"

	"github.com/urlwarden/urlwarden/internal/rep/domain"
)

// Evaluator decides whether a fetch of rawURL may proceed. Implementations
// are immutable after construction and safe for concurrent use.
//
// The reference and accelerated implementations must agree on
// ContinueProcessing and, when blocking, on the violation Reason and Code for
// every config/URL pair; descriptions and details may differ in presentation
// only.
type Evaluator interface {
	Evaluate(ctx context.Context, rawURL string) (domain.Decision, error)
}
