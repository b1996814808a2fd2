// Package capability provides the invocation adapter wrapping capabilities
// with a timeout and a bounded retry policy.
package capability

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/contentlabs/sift/internal/models"
)

// RetryPolicy bounds how invocation failures are retried. The policy is a
// plain value so it can be tested independently of any capability.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// Retryable reports whether a failed attempt may be tried again.
	Retryable func(error) bool
}

// DefaultRetryPolicy retries exactly once, and only for failures where a
// second attempt can plausibly succeed. A malformed response is a shape
// mismatch and is never retried.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 2,
		Retryable: func(err error) bool {
			var inv *models.InvocationError
			if !errors.As(err, &inv) {
				return false
			}
			return inv.Kind == models.InvocationTimeout || inv.Kind == models.InvocationUnavailable
		},
	}
}

// Adapter wraps a capability with a hard per-attempt timeout and a bounded
// retry policy. It performs no caching and does not log call content.
type Adapter struct {
	cap     Capability
	timeout time.Duration
	policy  RetryPolicy
}

// NewAdapter creates an adapter around the given capability.
func NewAdapter(c Capability, timeout time.Duration, policy RetryPolicy) *Adapter {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Adapter{cap: c, timeout: timeout, policy: policy}
}

// Name returns the wrapped capability's name.
func (a *Adapter) Name() string {
	return a.cap.Name()
}

// Kind returns the wrapped capability's content kind.
func (a *Adapter) Kind() models.ContentKind {
	return a.cap.Kind()
}

// Invoke calls the capability, retrying per the policy. Exceeding the
// per-attempt timeout always yields a timeout failure, never an indefinite
// wait. Cancellation of the caller's context aborts immediately.
func (a *Adapter) Invoke(ctx context.Context, in Input) (*RawOutput, error) {
	var lastErr error

	for attempt := 1; attempt <= a.policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, classify(err)
		}

		attemptCtx, cancel := context.WithTimeout(ctx, a.timeout)
		raw, err := a.cap.Invoke(attemptCtx, in)
		cancel()

		if err == nil {
			return raw, nil
		}
		lastErr = classify(err)

		// The caller is gone; a retry would serve nobody.
		if ctx.Err() != nil {
			return nil, lastErr
		}

		if attempt == a.policy.MaxAttempts || !a.policy.Retryable(lastErr) {
			break
		}

		log.Debug().
			Str("capability", a.cap.Name()).
			Int("attempt", attempt).
			Err(lastErr).
			Msg("Capability call failed, retrying")
	}

	return nil, lastErr
}

// classify maps failures the capability did not already classify onto the
// invocation taxonomy.
func classify(err error) error {
	var inv *models.InvocationError
	if errors.As(err, &inv) {
		return inv
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return models.NewTimeout(err)
	}
	return models.NewUnavailable(err)
}
