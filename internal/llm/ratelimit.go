package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimited delays calls to stay under a requests-per-second budget.
type RateLimited struct {
	next    Completer
	limiter *rate.Limiter
}

// NewRateLimited wraps next with its own limiter. A non-positive
// perSecond disables limiting.
func NewRateLimited(next Completer, perSecond float64, burst int) Completer {
	return WithLimiter(next, NewLimiter(perSecond, burst))
}

// NewLimiter returns a token bucket that can be shared by several
// completers. It returns nil when perSecond is non-positive.
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// WithLimiter wraps next with limiter. A nil limiter returns next unchanged.
func WithLimiter(next Completer, limiter *rate.Limiter) Completer {
	if limiter == nil {
		return next
	}
	return &RateLimited{next: next, limiter: limiter}
}

// Complete waits for a token, then delegates.
func (r *RateLimited) Complete(ctx context.Context, system, user string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}
	return r.next.Complete(ctx, system, user)
}
