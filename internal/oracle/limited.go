package oracle

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/zero-day-ai/forensiq/internal/types"
)

// RateLimited throttles calls to an Oracle. Callers wait for a token before
// each completion; the wait honours the caller's deadline.
type RateLimited struct {
	next    Oracle
	limiter *rate.Limiter
}

// NewRateLimited wraps next with a limiter allowing perSecond calls and
// bursts of burst. A non-positive perSecond returns next unchanged.
func NewRateLimited(next Oracle, perSecond float64, burst int) Oracle {
	if perSecond <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Complete waits for a token, then delegates.
func (r *RateLimited) Complete(ctx context.Context, prompt string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", types.WrapError(types.ORACLE_TIMEOUT, "rate limiter wait aborted", err)
	}
	return r.next.Complete(ctx, prompt)
}
