package delivery

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"cloudronwatch/internal/services"
)

// RateLimited spaces deliveries so at most perMinute messages leave per minute,
// allowing a burst of one.
type RateLimited struct {
	next    Deliverer
	limiter *rate.Limiter
}

// NewRateLimited wraps next with a limiter.
func NewRateLimited(next Deliverer, perMinute int) *RateLimited {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}
}

// Deliver waits for a token, then delegates.
func (r *RateLimited) Deliver(ctx context.Context, msg Message) Result {
	if err := r.limiter.Wait(ctx); err != nil {
		return Result{Err: services.Wrap(services.ErrDelivery, "delivery", "rate limit", "wait cancelled", err)}
	}
	return r.next.Deliver(ctx, msg)
}
