package api

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// rateLimiter decides whether a request may proceed. When it may not, the
// returned duration says how long the caller should wait.
type rateLimiter interface {
	Allow() (bool, time.Duration)
}

type tokenBucket struct {
	limiter *rate.Limiter
}

// newTokenBucketLimiter clamps non-positive settings to one request per second.
func newTokenBucketLimiter(ratePerSecond float64, burst int) rateLimiter {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &tokenBucket{limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst)}
}

func (b *tokenBucket) Allow() (bool, time.Duration) {
	if b == nil || b.limiter == nil {
		return true, 0
	}
	res := b.limiter.Reserve()
	if !res.OK() {
		return false, time.Second
	}
	delay := res.Delay()
	if delay == 0 {
		return true, 0
	}
	// Give the token back; the request is rejected rather than delayed.
	res.Cancel()
	return false, delay
}

// retryAfterSeconds renders a wait as whole seconds, never less than one.
func retryAfterSeconds(wait time.Duration) string {
	secs := int(math.Ceil(wait.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

func rateLimitMiddleware(limiter rateLimiter, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, wait := limiter.Allow()
		if ok {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Retry-After", retryAfterSeconds(wait))
		writeError(w, http.StatusTooManyRequests, "Too many requests", "rate limit exceeded, please retry shortly")
	})
}
