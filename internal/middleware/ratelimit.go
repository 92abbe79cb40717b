package middleware

import (
	"net/http"
	"strconv"
	"time"

	"payment-router/internal/common/logging"
	"payment-router/internal/redis"
)

// RateLimiter throttles routing requests per merchant over a sliding
// window. Requests without a merchant are keyed by remote address, so an
// anonymous client cannot exhaust another merchant's allowance.
type RateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	logger logging.Logger
}

func NewRateLimiter(client *redis.Client, limit int, window time.Duration, logger logging.Logger) *RateLimiter {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
		logger: logger,
	}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := "ratelimit:" + rl.subject(r)

		allowed, remaining, err := rl.client.CheckRateLimit(r.Context(), key, rl.limit, rl.window)
		if err != nil {
			// Redis trouble must not take routing down with it
			rl.logger.Warn("Rate limit check failed, allowing request", logging.Err(err))
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error": "rate limit exceeded"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) subject(r *http.Request) string {
	if merchant := r.Header.Get("X-Merchant-ID"); merchant != "" {
		return "merchant:" + merchant
	}
	return "addr:" + r.RemoteAddr
}
