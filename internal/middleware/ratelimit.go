package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AnshRaj112/karmnik-backend/pkg/clientip"
)

const (
	// RateLimitWindow is the counting window per IP.
	RateLimitWindow = 120 * time.Second
	// RateLimitMaxRequests is the number of writes allowed per window.
	RateLimitMaxRequests = 30
	// RateLimitKeyPrefix is the Redis key prefix for rate limiting
	RateLimitKeyPrefix = "ratelimit:feedings:"
)

// RedisRateLimit counts feedings writes per IP in Redis, shared by all instances.
// A nil client or a Redis error lets the request through.
func RedisRateLimit(client *redis.Client) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if client == nil || !isWrite(r) {
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), time.Second)
			defer cancel()

			key := RateLimitKeyPrefix + clientip.RealClientIP(r)
			pipe := client.TxPipeline()
			incr := pipe.Incr(ctx, key)
			pipe.ExpireNX(ctx, key, RateLimitWindow)
			if _, err := pipe.Exec(ctx); err != nil {
				// Fail open
				next.ServeHTTP(w, r)
				return
			}

			count := int(incr.Val())
			if count > RateLimitMaxRequests {
				w.Header().Set("Retry-After", strconv.Itoa(int(RateLimitWindow.Seconds())))
				writeTooMany(w, "Rate limit exceeded. Please try again later.")
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(RateLimitMaxRequests))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(RateLimitMaxRequests-count))
			next.ServeHTTP(w, r)
		})
	}
}
