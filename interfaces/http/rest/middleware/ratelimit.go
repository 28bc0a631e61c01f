package middleware

import (
	"net"
	"net/http"

	"consultorio-backend/pkg/common"
	"consultorio-backend/pkg/ratelimit"
)

// RateLimit creates a middleware throttling requests per client address
func RateLimit(limiter *ratelimit.TokenBucketLimiter) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}

			if !limiter.Allow(host) {
				common.RespondError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
