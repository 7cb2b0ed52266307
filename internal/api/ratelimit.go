package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/quadroapp/quadro-server/internal/ratelimit"
)

// authRatePaths are the credential endpoints the limiter guards.
var authRatePaths = map[string]bool{
	"/api/v1/auth/login":    true,
	"/api/v1/auth/register": true,
}

// authRateLimit throttles credential endpoints per client IP.
// RealIP runs earlier in the chain, so RemoteAddr already reflects
// X-Forwarded-For / X-Real-IP when a proxy set them; direct clients
// keep their own socket address as the key.
func authRateLimit(limiter *ratelimit.KeyedRateLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost && authRatePaths[r.URL.Path] {
				key := clientIP(r)
				if !limiter.Allow(key) {
					logger.Warn("auth rate limit exceeded", "ip", key, "path", r.URL.Path)
					writeErrorEnvelope(w, huma.Error429TooManyRequests("Too many attempts, slow down"), logger)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port from RemoteAddr.
func clientIP(r *http.Request) string {
	ip := r.RemoteAddr
	for i := len(ip) - 1; i >= 0; i-- {
		if ip[i] == ':' {
			return ip[:i]
		}
	}
	return ip
}
