package api

import (
	"net"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookmate/bookmate-server/internal/ratelimit"
)

// NewAuthRateLimiter allows ratePerMinute login or register attempts per
// client IP, with the given burst.
func NewAuthRateLimiter(ratePerMinute, burst int) *ratelimit.Limiter {
	return ratelimit.New(float64(ratePerMinute)/60, burst)
}

// rateLimited is a huma operation middleware that rejects requests over the
// per-IP limit with 429.
func (s *Server) rateLimited(ctx huma.Context, next func(huma.Context)) {
	if s.authLimiter == nil {
		next(ctx)
		return
	}

	key := clientIP(ctx.RemoteAddr())
	if !s.authLimiter.Allow(key) {
		s.logger.Warn("Rate limit exceeded",
			"ip", key,
			"path", ctx.URL().Path,
		)
		_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, "Too many requests. Please try again later.")
		return
	}

	next(ctx)
}

// clientIP strips the port from a remote address. chi's RealIP middleware
// has already applied X-Forwarded-For and X-Real-IP.
func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
