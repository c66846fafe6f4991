package middleware

import (
	"log"
	"strconv"
	"time"

	"procurement_flow_go/services"
	"procurement_flow_go/services/ratelimit"

	"github.com/labstack/echo/v4"
)

// RateLimitConfig defines the configuration for rate limiting
type RateLimitConfig struct {
	// Limiter holds the counters; memory for one process, Redis when shared
	Limiter ratelimit.Limiter
	// Requests is the maximum number of requests allowed within the window
	Requests int
	// Window is the time window for rate limiting
	Window time.Duration
	// KeyFunc returns the identity part of the key (defaults to user id, then IP)
	KeyFunc func(c echo.Context) string
}

// identityKey prefers the authenticated user and falls back to the client IP
func identityKey(c echo.Context) string {
	if user := GetCurrentUser(c); user != nil {
		return "user:" + user.ID
	}
	return "ip:" + c.RealIP()
}

// RateLimit returns middleware that admits at most Requests per Window for each
// identity and route. Counter store failures let the request through.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = identityKey
	}
	if cfg.Limiter == nil {
		cfg.Limiter = ratelimit.NewMemoryLimiter()
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := cfg.KeyFunc(c) + "|" + c.Request().Method + " " + c.Path()

			res, err := cfg.Limiter.Allow(c.Request().Context(), key, cfg.Requests, cfg.Window)
			if err != nil {
				log.Printf("[RATELIMIT] Counter unavailable for %s, allowing request: %v", key, err)
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Requests))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			if !res.OK {
				h.Set("Retry-After", strconv.Itoa(res.RetryAfterSeconds))
				log.Printf("[RATELIMIT] Limit reached for %s", key)
				return &services.RateLimitedError{RetryAfterSeconds: res.RetryAfterSeconds}
			}
			return next(c)
		}
	}
}

// LoginRateLimit limits login attempts to 5 per minute per IP
func LoginRateLimit(limiter ratelimit.Limiter) echo.MiddlewareFunc {
	return RateLimit(RateLimitConfig{
		Limiter:  limiter,
		Requests: 5,
		Window:   time.Minute,
		KeyFunc: func(c echo.Context) string {
			return "login:" + c.RealIP()
		},
	})
}
