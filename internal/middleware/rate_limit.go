package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	// DefaultRateLimit is the default rate limit per minute.
	DefaultRateLimit = 100
	// DefaultBurstSize is the default burst size.
	DefaultBurstSize = 10
	// CleanupInterval is the interval for cleaning up stale limiters.
	CleanupInterval = 5 * time.Minute
	// LimiterTTL is the time-to-live for inactive limiters.
	LimiterTTL = 10 * time.Minute

	// PrincipalHeader carries the opaque API principal identifying the
	// caller. This core treats it as a pass-through attribute: it is used
	// only to key the rate limiter, never for authorization decisions.
	PrincipalHeader = "X-Api-Principal"
)

// RateLimiter manages per-principal rate limiting. Keyed by an opaque
// string (the caller-supplied API principal) rather than a token entity,
// since this core has no concept of authenticated tokens.
type RateLimiter struct {
	limiters  map[string]*limiterEntry
	mu        sync.RWMutex
	rateLimit float64
	burstSize int
	stopCh    chan struct{}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a new RateLimiter with default settings.
func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithConfig(DefaultRateLimit, DefaultBurstSize)
}

// NewRateLimiterWithConfig creates a RateLimiter with custom configuration.
func NewRateLimiterWithConfig(requestsPerMinute int, burstSize int) *RateLimiter {
	rl := &RateLimiter{
		limiters:  make(map[string]*limiterEntry),
		rateLimit: float64(requestsPerMinute) / 60.0,
		burstSize: burstSize,
		stopCh:    make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

// Allow checks if a request from the given principal is allowed.
func (r *RateLimiter) Allow(principal string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.limiters[principal]
	if !exists {
		entry = &limiterEntry{
			limiter:  rate.NewLimiter(rate.Limit(r.rateLimit), r.burstSize),
			lastSeen: time.Now(),
		}
		r.limiters[principal] = entry
	} else {
		entry.lastSeen = time.Now()
	}

	return entry.limiter.Allow()
}

// GetState returns the current state for rate limit headers.
func (r *RateLimiter) GetState(principal string) (remaining int, resetTime time.Time) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.limiters[principal]
	if !exists {
		return r.burstSize, time.Now().Add(time.Minute)
	}

	tokens := int(entry.limiter.Tokens())
	if tokens < 0 {
		tokens = 0
	}

	resetDuration := time.Duration(float64(r.burstSize-tokens)/r.rateLimit) * time.Second
	return tokens, time.Now().Add(resetDuration)
}

// cleanup periodically removes stale limiters to prevent memory leaks.
func (r *RateLimiter) cleanup() {
	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.mu.Lock()
			now := time.Now()
			for principal, entry := range r.limiters {
				if now.Sub(entry.lastSeen) > LimiterTTL {
					delete(r.limiters, principal)
					log.Debug().Str("principal", principal).Msg("cleaned up stale rate limiter")
				}
			}
			r.mu.Unlock()
		case <-r.stopCh:
			return
		}
	}
}

// Stop stops the cleanup goroutine.
func (r *RateLimiter) Stop() {
	close(r.stopCh)
}

// principalFromRequest extracts the opaque principal used to key the rate
// limiter. Requests with no principal header share a single "anonymous"
// bucket rather than bypassing the limiter entirely.
func principalFromRequest(c echo.Context) string {
	if p := c.Request().Header.Get(PrincipalHeader); p != "" {
		return p
	}
	return "anonymous"
}

// RateLimitMiddleware returns an Echo middleware applying rate limiting to
// mutating requests only, in front of every endpoint that writes state.
func RateLimitMiddleware(rl *RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			switch c.Request().Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			default:
				return next(c)
			}

			principal := principalFromRequest(c)

			if !rl.Allow(principal) {
				_, resetTime := rl.GetState(principal)
				retryAfter := int(time.Until(resetTime).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}

				c.Response().Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", DefaultRateLimit))
				c.Response().Header().Set("X-RateLimit-Remaining", "0")
				c.Response().Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", resetTime.Unix()))
				c.Response().Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))

				log.Warn().
					Str("principal", principal).
					Int("retry_after", retryAfter).
					Msg("rate limit exceeded")

				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"type":    "rate_limit_exceeded",
					"code":    "rate_limit_exceeded",
					"message": fmt.Sprintf("too many requests, retry after %d seconds", retryAfter),
				})
			}

			remaining, resetTime := rl.GetState(principal)
			c.Response().Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", DefaultRateLimit))
			c.Response().Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
			c.Response().Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", resetTime.Unix()))

			return next(c)
		}
	}
}
