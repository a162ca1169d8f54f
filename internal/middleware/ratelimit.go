package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"podfetch/internal/apperr"
)

// limiterIdleTTL is how long a username's bucket survives without requests.
const limiterIdleTTL = 30 * time.Minute

// RateLimiterMiddleware holds one token bucket per username. Idle buckets
// are evicted.
type RateLimiterMiddleware struct {
	limiters *cache.Cache
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
	logger   zerolog.Logger
}

func NewRateLimiterMiddleware(r rate.Limit, b int, logger zerolog.Logger) *RateLimiterMiddleware {
	return newRateLimiter(r, b, limiterIdleTTL, logger)
}

func newRateLimiter(r rate.Limit, b int, idle time.Duration, logger zerolog.Logger) *RateLimiterMiddleware {
	return &RateLimiterMiddleware{
		limiters: cache.New(idle, idle),
		rate:     r,
		burst:    b,
		logger:   logger,
	}
}

func (rl *RateLimiterMiddleware) limiter(username string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	var limiter *rate.Limiter
	if cached, ok := rl.limiters.Get(username); ok {
		limiter = cached.(*rate.Limiter)
	} else {
		limiter = rate.NewLimiter(rl.rate, rl.burst)
	}
	// Refresh the idle deadline on every request.
	rl.limiters.SetDefault(username, limiter)
	return limiter
}

// Middleware must run after the authenticator.
func (rl *RateLimiterMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			apperr.Write(w, rl.logger, apperr.Unauthorized())
			return
		}

		if !rl.limiter(user.Username).Allow() {
			rl.logger.Warn().Str("username", user.Username).Str("path", r.URL.Path).Msg("rate limit exceeded")
			apperr.Write(w, rl.logger, apperr.New("Too Many Requests", "").WithCode(http.StatusTooManyRequests))
			return
		}
		next.ServeHTTP(w, r)
	})
}
