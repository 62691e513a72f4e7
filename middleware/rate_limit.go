package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/cppla/board/utils"
)

const (
	limiterIdleTTL = 5 * time.Minute
	sweepInterval  = time.Minute
)

type rateLimiter struct {
	limiter *rate.Limiter
	expires time.Time
}

// ipLimiters holds one token bucket per client IP.
type ipLimiters struct {
	mu        sync.Mutex
	buckets   map[string]*rateLimiter
	limit     rate.Limit
	burst     int
	lastSweep time.Time
}

// RateLimitMiddleware applies a per-IP token bucket allowing perMinute requests per minute.
// Each call builds an independent set of buckets.
func RateLimitMiddleware(perMinute int) gin.HandlerFunc {
	perMinute = max(perMinute, 1)
	l := &ipLimiters{
		buckets:   map[string]*rateLimiter{},
		limit:     rate.Every(time.Minute / time.Duration(perMinute)),
		burst:     max(perMinute/2, 1),
		lastSweep: time.Now(),
	}

	return func(ctx *gin.Context) {
		if !l.allow(ctx.ClientIP()) {
			utils.AbortError(ctx, http.StatusTooManyRequests, 42901, "rate limit exceeded")
			return
		}
		ctx.Next()
	}
}

func (l *ipLimiters) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastSweep) >= sweepInterval {
		l.sweep(now)
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &rateLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.expires = now.Add(limiterIdleTTL)
	return b.limiter.Allow()
}

// sweep drops buckets idle for longer than limiterIdleTTL. Callers hold l.mu.
func (l *ipLimiters) sweep(now time.Time) {
	for k, b := range l.buckets {
		if now.After(b.expires) {
			delete(l.buckets, k)
		}
	}
	l.lastSweep = now
}
