package middlewares

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-floor/utils"
	"golang.org/x/time/rate"
)

const visitorTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	limit    rate.Limit
	burst    int
	visitors map[string]*visitor
	mu       sync.Mutex
	lastGC   time.Time
}

// NewRateLimiter allows perMinute requests per IP with bursts of the same size.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &RateLimiter{
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		visitors: make(map[string]*visitor),
		lastGC:   time.Now(),
	}
}

func (rl *RateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastGC) > visitorTTL {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) > visitorTTL {
				delete(rl.visitors, k)
			}
		}
		rl.lastGC = now
	}

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.Allow()
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			utils.InfoLogger.WithField("ip", c.ClientIP()).Warn("rate limit exceeded")
			c.Header("Retry-After", "60")
			utils.RespondJSON(c, http.StatusTooManyRequests, "too many requests, please wait a moment", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
