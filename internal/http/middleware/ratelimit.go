package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/tbourn/go-commerce-backend/internal/envelope"
)

// CodeRateLimited is the envelope code for throttled requests.
const CodeRateLimited = "RATE_LIMITED"

// KeyFunc derives the bucket a request is counted against.
type KeyFunc func(*gin.Context) string

// KeyByClientIP buckets requests per client address.
func KeyByClientIP(c *gin.Context) string { return "ip:" + c.ClientIP() }

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-key token bucket limiter. Idle buckets are evicted
// lazily every sweepEvery lookups.
type RateLimiter struct {
	limit rate.Limit
	burst int
	key   KeyFunc

	mu         sync.Mutex
	buckets    map[string]*bucket
	idleTTL    time.Duration
	lookups    int
	sweepEvery int
	now        func() time.Time
}

// NewRateLimiter allows rps requests per second per key with the given
// burst. A nil key function buckets by client IP. rps <= 0 disables
// limiting.
func NewRateLimiter(rps float64, burst int, key KeyFunc) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	if key == nil {
		key = KeyByClientIP
	}
	return &RateLimiter{
		limit:      rate.Limit(rps),
		burst:      burst,
		key:        key,
		buckets:    make(map[string]*bucket),
		idleTTL:    10 * time.Minute,
		sweepEvery: 4096,
		now:        time.Now,
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.lookups++
	if rl.lookups >= rl.sweepEvery {
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) >= rl.idleTTL {
				delete(rl.buckets, k)
			}
		}
		rl.lookups = 0
	}

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter
}

// Handler rejects requests over budget with 429 and a RATE_LIMITED
// envelope.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.limit <= 0 {
			c.Next()
			return
		}
		lim := rl.limiter(rl.key(c))
		if lim.Allow() {
			c.Next()
			return
		}
		retry := time.Duration(float64(time.Second) / float64(rl.limit))
		secs := int(retry.Seconds())
		if secs < 1 {
			secs = 1
		}
		c.Header("Retry-After", strconv.Itoa(secs))
		c.AbortWithStatusJSON(http.StatusTooManyRequests,
			envelope.Failure(CodeRateLimited, "Too many requests, please retry later", nil))
	}
}
