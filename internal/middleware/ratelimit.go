package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/huangang/problempad/pkg/response"
	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL    = 5 * time.Minute
	limiterSweepEvery = time.Minute
)

// WritePolicy is the token bucket one client gets on one route.
type WritePolicy struct {
	RPS   float64
	Burst int
}

// clientBucket is a client's limiter on one route.
type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles report writes per client IP and route. Routes
// without their own policy share the default one.
type RateLimiter struct {
	mu        sync.Mutex
	def       WritePolicy
	routes    map[string]WritePolicy
	buckets   map[string]*clientBucket
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter creates a limiter whose default policy allows rps requests
// per second with the given burst.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		def:     WritePolicy{RPS: rps, Burst: burst},
		routes:  make(map[string]WritePolicy),
		buckets: make(map[string]*clientBucket),
		now:     time.Now,
	}
}

// Route sets a policy for one method and route pattern, e.g.
// Route(http.MethodPut, "/api/reports", ...). It returns rl for chaining.
func (rl *RateLimiter) Route(method, path string, p WritePolicy) *RateLimiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.routes[method+" "+path] = p
	return rl
}

func (rl *RateLimiter) bucket(route, ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) >= limiterSweepEvery {
		for key, b := range rl.buckets {
			if now.Sub(b.lastSeen) > limiterIdleTTL {
				delete(rl.buckets, key)
			}
		}
		rl.lastSweep = now
	}

	p, ok := rl.routes[route]
	if !ok {
		p = rl.def
		route = ""
	}

	key := route + "|" + ip
	b, ok := rl.buckets[key]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(rate.Limit(p.RPS), p.Burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter
}

// Middleware rejects requests over the client's budget with 429 and a
// Retry-After hint.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.Request.Method + " " + c.FullPath()
		limiter := rl.bucket(route, c.ClientIP())

		if !limiter.Allow() {
			if limit := limiter.Limit(); limit > 0 {
				wait := int(math.Ceil(1 / float64(limit)))
				c.Header("Retry-After", strconv.Itoa(wait))
			}
			response.Error(c, &response.AppError{
				HTTPStatus: http.StatusTooManyRequests,
				Code:       http.StatusTooManyRequests,
				Message:    "too many report writes, please try again later",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// Len returns the number of live client buckets.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}
