package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pharmos/backend/internal/interfaces/http/dto"
)

// RateLimiter counts requests per key in fixed windows. It shields the
// credential endpoints from brute force; account lockout is still the
// real backstop, so losing counts on restart is acceptable and the
// state lives in memory.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	length  time.Duration
}

type window struct {
	count   int
	startAt time.Time
}

func (w *window) expired(now time.Time, length time.Duration) bool {
	return now.Sub(w.startAt) >= length
}

// NewRateLimiter allows limit requests per key in each window
func NewRateLimiter(limit int, length time.Duration) *RateLimiter {
	rl := &RateLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		length:  length,
	}
	go rl.sweep()
	return rl
}

// sweep drops windows that have sat idle for two full lengths, keeping
// the map bounded by the set of recently active clients.
func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(2 * rl.length)
	defer ticker.Stop()

	for now := range ticker.C {
		rl.mu.Lock()
		for key, w := range rl.windows {
			if now.Sub(w.startAt) > 2*rl.length {
				delete(rl.windows, key)
			}
		}
		rl.mu.Unlock()
	}
}

// Allow records a request for the key and reports whether it fits in
// the current window.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w, ok := rl.windows[key]
	if !ok || w.expired(now, rl.length) {
		rl.windows[key] = &window{count: 1, startAt: now}
		return true
	}
	if w.count < rl.limit {
		w.count++
		return true
	}
	return false
}

// Remaining reports how many requests the key has left in its window
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	if !ok || w.expired(time.Now(), rl.length) {
		return rl.limit
	}
	if w.count > rl.limit {
		return 0
	}
	return rl.limit - w.count
}

// RateLimit throttles by client IP and reports the budget in the
// conventional X-RateLimit headers.
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()

		if !limiter.Allow(key) {
			c.Header("Retry-After", strconv.Itoa(int(limiter.length.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				dto.NewErrorResponse(dto.ErrCodeRateLimited, "Too many requests. Please try again later"))
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(limiter.Remaining(key)))
		c.Next()
	}
}
