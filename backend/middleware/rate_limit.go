package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SergeyShakirov/TaskGo/backend/model"
	"github.com/SergeyShakirov/TaskGo/backend/pkg/logger"
)

const rateLimitMessage = "Too many requests from this IP, please try again later."

type window struct {
	count int
	reset time.Time
}

// RateLimiter counts requests per client in fixed windows. Each client's
// window starts with its first request.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*window
	rate    int
	window  time.Duration
	now     func() time.Time
	sweepAt time.Time
}

// NewRateLimiter allows rate requests per client in each window of length win.
func NewRateLimiter(rate int, win time.Duration) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*window),
		rate:    rate,
		window:  win,
		now:     time.Now,
	}
}

// Allow records one request for key and reports whether it is within the
// limit, how many remain, and when the window resets.
func (l *RateLimiter) Allow(key string) (bool, int, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	w, ok := l.clients[key]
	if !ok || !now.Before(w.reset) {
		w = &window{reset: now.Add(l.window)}
		l.clients[key] = w
	}
	if w.count >= l.rate {
		return false, 0, w.reset
	}
	w.count++
	return true, l.rate - w.count, w.reset
}

// sweep drops expired windows at most once per window length.
// Must be called with lock held
func (l *RateLimiter) sweep(now time.Time) {
	if now.Before(l.sweepAt) {
		return
	}
	for k, w := range l.clients {
		if !now.Before(w.reset) {
			delete(l.clients, k)
		}
	}
	l.sweepAt = now.Add(l.window)
}

// RateLimit rejects clients over the limit with a 429 envelope.
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		ok, remaining, reset := limiter.Allow(clientIP)

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.rate))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

		if !ok {
			retry := int(reset.Sub(limiter.now()).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(max(retry, 1)))

			logger.Warn(c.Request.Context(), "rate limit exceeded", "client_ip", clientIP)

			c.AbortWithStatusJSON(http.StatusTooManyRequests, model.Response{
				Success: false,
				Message: rateLimitMessage,
			})
			return
		}

		c.Next()
	}
}
