package middleware

import (
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ashot-israelyan/ai-job-board/internal/model"
)

// RateLimiter limits requests per client using a token bucket per key.
// Authenticated requests are keyed by user ID, anonymous ones by client IP.
type RateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*client
	limit    rate.Limit
	burst    int
	interval time.Duration
	stopCh   chan struct{}
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a rate limiter allowing requests per interval
func NewRateLimiter(requests int, interval time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients:  make(map[string]*client),
		limit:    rate.Every(interval / time.Duration(requests)),
		burst:    requests,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// Middleware returns the rate limiting middleware
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rl.clientKey(r)

		limiter := rl.clientLimiter(key)
		allowed := limiter.Allow()
		remaining := int(limiter.Tokens())
		if remaining < 0 {
			remaining = 0
		}

		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", rl.burst))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if !allowed {
			retryAfter := int(rl.interval.Seconds()) / rl.burst
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
			model.NewRateLimitError(retryAfter).WriteJSON(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Stop terminates the cleanup goroutine
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

func (rl *RateLimiter) clientKey(r *http.Request) string {
	if ident := GetIdentity(r.Context()); ident != nil {
		return "user:" + ident.UserID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "ip:" + r.RemoteAddr
	}
	return "ip:" + host
}

func (rl *RateLimiter) clientLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, ok := rl.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = c
	}
	c.lastSeen = time.Now()
	return c.limiter
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-3 * rl.interval)
			rl.mu.Lock()
			for key, c := range rl.clients {
				if c.lastSeen.Before(cutoff) {
					delete(rl.clients, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}
