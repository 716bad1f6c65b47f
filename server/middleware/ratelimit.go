package middleware

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/sadreammm/Helply/pkg/cerr"
	"github.com/sadreammm/Helply/pkg/clog"
)

// RateLimiter is a fixed window counter per client address
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    int
	interval time.Duration
	now      func() time.Time
}

type visitor struct {
	count       int
	windowStart time.Time
}

// NewRateLimiter allows limit requests per interval for each client. A limit
// of zero or less lets everything through.
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		interval: interval,
		now:      time.Now,
	}
}

// Limit is the middleware function
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !rl.allow(ip) {
			clog.AddAttribute(r.Context(), "client_ip", ip)
			cerr.WriteJSONError(r.Context(), w, cerr.NewError(cerr.ResourceExhausted, "too many requests", nil))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(ip string) bool {
	if rl.limit <= 0 {
		return true
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, ok := rl.visitors[ip]
	if !ok || now.Sub(v.windowStart) >= rl.interval {
		rl.visitors[ip] = &visitor{count: 1, windowStart: now}
		return true
	}
	if v.count >= rl.limit {
		return false
	}
	v.count++
	return true
}

// Run evicts idle visitors until ctx is done
func (rl *RateLimiter) Run(ctx context.Context) error {
	ticker := time.NewTicker(rl.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			rl.evict()
		}
	}
}

func (rl *RateLimiter) evict() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for ip, v := range rl.visitors {
		if now.Sub(v.windowStart) > rl.interval*2 {
			delete(rl.visitors, ip)
		}
	}
}

// clientIP uses the address chi's RealIP middleware leaves in RemoteAddr
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
