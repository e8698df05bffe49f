/*
# Module: handlers/ratelimit.go
Per-client-IP token bucket limiting for the API routes.

## Linked Modules
- [handlers/router](./router.go) - Applies the limiter to /api

## Tags
http, middleware, rate-limiting

## Exports
RateLimiter, NewRateLimiter

<!-- LinkedDoc RDF -->
@prefix code: <https://schema.codedoc.org/> .
<this> a code:Module ;
    code:name "handlers/ratelimit.go" ;
    code:description "Per-client-IP token bucket limiting for the API routes" ;
    code:linksTo [
        code:name "handlers/router" ;
        code:path "./router.go" ;
        code:relationship "Applies the limiter to /api"
    ] ;
    code:exports :RateLimiter, :NewRateLimiter ;
    code:tags "http", "middleware", "rate-limiting" .
<!-- End LinkedDoc RDF -->
*/
package handlers

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL  = 30 * time.Minute
	limiterSweepGap = 5 * time.Minute
)

type ipLimiter struct {
	limiter *rate.Limiter
	last    time.Time
}

// RateLimiter keeps one token bucket per client IP
type RateLimiter struct {
	rps   rate.Limit
	burst int
	now   func() time.Time

	mu       sync.Mutex
	limiters map[string]*ipLimiter

	stop chan struct{}
	once sync.Once
}

// NewRateLimiter creates a limiter and starts its cleanup goroutine.
// rps <= 0 disables limiting.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	rl := &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
		limiters: make(map[string]*ipLimiter),
		stop:     make(chan struct{}),
	}

	go rl.cleanupIdleLimiters()

	return rl
}

// Allow reports whether ip may make another request now
func (rl *RateLimiter) Allow(ip string) bool {
	if rl.rps <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	l, ok := rl.limiters[ip]
	if !ok {
		l = &ipLimiter{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.limiters[ip] = l
	}
	l.last = now
	return l.limiter.AllowN(now, 1)
}

// Middleware answers 429 once a client exceeds its budget
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(remoteIP(r)) {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Close stops the cleanup goroutine
func (rl *RateLimiter) Close() {
	rl.once.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) cleanupIdleLimiters() {
	ticker := time.NewTicker(limiterSweepGap)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.sweep()
		}
	}
}

func (rl *RateLimiter) sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-limiterIdleTTL)
	removed := 0
	for ip, l := range rl.limiters {
		if l.last.Before(cutoff) {
			delete(rl.limiters, ip)
			removed++
		}
	}
	return removed
}

// remoteIP keys on RemoteAddr only. Forwarding headers reach it through
// middleware.RealIP when the router trusts its proxy.
func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
