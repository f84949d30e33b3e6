package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter applies a token bucket per client address
type IPRateLimiter struct {
	rps        rate.Limit
	burst      int
	expireTime time.Duration

	mu      sync.Mutex
	clients map[string]*clientLimiter
	stop    chan struct{}
	once    sync.Once
}

// NewIPRateLimiter creates a limiter allowing rps requests per second with
// the given burst per client. Idle clients are forgotten after expireTime.
func NewIPRateLimiter(rps float64, burst int, expireTime time.Duration) *IPRateLimiter {
	rl := &IPRateLimiter{
		rps:        rate.Limit(rps),
		burst:      burst,
		expireTime: expireTime,
		clients:    make(map[string]*clientLimiter),
		stop:       make(chan struct{}),
	}

	go rl.cleanupStaleClients()

	return rl
}

// Middleware rejects requests over the limit with 429
func (rl *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limiter := rl.get(clientIP(r))

		if !limiter.Allow() {
			w.Header().Set("Retry-After", strconv.Itoa(rl.retryAfter()))
			respondError(w, "Too many requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Stop ends the cleanup goroutine
func (rl *IPRateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

// retryAfter is the number of seconds until one token is refilled
func (rl *IPRateLimiter) retryAfter() int {
	if rl.rps <= 0 {
		return 60
	}
	return int(math.Ceil(1 / float64(rl.rps)))
}

func (rl *IPRateLimiter) get(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, ok := rl.clients[ip]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.clients[ip] = c
	}
	c.lastSeen = time.Now()
	return c.limiter
}

func (rl *IPRateLimiter) cleanupStaleClients() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			for ip, c := range rl.clients {
				if time.Since(c.lastSeen) > rl.expireTime {
					delete(rl.clients, ip)
				}
			}
			rl.mu.Unlock()
		case <-rl.stop:
			return
		}
	}
}

// clientIP returns the host part of RemoteAddr. chi's RealIP middleware has
// already applied X-Forwarded-For / X-Real-IP when it is installed.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
