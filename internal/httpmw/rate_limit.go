package httpmw

import (
	"log"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter throttles per-client-IP. It exists for the click endpoint: a
// browser autoclicker should saturate at the configured rate instead of
// hammering the session loop.
type RateLimiter struct {
	mu      sync.RWMutex
	limit   rate.Limit
	burst   int
	clients map[string]*rate.Limiter
	logger  *log.Logger
	done    chan struct{}
	once    sync.Once
}

func NewRateLimiter(perSecond float64, burst int, logger *log.Logger) *RateLimiter {
	rl := &RateLimiter{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		clients: make(map[string]*rate.Limiter),
		logger:  logger,
		done:    make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// Close stops the cleanup goroutine. Limiting keeps working after Close;
// idle buckets just stop being reclaimed. Safe to call more than once.
func (rl *RateLimiter) Close() {
	rl.once.Do(func() { close(rl.done) })
}

func (rl *RateLimiter) limiterFor(ip string) *rate.Limiter {
	rl.mu.RLock()
	lim, ok := rl.clients[ip]
	rl.mu.RUnlock()
	if ok {
		return lim
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if lim, ok = rl.clients[ip]; ok {
		return lim
	}
	lim = rate.NewLimiter(rl.limit, rl.burst)
	rl.clients[ip] = lim
	return lim
}

// cleanup drops limiters that have refilled completely, i.e. idle clients.
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.mu.Lock()
			for ip, lim := range rl.clients {
				if lim.TokensAt(time.Now()) == float64(rl.burst) {
					delete(rl.clients, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r)
		if !rl.limiterFor(ip).Allow() {
			logEvent(rl.logger, "warn", "rate_limited", map[string]any{
				"remote_ip": ip,
				"path":      r.URL.Path,
			})
			w.Header().Set("Retry-After", "1")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
