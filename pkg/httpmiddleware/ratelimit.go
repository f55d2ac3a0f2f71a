package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures per-client token buckets.
type RateLimitConfig struct {
	// Max is the bucket size: requests allowed in a burst and per Window.
	Max int
	// Window is the time it takes to refill Max tokens.
	Window time.Duration
	// KeyFunc identifies the client. Defaults to the client IP.
	KeyFunc func(r *http.Request) string
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type limiterSet struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	every    rate.Limit
	burst    int
	window   time.Duration
}

func newLimiterSet(cfg RateLimitConfig) *limiterSet {
	return &limiterSet{
		visitors: make(map[string]*visitor),
		every:    rate.Every(cfg.Window / time.Duration(cfg.Max)),
		burst:    cfg.Max,
		window:   cfg.Window,
	}
}

// take consumes a token for key and reports the tokens left.
func (s *limiterSet) take(key string, now time.Time) (ok bool, remaining int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, found := s.visitors[key]
	if !found {
		v = &visitor{limiter: rate.NewLimiter(s.every, s.burst)}
		s.visitors[key] = v
	}
	v.lastSeen = now

	ok = v.limiter.AllowN(now, 1)
	remaining = int(math.Floor(v.limiter.TokensAt(now)))
	if remaining < 0 {
		remaining = 0
	}
	return ok, remaining
}

// sweep drops visitors idle for longer than a window; their bucket is full.
func (s *limiterSet) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, v := range s.visitors {
		if now.Sub(v.lastSeen) > s.window {
			delete(s.visitors, key)
		}
	}
}

// RateLimit limits requests per client. Idle clients are never evicted, use
// RateLimitWithCleanup for long-running servers.
func RateLimit(cfg RateLimitConfig) Middleware {
	return rateLimit(cfg, newLimiterSet(cfg))
}

// RateLimitWithCleanup is RateLimit with a background sweep of idle clients
// that stops when ctx is done.
func RateLimitWithCleanup(ctx context.Context, cfg RateLimitConfig) Middleware {
	set := newLimiterSet(cfg)
	go func() {
		ticker := time.NewTicker(cfg.Window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				set.sweep(now)
			}
		}
	}()
	return rateLimit(cfg, set)
}

func rateLimit(cfg RateLimitConfig, set *limiterSet) Middleware {
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = clientIP
	}
	limit := strconv.Itoa(cfg.Max)
	perToken := cfg.Window / time.Duration(cfg.Max)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := time.Now()
			ok, remaining := set.take(keyFunc(r), now)

			// Seconds until the bucket is full again.
			missing := time.Duration(cfg.Max-remaining) * perToken
			reset := int(math.Ceil(missing.Seconds()))

			h := w.Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("X-RateLimit-Reset", strconv.Itoa(reset))

			if !ok {
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(perToken.Seconds()))))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
