package httpapi

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

type RateLimitConfig struct {
	IPPerMinute       int
	IPBurst           int
	UsernamePerMinute int
	UsernameBurst     int
	// TrustProxy takes the client address from X-Forwarded-For. Enable it
	// only behind a proxy that overwrites the header.
	TrustProxy bool
}

// RateLimiter throttles login attempts per client address and per
// submitted username.
type RateLimiter struct {
	ipLimiter       *tokenLimiter
	usernameLimiter *tokenLimiter
	trustProxy      bool
}

func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	usernamePerMinute, usernameBurst := cfg.UsernamePerMinute, cfg.UsernameBurst
	if usernamePerMinute <= 0 {
		usernamePerMinute = cfg.IPPerMinute
	}
	if usernameBurst <= 0 {
		usernameBurst = cfg.IPBurst
	}
	return &RateLimiter{
		ipLimiter:       newTokenLimiter(cfg.IPPerMinute, cfg.IPBurst),
		usernameLimiter: newTokenLimiter(usernamePerMinute, usernameBurst),
		trustProxy:      cfg.TrustProxy,
	}
}

// Allow spends one token for the request's address and, when given, for
// the username.
func (l *RateLimiter) Allow(r *http.Request, username string) bool {
	if ip := clientIP(r, l.trustProxy); ip != "" && !l.ipLimiter.allow(ip) {
		return false
	}
	username = strings.ToLower(strings.TrimSpace(username))
	if username != "" && !l.usernameLimiter.allow(username) {
		return false
	}
	return true
}

type tokenLimiter struct {
	mu     sync.Mutex
	rate   float64
	burst  float64
	bucket map[string]*bucket
	now    func() time.Time
}

type bucket struct {
	tokens float64
	last   time.Time
}

func newTokenLimiter(perMinute, burst int) *tokenLimiter {
	if perMinute <= 0 {
		perMinute = 20
	}
	if burst <= 0 {
		burst = 5
	}
	return &tokenLimiter{
		rate:   float64(perMinute) / 60.0,
		burst:  float64(burst),
		bucket: make(map[string]*bucket),
		now:    time.Now,
	}
}

func (l *tokenLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.bucket[key]
	if !ok {
		l.bucket[key] = &bucket{tokens: l.burst - 1, last: now}
		return true
	}
	elapsed := now.Sub(b.last).Seconds()
	b.tokens = min(l.burst, b.tokens+elapsed*l.rate)
	b.last = now
	if b.tokens < 1 {
		return false
	}
	b.tokens -= 1
	return true
}

// prune drops buckets that have refilled completely.
func (l *tokenLimiter) prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	removed := 0
	for key, b := range l.bucket {
		if b.tokens+now.Sub(b.last).Seconds()*l.rate >= l.burst {
			delete(l.bucket, key)
			removed++
		}
	}
	return removed
}

// Prune releases the state of clients that are back to a full bucket.
func (l *RateLimiter) Prune() int {
	return l.ipLimiter.prune() + l.usernameLimiter.prune()
}

// clientIP is the peer address, or the first X-Forwarded-For entry when
// the proxy in front of the console is trusted.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			first, _, _ := strings.Cut(forwarded, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
