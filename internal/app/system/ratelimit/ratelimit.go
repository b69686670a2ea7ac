// internal/app/system/ratelimit/ratelimit.go

// Package ratelimit throttles login attempts per client IP and per
// target account.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Login attempt budgets.
const (
	ipLimit     = 10
	ipWindow    = time.Minute
	emailLimit  = 5
	emailWindow = 5 * time.Minute
)

// Limiter counts events per key in fixed windows. Safe for concurrent
// use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   int
	window  time.Duration
}

type bucket struct {
	count   int
	resetAt time.Time
}

// NewLimiter creates a limiter allowing limit events per key per
// window.
func NewLimiter(limit int, window time.Duration) *Limiter {
	l := &Limiter{
		buckets: make(map[string]*bucket),
		limit:   limit,
		window:  window,
	}
	go l.sweep()
	return l
}

// Allow records one event for key and reports whether it fits the
// budget.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b := l.buckets[key]
	if b == nil || now.After(b.resetAt) {
		l.buckets[key] = &bucket{count: 1, resetAt: now.Add(l.window)}
		return true
	}
	if b.count >= l.limit {
		return false
	}
	b.count++
	return true
}

// Reset forgets key's current window.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// sweep drops expired buckets so abandoned keys do not accumulate.
func (l *Limiter) sweep() {
	ticker := time.NewTicker(2 * l.window)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		now := time.Now()
		for key, b := range l.buckets {
			if now.After(b.resetAt) {
				delete(l.buckets, key)
			}
		}
		l.mu.Unlock()
	}
}

// ClientIP resolves the caller's address, preferring proxy headers over
// the socket address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First entry is the originating client.
		if ip := strings.TrimSpace(strings.SplitN(xff, ",", 2)[0]); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// LoginLimiter throttles sign-in attempts on two axes so neither a
// single address hammering many accounts nor many addresses hammering
// one account gets through.
type LoginLimiter struct {
	byIP    *Limiter
	byEmail *Limiter
}

// NewLoginLimiter creates a limiter with the login budgets.
func NewLoginLimiter() *LoginLimiter {
	return &LoginLimiter{
		byIP:    NewLimiter(ipLimit, ipWindow),
		byEmail: NewLimiter(emailLimit, emailWindow),
	}
}

// Check records one attempt and reports whether it may proceed. When
// blocked, msg is suitable for the response body.
func (ll *LoginLimiter) Check(r *http.Request, email string) (ok bool, msg string) {
	if !ll.byIP.Allow(ClientIP(r)) {
		return false, "too many login attempts, wait a minute and try again"
	}
	if email != "" && !ll.byEmail.Allow(emailKey(email)) {
		return false, "too many login attempts for this account, wait a few minutes"
	}
	return true, ""
}

// ResetEmail clears the account budget after a successful sign-in.
func (ll *LoginLimiter) ResetEmail(email string) {
	if email != "" {
		ll.byEmail.Reset(emailKey(email))
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
