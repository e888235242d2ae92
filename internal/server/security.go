package server

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/FocuswithJustin/dansk/internal/logging"
)

// isOriginAllowed checks origin against the allowed patterns. It supports
// exact matches, "*" and wildcard subdomains such as "*.example.com".
func isOriginAllowed(origin string, allowedOrigins []string) bool {
	if origin == "" {
		return false
	}
	for _, allowed := range allowedOrigins {
		if allowed == "*" || strings.EqualFold(strings.TrimSuffix(allowed, "/"), origin) {
			return true
		}
		if strings.HasPrefix(allowed, "*.") {
			u, err := url.Parse(origin)
			if err != nil {
				continue
			}
			host := strings.ToLower(u.Hostname())
			if strings.HasSuffix(host, strings.ToLower(allowed[1:])) {
				return true
			}
		}
	}
	return false
}

// checkOrigin builds the upgrader's CheckOrigin. Requests without an Origin
// header come from non-browser clients and are accepted. With no patterns
// configured the origin host must match the request host.
func checkOrigin(allowedOrigins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		var ok bool
		if len(allowedOrigins) == 0 {
			u, err := url.Parse(origin)
			ok = err == nil && strings.EqualFold(u.Host, r.Host)
		} else {
			ok = isOriginAllowed(origin, allowedOrigins)
		}
		if !ok {
			logging.SecurityEvent("origin_rejected", "websocket", "origin", origin, "remote_addr", r.RemoteAddr)
		}
		return ok
	}
}

// messageRateBucket is a token bucket limiting messages per connection.
type messageRateBucket struct {
	tokens         float64
	capacity       float64
	refillRate     float64 // tokens per second
	lastRefillTime time.Time
	mu             sync.Mutex
}

// newMessageRateBucket allows a burst of twice the per-second rate.
func newMessageRateBucket(messagesPerSecond int) *messageRateBucket {
	capacity := float64(messagesPerSecond) * 2.0
	return &messageRateBucket{
		tokens:         capacity,
		capacity:       capacity,
		refillRate:     float64(messagesPerSecond),
		lastRefillTime: time.Now(),
	}
}

// allow takes a token if one is available.
func (mb *messageRateBucket) allow() bool {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(mb.lastRefillTime).Seconds()
	mb.tokens = min(mb.capacity, mb.tokens+elapsed*mb.refillRate)
	mb.lastRefillTime = now

	if mb.tokens >= 1.0 {
		mb.tokens--
		return true
	}
	return false
}

// securityHeaders adds the headers every response carries. The server only
// returns text and JSON, so the CSP forbids everything.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}
