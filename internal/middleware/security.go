package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/AnshRaj112/karmnik-backend/pkg/clientip"
)

const (
	headerXContentTypeOptions     = "X-Content-Type-Options"
	headerXFrameOptions           = "X-Frame-Options"
	headerReferrerPolicy          = "Referrer-Policy"
	headerContentSecurityPolicy   = "Content-Security-Policy"
	headerStrictTransportSecurity = "Strict-Transport-Security"
)

// ContentSecurityPolicy allows the page's own script and WebSocket plus Bootstrap from jsDelivr.
const ContentSecurityPolicy = "default-src 'self'; style-src 'self' https://cdn.jsdelivr.net; " +
	"script-src 'self'; connect-src 'self' ws: wss:; img-src 'self' data:"

// SecurityHeaders sets security-related response headers.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(headerXContentTypeOptions, "nosniff")
		w.Header().Set(headerXFrameOptions, "DENY")
		w.Header().Set(headerReferrerPolicy, "same-origin")
		w.Header().Set(headerContentSecurityPolicy, ContentSecurityPolicy)
		w.Header().Set(headerStrictTransportSecurity, "max-age=31536000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}

// HostCheck returns 403 when r.Host does not match allowedHost.
// allowedHost is the bare hostname; an empty value disables the check.
func HostCheck(allowedHost string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowedHost == "" {
				next.ServeHTTP(w, r)
				return
			}
			reqHost := r.Host
			if host, _, err := net.SplitHostPort(reqHost); err == nil {
				reqHost = host
			}
			if !strings.EqualFold(strings.TrimSpace(reqHost), strings.TrimSpace(allowedHost)) {
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte("Forbidden"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ipLimiters hands out one token bucket per client IP and forgets idle ones.
type ipLimiters struct {
	limit rate.Limit
	burst int
	ttl   time.Duration

	mu         sync.Mutex
	entries    map[string]*limiterEntry
	cleanupRun bool
}

type limiterEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

func newIPLimiters(limit rate.Limit, burst int) *ipLimiters {
	return &ipLimiters{
		limit:   limit,
		burst:   burst,
		ttl:     30 * time.Minute,
		entries: make(map[string]*limiterEntry),
	}
}

func (l *ipLimiters) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.startCleanupOnce()

	e, ok := l.entries[ip]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[ip] = e
	}
	e.lastUse = time.Now()
	return e.limiter
}

func (l *ipLimiters) startCleanupOnce() {
	if l.cleanupRun {
		return
	}
	l.cleanupRun = true
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			l.mu.Lock()
			now := time.Now()
			for ip, e := range l.entries {
				if now.Sub(e.lastUse) > l.ttl {
					delete(l.entries, ip)
				}
			}
			l.mu.Unlock()
		}
	}()
}

// --- Global rate limiting (per-IP, 5/s, burst 20) ---

var globalLimiters = newIPLimiters(rate.Limit(5), 20)

// GlobalRateLimit returns 429 when a client IP exceeds 5 req/s (burst 20).
func GlobalRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !globalLimiters.get(clientip.RealClientIP(r)).Allow() {
			writeTooMany(w, "Too many requests. Please slow down.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- Write rate limiting (1 write/2s, burst 5) ---

var writeLimiters = newIPLimiters(rate.Every(2*time.Second), 5)

// WriteRateLimit applies a stricter limit to feedings writes only. Use after GlobalRateLimit.
func WriteRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isWrite(r) {
			next.ServeHTTP(w, r)
			return
		}
		if !writeLimiters.get(clientip.RealClientIP(r)).Allow() {
			writeTooMany(w, "Too many changes. Please try again later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ProductionSecurity returns middlewares for production: SecurityHeaders → HostCheck → GlobalRateLimit → WriteRateLimit.
func ProductionSecurity(allowedHost string) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		SecurityHeaders,
		HostCheck(allowedHost),
		GlobalRateLimit,
		WriteRateLimit,
	}
}

func isWrite(r *http.Request) bool {
	return (r.Method == http.MethodPost || r.Method == http.MethodDelete) &&
		strings.HasPrefix(r.URL.Path, "/api/feedings")
}

func writeTooMany(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	w.Write([]byte(`{"success":false,"message":"` + message + `"}`))
}
