package clientip

import (
	"net"
	"net/http"
	"strings"
)

// RealClientIP returns the peer address of the request without its port.
// Proxy headers are ignored, so the result is safe to key rate limits on.
func RealClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return strings.TrimSpace(host)
}

// ForwardedClientIP prefers X-Forwarded-For, then X-Real-IP, then the peer address.
// Client-controlled; use for logging only.
func ForwardedClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if first := strings.TrimSpace(strings.Split(forwarded, ",")[0]); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	return RealClientIP(r)
}
