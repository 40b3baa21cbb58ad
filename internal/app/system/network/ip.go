// Package network resolves the client address used for rate limiting and
// intake records.
package network

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the client address for r in canonical form. Header
// values that do not parse as an IP are ignored so a junk X-Forwarded-For
// cannot mint fresh rate limit keys. chi's RealIP middleware normally runs
// first, so RemoteAddr already carries the forwarded address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := parse(first); ip != "" {
			return ip
		}
	}
	if ip := parse(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if ip := parse(host); ip != "" {
		return ip
	}
	return host
}

func parse(s string) string {
	s = strings.Trim(strings.TrimSpace(s), "[]")
	if ip := net.ParseIP(s); ip != nil {
		return ip.String()
	}
	return ""
}
