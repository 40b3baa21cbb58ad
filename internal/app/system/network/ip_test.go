package network

import (
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		realIP     string
		remoteAddr string
		want       string
	}{
		{name: "forwarded single", xff: "203.0.113.7", remoteAddr: "10.0.0.1:5000", want: "203.0.113.7"},
		{name: "forwarded chain uses first hop", xff: "203.0.113.7, 10.0.0.2, 172.16.0.1", remoteAddr: "10.0.0.1:5000", want: "203.0.113.7"},
		{name: "forwarded padded", xff: "  203.0.113.7  ", remoteAddr: "10.0.0.1:5000", want: "203.0.113.7"},
		{name: "forwarded wins over real ip", xff: "203.0.113.7", realIP: "198.51.100.1", remoteAddr: "10.0.0.1:5000", want: "203.0.113.7"},
		{name: "junk forwarded falls through", xff: "not-an-ip", realIP: "198.51.100.1", remoteAddr: "10.0.0.1:5000", want: "198.51.100.1"},
		{name: "real ip", realIP: "198.51.100.1", remoteAddr: "10.0.0.1:5000", want: "198.51.100.1"},
		{name: "junk real ip falls through", realIP: "<script>", remoteAddr: "10.0.0.1:5000", want: "10.0.0.1"},
		{name: "remote addr with port", remoteAddr: "192.0.2.10:41234", want: "192.0.2.10"},
		{name: "remote addr without port", remoteAddr: "192.0.2.10", want: "192.0.2.10"},
		{name: "ipv6 remote", remoteAddr: "[2001:db8::1]:8080", want: "2001:db8::1"},
		{name: "ipv6 forwarded canonicalised", xff: "2001:0db8:0000::0001", remoteAddr: "10.0.0.1:5000", want: "2001:db8::1"},
		{name: "unparseable remote returned as is", remoteAddr: "pipe", want: "pipe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
