package websec

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func requestWithHeaders(remoteAddr string, headers map[string]string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = remoteAddr
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	return r
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		trustProxy bool
		proxyCount int
		want       string
	}{
		{
			name:       "direct connection",
			remoteAddr: "203.0.113.7:54321",
			want:       "203.0.113.7",
		},
		{
			name:       "remote addr without port",
			remoteAddr: "203.0.113.7",
			want:       "203.0.113.7",
		},
		{
			name:       "forwarded-for ignored when proxy untrusted",
			remoteAddr: "203.0.113.7:54321",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.1"},
			want:       "203.0.113.7",
		},
		{
			name:       "single trusted proxy",
			remoteAddr: "10.0.0.1:443",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.1"},
			trustProxy: true,
			proxyCount: 1,
			want:       "198.51.100.1",
		},
		{
			name:       "two trusted proxies",
			remoteAddr: "10.0.0.1:443",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.1, 10.0.0.2, 10.0.0.3"},
			trustProxy: true,
			proxyCount: 2,
			want:       "198.51.100.1",
		},
		{
			name:       "spoofed prefix with one trusted proxy",
			remoteAddr: "10.0.0.1:443",
			headers:    map[string]string{"X-Forwarded-For": "1.2.3.4, 198.51.100.1"},
			trustProxy: true,
			proxyCount: 1,
			want:       "1.2.3.4",
		},
		{
			name:       "invalid forwarded entry falls back to x-real-ip",
			remoteAddr: "10.0.0.1:443",
			headers: map[string]string{
				"X-Forwarded-For": "not-an-ip",
				"X-Real-IP":       "198.51.100.9",
			},
			trustProxy: true,
			proxyCount: 1,
			want:       "198.51.100.9",
		},
		{
			name:       "invalid headers fall back to remote addr",
			remoteAddr: "10.0.0.1:443",
			headers: map[string]string{
				"X-Forwarded-For": "garbage",
				"X-Real-IP":       "also-garbage",
			},
			trustProxy: true,
			proxyCount: 1,
			want:       "10.0.0.1",
		},
		{
			name:       "ipv6 forwarded",
			remoteAddr: "10.0.0.1:443",
			headers:    map[string]string{"X-Forwarded-For": "2001:db8::1"},
			trustProxy: true,
			proxyCount: 1,
			want:       "2001:db8::1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := requestWithHeaders(tt.remoteAddr, tt.headers)
			if got := ClientIP(r, tt.trustProxy, tt.proxyCount); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
