package websec

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP extracts the real client IP from a request so the HTTP layer can
// feed it to the rate limiter and audit log as the client identifier.
//
// With trustProxy false only the connection's RemoteAddr is used, which is
// the right setting for a directly exposed server: forwarding headers are
// attacker-controlled then. Behind a trusted reverse proxy, set trustProxy
// and trustedProxyCount to the number of proxies you operate; the
// X-Forwarded-For list is read right-to-left past your own proxies to find
// the first address an attacker could not have appended.
func ClientIP(r *http.Request, trustProxy bool, trustedProxyCount int) string {
	if trustProxy {
		if ip := clientIPFromForwardedFor(r.Header.Get("X-Forwarded-For"), trustedProxyCount); ip != "" {
			return ip
		}
		if ip := r.Header.Get("X-Real-IP"); net.ParseIP(ip) != nil {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port (some test servers and unix sockets).
		return r.RemoteAddr
	}
	return host
}

// clientIPFromForwardedFor picks the client entry out of an X-Forwarded-For
// list. The header grows left-to-right, "client, proxy1, proxy2": the
// rightmost trustedProxyCount entries were appended by proxies we operate,
// so the candidate is the entry just before them. With fewer entries than
// expected the leftmost entry is used. A candidate that does not parse as
// an IP is discarded entirely rather than passed on as a limiter key.
func clientIPFromForwardedFor(header string, trustedProxyCount int) string {
	if header == "" {
		return ""
	}
	if trustedProxyCount < 1 {
		trustedProxyCount = 1
	}

	entries := strings.Split(header, ",")
	idx := len(entries) - trustedProxyCount - 1
	if idx < 0 {
		idx = 0
	}

	candidate := strings.TrimSpace(entries[idx])
	if net.ParseIP(candidate) == nil {
		return ""
	}
	return candidate
}
