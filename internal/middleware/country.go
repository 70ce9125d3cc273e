package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
)

type countryKey struct{}

// CountryLookup resolves ISO country codes for an IP address.
type CountryLookup func(ip string) (string, error)

// Country stores a best-effort caller country in the request context for
// logging. It never rejects a request.
func Country(lookup CountryLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			country := ResolveCountry(r, lookup)
			if country == "" {
				next.ServeHTTP(w, r)
				return
			}
			noteCountry(r.Context(), country)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), countryKey{}, country)))
		})
	}
}

// ClientIP returns the best-effort client IP address for the request.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		for _, part := range strings.Split(xf, ",") {
			if ip := strings.TrimSpace(part); net.ParseIP(ip) != nil {
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

func CountryFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(countryKey{}).(string); ok {
		return v
	}
	return ""
}

// ResolveCountry prefers edge-provided country headers and falls back to
// lookup on the client IP.
func ResolveCountry(r *http.Request, lookup CountryLookup) string {
	if r == nil {
		return ""
	}
	for _, key := range []string{"CF-IPCountry", "X-Country-Code", "X-Appengine-Country"} {
		if val := strings.TrimSpace(r.Header.Get(key)); validCountry(val) {
			return strings.ToUpper(val)
		}
	}
	if lookup == nil {
		return ""
	}
	ip := ClientIP(r)
	if ip == "" {
		return ""
	}
	country, err := lookup(ip)
	if err != nil || !validCountry(country) {
		return ""
	}
	return strings.ToUpper(country)
}

// Two ASCII letters; Cloudflare's "XX" and "T1" placeholders are rejected.
func validCountry(code string) bool {
	if len(code) != 2 {
		return false
	}
	up := strings.ToUpper(code)
	if up == "XX" {
		return false
	}
	for i := 0; i < 2; i++ {
		c := up[i]
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}
