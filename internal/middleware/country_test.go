package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

type assertError string

func (e assertError) Error() string { return string(e) }

func TestResolveCountry(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(r *http.Request)
		resolver CountryLookup
		want     string
	}{
		{
			name: "cloudflare header",
			setup: func(r *http.Request) {
				r.Header.Set("CF-IPCountry", "id")
			},
			want: "ID",
		},
		{
			name: "placeholder header ignored",
			setup: func(r *http.Request) {
				r.Header.Set("CF-IPCountry", "XX")
			},
			want: "",
		},
		{
			name: "tor placeholder ignored",
			setup: func(r *http.Request) {
				r.Header.Set("CF-IPCountry", "T1")
			},
			want: "",
		},
		{
			name: "header wins over resolver",
			setup: func(r *http.Request) {
				r.Header.Set("X-Country-Code", "us")
			},
			resolver: func(string) (string, error) { return "DE", nil },
			want:     "US",
		},
		{
			name: "resolver fallback",
			resolver: func(ip string) (string, error) {
				if ip != "203.0.113.4" {
					return "", assertError("unexpected ip " + ip)
				}
				return "my", nil
			},
			want: "MY",
		},
		{
			name: "resolver uses forwarded ip",
			setup: func(r *http.Request) {
				r.Header.Set("X-Forwarded-For", "bogus, 198.51.100.7")
			},
			resolver: func(ip string) (string, error) {
				if ip != "198.51.100.7" {
					return "", assertError("unexpected ip " + ip)
				}
				return "SG", nil
			},
			want: "SG",
		},
		{
			name: "resolver error returns empty",
			resolver: func(string) (string, error) {
				return "", assertError("boom")
			},
			want: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "203.0.113.4:80"
			if tc.setup != nil {
				tc.setup(req)
			}
			if got := ResolveCountry(req, tc.resolver); got != tc.want {
				t.Fatalf("ResolveCountry() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCountryMiddlewareStoresCode(t *testing.T) {
	var got string
	h := Country(func(string) (string, error) { return "nz", nil })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = CountryFromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if got != "NZ" {
		t.Fatalf("CountryFromContext() = %q, want NZ", got)
	}
}
