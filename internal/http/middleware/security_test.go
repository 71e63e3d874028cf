package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

// secured builds an engine with RequestID and SecurityHeaders in front of h.
func secured(opt SecurityOptions, pre gin.HandlerFunc, h gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	if pre != nil {
		r.Use(pre)
	}
	r.Use(SecurityHeaders(opt))
	r.GET("/x", h)
	return r
}

func TestSecurityHeaders(t *testing.T) {
	okHandler := func(c *gin.Context) { c.Status(http.StatusOK) }
	overTLS := func(r *http.Request) { r.TLS = &tls.ConnectionState{} }
	forwarded := func(r *http.Request) { r.Header.Set("X-Forwarded-Proto", "https") }

	cases := []struct {
		name   string
		opt    SecurityOptions
		prep   func(*http.Request)
		want   map[string]string
		absent []string
	}{
		{
			name: "baseline only",
			want: map[string]string{
				"X-Content-Type-Options": "nosniff",
				"X-Frame-Options":        "DENY",
				"Referrer-Policy":        "no-referrer",
			},
			absent: []string{"Permissions-Policy", "Cache-Control", "Pragma", "Expires", "Strict-Transport-Security"},
		},
		{
			name: "policy and no-store",
			opt:  SecurityOptions{NoStore: true, EnablePolicy: true},
			want: map[string]string{
				"X-Permitted-Cross-Domain-Policies": "none",
				"Cache-Control":                     "no-store",
				"Pragma":                            "no-cache",
				"Expires":                           "0",
			},
		},
		{
			name:   "hsts skipped on plain http",
			opt:    SecurityOptions{EnableHSTS: true},
			absent: []string{"Strict-Transport-Security"},
		},
		{
			name: "hsts over tls",
			opt:  SecurityOptions{EnableHSTS: true, HSTSMaxAge: 24 * time.Hour},
			prep: overTLS,
			want: map[string]string{"Strict-Transport-Security": "max-age=86400; includeSubDomains; preload"},
		},
		{
			name: "hsts behind tls-terminating proxy with default age",
			opt:  SecurityOptions{EnableHSTS: true},
			prep: forwarded,
			want: map[string]string{"Strict-Transport-Security": "max-age=15552000; includeSubDomains; preload"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tc.prep != nil {
				tc.prep(req)
			}
			w := httptest.NewRecorder()
			secured(tc.opt, nil, okHandler).ServeHTTP(w, req)

			h := w.Header()
			for k, v := range tc.want {
				if got := h.Get(k); got != v {
					t.Fatalf("%s = %q; want %q", k, got, v)
				}
			}
			for _, k := range tc.absent {
				if got := h.Get(k); got != "" {
					t.Fatalf("unexpected %s = %q", k, got)
				}
			}
		})
	}
}

func TestSecurityHeaders_ExposesRequestID(t *testing.T) {
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	preset := func(v string) gin.HandlerFunc {
		return func(c *gin.Context) {
			c.Header("Access-Control-Expose-Headers", v)
			c.Next()
		}
	}
	cases := []struct {
		name string
		pre  gin.HandlerFunc
		want string
	}{
		{"empty", nil, "X-Request-ID"},
		{"appended", preset("Retry-After"), "Retry-After, X-Request-ID"},
		{"not duplicated", preset("X-Request-ID, Retry-After"), "X-Request-ID, Retry-After"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		secured(SecurityOptions{}, tc.pre, ok).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		if got := w.Header().Get("Access-Control-Expose-Headers"); got != tc.want {
			t.Fatalf("%s: expose = %q; want %q", tc.name, got, tc.want)
		}
	}
}

// Headers are set before the chain runs, so an aborted request that writes
// a failure envelope still carries them.
func TestSecurityHeaders_OnAbortedFailure(t *testing.T) {
	r := secured(SecurityOptions{NoStore: true}, nil, func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusOK, gin.H{"code": "10001", "message": "Not Found", "data": nil})
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	if w.Header().Get("X-Content-Type-Options") != "nosniff" || w.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("headers missing on failure: %#v", w.Header())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("request id missing on failure")
	}
}

func Test_isHTTPS(t *testing.T) {
	cases := []struct {
		name string
		prep func(*http.Request)
		want bool
	}{
		{"plain", func(*http.Request) {}, false},
		{"tls", func(r *http.Request) { r.TLS = &tls.ConnectionState{} }, true},
		{"forwarded", func(r *http.Request) { r.Header.Set("X-Forwarded-Proto", "HTTPS") }, true},
		{"forwarded http", func(r *http.Request) { r.Header.Set("X-Forwarded-Proto", "http") }, false},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		tc.prep(req)
		if got := isHTTPS(req); got != tc.want {
			t.Fatalf("%s: isHTTPS = %v; want %v", tc.name, got, tc.want)
		}
	}
}
