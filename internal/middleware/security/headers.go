package security

import (
	"net/http"
	"strconv"
	"time"
)

// HeadersConfig lists the response headers set on every request.
// Empty values are omitted.
type HeadersConfig struct {
	ContentSecurityPolicy string
	FrameOptions          string
	ReferrerPolicy        string
	PermissionsPolicy     string
	CrossOriginPolicy     string

	// HSTS is sent only on TLS requests; zero disables it.
	HSTS time.Duration
}

// DefaultHeadersConfig suits the ledger: a same-origin frontend calling a
// same-origin JSON API.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		ContentSecurityPolicy: "default-src 'self'; style-src 'self' 'unsafe-inline'; " +
			"img-src 'self' data:; object-src 'none'; frame-ancestors 'none'; form-action 'self'",
		FrameOptions:      "DENY",
		ReferrerPolicy:    "same-origin",
		PermissionsPolicy: "geolocation=(), microphone=(), camera=(), payment=()",
		CrossOriginPolicy: "same-origin",
		HSTS:              365 * 24 * time.Hour,
	}
}

// Headers writes a fixed header set computed once at construction.
type Headers struct {
	fixed http.Header
	hsts  string
}

func NewHeaders(cfg HeadersConfig) *Headers {
	fixed := http.Header{}
	fixed.Set("X-Content-Type-Options", "nosniff")
	set := func(name, value string) {
		if value != "" {
			fixed.Set(name, value)
		}
	}
	set("Content-Security-Policy", cfg.ContentSecurityPolicy)
	set("X-Frame-Options", cfg.FrameOptions)
	set("Referrer-Policy", cfg.ReferrerPolicy)
	set("Permissions-Policy", cfg.PermissionsPolicy)
	set("Cross-Origin-Opener-Policy", cfg.CrossOriginPolicy)
	set("Cross-Origin-Resource-Policy", cfg.CrossOriginPolicy)

	h := &Headers{fixed: fixed}
	if cfg.HSTS > 0 {
		h.hsts = "max-age=" + strconv.Itoa(int(cfg.HSTS.Seconds())) + "; includeSubDomains"
	}
	return h
}

func (h *Headers) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out := w.Header()
		for name, values := range h.fixed {
			out[name] = values
		}
		if r.TLS != nil && h.hsts != "" {
			out.Set("Strict-Transport-Security", h.hsts)
		}
		next.ServeHTTP(w, r)
	})
}

// NoStore marks responses as uncacheable. Ledger data is personal and changes
// on every write, so shared caches must not keep it.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// CacheFor lets clients cache responses for maxAge.
func CacheFor(maxAge time.Duration) func(http.Handler) http.Handler {
	value := "public, max-age=" + strconv.Itoa(int(maxAge.Seconds()))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxAge > 0 {
				w.Header().Set("Cache-Control", value)
			}
			next.ServeHTTP(w, r)
		})
	}
}
