package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/coderr/marketplace-api/internal/config"
)

// swaggerPrefix serves the docs UI, which needs inline scripts
const swaggerPrefix = "/swagger/"

// SecurityHeaders sets the configured security headers on every response.
// HSTS is only sent over HTTPS, including TLS terminated at a proxy.
func SecurityHeaders(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	hsts := hstsValue(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if cfg.ContentTypeNosniff {
				h.Set("X-Content-Type-Options", "nosniff")
			}
			if cfg.FrameOptions != "" {
				h.Set("X-Frame-Options", cfg.FrameOptions)
			}
			if cfg.ContentSecurityPolicy != "" && !strings.HasPrefix(r.URL.Path, swaggerPrefix) {
				h.Set("Content-Security-Policy", cfg.ContentSecurityPolicy)
			}
			if cfg.ReferrerPolicy != "" {
				h.Set("Referrer-Policy", cfg.ReferrerPolicy)
			}
			if cfg.PermissionsPolicy != "" {
				h.Set("Permissions-Policy", cfg.PermissionsPolicy)
			}
			if hsts != "" && isHTTPS(r) {
				h.Set("Strict-Transport-Security", hsts)
			}
			h.Del("X-Powered-By")
			h.Del("Server")

			next.ServeHTTP(w, r)
		})
	}
}

func hstsValue(cfg *config.SecurityConfig) string {
	if !cfg.EnableHSTS {
		return ""
	}
	v := "max-age=" + strconv.Itoa(cfg.HSTSMaxAge)
	if cfg.HSTSIncludeSubdomains {
		v += "; includeSubDomains"
	}
	if cfg.HSTSPreload {
		v += "; preload"
	}
	return v
}

func isHTTPS(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
