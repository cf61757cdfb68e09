package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/config"
)

// AuthFailure writes the response for a rejected request. code is AUTH001
// for a missing key and AUTH002 for an unknown one.
type AuthFailure func(w http.ResponseWriter, r *http.Request, status int, code, message string)

// APIKeyAuth checks the X-API-Key header against the configured keys.
// When RequireAPIKey is off every request passes.
func APIKeyAuth(cfg config.SecurityConfig, fail AuthFailure) func(http.Handler) http.Handler {
	if fail == nil {
		fail = func(w http.ResponseWriter, _ *http.Request, status int, _, message string) {
			http.Error(w, message, status)
		}
	}

	return func(next http.Handler) http.Handler {
		if !cfg.RequireAPIKey {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				slog.Warn("auth: missing API key", "path", r.URL.Path, "method", r.Method, "ip", ClientIP(r))
				fail(w, r, http.StatusUnauthorized, "AUTH001", "missing API key")
				return
			}
			if !validAPIKey(key, cfg.APIKeys) {
				slog.Warn("auth: invalid API key", "path", r.URL.Path, "method", r.Method, "ip", ClientIP(r))
				fail(w, r, http.StatusForbidden, "AUTH002", "invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// validAPIKey compares key against every configured key in constant time.
func validAPIKey(key string, keys []string) bool {
	match := 0
	for _, k := range keys {
		match |= subtle.ConstantTimeCompare([]byte(key), []byte(k))
	}
	return match == 1
}
