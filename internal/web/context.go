package web

import (
	"net/http"

	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/core"
	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/web/middleware"
)

// requestMetadata stores the client IP and User-Agent in the request context
// so preview history can record them. It must run after TrustedRealIP.
func requestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := core.ContextWithClientIP(r.Context(), middleware.ClientIP(r))
		ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
