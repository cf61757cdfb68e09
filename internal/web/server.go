// Package web provides the HTTP API for previewing CSV imports.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/config"
	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/core"
	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/web/middleware"
)

// Server is the HTTP server for the preview API.
type Server struct {
	service *core.Service
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server

	limiters []*middleware.RateLimiter
	stop     context.CancelFunc
}

// NewServer creates a Server backed by service.
func NewServer(service *core.Service) *Server {
	s := &Server{
		service: service,
		cfg:     service.Config(),
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()

	ctx, cancel := context.WithCancel(context.Background())
	s.stop = cancel
	for _, l := range s.limiters {
		go l.Run(ctx)
	}
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	if t := s.cfg.Server.RequestTimeout; t > 0 {
		s.router.Use(chimw.Timeout(t))
	}
	s.router.Use(securityHeaders)
	s.router.Use(requestMetadata)

	if s.cfg.Rate.Enabled {
		s.router.Use(s.newLimiter(s.cfg.Rate.RequestsPerMinute).Handler)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(s.cfg.Security, authFailure))

		r.Get("/status", s.handleStatus)

		// Schemas
		r.Get("/schemas", s.handleListSchemas)
		r.Get("/schemas/{schema}", s.handleGetSchema)

		// Previews
		r.Group(func(r chi.Router) {
			if s.cfg.Rate.Enabled && s.cfg.Rate.PreviewLimit > 0 {
				r.Use(s.newLimiter(s.cfg.Rate.PreviewLimit).Handler)
			}
			r.Post("/preview", s.handlePreview)
			r.Post("/preview/{schema}", s.handlePreview)
			r.Post("/preview/{schema}/fetch", s.handleFetchPreview)
			r.Post("/preview/{schema}/report.xlsx", s.handleReportXLSX)
			r.Post("/preview/{schema}/report.csv", s.handleReportCSV)
		})

		// History
		r.Get("/history", s.handleHistory)
		r.Get("/history/{id}", s.handleHistoryRun)
	})
}

func (s *Server) newLimiter(perMinute int) *middleware.RateLimiter {
	l := middleware.NewRateLimiter(perMinute, func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, r, errRateLimited, http.StatusTooManyRequests)
	})
	s.limiters = append(s.limiters, l)
	return l
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	sc := s.cfg.Server
	s.server = &http.Server{
		Addr:         sc.Addr(),
		Handler:      s.router,
		ReadTimeout:  sc.ReadTimeout,
		WriteTimeout: sc.WriteTimeout,
		IdleTimeout:  sc.IdleTimeout,
	}

	slog.Info("starting server", "addr", sc.Addr())
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stop()
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON with the given status.
// Encoding errors are only logged since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
