package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/core"
	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/rules"
	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/store"
)

// handleHistory lists recent preview runs.
// GET /api/history?limit=N
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	runs, err := s.service.History(r.Context(), parseIntParam(r, "limit", store.DefaultHistoryLimit))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// handleHistoryRun returns one preview run.
// GET /api/history/{id}
func (s *Server) handleHistoryRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.service.HistoryRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// statusResponse reports server state for monitoring.
type statusResponse struct {
	Limiter        core.LimiterStatus `json:"limiter"`
	HistoryEnabled bool               `json:"historyEnabled"`
	FetchEnabled   bool               `json:"fetchEnabled"`
	Schemas        int                `json:"schemas"`
	Groups         []string           `json:"groups"`
	MaxFileSize    int64              `json:"maxFileSize"`
	MaxRows        int                `json:"maxRows"`
	MaxRowsLimit   int                `json:"maxRowsLimit"`
}

// handleStatus reports limiter and feature state.
// GET /api/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Limiter:        s.service.LimiterStatus(),
		HistoryEnabled: s.service.HistoryEnabled(),
		FetchEnabled:   s.cfg.Fetch.Enabled,
		Schemas:        rules.Count(),
		Groups:         rules.Groups(),
		MaxFileSize:    s.cfg.Preview.MaxFileSize,
		MaxRows:        s.cfg.Preview.MaxRows,
		MaxRowsLimit:   s.cfg.Preview.MaxRowsLimit,
	})
}

// handleHealth is the liveness probe.
// GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
