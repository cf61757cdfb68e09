package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/core"
	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/report"
)

// handlePreview decodes an uploaded file and returns its first page.
// POST /api/preview[/{schema}]?maxRows=N
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	resp, err := s.previewUpload(w, r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) previewUpload(w http.ResponseWriter, r *http.Request) (*core.PreviewResponse, error) {
	up, err := s.readUpload(w, r)
	if err != nil {
		return nil, err
	}
	return s.service.Preview(r.Context(), core.PreviewRequest{
		FileName: up.name,
		Schema:   schemaParam(r),
		Data:     up.data,
		MaxRows:  parseIntParam(r, "maxRows", 0),
		Source:   core.SourceUpload,
	})
}

// fetchRequest is the body of a fetch preview.
type fetchRequest struct {
	URL     string `json:"url"`
	MaxRows int    `json:"maxRows"`
}

// handleFetchPreview downloads a remote CSV and previews it.
// POST /api/preview/{schema}/fetch {"url": "...", "maxRows": N}
func (s *Server) handleFetchPreview(w http.ResponseWriter, r *http.Request) {
	var req fetchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.respondError(w, r, badRequest(err), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		s.respondError(w, r, fmt.Errorf("%w: url is required", core.ErrFetchURL), 0)
		return
	}

	resp, err := s.service.PreviewURL(r.Context(), req.URL, schemaParam(r), req.MaxRows)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleReportXLSX previews an upload and returns the XLSX report.
// POST /api/preview/{schema}/report.xlsx
func (s *Server) handleReportXLSX(w http.ResponseWriter, r *http.Request) {
	resp, err := s.previewUpload(w, r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	// Render fully before writing headers so a failure can still be reported.
	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, resp); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	attachment(w, reportName(resp.FileName, "xlsx"), "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	_, _ = buf.WriteTo(w)
}

// handleReportCSV previews an upload and returns its failed rows as CSV.
// POST /api/preview/{schema}/report.csv
func (s *Server) handleReportCSV(w http.ResponseWriter, r *http.Request) {
	resp, err := s.previewUpload(w, r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	var buf bytes.Buffer
	if err := report.FailedRowsCSV(&buf, resp.PreviewResult); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	attachment(w, reportName(resp.FileName, "csv"), "text/csv; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func attachment(w http.ResponseWriter, name, contentType string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
}

// reportName derives the download name from the uploaded file name.
func reportName(fileName, ext string) string {
	base := strings.TrimSuffix(fileName, ".csv")
	base = strings.Map(func(r rune) rune {
		if r == '"' || r == '\\' || r < 0x20 {
			return '_'
		}
		return r
	}, base)
	return fmt.Sprintf("%s_report_%s.%s", base, time.Now().Format("20060102_150405"), ext)
}
