package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/charset"
	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/config"
	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/logging"
	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/rules"
	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/store"
	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/validation"
)

var (
	// ErrFileTooLarge is returned when a file exceeds the configured size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrNoFile is returned by transports when a request carries no file.
	ErrNoFile = errors.New("no file provided")

	// ErrHistoryDisabled is returned by history queries when no database is configured.
	ErrHistoryDisabled = errors.New("preview history is not enabled")
)

// Preview sources recorded in history.
const (
	SourceUpload = "upload"
	SourceFetch  = "fetch"
	SourceCLI    = "cli"
)

// historyWriteTimeout bounds the history insert that follows a preview.
const historyWriteTimeout = 5 * time.Second

// HistoryStore persists preview runs. *store.History satisfies it.
type HistoryStore interface {
	Record(ctx context.Context, run *store.Run) error
	Recent(ctx context.Context, limit int) ([]store.Run, error)
	Get(ctx context.Context, id string) (*store.Run, error)
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
}

// Service runs previews for transports. It applies the configured size and
// page limits, bounds concurrency and records each run when history is on.
type Service struct {
	cfg      *config.Config
	detector *charset.Detector
	limiter  *PreviewLimiter
	history  HistoryStore
	client   *http.Client
}

// Option customizes a Service.
type Option func(*Service)

// WithHistory enables history recording.
func WithHistory(h HistoryStore) Option {
	return func(s *Service) { s.history = h }
}

// WithDetector replaces the default encoding detector.
func WithDetector(d *charset.Detector) Option {
	return func(s *Service) { s.detector = d }
}

// WithHTTPClient sets the client used by PreviewURL.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Service) { s.client = c }
}

// NewService creates a Service from cfg.
func NewService(cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		cfg:      cfg,
		detector: charset.Default(),
		limiter:  NewPreviewLimiter(cfg.Preview.MaxConcurrent, cfg.Preview.MaxWaitTime),
		client:   &http.Client{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PreviewRequest describes one file to preview.
type PreviewRequest struct {
	FileName string
	// Schema selects the rule set; empty skips validation.
	Schema string
	Data   []byte
	// MaxRows is the requested page size; zero uses the configured default.
	MaxRows int
	// Source is recorded in history; empty means SourceUpload.
	Source string
}

// PreviewResponse is a PreviewResult with run metadata.
type PreviewResponse struct {
	ID               string `json:"id"`
	FileName         string `json:"fileName"`
	Schema           string `json:"schema,omitempty"`
	ProcessingTimeMs int64  `json:"processingTimeMs"`
	*PreviewResult
}

// Preview validates the request against configured limits, waits for a
// preview slot and runs the pipeline.
func (s *Service) Preview(ctx context.Context, req PreviewRequest) (*PreviewResponse, error) {
	if limit := s.cfg.Preview.MaxFileSize; int64(len(req.Data)) > limit {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrFileTooLarge, len(req.Data), limit)
	}

	var fieldRules []validation.FieldRule
	if req.Schema != "" {
		schema, err := rules.Lookup(req.Schema)
		if err != nil {
			return nil, err
		}
		fieldRules = schema.Rules
		if fieldRules == nil {
			fieldRules = []validation.FieldRule{}
		}
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	id := uuid.NewString()
	log := logging.WithFields(ctx, "preview_id", id, "file", req.FileName, "schema", req.Schema)
	start := time.Now()

	res, err := parseForPreview(s.detector, req.Data, s.PageSize(req.MaxRows), fieldRules)
	if err != nil {
		log.Warn("preview failed", "error", err)
		return nil, err
	}

	resp := &PreviewResponse{
		ID:               id,
		FileName:         req.FileName,
		Schema:           req.Schema,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		PreviewResult:    res,
	}

	attrs := []any{
		"encoding", res.Encoding,
		"confidence", res.EncodingConfidence,
		"total_rows", res.TotalRows,
		"returned_rows", len(res.Rows),
		"duration_ms", resp.ProcessingTimeMs,
	}
	if res.Validation != nil {
		attrs = append(attrs, "valid", res.Validation.Valid, "error_rows", res.Validation.Summary.ErrorRows)
	}
	log.Info("preview completed", attrs...)

	s.record(ctx, req, resp)
	return resp, nil
}

// PageSize resolves a requested page size against the configured default
// and ceiling.
func (s *Service) PageSize(requested int) int {
	switch {
	case requested <= 0:
		return s.cfg.Preview.MaxRows
	case requested > s.cfg.Preview.MaxRowsLimit:
		return s.cfg.Preview.MaxRowsLimit
	}
	return requested
}

// record writes resp to history. Failures are logged and never surface to
// the caller.
func (s *Service) record(ctx context.Context, req PreviewRequest, resp *PreviewResponse) {
	if s.history == nil {
		return
	}

	source := req.Source
	if source == "" {
		source = SourceUpload
	}
	run := &store.Run{
		ID:           resp.ID,
		FileName:     resp.FileName,
		Source:       source,
		Schema:       resp.Schema,
		Encoding:     resp.Encoding,
		Confidence:   resp.EncodingConfidence,
		TotalRows:    resp.TotalRows,
		ReturnedRows: len(resp.Rows),
		TotalColumns: resp.TotalColumns,
		DurationMs:   resp.ProcessingTimeMs,
		ClientIP:     ClientIPFromContext(ctx),
		UserAgent:    UserAgentFromContext(ctx),
	}
	if v := resp.Validation; v != nil {
		valid := v.Valid
		run.Valid = &valid
		run.ErrorRows = v.Summary.ErrorRows
		run.ErrorCount = len(v.Errors)
	}

	// The run is recorded even if the client has gone away.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyWriteTimeout)
	defer cancel()
	if err := s.history.Record(writeCtx, run); err != nil {
		logging.FromContext(ctx).Error("failed to record preview run", "preview_id", resp.ID, "error", err)
	}
}

// HistoryEnabled reports whether preview runs are recorded.
func (s *Service) HistoryEnabled() bool { return s.history != nil }

// History returns the most recent preview runs.
func (s *Service) History(ctx context.Context, limit int) ([]store.Run, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	return s.history.Recent(ctx, limit)
}

// HistoryRun returns one recorded preview run.
func (s *Service) HistoryRun(ctx context.Context, id string) (*store.Run, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	return s.history.Get(ctx, id)
}

// Schemas returns every registered schema.
func (s *Service) Schemas() []rules.Schema { return rules.All() }

// Schema returns one registered schema.
func (s *Service) Schema(key string) (rules.Schema, error) { return rules.Lookup(key) }

// LimiterStatus returns the preview limiter state.
func (s *Service) LimiterStatus() LimiterStatus { return s.limiter.Status() }

// WaitForPreviews blocks until in-flight previews finish or ctx is done.
func (s *Service) WaitForPreviews(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// Config returns the service configuration.
func (s *Service) Config() *config.Config { return s.cfg }
