// Package store persists preview run metadata to PostgreSQL.
//
// Only the outcome of a preview is stored (file name, schema, detected
// encoding and row counts). Uploaded rows themselves are never written.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("preview run not found")

// DefaultHistoryLimit is the page size used when Recent is called with a
// non-positive limit.
const DefaultHistoryLimit = 50

// MaxHistoryLimit caps the page size of Recent.
const MaxHistoryLimit = 500

// Run is one recorded preview.
type Run struct {
	ID           string    `json:"id"`
	FileName     string    `json:"fileName"`
	Source       string    `json:"source"`
	Schema       string    `json:"schema,omitempty"`
	Encoding     string    `json:"encoding"`
	Confidence   int       `json:"encodingConfidence"`
	TotalRows    int       `json:"totalRows"`
	ReturnedRows int       `json:"returnedRows"`
	TotalColumns int       `json:"totalColumns"`
	Valid        *bool     `json:"valid,omitempty"` // nil when no schema was applied
	ErrorRows    int       `json:"errorRows"`
	ErrorCount   int       `json:"errorCount"`
	DurationMs   int64     `json:"durationMs"`
	ClientIP     string    `json:"clientIp,omitempty"`
	UserAgent    string    `json:"userAgent,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Schema creates the preview_runs table.
const Schema = `
CREATE TABLE IF NOT EXISTS preview_runs (
    id             UUID PRIMARY KEY,
    file_name      TEXT NOT NULL,
    source         TEXT NOT NULL,
    schema_key     TEXT,
    encoding       TEXT NOT NULL,
    confidence     INTEGER NOT NULL,
    total_rows     INTEGER NOT NULL,
    returned_rows  INTEGER NOT NULL,
    total_columns  INTEGER NOT NULL,
    valid          BOOLEAN,
    error_rows     INTEGER NOT NULL DEFAULT 0,
    error_count    INTEGER NOT NULL DEFAULT 0,
    duration_ms    BIGINT NOT NULL DEFAULT 0,
    client_ip      TEXT,
    user_agent     TEXT,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS preview_runs_created_at_idx ON preview_runs (created_at DESC);
`

const runColumns = `id, file_name, source, schema_key, encoding, confidence,
    total_rows, returned_rows, total_columns, valid, error_rows, error_count,
    duration_ms, client_ip, user_agent, created_at`

// History reads and writes preview runs.
type History struct {
	db DBTX
}

// NewHistory returns a History backed by db.
func NewHistory(db DBTX) *History {
	return &History{db: db}
}

// Migrate creates the history table if it does not exist.
func (h *History) Migrate(ctx context.Context) error {
	if _, err := h.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("migrate preview_runs: %w", err)
	}
	return nil
}

// Record inserts run. A missing ID is generated and the stored creation
// time is written back into run.
func (h *History) Record(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	id := ToPgUUID(run.ID)
	if !id.Valid {
		return fmt.Errorf("record preview run: invalid id %q", run.ID)
	}

	var createdAt pgtype.Timestamptz
	err := h.db.QueryRow(ctx, `
INSERT INTO preview_runs (
    id, file_name, source, schema_key, encoding, confidence,
    total_rows, returned_rows, total_columns, valid, error_rows, error_count, duration_ms,
    client_ip, user_agent
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
RETURNING created_at`,
		id,
		run.FileName,
		run.Source,
		ToPgText(run.Schema),
		run.Encoding,
		int32(run.Confidence),
		int32(run.TotalRows),
		int32(run.ReturnedRows),
		int32(run.TotalColumns),
		ToPgBool(run.Valid),
		int32(run.ErrorRows),
		int32(run.ErrorCount),
		run.DurationMs,
		ToPgText(run.ClientIP),
		ToPgText(run.UserAgent),
	).Scan(&createdAt)
	if err != nil {
		return fmt.Errorf("record preview run: %w", err)
	}
	run.CreatedAt = createdAt.Time
	return nil
}

// Recent returns the newest runs first.
func (h *History) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	rows, err := h.db.Query(ctx,
		`SELECT `+runColumns+` FROM preview_runs ORDER BY created_at DESC LIMIT $1`,
		int32(limit))
	if err != nil {
		return nil, fmt.Errorf("query preview runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan preview run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate preview runs: %w", err)
	}
	return runs, nil
}

// Get returns a single run by ID.
func (h *History) Get(ctx context.Context, id string) (*Run, error) {
	pgID := ToPgUUID(id)
	if !pgID.Valid {
		return nil, ErrNotFound
	}

	row := h.db.QueryRow(ctx, `SELECT `+runColumns+` FROM preview_runs WHERE id = $1`, pgID)
	run, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get preview run: %w", err)
	}
	return run, nil
}

// Prune deletes runs older than the cutoff and returns how many were removed.
func (h *History) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := h.db.Exec(ctx, `DELETE FROM preview_runs WHERE created_at < $1`,
		pgtype.Timestamptz{Time: olderThan, Valid: true})
	if err != nil {
		return 0, fmt.Errorf("prune preview runs: %w", err)
	}
	return tag.RowsAffected(), nil
}

// scanRun scans a single preview_runs row selected with runColumns.
func scanRun(row pgx.Row) (*Run, error) {
	var (
		id           pgtype.UUID
		fileName     string
		source       string
		schemaKey    pgtype.Text
		encoding     string
		confidence   int32
		totalRows    int32
		returnedRows int32
		totalColumns int32
		valid        pgtype.Bool
		errorRows    int32
		errorCount   int32
		durationMs   int64
		clientIP     pgtype.Text
		userAgent    pgtype.Text
		createdAt    pgtype.Timestamptz
	)

	err := row.Scan(
		&id, &fileName, &source, &schemaKey, &encoding, &confidence,
		&totalRows, &returnedRows, &totalColumns, &valid, &errorRows, &errorCount,
		&durationMs, &clientIP, &userAgent, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	run := &Run{
		ID:           PgUUIDToString(id),
		FileName:     fileName,
		Source:       source,
		Encoding:     encoding,
		Confidence:   int(confidence),
		TotalRows:    int(totalRows),
		ReturnedRows: int(returnedRows),
		TotalColumns: int(totalColumns),
		ErrorRows:    int(errorRows),
		ErrorCount:   int(errorCount),
		DurationMs:   durationMs,
		CreatedAt:    createdAt.Time,
	}
	if schemaKey.Valid {
		run.Schema = schemaKey.String
	}
	if clientIP.Valid {
		run.ClientIP = clientIP.String
	}
	if userAgent.Valid {
		run.UserAgent = userAgent.String
	}
	if valid.Valid {
		v := valid.Bool
		run.Valid = &v
	}
	return run, nil
}
