// Package report renders preview results as downloadable files.
//
// Two formats are supported: a failed-rows CSV that repeats each offending
// row with its error messages, and an XLSX workbook with a summary sheet,
// the preview page with failing cells highlighted, and an error list.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/core"
	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/validation"
)

// FailedRowsCSV writes the rows of res that failed validation. Each record is
// the 1-based line number, the joined error messages and the row's cells.
// File-level errors (row 0) come first with empty cells.
func FailedRowsCSV(w io.Writer, res *core.PreviewResult) error {
	cw := csv.NewWriter(w)

	header := append([]string{"_line", "_error"}, res.Headers...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, fr := range FailedRows(res) {
		record := make([]string, 0, 2+len(res.Headers))
		record = append(record, strconv.Itoa(fr.Row), strings.Join(fr.Messages, "; "))
		if fr.Cells != nil {
			record = append(record, fr.Cells...)
		} else {
			record = append(record, make([]string, len(res.Headers))...)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", fr.Row, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// FailedRow groups the errors reported for one row.
type FailedRow struct {
	Row      int
	Messages []string
	Columns  []string
	// Cells is nil for file-level errors.
	Cells []string
}

// FailedRows groups validation errors by row in ascending row order.
// It returns nil when res carries no validation.
func FailedRows(res *core.PreviewResult) []FailedRow {
	if res.Validation == nil || len(res.Validation.Errors) == 0 {
		return nil
	}

	byRow := make(map[int]*FailedRow)
	for _, e := range res.Validation.Errors {
		fr, ok := byRow[e.Row]
		if !ok {
			fr = &FailedRow{Row: e.Row}
			if e.Row > 0 && e.Row <= len(res.Rows) {
				fr.Cells = res.Rows[e.Row-1]
			}
			byRow[e.Row] = fr
		}
		fr.Messages = append(fr.Messages, e.Message)
		fr.Columns = append(fr.Columns, e.Column)
	}

	out := make([]FailedRow, 0, len(byRow))
	for _, fr := range byRow {
		out = append(out, *fr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Row < out[j].Row })
	return out
}

// errorCells returns the set of (row, column) pairs that failed, keyed by
// 1-based row then column name.
func errorCells(v *validation.Result) map[int]map[string]bool {
	cells := make(map[int]map[string]bool)
	if v == nil {
		return cells
	}
	for _, e := range v.Errors {
		if e.Row == 0 {
			continue
		}
		if cells[e.Row] == nil {
			cells[e.Row] = make(map[string]bool)
		}
		cells[e.Row][e.Column] = true
	}
	return cells
}
