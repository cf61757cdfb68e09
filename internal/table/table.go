// Package table turns decoded CSV text into a header row and data rows.
//
// The scanner is line oriented: CR and LF both end a line and a quoted field
// cannot span lines. Every field is trimmed, quoted ones included, and each
// data row is padded or truncated to the header width.
package table

import (
	"errors"
	"strings"
)

// ErrEmptyFile is returned when the text holds no non-blank line.
var ErrEmptyFile = errors.New("empty file")

// Table is a tokenized file. Every row has exactly len(Headers) cells.
type Table struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// Document is the line view of a decoded file. The first line is the header.
// Data rows are tokenized lazily so a preview can count every line while
// only splitting the ones it returns.
type Document struct {
	lines   []string
	headers []string
}

// Split breaks text into non-blank lines and tokenizes the header.
func Split(text string) (*Document, error) {
	lines := Lines(text)
	if len(lines) == 0 {
		return nil, ErrEmptyFile
	}
	return &Document{lines: lines, headers: ParseLine(lines[0])}, nil
}

// Headers returns the header cells.
func (d *Document) Headers() []string { return d.headers }

// RowCount is the number of data lines, header excluded.
func (d *Document) RowCount() int { return len(d.lines) - 1 }

// Rows tokenizes up to limit data lines. A negative limit returns every row.
func (d *Document) Rows(limit int) [][]string {
	data := d.lines[1:]
	if limit >= 0 && limit < len(data) {
		data = data[:limit]
	}
	rows := make([][]string, len(data))
	for i, line := range data {
		rows[i] = Normalize(ParseLine(line), len(d.headers))
	}
	return rows
}

// Table tokenizes up to limit data rows. A negative limit means all of them.
func (d *Document) Table(limit int) Table {
	return Table{Headers: d.headers, Rows: d.Rows(limit)}
}

// Parse tokenizes the whole text.
func Parse(text string) (Table, error) {
	doc, err := Split(text)
	if err != nil {
		return Table{}, err
	}
	return doc.Table(-1), nil
}

// Lines splits text on CR and LF and drops lines that are empty after
// trimming whitespace. Lines are returned untrimmed.
func Lines(text string) []string {
	raw := strings.FieldsFunc(text, func(r rune) bool {
		return r == '\r' || r == '\n'
	})
	lines := raw[:0]
	for _, line := range raw {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Normalize pads row with empty strings or truncates it to width.
func Normalize(row []string, width int) []string {
	switch {
	case len(row) == width:
		return row
	case len(row) > width:
		return row[:width]
	}
	out := make([]string, width)
	copy(out, row)
	return out
}
