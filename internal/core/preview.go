package core

import (
	"fmt"

	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/charset"
	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/table"
	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/validation"
)

// DefaultPreviewRows is the page size used when ParseForPreview is asked for
// a non-positive number of rows.
const DefaultPreviewRows = 100

// PreviewResult is the first page of a decoded, tokenized file plus the
// validation outcome for that page.
type PreviewResult struct {
	Headers            []string           `json:"headers"`
	Rows               [][]string         `json:"rows"`
	TotalRows          int                `json:"totalRows"`
	TotalColumns       int                `json:"totalColumns"`
	HasMore            bool               `json:"hasMore"`
	Encoding           string             `json:"encoding"`
	EncodingConfidence int                `json:"encodingConfidence"`
	Validation         *validation.Result `json:"validation,omitempty"`
}

// ParseForPreview decodes data, tokenizes it and returns at most maxRows
// data rows. TotalRows counts every non-blank data line in the file. When
// rules is non-nil only the returned rows are validated.
//
// The only error is a wrapped table.ErrEmptyFile.
func ParseForPreview(data []byte, maxRows int, rules []validation.FieldRule) (*PreviewResult, error) {
	return parseForPreview(charset.Default(), data, maxRows, rules)
}

func parseForPreview(det *charset.Detector, data []byte, maxRows int, rules []validation.FieldRule) (*PreviewResult, error) {
	if maxRows <= 0 {
		maxRows = DefaultPreviewRows
	}

	enc := det.Detect(data)

	doc, err := table.Split(enc.Text)
	if err != nil {
		return nil, fmt.Errorf("parse preview: %w", err)
	}

	headers := doc.Headers()
	rows := doc.Rows(maxRows)
	total := doc.RowCount()

	res := &PreviewResult{
		Headers:            headers,
		Rows:               rows,
		TotalRows:          total,
		TotalColumns:       len(headers),
		HasMore:            total > maxRows,
		Encoding:           enc.Encoding,
		EncodingConfidence: enc.Confidence,
	}

	if rules != nil {
		v := validation.Validate(headers, rows, rules)
		res.Validation = &v
	}

	return res, nil
}
