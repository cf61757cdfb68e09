package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/core"
)

// Sheet names in the workbook.
const (
	SheetSummary = "Summary"
	SheetPreview = "Preview"
	SheetErrors  = "Errors"
)

const (
	headerFill = "#D9E1F2"
	errorFill  = "#FFC7CE"
)

// Workbook builds an XLSX report for resp. The caller must Close it.
func Workbook(resp *core.PreviewResponse) (*excelize.File, error) {
	f := excelize.NewFile()

	b := &builder{f: f}
	if err := b.init(); err != nil {
		f.Close()
		return nil, err
	}

	steps := []func(*core.PreviewResponse) error{
		b.summary,
		b.preview,
		b.errorList,
	}
	for _, step := range steps {
		if err := step(resp); err != nil {
			f.Close()
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

// WriteXLSX renders the XLSX report for resp to w.
func WriteXLSX(w io.Writer, resp *core.PreviewResponse) error {
	f, err := Workbook(resp)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

type builder struct {
	f           *excelize.File
	headerStyle int
	errorStyle  int
}

func (b *builder) init() error {
	// NewFile starts with a single sheet named "Sheet1".
	if err := b.f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetPreview, SheetErrors} {
		if _, err := b.f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	var err error
	b.headerStyle, err = b.f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{headerFill}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	b.errorStyle, err = b.f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{errorFill}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("error style: %w", err)
	}
	return nil
}

func (b *builder) summary(resp *core.PreviewResponse) error {
	rows := [][]any{
		{"File", resp.FileName},
		{"Schema", resp.Schema},
		{"Encoding", resp.Encoding},
		{"Encoding confidence", resp.EncodingConfidence},
		{"Total rows", resp.TotalRows},
		{"Previewed rows", len(resp.Rows)},
		{"Columns", resp.TotalColumns},
		{"Has more", resp.HasMore},
	}
	if v := resp.Validation; v != nil {
		rows = append(rows,
			[]any{"Valid", v.Valid},
			[]any{"Valid rows", v.Summary.ValidRows},
			[]any{"Error rows", v.Summary.ErrorRows},
			[]any{"Errors", len(v.Errors)},
		)
	}

	if err := b.writeRows(SheetSummary, 1, rows); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(1, len(rows))
	if err := b.f.SetCellStyle(SheetSummary, "A1", last, b.headerStyle); err != nil {
		return err
	}
	return b.f.SetColWidth(SheetSummary, "A", "A", 22)
}

func (b *builder) preview(resp *core.PreviewResponse) error {
	header := make([]any, len(resp.Headers))
	for i, h := range resp.Headers {
		header[i] = h
	}
	if err := b.writeHeader(SheetPreview, header); err != nil {
		return err
	}

	bad := errorCells(resp.Validation)
	col := make(map[string]int, len(resp.Headers))
	for i := len(resp.Headers) - 1; i >= 0; i-- {
		col[resp.Headers[i]] = i + 1
	}

	for i, row := range resp.Rows {
		line := i + 1
		cells := make([]any, len(row))
		for j, c := range row {
			cells[j] = c
		}
		if err := b.writeRows(SheetPreview, line+1, [][]any{cells}); err != nil {
			return err
		}
		for name := range bad[line] {
			c, ok := col[name]
			if !ok {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c, line+1)
			if err := b.f.SetCellStyle(SheetPreview, cell, cell, b.errorStyle); err != nil {
				return err
			}
		}
	}

	return b.freezeHeader(SheetPreview)
}

func (b *builder) errorList(resp *core.PreviewResponse) error {
	if err := b.writeHeader(SheetErrors, []any{"Row", "Column", "Kind", "Message", "Value"}); err != nil {
		return err
	}
	if resp.Validation == nil {
		return nil
	}

	rows := make([][]any, len(resp.Validation.Errors))
	for i, e := range resp.Validation.Errors {
		rows[i] = []any{e.Row, e.Column, string(e.Kind), e.Message, e.Value}
	}
	if err := b.writeRows(SheetErrors, 2, rows); err != nil {
		return err
	}
	if err := b.f.SetColWidth(SheetErrors, "D", "D", 50); err != nil {
		return err
	}
	return b.freezeHeader(SheetErrors)
}

func (b *builder) writeHeader(sheet string, header []any) error {
	if len(header) == 0 {
		return nil
	}
	if err := b.writeRows(sheet, 1, [][]any{header}); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	return b.f.SetCellStyle(sheet, "A1", last, b.headerStyle)
}

// writeRows writes rows starting at the given 1-based row.
func (b *builder) writeRows(sheet string, start int, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, start+i)
		if err != nil {
			return err
		}
		if err := b.f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

func (b *builder) freezeHeader(sheet string) error {
	return b.f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
