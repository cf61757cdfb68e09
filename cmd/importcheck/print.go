package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/rules"
)

// maxPrintedErrors caps the validation errors listed per file.
const maxPrintedErrors = 10

var (
	okMark   = color.New(color.FgGreen, color.Bold)
	failMark = color.New(color.FgRed, color.Bold)
	dim      = color.New(color.Faint)
	warn     = color.New(color.FgYellow)
)

func printJSON(w io.Writer, results []fileResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func printResults(w io.Writer, results []fileResult) {
	passed := 0
	for _, r := range results {
		printResult(w, r)
		if r.ok() {
			passed++
		}
	}

	summary := fmt.Sprintf("%d/%d files passed", passed, len(results))
	if passed == len(results) {
		okMark.Fprintln(w, summary)
	} else {
		failMark.Fprintln(w, summary)
	}
}

func printResult(w io.Writer, r fileResult) {
	if r.ErrorErr != nil {
		failMark.Fprint(w, "FAIL ")
		fmt.Fprintf(w, "%s: %s\n", r.Path, r.Error)
		return
	}

	p := r.Preview
	if r.ok() {
		okMark.Fprint(w, "OK   ")
	} else {
		failMark.Fprint(w, "FAIL ")
	}
	fmt.Fprintf(w, "%s ", r.Path)
	dim.Fprintf(w, "(%s, confidence %d, %d rows, %d columns)\n",
		p.Encoding, p.EncodingConfidence, p.TotalRows, p.TotalColumns)

	if p.HasMore {
		warn.Fprintf(w, "     only the first %d rows were checked\n", len(p.Rows))
	}

	v := p.Validation
	if v == nil || v.Valid {
		return
	}
	fmt.Fprintf(w, "     %d of %d rows have errors\n", v.Summary.ErrorRows, v.Summary.TotalRows)
	for i, e := range v.Errors {
		if i == maxPrintedErrors {
			dim.Fprintf(w, "     ... %d more\n", len(v.Errors)-maxPrintedErrors)
			break
		}
		fmt.Fprintf(w, "     - %s\n", e.Error())
	}
}

func printSchemas(w io.Writer, schemas []rules.Schema) {
	group := ""
	for _, s := range schemas {
		if s.Group != group {
			group = s.Group
			okMark.Fprintln(w, group)
		}
		fmt.Fprintf(w, "  %-20s %s\n", s.Key, s.Label)
		if req := s.RequiredColumns(); len(req) > 0 {
			dim.Fprintf(w, "  %-20s required: %s\n", "", strings.Join(req, ", "))
		}
	}
}
