// Package validation checks tokenized rows against per-column rules.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind classifies a validation failure.
type Kind string

const (
	KindMissing Kind = "missing"
	KindType    Kind = "type"
	KindFormat  Kind = "format"
	KindRange   Kind = "range"
	KindEnum    Kind = "enum"
)

// FieldType is the declared type of a column.
type FieldType string

const (
	TypeNone    FieldType = ""
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeEmail   FieldType = "email"
	TypeDate    FieldType = "date"
	TypeBoolean FieldType = "boolean"
)

// ParseFieldType maps a type name to a FieldType. The empty string means
// the column has no type constraint.
func ParseFieldType(s string) (FieldType, error) {
	switch t := FieldType(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeNone, TypeString, TypeNumber, TypeEmail, TypeDate, TypeBoolean:
		return t, nil
	}
	return TypeNone, fmt.Errorf("unknown field type %q", s)
}

// FieldRule is the constraint set for one column, matched by header name.
type FieldRule struct {
	Name     string
	Required bool
	Type     FieldType
	// Pattern is matched unanchored against the trimmed value.
	Pattern *regexp.Regexp
	// Min and Max bound the value of number columns and the rune length of
	// string columns. Other types ignore them.
	Min  *float64
	Max  *float64
	Enum []string
}

// Bound returns a pointer to v for use as FieldRule.Min or FieldRule.Max.
func Bound(v float64) *float64 { return &v }

// Error describes one failing cell. Row is 1-based over data rows; row 0
// refers to the file as a whole.
type Error struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Value   string `json:"value"`
	Message string `json:"message"`
	Kind    Kind   `json:"kind"`
}

func (e Error) Error() string {
	if e.Row == 0 {
		return e.Message
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// Summary counts rows by outcome.
type Summary struct {
	TotalRows   int `json:"totalRows"`
	ValidRows   int `json:"validRows"`
	ErrorRows   int `json:"errorRows"`
	WarningRows int `json:"warningRows"`
}

// Result is the outcome of validating a set of rows.
type Result struct {
	Valid    bool    `json:"valid"`
	Errors   []Error `json:"errors"`
	Warnings []Error `json:"warnings"`
	Summary  Summary `json:"summary"`
}
