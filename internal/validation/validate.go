package validation

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Validate checks rows against rules.
//
// Required columns are checked first. If any is absent from headers, one
// row-0 error per missing column is reported, every row counts as an error
// row, and no cell is inspected. Otherwise each rule is applied to its cell
// in every row and stops at the first failing check for that cell. Rules
// naming a column that is absent and optional are skipped.
func Validate(headers []string, rows [][]string, rules []FieldRule) Result {
	res := Result{
		Errors:   []Error{},
		Warnings: []Error{},
		Summary:  Summary{TotalRows: len(rows)},
	}

	index := columnIndex(headers)

	for _, rule := range rules {
		if _, ok := index[rule.Name]; rule.Required && !ok {
			res.Errors = append(res.Errors, Error{
				Row:     0,
				Column:  rule.Name,
				Message: fmt.Sprintf("missing required column %q", rule.Name),
				Kind:    KindMissing,
			})
		}
	}
	if len(res.Errors) > 0 {
		res.Summary.ErrorRows = len(rows)
		return res
	}

	for i, row := range rows {
		failed := false
		for _, rule := range rules {
			col, ok := index[rule.Name]
			if !ok {
				continue
			}
			var value string
			if col < len(row) {
				value = row[col]
			}
			if err, bad := checkField(rule, value); bad {
				err.Row = i + 1
				res.Errors = append(res.Errors, err)
				failed = true
			}
		}
		if failed {
			res.Summary.ErrorRows++
		}
	}

	res.Valid = len(res.Errors) == 0
	res.Summary.ValidRows = res.Summary.TotalRows - res.Summary.ErrorRows
	return res
}

// columnIndex maps each header to its position. The first occurrence of a
// duplicated header wins.
func columnIndex(headers []string) map[string]int {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}
	return index
}

// checkField runs the check sequence for one cell and reports the first
// failure.
func checkField(rule FieldRule, raw string) (Error, bool) {
	value := strings.TrimSpace(raw)
	fail := func(kind Kind, msg string) (Error, bool) {
		return Error{Column: rule.Name, Value: value, Message: msg, Kind: kind}, true
	}

	if value == "" {
		if rule.Required {
			return fail(KindMissing, rule.Name+" is required")
		}
		return Error{}, false
	}

	check := checkFor(rule.Type)
	if !check.accept(value) {
		return fail(check.failure(rule.Name))
	}

	if rule.Pattern != nil && !rule.Pattern.MatchString(value) {
		return fail(KindFormat, rule.Name+" does not match the required format")
	}

	if rule.Min != nil || rule.Max != nil {
		if n, ok := check.measure(value); ok {
			if msg := rangeMessage(rule, n, check.unit()); msg != "" {
				return fail(KindRange, msg)
			}
		}
	}

	if len(rule.Enum) > 0 && !slices.Contains(rule.Enum, value) {
		return fail(KindEnum, fmt.Sprintf("%s must be one of: %s", rule.Name, strings.Join(rule.Enum, ", ")))
	}

	return Error{}, false
}

func rangeMessage(rule FieldRule, n float64, unit string) string {
	tooLow := rule.Min != nil && n < *rule.Min
	tooHigh := rule.Max != nil && n > *rule.Max
	if !tooLow && !tooHigh {
		return ""
	}
	switch {
	case rule.Min != nil && rule.Max != nil:
		return fmt.Sprintf("%s must be between %s and %s%s", rule.Name, formatBound(*rule.Min), formatBound(*rule.Max), unit)
	case rule.Min != nil:
		return fmt.Sprintf("%s must be at least %s%s", rule.Name, formatBound(*rule.Min), unit)
	default:
		return fmt.Sprintf("%s must be at most %s%s", rule.Name, formatBound(*rule.Max), unit)
	}
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
