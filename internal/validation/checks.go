package validation

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// typeCheck is the behaviour attached to one FieldType.
type typeCheck interface {
	// accept reports whether value is well formed for the type.
	accept(value string) bool
	// failure is the kind and message reported when accept fails.
	failure(column string) (Kind, string)
	// measure returns the quantity compared against Min and Max, or false
	// when the type has no range semantics.
	measure(value string) (float64, bool)
	// unit names what measure counts, for range messages.
	unit() string
}

var typeChecks = map[FieldType]typeCheck{
	TypeNone:    untypedCheck{},
	TypeString:  stringCheck{},
	TypeNumber:  numberCheck{},
	TypeEmail:   emailCheck{},
	TypeDate:    dateCheck{},
	TypeBoolean: booleanCheck{},
}

func checkFor(t FieldType) typeCheck {
	if c, ok := typeChecks[t]; ok {
		return c
	}
	return untypedCheck{}
}

type untypedCheck struct{}

func (untypedCheck) accept(string) bool { return true }
func (untypedCheck) failure(string) (Kind, string) { return KindType, "" }
func (untypedCheck) measure(string) (float64, bool) { return 0, false }
func (untypedCheck) unit() string { return "" }

type stringCheck struct{}

func (stringCheck) accept(string) bool { return true }
func (stringCheck) failure(string) (Kind, string) { return KindType, "" }
func (stringCheck) measure(v string) (float64, bool) {
	return float64(utf8.RuneCountInString(v)), true
}
func (stringCheck) unit() string { return " characters" }

type numberCheck struct{}

func (numberCheck) accept(v string) bool {
	_, ok := parseNumber(v)
	return ok
}
func (numberCheck) failure(col string) (Kind, string) {
	return KindType, col + " must be a number"
}
func (numberCheck) measure(v string) (float64, bool) { return parseNumber(v) }
func (numberCheck) unit() string { return "" }

func parseNumber(v string) (float64, bool) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// \s is ASCII-only in RE2, so Unicode spaces (U+3000, U+00A0) and the BOM are
// excluded explicitly.
var emailPattern = regexp.MustCompile(`^[^\s\p{Z}\x{FEFF}@]+@[^\s\p{Z}\x{FEFF}@]+\.[^\s\p{Z}\x{FEFF}@]+$`)

type emailCheck struct{}

func (emailCheck) accept(v string) bool { return emailPattern.MatchString(v) }
func (emailCheck) failure(col string) (Kind, string) {
	return KindFormat, col + " must be a valid email address"
}
func (emailCheck) measure(string) (float64, bool) { return 0, false }
func (emailCheck) unit() string { return "" }

var dateLayouts = []struct {
	shape  *regexp.Regexp
	layout string
}{
	{regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`), "2006-01-02"},
	{regexp.MustCompile(`^\d{4}/\d{2}/\d{2}$`), "2006/01/02"},
	{regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`), "02-01-2006"},
	{regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`), "02/01/2006"},
}

type dateCheck struct{}

// accept requires one of the four layouts and a real calendar date.
func (dateCheck) accept(v string) bool {
	for _, d := range dateLayouts {
		if !d.shape.MatchString(v) {
			continue
		}
		_, err := time.Parse(d.layout, v)
		return err == nil
	}
	return false
}
func (dateCheck) failure(col string) (Kind, string) {
	return KindFormat, col + " must be a date (YYYY-MM-DD, YYYY/MM/DD, DD-MM-YYYY or DD/MM/YYYY)"
}
func (dateCheck) measure(string) (float64, bool) { return 0, false }
func (dateCheck) unit() string { return "" }

var booleanValues = map[string]struct{}{
	"true": {}, "false": {},
	"yes": {}, "no": {},
	"1": {}, "0": {},
	"是": {}, "否": {},
}

type booleanCheck struct{}

func (booleanCheck) accept(v string) bool {
	_, ok := booleanValues[strings.ToLower(v)]
	return ok
}
func (booleanCheck) failure(col string) (Kind, string) {
	return KindType, col + " must be a boolean (true/false, yes/no, 1/0, 是/否)"
}
func (booleanCheck) measure(string) (float64, bool) { return 0, false }
func (booleanCheck) unit() string { return "" }
