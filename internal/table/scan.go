package table

import "strings"

type scanState int

const (
	stateField scanState = iota
	stateQuoted
)

// ParseLine splits one line into trimmed fields.
//
// A double quote outside a quoted section opens one; inside, a doubled quote
// is a literal quote and a single quote closes the section. Commas only
// separate fields outside quotes. An unterminated quote runs to end of line.
func ParseLine(line string) []string {
	var (
		fields []string
		field  strings.Builder
		state  = stateField
	)
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch state {
		case stateQuoted:
			switch {
			case c == '"' && i+1 < len(runes) && runes[i+1] == '"':
				field.WriteRune('"')
				i++
			case c == '"':
				state = stateField
			default:
				field.WriteRune(c)
			}
		case stateField:
			switch c {
			case '"':
				state = stateQuoted
			case ',':
				fields = append(fields, strings.TrimSpace(field.String()))
				field.Reset()
			default:
				field.WriteRune(c)
			}
		}
	}
	return append(fields, strings.TrimSpace(field.String()))
}
