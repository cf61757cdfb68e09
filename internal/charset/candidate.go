// Package charset guesses the byte encoding of an uploaded text file and
// decodes it to UTF-8.
//
// Detection is heuristic: every Candidate decodes the buffer and a Scorer
// rates how plausible the resulting text looks. The candidate list and the
// scorer are both plain data, so callers can reorder candidates or swap the
// heuristic without touching the detector.
package charset

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// Encoding labels reported in a Detection.
const (
	UTF8     = "utf-8"
	Big5     = "big5"
	GBK      = "gbk"
	GB2312   = "gb2312"
	ShiftJIS = "shift_jis"
)

// Candidate is one encoding the detector may try.
type Candidate interface {
	// Name is the label reported when this candidate wins.
	Name() string
	// Decode converts b to UTF-8. Malformed sequences become U+FFFD.
	Decode(b []byte) (string, error)
}

type textCandidate struct {
	name string
	enc  encoding.Encoding
}

// NewCandidate returns a Candidate backed by the WHATWG encoding registered
// under label. The label is also the name reported on a match.
func NewCandidate(label string) (Candidate, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("charset: unknown encoding %q: %w", label, err)
	}
	return textCandidate{name: label, enc: enc}, nil
}

// MustCandidate is like NewCandidate but panics on an unknown label.
func MustCandidate(label string) Candidate {
	c, err := NewCandidate(label)
	if err != nil {
		panic(err)
	}
	return c
}

func (c textCandidate) Name() string { return c.name }

func (c textCandidate) Decode(b []byte) (string, error) {
	out, err := c.enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// DefaultCandidates returns the built-in candidates in priority order.
// gb2312 is decoded with the GBK table, so it can only tie with gbk and
// never outranks it.
func DefaultCandidates() []Candidate {
	return []Candidate{
		MustCandidate(UTF8),
		MustCandidate(Big5),
		MustCandidate(GBK),
		MustCandidate(GB2312),
		MustCandidate(ShiftJIS),
	}
}
