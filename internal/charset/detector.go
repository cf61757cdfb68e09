package charset

import (
	"bytes"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Detection is the outcome of sniffing a byte buffer.
type Detection struct {
	Encoding   string `json:"encoding"`
	Confidence int    `json:"confidence"`
	// Text is the buffer decoded with Encoding, BOM removed.
	Text string `json:"-"`
}

// Detector picks the most plausible decoding among its candidates.
// A Detector is immutable and safe for concurrent use.
type Detector struct {
	candidates []Candidate
	scorer     Scorer
}

// NewDetector returns a detector trying candidates in order. Earlier
// candidates win ties. A nil scorer means CJKScorer.
func NewDetector(candidates []Candidate, scorer Scorer) *Detector {
	if scorer == nil {
		scorer = CJKScorer
	}
	cs := make([]Candidate, len(candidates))
	copy(cs, candidates)
	return &Detector{candidates: cs, scorer: scorer}
}

var defaultDetector = NewDetector(DefaultCandidates(), CJKScorer)

// Default returns the detector used by Detect.
func Default() *Detector { return defaultDetector }

// Detect runs the default detector over buf.
func Detect(buf []byte) Detection { return defaultDetector.Detect(buf) }

// Candidates returns the candidate names in priority order.
func (d *Detector) Candidates() []string {
	names := make([]string, len(d.candidates))
	for i, c := range d.candidates {
		names[i] = c.Name()
	}
	return names
}

// Detect returns the best-scoring decoding of buf. A UTF-8 byte order mark
// short-circuits detection with full confidence. If no candidate decodes at
// all the buffer is read as UTF-8 with confidence 0.
func (d *Detector) Detect(buf []byte) Detection {
	if bytes.HasPrefix(buf, utf8BOM) {
		return Detection{
			Encoding:   UTF8,
			Confidence: 100,
			Text:       toValidUTF8(buf[len(utf8BOM):]),
		}
	}

	var best *Detection
	for _, c := range d.candidates {
		text, err := c.Decode(buf)
		if err != nil {
			continue
		}
		score := clamp(d.scorer.Score(text))
		if best == nil || score > best.Confidence {
			best = &Detection{Encoding: c.Name(), Confidence: score, Text: text}
		}
	}
	if best == nil {
		return Detection{Encoding: UTF8, Confidence: 0, Text: toValidUTF8(buf)}
	}
	return *best
}

func toValidUTF8(b []byte) string {
	return strings.ToValidUTF8(string(b), "\uFFFD")
}
