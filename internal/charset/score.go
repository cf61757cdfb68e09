package charset

import "unicode/utf8"

// Scorer rates decoded text. Higher is more plausible. Scores outside
// 0..100 are clamped by the detector.
type Scorer interface {
	Score(text string) int
}

// ScorerFunc adapts an ordinary function to Scorer.
type ScorerFunc func(text string) int

// Score calls f(text).
func (f ScorerFunc) Score(text string) int { return f(text) }

const (
	baseScore      = 100
	garbagePenalty = 5
	cjkBonus       = 10
	punctBonus     = 5
)

// Full-width punctuation counted by CJKScorer.
var fullWidthPunct = map[rune]struct{}{
	'，': {}, '。': {}, '、': {}, '；': {}, '：': {}, '？': {}, '！': {},
	'“': {}, '”': {}, '‘': {}, '’': {},
	'（': {}, '）': {}, '【': {}, '】': {}, '《': {}, '》': {}, '「': {}, '」': {},
}

// CJKScorer is the default heuristic. It starts at 100, takes 5 off for every
// replacement character or stray control character, and adds a bonus once
// for CJK ideographs and once for full-width punctuation.
var CJKScorer Scorer = ScorerFunc(scoreCJK)

func scoreCJK(text string) int {
	score := baseScore
	var hasCJK, hasPunct bool
	for _, r := range text {
		switch {
		case isGarbage(r):
			score -= garbagePenalty
		case isCJKIdeograph(r):
			hasCJK = true
		default:
			if _, ok := fullWidthPunct[r]; ok {
				hasPunct = true
			}
		}
	}
	if hasCJK {
		score += cjkBonus
	}
	if hasPunct {
		score += punctBonus
	}
	return clamp(score)
}

// isGarbage reports replacement characters and C0 controls other than
// tab, LF and CR.
func isGarbage(r rune) bool {
	switch {
	case r == utf8.RuneError:
		return true
	case r <= 0x08, r == 0x0B, r == 0x0C:
		return true
	case r >= 0x0E && r <= 0x1F:
		return true
	}
	return false
}

func isCJKIdeograph(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FA5
}

func clamp(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	}
	return score
}
