package bookindex

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// DefaultThreshold is the highest score ScoreMatcher accepts by default.
const DefaultThreshold = 0.4

// Matcher picks the book name that best matches a candidate. Ties must go
// to the lowest index so results do not depend on anything but the inputs.
type Matcher interface {
	BestMatch(candidate string, names []string) (index int, ok bool)
}

// ScoringMatcher is a Matcher that also reports how good its match is,
// on a scale where 0 is exact and higher is worse.
type ScoringMatcher interface {
	Matcher
	BestMatchScore(candidate string, names []string) (index int, score float64, ok bool)
}

// ScoreMatcher matches case-insensitively after Unicode folding. Scores:
//
//	0              equal after folding
//	0.1            candidate is a prefix of the name ("Gen" → "Genesis")
//	0.2            each candidate word prefixes a name word, in order,
//	               starting with the first ("II Кор" → "II до Коринтян")
//	0.2 + 0.8*d    otherwise, where d is the edit distance ratio against the
//	               whole name or its same-length prefix, whichever is lower
//
// Names that both start with a book numeral never match when the numerals
// differ, so "2 Corinthians" cannot land on "1 Corinthians".
//
// A match is accepted when its score is at most Threshold.
type ScoreMatcher struct {
	Threshold float64
}

// NewScoreMatcher returns a ScoreMatcher with the given threshold, or
// DefaultThreshold when threshold is not positive.
func NewScoreMatcher(threshold float64) ScoreMatcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return ScoreMatcher{Threshold: threshold}
}

// BestMatch implements Matcher.
func (m ScoreMatcher) BestMatch(candidate string, names []string) (int, bool) {
	i, _, ok := m.BestMatchScore(candidate, names)
	return i, ok
}

// BestMatchScore implements ScoringMatcher.
func (m ScoreMatcher) BestMatchScore(candidate string, names []string) (int, float64, bool) {
	c := Fold(candidate)
	best, bestScore := -1, 0.0
	for i, name := range names {
		s := score(c, Fold(name))
		if s > m.Threshold {
			continue
		}
		if best < 0 || s < bestScore {
			best, bestScore = i, s
			if s == 0 {
				break
			}
		}
	}
	return best, bestScore, best >= 0
}

// Score returns the score of candidate against a single name.
func (m ScoreMatcher) Score(candidate, name string) float64 {
	return score(Fold(candidate), Fold(name))
}

// bookNumerals maps folded Roman numerals, Latin or Cyrillic, to digits.
var bookNumerals = map[string]string{
	"i": "1", "ii": "2", "iii": "3",
	"і": "1", "іі": "2", "ііі": "3",
}

// Fold normalizes a book name for comparison: NFC, Unicode case folding,
// apostrophes dropped, periods and whitespace collapsed to single spaces.
// A leading book numeral becomes a separate digit word, so "II Kings",
// "2 Kings" and "2Kings" all fold to "2 kings".
func Fold(s string) string {
	s = cases.Fold().String(norm.NFC.String(s))
	s = strings.NewReplacer("'", "", "’", "", "ʼ", "", ".", " ").Replace(s)
	fields := strings.Fields(s)
	if len(fields) > 1 {
		if d, ok := bookNumerals[fields[0]]; ok {
			fields[0] = d
		}
	}
	if len(fields) > 0 {
		if f := fields[0]; len(f) > 1 && f[0] >= '1' && f[0] <= '3' {
			if r, _ := utf8.DecodeRuneInString(f[1:]); unicode.IsLetter(r) {
				fields = append([]string{f[:1], f[1:]}, fields[1:]...)
			}
		}
	}
	return strings.Join(fields, " ")
}

// numeral returns the leading book numeral of a folded name, or "".
func numeral(s string) string {
	if len(s) > 1 && s[0] >= '1' && s[0] <= '3' && s[1] == ' ' {
		return s[:1]
	}
	return ""
}

// minFuzzyLen is the shortest candidate scored by edit distance.
const minFuzzyLen = 3

func score(c, n string) float64 {
	switch {
	case c == "" || n == "":
		return 1
	case numeral(c) != "" && numeral(n) != "" && numeral(c) != numeral(n):
		return 1
	case c == n:
		return 0
	case utf8.RuneCountInString(c) >= 2 && strings.HasPrefix(n, c):
		return 0.1
	case wordPrefix(c, n):
		return 0.2
	}

	cr, nr := []rune(c), []rune(n)
	if len(cr) < minFuzzyLen {
		return 1
	}
	d := ratio(levenshtein.ComputeDistance(c, n), max(len(cr), len(nr)))
	if len(nr) > len(cr) {
		prefix := string(nr[:len(cr)])
		if pd := ratio(levenshtein.ComputeDistance(c, prefix), len(cr)); pd < d {
			d = pd
		}
	}
	return 0.2 + 0.8*d
}

func ratio(dist, length int) float64 {
	if length == 0 {
		return 1
	}
	return min(float64(dist)/float64(length), 1)
}

// wordPrefix reports whether a multi-word candidate matches the name word
// by word: the first candidate word prefixes the first name word and the
// rest prefix later name words in order.
func wordPrefix(c, n string) bool {
	cw, nw := strings.Fields(c), strings.Fields(n)
	if len(cw) < 2 || len(cw) > len(nw) || !strings.HasPrefix(nw[0], cw[0]) {
		return false
	}
	j := 1
	for _, w := range cw[1:] {
		for j < len(nw) && !strings.HasPrefix(nw[j], w) {
			j++
		}
		if j == len(nw) {
			return false
		}
		j++
	}
	return true
}
