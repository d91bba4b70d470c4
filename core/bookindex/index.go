// Package bookindex maps book names as written in citations to the books
// of a corpus, exactly or approximately.
package bookindex

import (
	"github.com/FocuswithJustin/VerseTip/core/corpus"
)

// Index resolves book names against one corpus. It is immutable and safe
// for concurrent use.
type Index struct {
	corpus  *corpus.Corpus
	names   []string
	matcher Matcher
}

// New builds an index over c. A nil matcher means
// NewScoreMatcher(DefaultThreshold).
func New(c *corpus.Corpus, m Matcher) *Index {
	if m == nil {
		m = NewScoreMatcher(DefaultThreshold)
	}
	return &Index{corpus: c, names: c.Names(), matcher: m}
}

// Lookup returns the book called name. An exact canonical name wins;
// otherwise the matcher picks among all books in source order.
func (x *Index) Lookup(name string) (*corpus.Book, bool) {
	if b, ok := x.corpus.Book(name); ok {
		return b, true
	}
	i, ok := x.matcher.BestMatch(name, x.names)
	if !ok || i < 0 || i >= len(x.names) {
		return nil, false
	}
	return x.corpus.BookAt(i), true
}

// Score reports how well name matches its best book, 0 being exact. A
// matcher that does not score its matches reports 0 for any match.
func (x *Index) Score(name string) (float64, bool) {
	if _, ok := x.corpus.Book(name); ok {
		return 0, true
	}
	if sm, ok := x.matcher.(ScoringMatcher); ok {
		_, s, ok := sm.BestMatchScore(name, x.names)
		return s, ok
	}
	_, ok := x.matcher.BestMatch(name, x.names)
	return 0, ok
}

// Names returns the canonical book names in source order.
func (x *Index) Names() []string {
	return append([]string(nil), x.names...)
}

// Corpus returns the indexed corpus.
func (x *Index) Corpus() *corpus.Corpus {
	return x.corpus
}
