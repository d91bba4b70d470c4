package ref

import (
	"iter"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// ShapeVersion identifies the citation shape recognized by Scanner,
// ScanAnchor and SplitReference. It is bumped whenever those rules change.
const ShapeVersion = 1

// MaxNameWords is the default bound on the words a scanned book name spans.
const MaxNameWords = 4

// Span is one citation found in scanned text.
type Span struct {
	Start   int    `json:"start"` // byte offset of the first citation byte
	End     int    `json:"end"`   // byte offset just past the citation
	Text    string `json:"text"`
	Name    string `json:"name"`    // book name as written, numeral and period included
	Address string `json:"address"` // chapter and verse portion
}

// NameScorer rates a candidate book name. Lower scores are better; ok is
// false when the name is not acceptable at all.
type NameScorer func(name string) (score float64, ok bool)

// ScanOption configures a Scanner.
type ScanOption func(*scanConfig)

type scanConfig struct {
	scorer   NameScorer
	maxWords int
}

// WithNameScorer makes the scanner choose, among the possible name starts of
// a citation, the one the scorer rates best. Without a scorer the longest
// run of words wins. A citation with no acceptable name is skipped.
func WithNameScorer(fn NameScorer) ScanOption {
	return func(c *scanConfig) { c.scorer = fn }
}

// WithMaxNameWords overrides MaxNameWords. Values below 1 are ignored.
func WithMaxNameWords(n int) ScanOption {
	return func(c *scanConfig) {
		if n > 0 {
			c.maxWords = n
		}
	}
}

func newScanConfig(opts []ScanOption) scanConfig {
	cfg := scanConfig{maxWords: MaxNameWords}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Scanner yields citations from a text lazily, left to right. A Scanner is
// single-use and not safe for concurrent use; create one per text.
type Scanner struct {
	text string
	cfg  scanConfig
	lex  lexer.Lexer
	eof  bool

	// toks is a window of the token stream; toks[0] has index base.
	toks []lexer.Token
	base int

	pos   int // next token index to try as a chapter anchor
	floor int // spans never start before this byte offset
}

// NewScanner returns a Scanner over text.
func NewScanner(text string, opts ...ScanOption) *Scanner {
	s := &Scanner{text: text, cfg: newScanConfig(opts)}
	lex, err := textLexer.LexString("", text)
	if err != nil {
		s.eof = true
		return s
	}
	s.lex = lex
	return s
}

// Next returns the next citation. ok is false once the text is exhausted.
func (s *Scanner) Next() (span Span, ok bool) {
	for {
		i := s.pos
		t, ok := s.tok(i)
		if !ok {
			return Span{}, false
		}
		s.pos++
		s.trim()
		if !isShortNumber(t) {
			continue
		}
		span, end, ok := s.matchAt(i)
		if !ok {
			continue
		}
		s.pos = end
		s.floor = span.End
		return span, true
	}
}

// Spans returns an iterator over the remaining citations. Ranging over it
// consumes the scanner.
func (s *Scanner) Spans() iter.Seq[Span] {
	return func(yield func(Span) bool) {
		for {
			sp, ok := s.Next()
			if !ok || !yield(sp) {
				return
			}
		}
	}
}

// Scan returns every citation in text.
func Scan(text string, opts ...ScanOption) []Span {
	var spans []Span
	for sp := range NewScanner(text, opts...).Spans() {
		spans = append(spans, sp)
	}
	return spans
}

// ScanAnchor treats text as a single unit, such as the text of an existing
// link, and reports whether all of it is one citation. Surrounding
// whitespace, one trailing punctuation mark and one enclosing pair of
// parentheses are ignored. The longest name run is used regardless of any
// scorer.
func ScanAnchor(text string, opts ...ScanOption) (Span, bool) {
	trimmed := strings.TrimSpace(text)
	if n := len(trimmed); n > 1 && strings.IndexByte(".,;?!", trimmed[n-1]) >= 0 {
		trimmed = strings.TrimSpace(trimmed[:n-1])
	}
	if len(trimmed) > 2 && trimmed[0] == '(' && trimmed[len(trimmed)-1] == ')' {
		trimmed = strings.TrimSpace(trimmed[1 : len(trimmed)-1])
	}
	if trimmed == "" {
		return Span{}, false
	}
	offset := strings.Index(text, trimmed)

	opts = append(opts[:len(opts):len(opts)], WithNameScorer(nil))
	sp, ok := NewScanner(trimmed, opts...).Next()
	if !ok || sp.Start != 0 || sp.End != len(trimmed) {
		return Span{}, false
	}
	sp.Start += offset
	sp.End += offset
	return sp, true
}

// tok returns token i of the stream, lexing forward as needed.
func (s *Scanner) tok(i int) (lexer.Token, bool) {
	if i < s.base {
		return lexer.Token{}, false
	}
	for i-s.base >= len(s.toks) {
		if s.eof {
			return lexer.Token{}, false
		}
		t, err := s.lex.Next()
		if err != nil || t.EOF() {
			s.eof = true
			return lexer.Token{}, false
		}
		s.toks = append(s.toks, t)
	}
	return s.toks[i-s.base], true
}

// trim drops tokens no name walk-back can reach any more.
func (s *Scanner) trim() {
	keep := 2*s.cfg.maxWords + 8
	drop := s.pos - keep - s.base
	if drop < 2*keep || drop > len(s.toks) {
		return
	}
	s.toks = append(s.toks[:0], s.toks[drop:]...)
	s.base += drop
}

// matchAt tries to build a citation whose chapter number is token i. It
// returns the span and the index of the first token after it.
func (s *Scanner) matchAt(i int) (Span, int, bool) {
	chapter, _ := s.tok(i)
	if sep, ok := s.tok(i + 1); !ok || !isPunct(sep, ":.") {
		return Span{}, 0, false
	}
	if v, ok := s.tok(i + 2); !ok || !isShortNumber(v) {
		return Span{}, 0, false
	}
	end, ok := s.verseEnd(i + 2)
	if !ok {
		return Span{}, 0, false
	}

	if sp, ok := s.tok(i - 1); !ok || !isInlineSpace(sp) {
		return Span{}, 0, false
	}
	k := i - 2
	last, ok := s.tok(k)
	dot := false
	if ok && isPunct(last, ".") {
		dot = true
		k--
		last, ok = s.tok(k)
	}
	if !ok || !isWord(last) {
		return Span{}, 0, false
	}
	nameEnd := tokenEnd(last)
	if dot {
		nameEnd++
	}

	start, ok := s.chooseStart(k, nameEnd)
	if !ok {
		return Span{}, 0, false
	}

	lastTok, _ := s.tok(end - 1)
	spanEnd := tokenEnd(lastTok)
	return Span{
		Start:   start,
		End:     spanEnd,
		Text:    s.text[start:spanEnd],
		Name:    s.text[start:nameEnd],
		Address: s.text[chapter.Pos.Offset:spanEnd],
	}, end, true
}

// chooseStart picks the byte offset where the book name ending with word
// token k begins.
func (s *Scanner) chooseStart(k, nameEnd int) (int, bool) {
	words := []int{k}
	for j := k; len(words) < s.cfg.maxWords; {
		sp, ok1 := s.tok(j - 1)
		w, ok2 := s.tok(j - 2)
		if !ok1 || !ok2 || !isInlineSpace(sp) || !isWord(w) {
			break
		}
		j -= 2
		words = append(words, j)
	}

	var (
		best      int
		bestScore float64
		found     bool
	)
	for n := len(words) - 1; n >= 0; n-- {
		for _, start := range s.nameStarts(words[n]) {
			if !s.startsCitation(start) {
				continue
			}
			offset := s.toks[start-s.base].Pos.Offset
			if s.cfg.scorer == nil {
				return offset, true
			}
			score, ok := s.cfg.scorer(s.text[offset:nameEnd])
			if ok && (!found || score < bestScore) {
				best, bestScore, found = offset, score, true
			}
		}
	}
	return best, found
}

// nameStarts lists the token indexes a name beginning with word w may start
// at, numbered forms first.
func (s *Scanner) nameStarts(w int) []int {
	starts := make([]int, 0, 2)
	if t, ok := s.tok(w - 1); ok {
		switch {
		case isNumeral(t):
			starts = append(starts, w-1)
		case isInlineSpace(t):
			if n, ok := s.tok(w - 2); ok && isNumeral(n) {
				starts = append(starts, w-2)
			}
		}
	}
	return append(starts, w)
}

// startsCitation checks the boundary before token i.
func (s *Scanner) startsCitation(i int) bool {
	t, ok := s.tok(i)
	if !ok || t.Pos.Offset < s.floor {
		return false
	}
	if i == 0 {
		return true
	}
	prev, ok := s.tok(i - 1)
	return ok && (isSpace(prev) || isPunct(prev, "("))
}

// verseEnd matches the verse part starting at token v and returns the index
// just past it. A range is preferred; a list backs off item by item until
// the citation is properly terminated.
func (s *Scanner) verseEnd(v int) (int, bool) {
	var ends []int
	if dash, ok := s.tok(v + 1); ok && isPunct(dash, "-") {
		if n, ok := s.tok(v + 2); ok && isShortNumber(n) {
			ends = append(ends, v+3)
		}
	}

	var list []int
	for j := v + 1; ; j += 2 {
		c, ok1 := s.tok(j)
		n, ok2 := s.tok(j + 1)
		if !ok1 || !ok2 || !isPunct(c, ",") || !isShortNumber(n) {
			break
		}
		list = append(list, j+2)
	}
	for i := len(list) - 1; i >= 0; i-- {
		ends = append(ends, list[i])
	}
	ends = append(ends, v+1)

	for _, e := range ends {
		if s.terminates(e) {
			return e, true
		}
	}
	return 0, false
}

// terminates checks the boundary at token i, the first token after a
// candidate citation.
func (s *Scanner) terminates(i int) bool {
	t, ok := s.tok(i)
	if !ok {
		return true
	}
	return isSpace(t) || isPunct(t, ").,;?!")
}
