package resolve

import (
	"strings"
	"time"

	"github.com/FocuswithJustin/VerseTip/core/bookindex"
	"github.com/FocuswithJustin/VerseTip/core/corpus"
	"github.com/FocuswithJustin/VerseTip/core/errors"
	"github.com/FocuswithJustin/VerseTip/core/ref"
)

// Snapshot is one published corpus together with its book index. It is
// immutable; a reload publishes a new Snapshot instead of changing this one.
type Snapshot struct {
	Corpus      *corpus.Corpus
	Index       *bookindex.Index
	Fingerprint string
	Generation  uint64
	Source      string
	LoadedAt    time.Time
}

// Resolve maps a literal reference such as "2 Кор 5:1-2" to verse text:
//
//  1. split into name and address (ErrBadShape)
//  2. normalize the name and find the book, falling back to the name as
//     written (ErrUnknownBook)
//  3. parse the address (ErrBadAddress)
//  4. find the chapter (ErrNoChapter)
//  5. collect the requested verses in order, skipping missing ones; nothing
//     left is ErrNoVerses
func (sn *Snapshot) Resolve(reference string) Result {
	name, address, ok := ref.SplitReference(reference)
	if !ok {
		return unresolved(reference, errors.ErrBadShape)
	}

	book, ok := sn.LookupBook(name)
	if !ok {
		return unresolved(reference, errors.Wrapf(errors.ErrUnknownBook, "book %q", name))
	}

	addr, err := ref.ParseAddress(address)
	if err != nil {
		return unresolved(reference, errors.Wrap(errors.ErrBadAddress, err.Error()))
	}

	res := Result{Reference: reference, Book: book.Name, Chapter: addr.Chapter}
	ch, ok := book.Chapter(addr.Chapter)
	if !ok {
		res.Err = errors.Wrapf(errors.ErrNoChapter, "%s %d", book.Name, addr.Chapter)
		return res
	}

	for _, n := range addr.Verses {
		if v, ok := ch.Verse(n); ok {
			res.Verses = append(res.Verses, VerseText{Number: v.Number, Text: v.Text})
		}
	}
	if len(res.Verses) == 0 {
		res.Err = errors.Wrapf(errors.ErrNoVerses, "%s %s", book.Name, address)
	}
	return res
}

// LookupBook finds the book a citation's name refers to. A name found by
// the scanner may carry leading prose ("and John"), so each trailing run of
// its words is rated with NameScore and the best run is looked up; the
// longer run wins a tie. A run never starts right after a book numeral, so
// "3 John" is not read as "John".
func (sn *Snapshot) LookupBook(name string) (*corpus.Book, bool) {
	run, ok := sn.bestRun(name)
	if !ok {
		return nil, false
	}
	return sn.lookupName(run)
}

// lookupName tries the exact canonical name, then the normalized name, then
// the name as written.
func (sn *Snapshot) lookupName(name string) (*corpus.Book, bool) {
	if b, ok := sn.Corpus.Book(name); ok {
		return b, true
	}
	normalized := ref.Normalize(name)
	if b, ok := sn.Index.Lookup(normalized); ok {
		return b, true
	}
	if normalized != name {
		return sn.Index.Lookup(name)
	}
	return nil, false
}

// NameScore rates a candidate name in the same order lookupName tries it.
// It is the name scorer handed to the citation scanner.
func (sn *Snapshot) NameScore(name string) (float64, bool) {
	if _, ok := sn.Corpus.Book(name); ok {
		return 0, true
	}
	normalized := ref.Normalize(name)
	if s, ok := sn.Index.Score(normalized); ok {
		return s, true
	}
	if normalized != name {
		return sn.Index.Score(name)
	}
	return 0, false
}

func (sn *Snapshot) bestRun(name string) (string, bool) {
	name = strings.TrimSpace(name)
	words := strings.Fields(name)
	var (
		best      string
		bestScore float64
		found     bool
	)
	for i := range words {
		run := name
		if i > 0 {
			if isBookNumeral(words[i-1]) {
				continue
			}
			run = strings.Join(words[i:], " ")
		}
		if s, ok := sn.NameScore(run); ok && (!found || s < bestScore) {
			best, bestScore, found = run, s, true
			if s == 0 {
				break
			}
		}
	}
	return best, found
}

func isBookNumeral(w string) bool {
	switch strings.ToUpper(w) {
	case "1", "2", "3", "I", "II", "III", "І", "ІІ", "ІІІ":
		return true
	}
	return false
}
