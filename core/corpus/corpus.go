package corpus

import (
	"fmt"

	"github.com/FocuswithJustin/VerseTip/core/errors"
)

// Corpus is an ordered, read-only collection of books.
type Corpus struct {
	books  []*Book
	byName map[string]int
}

// Book is a canonical book with its chapters in source order.
type Book struct {
	// Name is the canonical display name, unique within the corpus.
	Name string `json:"name"`

	// Chapters in source order.
	Chapters []*Chapter `json:"chapters"`

	byNumber map[int]*Chapter
}

// Chapter is a numbered chapter with its verses in source order.
type Chapter struct {
	Number int      `json:"chapter"`
	Verses []*Verse `json:"verses"`

	byNumber map[int]*Verse
}

// Verse is a numbered verse and its text.
type Verse struct {
	Number int    `json:"verse"`
	Text   string `json:"text"`
}

// New validates books and builds a Corpus over them. The books must not be
// modified after New returns.
func New(books []*Book) (*Corpus, error) {
	c := &Corpus{
		books:  books,
		byName: make(map[string]int, len(books)),
	}

	for i, b := range books {
		field := fmt.Sprintf("books[%d]", i)
		if b == nil {
			return nil, errors.NewValidation(field, "book is null")
		}
		if b.Name == "" {
			return nil, errors.NewValidation(field+".name", "book name is empty")
		}
		if prev, dup := c.byName[b.Name]; dup {
			return nil, errors.NewValidation(field+".name",
				fmt.Sprintf("duplicate book name %q (first at books[%d])", b.Name, prev))
		}
		c.byName[b.Name] = i

		if err := b.index(field); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func (b *Book) index(field string) error {
	b.byNumber = make(map[int]*Chapter, len(b.Chapters))
	for j, ch := range b.Chapters {
		chField := fmt.Sprintf("%s.chapters[%d]", field, j)
		if ch == nil {
			return errors.NewValidation(chField, "chapter is null")
		}
		if ch.Number <= 0 {
			return errors.NewValidation(chField+".chapter",
				fmt.Sprintf("chapter number must be positive, got %d", ch.Number))
		}
		if _, dup := b.byNumber[ch.Number]; dup {
			return errors.NewValidation(chField+".chapter",
				fmt.Sprintf("duplicate chapter %d in %q", ch.Number, b.Name))
		}
		b.byNumber[ch.Number] = ch

		ch.byNumber = make(map[int]*Verse, len(ch.Verses))
		for k, v := range ch.Verses {
			vField := fmt.Sprintf("%s.verses[%d]", chField, k)
			if v == nil {
				return errors.NewValidation(vField, "verse is null")
			}
			if v.Number <= 0 {
				return errors.NewValidation(vField+".verse",
					fmt.Sprintf("verse number must be positive, got %d", v.Number))
			}
			if v.Text == "" {
				return errors.NewValidation(vField+".text", "verse text is empty")
			}
			if _, dup := ch.byNumber[v.Number]; dup {
				return errors.NewValidation(vField+".verse",
					fmt.Sprintf("duplicate verse %d in %s %d", v.Number, b.Name, ch.Number))
			}
			ch.byNumber[v.Number] = v
		}
	}
	return nil
}

// Len returns the number of books.
func (c *Corpus) Len() int {
	return len(c.books)
}

// Books returns the books in corpus order. The slice is a copy; the books
// themselves are shared and must be treated as read-only.
func (c *Corpus) Books() []*Book {
	out := make([]*Book, len(c.books))
	copy(out, c.books)
	return out
}

// BookAt returns the i-th book in corpus order.
func (c *Corpus) BookAt(i int) *Book {
	return c.books[i]
}

// Names returns the canonical book names in corpus order.
func (c *Corpus) Names() []string {
	names := make([]string, len(c.books))
	for i, b := range c.books {
		names[i] = b.Name
	}
	return names
}

// Book looks a book up by exact canonical name.
func (c *Corpus) Book(name string) (*Book, bool) {
	i, ok := c.byName[name]
	if !ok {
		return nil, false
	}
	return c.books[i], true
}

// Chapter returns the chapter with the given number.
func (b *Book) Chapter(number int) (*Chapter, bool) {
	ch, ok := b.byNumber[number]
	return ch, ok
}

// Verse returns the verse with the given number.
func (ch *Chapter) Verse(number int) (*Verse, bool) {
	v, ok := ch.byNumber[number]
	return v, ok
}

// Stats summarizes corpus size.
type Stats struct {
	Books    int `json:"books"`
	Chapters int `json:"chapters"`
	Verses   int `json:"verses"`
}

// Stats counts books, chapters and verses.
func (c *Corpus) Stats() Stats {
	s := Stats{Books: len(c.books)}
	for _, b := range c.books {
		s.Chapters += len(b.Chapters)
		for _, ch := range b.Chapters {
			s.Verses += len(ch.Verses)
		}
	}
	return s
}
