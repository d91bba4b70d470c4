package corpus

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/FocuswithJustin/VerseTip/core/errors"
)

// The document types use pointers so that absent fields can be told apart
// from zero values.
type document struct {
	Books *[]*bookDoc `json:"books"`
}

type bookDoc struct {
	Name     *string        `json:"name"`
	Chapters *[]*chapterDoc `json:"chapters"`
}

type chapterDoc struct {
	Chapter *int         `json:"chapter"`
	Verses  *[]*verseDoc `json:"verses"`
}

type verseDoc struct {
	Verse *int    `json:"verse"`
	Text  *string `json:"text"`
}

// Decode reads a corpus document and builds a validated Corpus.
func Decode(r io.Reader) (*Corpus, error) {
	var doc document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, &errors.ParseError{Format: "corpus JSON", Message: err.Error(), Err: err}
	}

	books, err := doc.books()
	if err != nil {
		return nil, err
	}
	return New(books)
}

func (d *document) books() ([]*Book, error) {
	if d.Books == nil {
		return nil, errors.NewValidation("books", "missing required field")
	}

	books := make([]*Book, 0, len(*d.Books))
	for i, bd := range *d.Books {
		field := fmt.Sprintf("books[%d]", i)
		if bd == nil {
			return nil, errors.NewValidation(field, "book is null")
		}
		if bd.Name == nil {
			return nil, errors.NewValidation(field+".name", "missing required field")
		}
		if bd.Chapters == nil {
			return nil, errors.NewValidation(field+".chapters", "missing required field")
		}

		book := &Book{Name: *bd.Name, Chapters: make([]*Chapter, 0, len(*bd.Chapters))}
		for j, cd := range *bd.Chapters {
			chField := fmt.Sprintf("%s.chapters[%d]", field, j)
			if cd == nil {
				return nil, errors.NewValidation(chField, "chapter is null")
			}
			if cd.Chapter == nil {
				return nil, errors.NewValidation(chField+".chapter", "missing required field")
			}
			if cd.Verses == nil {
				return nil, errors.NewValidation(chField+".verses", "missing required field")
			}

			ch := &Chapter{Number: *cd.Chapter, Verses: make([]*Verse, 0, len(*cd.Verses))}
			for k, vd := range *cd.Verses {
				vField := fmt.Sprintf("%s.verses[%d]", chField, k)
				if vd == nil {
					return nil, errors.NewValidation(vField, "verse is null")
				}
				if vd.Verse == nil {
					return nil, errors.NewValidation(vField+".verse", "missing required field")
				}
				if vd.Text == nil {
					return nil, errors.NewValidation(vField+".text", "missing required field")
				}
				ch.Verses = append(ch.Verses, &Verse{Number: *vd.Verse, Text: *vd.Text})
			}
			book.Chapters = append(book.Chapters, ch)
		}
		books = append(books, book)
	}
	return books, nil
}

// Encode writes c as a corpus document.
func Encode(w io.Writer, c *Corpus) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(struct {
		Books []*Book `json:"books"`
	}{Books: c.books})
}
