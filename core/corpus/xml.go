package corpus

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/FocuswithJustin/VerseTip/core/errors"
)

// Zefania XML selectors.
var (
	zefBookExpr    = xpath.MustCompile("//BIBLEBOOK")
	zefChapterExpr = xpath.MustCompile("CHAPTER")
	zefVerseExpr   = xpath.MustCompile("VERS")
)

// DecodeXML reads a Zefania XML bible:
//
//	<XMLBIBLE>
//	  <BIBLEBOOK bnumber="43" bname="John">
//	    <CHAPTER cnumber="3"><VERS vnumber="16">For God so loved...</VERS></CHAPTER>
//	  </BIBLEBOOK>
//	</XMLBIBLE>
//
// The book name comes from bname, falling back to bsname.
func DecodeXML(r io.Reader) (*Corpus, error) {
	root, err := xmlquery.Parse(r)
	if err != nil {
		return nil, &errors.ParseError{Format: "Zefania XML", Message: err.Error(), Err: err}
	}

	bookNodes := xmlquery.QuerySelectorAll(root, zefBookExpr)
	if len(bookNodes) == 0 {
		return nil, errors.NewValidation("XMLBIBLE", "no BIBLEBOOK elements")
	}

	books := make([]*Book, 0, len(bookNodes))
	for i, bn := range bookNodes {
		field := fmt.Sprintf("BIBLEBOOK[%d]", i+1)
		name := strings.TrimSpace(bn.SelectAttr("bname"))
		if name == "" {
			name = strings.TrimSpace(bn.SelectAttr("bsname"))
		}
		if name == "" {
			return nil, errors.NewValidation(field+"/@bname", "missing required attribute")
		}

		book := &Book{Name: name}
		for j, cn := range xmlquery.QuerySelectorAll(bn, zefChapterExpr) {
			chField := fmt.Sprintf("%s/CHAPTER[%d]", field, j+1)
			number, err := intAttr(cn, "cnumber", chField)
			if err != nil {
				return nil, err
			}

			ch := &Chapter{Number: number}
			for k, vn := range xmlquery.QuerySelectorAll(cn, zefVerseExpr) {
				vField := fmt.Sprintf("%s/VERS[%d]", chField, k+1)
				vnum, err := intAttr(vn, "vnumber", vField)
				if err != nil {
					return nil, err
				}
				ch.Verses = append(ch.Verses, &Verse{
					Number: vnum,
					Text:   strings.Join(strings.Fields(vn.InnerText()), " "),
				})
			}
			book.Chapters = append(book.Chapters, ch)
		}
		books = append(books, book)
	}

	return New(books)
}

func intAttr(n *xmlquery.Node, attr, field string) (int, error) {
	raw := strings.TrimSpace(n.SelectAttr(attr))
	if raw == "" {
		return 0, errors.NewValidation(field+"/@"+attr, "missing required attribute")
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.NewValidation(field+"/@"+attr, fmt.Sprintf("not an integer: %q", raw))
	}
	return v, nil
}
