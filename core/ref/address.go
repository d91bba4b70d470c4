package ref

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/VerseTip/core/errors"
)

// MaxAddressVerses bounds how many verses one address may expand to.
const MaxAddressVerses = 1000

// Address is a parsed chapter and verse specification.
type Address struct {
	Chapter int
	Verses  []int // in the order written; duplicates kept
}

// String formats the address back into "chapter:verse" form. Verses are
// written as a list.
func (a Address) String() string {
	parts := make([]string, len(a.Verses))
	for i, v := range a.Verses {
		parts[i] = strconv.Itoa(v)
	}
	return fmt.Sprintf("%d:%s", a.Chapter, strings.Join(parts, ","))
}

// addressGrammar is "chapter(:|.)verses" where verses is a single verse, a
// range "a-b" or a list "a,b,c". Numbers are captured as text so leading
// zeros stay decimal.
type addressGrammar struct {
	Chapter string    `@Int ( ":" | "." )`
	Verses  verseSpec `@@`
}

type verseSpec struct {
	First string   `@Int`
	End   *string  `( "-" @Int`
	More  []string `| ( "," @Int )+ )?`
}

var addressLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Punct", Pattern: `[:.,-]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var addressParser = participle.MustBuild[addressGrammar](
	participle.Lexer(addressLexer),
	participle.Elide("Whitespace"),
)

// ParseAddress parses a chapter and verse specification such as "3:16",
// "3.16", "3:14-16" or "3:16,14,16". The chapter is split off at the first
// ":" or "."; a range a-b expands to a..b inclusive and is empty when a > b.
// Every number must be a positive decimal integer.
func ParseAddress(s string) (Address, error) {
	g, err := addressParser.ParseString("", strings.TrimSpace(s))
	if err != nil {
		return Address{}, addressError(s, "expected chapter:verse", err)
	}

	chapter, err := positive(g.Chapter)
	if err != nil {
		return Address{}, addressError(s, "bad chapter", err)
	}
	first, err := positive(g.Verses.First)
	if err != nil {
		return Address{}, addressError(s, "bad verse", err)
	}

	addr := Address{Chapter: chapter}
	switch {
	case g.Verses.End != nil:
		last, err := positive(*g.Verses.End)
		if err != nil {
			return Address{}, addressError(s, "bad range end", err)
		}
		if last-first+1 > MaxAddressVerses {
			return Address{}, errors.NewParse("address", s,
				fmt.Sprintf("range spans more than %d verses", MaxAddressVerses))
		}
		for v := first; v <= last; v++ {
			addr.Verses = append(addr.Verses, v)
		}
		if addr.Verses == nil {
			addr.Verses = []int{}
		}
	default:
		if len(g.Verses.More)+1 > MaxAddressVerses {
			return Address{}, errors.NewParse("address", s,
				fmt.Sprintf("list has more than %d verses", MaxAddressVerses))
		}
		addr.Verses = append(addr.Verses, first)
		for _, m := range g.Verses.More {
			v, err := positive(m)
			if err != nil {
				return Address{}, addressError(s, "bad verse", err)
			}
			addr.Verses = append(addr.Verses, v)
		}
	}
	return addr, nil
}

func addressError(s, what string, err error) error {
	return errors.NewParse("address", s, what+": "+err.Error())
}

func positive(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("%d is not positive", n)
	}
	return n, nil
}
