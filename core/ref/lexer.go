package ref

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// textLexer splits arbitrary text into words, numbers, whitespace and single
// punctuation runes. Punct matches anything the other rules do not, so
// lexing never fails.
var textLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Word", Pattern: `[\p{Latin}\p{Cyrillic}]+(?:['’ʼ][\p{Latin}\p{Cyrillic}]+)*`},
	{Name: "Number", Pattern: `[0-9]+`},
	{Name: "Space", Pattern: `[\s\p{Zs}]+`},
	{Name: "Punct", Pattern: `[^\p{Latin}\p{Cyrillic}0-9\s\p{Zs}]`},
})

var (
	wordType   = textLexer.Symbols()["Word"]
	numberType = textLexer.Symbols()["Number"]
	spaceType  = textLexer.Symbols()["Space"]
	punctType  = textLexer.Symbols()["Punct"]
)

func isWord(t lexer.Token) bool { return t.Type == wordType }

func isSpace(t lexer.Token) bool { return t.Type == spaceType }

// isInlineSpace reports whitespace that may appear inside a citation.
func isInlineSpace(t lexer.Token) bool {
	return t.Type == spaceType && !strings.ContainsAny(t.Value, "\n\r\v\f\u2028\u2029")
}

func isPunct(t lexer.Token, chars string) bool {
	return t.Type == punctType && strings.Contains(chars, t.Value)
}

// isShortNumber reports a number of one to three digits.
func isShortNumber(t lexer.Token) bool {
	return t.Type == numberType && len(t.Value) <= 3
}

// isNumeral reports a book numeral: a single digit 1-3.
func isNumeral(t lexer.Token) bool {
	return t.Type == numberType && len(t.Value) == 1 && t.Value >= "1" && t.Value <= "3"
}

func tokenEnd(t lexer.Token) int {
	return t.Pos.Offset + len(t.Value)
}

// lexAll tokenizes s completely. Used for short inputs such as a single
// reference; the Scanner lexes lazily.
func lexAll(s string) []lexer.Token {
	lex, err := textLexer.LexString("", s)
	if err != nil {
		return nil
	}
	var toks []lexer.Token
	for {
		t, err := lex.Next()
		if err != nil || t.EOF() {
			return toks
		}
		toks = append(toks, t)
	}
}
