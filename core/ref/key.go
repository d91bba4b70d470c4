package ref

import (
	"strings"
	"unicode"
)

// LookupKey derives the key a page resolves for a citation's text: outer
// whitespace trimmed, parentheses removed and periods removed unless they
// sit between two digits ("(1 Кор. 13.4)" → "1 Кор 13.4").
func LookupKey(text string) string {
	text = strings.TrimSpace(text)
	var b strings.Builder
	b.Grow(len(text))
	runes := []rune(text)
	for i, r := range runes {
		switch r {
		case '(', ')':
			continue
		case '.':
			if i == 0 || i == len(runes)-1 || !unicode.IsDigit(runes[i-1]) || !unicode.IsDigit(runes[i+1]) {
				continue
			}
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// SplitReference splits a reference into its book-name and address parts.
// The name is the longest leading run of words, optionally preceded by a
// numeral 1-3 and followed by a period; the address is everything after it
// and must contain a chapter separator. ok is false when the reference does
// not have that shape.
func SplitReference(reference string) (name, address string, ok bool) {
	reference = strings.TrimSpace(reference)
	toks := lexAll(reference)

	i := 0
	if i < len(toks) && isNumeral(toks[i]) {
		i++
		if i < len(toks) && isSpace(toks[i]) {
			i++
		}
	}
	if i >= len(toks) || !isWord(toks[i]) {
		return "", "", false
	}

	nameEnd := tokenEnd(toks[i])
	i++
	for i+1 < len(toks) && isSpace(toks[i]) && isWord(toks[i+1]) {
		nameEnd = tokenEnd(toks[i+1])
		i += 2
	}
	if i < len(toks) && isPunct(toks[i], ".") {
		nameEnd = tokenEnd(toks[i])
		i++
	}
	if i < len(toks) && isSpace(toks[i]) {
		i++
	}
	if i >= len(toks) || toks[i].Type != numberType {
		return "", "", false
	}

	address = strings.TrimSpace(reference[toks[i].Pos.Offset:])
	if !strings.ContainsAny(address, ":.") {
		return "", "", false
	}
	return reference[:nameEnd], address, true
}
