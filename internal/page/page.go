// Package page finds citations in page content. Plain text is a single
// unit; HTML is split into one unit per text node, with the whole text of
// each link forming one anchor unit.
package page

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/FocuswithJustin/VerseTip/core/ref"
	"github.com/FocuswithJustin/VerseTip/core/resolve"
)

// Unit is one independently scanned piece of text.
type Unit struct {
	Text   string `json:"text"`
	Anchor bool   `json:"anchor,omitempty"`
}

// Match is a citation found in a unit.
type Match struct {
	Unit   int      `json:"unit"`
	Span   ref.Span `json:"span"`
	Key    string   `json:"key"`
	Anchor bool     `json:"anchor,omitempty"`
}

// skipped elements never contain visible prose.
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Textarea: true,
	atom.Template: true,
}

// ScanText scans text as a single unit.
func ScanText(text string, opts ...ref.ScanOption) []Match {
	return ScanUnits([]Unit{{Text: text}}, opts...)
}

// ScanHTML parses an HTML document and scans its text units.
func ScanHTML(r io.Reader, opts ...ref.ScanOption) ([]Match, error) {
	units, err := Units(r)
	if err != nil {
		return nil, err
	}
	return ScanUnits(units, opts...), nil
}

// ScanUnits scans each unit in order. Anchor units match only when their
// whole text is one citation.
func ScanUnits(units []Unit, opts ...ref.ScanOption) []Match {
	var matches []Match
	for i, u := range units {
		if u.Anchor {
			if sp, ok := ref.ScanAnchor(u.Text, opts...); ok {
				matches = append(matches, Match{Unit: i, Span: sp, Key: ref.LookupKey(sp.Text), Anchor: true})
			}
			continue
		}
		for sp := range ref.NewScanner(u.Text, opts...).Spans() {
			matches = append(matches, Match{Unit: i, Span: sp, Key: ref.LookupKey(sp.Text)})
		}
	}
	return matches
}

// Units splits an HTML document into text units in document order.
// Whitespace-only text nodes are dropped.
func Units(r io.Reader) ([]Unit, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var units []Unit
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if strings.TrimSpace(n.Data) != "" {
				units = append(units, Unit{Text: n.Data})
			}
			return
		case html.ElementNode:
			if skipped[n.DataAtom] {
				return
			}
			if n.DataAtom == atom.A {
				if text := textContent(n); strings.TrimSpace(text) != "" {
					units = append(units, Unit{Text: text, Anchor: true})
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return units, nil
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode && skipped[n.DataAtom] {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// Resolver resolves a lookup key. *resolve.State and *resolve.Snapshot
// satisfy it.
type Resolver interface {
	Resolve(reference string) resolve.Result
}

// Annotation is the resolution shared by every match with the same key.
type Annotation struct {
	Key     string         `json:"key"`
	Result  resolve.Result `json:"result"`
	Matches []Match        `json:"matches"`
}

// Annotate resolves each distinct key once, keeping first-seen order.
func Annotate(matches []Match, r Resolver) []Annotation {
	var out []Annotation
	byKey := make(map[string]int)
	for _, m := range matches {
		i, ok := byKey[m.Key]
		if !ok {
			i = len(out)
			byKey[m.Key] = i
			out = append(out, Annotation{Key: m.Key, Result: r.Resolve(m.Key)})
		}
		out[i].Matches = append(out[i].Matches, m)
	}
	return out
}
