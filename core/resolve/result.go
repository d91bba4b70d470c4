package resolve

import (
	"strconv"
	"strings"

	"github.com/FocuswithJustin/VerseTip/core/errors"
)

// VerseText is one resolved verse.
type VerseText struct {
	Number int    `json:"verse"`
	Text   string `json:"text"`
}

// Result is the outcome of resolving one reference. It is either resolved,
// with at least one verse, or unresolved with Err set to one of the
// resolution reasons in core/errors. Never both.
type Result struct {
	Reference string      `json:"reference"`
	Book      string      `json:"book,omitempty"`
	Chapter   int         `json:"chapter,omitempty"`
	Verses    []VerseText `json:"verses,omitempty"`
	Err       error       `json:"-"`
}

// Resolved reports whether r carries verses.
func (r Result) Resolved() bool {
	return r.Err == nil && len(r.Verses) > 0
}

// Reason returns the machine-readable reason code, or "" when resolved.
func (r Result) Reason() string {
	return errors.Reason(r.Err)
}

// String renders the verses for display as "16: text; 17: text". An
// unresolved result renders as the empty string.
func (r Result) String() string {
	if !r.Resolved() {
		return ""
	}
	var b strings.Builder
	for i, v := range r.Verses {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(strconv.Itoa(v.Number))
		b.WriteString(": ")
		b.WriteString(v.Text)
	}
	return b.String()
}

func unresolved(reference string, err error) Result {
	return Result{Reference: reference, Err: err}
}
