package page

import (
	"reflect"
	"strings"
	"testing"

	"github.com/FocuswithJustin/VerseTip/core/corpus/corpustest"
	"github.com/FocuswithJustin/VerseTip/core/errors"
	"github.com/FocuswithJustin/VerseTip/core/ref"
	"github.com/FocuswithJustin/VerseTip/core/resolve"
)

func keys(matches []Match) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Key
	}
	return out
}

func TestScanText(t *testing.T) {
	got := ScanText("See (Ps. 23.1) and John 3:16-17; also 1 Кор. 13:4.")
	// Unscored, the longest word run before a chapter is kept.
	want := []string{"Ps 23.1", "and John 3:16-17", "1 Кор 13:4"}
	if !reflect.DeepEqual(keys(got), want) {
		t.Errorf("keys = %q, want %q", keys(got), want)
	}
	for _, m := range got {
		if m.Unit != 0 || m.Anchor {
			t.Errorf("plain text match %+v should be unit 0, not an anchor", m)
		}
	}

	s := resolve.NewState()
	s.Publish(corpustest.Sample(t), "sample")
	wantBooks := []string{"Psalms", "John", "I до Коринтян"}
	for i, a := range Annotate(got, s) {
		if !a.Result.Resolved() || a.Result.Book != wantBooks[i] {
			t.Errorf("%q resolved to %q (%v), want %q", a.Key, a.Result.Book, a.Result.Err, wantBooks[i])
		}
	}
}

func TestUnits(t *testing.T) {
	doc := `<html><head><title>Notes</title><style>p{}</style>
<script>var r = "John 3:16";</script></head>
<body><p>Read <b>John</b> 3:16 today.</p>
<a href="/x">  Gen 1:1 </a>
<noscript>Ps 23:1</noscript><textarea>Ps 23:1</textarea>
<a href="/y">Click <i>here</i></a></body></html>`

	units, err := Units(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	want := []Unit{
		{Text: "Notes"},
		{Text: "Read "},
		{Text: "John"},
		{Text: " 3:16 today."},
		{Text: "  Gen 1:1 ", Anchor: true},
		{Text: "Click here", Anchor: true},
	}
	if !reflect.DeepEqual(units, want) {
		t.Errorf("Units() = %+v\nwant %+v", units, want)
	}
}

func TestScanHTML(t *testing.T) {
	doc := `<p>First John 3:16, then Gen 1:1.</p>
<p><a href="#">(Ps. 23.1)</a> <a href="#">John 3:16 is great</a></p>
<script>John 3:17</script>`

	got, err := ScanHTML(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	want := []Match{
		{Unit: 0, Key: "First John 3:16"},
		{Unit: 0, Key: "then Gen 1:1"},
		{Unit: 1, Key: "Ps 23.1", Anchor: true},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d matches %+v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i].Unit != want[i].Unit || got[i].Key != want[i].Key || got[i].Anchor != want[i].Anchor {
			t.Errorf("match %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestScanHTMLWithNameScore(t *testing.T) {
	s := resolve.NewState()
	s.Publish(corpustest.Sample(t), "sample")

	got, err := ScanHTML(strings.NewReader(`<p>First John 3:16, then Gen 1:1.</p>`), ref.WithNameScorer(s.NameScore))
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"John 3:16", "Gen 1:1"}; !reflect.DeepEqual(keys(got), want) {
		t.Errorf("keys = %q, want %q", keys(got), want)
	}
}

func TestAnnotate(t *testing.T) {
	s := resolve.NewState()
	s.Publish(corpustest.Sample(t), "sample")

	matches := ScanText("John 3:16 and Jude 1:1 and again (John 3:16).")
	anns := Annotate(matches, s)
	if len(anns) != 2 {
		t.Fatalf("got %d annotations, want 2", len(anns))
	}

	if anns[0].Key != "John 3:16" || len(anns[0].Matches) != 2 {
		t.Errorf("first annotation = %+v", anns[0])
	}
	if got := anns[0].Result.String(); got != "16: For God so loved the world." {
		t.Errorf("rendered = %q", got)
	}
	if anns[1].Key != "and Jude 1:1" || anns[1].Result.Resolved() {
		t.Errorf("second annotation = %+v", anns[1])
	}
	if !errors.Is(anns[1].Result.Err, errors.ErrUnknownBook) {
		t.Errorf("reason = %v", anns[1].Result.Err)
	}
}

func TestAnnotateProsePrefixedKeys(t *testing.T) {
	s := resolve.NewState()
	s.Publish(corpustest.Sample(t), "sample")

	got, err := ScanHTML(strings.NewReader(`<p>First John 3:16, then Gen 1:1.</p>`))
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{"First John 3:16": "John", "then Gen 1:1": "Genesis"}
	anns := Annotate(got, s)
	if len(anns) != len(want) {
		t.Fatalf("got %d annotations, want %d", len(anns), len(want))
	}
	for _, a := range anns {
		if !a.Result.Resolved() || a.Result.Book != want[a.Key] {
			t.Errorf("%q resolved to %q (%v), want %q", a.Key, a.Result.Book, a.Result.Err, want[a.Key])
		}
	}
}

func TestAnnotateUnready(t *testing.T) {
	anns := Annotate(ScanText("John 3:16"), resolve.NewState())
	if len(anns) != 1 || !errors.Is(anns[0].Result.Err, errors.ErrNotReady) {
		t.Errorf("annotations = %+v", anns)
	}
}
