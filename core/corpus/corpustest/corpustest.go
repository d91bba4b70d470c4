// Package corpustest provides a small bilingual corpus for tests.
package corpustest

import (
	"strings"
	"testing"

	"github.com/FocuswithJustin/VerseTip/core/corpus"
)

// SampleJSON is a corpus document with English and Ukrainian book names.
// Philippians precedes Philemon so prefix ties are observable.
const SampleJSON = `{
  "books": [
    {"name": "Genesis", "chapters": [
      {"chapter": 1, "verses": [
        {"verse": 1, "text": "In the beginning God created the heaven and the earth."},
        {"verse": 2, "text": "And the earth was without form, and void."},
        {"verse": 3, "text": "And God said, Let there be light: and there was light."}
      ]}
    ]},
    {"name": "Psalms", "chapters": [
      {"chapter": 23, "verses": [
        {"verse": 1, "text": "The LORD is my shepherd; I shall not want."}
      ]}
    ]},
    {"name": "John", "chapters": [
      {"chapter": 1, "verses": [
        {"verse": 1, "text": "In the beginning was the Word."}
      ]},
      {"chapter": 3, "verses": [
        {"verse": 14, "text": "And as Moses lifted up the serpent in the wilderness."},
        {"verse": 15, "text": "That whosoever believeth in him should not perish."},
        {"verse": 16, "text": "For God so loved the world."},
        {"verse": 17, "text": "For God sent not his Son into the world to condemn the world."}
      ]}
    ]},
    {"name": "I John", "chapters": [
      {"chapter": 1, "verses": [
        {"verse": 9, "text": "If we confess our sins, he is faithful and just to forgive us."}
      ]}
    ]},
    {"name": "Philippians", "chapters": [
      {"chapter": 4, "verses": [
        {"verse": 13, "text": "I can do all things through Christ which strengtheneth me."}
      ]}
    ]},
    {"name": "Philemon", "chapters": [
      {"chapter": 1, "verses": [
        {"verse": 1, "text": "Paul, a prisoner of Jesus Christ."}
      ]}
    ]},
    {"name": "I до Коринтян", "chapters": [
      {"chapter": 13, "verses": [
        {"verse": 4, "text": "Любов довготерпить, любов милосердствує."}
      ]}
    ]},
    {"name": "II до Коринтян", "chapters": [
      {"chapter": 5, "verses": [
        {"verse": 1, "text": "Знаємо бо, що коли земний наш дім, ця хатина, зруйнується."},
        {"verse": 2, "text": "Бо тому ми й зітхаємо."}
      ]}
    ]},
    {"name": "Від Івана", "chapters": [
      {"chapter": 3, "verses": [
        {"verse": 16, "text": "Бо так полюбив Бог світ."}
      ]}
    ]},
    {"name": "I Царів", "chapters": [
      {"chapter": 1, "verses": [
        {"verse": 1, "text": "А цар Давид постарівся."}
      ]}
    ]}
  ]
}`

// Sample decodes SampleJSON, failing the test on error.
func Sample(tb testing.TB) *corpus.Corpus {
	tb.Helper()
	c, err := corpus.Decode(strings.NewReader(SampleJSON))
	if err != nil {
		tb.Fatalf("decode sample corpus: %v", err)
	}
	return c
}
