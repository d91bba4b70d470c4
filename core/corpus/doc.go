// Package corpus provides the immutable in-memory model of a hierarchical
// scripture corpus (book → chapter → verse) and the decoders that build it.
//
// # Model
//
// A Corpus is an ordered list of Books. Each Book has a canonical display
// name, unique within the corpus, and an ordered list of Chapters; each
// Chapter an ordered list of Verses. Numbers are positive and unique within
// their parent, and verse text is never empty. A Corpus built by New is never
// mutated afterwards and is safe for unlimited concurrent readers.
//
// # Sources
//
// The canonical source is the corpus document:
//
//	{"books": [{"name": "John", "chapters": [
//	    {"chapter": 3, "verses": [{"verse": 16, "text": "For God so loved..."}]}
//	]}]}
//
// Load dispatches on the file name:
//
//   - .json     corpus document
//   - .json.xz  xz-compressed corpus document
//   - .xml      Zefania XML (XMLBIBLE/BIBLEBOOK/CHAPTER/VERS)
//
// Further formats register themselves with RegisterFormat; core/sqlite adds
// .db and .sqlite when imported.
//
// # Fingerprint
//
// Fingerprint returns a BLAKE3 digest of the corpus content. It depends only
// on books, chapters, verses and text, so the same corpus read from JSON,
// XML or SQLite has the same fingerprint.
package corpus
