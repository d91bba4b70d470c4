// Package ref finds and parses scripture citations in free text.
//
// It contains the pure, corpus-independent parts of reference resolution:
//
//   - Scanner: a single left-to-right pass that yields non-overlapping
//     citation spans ("John 3:16", "1 Кор. 13:4-7", "(Ps 23.1,4)")
//   - Normalize: maps abbreviated or numbered book names to the fuller
//     names a book index expects ("2 Кор" → "II до Коринтян")
//   - ParseAddress: expands "3:14-16" or "3:16,14,16" into a chapter and an
//     ordered verse list
//   - SplitReference and LookupKey: split a literal reference into name and
//     address, and derive the lookup key a page collaborator resolves
//
// Everything here is safe for concurrent use and allocates only per call.
//
// # Citation shape
//
// ShapeVersion identifies the rule set below. A citation is
//
//	[1-3][ ]Word( Word)*[.] chapter(:|.)verse[-verse | (,verse)*]
//
// where Word is a run of Latin or Cyrillic letters (inner apostrophes
// allowed) and every number has one to three digits. A citation starts at
// the beginning of the text, after whitespace or after "("; it ends at the
// end of the text, at whitespace, at ")" or at one of ".,;?!". Whitespace
// inside a citation never contains a line break.
package ref
