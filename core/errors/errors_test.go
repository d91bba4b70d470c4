package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFoundError(t *testing.T) {
	tests := []struct {
		name    string
		err     *NotFoundError
		wantMsg string
	}{
		{
			name:    "with ID",
			err:     &NotFoundError{Resource: "book", ID: "Genesis"},
			wantMsg: "book not found: Genesis",
		},
		{
			name:    "without ID",
			err:     &NotFoundError{Resource: "corpus"},
			wantMsg: "corpus not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if !errors.Is(tt.err, ErrNotFound) {
				t.Errorf("errors.Is(%v, ErrNotFound) = false", tt.err)
			}
		})
	}

	t.Run("with underlying error", func(t *testing.T) {
		underlying := fmt.Errorf("disk error")
		err := &NotFoundError{Resource: "file", ID: "bible.json", Err: underlying}
		if got := err.Unwrap(); got != underlying {
			t.Errorf("Unwrap() = %v, want %v", got, underlying)
		}
	})
}

func TestValidationError(t *testing.T) {
	err := NewValidation("books[0].name", "missing required field")
	want := "validation failed for books[0].name: missing required field"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("ValidationError should unwrap to ErrInvalidInput")
	}

	bare := &ValidationError{Message: "empty document"}
	if got := bare.Error(); got != "validation failed: empty document" {
		t.Errorf("Error() = %q", got)
	}
}

func TestIOError(t *testing.T) {
	underlying := fmt.Errorf("permission denied")
	err := NewIO("open", "/tmp/bible.json", underlying)
	want := "failed to open /tmp/bible.json: permission denied"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, underlying) {
		t.Error("IOError should unwrap to underlying error")
	}

	noPath := &IOError{Operation: "read", Err: underlying}
	if got := noPath.Error(); got != "failed to read: permission denied" {
		t.Errorf("Error() = %q", got)
	}
}

func TestParseError(t *testing.T) {
	err := NewParse("address", "3:x", "verse is not a positive integer")
	want := `failed to parse address "3:x": verse is not a positive integer`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("ParseError should unwrap to ErrInvalidInput")
	}

	inner := fmt.Errorf("unexpected EOF")
	wrapped := &ParseError{Format: "JSON", Message: "bad document", Err: inner}
	if got := wrapped.Error(); got != "failed to parse JSON: bad document" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(wrapped, inner) {
		t.Error("ParseError should unwrap to its underlying error")
	}
}

func TestUnsupportedError(t *testing.T) {
	err := NewUnsupported("corpus format", ".pdf")
	if got := err.Error(); got != "unsupported corpus format: .pdf" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, ErrUnsupported) {
		t.Error("UnsupportedError should unwrap to ErrUnsupported")
	}
	if got := (&UnsupportedError{Feature: "xml"}).Error(); got != "unsupported xml" {
		t.Errorf("Error() = %q", got)
	}
}

func TestReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrNotReady, "not_ready"},
		{ErrBadShape, "bad_shape"},
		{fmt.Errorf("lookup %q: %w", "Jhn", ErrUnknownBook), "unknown_book"},
		{ErrBadAddress, "bad_address"},
		{ErrNoChapter, "no_chapter"},
		{ErrNoVerses, "no_verses"},
		{fmt.Errorf("boom"), "internal"},
	}

	for _, tt := range tests {
		if got := Reason(tt.err); got != tt.want {
			t.Errorf("Reason(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) should return nil")
	}
	err := Wrap(ErrNotReady, "resolve")
	if err.Error() != "resolve: corpus not ready" {
		t.Errorf("Wrap() = %q", err.Error())
	}
	if !Is(err, ErrNotReady) {
		t.Error("wrapped error should match sentinel")
	}
}

func TestWrapf(t *testing.T) {
	if Wrapf(nil, "load %s", "x") != nil {
		t.Error("Wrapf(nil) should return nil")
	}
	err := Wrapf(ErrUnknownBook, "lookup %q", "Jhn")
	if err.Error() != `lookup "Jhn": unrecognized book name` {
		t.Errorf("Wrapf() = %q", err.Error())
	}
}

func TestAs(t *testing.T) {
	err := Wrap(NewValidation("books", "missing"), "load")
	var ve *ValidationError
	if !As(err, &ve) {
		t.Fatal("As should find ValidationError")
	}
	if ve.Field != "books" {
		t.Errorf("Field = %q, want %q", ve.Field, "books")
	}
}
