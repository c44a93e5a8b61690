package mdh

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateInputRejectsInvalidUTF8(t *testing.T) {
	data := []byte{0xff, 0xfe, 0xfd}
	if err := ValidateInput(data); err != ErrInvalidUTF8 {
		t.Fatalf("expected ErrInvalidUTF8, got %v", err)
	}
}

func TestValidateInputRejectsBinary(t *testing.T) {
	data := append([]byte("hello"), 0x00)
	if err := ValidateInput(data); err != ErrBinaryInput {
		t.Fatalf("expected ErrBinaryInput, got %v", err)
	}
}

func TestValidateInputControlDensity(t *testing.T) {
	// Two control bytes in 64 crosses the 2% threshold; the same two in
	// a longer document stay under it.
	binary := []byte(strings.Repeat("a", 62) + "\x01\x02")
	if err := ValidateInput(binary); err != ErrBinaryInput {
		t.Fatalf("expected ErrBinaryInput, got %v", err)
	}
	text := []byte(strings.Repeat("a", 200) + "\x01\x02")
	if err := ValidateInput(text); err != nil {
		t.Fatalf("expected sparse control bytes to pass, got %v", err)
	}
}

func TestValidateInputAcceptsMarkdown(t *testing.T) {
	data := []byte("# Heading\n\nBody text with\ttabs and\r\nCRLF endings.\n")
	if err := ValidateInput(data); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestValidationErrorsMatchInvalidInput(t *testing.T) {
	if !errors.Is(ErrInvalidUTF8, ErrInvalidInput) {
		t.Fatalf("ErrInvalidUTF8 should match ErrInvalidInput")
	}
	if !errors.Is(ErrBinaryInput, ErrInvalidInput) {
		t.Fatalf("ErrBinaryInput should match ErrInvalidInput")
	}
}

func TestRenderStringRejectsInvalidUTF8WithOffset(t *testing.T) {
	_, err := RenderString("ab\xffcd")
	if !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("expected ErrInvalidUTF8 class, got %v", err)
	}
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if perr.Offset != 2 {
		t.Fatalf("expected offset 2, got %d", perr.Offset)
	}
}

func TestRenderStringRejectsNULWithOffset(t *testing.T) {
	_, err := RenderString("abc\x00def")
	if !errors.Is(err, ErrBinaryInput) {
		t.Fatalf("expected ErrBinaryInput class, got %v", err)
	}
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if perr.Offset != 3 {
		t.Fatalf("expected offset 3, got %d", perr.Offset)
	}
}

func TestRenderStringRejectsControlHeavyInput(t *testing.T) {
	src := strings.Repeat("\x01\x02 filler ", 16)
	_, err := RenderString(src)
	if !errors.Is(err, ErrBinaryInput) {
		t.Fatalf("expected ErrBinaryInput class, got %v", err)
	}
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if perr.Offset != -1 {
		t.Fatalf("control density has no single offset, got %d", perr.Offset)
	}
}

func TestSanitizeSourceStripsControlRunes(t *testing.T) {
	got := sanitizeSource("keep\ttabs\nand\rreturns\x01\x7fdrop rest")
	want := "keep\ttabs\nand\rreturnsdrop rest"
	if got != want {
		t.Fatalf("sanitizeSource = %q, want %q", got, want)
	}
	if clean := sanitizeSource("plain text"); clean != "plain text" {
		t.Fatalf("clean input changed: %q", clean)
	}
}

func TestRenderStringDropsStrayControlRunes(t *testing.T) {
	// Sparse control runes survive validation and are sanitized away
	// before tokenization.
	got, err := RenderString("stray\x01control\n")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "<p>straycontrol</p>\n" {
		t.Fatalf("got %q", got)
	}
}
