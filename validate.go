package mdh

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	// ErrInvalidUTF8 reports input that is not valid UTF-8. It matches
	// ErrInvalidInput under errors.Is.
	ErrInvalidUTF8 = fmt.Errorf("%w: invalid utf-8", ErrInvalidInput)
	// ErrBinaryInput reports input that appears to be binary rather than
	// Markdown text. It matches ErrInvalidInput under errors.Is.
	ErrBinaryInput = fmt.Errorf("%w: binary input detected", ErrInvalidInput)
)

const (
	minBinarySample = 64
	maxControlPct   = 2
)

// ValidateInput returns an error if the input is not valid UTF-8 or
// appears binary. A NUL byte is always binary; otherwise input of at
// least minBinarySample bytes is binary when control characters other
// than tab, newline and carriage return exceed maxControlPct percent.
func ValidateInput(src []byte) error {
	if !utf8.Valid(src) {
		return ErrInvalidUTF8
	}
	var total, control int
	for _, b := range src {
		total++
		if b == 0x00 {
			return ErrBinaryInput
		}
		if isControlByte(b) {
			control++
		}
	}
	if total >= minBinarySample && control*100 >= total*maxControlPct {
		return ErrBinaryInput
	}
	return nil
}

// validateSource is the pipeline-facing flavor of ValidateInput. It
// reports the byte offset of the first offending position.
func validateSource(src string) error {
	for i := 0; i < len(src); {
		r, size := utf8.DecodeRuneInString(src[i:])
		if r == utf8.RuneError && size == 1 {
			return &ParseError{Class: ErrInvalidUTF8, Offset: i, Detail: "source is not valid utf-8"}
		}
		if r == 0 {
			return &ParseError{Class: ErrBinaryInput, Offset: i, Detail: "NUL byte in source"}
		}
		i += size
	}
	var control int
	for i := 0; i < len(src); i++ {
		if isControlByte(src[i]) {
			control++
		}
	}
	if len(src) >= minBinarySample && control*100 >= len(src)*maxControlPct {
		return &ParseError{Class: ErrBinaryInput, Offset: -1,
			Detail: fmt.Sprintf("%d control bytes in %d", control, len(src))}
	}
	return nil
}

// sanitizeSource drops control runes other than newline and tab.
// Newlines are already normalized by the time it runs. The stripped
// set is ASCII-only, so scanning bytes is enough to find work.
func sanitizeSource(src string) string {
	clean := true
	for i := 0; i < len(src); i++ {
		if isControlRune(rune(src[i])) {
			clean = false
			break
		}
	}
	if clean {
		return src
	}
	var b strings.Builder
	b.Grow(len(src))
	for _, r := range src {
		if isControlRune(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isControlByte(b byte) bool {
	if b < 0x09 {
		return true
	}
	if b > 0x0D && b < 0x20 {
		return true
	}
	if b == 0x7F {
		return true
	}
	return false
}

func isControlRune(r rune) bool {
	if r == '\n' || r == '\r' || r == '\t' {
		return false
	}
	if r < 0x20 || r == 0x7F {
		return true
	}
	return false
}
