package mdh

import (
	"errors"
	"fmt"
)

// Sentinel error classes. Every error returned by the engine wraps one
// of these, so callers can classify failures with errors.Is regardless
// of the detail text.
var (
	// ErrGrammarExhaustion reports that scanning stopped with input
	// remaining but no rule matching, or that block nesting exceeded
	// the configured depth ceiling.
	ErrGrammarExhaustion = errors.New("mdh: no grammar rule matched")
	// ErrUnknownTokenKind reports a token kind the renderer or walker
	// has no handler for. Only reachable through misbehaving extensions.
	ErrUnknownTokenKind = errors.New("mdh: unknown token kind")
	// ErrConfiguration reports an invalid option set or extension,
	// detected before any tokenization. Never silenced.
	ErrConfiguration = errors.New("mdh: invalid configuration")
	// ErrInvalidInput reports source text that is not usable UTF-8
	// Markdown. Never silenced.
	ErrInvalidInput = errors.New("mdh: invalid input")
)

// A ParseError carries the sentinel class, the byte offset into the
// preprocessed source where the condition arose (-1 when positionless),
// and a human-readable detail.
type ParseError struct {
	Class  error
	Offset int
	Detail string
}

func (e *ParseError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s at offset %d: %s", e.Class, e.Offset, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Class, e.Detail)
}

func (e *ParseError) Unwrap() error { return e.Class }

func grammarExhausted(offset int, format string, args ...any) *ParseError {
	return &ParseError{Class: ErrGrammarExhaustion, Offset: offset, Detail: fmt.Sprintf(format, args...)}
}

func unknownTokenKind(kind TokenKind) *ParseError {
	return &ParseError{Class: ErrUnknownTokenKind, Offset: -1, Detail: fmt.Sprintf("no handler for kind %d (%s)", kind, kind)}
}

func configError(format string, args ...any) *ParseError {
	return &ParseError{Class: ErrConfiguration, Offset: -1, Detail: fmt.Sprintf(format, args...)}
}

func invalidInput(format string, args ...any) *ParseError {
	return &ParseError{Class: ErrInvalidInput, Offset: -1, Detail: fmt.Sprintf(format, args...)}
}
