package mdh

import (
	"strings"

	"golang.org/x/text/cases"
)

// linkDef is one resolved link reference definition.
type linkDef struct {
	href  string
	title string
}

// refTable maps normalized labels to definitions for one parse.
// The first definition of a label wins; later ones are ignored.
type refTable struct {
	defs map[string]linkDef
}

func newRefTable() *refTable {
	return &refTable{defs: make(map[string]linkDef)}
}

func (t *refTable) define(label string, def linkDef) {
	key := normalizeLabel(label)
	if key == "" {
		return
	}
	if _, ok := t.defs[key]; ok {
		return
	}
	t.defs[key] = def
}

func (t *refTable) lookup(label string) (linkDef, bool) {
	def, ok := t.defs[normalizeLabel(label)]
	return def, ok
}

func (t *refTable) empty() bool { return len(t.defs) == 0 }

// normalizeLabel produces the matching key for a reference label:
// surrounding whitespace trimmed, internal whitespace runs collapsed to
// one space, ASCII letters lowercased, and non-ASCII text case folded.
func normalizeLabel(s string) string {
	if strings.ContainsAny(s, "[]") {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	space := false
	started := false
	hi := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case ' ', '\t', '\n':
			space = true
		default:
			if space && started {
				b.WriteByte(' ')
			}
			space = false
			started = true
			if 'A' <= c && c <= 'Z' {
				c += 'a' - 'A'
			}
			if c >= 0x80 {
				hi = true
			}
			b.WriteByte(c)
		}
	}
	out := b.String()
	if hi {
		out = cases.Fold().String(out)
	}
	return out
}

// parseLinkDest reads a link destination at s[i:]: either <...> with no
// newlines or unescaped angle brackets inside, or a bare run with
// balanced unescaped parentheses. Reports the unescaped destination,
// the index past it, and whether one was found.
func parseLinkDest(s string, i int) (string, int, bool) {
	if i >= len(s) {
		return "", 0, false
	}
	if s[i] == '<' {
		for j := i + 1; j < len(s); j++ {
			switch s[j] {
			case '\n', '<':
				return "", 0, false
			case '>':
				return unescapePunct(s[i+1 : j]), j + 1, true
			case '\\':
				j++
			}
		}
		return "", 0, false
	}
	depth := 0
	j := i
loop:
	for ; j < len(s); j++ {
		switch s[j] {
		case '(':
			depth++
			if depth > 32 {
				return "", 0, false
			}
		case ')':
			if depth == 0 {
				break loop
			}
			depth--
		case '\\':
			if j+1 < len(s) {
				j++
			}
		case ' ', '\t', '\n':
			break loop
		}
	}
	if j == i {
		return "", 0, false
	}
	return unescapePunct(s[i:j]), j, true
}

// parseLinkTitle reads a link title at s[i:] delimited by double
// quotes, single quotes or parentheses.
func parseLinkTitle(s string, i int) (string, int, bool) {
	if i >= len(s) || (s[i] != '"' && s[i] != '\'' && s[i] != '(') {
		return "", 0, false
	}
	want := s[i]
	if want == '(' {
		want = ')'
	}
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case want:
			return unescapePunct(s[i+1 : j]), j + 1, true
		case '(':
			if want == ')' {
				return "", 0, false
			}
		case '\\':
			j++
		}
	}
	return "", 0, false
}

// parseLinkLabel reads a bracketed label at s[i:]. Labels hold at most
// 999 characters and no unescaped brackets.
func parseLinkLabel(s string, i int) (string, int, bool) {
	if i >= len(s) || s[i] != '[' {
		return "", 0, false
	}
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case ']':
			if j-(i+1) > 999 {
				return "", 0, false
			}
			label := s[i+1 : j]
			if strings.TrimSpace(label) == "" {
				return "", 0, false
			}
			return label, j + 1, true
		case '[':
			return "", 0, false
		case '\\':
			j++
		}
	}
	return "", 0, false
}

const escapable = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// unescapePunct removes backslashes that escape punctuation.
func unescapePunct(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && strings.IndexByte(escapable, s[i+1]) >= 0 {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
