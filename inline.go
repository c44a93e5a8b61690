package mdh

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

type inlineParser struct {
	opts  *Options
	table *ruleTable
	links *refTable

	inLink    bool
	depth     int
	prevChar  rune
	truncated bool
	err       *ParseError
}

func newInlineParser(opts *Options, links *refTable) *inlineParser {
	return &inlineParser{opts: opts, table: opts.table, links: links}
}

// tokenize masks src and scans it into inline tokens.
func (ip *inlineParser) tokenize(src string) []*Token {
	return ip.scan(src, ip.maskSource(src))
}

func (ip *inlineParser) scan(src, masked string) []*Token {
	var tokens []*Token
	keep := false
	for len(src) > 0 {
		if ip.err != nil || ip.truncated {
			return tokens
		}
		if !keep {
			ip.prevChar = 0
		}
		keep = false
		var tok *Token
		var name string
		for _, e := range ip.table.inline {
			if tok = e.match(ip, src, masked[len(masked)-len(src):]); tok != nil || ip.err != nil {
				name = e.name
				break
			}
		}
		if ip.err != nil {
			return tokens
		}
		if tok == nil || len(tok.Raw) == 0 || len(tok.Raw) > len(src) {
			ip.exhausted(src)
			return tokens
		}
		src = src[len(tok.Raw):]
		if name == "text" {
			if r, _ := utf8.DecodeLastRuneInString(tok.Raw); r != '_' {
				ip.prevChar = r
			}
			keep = true
		}
		if len(tokens) > 0 && tok.Kind == KindText && !tok.Escaped {
			if last := tokens[len(tokens)-1]; last.Kind == KindText && !last.Escaped {
				last.Raw += tok.Raw
				last.Text += tok.Text
				continue
			}
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

func (ip *inlineParser) exhausted(src string) {
	err := grammarExhausted(-1, "unparsed inline input %q", clipForLog(src))
	if ip.opts.Silent {
		ip.opts.Logger.Warn("markdown inline scan truncated", "error", err)
		ip.truncated = true
		return
	}
	ip.err = err
}

// recurse tokenizes the interior of an emphasis, link or strikethrough
// span, bounding nesting depth.
func (ip *inlineParser) recurse(text string) []*Token {
	ip.depth++
	defer func() { ip.depth-- }()
	if ip.depth > ip.opts.MaxNestingDepth {
		err := grammarExhausted(-1, "inline nesting depth exceeds %d", ip.opts.MaxNestingDepth)
		if ip.opts.Silent {
			ip.opts.Logger.Warn("markdown inline nesting truncated", "error", err)
			ip.truncated = true
			return nil
		}
		ip.err = err
		return nil
	}
	saved := ip.prevChar
	toks := ip.tokenize(text)
	ip.prevChar = saved
	return toks
}

// maskSource produces a same-length copy of src with defined reference
// spans, links, inline code, tags and escaped delimiters blotted out so
// emphasis scanning cannot see delimiter characters inside them.
func (ip *inlineParser) maskSource(src string) string {
	masked := src
	if !ip.links.empty() {
		masked = maskRefSpanRegexp.ReplaceAllStringFunc(masked, func(m string) string {
			if _, ok := ip.links.lookup(m[1 : len(m)-1]); !ok {
				return m
			}
			return "[" + strings.Repeat("a", len(m)-2) + "]"
		})
	}
	masked = maskBlockSkipRegexp.ReplaceAllStringFunc(masked, func(m string) string {
		return "[" + strings.Repeat("a", len(m)-2) + "]"
	})
	if !strings.Contains(masked, "\\") {
		return masked
	}
	b := []byte(masked)
	for i := 0; i < len(b)-1; i++ {
		if b[i] != '\\' {
			continue
		}
		if b[i+1] == '*' || b[i+1] == '_' {
			b[i], b[i+1] = '+', '+'
		}
		i++
	}
	return string(b)
}

func runLen(s string, c byte) int {
	n := 0
	for n < len(s) && s[n] == c {
		n++
	}
	return n
}

// --- inline rules, in table order ---

func (ip *inlineParser) escape(src, masked string) *Token {
	m := escapeRegexp.FindStringSubmatch(src)
	if m == nil {
		return nil
	}
	return &Token{Kind: KindEscape, Raw: m[0], Text: m[1]}
}

func (ip *inlineParser) tag(src, masked string) *Token {
	if src[0] != '<' {
		return nil
	}
	raw := matchInlineTag(src)
	if raw == "" {
		return nil
	}
	if !ip.inLink && anchorOpenRegexp.MatchString(raw) {
		ip.inLink = true
	} else if ip.inLink && anchorCloseRegexp.MatchString(raw) {
		ip.inLink = false
	}
	return &Token{Kind: KindRawHTMLInline, Raw: raw, Text: raw}
}

var inlineTagRegexps = []*regexp.Regexp{
	inlineCloseTagRegexp,
	inlineOpenTagRegexp,
	inlinePIRegexp,
	inlineDeclRegexp,
	inlineCDATARegexp,
}

func matchInlineTag(src string) string {
	if strings.HasPrefix(src, "<!--") {
		rest := src[4:]
		if strings.HasPrefix(rest, ">") || strings.HasPrefix(rest, "->") {
			return ""
		}
		if i := strings.Index(rest, "-->"); i >= 0 {
			return src[:4+i+3]
		}
		return src
	}
	for _, re := range inlineTagRegexps {
		if m := re.FindString(src); m != "" {
			return m
		}
	}
	return ""
}

// findLabelEnd scans a link label from i (just past the opening
// bracket) and returns the index of its closing bracket, honoring
// escapes, nested brackets and code spans.
func findLabelEnd(s string, i int) int {
	depth := 0
	for ; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '`':
			n := runLen(s[i:], '`')
			j := i + n
			for j < len(s) {
				rel := strings.IndexByte(s[j:], '`')
				if rel < 0 {
					j = -1
					break
				}
				rl := runLen(s[j+rel:], '`')
				if rl == n {
					j = j + rel + rl
					break
				}
				j += rel + rl
			}
			if j < 0 {
				i += n - 1
			} else {
				i = j - 1
			}
		case '[':
			depth++
		case ']':
			if depth == 0 {
				return i
			}
			depth--
		}
	}
	return -1
}

func unescapeBrackets(s string) string {
	s = strings.ReplaceAll(s, `\[`, "[")
	return strings.ReplaceAll(s, `\]`, "]")
}

func isLinkWS(c byte) bool { return c == ' ' || c == '\t' || c == '\n' }

func (ip *inlineParser) link(src, masked string) *Token {
	i := 0
	switch {
	case src[0] == '!':
		if len(src) < 2 || src[1] != '[' {
			return nil
		}
		i = 2
	case src[0] == '[':
		i = 1
	default:
		return nil
	}
	labelEnd := findLabelEnd(src, i)
	if labelEnd < 0 {
		return nil
	}
	j := labelEnd + 1
	if j >= len(src) || src[j] != '(' {
		return nil
	}
	j++
	for j < len(src) && isLinkWS(src[j]) {
		j++
	}
	href := ""
	if j < len(src) && src[j] != ')' {
		var ok bool
		href, j, ok = parseLinkDest(src, j)
		if !ok {
			return nil
		}
	}
	for j < len(src) && isLinkWS(src[j]) {
		j++
	}
	title := ""
	if t, after, ok := parseLinkTitle(src, j); ok {
		title = t
		j = after
		for j < len(src) && isLinkWS(src[j]) {
			j++
		}
	}
	if j >= len(src) || src[j] != ')' {
		return nil
	}
	text := unescapeBrackets(src[i:labelEnd])
	return ip.outputLink(src[0] == '!', src[:j+1], href, title, text)
}

func (ip *inlineParser) reflink(src, masked string) *Token {
	i := 0
	switch {
	case src[0] == '!':
		if len(src) < 2 || src[1] != '[' {
			return nil
		}
		i = 2
	case src[0] == '[':
		i = 1
	default:
		return nil
	}
	labelEnd := findLabelEnd(src, i)
	if labelEnd < 0 {
		return nil
	}
	text := src[i:labelEnd]
	ref := text
	raw := src[:labelEnd+1]
	if j := labelEnd + 1; j < len(src) && src[j] == '[' {
		end := -1
		for k := j + 1; k < len(src); k++ {
			c := src[k]
			if c == '\\' {
				k++
				continue
			}
			if c == '[' {
				break
			}
			if c == ']' {
				end = k
				break
			}
		}
		if end == j+1 {
			raw = src[:end+1]
		} else if end > j+1 {
			ref = src[j+1 : end]
			raw = src[:end+1]
		}
	}
	def, ok := ip.links.lookup(ref)
	if !ok || def.href == "" {
		// An unresolved reference surrenders a single character so the
		// rest of the span can be rescanned.
		return &Token{Kind: KindText, Raw: src[:1], Text: src[:1]}
	}
	return ip.outputLink(src[0] == '!', raw, def.href, def.title, unescapeBrackets(text))
}

func (ip *inlineParser) outputLink(image bool, raw, href, title, text string) *Token {
	if image {
		tok := &Token{Kind: KindImage, Raw: raw, Href: href, Title: title, Text: text}
		wasInLink := ip.inLink
		ip.inLink = true
		tok.Children = ip.recurse(text)
		ip.inLink = wasInLink
		return tok
	}
	tok := &Token{Kind: KindLink, Raw: raw, Href: href, Title: title, Text: text}
	ip.inLink = true
	tok.Children = ip.recurse(text)
	ip.inLink = false
	return tok
}

func isUniSpace(r rune) bool { return r == 0 || unicode.IsSpace(r) }
func isUniPunct(r rune) bool { return unicode.IsPunct(r) || unicode.IsSymbol(r) }

func leftFlanking(before, after rune) bool {
	return !isUniSpace(after) && (!isUniPunct(after) || isUniSpace(before) || isUniPunct(before))
}

func rightFlanking(before, after rune) bool {
	return !isUniSpace(before) && (!isUniPunct(before) || isUniSpace(after) || isUniPunct(after))
}

// canOpenDelim and canCloseDelim classify a delimiter run by its
// neighboring runes. Underscores additionally may not open or close
// inside a word.
func canOpenDelim(c byte, before, after rune) bool {
	lf := leftFlanking(before, after)
	if c == '*' {
		return lf
	}
	return lf && (!rightFlanking(before, after) || isUniPunct(before))
}

func canCloseDelim(c byte, before, after rune) bool {
	rf := rightFlanking(before, after)
	if c == '*' {
		return rf
	}
	return rf && (!leftFlanking(before, after) || isUniPunct(after))
}

func runeBeforeIdx(s string, i int) rune {
	if i <= 0 {
		return ' '
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return r
}

func runeAtIdx(s string, i int) rune {
	if i >= len(s) {
		return ' '
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return r
}

// emStrong matches an emphasis or strong span. An opening delimiter run
// accrues credit for later openers, spends it on closers, and resolves
// to em or strong by the parity of the shorter run.
func (ip *inlineParser) emStrong(src, masked string) *Token {
	c := src[0]
	if c != '*' && c != '_' {
		return nil
	}
	lLen := runLen(src, c)
	if lLen >= len(src) {
		return nil
	}
	after, _ := utf8.DecodeRuneInString(src[lLen:])
	if !canOpenDelim(c, ip.prevChar, after) {
		return nil
	}

	delimTotal := lLen
	midDelimTotal := 0
	pos := lLen
	for pos < len(masked) {
		rel := strings.IndexByte(masked[pos:], c)
		if rel < 0 {
			break
		}
		idx := pos + rel
		rl := runLen(masked[idx:], c)
		pos = idx + rl

		rb := runeBeforeIdx(masked, idx)
		ra := runeAtIdx(masked, idx+rl)
		canO := canOpenDelim(c, rb, ra)
		canC := canCloseDelim(c, rb, ra)
		if canO && !canC {
			delimTotal += rl
			continue
		}
		if !canC {
			continue
		}
		if canO && lLen%3 != 0 && (lLen+rl)%3 == 0 {
			// Rule of three: runs summing to a multiple of three
			// cannot pair unless both are multiples themselves.
			midDelimTotal += rl
			continue
		}
		delimTotal -= rl
		if delimTotal > 0 {
			continue
		}
		if n := rl + delimTotal + midDelimTotal; n < rl {
			rl = n
		}
		raw := src[:idx+rl]
		if min(lLen, rl)%2 == 1 {
			text := raw[1 : len(raw)-1]
			return &Token{Kind: KindEmphasis, Raw: raw, Text: text, Children: ip.recurse(text)}
		}
		text := raw[2 : len(raw)-2]
		return &Token{Kind: KindStrong, Raw: raw, Text: text, Children: ip.recurse(text)}
	}
	return nil
}

func (ip *inlineParser) codespan(src, masked string) *Token {
	if src[0] != '`' {
		return nil
	}
	n := runLen(src, '`')
	i := n
	for i < len(src) {
		rel := strings.IndexByte(src[i:], '`')
		if rel < 0 {
			return nil
		}
		start := i + rel
		rl := runLen(src[start:], '`')
		if rl != n {
			i = start + rl
			continue
		}
		text := strings.ReplaceAll(src[n:start], "\n", " ")
		if strings.Trim(text, " ") != "" && strings.HasPrefix(text, " ") && strings.HasSuffix(text, " ") {
			text = text[1 : len(text)-1]
		}
		return &Token{Kind: KindCodeSpan, Raw: src[:start+rl], Text: text}
	}
	return nil
}

func (ip *inlineParser) lineBreak(src, masked string) *Token {
	i := 0
	if src[0] == '\\' {
		if len(src) < 2 || src[1] != '\n' {
			return nil
		}
		i = 2
	} else {
		n := runLen(src, ' ')
		need := 2
		if ip.table.dialect.breaks {
			need = 0
		}
		if n < need || n >= len(src) || src[n] != '\n' {
			return nil
		}
		i = n + 1
	}
	if strings.TrimLeft(src[i:], " \t\n") == "" {
		return nil
	}
	return &Token{Kind: KindLineBreak, Raw: src[:i]}
}

func (ip *inlineParser) del(src, masked string) *Token {
	if src[0] != '~' {
		return nil
	}
	n := runLen(src, '~')
	if n > 2 || n >= len(src) {
		return nil
	}
	if c := src[n]; c == ' ' || c == '\t' || c == '\n' {
		return nil
	}
	i := n
	for i < len(src) {
		rel := strings.IndexByte(src[i:], '~')
		if rel < 0 {
			return nil
		}
		start := i + rel
		rl := runLen(src[start:], '~')
		if rl != n {
			i = start + rl
			continue
		}
		if c := src[start-1]; c == ' ' || c == '\t' || c == '\n' {
			i = start + rl
			continue
		}
		text := src[n:start]
		return &Token{Kind: KindStrikethrough, Raw: src[:start+rl], Text: text, Children: ip.recurse(text)}
	}
	return nil
}

func linkToken(raw, href, text string) *Token {
	return &Token{
		Kind: KindLink, Raw: raw, Href: href, Text: text,
		Children: []*Token{{Kind: KindText, Raw: text, Text: text}},
	}
}

func (ip *inlineParser) autolink(src, masked string) *Token {
	if src[0] != '<' {
		return nil
	}
	if m := autolinkURIRegexp.FindStringSubmatch(src); m != nil {
		uri := m[1] + ":" + m[2]
		return linkToken(m[0], uri, uri)
	}
	if m := autolinkEmailRegexp.FindStringSubmatch(src); m != nil {
		return linkToken(m[0], "mailto:"+m[1], m[1])
	}
	return nil
}

// backpedal trims trailing punctuation, an unbalanced closing paren and
// a trailing entity from a bare URL match.
func backpedal(s string) string {
	for {
		orig := s
		s = strings.TrimRight(s, "?!.,:;*_~'\"")
		if strings.HasSuffix(s, ")") && strings.Count(s, ")") > strings.Count(s, "(") {
			s = s[:len(s)-1]
		}
		if m := urlEntityRegexp.FindString(s); m != "" {
			s = s[:len(s)-len(m)]
		}
		if s == orig {
			return s
		}
	}
}

func (ip *inlineParser) url(src, masked string) *Token {
	if ip.inLink {
		return nil
	}
	if m := bareURLRegexp.FindStringSubmatch(src); m != nil {
		u := backpedal(m[0])
		href := u
		if m[1] == "www." {
			href = "http://" + u
		}
		return linkToken(u, href, u)
	}
	if m := bareEmailRegexp.FindString(src); m != "" {
		if len(m) < len(src) {
			if c := src[len(m)]; c == '-' || c == '_' {
				return nil
			}
		}
		return linkToken(m, "mailto:"+m, m)
	}
	return nil
}

func isEmailAtom(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' || c == '.' || c == '_' || c == '+' || c == '-'
}

func startsBareURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") ||
		strings.HasPrefix(s, "ftp://") || strings.HasPrefix(s, "www.")
}

// inlineText consumes plain text up to the next position another rule
// could claim. The first character is always consumed so a character no
// rule wants cannot stall the scan.
func (ip *inlineParser) inlineText(src, masked string) *Token {
	src = clipToRuleStart(src, ip.opts.ext.startInline)
	var i int
	if src[0] == '`' {
		i = runLen(src, '`')
	} else {
		_, i = utf8.DecodeRuneInString(src)
	}
	gfm := ip.table.dialect.gfm
	breaks := ip.table.dialect.breaks
	for i < len(src) {
		c := src[i]
		if c == '\\' || c == '<' || c == '!' || c == '[' || c == '`' || c == '*' || c == '_' {
			break
		}
		if c == '~' && gfm {
			break
		}
		if c == ' ' || c == '\n' {
			n := runLen(src[i:], ' ')
			if i+n < len(src) && src[i+n] == '\n' {
				if (breaks || n >= 2) && strings.TrimLeft(src[i+n+1:], " \t\n") != "" {
					break
				}
				i += n + 1
				continue
			}
			i += n
			continue
		}
		if gfm {
			if (c == 'h' || c == 'f' || c == 'w') && startsBareURL(src[i:]) {
				break
			}
			if isEmailAtom(c) && !isEmailAtom(src[i-1]) && bareEmailRegexp.MatchString(src[i:]) {
				break
			}
		}
		i++
	}
	return &Token{Kind: KindText, Raw: src[:i], Text: src[:i]}
}
