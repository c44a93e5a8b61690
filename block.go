package mdh

import (
	"regexp"
	"strconv"
	"strings"
)

// inlineSpan is a deferred inline tokenization request. Block scanning
// queues spans; the pipeline drains the queue once block structure is
// settled so reference definitions anywhere in the document are visible
// to every span.
type inlineSpan struct {
	tok  *Token
	text string
}

type blockParser struct {
	opts  *Options
	table *ruleTable
	links *refTable
	queue []inlineSpan

	depth     int
	offset    int
	truncated bool
	err       *ParseError
}

func newBlockParser(opts *Options) *blockParser {
	return &blockParser{
		opts:  opts,
		table: opts.table,
		links: newRefTable(),
	}
}

func (p *blockParser) reset(opts *Options) {
	p.opts = opts
	p.table = opts.table
	p.links = newRefTable()
	p.queue = p.queue[:0]
	p.depth = 0
	p.offset = 0
	p.truncated = false
	p.err = nil
}

func (p *blockParser) queueInline(tok *Token, text string) {
	p.queue = append(p.queue, inlineSpan{tok: tok, text: text})
}

// tokenize runs the block rule list over src until it is consumed.
// top suppresses paragraph grouping when false (list item interiors).
func (p *blockParser) tokenize(src string, top bool) []*Token {
	src = expandTabs(src, p.opts.Pedantic)
	var tokens []*Token
	for len(src) > 0 {
		if p.err != nil || p.truncated {
			return tokens
		}
		var tok *Token
		for _, e := range p.table.block {
			if tok = e.match(p, src, top); tok != nil || p.err != nil {
				break
			}
		}
		if p.err != nil {
			return tokens
		}
		if tok == nil || len(tok.Raw) == 0 || len(tok.Raw) > len(src) {
			p.exhausted(src)
			return tokens
		}
		src = src[len(tok.Raw):]
		p.offset += len(tok.Raw)

		if len(tokens) > 0 {
			last := tokens[len(tokens)-1]
			// A lone newline terminates the previous line rather than
			// opening a blank-line gap.
			if tok.Kind == KindSpace && tok.Raw == "\n" && (last.Kind == KindText || last.Kind == KindParagraph) {
				last.Raw += "\n"
				continue
			}
			// Adjacent unclaimed lines accumulate into one text token.
			if tok.Kind == KindText && last.Kind == KindText && strings.HasSuffix(last.Raw, "\n") {
				last.Raw += tok.Raw
				last.Text += "\n" + tok.Text
				p.remergeQueued(last)
				continue
			}
			// A definition cannot interrupt a paragraph; the line stays
			// paragraph content and defines nothing.
			if tok.Kind == KindLinkDef && (last.Kind == KindText || last.Kind == KindParagraph) {
				last.Raw += tok.Raw
				last.Text += "\n" + strings.TrimRight(tok.Raw, "\n")
				p.retargetQueued(last)
				continue
			}
		}
		if tok.Kind == KindLinkDef {
			p.links.define(tok.Label, linkDef{href: tok.Href, title: tok.Title})
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// remergeQueued drops the span queued for a just-merged text token and
// points the surviving token's span at the combined text.
func (p *blockParser) remergeQueued(tok *Token) {
	if n := len(p.queue); n > 0 {
		p.queue = p.queue[:n-1]
	}
	p.retargetQueued(tok)
}

func (p *blockParser) retargetQueued(tok *Token) {
	for i := len(p.queue) - 1; i >= 0; i-- {
		if p.queue[i].tok == tok {
			p.queue[i].text = tok.Text
			return
		}
	}
}

func (p *blockParser) exhausted(src string) {
	err := grammarExhausted(p.offset, "unparsed block input %q", clipForLog(src))
	if p.opts.Silent {
		p.opts.Logger.Warn("markdown block scan truncated",
			"offset", p.offset, "error", err)
		p.truncated = true
		return
	}
	p.err = err
}

// nested re-enters the tokenizer for blockquote and list interiors,
// bounding depth so adversarial nesting terminates.
func (p *blockParser) nested(src string, top bool) []*Token {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > p.opts.MaxNestingDepth {
		err := grammarExhausted(p.offset, "nesting depth exceeds %d", p.opts.MaxNestingDepth)
		if p.opts.Silent {
			p.opts.Logger.Warn("markdown nesting truncated",
				"offset", p.offset, "error", err)
			p.truncated = true
			return nil
		}
		p.err = err
		return nil
	}
	return p.tokenize(src, top)
}

func clipForLog(s string) string {
	const max = 32
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

// expandTabs resolves tab indentation the way each tokenize pass sees
// it: leading tabs count as four spaces each. The pedantic grammar
// expands every tab and blanks space-only lines instead. Stripping a
// blockquote or list prefix can expose new leading tabs, so this runs
// on every re-entry, where it is a no-op on already-expanded text.
func expandTabs(src string, pedantic bool) string {
	if pedantic {
		src = strings.ReplaceAll(src, "\t", "    ")
		return spaceLineRegexp.ReplaceAllString(src, "")
	}
	if !strings.Contains(src, "\t") {
		return src
	}
	return leadingTabsRegexp.ReplaceAllStringFunc(src, func(m string) string {
		sp := strings.IndexByte(m, '\t')
		return m[:sp] + strings.Repeat("    ", len(m)-sp)
	})
}

// cutLine splits off the first line of s including its newline.
func cutLine(s string) (line, rest string) {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i+1], s[i+1:]
	}
	return s, ""
}

func lineContent(line string) string {
	return strings.TrimSuffix(line, "\n")
}

func isBlankLine(line string) bool {
	return strings.TrimRight(lineContent(line), " \t") == ""
}

func indentOf(s string) int {
	i := 0
	for i < len(s) && s[i] == ' ' {
		i++
	}
	return i
}

// --- block rules, in table order ---

func (p *blockParser) space(src string, top bool) *Token {
	i := 0
	for i < len(src) {
		line, _ := cutLine(src[i:])
		if !isBlankLine(line) {
			break
		}
		i += len(line)
	}
	if i == 0 {
		return nil
	}
	return &Token{Kind: KindSpace, Raw: src[:i]}
}

func (p *blockParser) indentedCode(src string, top bool) *Token {
	i := 0
	for i < len(src) {
		line, _ := cutLine(src[i:])
		if !strings.HasPrefix(line, "    ") || isBlankLine(line) {
			break
		}
		i += len(line)
		for i < len(src) {
			blank, _ := cutLine(src[i:])
			if !isBlankLine(blank) {
				break
			}
			i += len(blank)
		}
	}
	if i == 0 {
		return nil
	}
	raw := src[:i]
	var b strings.Builder
	b.Grow(len(raw))
	for rest := raw; rest != ""; {
		var line string
		line, rest = cutLine(rest)
		b.WriteString(trimIndent(line, 4))
	}
	text := b.String()
	if !p.table.dialect.pedantic {
		text = strings.TrimRight(text, "\n")
	}
	return &Token{Kind: KindCodeBlock, Raw: raw, Text: text}
}

func closesFence(line string, marker byte, openLen int) bool {
	s := lineContent(line)
	i := indentOf(s)
	if i > 3 {
		return false
	}
	n := 0
	for i+n < len(s) && s[i+n] == marker {
		n++
	}
	if n < openLen {
		return false
	}
	return strings.TrimRight(s[i+n:], " \t") == ""
}

func (p *blockParser) fences(src string, top bool) *Token {
	m := fenceOpenRegexp.FindStringSubmatch(src)
	if m == nil {
		return nil
	}
	indent, marker, info := m[1], m[2], m[3]
	if marker[0] == '`' && strings.Contains(info, "`") {
		return nil
	}
	i := len(m[0])
	var content strings.Builder
	for i < len(src) {
		line, _ := cutLine(src[i:])
		i += len(line)
		if closesFence(line, marker[0], len(marker)) {
			break
		}
		strip := indentOf(line)
		if strip > len(indent) {
			strip = len(indent)
		}
		content.WriteString(line[strip:])
	}
	text := strings.TrimSuffix(content.String(), "\n")
	return &Token{Kind: KindFence, Raw: src[:i], Text: text, Lang: unescapePunct(strings.TrimSpace(info))}
}

func (p *blockParser) heading(src string, top bool) *Token {
	re := atxHeadingRegexp
	if p.table.dialect.pedantic {
		re = atxHeadingPedanticReg
	}
	m := re.FindStringSubmatch(src)
	if m == nil {
		return nil
	}
	text := strings.TrimSpace(m[2])
	if strings.HasSuffix(text, "#") {
		trimmed := strings.TrimRight(text, "#")
		if p.table.dialect.pedantic || trimmed == "" || strings.HasSuffix(trimmed, " ") {
			text = strings.TrimSpace(trimmed)
		}
	}
	tok := &Token{Kind: KindHeading, Raw: m[0], Depth: len(m[1]), Text: text}
	p.queueInline(tok, text)
	return tok
}

func (p *blockParser) hr(src string, top bool) *Token {
	m := hrRegexp.FindString(src)
	if m == "" {
		return nil
	}
	return &Token{Kind: KindThematicBreak, Raw: m}
}

// quotePrefixLen reports the length of a blockquote marker at the start
// of line: up to three spaces, ">", and one optional space.
func quotePrefixLen(line string) int {
	i := indentOf(line)
	if i > 3 || i >= len(line) || line[i] != '>' {
		return 0
	}
	i++
	if i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return i
}

func (p *blockParser) blockquote(src string, top bool) *Token {
	if quotePrefixLen(src) == 0 {
		return nil
	}
	var inner strings.Builder
	i := 0
	lastWasText := false
	for i < len(src) {
		line, _ := cutLine(src[i:])
		if pre := quotePrefixLen(line); pre > 0 {
			content := line[pre:]
			inner.WriteString(content)
			i += len(line)
			lastWasText = !isBlankLine(content) && !startsBlockConstruct(content, p.table.dialect)
			continue
		}
		if lastWasText && !isBlankLine(line) && !p.interruptsParagraph(src[i:]) {
			inner.WriteString(line)
			i += len(line)
			continue
		}
		break
	}
	// Quote interiors always group paragraphs, even inside list items.
	children := p.nested(inner.String(), true)
	return &Token{Kind: KindBlockquote, Raw: src[:i], Children: children}
}

// startsBlockConstruct reports whether line opens a non-paragraph block,
// used to end lazy continuation inside blockquotes.
func startsBlockConstruct(line string, d dialect) bool {
	if atxHeadingRegexp.MatchString(line) || hrRegexp.MatchString(line) {
		return true
	}
	if quotePrefixLen(line) > 0 {
		return true
	}
	if !d.pedantic && fenceOpenRegexp.MatchString(line) {
		return true
	}
	if listMarkerRegexp.MatchString(line) {
		return true
	}
	return false
}

// interruptsParagraph reports whether the text starting at rest breaks
// a running paragraph. rest begins at a line boundary.
func (p *blockParser) interruptsParagraph(rest string) bool {
	line, after := cutLine(rest)
	if isBlankLine(line) {
		return true
	}
	d := p.table.dialect
	if atxHeadingRegexp.MatchString(rest) || hrRegexp.MatchString(rest) {
		return true
	}
	if quotePrefixLen(line) > 0 {
		return true
	}
	if !d.pedantic && fenceOpenRegexp.MatchString(rest) {
		return true
	}
	if m := listMarkerRegexp.FindStringSubmatch(line); m != nil {
		// Only bullets and lists numbered from one interrupt, and only
		// with a space after the marker.
		spaced := m[3] != "" && (m[3][0] == ' ' || m[3][0] == '\t')
		numbered := m[2][0] >= '0' && m[2][0] <= '9'
		if spaced && (!numbered || m[2] == "1." || m[2] == "1)") {
			return true
		}
	}
	if html1Regexp.MatchString(rest) || html2Regexp.MatchString(rest) ||
		html3Regexp.MatchString(rest) || html4Regexp.MatchString(rest) ||
		html5Regexp.MatchString(rest) || html6Regexp.MatchString(rest) {
		return true
	}
	if d.gfm && strings.Contains(lineContent(line), "|") {
		if next, _ := cutLine(after); next != "" && tableDelimRegexp.MatchString(next) {
			return true
		}
	}
	// A setext underline after this line would claim it for a heading.
	if !startsBlockConstruct(line, d) {
		if next, _ := cutLine(after); next != "" && setextUnderlineRegexp.MatchString(next) {
			return true
		}
	}
	return false
}

// listItemHead matches a list marker of the same family as bull at the
// start of line, returning the index just past the marker.
func listItemHead(line, bull string, pedantic bool) (int, bool) {
	i := indentOf(line)
	if i > 3 || i >= len(line) {
		return 0, false
	}
	if len(bull) == 1 {
		ok := line[i] == bull[0]
		if pedantic {
			ok = line[i] == '-' || line[i] == '+' || line[i] == '*'
		}
		if !ok {
			return 0, false
		}
		i++
	} else {
		n := 0
		for i+n < len(line) && line[i+n] >= '0' && line[i+n] <= '9' {
			n++
		}
		if n == 0 || n > 9 || i+n >= len(line) || line[i+n] != bull[len(bull)-1] {
			return 0, false
		}
		i += n + 1
	}
	if i < len(line) && line[i] != ' ' && line[i] != '\t' && line[i] != '\n' {
		return 0, false
	}
	return i, true
}

// anyListMarker reports whether line opens a list item of any family at
// an indent no deeper than maxIndent.
func anyListMarker(line string, maxIndent int) bool {
	m := listMarkerRegexp.FindStringSubmatch(line)
	return m != nil && len(m[1]) <= maxIndent
}

func hrLine(line string, maxIndent int) bool {
	n := indentOf(line)
	return n <= maxIndent && hrRegexp.MatchString(line[n:])
}

func (p *blockParser) list(src string, top bool) *Token {
	m := listMarkerRegexp.FindStringSubmatch(src)
	if m == nil {
		return nil
	}
	bull := m[2]
	ordered := len(bull) > 1
	pedantic := p.table.dialect.pedantic
	list := &Token{Kind: KindList, Ordered: ordered, Start: 1}
	if ordered {
		list.Start, _ = strconv.Atoi(bull[:len(bull)-1])
	}

	rest := src
	endsWithBlank := false
	for len(rest) > 0 {
		if hrRegexp.MatchString(rest) {
			break
		}
		firstLine, afterFirst := cutLine(rest)
		markerEnd, ok := listItemHead(firstLine, bull, pedantic)
		if !ok {
			break
		}
		itemRaw := firstLine
		rest = afterFirst

		line := lineContent(firstLine)[markerEnd:]
		var indent int
		var contents string
		if pedantic {
			indent = markerEnd + 2
			contents = strings.TrimLeft(line, " \t")
		} else {
			pad := indentOf(line)
			if pad > 4 {
				pad = 1
			}
			contents = line[pad:]
			indent = markerEnd + pad
			if pad == len(line) {
				// Marker with nothing after it; content hangs one column in.
				indent = markerEnd + 1
			}
		}

		blankInItem := false
		endEarly := false
		if line == "" {
			// An item that starts with a blank line ends right away.
			if next, afterNext := cutLine(rest); next != "" && isBlankLine(next) {
				itemRaw += next
				rest = afterNext
				endEarly = true
			}
		}
		if !endEarly {
			maxInd := capIndent(indent)
			for len(rest) > 0 {
				rawLine, afterLine := cutLine(rest)
				content := lineContent(rawLine)
				if n := indentOf(content); n <= maxInd {
					head := content[n:]
					if strings.HasPrefix(head, "```") || strings.HasPrefix(head, "~~~") || strings.HasPrefix(head, "#") {
						break
					}
				}
				if anyListMarker(content, maxInd) {
					break
				}
				if hrLine(content, maxInd) {
					break
				}
				if indentOf(content) >= indent || isBlankLine(rawLine) {
					contents += "\n" + trimIndent(content, indent)
				} else if !blankInItem {
					contents += "\n" + content
				} else {
					break
				}
				if !blankInItem && isBlankLine(rawLine) {
					blankInItem = true
				}
				itemRaw += rawLine
				rest = afterLine
			}
		}

		if !list.Loose {
			if endsWithBlank {
				list.Loose = true
			} else if blankTailRegexp.MatchString(itemRaw) {
				endsWithBlank = true
			}
		}

		item := &Token{Kind: KindListItem, Raw: itemRaw, Text: contents}
		if p.table.dialect.gfm {
			if tm := taskMarkerRegexp.FindStringSubmatch(contents); tm != nil {
				item.Task = true
				item.Checked = tm[1] != " "
				item.Text = contents[len(tm[0]):]
			}
		}
		list.Children = append(list.Children, item)
		list.Raw += itemRaw
	}
	if len(list.Children) == 0 {
		return nil
	}

	last := list.Children[len(list.Children)-1]
	last.Raw = strings.TrimRight(last.Raw, " \t\n")
	last.Text = strings.TrimRight(last.Text, " \t\n")
	list.Raw = strings.TrimRight(list.Raw, " \t\n")

	for i, item := range list.Children {
		item.Ordered = ordered
		item.Start = list.Start + i
		item.Children = p.nested(item.Text, false)
		if p.err != nil {
			return list
		}
		if !list.Loose {
			for _, child := range item.Children {
				if child.Kind == KindSpace && strings.Count(child.Raw, "\n") >= 2 {
					list.Loose = true
					break
				}
			}
		}
	}
	if list.Loose {
		for _, item := range list.Children {
			item.Loose = true
		}
	}
	return list
}

func capIndent(indent int) int {
	if indent-1 < 3 {
		return indent - 1
	}
	return 3
}

// trimIndent removes up to count leading spaces from s.
func trimIndent(s string, count int) string {
	i := 0
	for i < count && i < len(s) && s[i] == ' ' {
		i++
	}
	return s[i:]
}

func (p *blockParser) htmlBlock(src string, top bool) *Token {
	switch {
	case html1Regexp.MatchString(src):
		return htmlUntil(src, html1CloserRegexp)
	case html2Regexp.MatchString(src):
		return htmlUntil(src, html2CloserRegexp)
	case html3Regexp.MatchString(src):
		return htmlUntil(src, html3CloserRegexp)
	case html4Regexp.MatchString(src):
		return htmlUntil(src, html4CloserRegexp)
	case html5Regexp.MatchString(src):
		return htmlUntil(src, html5CloserRegexp)
	case html6Regexp.MatchString(src):
		return htmlUntilBlank(src)
	case html7Regexp.MatchString(src):
		return htmlUntilBlank(src)
	}
	return nil
}

func htmlUntil(src string, closeRe *regexp.Regexp) *Token {
	i := 0
	for i < len(src) {
		line, _ := cutLine(src[i:])
		i += len(line)
		if closeRe.MatchString(line) {
			break
		}
	}
	raw := src[:i]
	return &Token{Kind: KindRawHTMLBlock, Raw: raw, Text: raw}
}

func htmlUntilBlank(src string) *Token {
	i := 0
	for i < len(src) {
		line, _ := cutLine(src[i:])
		if isBlankLine(line) {
			break
		}
		i += len(line)
	}
	raw := src[:i]
	return &Token{Kind: KindRawHTMLBlock, Raw: raw, Text: raw}
}

func (p *blockParser) def(src string, top bool) *Token {
	i := indentOf(src)
	if i > 3 {
		return nil
	}
	label, j, ok := parseLinkLabel(src, i)
	if !ok || j >= len(src) || src[j] != ':' {
		return nil
	}
	j = skipSpaceOneNewline(src, j+1)
	href, j, ok := parseLinkDest(src, j)
	if !ok {
		return nil
	}
	end := j
	spaced := false
	for end < len(src) && (src[end] == ' ' || src[end] == '\t') {
		end++
		spaced = true
	}
	title := ""
	if k := end; k < len(src) {
		nl := src[k] == '\n'
		if nl {
			k++
			for k < len(src) && (src[k] == ' ' || src[k] == '\t') {
				k++
			}
		}
		if spaced || nl {
			if t, after, ok := parseLinkTitle(src, k); ok {
				for after < len(src) && (src[after] == ' ' || src[after] == '\t') {
					after++
				}
				if after >= len(src) || src[after] == '\n' {
					title = t
					end = after
				}
			}
		}
	}
	if end < len(src) && src[end] != '\n' {
		return nil
	}
	if end < len(src) {
		end++
	}
	return &Token{Kind: KindLinkDef, Raw: src[:end], Label: label, Href: href, Title: title}
}

func skipSpaceOneNewline(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	if i < len(s) && s[i] == '\n' {
		i++
		for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
			i++
		}
	}
	return i
}

// splitTableRow splits a pipe-table row into trimmed cell texts,
// honoring escaped pipes and dropping edge pipes.
func splitTableRow(line string) []string {
	s := strings.TrimSpace(lineContent(line))
	s = strings.TrimPrefix(s, "|")
	var cells []string
	var cur strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if i+1 < len(s) && s[i+1] == '|' {
				cur.WriteByte('|')
				i++
				continue
			}
			cur.WriteByte(s[i])
		case '|':
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(s[i])
		}
	}
	tail := strings.TrimSpace(cur.String())
	if tail != "" || len(cells) == 0 {
		cells = append(cells, tail)
	}
	return cells
}

func parseDelimRow(line string) []Alignment {
	cells := splitTableRow(line)
	aligns := make([]Alignment, 0, len(cells))
	for _, c := range cells {
		left := strings.HasPrefix(c, ":")
		right := strings.HasSuffix(c, ":")
		dashes := strings.Trim(c, ":")
		if dashes == "" || strings.Trim(dashes, "-") != "" {
			return nil
		}
		switch {
		case left && right:
			aligns = append(aligns, AlignCenter)
		case left:
			aligns = append(aligns, AlignLeft)
		case right:
			aligns = append(aligns, AlignRight)
		default:
			aligns = append(aligns, AlignNone)
		}
	}
	return aligns
}

// breaksTableRow reports whether the line starting rest ends the body
// of a pipe table.
func (p *blockParser) breaksTableRow(rest string) bool {
	line, _ := cutLine(rest)
	if isBlankLine(line) {
		return true
	}
	if atxHeadingRegexp.MatchString(rest) || hrRegexp.MatchString(rest) {
		return true
	}
	if quotePrefixLen(line) > 0 || strings.HasPrefix(line, "    ") {
		return true
	}
	if !p.table.dialect.pedantic && fenceOpenRegexp.MatchString(rest) {
		return true
	}
	if listMarkerRegexp.MatchString(line) {
		return true
	}
	if html1Regexp.MatchString(rest) || html2Regexp.MatchString(rest) ||
		html3Regexp.MatchString(rest) || html4Regexp.MatchString(rest) ||
		html5Regexp.MatchString(rest) || html6Regexp.MatchString(rest) {
		return true
	}
	return false
}

func (p *blockParser) tableBlock(src string, top bool) *Token {
	header, rest := cutLine(src)
	if isBlankLine(header) || !strings.Contains(lineContent(header), "|") {
		return nil
	}
	if quotePrefixLen(header) > 0 || indentOf(header) > 3 {
		return nil
	}
	delim, _ := cutLine(rest)
	if delim == "" || !tableDelimRegexp.MatchString(delim) {
		return nil
	}
	headerCells := splitTableRow(header)
	aligns := parseDelimRow(delim)
	if aligns == nil || len(headerCells) != len(aligns) {
		return nil
	}

	tok := &Token{Kind: KindTable, Aligns: aligns}
	headRow := &Token{Kind: KindTableRow, Raw: lineContent(header), Header: true}
	for col, cell := range headerCells {
		c := &Token{Kind: KindTableCell, Raw: cell, Text: cell, Header: true, Align: aligns[col]}
		p.queueInline(c, cell)
		headRow.Children = append(headRow.Children, c)
	}
	tok.Children = append(tok.Children, headRow)

	i := len(header) + len(delim)
	for i < len(src) {
		if p.breaksTableRow(src[i:]) {
			break
		}
		line, _ := cutLine(src[i:])
		cells := splitTableRow(line)
		if len(cells) > len(aligns) {
			cells = cells[:len(aligns)]
		}
		row := &Token{Kind: KindTableRow, Raw: lineContent(line)}
		for col := 0; col < len(aligns); col++ {
			text := ""
			if col < len(cells) {
				text = cells[col]
			}
			c := &Token{Kind: KindTableCell, Raw: text, Text: text, Align: aligns[col]}
			p.queueInline(c, text)
			row.Children = append(row.Children, c)
		}
		tok.Children = append(tok.Children, row)
		i += len(line)
	}
	tok.Raw = src[:i]
	return tok
}

func (p *blockParser) lheading(src string, top bool) *Token {
	line, rest := cutLine(src)
	content := strings.TrimSpace(lineContent(line))
	if content == "" || indentOf(line) > 3 {
		return nil
	}
	m := setextUnderlineRegexp.FindStringSubmatch(rest)
	if m == nil {
		return nil
	}
	depth := 2
	if m[1][0] == '=' {
		depth = 1
	}
	tok := &Token{Kind: KindHeading, Raw: src[:len(line)+len(m[0])], Depth: depth, Text: content}
	p.queueInline(tok, content)
	return tok
}

func (p *blockParser) paragraph(src string, top bool) *Token {
	if !top {
		return nil
	}
	src = clipToRuleStart(src, p.opts.ext.startBlock)
	first, rest := cutLine(src)
	if isBlankLine(first) {
		return nil
	}
	i := len(first)
	for len(rest) > 0 {
		if p.interruptsParagraph(rest) {
			break
		}
		line, after := cutLine(rest)
		i += len(line)
		rest = after
	}
	text := strings.TrimSuffix(src[:i], "\n")
	tok := &Token{Kind: KindParagraph, Raw: text, Text: text}
	p.queueInline(tok, text)
	return tok
}

func (p *blockParser) blockText(src string, top bool) *Token {
	line, _ := cutLine(src)
	text := lineContent(line)
	if text == "" {
		return nil
	}
	tok := &Token{Kind: KindText, Raw: text, Text: text}
	p.queueInline(tok, text)
	return tok
}
