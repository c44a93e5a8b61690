package mdh

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Renderer turns tokens into output fragments. Every method receives
// the token and the already-rendered content of its children (empty for
// leaves) and reports whether it handled the token; returning false
// passes the token to the next renderer in the chain.
type Renderer interface {
	Space(t *Token, inner string) (string, bool)
	Code(t *Token, inner string) (string, bool)
	Blockquote(t *Token, inner string) (string, bool)
	HTML(t *Token, inner string) (string, bool)
	Heading(t *Token, inner string) (string, bool)
	HR(t *Token, inner string) (string, bool)
	List(t *Token, inner string) (string, bool)
	ListItem(t *Token, inner string) (string, bool)
	Paragraph(t *Token, inner string) (string, bool)
	Table(t *Token, inner string) (string, bool)
	TableRow(t *Token, inner string) (string, bool)
	TableCell(t *Token, inner string) (string, bool)
	LinkDef(t *Token, inner string) (string, bool)
	Strong(t *Token, inner string) (string, bool)
	Em(t *Token, inner string) (string, bool)
	Codespan(t *Token, inner string) (string, bool)
	Br(t *Token, inner string) (string, bool)
	Del(t *Token, inner string) (string, bool)
	Link(t *Token, inner string) (string, bool)
	Image(t *Token, inner string) (string, bool)
	Text(t *Token, inner string) (string, bool)
}

// Optional renderer capabilities, discovered by type assertion along
// the chain. A renderer that draws its own task checkboxes or table
// frames implements these; everything else inherits the HTML forms.
type checkboxRenderer interface {
	Checkbox(checked bool) string
}

type tableComposer interface {
	ComposeTable(t *Token, header, body string) (string, bool)
}

type renderFn func(Renderer, *Token, string) (string, bool)

var renderDispatch = [kindCount]renderFn{
	KindSpace:          Renderer.Space,
	KindThematicBreak:  Renderer.HR,
	KindHeading:        Renderer.Heading,
	KindCodeBlock:      Renderer.Code,
	KindFence:          Renderer.Code,
	KindBlockquote:     Renderer.Blockquote,
	KindList:           Renderer.List,
	KindListItem:       Renderer.ListItem,
	KindRawHTMLBlock:   Renderer.HTML,
	KindLinkDef:        Renderer.LinkDef,
	KindParagraph:      Renderer.Paragraph,
	KindTable:          Renderer.Table,
	KindTableRow:       Renderer.TableRow,
	KindTableCell:      Renderer.TableCell,
	KindText:           Renderer.Text,
	KindEscape:         Renderer.Text,
	KindRawHTMLInline:  Renderer.HTML,
	KindLink:           Renderer.Link,
	KindImage:          Renderer.Image,
	KindStrong:         Renderer.Strong,
	KindEmphasis:       Renderer.Em,
	KindCodeSpan:       Renderer.Codespan,
	KindLineBreak:      Renderer.Br,
	KindStrikethrough:  Renderer.Del,
}

type renderState struct {
	opts  *Options
	chain []Renderer
}

func (rs *renderState) dispatch(t *Token, inner string) (string, error) {
	if int(t.Kind) >= len(renderDispatch) || renderDispatch[t.Kind] == nil {
		err := unknownTokenKind(t.Kind)
		if rs.opts.Silent {
			rs.opts.Logger.Warn("skipping token with no renderer", "kind", t.Kind, "error", err)
			return "", nil
		}
		return "", err
	}
	fn := renderDispatch[t.Kind]
	for _, r := range rs.chain {
		if out, ok := fn(r, t, inner); ok {
			return out, nil
		}
	}
	return "", nil
}

// renderBlocks walks a block token sequence. top controls whether text
// tokens become paragraphs, which is how loose lists differ from tight
// ones.
func (rs *renderState) renderBlocks(tokens []*Token, top bool) (string, error) {
	var b strings.Builder
	for _, t := range tokens {
		out, err := rs.renderBlock(t, top)
		if err != nil {
			return "", err
		}
		b.WriteString(out)
	}
	return b.String(), nil
}

func (rs *renderState) renderBlock(t *Token, top bool) (string, error) {
	switch t.Kind {
	case KindHeading, KindParagraph:
		inner, err := rs.renderInline(t.Children)
		if err != nil {
			return "", err
		}
		return rs.dispatch(t, inner)
	case KindBlockquote:
		inner, err := rs.renderBlocks(t.Children, true)
		if err != nil {
			return "", err
		}
		return rs.dispatch(t, inner)
	case KindList:
		return rs.renderList(t)
	case KindTable:
		return rs.renderTable(t)
	case KindText:
		inner, err := rs.renderInline(t.Children)
		if err != nil {
			return "", err
		}
		if t.Children == nil {
			if inner, err = rs.dispatch(t, ""); err != nil {
				return "", err
			}
		}
		if top {
			return rs.dispatch(&Token{Kind: KindParagraph, Raw: t.Raw, Text: t.Text}, inner)
		}
		return inner, nil
	default:
		return rs.dispatch(t, "")
	}
}

func (rs *renderState) renderList(t *Token) (string, error) {
	var body strings.Builder
	for _, item := range t.Children {
		var itemBody strings.Builder
		checkbox := ""
		if item.Task {
			checkbox = rs.checkbox(item.Checked)
		}
		children := item.Children
		if checkbox != "" && t.Loose && len(children) > 0 && children[0].Kind == KindParagraph {
			inner, err := rs.renderInline(children[0].Children)
			if err != nil {
				return "", err
			}
			out, err := rs.dispatch(children[0], checkbox+inner)
			if err != nil {
				return "", err
			}
			itemBody.WriteString(out)
			children = children[1:]
			checkbox = ""
		}
		itemBody.WriteString(checkbox)
		rest, err := rs.renderBlocks(children, t.Loose)
		if err != nil {
			return "", err
		}
		itemBody.WriteString(rest)
		out, err := rs.dispatch(item, itemBody.String())
		if err != nil {
			return "", err
		}
		body.WriteString(out)
	}
	return rs.dispatch(t, body.String())
}

func (rs *renderState) checkbox(checked bool) string {
	for _, r := range rs.chain {
		if cb, ok := r.(checkboxRenderer); ok {
			return cb.Checkbox(checked)
		}
	}
	return checkboxHTML(checked)
}

func (rs *renderState) renderTable(t *Token) (string, error) {
	renderRow := func(row *Token) (string, error) {
		var cells strings.Builder
		for _, cell := range row.Children {
			inner, err := rs.renderInline(cell.Children)
			if err != nil {
				return "", err
			}
			out, err := rs.dispatch(cell, inner)
			if err != nil {
				return "", err
			}
			cells.WriteString(out)
		}
		return rs.dispatch(row, cells.String())
	}
	if len(t.Children) == 0 {
		return rs.dispatch(t, "")
	}
	header, err := renderRow(t.Children[0])
	if err != nil {
		return "", err
	}
	var rows strings.Builder
	for _, row := range t.Children[1:] {
		out, err := renderRow(row)
		if err != nil {
			return "", err
		}
		rows.WriteString(out)
	}
	for _, r := range rs.chain {
		if tc, ok := r.(tableComposer); ok {
			if out, handled := tc.ComposeTable(t, header, rows.String()); handled {
				return out, nil
			}
		}
	}
	return rs.dispatch(t, header+rows.String())
}

func (rs *renderState) renderInline(tokens []*Token) (string, error) {
	var b strings.Builder
	for _, t := range tokens {
		var inner string
		var err error
		switch t.Kind {
		case KindLink, KindStrong, KindEmphasis, KindStrikethrough:
			inner, err = rs.renderInline(t.Children)
		case KindImage:
			inner = flattenInline(t.Children)
		}
		if err != nil {
			return "", err
		}
		out, err := rs.dispatch(t, inner)
		if err != nil {
			return "", err
		}
		b.WriteString(out)
	}
	return b.String(), nil
}

// flattenInline reduces inline tokens to their plain text, as used for
// image alt attributes.
func flattenInline(tokens []*Token) string {
	var b strings.Builder
	flattenInto(&b, tokens)
	return b.String()
}

func flattenInto(b *strings.Builder, tokens []*Token) {
	for _, t := range tokens {
		switch t.Kind {
		case KindText, KindEscape, KindCodeSpan, KindRawHTMLInline:
			b.WriteString(t.Text)
		case KindStrong, KindEmphasis, KindStrikethrough:
			b.WriteString(t.Text)
		case KindLineBreak:
		default:
			flattenInto(b, t.Children)
		}
	}
}

// HTMLRenderer is the default renderer. Its output matches GitHub
// flavored conventions: minimal markup, one newline after each block.
type HTMLRenderer struct{}

var _ Renderer = HTMLRenderer{}

func (HTMLRenderer) Space(t *Token, inner string) (string, bool) { return "", true }

func (HTMLRenderer) Code(t *Token, inner string) (string, bool) {
	text := strings.TrimSuffix(t.Text, "\n") + "\n"
	if !t.Escaped {
		text = escapeAll(text)
	}
	lang := t.Lang
	if i := strings.IndexAny(lang, " \t"); i >= 0 {
		lang = lang[:i]
	}
	if lang == "" {
		return "<pre><code>" + text + "</code></pre>\n", true
	}
	return `<pre><code class="language-` + escapeAll(lang) + `">` + text + "</code></pre>\n", true
}

func (HTMLRenderer) Blockquote(t *Token, inner string) (string, bool) {
	return "<blockquote>\n" + inner + "</blockquote>\n", true
}

func (HTMLRenderer) HTML(t *Token, inner string) (string, bool) { return t.Text, true }

func (HTMLRenderer) Heading(t *Token, inner string) (string, bool) {
	level := fmt.Sprintf("%d", t.Depth)
	return "<h" + level + ">" + inner + "</h" + level + ">\n", true
}

func (HTMLRenderer) HR(t *Token, inner string) (string, bool) { return "<hr>\n", true }

func (HTMLRenderer) List(t *Token, inner string) (string, bool) {
	tag := "ul"
	start := ""
	if t.Ordered {
		tag = "ol"
		if t.Start != 1 {
			start = fmt.Sprintf(` start="%d"`, t.Start)
		}
	}
	return "<" + tag + start + ">\n" + inner + "</" + tag + ">\n", true
}

func (HTMLRenderer) ListItem(t *Token, inner string) (string, bool) {
	return "<li>" + inner + "</li>\n", true
}

func (HTMLRenderer) Paragraph(t *Token, inner string) (string, bool) {
	return "<p>" + inner + "</p>\n", true
}

func (HTMLRenderer) Table(t *Token, inner string) (string, bool) {
	return "<table>\n" + inner + "</table>\n", true
}

func (HTMLRenderer) ComposeTable(t *Token, header, body string) (string, bool) {
	inner := "<thead>\n" + header + "</thead>\n"
	if body != "" {
		inner += "<tbody>" + body + "</tbody>"
	}
	return "<table>\n" + inner + "</table>\n", true
}

func (HTMLRenderer) Checkbox(checked bool) string { return checkboxHTML(checked) }

func (HTMLRenderer) TableRow(t *Token, inner string) (string, bool) {
	return "<tr>\n" + inner + "</tr>\n", true
}

func (HTMLRenderer) TableCell(t *Token, inner string) (string, bool) {
	tag := "td"
	if t.Header {
		tag = "th"
	}
	if t.Align != AlignNone {
		return `<` + tag + ` align="` + t.Align.String() + `">` + inner + "</" + tag + ">\n", true
	}
	return "<" + tag + ">" + inner + "</" + tag + ">\n", true
}

func (HTMLRenderer) LinkDef(t *Token, inner string) (string, bool) { return "", true }

func (HTMLRenderer) Strong(t *Token, inner string) (string, bool) {
	return "<strong>" + inner + "</strong>", true
}

func (HTMLRenderer) Em(t *Token, inner string) (string, bool) {
	return "<em>" + inner + "</em>", true
}

func (HTMLRenderer) Codespan(t *Token, inner string) (string, bool) {
	return "<code>" + escapeAll(t.Text) + "</code>", true
}

func (HTMLRenderer) Br(t *Token, inner string) (string, bool) { return "<br>", true }

func (HTMLRenderer) Del(t *Token, inner string) (string, bool) {
	return "<del>" + inner + "</del>", true
}

func (HTMLRenderer) Link(t *Token, inner string) (string, bool) {
	href, ok := cleanURL(t.Href)
	if !ok {
		return inner, true
	}
	out := `<a href="` + escapeText(href) + `"`
	if t.Title != "" {
		out += ` title="` + escapeText(t.Title) + `"`
	}
	return out + ">" + inner + "</a>", true
}

func (HTMLRenderer) Image(t *Token, inner string) (string, bool) {
	href, ok := cleanURL(t.Href)
	if !ok {
		return escapeText(inner), true
	}
	out := `<img src="` + escapeText(href) + `" alt="` + escapeText(inner) + `"`
	if t.Title != "" {
		out += ` title="` + escapeText(t.Title) + `"`
	}
	return out + ">", true
}

func (HTMLRenderer) Text(t *Token, inner string) (string, bool) {
	if t.Escaped {
		return t.Text, true
	}
	return escapeText(t.Text), true
}

func checkboxHTML(checked bool) string {
	if checked {
		return `<input checked="" disabled="" type="checkbox"> `
	}
	return `<input disabled="" type="checkbox"> `
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// escapeAll escapes every HTML-significant character.
func escapeAll(s string) string {
	if !strings.ContainsAny(s, `&<>"'`) {
		return s
	}
	return htmlEscaper.Replace(s)
}

// escapeText escapes HTML-significant characters but leaves ampersands
// that already begin an entity alone.
func escapeText(s string) string {
	if !strings.ContainsAny(s, `&<>"'`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '&':
			if entityAt(s, i) {
				b.WriteByte(c)
			} else {
				b.WriteString("&amp;")
			}
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&#39;")
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func entityAt(s string, i int) bool {
	j := i + 1
	if j < len(s) && s[j] == '#' {
		j++
	}
	k := j
	for k < len(s) && isWordByte(s[k]) {
		k++
	}
	return k > j && k < len(s) && s[k] == ';'
}

func isWordByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}

// Characters a URI keeps verbatim; everything else is percent-encoded.
const uriKeep = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789;,/?:@&=+$-_.!~*'()#%"

const hexDigits = "0123456789ABCDEF"

// cleanURL percent-encodes a link destination, keeping already-encoded
// percent sequences intact. Destinations that are not valid UTF-8 do
// not encode; the caller falls back to plain text.
func cleanURL(s string) (string, bool) {
	if !utf8.ValidString(s) {
		return "", false
	}
	clean := true
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(uriKeep, s[i]) < 0 {
			clean = false
			break
		}
	}
	if clean {
		return s, true
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if strings.IndexByte(uriKeep, c) >= 0 {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hexDigits[c>>4])
		b.WriteByte(hexDigits[c&0xf])
	}
	return b.String(), true
}
