package mdh

import (
	"strconv"
	"strings"

	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/wordwrap"
)

// Internal cell and row separators for table composition. Both are
// control bytes, which sanitizeSource strips from every document, so
// they can never collide with cell content.
const (
	cellSep = "\x1f"
	rowSep  = "\x1e"
)

// ANSIRenderer renders tokens as styled terminal text. It handles
// every token kind, so installing it with WithRenderer switches the
// whole pipeline to terminal output; installing it via an extension
// renderer override styles individual kinds in front of HTMLRenderer.
type ANSIRenderer struct {
	styles Styles
	width  int
	osc8   bool
}

var _ Renderer = (*ANSIRenderer)(nil)

// ANSIOption adjusts an ANSIRenderer under construction.
type ANSIOption func(*ANSIRenderer)

// WithTheme selects the color theme.
func WithTheme(t Theme) ANSIOption {
	return func(r *ANSIRenderer) { r.styles = t.Styles() }
}

// WithWidth sets the wrap width in terminal columns. Zero disables
// wrapping.
func WithWidth(width int) ANSIOption {
	return func(r *ANSIRenderer) { r.width = width }
}

// WithHyperlinks toggles OSC 8 hyperlink emission. See
// DetectOSC8Support for probing the terminal.
func WithHyperlinks(enabled bool) ANSIOption {
	return func(r *ANSIRenderer) { r.osc8 = enabled }
}

// NewANSIRenderer returns a terminal renderer with the default theme
// and an 80 column wrap width.
func NewANSIRenderer(opts ...ANSIOption) *ANSIRenderer {
	r := &ANSIRenderer{styles: DefaultTheme().Styles(), width: 80}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// styled wraps text in a style prefix and reset, re-applying the
// prefix after any nested reset so inner styles compose.
func styled(s Style, text string) string {
	if s.Prefix == "" {
		return text
	}
	return s.Prefix + strings.ReplaceAll(text, sgrReset, sgrReset+s.Prefix) + sgrReset
}

// wrap word-wraps styled text to the configured width. Text carrying
// OSC 8 sequences passes through unwrapped: the wrapper only
// understands SGR sequences and would count hyperlink targets as
// printable.
func (r *ANSIRenderer) wrap(s string) string {
	if r.width <= 0 || strings.Contains(s, osc8Start) {
		return s
	}
	return wordwrap.String(s, r.width)
}

func (r *ANSIRenderer) Space(t *Token, inner string) (string, bool) { return "", true }

func (r *ANSIRenderer) Code(t *Token, inner string) (string, bool) {
	text := strings.TrimSuffix(t.Text, "\n")
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			b.WriteByte('\n')
			continue
		}
		b.WriteString("  ")
		b.WriteString(styled(r.styles.CodeBlock, line))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return b.String(), true
}

func (r *ANSIRenderer) Blockquote(t *Token, inner string) (string, bool) {
	bar := styled(r.styles.Quote, "│")
	var b strings.Builder
	for _, line := range strings.Split(strings.TrimRight(inner, "\n"), "\n") {
		b.WriteString(bar)
		if line != "" {
			b.WriteByte(' ')
			b.WriteString(line)
		}
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return b.String(), true
}

func (r *ANSIRenderer) HTML(t *Token, inner string) (string, bool) {
	out := styled(Style{Prefix: sgrFaint}, strings.TrimRight(t.Text, "\n"))
	if t.Kind == KindRawHTMLBlock {
		out += "\n\n"
	}
	return out, true
}

func (r *ANSIRenderer) Heading(t *Token, inner string) (string, bool) {
	depth := t.Depth
	if depth < 1 {
		depth = 1
	}
	if depth > 6 {
		depth = 6
	}
	return styled(r.styles.Heading[depth-1], inner) + "\n\n", true
}

func (r *ANSIRenderer) HR(t *Token, inner string) (string, bool) {
	n := r.width
	if n <= 0 {
		n = 3
	}
	return styled(r.styles.ThematicBreak, strings.Repeat("─", n)) + "\n\n", true
}

func (r *ANSIRenderer) List(t *Token, inner string) (string, bool) {
	return strings.TrimRight(inner, "\n") + "\n\n", true
}

func (r *ANSIRenderer) ListItem(t *Token, inner string) (string, bool) {
	marker := "• "
	if t.Ordered {
		marker = strconv.Itoa(t.Start) + ". "
	}
	pad := strings.Repeat(" ", ansi.PrintableRuneWidth(marker))
	lines := strings.Split(strings.TrimRight(inner, "\n"), "\n")
	for i := 1; i < len(lines); i++ {
		if lines[i] != "" {
			lines[i] = pad + lines[i]
		}
	}
	out := styled(r.styles.ListMarker, marker) + strings.Join(lines, "\n") + "\n"
	if t.Loose {
		out += "\n"
	}
	return out, true
}

func (r *ANSIRenderer) Paragraph(t *Token, inner string) (string, bool) {
	return r.wrap(styled(r.styles.Text, inner)) + "\n\n", true
}

func (r *ANSIRenderer) Table(t *Token, inner string) (string, bool) {
	return inner + "\n", true
}

func (r *ANSIRenderer) TableRow(t *Token, inner string) (string, bool) {
	return inner + rowSep, true
}

func (r *ANSIRenderer) TableCell(t *Token, inner string) (string, bool) {
	return inner + cellSep, true
}

// ComposeTable lays the rendered rows out as an aligned grid with a
// rule under the header.
func (r *ANSIRenderer) ComposeTable(t *Token, header, body string) (string, bool) {
	rows := splitTableComposition(header + body)
	if len(rows) == 0 {
		return "", true
	}
	widths := make([]int, len(t.Aligns))
	for _, row := range rows {
		for col, cell := range row {
			if col >= len(widths) {
				break
			}
			if w := ansi.PrintableRuneWidth(cell); w > widths[col] {
				widths[col] = w
			}
		}
	}
	bar := styled(r.styles.TableBorder, "│")
	var b strings.Builder
	writeRow := func(row []string) {
		for col := range widths {
			cell := ""
			if col < len(row) {
				cell = row[col]
			}
			align := AlignNone
			if col < len(t.Aligns) {
				align = t.Aligns[col]
			}
			if col > 0 {
				b.WriteString(" " + bar + " ")
			}
			b.WriteString(padCell(cell, widths[col], align))
		}
		b.WriteByte('\n')
	}
	writeRow(rows[0])
	for col, w := range widths {
		if col > 0 {
			b.WriteString(styled(r.styles.TableBorder, "─┼─"))
		}
		b.WriteString(styled(r.styles.TableBorder, strings.Repeat("─", w)))
	}
	b.WriteByte('\n')
	for _, row := range rows[1:] {
		writeRow(row)
	}
	b.WriteByte('\n')
	return b.String(), true
}

func splitTableComposition(s string) [][]string {
	s = strings.TrimSuffix(s, rowSep)
	if s == "" {
		return nil
	}
	var rows [][]string
	for _, raw := range strings.Split(s, rowSep) {
		rows = append(rows, strings.Split(strings.TrimSuffix(raw, cellSep), cellSep))
	}
	return rows
}

func padCell(cell string, width int, align Alignment) string {
	gap := width - ansi.PrintableRuneWidth(cell)
	if gap <= 0 {
		return cell
	}
	switch align {
	case AlignRight:
		return strings.Repeat(" ", gap) + cell
	case AlignCenter:
		left := gap / 2
		return strings.Repeat(" ", left) + cell + strings.Repeat(" ", gap-left)
	default:
		return cell + strings.Repeat(" ", gap)
	}
}

func (r *ANSIRenderer) LinkDef(t *Token, inner string) (string, bool) { return "", true }

func (r *ANSIRenderer) Strong(t *Token, inner string) (string, bool) {
	return styled(r.styles.Strong, inner), true
}

func (r *ANSIRenderer) Em(t *Token, inner string) (string, bool) {
	return styled(r.styles.Emphasis, inner), true
}

func (r *ANSIRenderer) Codespan(t *Token, inner string) (string, bool) {
	return styled(r.styles.CodeInline, t.Text), true
}

func (r *ANSIRenderer) Br(t *Token, inner string) (string, bool) { return "\n", true }

func (r *ANSIRenderer) Del(t *Token, inner string) (string, bool) {
	return styled(r.styles.Del, inner), true
}

func (r *ANSIRenderer) Link(t *Token, inner string) (string, bool) {
	if r.osc8 {
		return osc8Start + t.Href + "\x1b\\" + styled(r.styles.LinkText, inner) + osc8End, true
	}
	text := styled(r.styles.LinkText, inner)
	if inner == t.Href || t.Href == "" {
		return text, true
	}
	limit := r.width / 2
	if limit <= 0 {
		limit = 40
	}
	return text + " " + styled(r.styles.LinkURL, "("+fitURL(t.Href, limit)+")"), true
}

func (r *ANSIRenderer) Image(t *Token, inner string) (string, bool) {
	text := styled(r.styles.LinkText, "["+inner+"]")
	if t.Href == "" {
		return text, true
	}
	limit := r.width / 2
	if limit <= 0 {
		limit = 40
	}
	return text + " " + styled(r.styles.LinkURL, "("+fitURL(t.Href, limit)+")"), true
}

func (r *ANSIRenderer) Text(t *Token, inner string) (string, bool) {
	return t.Text, true
}

// Checkbox draws task list boxes in the marker style.
func (r *ANSIRenderer) Checkbox(checked bool) string {
	if checked {
		return styled(r.styles.ListMarker, "[x]") + " "
	}
	return styled(r.styles.ListMarker, "[ ]") + " "
}

func truncateWithEllipsis(text string, limit int) string {
	if ansi.PrintableRuneWidth(text) <= limit {
		return text
	}
	if limit <= 0 {
		return ""
	}
	if limit == 1 {
		return "…"
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-1]) + "…"
}

// fitURL shortens a URL to limit columns, dropping the scheme first
// and truncating with an ellipsis as a last resort.
func fitURL(url string, limit int) string {
	if ansi.PrintableRuneWidth(url) <= limit {
		return url
	}
	if idx := strings.Index(url, "://"); idx != -1 {
		trimmed := url[idx+3:]
		if ansi.PrintableRuneWidth(trimmed) <= limit {
			return trimmed
		}
	}
	return truncateWithEllipsis(url, limit)
}
