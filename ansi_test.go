package mdh

import (
	"reflect"
	"strings"
	"testing"
)

// plainANSI returns a terminal renderer with an unstyled theme so
// layout can be asserted without escape sequences in the way.
func plainANSI(opts ...ANSIOption) *ANSIRenderer {
	base := []ANSIOption{WithTheme(NewTheme("plain", Styles{})), WithWidth(0)}
	return NewANSIRenderer(append(base, opts...)...)
}

func TestStyledComposesNestedStyles(t *testing.T) {
	inner := styled(Style{Prefix: sgrBold}, "in")
	if inner != "\x1b[1min\x1b[0m" {
		t.Fatalf("styled bold = %q", inner)
	}
	// The outer prefix is re-applied after the nested reset.
	out := styled(Style{Prefix: sgrItalic}, "a"+inner+"b")
	want := "\x1b[3ma\x1b[1min\x1b[0m\x1b[3mb\x1b[0m"
	if out != want {
		t.Fatalf("styled nesting = %q, want %q", out, want)
	}
	if got := styled(Style{}, "bare"); got != "bare" {
		t.Fatalf("empty prefix should pass text through, got %q", got)
	}
}

func TestANSIListItemLayout(t *testing.T) {
	r := plainANSI()

	out, ok := r.ListItem(&Token{Kind: KindListItem, Ordered: true, Start: 3}, "first\nsecond\n")
	if !ok || out != "3. first\n   second\n" {
		t.Fatalf("ordered item = %q", out)
	}

	out, _ = r.ListItem(&Token{Kind: KindListItem}, "a\n")
	if out != "• a\n" {
		t.Fatalf("bullet item = %q", out)
	}

	out, _ = r.ListItem(&Token{Kind: KindListItem, Loose: true}, "a\n")
	if out != "• a\n\n" {
		t.Fatalf("loose item = %q", out)
	}

	// Blank interior lines stay unpadded.
	out, _ = r.ListItem(&Token{Kind: KindListItem}, "a\n\nb\n")
	if out != "• a\n\n  b\n" {
		t.Fatalf("item with blank line = %q", out)
	}

	out, _ = r.List(&Token{Kind: KindList}, "• a\n• b\n\n")
	if out != "• a\n• b\n\n" {
		t.Fatalf("list = %q", out)
	}
}

func TestANSIComposeTableAlignment(t *testing.T) {
	r := plainANSI()
	tok := &Token{
		Kind:   KindTable,
		Aligns: []Alignment{AlignNone, AlignRight, AlignCenter},
	}
	header := "Name" + cellSep + "Qty" + cellSep + "Unit" + cellSep + rowSep
	body := "pen" + cellSep + "10" + cellSep + "x" + cellSep + rowSep

	out, ok := r.ComposeTable(tok, header, body)
	if !ok {
		t.Fatalf("ComposeTable declined")
	}
	want := "Name │ Qty │ Unit\n" +
		"─────┼─────┼─────\n" +
		"pen  │  10 │  x  \n" +
		"\n"
	if out != want {
		t.Fatalf("table grid:\n%q\nwant:\n%q", out, want)
	}

	out, ok = r.ComposeTable(&Token{Kind: KindTable}, "", "")
	if !ok || out != "" {
		t.Fatalf("empty table = %q", out)
	}
}

func TestSplitTableComposition(t *testing.T) {
	in := "a" + cellSep + "b" + cellSep + rowSep + "c" + cellSep + rowSep
	rows := splitTableComposition(in)
	want := [][]string{{"a", "b"}, {"c"}}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("rows = %v, want %v", rows, want)
	}
	if rows := splitTableComposition(""); rows != nil {
		t.Fatalf("empty composition = %v", rows)
	}
}

func TestANSIHRWidth(t *testing.T) {
	r := plainANSI(WithWidth(10))
	out, _ := r.HR(&Token{Kind: KindThematicBreak}, "")
	if out != strings.Repeat("─", 10)+"\n\n" {
		t.Fatalf("hr at width 10 = %q", out)
	}

	out, _ = plainANSI().HR(&Token{Kind: KindThematicBreak}, "")
	if out != "───\n\n" {
		t.Fatalf("hr without width = %q", out)
	}
}

func TestANSICheckbox(t *testing.T) {
	r := plainANSI()
	if got := r.Checkbox(true); got != "[x] " {
		t.Fatalf("checked box = %q", got)
	}
	if got := r.Checkbox(false); got != "[ ] " {
		t.Fatalf("unchecked box = %q", got)
	}
}

func TestANSICodeIndentsLines(t *testing.T) {
	r := plainANSI()
	out, _ := r.Code(&Token{Kind: KindCodeBlock, Text: "a\n\nb\n"}, "")
	if out != "  a\n\n  b\n\n" {
		t.Fatalf("code block = %q", out)
	}
	out, _ = r.Code(&Token{Kind: KindFence, Text: "x\n"}, "")
	if out != "  x\n\n" {
		t.Fatalf("single line = %q", out)
	}
}

func TestANSIBlockquoteBars(t *testing.T) {
	r := plainANSI()
	out, _ := r.Blockquote(&Token{Kind: KindBlockquote}, "one\ntwo\n\n")
	if out != "│ one\n│ two\n\n" {
		t.Fatalf("blockquote = %q", out)
	}
	// A blank line inside the quote keeps its bar, without a trailing
	// space.
	out, _ = r.Blockquote(&Token{Kind: KindBlockquote}, "one\n\ntwo\n")
	if out != "│ one\n│\n│ two\n\n" {
		t.Fatalf("blockquote with gap = %q", out)
	}
}

func TestANSILinkForms(t *testing.T) {
	r := plainANSI(WithWidth(80))

	out, _ := r.Link(&Token{Kind: KindLink, Href: "https://e.c"}, "site")
	if out != "site (https://e.c)" {
		t.Fatalf("link = %q", out)
	}

	// The URL suffix is dropped when the text already is the URL.
	out, _ = r.Link(&Token{Kind: KindLink, Href: "https://e.c"}, "https://e.c")
	if out != "https://e.c" {
		t.Fatalf("self link = %q", out)
	}

	out, _ = r.Link(&Token{Kind: KindLink}, "plain")
	if out != "plain" {
		t.Fatalf("hrefless link = %q", out)
	}

	hyper := plainANSI(WithHyperlinks(true))
	out, _ = hyper.Link(&Token{Kind: KindLink, Href: "https://e.c"}, "site")
	want := osc8Start + "https://e.c" + "\x1b\\" + "site" + osc8End
	if out != want {
		t.Fatalf("osc8 link = %q, want %q", out, want)
	}
}

func TestANSIImageForms(t *testing.T) {
	r := plainANSI(WithWidth(80))
	out, _ := r.Image(&Token{Kind: KindImage, Href: "img.png"}, "alt")
	if out != "[alt] (img.png)" {
		t.Fatalf("image = %q", out)
	}
	out, _ = r.Image(&Token{Kind: KindImage}, "alt")
	if out != "[alt]" {
		t.Fatalf("image without source = %q", out)
	}
}

func TestFitURL(t *testing.T) {
	cases := []struct {
		url   string
		limit int
		want  string
	}{
		{"https://example.com/a", 40, "https://example.com/a"},
		{"https://example.com/long/path", 25, "example.com/long/path"},
		{"https://example.com/very/long/path", 12, "https://exa…"},
		{"example.com/abcdefghij", 5, "exam…"},
	}
	for _, tc := range cases {
		if got := fitURL(tc.url, tc.limit); got != tc.want {
			t.Fatalf("fitURL(%q, %d) = %q, want %q", tc.url, tc.limit, got, tc.want)
		}
	}
}

func TestTruncateWithEllipsis(t *testing.T) {
	cases := []struct {
		text  string
		limit int
		want  string
	}{
		{"abc", 5, "abc"},
		{"abcdef", 3, "ab…"},
		{"abcdef", 0, ""},
		{"abcdef", 1, "…"},
		{"héllo!", 4, "hél…"},
	}
	for _, tc := range cases {
		if got := truncateWithEllipsis(tc.text, tc.limit); got != tc.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tc.text, tc.limit, got, tc.want)
		}
	}
}

func TestANSIHeadingDepthClamp(t *testing.T) {
	r := plainANSI()
	out, _ := r.Heading(&Token{Kind: KindHeading, Depth: 0}, "T")
	if out != "T\n\n" {
		t.Fatalf("underflow depth = %q", out)
	}
	out, _ = r.Heading(&Token{Kind: KindHeading, Depth: 9}, "T")
	if out != "T\n\n" {
		t.Fatalf("overflow depth = %q", out)
	}

	styledOut, _ := NewANSIRenderer().Heading(&Token{Kind: KindHeading, Depth: 1}, "T")
	if !strings.Contains(styledOut, sgrBold) {
		t.Fatalf("default h1 not bold: %q", styledOut)
	}
	if stripANSI(styledOut) != "T\n\n" {
		t.Fatalf("default h1 text = %q", stripANSI(styledOut))
	}
}

func TestANSIHTMLRendersFaint(t *testing.T) {
	r := plainANSI()
	out, _ := r.HTML(&Token{Kind: KindRawHTMLBlock, Text: "<div>\n</div>\n"}, "")
	if out != "\x1b[2m<div>\n</div>\x1b[0m\n\n" {
		t.Fatalf("html block = %q", out)
	}
	out, _ = r.HTML(&Token{Kind: KindRawHTMLInline, Text: "<em>"}, "")
	if out != "\x1b[2m<em>\x1b[0m" {
		t.Fatalf("inline tag = %q", out)
	}
}

func TestANSIParagraphWrapping(t *testing.T) {
	r := plainANSI(WithWidth(12))
	out, _ := r.Paragraph(&Token{Kind: KindParagraph}, "alpha beta gamma")
	if out != "alpha beta\ngamma\n\n" {
		t.Fatalf("wrapped paragraph = %q", out)
	}

	// Hyperlinked text passes through the wrapper untouched.
	inner := osc8Start + "https://e\x1b\\" + "a link with quite a few words" + osc8End
	out, _ = r.Paragraph(&Token{Kind: KindParagraph}, inner)
	if out != inner+"\n\n" {
		t.Fatalf("osc8 paragraph = %q", out)
	}
}
