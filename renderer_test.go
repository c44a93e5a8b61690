package mdh

import (
	"strings"
	"testing"
)

func TestEscapeText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"a < b > c", "a &lt; b &gt; c"},
		{`"quoted" & 'single'`, "&quot;quoted&quot; &amp; &#39;single&#39;"},
		{"&amp; stays", "&amp; stays"},
		{"&#169; stays", "&#169; stays"},
		{"& alone", "&amp; alone"},
		{"&; no name", "&amp;; no name"},
		{"&# no digits;", "&amp;# no digits;"},
	}
	for _, tc := range cases {
		if got := escapeText(tc.in); got != tc.want {
			t.Errorf("escapeText(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestEscapeAll(t *testing.T) {
	if got := escapeAll("&amp;"); got != "&amp;amp;" {
		t.Fatalf("escapeAll does not preserve entities: %q", got)
	}
	if got := escapeAll(`<a href="x">`); got != "&lt;a href=&quot;x&quot;&gt;" {
		t.Fatalf("got %q", got)
	}
	if got := escapeAll("clean"); got != "clean" {
		t.Fatalf("clean passthrough: %q", got)
	}
}

func TestCleanURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"https://example.com/a?b=c#d", "https://example.com/a?b=c#d", true},
		{"/path with space", "/path%20with%20space", true},
		{"already%20encoded", "already%20encoded", true},
		{"smart”quote", "smart%E2%80%9Dquote", true},
		{"bad\xffbytes", "", false},
	}
	for _, tc := range cases {
		got, ok := cleanURL(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("cleanURL(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestCheckboxHTML(t *testing.T) {
	if got := checkboxHTML(true); got != `<input checked="" disabled="" type="checkbox"> ` {
		t.Fatalf("checked: %q", got)
	}
	if got := checkboxHTML(false); got != `<input disabled="" type="checkbox"> ` {
		t.Fatalf("unchecked: %q", got)
	}
}

func TestFlattenInline(t *testing.T) {
	tokens := []*Token{
		{Kind: KindText, Text: "alt "},
		{Kind: KindStrong, Text: "bold", Children: []*Token{{Kind: KindText, Text: "ignored"}}},
		{Kind: KindLineBreak},
		{Kind: KindCodeSpan, Text: " code"},
	}
	if got := flattenInline(tokens); got != "alt bold code" {
		t.Fatalf("got %q", got)
	}

	// Container kinds without their own text recurse into children.
	nested := []*Token{{Kind: KindLink, Children: []*Token{{Kind: KindText, Text: "inner"}}}}
	if got := flattenInline(nested); got != "inner" {
		t.Fatalf("nested: got %q", got)
	}
}

func TestHTMLRendererCode(t *testing.T) {
	r := HTMLRenderer{}
	out, ok := r.Code(&Token{Kind: KindFence, Text: "x < y", Lang: "go"}, "")
	if !ok || out != "<pre><code class=\"language-go\">x &lt; y\n</code></pre>\n" {
		t.Fatalf("got %q", out)
	}

	// Info string language truncates at the first space.
	out, _ = r.Code(&Token{Kind: KindFence, Text: "a", Lang: "go linenums"}, "")
	if !strings.Contains(out, `class="language-go"`) {
		t.Fatalf("lang not truncated: %q", out)
	}

	// Escaped text is trusted as-is.
	out, _ = r.Code(&Token{Kind: KindFence, Text: "<b>", Escaped: true}, "")
	if out != "<pre><code><b>\n</code></pre>\n" {
		t.Fatalf("escaped passthrough: %q", out)
	}
}

func TestHTMLRendererList(t *testing.T) {
	r := HTMLRenderer{}
	out, _ := r.List(&Token{Kind: KindList, Ordered: true, Start: 1}, "items")
	if out != "<ol>\nitems</ol>\n" {
		t.Fatalf("start 1 got %q", out)
	}
	out, _ = r.List(&Token{Kind: KindList, Ordered: true, Start: 5}, "items")
	if out != "<ol start=\"5\">\nitems</ol>\n" {
		t.Fatalf("start 5 got %q", out)
	}
	out, _ = r.List(&Token{Kind: KindList}, "items")
	if out != "<ul>\nitems</ul>\n" {
		t.Fatalf("unordered got %q", out)
	}
}

func TestHTMLRendererTableCell(t *testing.T) {
	r := HTMLRenderer{}
	out, _ := r.TableCell(&Token{Kind: KindTableCell, Header: true}, "H")
	if out != "<th>H</th>\n" {
		t.Fatalf("header got %q", out)
	}
	out, _ = r.TableCell(&Token{Kind: KindTableCell, Align: AlignRight}, "v")
	if out != "<td align=\"right\">v</td>\n" {
		t.Fatalf("aligned got %q", out)
	}
}

func TestHTMLRendererComposeTable(t *testing.T) {
	r := HTMLRenderer{}
	out, _ := r.ComposeTable(&Token{Kind: KindTable}, "H", "B")
	if out != "<table>\n<thead>\nH</thead>\n<tbody>B</tbody></table>\n" {
		t.Fatalf("got %q", out)
	}
	out, _ = r.ComposeTable(&Token{Kind: KindTable}, "H", "")
	if out != "<table>\n<thead>\nH</thead>\n</table>\n" {
		t.Fatalf("empty body got %q", out)
	}
}

func TestHTMLRendererLinkRejectsBadHref(t *testing.T) {
	r := HTMLRenderer{}
	out, _ := r.Link(&Token{Kind: KindLink, Href: "bad\xffurl"}, "text")
	if out != "text" {
		t.Fatalf("invalid href should fall back to inner text: %q", out)
	}
}

func TestAlignmentString(t *testing.T) {
	cases := map[Alignment]string{
		AlignNone:   "",
		AlignLeft:   "left",
		AlignCenter: "center",
		AlignRight:  "right",
	}
	for a, want := range cases {
		if got := a.String(); got != want {
			t.Errorf("Alignment(%d).String() = %q, want %q", a, got, want)
		}
	}
}

func TestTokenKindString(t *testing.T) {
	if got := KindHeading.String(); got != "heading" {
		t.Fatalf("got %q", got)
	}
	if got := TokenKind(200).String(); got != "unknown" {
		t.Fatalf("out of range: got %q", got)
	}
}
