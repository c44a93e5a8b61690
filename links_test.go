package mdh

import (
	"strings"
	"testing"
)

func TestNormalizeLabel(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"label", "label"},
		{"MixedCase", "mixedcase"},
		{"  Foo   Bar ", "foo bar"},
		{"tab\tand\nnewline", "tab and newline"},
		{"ТОЛПОЙ", "толпой"},
		{"has [bracket]", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := normalizeLabel(tc.in); got != tc.want {
			t.Errorf("normalizeLabel(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRefTableFirstDefinitionWins(t *testing.T) {
	refs := newRefTable()
	refs.define("a", linkDef{href: "/one"})
	refs.define("A", linkDef{href: "/two"})
	refs.define(" a ", linkDef{href: "/three"})

	def, ok := refs.lookup("A")
	if !ok {
		t.Fatal("lookup missed")
	}
	if def.href != "/one" {
		t.Fatalf("got %q, want /one", def.href)
	}
	if refs.empty() {
		t.Fatal("table reported empty after define")
	}
}

func TestRefTableIgnoresInvalidLabels(t *testing.T) {
	refs := newRefTable()
	refs.define("bad [label]", linkDef{href: "/x"})
	if !refs.empty() {
		t.Fatal("bracketed label should not define")
	}
}

func TestParseLinkLabel(t *testing.T) {
	if label, after, ok := parseLinkLabel("[abc] rest", 0); !ok || label != "abc" || after != 5 {
		t.Fatalf("got (%q, %d, %v)", label, after, ok)
	}
	if _, _, ok := parseLinkLabel("[  ]", 0); ok {
		t.Fatal("blank label accepted")
	}
	if _, _, ok := parseLinkLabel("[a[b]", 0); ok {
		t.Fatal("nested bracket accepted")
	}
	if label, _, ok := parseLinkLabel("[a\\]b]", 0); !ok || label != "a\\]b" {
		t.Fatalf("escaped bracket: got (%q, %v)", label, ok)
	}

	// Labels cap at 999 characters.
	long := "[" + strings.Repeat("a", 999) + "]"
	if _, _, ok := parseLinkLabel(long, 0); !ok {
		t.Fatal("999 character label rejected")
	}
	tooLong := "[" + strings.Repeat("a", 1000) + "]"
	if _, _, ok := parseLinkLabel(tooLong, 0); ok {
		t.Fatal("1000 character label accepted")
	}
}

func TestParseLinkDest(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"<a b>", "a b", true},
		{"<a\nb>", "", false},
		{"plain", "plain", true},
		{"stops here rest", "stops", true},
		{"bal(an)ced", "bal(an)ced", true},
		{"esc\\)aped", "esc)aped", true},
		{strings.Repeat("(", 33), "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, _, ok := parseLinkDest(tc.in, 0)
		if ok != tc.ok || got != tc.want {
			t.Errorf("parseLinkDest(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestParseLinkTitle(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{`"double"`, "double", true},
		{`'single'`, "single", true},
		{"(paren)", "paren", true},
		{"(nested(paren)", "", false},
		{`"esc\"aped"`, `esc"aped`, true},
		{`"unterminated`, "", false},
		{"bare", "", false},
	}
	for _, tc := range cases {
		got, _, ok := parseLinkTitle(tc.in, 0)
		if ok != tc.ok || got != tc.want {
			t.Errorf("parseLinkTitle(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestUnescapePunct(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`\*a\*`, "*a*"},
		{`\\`, `\`},
		{`\q`, `\q`},
		{"none", "none"},
	}
	for _, tc := range cases {
		if got := unescapePunct(tc.in); got != tc.want {
			t.Errorf("unescapePunct(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDefinitionsResolveRegardlessOfPosition(t *testing.T) {
	before := renderHTML(t, "[r]: /u\n\nuse [r]\n")
	after := renderHTML(t, "use [r]\n\n[r]: /u\n")
	want := "<p>use <a href=\"/u\">r</a></p>\n"
	if before != want {
		t.Fatalf("definition before use: got %q, want %q", before, want)
	}
	if after != want {
		t.Fatalf("definition after use: got %q, want %q", after, want)
	}
}

func TestDefinitionWithTitleOnNextLine(t *testing.T) {
	got := renderHTML(t, "[docs]\n\n[docs]: https://example.com/docs\n  \"Docs title\"\n")
	want := "<p><a href=\"https://example.com/docs\" title=\"Docs title\">docs</a></p>\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
