package mdh

import "regexp"

// dialect selects one immutable rule table. Pedantic wins over GFM, so
// the two are never set together.
type dialect struct {
	gfm      bool
	pedantic bool
	breaks   bool
}

// ruleTable is an ordered block rule list plus an ordered inline rule
// list. Tables are built once per dialect at init and never mutated;
// extension overlays compose a new table instead.
type ruleTable struct {
	dialect dialect
	block   []blockEntry
	inline  []inlineEntry
}

type blockEntry struct {
	name  string
	match func(p *blockParser, src string, top bool) *Token
}

type inlineEntry struct {
	name  string
	match func(ip *inlineParser, src, masked string) *Token
}

var tableCache = buildTables()

func buildTables() map[dialect]*ruleTable {
	m := make(map[dialect]*ruleTable, 8)
	for _, gfm := range []bool{false, true} {
		for _, pedantic := range []bool{false, true} {
			for _, breaks := range []bool{false, true} {
				d := dialect{gfm: gfm && !pedantic, pedantic: pedantic, breaks: breaks}
				if _, ok := m[d]; !ok {
					m[d] = newRuleTable(d)
				}
			}
		}
	}
	return m
}

func tableFor(o *Options) *ruleTable {
	return tableCache[dialect{
		gfm:      o.GFM && !o.Pedantic,
		pedantic: o.Pedantic,
		breaks:   o.Breaks,
	}]
}

// newRuleTable lays out grammar priority. Order is load-bearing: a
// thematic break must be tried before a list because both can match a
// line of dashes, and headings before setext underlines for the same
// reason.
func newRuleTable(d dialect) *ruleTable {
	t := &ruleTable{dialect: d}
	t.block = append(t.block,
		blockEntry{"space", (*blockParser).space},
		blockEntry{"code", (*blockParser).indentedCode},
	)
	if !d.pedantic {
		t.block = append(t.block, blockEntry{"fences", (*blockParser).fences})
	}
	t.block = append(t.block,
		blockEntry{"heading", (*blockParser).heading},
		blockEntry{"hr", (*blockParser).hr},
		blockEntry{"blockquote", (*blockParser).blockquote},
		blockEntry{"list", (*blockParser).list},
		blockEntry{"html", (*blockParser).htmlBlock},
		blockEntry{"def", (*blockParser).def},
	)
	if d.gfm {
		t.block = append(t.block, blockEntry{"table", (*blockParser).tableBlock})
	}
	t.block = append(t.block,
		blockEntry{"lheading", (*blockParser).lheading},
		blockEntry{"paragraph", (*blockParser).paragraph},
		blockEntry{"text", (*blockParser).blockText},
	)

	t.inline = append(t.inline,
		inlineEntry{"escape", (*inlineParser).escape},
		inlineEntry{"tag", (*inlineParser).tag},
		inlineEntry{"link", (*inlineParser).link},
		inlineEntry{"reflink", (*inlineParser).reflink},
		inlineEntry{"emStrong", (*inlineParser).emStrong},
		inlineEntry{"codespan", (*inlineParser).codespan},
		inlineEntry{"br", (*inlineParser).lineBreak},
	)
	if d.gfm {
		t.inline = append(t.inline, inlineEntry{"del", (*inlineParser).del})
	}
	t.inline = append(t.inline, inlineEntry{"autolink", (*inlineParser).autolink})
	if d.gfm {
		t.inline = append(t.inline, inlineEntry{"url", (*inlineParser).url})
	}
	t.inline = append(t.inline, inlineEntry{"text", (*inlineParser).inlineText})
	return t
}

func (t *ruleTable) blockRuleNames() map[string]bool {
	names := make(map[string]bool, len(t.block))
	for _, e := range t.block {
		names[e.name] = true
	}
	return names
}

func (t *ruleTable) inlineRuleNames() map[string]bool {
	names := make(map[string]bool, len(t.inline))
	for _, e := range t.inline {
		names[e.name] = true
	}
	return names
}

// Line-shaped grammar is matched with compiled patterns; the
// backtracking-sensitive constructs (emphasis, code spans, links) are
// hand-scanned in inline.go.
var (
	hrRegexp = regexp.MustCompile(`^ {0,3}((?:-[ \t]*){3,}|(?:_[ \t]*){3,}|(?:\*[ \t]*){3,})(?:\n+|$)`)

	atxHeadingRegexp      = regexp.MustCompile(`^ {0,3}(#{1,6})([ \t][^\n]*)?(?:\n+|$)`)
	atxHeadingPedanticReg = regexp.MustCompile(`^ {0,3}(#{1,6})([^\n]*)(?:\n+|$)`)

	fenceOpenRegexp = regexp.MustCompile("^( {0,3})(`{3,}|~{3,})[ \t]*([^\n]*?)[ \t]*(?:\n|$)")

	setextUnderlineRegexp = regexp.MustCompile(`^ {0,3}(=+|-+)[ \t]*(?:\n+|$)`)

	listMarkerRegexp = regexp.MustCompile(`^( {0,3})([*+-]|\d{1,9}[.)])([ \t]+|\n|$)`)

	blankTailRegexp = regexp.MustCompile(`\n[ \t]*\n[ \t]*$`)

	leadingTabsRegexp = regexp.MustCompile(`(?m)^( *)\t+`)
	spaceLineRegexp   = regexp.MustCompile(`(?m)^ +$`)

	tableDelimRegexp = regexp.MustCompile(`^ {0,3}\|?[ \t]*:?-+:?[ \t]*(\|[ \t]*:?-+:?[ \t]*)*\|?[ \t]*(?:\n|$)`)

	taskMarkerRegexp = regexp.MustCompile(`^\[([ xX])\][ \t]+`)

	html1Regexp       = regexp.MustCompile(`^ {0,3}<(?i:pre|script|style|textarea)(?:[ \t>]|$|\n)`)
	html1CloserRegexp = regexp.MustCompile(`(?i)</(?:pre|script|style|textarea)>`)
	html2Regexp       = regexp.MustCompile(`^ {0,3}<!--`)
	html2CloserRegexp = regexp.MustCompile(`-->`)
	html3Regexp       = regexp.MustCompile(`^ {0,3}<\?`)
	html3CloserRegexp = regexp.MustCompile(`\?>`)
	html4Regexp       = regexp.MustCompile(`^ {0,3}<![a-zA-Z]`)
	html4CloserRegexp = regexp.MustCompile(`>`)
	html5Regexp       = regexp.MustCompile(`^ {0,3}<!\[CDATA\[`)
	html5CloserRegexp = regexp.MustCompile(`\]\]>`)
	html6Regexp       = regexp.MustCompile(`^ {0,3}</?(?i:address|article|aside|base|basefont|blockquote|body|caption|center|col|colgroup|dd|details|dialog|dir|div|dl|dt|fieldset|figcaption|figure|footer|form|frame|frameset|h1|h2|h3|h4|h5|h6|head|header|hr|html|iframe|legend|li|link|main|menu|menuitem|nav|noframes|ol|optgroup|option|p|param|search|section|summary|table|tbody|td|tfoot|th|thead|title|tr|track|ul)(?:[ \t]|$|\n|/?>)`)
	html7Regexp       = regexp.MustCompile(`^ {0,3}(?:<[a-zA-Z][a-zA-Z0-9-]*(?:[ \t]+[a-zA-Z_:][a-zA-Z0-9_.:-]*(?:[ \t]*=[ \t]*(?:[^ \t"'=<>` + "`" + `]+|'[^'\n]*'|"[^"\n]*"))?)*[ \t]*/?>|</[a-zA-Z][a-zA-Z0-9-]*[ \t]*>)[ \t]*(?:\n|$)`)

	escapeRegexp = regexp.MustCompile("^\\\\([!-/:-@\\[-`{-~])")

	inlineCloseTagRegexp = regexp.MustCompile(`^</[a-zA-Z][\w:-]*\s*>`)
	inlineOpenTagRegexp  = regexp.MustCompile("^<[a-zA-Z][\\w-]*(?:\\s+[a-zA-Z:_][\\w.:-]*(?:\\s*=\\s*\"[^\"]*\"|\\s*=\\s*'[^']*'|\\s*=\\s*[^\\s\"'=<>`]+)?)*\\s*/?>")
	inlinePIRegexp       = regexp.MustCompile(`(?s)^<\?.*?\?>`)
	inlineDeclRegexp     = regexp.MustCompile(`(?s)^<![a-zA-Z]+\s.*?>`)
	inlineCDATARegexp    = regexp.MustCompile(`(?s)^<!\[CDATA\[.*?\]\]>`)
	anchorOpenRegexp     = regexp.MustCompile(`(?i)^<a[\s>]`)
	anchorCloseRegexp    = regexp.MustCompile(`(?i)^</a>`)

	bareURLRegexp   = regexp.MustCompile(`^((?:ftp|https?)://|www\.)(?:[a-zA-Z0-9-]+\.?)+[^\s<]*`)
	urlEntityRegexp = regexp.MustCompile(`&[a-zA-Z0-9]+;$`)

	autolinkURIRegexp   = regexp.MustCompile(`^<([a-zA-Z][a-zA-Z0-9+.-]{1,31}):([^<>\x00-\x20]*)>`)
	autolinkEmailRegexp = regexp.MustCompile("^<([a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*)>")

	bareEmailRegexp = regexp.MustCompile(`^[A-Za-z0-9._+-]+@[a-zA-Z0-9_-]+(?:\.[a-zA-Z0-9_-]*[a-zA-Z0-9])+`)

	// Masking patterns keep emphasis scanning from seeing delimiter
	// characters inside links, code spans and tags.
	maskBlockSkipRegexp = regexp.MustCompile("\\[[^\\[\\]]*\\]\\([^()\\n]*\\)|`[^`]*`|<[^<>\\n]*>")
	maskRefSpanRegexp   = regexp.MustCompile(`\[[^\[\]]*\]`)
)
