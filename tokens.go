package mdh

// TokenKind identifies the grammar production a Token was built from.
type TokenKind uint8

const (
	// KindSpace is a run of blank lines between blocks.
	KindSpace TokenKind = iota
	// KindThematicBreak is a horizontal rule line.
	KindThematicBreak
	// KindHeading is an ATX or setext heading.
	KindHeading
	// KindCodeBlock is an indented code block.
	KindCodeBlock
	// KindFence is a backtick or tilde fenced code block.
	KindFence
	// KindBlockquote is a quoted block containing nested blocks.
	KindBlockquote
	// KindList is an ordered or unordered list.
	KindList
	// KindListItem is a single item inside a list.
	KindListItem
	// KindRawHTMLBlock is a block-level chunk of raw HTML.
	KindRawHTMLBlock
	// KindLinkDef is a link reference definition line. It stays in the
	// tree so raw spans remain complete, but renders as nothing.
	KindLinkDef
	// KindParagraph is a top-level run of text lines.
	KindParagraph
	// KindTable is a pipe table (gfm).
	KindTable
	// KindTableRow is one row of a table.
	KindTableRow
	// KindTableCell is one cell of a table row.
	KindTableCell
	// KindText is plain text, block-level inside list items or inline
	// inside any leaf block.
	KindText
	// KindEscape is a backslash-escaped punctuation character.
	KindEscape
	// KindRawHTMLInline is an inline raw HTML tag.
	KindRawHTMLInline
	// KindLink is a hyperlink with inline children.
	KindLink
	// KindImage is an image reference.
	KindImage
	// KindStrong is strong emphasis.
	KindStrong
	// KindEmphasis is regular emphasis.
	KindEmphasis
	// KindCodeSpan is an inline code span.
	KindCodeSpan
	// KindLineBreak is a hard line break.
	KindLineBreak
	// KindStrikethrough is struck-through text (gfm).
	KindStrikethrough

	kindCount
)

var kindNames = [...]string{
	KindSpace:         "space",
	KindThematicBreak: "hr",
	KindHeading:       "heading",
	KindCodeBlock:     "code",
	KindFence:         "fence",
	KindBlockquote:    "blockquote",
	KindList:          "list",
	KindListItem:      "listitem",
	KindRawHTMLBlock:  "html",
	KindLinkDef:       "def",
	KindParagraph:     "paragraph",
	KindTable:         "table",
	KindTableRow:      "tablerow",
	KindTableCell:     "tablecell",
	KindText:          "text",
	KindEscape:        "escape",
	KindRawHTMLInline: "tag",
	KindLink:          "link",
	KindImage:         "image",
	KindStrong:        "strong",
	KindEmphasis:      "em",
	KindCodeSpan:      "codespan",
	KindLineBreak:     "br",
	KindStrikethrough: "del",
}

func (k TokenKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Alignment is a table column alignment taken from the delimiter row.
type Alignment uint8

const (
	// AlignNone leaves cell alignment to the output medium.
	AlignNone Alignment = iota
	// AlignLeft aligns a column left (":---").
	AlignLeft
	// AlignCenter centers a column (":--:").
	AlignCenter
	// AlignRight aligns a column right ("---:").
	AlignRight
)

func (a Alignment) String() string {
	switch a {
	case AlignLeft:
		return "left"
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	}
	return ""
}

// Token is one node of the parse tree. Kind selects which of the
// remaining fields are meaningful; Raw always holds the exact source
// substring the token consumed, so concatenating the Raw of a sibling
// sequence reproduces the corresponding source slice byte for byte.
type Token struct {
	Kind TokenKind
	Raw  string
	Text string

	// Children holds nested tokens for container kinds: block children
	// for blockquotes, lists and items, inline children for paragraphs,
	// headings, emphasis, links and table cells.
	Children []*Token

	// Heading depth 1..6.
	Depth int
	// Fence info string language.
	Lang string

	// List fields.
	Ordered bool
	Start   int
	Loose   bool
	// List item task fields (gfm).
	Task    bool
	Checked bool

	// Link, image and definition fields.
	Href  string
	Title string
	Label string

	// Table cell fields.
	Header bool
	Align  Alignment
	// Table column alignments, one per column.
	Aligns []Alignment

	// Escaped marks Text as already safe for the output medium.
	Escaped bool
	// Block marks a text token that renders with paragraph wrapping
	// (loose list items).
	Block bool
}
