package mdh

// BlockContext exposes parser services to extension block rules.
type BlockContext struct {
	p *blockParser
}

// Options returns the configuration of the running parse.
func (c BlockContext) Options() *Options { return c.p.opts }

// Tokenize re-enters the block grammar for nested content, counting
// against the parse's nesting depth.
func (c BlockContext) Tokenize(src string, top bool) []*Token {
	return c.p.nested(src, top)
}

// QueueInline defers inline tokenization of text into tok's children
// until all reference definitions have been collected.
func (c BlockContext) QueueInline(tok *Token, text string) {
	c.p.queueInline(tok, text)
}

// InlineContext exposes parser services to extension inline rules.
type InlineContext struct {
	ip *inlineParser
}

// Options returns the configuration of the running parse.
func (c InlineContext) Options() *Options { return c.ip.opts }

// Tokenize re-enters the inline grammar for a span interior, counting
// against the parse's nesting depth.
func (c InlineContext) Tokenize(src string) []*Token {
	return c.ip.recurse(src)
}

// Reference resolves a link reference definition by label.
func (c InlineContext) Reference(label string) (href, title string, ok bool) {
	def, ok := c.ip.links.lookup(label)
	if !ok {
		return "", "", false
	}
	return def.href, def.title, true
}

// BlockMatchFunc tries one block rule at the start of src. It returns
// nil to decline; a returned token must consume a non-empty prefix.
type BlockMatchFunc func(c BlockContext, src string, top bool) *Token

// InlineMatchFunc tries one inline rule at the start of src.
type InlineMatchFunc func(c InlineContext, src string) *Token

// BlockRule is an extension block grammar rule.
type BlockRule struct {
	// Name labels the rule. Using a built-in rule's name makes this
	// rule an override tried immediately before it.
	Name string
	// Before anchors the rule in front of the named built-in rule.
	// Empty anchors it ahead of the whole grammar.
	Before string
	// Start reports the earliest offset at which Match could succeed,
	// so the paragraph rule stops consuming there. Negative declines.
	// Optional.
	Start func(src string) int
	Match BlockMatchFunc
}

// InlineRule is an extension inline grammar rule.
type InlineRule struct {
	// Name labels the rule. Using a built-in rule's name makes this
	// rule an override tried immediately before it.
	Name string
	// Before anchors the rule in front of the named built-in rule.
	// Empty anchors it ahead of the whole grammar.
	Before string
	// Start reports the earliest offset at which Match could succeed,
	// so the text rule stops consuming there. Negative declines.
	// Optional.
	Start func(src string) int
	Match InlineMatchFunc
}

// RenderFunc renders one token kind. Returning false declines the
// token to the next renderer in the chain.
type RenderFunc func(t *Token, inner string) (string, bool)

// RendererFuncs adapts a sparse set of renderer overrides into a full
// Renderer. Nil funcs decline their token.
type RendererFuncs struct {
	SpaceFunc      RenderFunc
	CodeFunc       RenderFunc
	BlockquoteFunc RenderFunc
	HTMLFunc       RenderFunc
	HeadingFunc    RenderFunc
	HRFunc         RenderFunc
	ListFunc       RenderFunc
	ListItemFunc   RenderFunc
	ParagraphFunc  RenderFunc
	TableFunc      RenderFunc
	TableRowFunc   RenderFunc
	TableCellFunc  RenderFunc
	LinkDefFunc    RenderFunc
	StrongFunc     RenderFunc
	EmFunc         RenderFunc
	CodespanFunc   RenderFunc
	BrFunc         RenderFunc
	DelFunc        RenderFunc
	LinkFunc       RenderFunc
	ImageFunc      RenderFunc
	TextFunc       RenderFunc
}

var _ Renderer = RendererFuncs{}

func call(fn RenderFunc, t *Token, inner string) (string, bool) {
	if fn == nil {
		return "", false
	}
	return fn(t, inner)
}

func (r RendererFuncs) Space(t *Token, inner string) (string, bool) {
	return call(r.SpaceFunc, t, inner)
}
func (r RendererFuncs) Code(t *Token, inner string) (string, bool) {
	return call(r.CodeFunc, t, inner)
}
func (r RendererFuncs) Blockquote(t *Token, inner string) (string, bool) {
	return call(r.BlockquoteFunc, t, inner)
}
func (r RendererFuncs) HTML(t *Token, inner string) (string, bool) {
	return call(r.HTMLFunc, t, inner)
}
func (r RendererFuncs) Heading(t *Token, inner string) (string, bool) {
	return call(r.HeadingFunc, t, inner)
}
func (r RendererFuncs) HR(t *Token, inner string) (string, bool) {
	return call(r.HRFunc, t, inner)
}
func (r RendererFuncs) List(t *Token, inner string) (string, bool) {
	return call(r.ListFunc, t, inner)
}
func (r RendererFuncs) ListItem(t *Token, inner string) (string, bool) {
	return call(r.ListItemFunc, t, inner)
}
func (r RendererFuncs) Paragraph(t *Token, inner string) (string, bool) {
	return call(r.ParagraphFunc, t, inner)
}
func (r RendererFuncs) Table(t *Token, inner string) (string, bool) {
	return call(r.TableFunc, t, inner)
}
func (r RendererFuncs) TableRow(t *Token, inner string) (string, bool) {
	return call(r.TableRowFunc, t, inner)
}
func (r RendererFuncs) TableCell(t *Token, inner string) (string, bool) {
	return call(r.TableCellFunc, t, inner)
}
func (r RendererFuncs) LinkDef(t *Token, inner string) (string, bool) {
	return call(r.LinkDefFunc, t, inner)
}
func (r RendererFuncs) Strong(t *Token, inner string) (string, bool) {
	return call(r.StrongFunc, t, inner)
}
func (r RendererFuncs) Em(t *Token, inner string) (string, bool) {
	return call(r.EmFunc, t, inner)
}
func (r RendererFuncs) Codespan(t *Token, inner string) (string, bool) {
	return call(r.CodespanFunc, t, inner)
}
func (r RendererFuncs) Br(t *Token, inner string) (string, bool) {
	return call(r.BrFunc, t, inner)
}
func (r RendererFuncs) Del(t *Token, inner string) (string, bool) {
	return call(r.DelFunc, t, inner)
}
func (r RendererFuncs) Link(t *Token, inner string) (string, bool) {
	return call(r.LinkFunc, t, inner)
}
func (r RendererFuncs) Image(t *Token, inner string) (string, bool) {
	return call(r.ImageFunc, t, inner)
}
func (r RendererFuncs) Text(t *Token, inner string) (string, bool) {
	return call(r.TextFunc, t, inner)
}

// Extension bundles grammar rules, renderer overrides and lifecycle
// hooks registered together. Zero fields contribute nothing.
type Extension struct {
	// Name identifies the extension in configuration errors.
	Name string

	// BlockRules and InlineRules extend the grammar. Rules from a
	// later extension outrank rules from an earlier one.
	BlockRules  []BlockRule
	InlineRules []InlineRule

	// Renderer runs in front of earlier extensions' renderers and the
	// base renderer, falling through wherever it declines a token.
	Renderer Renderer

	// Preprocess transforms source before tokenization; Postprocess
	// transforms rendered output. A later extension's hook runs before
	// an earlier one's.
	Preprocess  StringHook
	Postprocess StringHook

	// ProcessTokens transforms the completed token tree before the
	// walk and render stages.
	ProcessTokens TokensHook

	// Walk is called for every token in the tree, nested tokens
	// included. All registered walkers run.
	Walk WalkFunc
}

// Use returns a copy of opts with the extensions appended, leaving the
// original option list untouched.
func Use(opts []Option, exts ...Extension) []Option {
	out := make([]Option, len(opts), len(opts)+1)
	copy(out, opts)
	return append(out, WithExtensions(exts...))
}

type compiledBlockRule struct {
	before string
	entry  blockEntry
}

type compiledInlineRule struct {
	before string
	entry  inlineEntry
}

// extensionSet is the compiled form of all registered extensions,
// resolved against one Options value at build time.
type extensionSet struct {
	blockRules  []compiledBlockRule
	inlineRules []compiledInlineRule
	startBlock  []func(string) int
	startInline []func(string) int

	chain       []Renderer
	preprocess  []StringHook
	postprocess []StringHook
	transforms  []TokensHook
	walkers     []WalkFunc
}

// compileExtensions validates extension anchors against the grammar
// the options select and fixes every chain order. Unknown anchors fail
// here, before any parsing.
func compileExtensions(exts []Extension, o *Options) (*extensionSet, error) {
	set := &extensionSet{}
	base := tableFor(o)
	blockNames := base.blockRuleNames()
	inlineNames := base.inlineRuleNames()
	for _, e := range exts {
		var blocks []compiledBlockRule
		for _, r := range e.BlockRules {
			c, err := compileBlockRule(e.Name, r, blockNames)
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, c)
			if r.Start != nil {
				set.startBlock = append(set.startBlock, r.Start)
			}
		}
		set.blockRules = append(blocks, set.blockRules...)

		var inlines []compiledInlineRule
		for _, r := range e.InlineRules {
			c, err := compileInlineRule(e.Name, r, inlineNames)
			if err != nil {
				return nil, err
			}
			inlines = append(inlines, c)
			if r.Start != nil {
				set.startInline = append(set.startInline, r.Start)
			}
		}
		set.inlineRules = append(inlines, set.inlineRules...)

		if e.Renderer != nil {
			set.chain = append([]Renderer{e.Renderer}, set.chain...)
		}
		if e.Preprocess != nil {
			set.preprocess = append([]StringHook{e.Preprocess}, set.preprocess...)
		}
		if e.Postprocess != nil {
			set.postprocess = append([]StringHook{e.Postprocess}, set.postprocess...)
		}
		if e.ProcessTokens != nil {
			set.transforms = append([]TokensHook{e.ProcessTokens}, set.transforms...)
		}
		if e.Walk != nil {
			set.walkers = append(set.walkers, e.Walk)
		}
	}
	set.chain = append(set.chain, o.renderer)
	return set, nil
}

func compileBlockRule(ext string, r BlockRule, names map[string]bool) (compiledBlockRule, error) {
	if r.Name == "" {
		return compiledBlockRule{}, configError("extension %q: block rule without a name", ext)
	}
	if r.Match == nil {
		return compiledBlockRule{}, configError("extension %q: block rule %q without a matcher", ext, r.Name)
	}
	before := r.Before
	if before == "" && names[r.Name] {
		before = r.Name
	}
	if before != "" && !names[before] {
		return compiledBlockRule{}, configError("extension %q: unknown block rule %q", ext, before)
	}
	match := r.Match
	return compiledBlockRule{
		before: before,
		entry: blockEntry{name: r.Name, match: func(p *blockParser, src string, top bool) *Token {
			return match(BlockContext{p: p}, src, top)
		}},
	}, nil
}

func compileInlineRule(ext string, r InlineRule, names map[string]bool) (compiledInlineRule, error) {
	if r.Name == "" {
		return compiledInlineRule{}, configError("extension %q: inline rule without a name", ext)
	}
	if r.Match == nil {
		return compiledInlineRule{}, configError("extension %q: inline rule %q without a matcher", ext, r.Name)
	}
	before := r.Before
	if before == "" && names[r.Name] {
		before = r.Name
	}
	if before != "" && !names[before] {
		return compiledInlineRule{}, configError("extension %q: unknown inline rule %q", ext, before)
	}
	match := r.Match
	return compiledInlineRule{
		before: before,
		entry: inlineEntry{name: r.Name, match: func(ip *inlineParser, src, masked string) *Token {
			return match(InlineContext{ip: ip}, src)
		}},
	}, nil
}

// composeTable overlays extension rules on an immutable base table.
// Without rules the base is shared as-is.
func composeTable(base *ruleTable, ext *extensionSet) *ruleTable {
	if len(ext.blockRules) == 0 && len(ext.inlineRules) == 0 {
		return base
	}
	t := &ruleTable{dialect: base.dialect}
	t.block = make([]blockEntry, 0, len(base.block)+len(ext.blockRules))
	for _, r := range ext.blockRules {
		if r.before == "" {
			t.block = append(t.block, r.entry)
		}
	}
	for _, b := range base.block {
		for _, r := range ext.blockRules {
			if r.before == b.name {
				t.block = append(t.block, r.entry)
			}
		}
		t.block = append(t.block, b)
	}
	t.inline = make([]inlineEntry, 0, len(base.inline)+len(ext.inlineRules))
	for _, r := range ext.inlineRules {
		if r.before == "" {
			t.inline = append(t.inline, r.entry)
		}
	}
	for _, b := range base.inline {
		for _, r := range ext.inlineRules {
			if r.before == b.name {
				t.inline = append(t.inline, r.entry)
			}
		}
		t.inline = append(t.inline, b)
	}
	return t
}

// clipToRuleStart trims src to the nearest offset where an extension
// rule reports it could match, keeping at least one byte so the caller
// always makes progress.
func clipToRuleStart(src string, starts []func(string) int) string {
	if len(starts) == 0 || len(src) < 2 {
		return src
	}
	best := -1
	tail := src[1:]
	for _, fn := range starts {
		if i := fn(tail); i >= 0 && (best < 0 || i < best) {
			best = i
		}
	}
	if best >= 0 && best+1 < len(src) {
		return src[:best+1]
	}
	return src
}
