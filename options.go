package mdh

import (
	"log/slog"
	"sync"
)

// DefaultMaxNestingDepth bounds blockquote/list recursion. Exceeding it
// is treated as grammar exhaustion rather than risking stack growth on
// adversarial input.
const DefaultMaxNestingDepth = 64

// Options is the full configuration for one parse. Values are fixed
// once a parse begins; build them with functional options rather than
// mutating the struct directly.
type Options struct {
	// GFM enables tables, strikethrough, task list items and bare URL
	// autolinking. On by default.
	GFM bool
	// Pedantic selects the stricter legacy grammar for lists and links
	// and disables the GFM additions that conflict with it.
	Pedantic bool
	// Breaks renders every newline inside a paragraph as a line break.
	Breaks bool
	// Silent degrades grammar exhaustion and unknown-token conditions
	// to truncated best-effort output plus a logged diagnostic.
	Silent bool
	// Async allows lifecycle hooks to return deferred values. A hook
	// returning a deferred value without Async set is a configuration
	// error.
	Async bool
	// StripFrontmatter removes a leading metadata block (---, +++ or
	// ;;; fenced) before tokenization.
	StripFrontmatter bool
	// MaxNestingDepth overrides DefaultMaxNestingDepth when positive.
	MaxNestingDepth int
	// Logger receives silent-mode diagnostics. Defaults to a discard
	// logger; the engine never logs unless given a destination.
	Logger *slog.Logger

	renderer   Renderer
	extensions []Extension

	// compiled at build time
	table *ruleTable
	ext   *extensionSet
}

// Option adjusts an Options value before a parse.
type Option func(*Options)

// WithGFM toggles the GFM additions.
func WithGFM(enabled bool) Option {
	return func(o *Options) { o.GFM = enabled }
}

// WithPedantic toggles the legacy grammar.
func WithPedantic(enabled bool) Option {
	return func(o *Options) { o.Pedantic = enabled }
}

// WithBreaks toggles newline-as-break rendering.
func WithBreaks(enabled bool) Option {
	return func(o *Options) { o.Breaks = enabled }
}

// WithSilent toggles degrade-instead-of-fail behavior.
func WithSilent(enabled bool) Option {
	return func(o *Options) { o.Silent = enabled }
}

// WithAsync allows hooks to return deferred values.
func WithAsync(enabled bool) Option {
	return func(o *Options) { o.Async = enabled }
}

// WithFrontmatter toggles stripping of a leading metadata block.
func WithFrontmatter(strip bool) Option {
	return func(o *Options) { o.StripFrontmatter = strip }
}

// WithMaxNestingDepth bounds blockquote/list recursion.
func WithMaxNestingDepth(depth int) Option {
	return func(o *Options) { o.MaxNestingDepth = depth }
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

// WithRenderer replaces the HTML renderer at the end of the renderer
// chain. Extension renderer overrides still run in front of it.
func WithRenderer(r Renderer) Option {
	return func(o *Options) { o.renderer = r }
}

// WithExtensions registers extensions, later ones outermost.
func WithExtensions(exts ...Extension) Option {
	return func(o *Options) { o.extensions = append(o.extensions, exts...) }
}

var discardLogger = slog.New(slog.DiscardHandler)

func baseOptions() Options {
	return Options{
		GFM:             true,
		MaxNestingDepth: DefaultMaxNestingDepth,
	}
}

var (
	defaultMu  sync.RWMutex
	defaultSet []Option
)

// SetDefault replaces the process-wide default options applied before
// per-call options. The replacement is validated first; a failed build
// leaves the previous default in place.
func SetDefault(opts ...Option) error {
	if _, err := buildOptions(opts); err != nil {
		return err
	}
	defaultMu.Lock()
	defaultSet = append([]Option(nil), opts...)
	defaultMu.Unlock()
	return nil
}

func defaultOptionSet() []Option {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultSet
}

// buildOptions resolves the builtin defaults, the process default set
// and the per-call options into a validated, immutable configuration.
func buildOptions(opts []Option) (*Options, error) {
	o := baseOptions()
	for _, opt := range defaultOptionSet() {
		if opt != nil {
			opt(&o)
		}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.MaxNestingDepth <= 0 {
		return nil, configError("max nesting depth must be positive, got %d", o.MaxNestingDepth)
	}
	if o.Logger == nil {
		o.Logger = discardLogger
	}
	if o.renderer == nil {
		o.renderer = HTMLRenderer{}
	}
	ext, err := compileExtensions(o.extensions, &o)
	if err != nil {
		return nil, err
	}
	o.ext = ext
	o.table = composeTable(tableFor(&o), ext)
	return &o, nil
}
