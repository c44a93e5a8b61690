package mdh

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// RenderRequest configures Render: Markdown in, HTML out.
type RenderRequest struct {
	Reader  io.Reader
	Writer  io.Writer
	Options []Option
}

// ParseRequest configures Parse.
type ParseRequest struct {
	Reader  io.Reader
	Sink    TokenSink
	Options []Option
}

// TokenSink receives top-level tokens from Parse.
type TokenSink interface {
	WriteToken(*Token) error
	Flush() error
}

var blockParserPool = sync.Pool{
	New: func() any { return &blockParser{} },
}

// RenderString renders Markdown source to HTML.
func RenderString(src string, opts ...Option) (string, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return "", err
	}
	return run(context.Background(), src, o)
}

// RenderBytes renders Markdown source to HTML.
func RenderBytes(src []byte, opts ...Option) ([]byte, error) {
	out, err := RenderString(string(src), opts...)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// Render reads Markdown from req.Reader and writes HTML to req.Writer.
func Render(req RenderRequest) error {
	if req.Reader == nil {
		return fmt.Errorf("render: reader is nil")
	}
	if req.Writer == nil {
		return fmt.Errorf("render: writer is nil")
	}
	src, err := io.ReadAll(req.Reader)
	if err != nil {
		return fmt.Errorf("render: read input: %w", err)
	}
	out, err := RenderString(string(src), req.Options...)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(req.Writer, out); err != nil {
		return fmt.Errorf("render: write output: %w", err)
	}
	return nil
}

// RenderAsync runs the pipeline in a goroutine and resolves the
// returned Deferred with the rendered HTML. Hooks may return deferred
// results; the context is honored between stages and while awaiting
// them. When req.Writer is non-nil the output is also written there
// before the Deferred resolves.
func RenderAsync(ctx context.Context, req RenderRequest) *Deferred[string] {
	d := NewDeferred[string]()
	if req.Reader == nil {
		d.Reject(fmt.Errorf("render: reader is nil"))
		return d
	}
	o, err := buildOptions(req.Options)
	if err != nil {
		d.Reject(err)
		return d
	}
	o.Async = true
	go func() {
		src, err := io.ReadAll(req.Reader)
		if err != nil {
			d.Reject(fmt.Errorf("render: read input: %w", err))
			return
		}
		out, err := run(ctx, string(src), o)
		if err != nil {
			d.Reject(err)
			return
		}
		if req.Writer != nil {
			if _, err := io.WriteString(req.Writer, out); err != nil {
				d.Reject(fmt.Errorf("render: write output: %w", err))
				return
			}
		}
		d.Resolve(out)
	}()
	return d
}

// ParseString tokenizes Markdown source into its block token tree with
// inline children attached.
func ParseString(src string, opts ...Option) ([]*Token, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	return parseSource(context.Background(), src, o)
}

// Parse tokenizes Markdown from req.Reader and streams the top-level
// tokens to req.Sink.
func Parse(req ParseRequest) error {
	if req.Reader == nil {
		return fmt.Errorf("parse: reader is nil")
	}
	if req.Sink == nil {
		return fmt.Errorf("parse: sink is nil")
	}
	src, err := io.ReadAll(req.Reader)
	if err != nil {
		return fmt.Errorf("parse: read input: %w", err)
	}
	tokens, err := ParseString(string(src), req.Options...)
	if err != nil {
		return err
	}
	for _, t := range tokens {
		if err := req.Sink.WriteToken(t); err != nil {
			return err
		}
	}
	return req.Sink.Flush()
}

// run is the whole pipeline: preprocess, tokenize, transform, walk,
// render, postprocess.
func run(ctx context.Context, src string, o *Options) (string, error) {
	tokens, err := parseSource(ctx, src, o)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	rs := renderState{opts: o, chain: o.ext.chain}
	out, err := rs.renderBlocks(tokens, true)
	if err != nil {
		return "", err
	}
	return runStringHooks(ctx, o, o.ext.postprocess, out)
}

func parseSource(ctx context.Context, src string, o *Options) ([]*Token, error) {
	src, err := preprocess(ctx, src, o)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := blockParserPool.Get().(*blockParser)
	p.reset(o)
	tokens, err := p.run(src)
	p.release()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tokens, err = runTokensHooks(ctx, o, o.ext.transforms, tokens)
	if err != nil {
		return nil, err
	}
	if len(o.ext.walkers) > 0 {
		if err := walkTokens(tokens, o.ext.walkers); err != nil {
			return nil, err
		}
	}
	return tokens, nil
}

// run tokenizes one preprocessed document: block structure first, then
// the deferred inline spans once every reference definition is known.
func (p *blockParser) run(src string) ([]*Token, error) {
	tokens := p.tokenize(src, true)
	if p.err != nil {
		return nil, p.err
	}
	ip := newInlineParser(p.opts, p.links)
	for _, span := range p.queue {
		span.tok.Children = ip.tokenize(span.text)
		if ip.err != nil {
			return nil, ip.err
		}
		// Truncation under Silent is per span; raw tag state carries
		// over like line state does in the block grammar.
		ip.truncated = false
	}
	return tokens, nil
}

// release scrubs pooled state so no source text or configuration
// outlives the parse.
func (p *blockParser) release() {
	p.opts = nil
	p.table = nil
	p.links = nil
	for i := range p.queue {
		p.queue[i] = inlineSpan{}
	}
	p.queue = p.queue[:0]
	p.err = nil
	p.truncated = false
	blockParserPool.Put(p)
}

// preprocess validates and canonicalizes source, then applies extension
// preprocess hooks.
func preprocess(ctx context.Context, src string, o *Options) (string, error) {
	if err := validateSource(src); err != nil {
		return "", err
	}
	src = strings.TrimPrefix(src, "\uFEFF")
	src = normalizeNewlines(src)
	if o.StripFrontmatter {
		src = stripFrontmatter(src)
	}
	src = sanitizeSource(src)
	return runStringHooks(ctx, o, o.ext.preprocess, src)
}

var newlineNormalizer = strings.NewReplacer("\r\n", "\n", "\r", "\n")

func normalizeNewlines(s string) string {
	if !strings.ContainsRune(s, '\r') {
		return s
	}
	return newlineNormalizer.Replace(s)
}

func runStringHooks(ctx context.Context, o *Options, hooks []StringHook, s string) (string, error) {
	for _, h := range hooks {
		v, err := await(ctx, o, h(s))
		if err != nil {
			return "", err
		}
		s = v
	}
	return s, nil
}

func runTokensHooks(ctx context.Context, o *Options, hooks []TokensHook, tokens []*Token) ([]*Token, error) {
	for _, h := range hooks {
		v, err := await(ctx, o, h(tokens))
		if err != nil {
			return nil, err
		}
		tokens = v
	}
	return tokens, nil
}

// walkTokens visits every token depth-first in document order, nested
// list items and table cells included.
func walkTokens(tokens []*Token, fns []WalkFunc) error {
	for _, t := range tokens {
		for _, fn := range fns {
			if err := fn(t); err != nil {
				return err
			}
		}
		if err := walkTokens(t.Children, fns); err != nil {
			return err
		}
	}
	return nil
}
