package mdh

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestRenderStringDeterminism(t *testing.T) {
	src := "# Title\n\npara with *em* and [link](/x)\n\n- a\n- b\n"
	first := renderHTML(t, src)
	for i := 0; i < 3; i++ {
		if got := renderHTML(t, src); got != first {
			t.Fatalf("render %d differs:\n%q\n%q", i, got, first)
		}
	}
}

func TestRenderEmptyInput(t *testing.T) {
	out, err := RenderString("")
	if err != nil {
		t.Fatalf("RenderString(\"\"): %v", err)
	}
	if out != "" {
		t.Fatalf("got %q, want empty", out)
	}
}

func TestTopLevelRawSpansCoverSource(t *testing.T) {
	src := "# Title\n\npara one\nline two\n\n- a\n- b\n\n> quote\n\nlast\n"
	tokens, err := ParseString(src)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	var b strings.Builder
	for _, tok := range tokens {
		b.WriteString(tok.Raw)
	}
	if got := b.String(); got != src {
		t.Fatalf("raw spans do not reproduce source:\ngot  %q\nwant %q", got, src)
	}
}

func TestRenderBytes(t *testing.T) {
	out, err := RenderBytes([]byte("# B\n"))
	if err != nil {
		t.Fatalf("RenderBytes: %v", err)
	}
	if string(out) != "<h1>B</h1>\n" {
		t.Fatalf("got %q", out)
	}
}

func TestRenderReaderWriter(t *testing.T) {
	var out bytes.Buffer
	err := Render(RenderRequest{
		Reader: strings.NewReader("# R\n"),
		Writer: &out,
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out.String() != "<h1>R</h1>\n" {
		t.Fatalf("got %q", out.String())
	}

	if err := Render(RenderRequest{Writer: &out}); err == nil {
		t.Fatal("nil reader accepted")
	}
	if err := Render(RenderRequest{Reader: strings.NewReader("x")}); err == nil {
		t.Fatal("nil writer accepted")
	}
}

type sinkRecorder struct {
	kinds   []TokenKind
	flushed bool
}

func (s *sinkRecorder) WriteToken(t *Token) error {
	s.kinds = append(s.kinds, t.Kind)
	return nil
}

func (s *sinkRecorder) Flush() error {
	s.flushed = true
	return nil
}

func TestParseStreamsTopLevelTokens(t *testing.T) {
	var sink sinkRecorder
	err := Parse(ParseRequest{
		Reader: strings.NewReader("# H\n\npara\n\n- item\n"),
		Sink:   &sink,
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []TokenKind{KindHeading, KindParagraph, KindSpace, KindList}
	if len(sink.kinds) != len(want) {
		t.Fatalf("got kinds %v, want %v", sink.kinds, want)
	}
	for i, k := range want {
		if sink.kinds[i] != k {
			t.Fatalf("kind[%d] = %v, want %v", i, sink.kinds[i], k)
		}
	}
	if !sink.flushed {
		t.Fatal("sink not flushed")
	}
}

func TestParseRequiresReaderAndSink(t *testing.T) {
	if err := Parse(ParseRequest{Sink: &sinkRecorder{}}); err == nil {
		t.Fatal("nil reader accepted")
	}
	if err := Parse(ParseRequest{Reader: strings.NewReader("x")}); err == nil {
		t.Fatal("nil sink accepted")
	}
}

func TestRenderAsyncResolves(t *testing.T) {
	var out bytes.Buffer
	d := RenderAsync(context.Background(), RenderRequest{
		Reader: strings.NewReader("# A\n"),
		Writer: &out,
	})
	html, err := d.Await(context.Background())
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	if html != "<h1>A</h1>\n" {
		t.Fatalf("got %q", html)
	}
	if out.String() != html {
		t.Fatalf("writer got %q", out.String())
	}
}

func TestRenderAsyncRejectsNilReader(t *testing.T) {
	d := RenderAsync(context.Background(), RenderRequest{})
	if _, err := d.Await(context.Background()); err == nil {
		t.Fatal("nil reader accepted")
	}
}

func TestRenderAsyncRejectsBadOptions(t *testing.T) {
	d := RenderAsync(context.Background(), RenderRequest{
		Reader:  strings.NewReader("x"),
		Options: []Option{WithMaxNestingDepth(-1)},
	})
	_, err := d.Await(context.Background())
	assertClass(t, err, ErrConfiguration)
}

func TestRenderAsyncAllowsDeferredHooks(t *testing.T) {
	ext := Extension{
		Name: "banner",
		Preprocess: func(s string) HookResult[string] {
			d := NewDeferred[string]()
			go func() { d.Resolve("# Banner\n\n" + s) }()
			return Promised(d)
		},
	}
	d := RenderAsync(context.Background(), RenderRequest{
		Reader:  strings.NewReader("body\n"),
		Options: []Option{WithExtensions(ext)},
	})
	html, err := d.Await(context.Background())
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	if html != "<h1>Banner</h1>\n<p>body</p>\n" {
		t.Fatalf("got %q", html)
	}
}

func TestRenderAsyncHonorsContext(t *testing.T) {
	stuck := NewDeferred[string]()
	ext := Extension{
		Name: "stall",
		Preprocess: func(s string) HookResult[string] {
			return Promised(stuck)
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := RenderAsync(ctx, RenderRequest{
		Reader:  strings.NewReader("x\n"),
		Options: []Option{WithExtensions(ext)},
	})
	cancel()
	_, err := d.Await(context.Background())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}

func TestDeferredHookNeedsAsyncMode(t *testing.T) {
	ext := Extension{
		Name: "eager",
		Preprocess: func(s string) HookResult[string] {
			d := NewDeferred[string]()
			d.Resolve(s)
			return Promised(d)
		},
	}
	_, err := RenderString("x\n", WithExtensions(ext))
	assertClass(t, err, ErrConfiguration)

	// The same hook is fine once Async is on.
	out, err := RenderString("x\n", WithExtensions(ext), WithAsync(true))
	if err != nil {
		t.Fatalf("async mode: %v", err)
	}
	if out != "<p>x</p>\n" {
		t.Fatalf("got %q", out)
	}
}

func TestDeferredSettlesOnce(t *testing.T) {
	d := NewDeferred[string]()
	d.Resolve("first")
	d.Resolve("second")
	d.Reject(errors.New("late"))
	for i := 0; i < 2; i++ {
		v, err := d.Await(context.Background())
		if err != nil || v != "first" {
			t.Fatalf("Await %d = (%q, %v)", i, v, err)
		}
	}
}

func TestDeferredAwaitSurvivesContextEnd(t *testing.T) {
	d := NewDeferred[string]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.Await(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v", err)
	}
	d.Resolve("later")
	v, err := d.Await(context.Background())
	if err != nil || v != "later" {
		t.Fatalf("second Await = (%q, %v)", v, err)
	}
}

func TestNewlineAndBOMNormalization(t *testing.T) {
	got := renderHTML(t, "\ufeff# T\r\n\r\ntext\rmore\r\n")
	want := "<h1>T</h1>\n<p>text\nmore</p>\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSilentModeDegradesInsteadOfFailing(t *testing.T) {
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))
	out, err := RenderString("> > deep\n",
		WithSilent(true),
		WithLogger(logger),
		WithMaxNestingDepth(1))
	if err != nil {
		t.Fatalf("silent mode returned an error: %v", err)
	}
	if !strings.Contains(out, "<blockquote>") {
		t.Fatalf("truncated output lost outer structure: %q", out)
	}
	if !strings.Contains(logBuf.String(), "nesting truncated") {
		t.Fatalf("no diagnostic logged: %q", logBuf.String())
	}
}
