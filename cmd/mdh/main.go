package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/term"
	"pkt.systems/mdh"
	"pkt.systems/version"
)

const (
	defaultThemeName = "default"
	defaultWidth     = 80
)

func init() {
	version.SetDefaultModule("pkt.systems/mdh")
}

func main() {
	var (
		htmlMode    bool
		ansiMode    bool
		themeName   string
		widthFlag   int
		osc8Flag    string
		listThemes  bool
		outPath     string
		boring      bool
		noGFM       bool
		pedantic    bool
		breaks      bool
		silent      bool
		frontmatter bool
		showVersion bool
	)

	flags := pflag.NewFlagSet("mdh", pflag.ExitOnError)
	flags.BoolVar(&htmlMode, "html", false, "Force HTML output")
	flags.BoolVar(&ansiMode, "ansi", false, "Force ANSI output")
	flags.StringVarP(&themeName, "theme", "t", defaultThemeName, "Theme name for ANSI output")
	flags.IntVarP(&widthFlag, "width", "w", 0, "ANSI output width (0 uses terminal width if available)")
	flags.StringVarP(&osc8Flag, "osc8", "8", "auto", "OSC8 hyperlinks: auto|on|off")
	flags.BoolVar(&listThemes, "list-themes", false, "List available themes")
	flags.StringVarP(&outPath, "output", "o", "", "Output file instead of stdout")
	flags.BoolVarP(&boring, "boring", "b", false, "ANSI output without colors")
	flags.BoolVar(&noGFM, "no-gfm", false, "Disable GFM tables, strikethrough, task lists and autolinks")
	flags.BoolVar(&pedantic, "pedantic", false, "Approximate the original markdown.pl behavior")
	flags.BoolVar(&breaks, "breaks", false, "Render single newlines as line breaks (implies GFM)")
	flags.BoolVar(&silent, "silent", false, "Recover from parse errors instead of failing")
	flags.BoolVar(&frontmatter, "frontmatter", false, "Strip YAML/TOML/JSON front matter before rendering")
	flags.BoolVarP(&showVersion, "version", "V", false, "Print version and exit")

	flags.SetInterspersed(true)
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, version.Module(), version.Current())
		fmt.Fprintf(os.Stderr, "Usage: mdh [flags] [inputs...]\n")
		fmt.Fprintln(os.Stderr, "\nIf no input is provided, Markdown is read from stdin.")
		fmt.Fprintln(os.Stderr, "Inputs may be paths, file:// URLs or http(s):// URLs; several inputs are concatenated.")
		fmt.Fprintln(os.Stderr, "Output is HTML, or ANSI when writing to a terminal (override with --html/--ansi).")
		fmt.Fprintln(os.Stderr, "\nFlags:")
		flags.PrintDefaults()
	}

	if err := flags.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	if showVersion {
		fmt.Fprintln(os.Stdout, version.Module(), version.Current())
		return
	}
	if listThemes {
		printThemes()
		return
	}
	if htmlMode && ansiMode {
		fmt.Fprintln(os.Stderr, "--html and --ansi are mutually exclusive")
		os.Exit(2)
	}

	args := flags.Args()
	reader, closer, err := openInputs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open input: %v\n", err)
		os.Exit(1)
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}

	writer, closeOut, err := resolveOutput(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open output: %v\n", err)
		os.Exit(1)
	}
	if closeOut != nil {
		defer func() { _ = closeOut.Close() }()
	}

	opts := []mdh.Option{
		mdh.WithGFM(!noGFM),
		mdh.WithPedantic(pedantic),
		mdh.WithBreaks(breaks),
		mdh.WithSilent(silent),
		mdh.WithFrontmatter(frontmatter),
	}

	if ansiMode || (!htmlMode && isTerminal(writer)) {
		theme, ok := mdh.ThemeByName(themeName)
		if !ok {
			fmt.Fprintf(os.Stderr, "unknown theme %q\n\n", themeName)
			printThemes()
			os.Exit(2)
		}
		if boring {
			theme = boringTheme()
		}
		osc8, err := resolveOSC8(osc8Flag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid --osc8 %q: %v\n", osc8Flag, err)
			os.Exit(2)
		}
		opts = append(opts, mdh.WithRenderer(mdh.NewANSIRenderer(
			mdh.WithTheme(theme),
			mdh.WithWidth(resolveWidth(widthFlag)),
			mdh.WithHyperlinks(osc8),
		)))
		opts = mdh.Use(opts, tidyTail())
	}

	if err := mdh.Render(mdh.RenderRequest{
		Reader:  reader,
		Writer:  writer,
		Options: opts,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "render: %v\n", err)
		os.Exit(1)
	}
}

// tidyTail collapses the blank line that ANSI block spacing leaves at
// the end of the document.
func tidyTail() mdh.Extension {
	return mdh.Extension{
		Name: "tidy-tail",
		Postprocess: func(out string) mdh.HookResult[string] {
			trimmed := strings.TrimRight(out, "\n")
			if trimmed == "" {
				return mdh.Value("")
			}
			return mdh.Value(trimmed + "\n")
		},
	}
}

func printThemes() {
	names := mdh.AvailableThemes()
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintln(os.Stdout, name)
	}
}

func resolveWidth(width int) int {
	if width > 0 {
		return width
	}
	return terminalWidth(defaultWidth)
}

func terminalWidth(fallback int) int {
	fd := int(os.Stdout.Fd())
	if term.IsTerminal(fd) {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			return w
		}
	}
	if value := os.Getenv("COLUMNS"); value != "" {
		if w, err := strconvAtoi(value); err == nil && w > 0 {
			return w
		}
	}
	return fallback
}

func resolveOSC8(mode string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "auto":
		return mdh.DetectOSC8Support(), nil
	case "on", "true", "1", "yes":
		return true, nil
	case "off", "false", "0", "no":
		return false, nil
	default:
		return false, fmt.Errorf("expected auto|on|off")
	}
}

func boringTheme() mdh.Theme {
	return mdh.NewTheme("boring", mdh.Styles{})
}

type inputSource struct {
	open func() (io.Reader, io.Closer, error)
}

type multiInputReader struct {
	sources   []inputSource
	idx       int
	cur       io.Reader
	curCloser io.Closer
	closed    bool
}

func (m *multiInputReader) Read(p []byte) (int, error) {
	for {
		if m.closed {
			return 0, io.EOF
		}
		if m.cur == nil {
			if m.idx >= len(m.sources) {
				m.closed = true
				return 0, io.EOF
			}
			reader, closer, err := m.sources[m.idx].open()
			if err != nil {
				return 0, err
			}
			m.cur = reader
			m.curCloser = closer
			m.idx++
		}
		n, err := m.cur.Read(p)
		if n > 0 {
			return n, nil
		}
		if err == io.EOF {
			if m.curCloser != nil {
				_ = m.curCloser.Close()
			}
			m.cur = nil
			m.curCloser = nil
			continue
		}
		if err != nil {
			return 0, err
		}
	}
}

func (m *multiInputReader) Close() error {
	m.closed = true
	if m.curCloser != nil {
		return m.curCloser.Close()
	}
	return nil
}

func openInputs(args []string) (io.Reader, io.Closer, error) {
	if len(args) == 0 {
		return os.Stdin, nil, nil
	}
	sources := make([]inputSource, 0, len(args))
	for _, raw := range args {
		src, ok, err := makeInputSource(raw)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			sources = append(sources, src)
		}
	}
	return &multiInputReader{sources: sources}, nil, nil
}

// makeInputSource resolves one input argument. A missing file is
// reported on stderr and skipped rather than treated as an error.
func makeInputSource(raw string) (inputSource, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return inputSource{}, false, fmt.Errorf("empty input argument")
	}
	if raw == "-" {
		return inputSource{open: func() (io.Reader, io.Closer, error) {
			return os.Stdin, nil, nil
		}}, true, nil
	}
	u, err := url.Parse(raw)
	if err == nil && u.Scheme != "" {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return inputSource{open: func() (io.Reader, io.Closer, error) {
				return openURL(raw)
			}}, true, nil
		case "file":
			path := u.Path
			if path == "" {
				path = u.Host
			}
			if unescaped, err := url.PathUnescape(path); err == nil {
				path = unescaped
			}
			return fileSource(path)
		}
	}
	return fileSource(raw)
}

func fileSource(path string) (inputSource, bool, error) {
	clean := normalizePath(path)
	if _, err := os.Stat(clean); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "skipping %s: no such file\n", path)
		return inputSource{}, false, nil
	}
	return inputSource{open: func() (io.Reader, io.Closer, error) {
		return openFile(clean)
	}}, true, nil
}

func openURL(raw string) (io.Reader, io.Closer, error) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, raw, nil)
	if err != nil {
		return nil, nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, nil, fmt.Errorf("http %s: %s", raw, resp.Status)
	}
	return resp.Body, resp.Body, nil
}

func openFile(path string) (io.Reader, io.Closer, error) {
	clean := normalizePath(path)
	f, err := os.Open(clean)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

func resolveOutput(path string) (io.Writer, io.Closer, error) {
	if strings.TrimSpace(path) == "" {
		return os.Stdout, nil, nil
	}
	clean := normalizePath(path)
	dir := filepath.Dir(clean)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, err
		}
	}
	f, err := os.Create(clean)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

func normalizePath(path string) string {
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			if path == "~" {
				path = home
			} else {
				path = filepath.Join(home, path[2:])
			}
		}
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		return abs
	}
	return path
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func strconvAtoi(value string) (int, error) {
	var n int
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return 0, fmt.Errorf("invalid int")
		}
		n = n*10 + int(value[i]-'0')
	}
	return n, nil
}
