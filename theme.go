package mdh

import (
	"fmt"
	"sort"
	"strings"
)

// Style describes a terminal style as an ANSI prefix sequence.
type Style struct {
	Prefix string
}

// Styles groups the semantic styles used by the terminal renderer.
type Styles struct {
	Text          Style
	Heading       [6]Style
	Emphasis      Style
	Strong        Style
	Del           Style
	CodeInline    Style
	CodeBlock     Style
	Quote         Style
	ListMarker    Style
	LinkText      Style
	LinkURL       Style
	TableBorder   Style
	ThematicBreak Style
}

// Theme provides named styles for Markdown rendering.
type Theme interface {
	Name() string
	Styles() Styles
}

type theme struct {
	name   string
	styles Styles
}

func (t theme) Name() string   { return t.name }
func (t theme) Styles() Styles { return t.styles }

// NewTheme returns a Theme from a Styles definition.
func NewTheme(name string, styles Styles) Theme {
	return theme{name: name, styles: styles}
}

const (
	sgrReset     = "\x1b[0m"
	sgrBold      = "\x1b[1m"
	sgrFaint     = "\x1b[2m"
	sgrItalic    = "\x1b[3m"
	sgrUnderline = "\x1b[4m"
	sgrStrike    = "\x1b[9m"
)

// fg returns a truecolor foreground prefix.
func fg(r, g, b uint8) string {
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm", r, g, b)
}

func style(prefixes ...string) Style {
	var b strings.Builder
	for _, p := range prefixes {
		if p != "" {
			b.WriteString(p)
		}
	}
	return Style{Prefix: b.String()}
}

// palette carries the per-theme colors; attribute codes are shared.
type palette struct {
	text, heading, accent          string
	code, quote, marker            string
	linkText, linkURL, border, del string
}

func stylesFromPalette(p palette) Styles {
	return Styles{
		Text: style(p.text),
		Heading: [6]Style{
			style(sgrBold, p.heading),
			style(sgrBold, p.heading),
			style(sgrBold, p.accent),
			style(sgrBold, p.accent),
			style(sgrBold, p.text),
			style(sgrBold, sgrFaint, p.text),
		},
		Emphasis:      style(sgrItalic, p.text),
		Strong:        style(sgrBold, p.text),
		Del:           style(sgrStrike, p.del),
		CodeInline:    style(p.code),
		CodeBlock:     style(p.code),
		Quote:         style(sgrItalic, p.quote),
		ListMarker:    style(p.marker),
		LinkText:      style(sgrUnderline, p.linkText),
		LinkURL:       style(sgrFaint, p.linkURL),
		TableBorder:   style(sgrFaint, p.border),
		ThematicBreak: style(sgrFaint, p.border),
	}
}

var builtinThemes = map[string]Theme{
	"default": theme{name: "default", styles: stylesFromPalette(palette{
		heading: "\x1b[36m", accent: "\x1b[34m",
		code: "\x1b[33m", quote: "\x1b[32m", marker: "\x1b[36m",
		linkText: "\x1b[34m", linkURL: "\x1b[34m",
	})},
	"mono": theme{name: "mono", styles: stylesFromPalette(palette{})},
	"dracula": theme{name: "dracula", styles: stylesFromPalette(palette{
		text: fg(248, 248, 242), heading: fg(189, 147, 249), accent: fg(139, 233, 253),
		code: fg(241, 250, 140), quote: fg(98, 114, 164), marker: fg(255, 121, 198),
		linkText: fg(139, 233, 253), linkURL: fg(98, 114, 164),
		border: fg(98, 114, 164), del: fg(255, 85, 85),
	})},
	"nord": theme{name: "nord", styles: stylesFromPalette(palette{
		text: fg(216, 222, 233), heading: fg(136, 192, 208), accent: fg(129, 161, 193),
		code: fg(235, 203, 139), quote: fg(76, 86, 106), marker: fg(180, 142, 173),
		linkText: fg(136, 192, 208), linkURL: fg(76, 86, 106),
		border: fg(76, 86, 106), del: fg(191, 97, 106),
	})},
	"gruvbox": theme{name: "gruvbox", styles: stylesFromPalette(palette{
		text: fg(235, 219, 178), heading: fg(250, 189, 47), accent: fg(131, 165, 152),
		code: fg(184, 187, 38), quote: fg(146, 131, 116), marker: fg(254, 128, 25),
		linkText: fg(131, 165, 152), linkURL: fg(146, 131, 116),
		border: fg(146, 131, 116), del: fg(251, 73, 52),
	})},
	"solarized-dark": theme{name: "solarized-dark", styles: stylesFromPalette(palette{
		text: fg(131, 148, 150), heading: fg(38, 139, 210), accent: fg(42, 161, 152),
		code: fg(181, 137, 0), quote: fg(88, 110, 117), marker: fg(211, 54, 130),
		linkText: fg(38, 139, 210), linkURL: fg(88, 110, 117),
		border: fg(88, 110, 117), del: fg(220, 50, 47),
	})},
	"solarized-light": theme{name: "solarized-light", styles: stylesFromPalette(palette{
		text: fg(101, 123, 131), heading: fg(38, 139, 210), accent: fg(42, 161, 152),
		code: fg(181, 137, 0), quote: fg(147, 161, 161), marker: fg(211, 54, 130),
		linkText: fg(38, 139, 210), linkURL: fg(147, 161, 161),
		border: fg(147, 161, 161), del: fg(220, 50, 47),
	})},
	"github-dark": theme{name: "github-dark", styles: stylesFromPalette(palette{
		text: fg(230, 237, 243), heading: fg(88, 166, 255), accent: fg(188, 140, 255),
		code: fg(210, 153, 34), quote: fg(139, 148, 158), marker: fg(63, 185, 80),
		linkText: fg(88, 166, 255), linkURL: fg(139, 148, 158),
		border: fg(139, 148, 158), del: fg(248, 81, 73),
	})},
	"github-light": theme{name: "github-light", styles: stylesFromPalette(palette{
		text: fg(31, 35, 40), heading: fg(9, 105, 218), accent: fg(130, 80, 223),
		code: fg(154, 103, 0), quote: fg(101, 109, 118), marker: fg(26, 127, 55),
		linkText: fg(9, 105, 218), linkURL: fg(101, 109, 118),
		border: fg(101, 109, 118), del: fg(207, 34, 46),
	})},
}

// AvailableThemes returns the names of built-in themes.
func AvailableThemes() []string {
	names := make([]string, 0, len(builtinThemes))
	for name := range builtinThemes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ThemeByName returns a built-in theme by name. The empty name selects
// the default theme.
func ThemeByName(name string) (Theme, bool) {
	if name == "" {
		return builtinThemes["default"], true
	}
	normalized := strings.ToLower(strings.TrimSpace(name))
	theme, ok := builtinThemes[normalized]
	return theme, ok
}

// DefaultTheme returns the default built-in theme.
func DefaultTheme() Theme {
	return builtinThemes["default"]
}
