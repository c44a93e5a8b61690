// Package mdh converts Markdown to HTML, with an optional ANSI
// renderer for terminal display.
//
// Parsing is a single pass over rule tables: an ordered list of block
// rules splits the source into a token tree, and an ordered list of
// inline rules expands the text spans inside it. Dialect switches
// (GFM, pedantic, breaks) select which rules participate rather than
// changing parser code. Extensions hook the same mechanism: custom
// tokenizers slot into the rule order, custom renderers form a chain
// in front of the built-in one, and each can decline a token to pass
// it along.
//
// Core properties:
//   - One parse pass; block rules then inline rules, first match wins
//   - Token raw spans cover the source exactly, in order
//   - Renderer chain with per-kind fallthrough
//   - Reference links resolve identically regardless of definition order
//
// Example:
//
//	html, err := mdh.RenderString("# Hello\n\nMarkdown in, HTML out.\n")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Print(html)
//
// Every entry point accepts functional options such as WithPedantic or
// WithRenderer; package-level defaults are set with SetDefault. For
// terminal output, install NewANSIRenderer with a Theme from
// ThemeByName.
package mdh
