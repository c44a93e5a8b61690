package mdh

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Front matter detection is heuristic: a document begins with front
// matter when its first line is exactly one of the known delimiters and
// the second line plausibly holds metadata. Only the leading probe
// window is searched for the closing delimiter, so an unterminated
// block in a large document cannot swallow it whole.
const maxFrontmatterProbe = 64 * 1024

// Frontmatter is a leading metadata block split off a document.
type Frontmatter struct {
	// Format is "yaml", "toml" or "json", keyed by the delimiter.
	Format string
	// Raw is the block text between the delimiter lines.
	Raw string
	// Fields holds the decoded metadata. TOML blocks are split but not
	// decoded, leaving Fields nil.
	Fields map[string]any
}

// ExtractFrontmatter splits a front matter block off src and decodes
// it, returning the block and the remaining document body. Without a
// block it returns (nil, src, nil). A block that fails to decode is
// returned raw alongside the error.
func ExtractFrontmatter(src string) (*Frontmatter, string, error) {
	meta, format, body, ok := splitFrontmatter(src)
	if !ok {
		return nil, src, nil
	}
	fm := &Frontmatter{Format: format, Raw: meta}
	if format == "toml" {
		return fm, body, nil
	}
	// YAML is a superset of JSON, so one decoder covers both.
	if err := yaml.Unmarshal([]byte(meta), &fm.Fields); err != nil {
		return fm, body, fmt.Errorf("decode %s front matter: %w", format, err)
	}
	return fm, body, nil
}

// stripFrontmatter drops a leading front matter block. It runs after
// newline normalization and BOM removal.
func stripFrontmatter(src string) string {
	if _, _, body, ok := splitFrontmatter(src); ok {
		return body
	}
	return src
}

func splitFrontmatter(src string) (meta, format, body string, ok bool) {
	openLine, next := frontmatterLine(src, 0)
	delim := strings.TrimSpace(openLine)
	switch delim {
	case "---":
		format = "yaml"
	case "+++":
		format = "toml"
	case ";;;":
		format = "json"
	default:
		return "", "", "", false
	}
	secondLine, metaStart := frontmatterLine(src, next)
	if !metadataLikely(secondLine) {
		return "", "", "", false
	}
	limit := len(src)
	if limit > maxFrontmatterProbe {
		limit = maxFrontmatterProbe
	}
	for idx := metaStart; idx <= limit; {
		line, after := frontmatterLine(src, idx)
		if strings.TrimSpace(line) == delim {
			return src[next:idx], format, src[after:], true
		}
		if after == idx {
			break
		}
		idx = after
	}
	return "", "", "", false
}

// frontmatterLine returns the line starting at i without its newline,
// and the offset just past it.
func frontmatterLine(src string, i int) (string, int) {
	if i >= len(src) {
		return "", len(src)
	}
	if j := strings.IndexByte(src[i:], '\n'); j >= 0 {
		return src[i : i+j], i + j + 1
	}
	return src[i:], len(src)
}

// metadataLikely reports whether a line plausibly opens metadata: a
// JSON bracket or a key-value separator. This keeps a leading thematic
// break or setext underline from being taken for front matter.
func metadataLikely(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return true
	}
	return strings.Contains(trimmed, ":") || strings.Contains(trimmed, "=")
}
