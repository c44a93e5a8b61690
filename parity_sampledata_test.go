package mdh

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderSampledataParity(t *testing.T) {
	root := "testdata"
	var paths []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, ".md") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk testdata: %v", err)
	}
	if len(paths) == 0 {
		t.Fatalf("no markdown files found under %s", root)
	}
	for _, path := range paths {
		path := path
		t.Run(path, func(t *testing.T) {
			src, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("read %s: %v", path, err)
			}
			goldenPath := goldenHTMLPath(root, path)
			want, err := os.ReadFile(goldenPath)
			if err != nil {
				t.Fatalf("read golden %s: %v", goldenPath, err)
			}
			got, err := RenderString(string(src), sampleOptions(path)...)
			if err != nil {
				t.Fatalf("render %s: %v", path, err)
			}
			if string(want) != got {
				diff := firstDiffContext(string(want), got, 3)
				t.Fatalf("parity mismatch %s\n%s", path, diff)
			}
		})
	}
}

// sampleOptions mirrors cmd/gen-golden: the directory a sample lives in
// selects the dialect its golden was generated with.
func sampleOptions(path string) []Option {
	slash := filepath.ToSlash(path)
	switch {
	case strings.Contains(slash, "/pedantic/"):
		return []Option{WithPedantic(true)}
	case strings.Contains(slash, "/breaks/"):
		return []Option{WithBreaks(true)}
	default:
		return nil
	}
}

func goldenHTMLPath(root, mdPath string) string {
	rel, err := filepath.Rel(root, mdPath)
	if err != nil {
		rel = mdPath
	}
	name := strings.TrimSuffix(rel, ".md")
	name = strings.ReplaceAll(filepath.ToSlash(name), "/", "__")
	return filepath.Join(root, name+".html")
}

func firstDiffContext(want string, got string, ctx int) string {
	wantLines := strings.Split(want, "\n")
	gotLines := strings.Split(got, "\n")
	max := len(wantLines)
	if len(gotLines) > max {
		max = len(gotLines)
	}
	diffAt := -1
	for i := 0; i < max; i++ {
		var w, g string
		if i < len(wantLines) {
			w = wantLines[i]
		}
		if i < len(gotLines) {
			g = gotLines[i]
		}
		if w != g {
			diffAt = i
			break
		}
	}
	if diffAt == -1 {
		return "---want---\n" + want + "\n---got---\n" + got
	}
	start := diffAt - ctx
	if start < 0 {
		start = 0
	}
	end := diffAt + ctx
	if end >= max {
		end = max - 1
	}
	var b strings.Builder
	fmt.Fprintf(&b, "first difference at line %d\n", diffAt+1)
	b.WriteString("---want---\n")
	for i := start; i <= end; i++ {
		line := ""
		if i < len(wantLines) {
			line = wantLines[i]
		}
		fmt.Fprintf(&b, "%5d | %s\n", i+1, line)
	}
	b.WriteString("---got---\n")
	for i := start; i <= end; i++ {
		line := ""
		if i < len(gotLines) {
			line = gotLines[i]
		}
		fmt.Fprintf(&b, "%5d | %s\n", i+1, line)
	}
	return b.String()
}
