package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pkt.systems/mdh"
)

func main() {
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
		fatalf("walk %s: %v", root, err)
	}
	if len(paths) == 0 {
		fatalf("no markdown files found under %s", root)
	}
	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			fatalf("read %s: %v", path, err)
		}
		out, err := mdh.RenderString(string(src), optionsForPath(path)...)
		if err != nil {
			fatalf("render %s: %v", path, err)
		}
		goldenPath := goldenHTMLPath(root, path)
		if err := os.WriteFile(goldenPath, []byte(out), 0o644); err != nil {
			fatalf("write %s: %v", goldenPath, err)
		}
		fmt.Fprintf(os.Stdout, "wrote %s\n", goldenPath)
	}
}

// optionsForPath selects parse options from the directory a sample
// lives in: testdata/pedantic and testdata/breaks exercise those
// dialects, everything else uses the defaults.
func optionsForPath(path string) []mdh.Option {
	slash := filepath.ToSlash(path)
	switch {
	case strings.Contains(slash, "/pedantic/"):
		return []mdh.Option{mdh.WithPedantic(true)}
	case strings.Contains(slash, "/breaks/"):
		return []mdh.Option{mdh.WithBreaks(true)}
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

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
