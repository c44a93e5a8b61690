package mdh

import (
	"os"
	"testing"
)

func TestRenderStringAllocations(t *testing.T) {
	src, err := os.ReadFile("testdata/manual.md")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	doc := string(src)
	allocs := testing.AllocsPerRun(100, func() {
		_, _ = RenderString(doc)
	})
	if allocs > 20000 {
		t.Fatalf("too many allocations per render: got %.2f", allocs)
	}
}

func TestRenderANSIAllocations(t *testing.T) {
	src, err := os.ReadFile("testdata/manual.md")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	doc := string(src)
	renderer := NewANSIRenderer(WithWidth(80))
	allocs := testing.AllocsPerRun(100, func() {
		_, _ = RenderString(doc, WithRenderer(renderer))
	})
	if allocs > 30000 {
		t.Fatalf("too many allocations per terminal render: got %.2f", allocs)
	}
}
