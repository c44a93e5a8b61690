package mdh

import (
	"os"
	"strconv"
	"testing"
)

func BenchmarkRenderManual(b *testing.B) {
	doc := string(mustReadSample(b, "testdata/manual.md"))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := RenderString(doc); err != nil {
			b.Fatalf("render: %v", err)
		}
	}
}

func BenchmarkParseManual(b *testing.B) {
	doc := string(mustReadSample(b, "testdata/manual.md"))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := ParseString(doc); err != nil {
			b.Fatalf("parse: %v", err)
		}
	}
}

func BenchmarkRenderSampledata(b *testing.B) {
	samples := map[string]string{
		"manual":     string(mustReadSample(b, "testdata/manual.md")),
		"cheatsheet": string(mustReadSample(b, "testdata/cheatsheet.md")),
		"basics":     string(mustReadSample(b, "testdata/basics.md")),
	}
	for name, doc := range samples {
		doc := doc
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := RenderString(doc); err != nil {
					b.Fatalf("render: %v", err)
				}
			}
		})
	}
}

func BenchmarkRenderANSIWidths(b *testing.B) {
	doc := string(mustReadSample(b, "testdata/manual.md"))
	widths := []int{50, 80, 120}
	for _, width := range widths {
		width := width
		b.Run(intToWidthLabel(width), func(b *testing.B) {
			renderer := NewANSIRenderer(WithWidth(width))
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := RenderString(doc, WithRenderer(renderer)); err != nil {
					b.Fatalf("render: %v", err)
				}
			}
		})
	}
}

func BenchmarkRenderDialects(b *testing.B) {
	doc := string(mustReadSample(b, "testdata/manual.md"))
	dialects := map[string][]Option{
		"gfm":      nil,
		"pedantic": {WithPedantic(true)},
		"breaks":   {WithBreaks(true)},
	}
	for name, opts := range dialects {
		opts := opts
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := RenderString(doc, opts...); err != nil {
					b.Fatalf("render: %v", err)
				}
			}
		})
	}
}

func mustReadSample(b *testing.B, path string) []byte {
	b.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		b.Fatalf("read %s: %v", path, err)
	}
	return data
}

func intToWidthLabel(width int) string {
	return "w" + strconv.Itoa(width)
}
