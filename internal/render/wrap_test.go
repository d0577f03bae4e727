package render

import (
	"slices"
	"testing"
)

func TestWrapText(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  []string
	}{
		{name: "fits", text: "hello", width: 10, want: []string{"hello"}},
		{name: "words", text: "aa bb cc", width: 5, want: []string{"aa bb", "cc"}},
		{name: "blank lines kept", text: "a\n\nb", width: 5, want: []string{"a", "", "b"}},
		{name: "pure wide runes", text: "你好世界", width: 4, want: []string{"你好", "世界"}},
		{name: "mix wide and ascii", text: "你好 hello", width: 4, want: []string{"你好", "hell", "o"}},
		{name: "no width", text: "x y", width: 0, want: []string{"x y"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapText(tt.text, tt.width)
			if !slices.Equal(got, tt.want) {
				t.Fatalf("wrapText(%q,%d)=%v want %v", tt.text, tt.width, got, tt.want)
			}
		})
	}
}

func TestTrimBlankLines(t *testing.T) {
	lines := []Line{{}, {Spans: []Span{{Text: "  "}}}, {Spans: []Span{{Text: "x"}}}, {}}
	got := TrimBlankLines(lines)
	if len(got) != 1 || got[0].Plain() != "x" {
		t.Fatalf("unexpected trim result: %#v", got)
	}
}
