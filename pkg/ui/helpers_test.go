package ui

import (
	"math"
	"testing"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

func TestTruncate_UTF8Safe(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxWidth int
		want     string
	}{
		{name: "zero max", input: "hello", maxWidth: 0, want: ""},
		{name: "fits", input: "hello", maxWidth: 10, want: "hello"},
		{name: "ellipsis", input: "Côte d'Ivoire", maxWidth: 5, want: "Côte…"},
		{name: "wide runes", input: "日本語タイトル", maxWidth: 5, want: "日本…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.input, tt.maxWidth)
			if got != tt.want {
				t.Fatalf("truncate(%q, %d) = %q; want %q", tt.input, tt.maxWidth, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Fatalf("truncate output is not valid UTF-8: %q", got)
			}
			if runewidth.StringWidth(got) > tt.maxWidth {
				t.Fatalf("truncate output is %d cells wide; max %d", runewidth.StringWidth(got), tt.maxWidth)
			}
		})
	}
}

func TestPadRight(t *testing.T) {
	if got := padRight("ab", 4); got != "ab  " {
		t.Errorf("padRight = %q", got)
	}
	if got := padRight("日本", 4); got != "日本" {
		t.Errorf("wide runes already fill the width, got %q", got)
	}
	if got := padRight("toolong", 3); got != "toolong" {
		t.Errorf("padRight should never cut, got %q", got)
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{math.NaN(), "n/a"},
		{12.5, "12.50"},
		{1234567, "1,234,567"},
		{-250, "-250"},
	}
	for _, tt := range tests {
		if got := formatValue(tt.v); got != tt.want {
			t.Errorf("formatValue(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}
