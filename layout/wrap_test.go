package layout

import (
	"testing"
	"unicode/utf8"
)

// monoAdvance 每个字符宽 1 个单位。
func monoAdvance(s string) float64 { return float64(utf8.RuneCountInString(s)) }

func TestWrapBreaksAtWhitespace(t *testing.T) {
	lines := Wrap("hello world again", 10, monoAdvance)
	want := []string{"hello", "world", "again"}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %+v", len(want), len(lines), lines)
	}
	for i, w := range want {
		if lines[i].Content != w {
			t.Fatalf("line %d: got %q want %q", i, lines[i].Content, w)
		}
		if lines[i].Width != 5 {
			t.Fatalf("line %d width: got %g want 5", i, lines[i].Width)
		}
	}
}

func TestWrapHonorsNewlines(t *testing.T) {
	lines := Wrap("foo\n\nbar", 100, monoAdvance)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines including blank, got %d", len(lines))
	}
	if lines[1].Content != "" {
		t.Fatalf("expected middle line to be blank, got %q", lines[1].Content)
	}
}

// 当第一行宽度与限制恰好相等且后面紧跟一个显式换行时，不应产生额外的空行。
func TestWrapNoBlankLineWhenEqualWidthThenNewline(t *testing.T) {
	lines := Wrap("SAMPLE-A\nSAMPLE-B", 8, monoAdvance)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %+v", len(lines), lines)
	}
	if lines[0].Content != "SAMPLE-A" || lines[1].Content != "SAMPLE-B" {
		t.Fatalf("unexpected lines: %+v", lines)
	}
}

func TestWrapWidthLimit(t *testing.T) {
	limit := 30.0
	content := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa bb cc"
	lines := Wrap(content, limit, monoAdvance)
	if len(lines) < 2 {
		t.Fatalf("expected the long word to be split, got %+v", lines)
	}
	for i, ln := range lines {
		if ln.Width > limit {
			t.Fatalf("line %d width exceeds limit: width=%g limit=%g", i, ln.Width, limit)
		}
	}
}

func TestWrapUnlimitedWidthKeepsSingleLine(t *testing.T) {
	lines := Wrap("\U0001F604♥\U0001F4BB 123", 0, monoAdvance)
	if len(lines) != 1 {
		t.Fatalf("expected a single line, got %d", len(lines))
	}
	if lines[0].Width != 7 {
		t.Fatalf("width: got %g want 7", lines[0].Width)
	}
}

func TestWrapDropsLeadingSpaceAfterSoftBreak(t *testing.T) {
	lines := Wrap("abc   def", 4, monoAdvance)
	if len(lines) != 2 || lines[1].Content != "def" {
		t.Fatalf("unexpected lines: %+v", lines)
	}
	lines = Wrap("abc\n  def", 40, monoAdvance)
	if len(lines) != 2 || lines[1].Content != "  def" {
		t.Fatalf("indent after hard break must survive: %+v", lines)
	}
}

func TestMeasureLines(t *testing.T) {
	e := MeasureLines([]TextLine{{Width: 3}, {Width: 9}, {Width: 4}}, 12)
	if e.Width != 9 || e.Height != 36 {
		t.Fatalf("unexpected extent %+v", e)
	}
}

func TestLineX(t *testing.T) {
	cases := []struct {
		h    HAlign
		want float64
	}{
		{AlignLeading, 10},
		{AlignCenter, 55},
		{AlignTrailing, 100},
	}
	for _, tc := range cases {
		if got := LineX(10, 110, 10, tc.h); got != tc.want {
			t.Fatalf("%v: got %g want %g", tc.h, got, tc.want)
		}
	}
}
