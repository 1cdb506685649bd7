package canvasrenderer

import (
	"bytes"
	"errors"
	"image/png"
	"testing"

	"github.com/tdewolff/canvas"

	"github.com/ByLCY/glyphbox/layout"
	"github.com/ByLCY/glyphbox/renderer"
)

func newTestRenderer(t *testing.T, format string) *Renderer {
	t.Helper()
	r := NewRenderer(renderer.Options{
		Width:      120,
		Height:     80,
		Font:       layout.FontSpec{Name: "Body", Src: "builtin:goregular", Size: 12},
		Foreground: layout.White,
		Background: layout.Accent,
		Format:     format,
		Title:      "test",
	})
	if err := r.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	t.Cleanup(r.Shutdown)
	return r
}

func TestMeasureGreedyWrapsText(t *testing.T) {
	r := newTestRenderer(t, "")
	font := layout.FontSpec{Name: "Body", Src: "builtin:goregular", Size: 12}

	single, err := r.Measure(font, "hello world again", 1e6, 80)
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if single.Height <= 0 || single.Width <= 0 {
		t.Fatalf("unexpected extent %+v", single)
	}
	// em 与 DIP 字号一致，行高应接近 1.0~1.5 倍字号
	if em := font.SizeDIP(); single.Height < em*0.9 || single.Height > em*1.6 {
		t.Fatalf("line height %g out of range for %g DIP font", single.Height, em)
	}

	wrapped, err := r.Measure(font, "hello world again", single.Width*0.6, 80)
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if wrapped.Height < 2*single.Height-1e-6 {
		t.Fatalf("expected wrapping into multiple lines: single=%+v wrapped=%+v", single, wrapped)
	}
}

func TestResizeUpdatesCanvasSize(t *testing.T) {
	r := newTestRenderer(t, "")
	if err := r.Resize(640, 360); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if w, h := r.CanvasSize(); w != 640 || h != 360 {
		t.Fatalf("CanvasSize after resize: %gx%g", w, h)
	}
	if err := r.Resize(-1, 360); !errors.Is(err, renderer.ErrInvalidSize) {
		t.Fatalf("expected ErrInvalidSize, got %v", err)
	}
	if w, h := r.CanvasSize(); w != 640 || h != 360 {
		t.Fatalf("invalid resize must not change the size: %gx%g", w, h)
	}
}

func TestEndFramePNG(t *testing.T) {
	r := newTestRenderer(t, "png")
	if err := r.BeginFrame(); err != nil {
		t.Fatalf("BeginFrame: %v", err)
	}
	r.Clear(layout.Accent)
	bounds := layout.RectWH(120, 80)
	r.DrawText(layout.TextRun{Text: "♥ 123", Font: layout.FontSpec{Size: 12}, Color: layout.White},
		layout.Placement{Rect: bounds, HAlign: layout.AlignCenter}, true)
	r.DrawRect(bounds.Inset(10), layout.White, 3)

	data, err := r.EndFrame()
	if err != nil {
		t.Fatalf("EndFrame: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 120 || b.Dy() != 80 {
		t.Fatalf("unexpected PNG size %v", b)
	}
}

func TestEndFramePDF(t *testing.T) {
	r := newTestRenderer(t, "pdf")
	if err := r.BeginFrame(); err != nil {
		t.Fatalf("BeginFrame: %v", err)
	}
	r.Clear(layout.White)
	data, err := r.EndFrame()
	if err != nil {
		t.Fatalf("EndFrame: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("expected PDF output, got %q", data[:min(8, len(data))])
	}
}

func TestSetupFailureAndShutdown(t *testing.T) {
	r := NewRenderer(renderer.Options{
		Width:  100,
		Height: 100,
		Font:   layout.FontSpec{Src: "missing/font.ttf", Size: 12},
	})
	err := r.Setup()
	var setupErr *renderer.SetupError
	if !errors.As(err, &setupErr) || setupErr.Step != renderer.StepFactory {
		t.Fatalf("expected factory SetupError, got %v", err)
	}
	if got := r.res.Held(); len(got) != 1 || got[0] != "canvas" {
		t.Fatalf("expected only the surface to be held, got %v", got)
	}
	r.Shutdown()
	r.Shutdown()
	if r.res.Len() != 0 || r.c != nil {
		t.Fatalf("shutdown left resources behind")
	}
	if err := r.BeginFrame(); !errors.Is(err, renderer.ErrNotReady) {
		t.Fatalf("expected ErrNotReady after shutdown, got %v", err)
	}
}

func TestFallbackFontAfterSetup(t *testing.T) {
	r := newTestRenderer(t, "")
	ext, err := r.Measure(layout.FontSpec{Name: "Emoji", Src: "missing/emoji.ttf", Size: 12}, "abc", 1e6, 80)
	if err != nil {
		t.Fatalf("expected fallback to the builtin font, got %v", err)
	}
	if ext.Width <= 0 {
		t.Fatalf("fallback font measured nothing: %+v", ext)
	}
}

func TestParseFontStyle(t *testing.T) {
	if parseFontStyle("", "") != canvas.FontRegular {
		t.Fatalf("empty style should be regular")
	}
	if got := parseFontStyle("bold", "italic"); got == canvas.FontRegular || got&canvas.FontItalic == 0 {
		t.Fatalf("bold italic should not be regular: %v", got)
	}
}
