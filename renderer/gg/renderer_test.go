package ggrenderer

import (
	"bytes"
	"errors"
	"image/color"
	"image/png"
	"testing"

	"github.com/gogpu/gg/text"

	"github.com/ByLCY/glyphbox/fonts"
	"github.com/ByLCY/glyphbox/frame"
	"github.com/ByLCY/glyphbox/layout"
	"github.com/ByLCY/glyphbox/renderer"
)

func newTestRenderer(t *testing.T, w, h float64) *Renderer {
	t.Helper()
	r := NewRenderer(renderer.Options{
		Width:      w,
		Height:     h,
		Font:       layout.FontSpec{Name: "Body", Src: "builtin:goregular", Size: 12},
		Foreground: layout.White,
		Background: layout.Accent,
	})
	if err := r.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	t.Cleanup(r.Shutdown)
	return r
}

func TestSupportsColorGlyphs(t *testing.T) {
	var b renderer.Backend = NewRenderer(renderer.Options{Width: 1, Height: 1})
	s, ok := b.(renderer.ColorGlyphSupporter)
	if !ok || !s.SupportsColorGlyphs() {
		t.Fatalf("gg backend must report colour glyph support")
	}
}

func TestMeasureWraps(t *testing.T) {
	r := newTestRenderer(t, 200, 100)
	font := layout.FontSpec{Size: 12}

	single, err := r.Measure(font, "hello world again", 1e6, 100)
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if single.Width <= 0 || single.Height <= 0 {
		t.Fatalf("unexpected extent %+v", single)
	}
	wrapped, err := r.Measure(font, "hello world again", single.Width*0.6, 100)
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if wrapped.Height < 2*single.Height-1e-6 {
		t.Fatalf("expected wrapping: single=%+v wrapped=%+v", single, wrapped)
	}
}

func TestFramePNG(t *testing.T) {
	r := newTestRenderer(t, 60, 40)
	if err := r.BeginFrame(); err != nil {
		t.Fatalf("BeginFrame: %v", err)
	}
	r.Clear(layout.Accent)
	r.DrawText(layout.TextRun{Text: "😄♥", Font: layout.FontSpec{Size: 10}, Color: layout.White},
		layout.Placement{Rect: layout.RectWH(60, 40), HAlign: layout.AlignCenter}, true)
	r.DrawRect(layout.RectWH(60, 40).Inset(10), layout.White, 3)

	data, err := r.EndFrame()
	if err != nil {
		t.Fatalf("EndFrame: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 60 || b.Dy() != 40 {
		t.Fatalf("unexpected frame size %v", b)
	}
	corner := color.RGBAModel.Convert(img.At(0, 0)).(color.RGBA)
	if corner.R < 250 || corner.G > 5 || corner.B > 5 {
		t.Fatalf("background not cleared to accent: %+v", corner)
	}
}

func TestResizeAdjustsContext(t *testing.T) {
	r := newTestRenderer(t, 50, 50)
	if err := r.Resize(80, 30); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if b := r.Image().Bounds(); b.Dx() != 80 || b.Dy() != 30 {
		t.Fatalf("context not resized: %v", b)
	}
	if err := r.Resize(10, 0); !errors.Is(err, renderer.ErrInvalidSize) {
		t.Fatalf("expected ErrInvalidSize, got %v", err)
	}
}

func TestSetupRejectsPDF(t *testing.T) {
	r := NewRenderer(renderer.Options{Width: 10, Height: 10, Format: "pdf"})
	err := r.Setup()
	var setupErr *renderer.SetupError
	if !errors.As(err, &setupErr) || setupErr.Step != renderer.StepSurface {
		t.Fatalf("expected surface SetupError, got %v", err)
	}
	if r.res.Len() != 0 {
		t.Fatalf("nothing should be held, got %v", r.res.Held())
	}
}

func TestShutdownReleasesEverything(t *testing.T) {
	r := newTestRenderer(t, 10, 10)
	if got := r.res.Held(); len(got) != 3 {
		t.Fatalf("expected three resources, got %v", got)
	}
	r.Shutdown()
	r.Shutdown()
	if r.res.Len() != 0 || r.dc != nil || r.sources != nil {
		t.Fatalf("shutdown left resources behind")
	}
	if _, err := r.EndFrame(); !errors.Is(err, renderer.ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
}

func TestColorGlyphToggleChangesFrame(t *testing.T) {
	if _, ok := fonts.FindFamily("Segoe UI Emoji", true); !ok {
		t.Skip("no system emoji font installed")
	}
	font := layout.FontSpec{Name: "Emoji", Family: "Segoe UI Emoji", Src: fonts.Default, Size: 40}
	r := NewRenderer(renderer.Options{
		Width:      300,
		Height:     200,
		Font:       font,
		Foreground: layout.White,
		Background: layout.Accent,
	})
	if err := r.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer r.Shutdown()

	face, err := r.face(font)
	if err != nil {
		t.Fatalf("face: %v", err)
	}
	// DrawWithEmoji 只对位图字形（CBDT/sbix）着色，COLR 字形仍按轮廓绘制
	parsed := face.Source().Parsed()
	cf, ok := parsed.(text.ColorFont)
	if !ok || cf.GlyphType(parsed.GlyphIndex(0x1F604)) != text.GlyphTypeBitmap {
		t.Skip("system emoji font has no bitmap glyphs")
	}

	render := func(colorGlyphs bool) []byte {
		t.Helper()
		_, data, err := frame.Render(r, frame.Scene{
			Fill:        layout.Accent,
			Foreground:  layout.White,
			ColorGlyphs: colorGlyphs,
			HAlign:      layout.AlignCenter,
			VAlign:      layout.AlignMiddle,
			Run:         layout.TextRun{Text: "\U0001F604\U0001F4BB", Font: font, Color: layout.White},
			Border:      frame.DefaultBorder,
		})
		if err != nil {
			t.Fatalf("Render: %v", err)
		}
		return data
	}
	if bytes.Equal(render(true), render(false)) {
		t.Fatalf("colour glyph toggle had no effect on the frame")
	}
}
