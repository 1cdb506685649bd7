package config

import (
	"errors"
	"reflect"
	"testing"

	"github.com/ByLCY/glyphbox/binding"
	"github.com/ByLCY/glyphbox/dsl"
	"github.com/ByLCY/glyphbox/layout"
)

const scene = `
scene Emoji v1 {
  meta {
    title: "Demo"
    backend: canvas
  }
  window 640 400 dpi 144
  frame {
    fill: Paper
    foreground: #000
    color-glyphs: off
    halign: trailing
    valign: bottom
    border: 2
    inset: 0.25in
    text Mono { "hi ${user}" }
  }
  resources {
    font Mono {
      src: "builtin:gomono"
      size: 24px
      weight: bold
    }
    color Paper = #FFFFEE
  }
}
`

func TestDefaultMatchesDemo(t *testing.T) {
	cfg := Default()
	if cfg.Width != 600 || cfg.Height != 480 || cfg.Font.Size != 80 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Fill != layout.Accent || cfg.Foreground != layout.White || !cfg.ColorGlyphs {
		t.Fatalf("unexpected default colours %+v", cfg)
	}
	if cfg.HAlign != layout.AlignCenter || cfg.VAlign != layout.AlignMiddle {
		t.Fatalf("unexpected default alignment %+v", cfg)
	}
	if cfg.Border.Width != 3 || cfg.Border.Inset != 10 {
		t.Fatalf("unexpected default border %+v", cfg.Border)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must be valid: %v", err)
	}
}

func TestFromDocument(t *testing.T) {
	doc, err := dsl.ParseString(scene)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	data, _ := binding.Decode(`{"user":"Ada"}`)
	cfg, err := FromDocument(doc, data)
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}
	if cfg.Title != "Demo" || cfg.Backend != "canvas" {
		t.Fatalf("meta not applied: %+v", cfg)
	}
	if cfg.Width != 640 || cfg.Height != 400 || cfg.DPI != 144 {
		t.Fatalf("window not applied: %+v", cfg)
	}
	if cfg.Fill != (layout.Color{R: 0xff, G: 0xff, B: 0xee, A: 0xff}) || cfg.Foreground != layout.Black {
		t.Fatalf("colours not resolved: fill=%v fg=%v", cfg.Fill, cfg.Foreground)
	}
	if cfg.ColorGlyphs || cfg.HAlign != layout.AlignTrailing || cfg.VAlign != layout.AlignBottom {
		t.Fatalf("frame flags not applied: %+v", cfg)
	}
	if cfg.Border.Width != 2 || cfg.Border.Inset != 24 {
		t.Fatalf("border not applied: %+v", cfg.Border)
	}
	if cfg.Text != "hi Ada" {
		t.Fatalf("text not interpolated: %q", cfg.Text)
	}
	want := layout.FontSpec{Name: "Mono", Family: "Mono", Src: "builtin:gomono", Size: 18, Weight: "bold"}
	if !reflect.DeepEqual(cfg.Font, want) {
		t.Fatalf("font = %+v, want %+v", cfg.Font, want)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestFromDocumentErrors(t *testing.T) {
	cases := map[string]string{
		"unknown font":     "scene S v1 {\n frame {\n text Nope { \"x\" }\n }\n}\n",
		"unknown property": "scene S v1 {\n frame {\n blink: true\n }\n}\n",
		"bad colour":       "scene S v1 {\n frame {\n fill: mauve\n }\n}\n",
		"half window":      "scene S v1 {\n window 600\n}\n",
		"array halign":     "scene S v1 {\n frame {\n halign: [trailing]\n }\n}\n",
		"array valign":     "scene S v1 {\n frame {\n valign: [bottom]\n }\n}\n",
		"object fill":      "scene S v1 {\n frame {\n fill: { r: 1 }\n }\n}\n",
		"empty halign":     "scene S v1 {\n frame {\n halign: \"\"\n }\n}\n",
		"array font size":  "scene S v1 {\n resources {\n font F {\n size: [12pt]\n }\n }\n}\n",
		"object title":     "scene S v1 {\n meta {\n title: { a: 1 }\n }\n}\n",
		"bad border key":   "scene S v1 {\n frame {\n border: { depth: 3 }\n }\n}\n",
	}
	for name, src := range cases {
		doc, err := dsl.ParseString(src)
		if err != nil {
			t.Fatalf("%s: parse: %v", name, err)
		}
		if _, err := FromDocument(doc, nil); err == nil {
			t.Fatalf("%s: expected an error", name)
		}
	}
}

func TestValidate(t *testing.T) {
	mutate := []func(*Config){
		func(c *Config) { c.Width = 0 },
		func(c *Config) { c.DPI = -1 },
		func(c *Config) { c.Font.Size = 0 },
		func(c *Config) { c.Border.Width = -1 },
		func(c *Config) { c.Backend = "" },
		func(c *Config) { c.Format = "gif" },
	}
	for i, m := range mutate {
		cfg := Default()
		m(&cfg)
		if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
			t.Fatalf("case %d: expected ErrInvalid, got %v", i, err)
		}
	}
}

func TestParseSizes(t *testing.T) {
	got, err := ParseSizes("800x600, 320X240")
	if err != nil {
		t.Fatalf("ParseSizes: %v", err)
	}
	want := []Size{{800, 600}, {320, 240}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for _, bad := range []string{"800", "0x10", "ax10"} {
		if _, err := ParseSizes(bad); err == nil {
			t.Fatalf("expected an error for %q", bad)
		}
	}
}

func TestSceneUsesForeground(t *testing.T) {
	cfg := Default()
	s := cfg.Scene()
	if s.Run.Color != layout.White || s.Run.Text != DefaultText || s.Border != cfg.Border {
		t.Fatalf("unexpected scene %+v", s)
	}
	opts := cfg.RendererOptions()
	if opts.Background != layout.Accent || opts.Font != cfg.Font {
		t.Fatalf("unexpected options %+v", opts)
	}
}

func TestStructuredBorderAndKeywords(t *testing.T) {
	src := "scene S v1 {\n meta {\n keywords: [\"emoji\", \"demo\"]\n }\n frame {\n border: { width: 4, inset: 12px }\n }\n}\n"
	doc, err := dsl.ParseString(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	cfg, err := FromDocument(doc, nil)
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}
	if cfg.Border.Width != 4 || cfg.Border.Inset != 12 {
		t.Fatalf("structured border not applied: %+v", cfg.Border)
	}
	if !reflect.DeepEqual(cfg.Keywords, []string{"emoji", "demo"}) {
		t.Fatalf("keywords = %v", cfg.Keywords)
	}
	if got := cfg.RendererOptions().Keywords; !reflect.DeepEqual(got, cfg.Keywords) {
		t.Fatalf("keywords not passed to the renderer: %v", got)
	}
}
