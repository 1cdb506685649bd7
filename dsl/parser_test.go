package dsl_test

import (
	"strings"
	"testing"

	"github.com/ByLCY/glyphbox/dsl"
)

const sampleDSL = `
// 默认演示场景
scene Emoji v1 {
  meta {
    title: "Win32 Emoji Rendering Demo"
    keywords: [
      "emoji"
      "demo"
    ]
  }

  window 600 480 dpi 96

  resources {
    font Emoji {
      src: "builtin:goregular"
      size: 80pt
    }

    color Ink = #FFFFFF
  }

  frame {
    fill: accent
    color-glyphs: true
    halign: center
    valign: middle
    foreground: Ink
    border: 3
    inset: 10px
    text Emoji { "😄♥💻 ${user.name}" }
  }
}
`

func TestParseDocument(t *testing.T) {
	doc, err := dsl.ParseString(sampleDSL)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if doc.Name != "Emoji" {
		t.Fatalf("expected scene name Emoji, got %s", doc.Name)
	}
	if doc.Version != "v1" {
		t.Fatalf("expected version v1, got %s", doc.Version)
	}
	if len(doc.Sections) != 4 {
		t.Fatalf("expected 4 sections, got %d", len(doc.Sections))
	}
	kinds := make([]string, 0, len(doc.Sections))
	for _, s := range doc.Sections {
		kinds = append(kinds, s.Kind())
	}
	if got := strings.Join(kinds, ","); got != "meta,window,resources,frame" {
		t.Fatalf("unexpected section order %s", got)
	}

	meta := doc.Sections[0].Meta
	title := meta.Block.Statements[0].Assignment
	if title == nil || title.Key != "title" {
		t.Fatalf("expected title assignment, got %+v", meta.Block.Statements[0])
	}
	if got := title.Value.Text(); got != "Win32 Emoji Rendering Demo" {
		t.Fatalf("unexpected title %q", got)
	}
	keywords := meta.Block.Statements[1].Assignment
	if keywords == nil || keywords.Value.Array == nil || len(keywords.Value.Array.Values) != 2 {
		t.Fatalf("expected keywords array with 2 values, got %+v", keywords)
	}

	window := doc.Sections[1].Window
	if window == nil || len(window.Params) != 4 {
		t.Fatalf("expected 4 window params, got %+v", window)
	}
	if window.Params[0].Value != "600" || window.Params[2].Value != "dpi" || window.Params[3].Type != "Number" {
		t.Fatalf("unexpected window params: %+v", window.Params)
	}

	res := doc.Sections[2].Resources
	font := res.Block.Statements[0].Command
	if font == nil || font.Name != "font" || font.Args[0].Value != "Emoji" {
		t.Fatalf("expected font command, got %+v", res.Block.Statements[0])
	}
	size := font.Block.Statements[1].Assignment
	if size == nil || size.Value.Number == nil || *size.Value.Number != "80pt" {
		t.Fatalf("expected size 80pt, got %+v", size)
	}
	color := res.Block.Statements[1].Command
	if color == nil || color.Name != "color" || len(color.Args) != 3 || color.Args[2].Type != "Color" {
		t.Fatalf("unexpected color command: %+v", color)
	}

	frame := doc.Sections[3].Frame
	if len(frame.Block.Statements) != 8 {
		t.Fatalf("expected 8 frame statements, got %d", len(frame.Block.Statements))
	}
	glyphs := frame.Block.Statements[1].Assignment
	if glyphs == nil || glyphs.Key != "color-glyphs" || glyphs.Value.Text() != "true" {
		t.Fatalf("unexpected color-glyphs assignment: %+v", glyphs)
	}
	inset := frame.Block.Statements[6].Assignment
	if inset == nil || inset.Value.Text() != "10px" {
		t.Fatalf("unexpected inset: %+v", inset)
	}

	textCmd := frame.Block.Statements[7].Command
	if textCmd == nil || textCmd.Name != "text" || textCmd.Args[0].Value != "Emoji" {
		t.Fatalf("expected text command, got %+v", frame.Block.Statements[7])
	}
	if textCmd.Block == nil || textCmd.Block.Statements[0].Text == nil {
		t.Fatalf("text command missing literal content")
	}
	if got := string(textCmd.Block.Statements[0].Text.Value); got != "😄♥💻 ${user.name}" {
		t.Fatalf("unexpected text literal %q", got)
	}
}

func TestParseRejectsUnknownRoot(t *testing.T) {
	if _, err := dsl.ParseString("doc Papyrus v1 { }"); err == nil {
		t.Fatalf("expected an error for a non-scene root")
	}
}

func TestParseMinimalScene(t *testing.T) {
	doc, err := dsl.ParseString("scene Empty v1 {\n}\n")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(doc.Sections) != 0 {
		t.Fatalf("expected no sections, got %d", len(doc.Sections))
	}
}
