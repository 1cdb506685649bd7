// Package frame paints one frame of the demo: background, aligned text and an
// inset border, through any renderer.Backend.
package frame

import (
	"fmt"

	"github.com/ByLCY/glyphbox/layout"
	"github.com/ByLCY/glyphbox/renderer"
)

// Border 描述围绕画布的描边框。
type Border struct {
	Width float64 `json:"width"` // 描边宽度（DIP）
	Inset float64 `json:"inset"` // 距画布各边的距离（DIP）
}

// DefaultBorder 为 3 DIP 宽、内缩 10 DIP 的边框。
var DefaultBorder = Border{Width: 3, Inset: 10}

// Scene 是单帧需要的全部输入。
type Scene struct {
	Fill        layout.Color
	Foreground  layout.Color
	ColorGlyphs bool
	HAlign      layout.HAlign
	VAlign      layout.VAlign
	Run         layout.TextRun
	Border      Border
}

// Render 绘制一帧并返回该帧的排版记录与编码结果。
// 绘制原语本身不会失败；错误只来自 BeginFrame、布局校验与 EndFrame。
func Render(b renderer.Backend, scene Scene) (*layout.Plan, []byte, error) {
	if err := b.BeginFrame(); err != nil {
		return nil, nil, err
	}
	w, h := b.CanvasSize()
	canvas := layout.RectWH(w, h)

	b.Clear(scene.Fill)

	run := scene.Run
	if run.Color == (layout.Color{}) {
		run.Color = scene.Foreground
	}
	placement, err := layout.Place(b, run, canvas, scene.HAlign, scene.VAlign)
	if err != nil {
		// 关闭已开始的帧，结果丢弃
		_, _ = b.EndFrame()
		return nil, nil, fmt.Errorf("排版失败: %w", err)
	}
	if scene.ColorGlyphs && !supportsColorGlyphs(b) {
		layout.Logger().Debug("frame: colour glyphs requested but unsupported", "backend", b.Name())
	}
	b.DrawText(run, placement, scene.ColorGlyphs)

	border := canvas.Inset(scene.Border.Inset)
	b.DrawRect(border, scene.Foreground, scene.Border.Width)

	data, err := b.EndFrame()
	if err != nil {
		return nil, nil, err
	}
	return &layout.Plan{
		Backend:     b.Name(),
		Canvas:      layout.Extent{Width: w, Height: h},
		Fill:        scene.Fill.Hex(),
		ColorGlyphs: scene.ColorGlyphs,
		Run:         run,
		Bounds:      canvas,
		Placement:   placement,
		Border:      border,
		BorderWidth: scene.Border.Width,
	}, data, nil
}

func supportsColorGlyphs(b renderer.Backend) bool {
	s, ok := b.(renderer.ColorGlyphSupporter)
	return ok && s.SupportsColorGlyphs()
}
