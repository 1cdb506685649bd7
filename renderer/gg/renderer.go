// Package ggrenderer draws frames with github.com/gogpu/gg. It is the only
// backend whose text path can render colour emoji glyphs.
package ggrenderer

import (
	"bytes"
	"fmt"
	"image"
	"math"
	"strings"
	"sync"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"

	"github.com/ByLCY/glyphbox/fonts"
	"github.com/ByLCY/glyphbox/layout"
	"github.com/ByLCY/glyphbox/renderer"
)

// Name 为该后端在配置中的名称。
const Name = "gg"

// Renderer draws into a gg.Context whose pixel size follows canvas size × scale.
type Renderer struct {
	opts  renderer.Options
	scale float64

	width, height float64
	res           *renderer.Resources
	ready         bool

	dc *gg.Context

	fontMu  sync.Mutex
	sources map[string]*text.FontSource
	faces   map[faceKey]text.Face
	brushes map[layout.Color]gg.RGBA
}

type faceKey struct {
	src  string
	size float64
}

var (
	_ renderer.Backend             = (*Renderer)(nil)
	_ renderer.ColorGlyphSupporter = (*Renderer)(nil)
)

// NewRenderer creates a gg renderer; nothing is acquired until Setup.
func NewRenderer(opts renderer.Options) *Renderer {
	return &Renderer{
		opts:   opts,
		scale:  opts.Scale(),
		width:  opts.Width,
		height: opts.Height,
		res:    renderer.NewResources(Name),
	}
}

func (r *Renderer) Name() string { return Name }

func (r *Renderer) SupportsColorGlyphs() bool { return true }

// Setup 依次创建绘图上下文、字体源与画刷。
func (r *Renderer) Setup() error {
	if r.ready {
		return nil
	}
	if err := r.res.Acquire(renderer.StepSurface, "context", func() (func(), error) {
		if f := strings.ToLower(r.opts.Format); f != "" && f != "png" {
			return nil, fmt.Errorf("gg: 不支持的输出格式 %q", r.opts.Format)
		}
		w, h, err := r.pixelSize()
		if err != nil {
			return nil, err
		}
		r.dc = gg.NewContext(w, h)
		return func() {
			_ = r.dc.Close()
			r.dc = nil
		}, nil
	}); err != nil {
		return err
	}

	if err := r.res.Acquire(renderer.StepFactory, "font-sources", func() (func(), error) {
		r.fontMu.Lock()
		r.sources = map[string]*text.FontSource{}
		r.faces = map[faceKey]text.Face{}
		r.fontMu.Unlock()
		if _, err := r.face(r.opts.Font); err != nil {
			return nil, err
		}
		return r.closeSources, nil
	}); err != nil {
		return err
	}

	if err := r.res.Acquire(renderer.StepBrush, "brushes", func() (func(), error) {
		r.brushes = map[layout.Color]gg.RGBA{
			r.opts.Foreground: gg.FromColor(r.opts.Foreground),
			r.opts.Background: gg.FromColor(r.opts.Background),
		}
		return func() { r.brushes = nil }, nil
	}); err != nil {
		return err
	}

	r.ready = true
	return nil
}

// Shutdown 释放 Setup 中实际获取到的资源，可重复调用。
func (r *Renderer) Shutdown() {
	r.ready = false
	r.res.ReleaseAll()
}

// Resize 记录新尺寸并同步调整上下文的像素缓冲。
func (r *Renderer) Resize(width, height float64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %gx%g", renderer.ErrInvalidSize, width, height)
	}
	r.width, r.height = width, height
	if r.dc == nil {
		return nil
	}
	w, h, err := r.pixelSize()
	if err != nil {
		return err
	}
	return r.dc.Resize(w, h)
}

func (r *Renderer) CanvasSize() (float64, float64) { return r.width, r.height }

// Measure 实现 layout.Measurer；宽度与行高以像素测量后换算回 DIP。
func (r *Renderer) Measure(spec layout.FontSpec, s string, maxWidth, maxHeight float64) (layout.Extent, error) {
	if !r.ready {
		return layout.Extent{}, renderer.ErrNotReady
	}
	face, err := r.face(spec)
	if err != nil {
		return layout.Extent{}, err
	}
	lines := layout.Wrap(s, maxWidth, r.advance(face))
	return layout.MeasureLines(lines, face.Metrics().LineHeight()/r.scale), nil
}

func (r *Renderer) BeginFrame() error {
	if !r.ready || r.dc == nil {
		return renderer.ErrNotReady
	}
	r.dc.ClearPath()
	return nil
}

func (r *Renderer) Clear(c layout.Color) {
	if !r.ready || r.dc == nil {
		return
	}
	r.dc.ClearWithColor(r.brush(c))
}

// DrawText 先把文字栅格化到透明图层，再整体合成到上下文。
// colorGlyphs 为 true 时 emoji 使用彩色字形绘制。
func (r *Renderer) DrawText(run layout.TextRun, p layout.Placement, colorGlyphs bool) {
	if !r.ready || r.dc == nil {
		return
	}
	face, err := r.face(run.Font)
	if err != nil {
		layout.Logger().Warn("gg: font unavailable", "font", run.Font.Name, "err", err)
		return
	}
	w, h, err := r.pixelSize()
	if err != nil {
		return
	}
	layer := image.NewRGBA(image.Rect(0, 0, w, h))

	metrics := face.Metrics()
	lineHeight := metrics.LineHeight() / r.scale
	ascent := metrics.Ascent / r.scale
	drawn := false
	for i, line := range layout.Wrap(run.Text, p.Rect.Dx(), r.advance(face)) {
		if line.Content == "" {
			continue
		}
		x := layout.LineX(p.Rect.Left, p.Rect.Right, line.Width, p.HAlign) * r.scale
		baseline := (p.Rect.Top + float64(i)*lineHeight + ascent) * r.scale
		if colorGlyphs {
			text.DrawWithEmoji(layer, line.Content, face, x, baseline, run.Color)
		} else {
			text.Draw(layer, line.Content, face, x, baseline, run.Color)
		}
		drawn = true
	}
	if drawn {
		r.dc.DrawImage(gg.ImageBufFromImage(layer), 0, 0)
	}
}

// DrawRect 描边矩形，画笔以边线为中心。
func (r *Renderer) DrawRect(rect layout.Rect, stroke layout.Color, width float64) {
	if !r.ready || r.dc == nil || width <= 0 {
		return
	}
	r.dc.ClearPath()
	r.dc.SetColor(r.brush(stroke))
	r.dc.SetLineWidth(width * r.scale)
	r.dc.DrawRectangle(rect.Left*r.scale, rect.Top*r.scale, rect.Dx()*r.scale, rect.Dy()*r.scale)
	if err := r.dc.Stroke(); err != nil {
		layout.Logger().Warn("gg: stroke failed", "err", err)
	}
}

// EndFrame 将上下文编码为 PNG。
func (r *Renderer) EndFrame() ([]byte, error) {
	if !r.ready || r.dc == nil {
		return nil, renderer.ErrNotReady
	}
	var buf bytes.Buffer
	if err := r.dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("编码 PNG 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// Image 返回上下文当前内容。
func (r *Renderer) Image() image.Image {
	if r.dc == nil {
		return nil
	}
	return r.dc.Image()
}

func (r *Renderer) pixelSize() (int, int, error) {
	if r.width <= 0 || r.height <= 0 {
		return 0, 0, fmt.Errorf("%w: %gx%g", renderer.ErrInvalidSize, r.width, r.height)
	}
	return int(math.Ceil(r.width * r.scale)), int(math.Ceil(r.height * r.scale)), nil
}

// face 以像素字号缓存字体面。候选来源依次尝试；会话字体全部失败时直接报错，
// 其余字体回退到内置字体。
func (r *Renderer) face(spec layout.FontSpec) (text.Face, error) {
	size := spec.SizeDIP() * r.scale
	key := faceKey{src: spec.Key(), size: size}

	r.fontMu.Lock()
	defer r.fontMu.Unlock()
	if r.faces == nil {
		return nil, renderer.ErrNotReady
	}
	if f, ok := r.faces[key]; ok {
		return f, nil
	}

	var source *text.FontSource
	var err error
	for _, src := range fonts.Candidates(spec.Src, spec.Family, spec.Weight, spec.Style, true) {
		if source, err = r.source(src); err == nil {
			break
		}
		layout.Logger().Debug("gg: font candidate unavailable", "src", src, "err", err)
	}
	if err != nil {
		if len(r.sources) == 0 {
			return nil, err
		}
		layout.Logger().Debug("gg: falling back to builtin font", "font", spec.Name, "err", err)
		if source, err = r.source(fonts.Default); err != nil {
			return nil, err
		}
	}
	face := source.Face(size)
	r.faces[key] = face
	return face, nil
}

func (r *Renderer) source(src string) (*text.FontSource, error) {
	if s, ok := r.sources[src]; ok {
		return s, nil
	}
	data, err := fonts.Load(src, r.opts.BaseDir)
	if err != nil {
		return nil, err
	}
	s, err := text.NewFontSource(data)
	if err != nil {
		return nil, fmt.Errorf("解析字体 %s 失败: %w", src, err)
	}
	r.sources[src] = s
	return s, nil
}

func (r *Renderer) closeSources() {
	r.fontMu.Lock()
	defer r.fontMu.Unlock()
	for _, s := range r.sources {
		_ = s.Close()
	}
	r.sources = nil
	r.faces = nil
}

func (r *Renderer) brush(c layout.Color) gg.RGBA {
	if b, ok := r.brushes[c]; ok {
		return b
	}
	b := gg.FromColor(c)
	if r.brushes != nil {
		r.brushes[c] = b
	}
	return b
}

func (r *Renderer) advance(face text.Face) layout.AdvanceFunc {
	return func(s string) float64 { return face.Advance(s) / r.scale }
}
