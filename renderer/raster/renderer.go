// Package rasterrenderer is the legacy raster text backend: glyphs are drawn
// with golang.org/x/image/font onto an *image.RGBA that is reallocated for every
// frame from the stored canvas size, and frames are encoded as PNG.
package rasterrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"math"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/ByLCY/glyphbox/fonts"
	"github.com/ByLCY/glyphbox/layout"
	"github.com/ByLCY/glyphbox/renderer"
)

// Name 为该后端在配置中的名称。
const Name = "raster"

// Renderer draws frames with x/image font.Drawer.
type Renderer struct {
	opts  renderer.Options
	scale float64

	width, height float64
	res           *renderer.Resources
	ready         bool

	img *image.RGBA

	fontMu  sync.Mutex
	fonts   map[string]*opentype.Font
	faces   map[faceKey]font.Face
	brushes map[layout.Color]*image.Uniform
}

type faceKey struct {
	font string
	size float64
}

var (
	_ renderer.Backend             = (*Renderer)(nil)
	_ renderer.ColorGlyphSupporter = (*Renderer)(nil)
)

// NewRenderer creates a raster renderer; nothing is acquired until Setup.
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

// SupportsColorGlyphs 总是返回 false：font.Drawer 只绘制单色轮廓。
func (r *Renderer) SupportsColorGlyphs() bool { return false }

// Setup 依次获取表面、字体工厂与画刷。
func (r *Renderer) Setup() error {
	if r.ready {
		return nil
	}
	if err := r.res.Acquire(renderer.StepSurface, "surface", func() (func(), error) {
		img, err := r.newSurface()
		if err != nil {
			return nil, err
		}
		r.img = img
		return func() { r.img = nil }, nil
	}); err != nil {
		return err
	}

	if err := r.res.Acquire(renderer.StepFactory, "font-factory", func() (func(), error) {
		r.fontMu.Lock()
		r.fonts = map[string]*opentype.Font{}
		r.faces = map[faceKey]font.Face{}
		r.fontMu.Unlock()
		if _, err := r.face(r.opts.Font); err != nil {
			return nil, err
		}
		return r.closeFaces, nil
	}); err != nil {
		return err
	}

	if err := r.res.Acquire(renderer.StepBrush, "brushes", func() (func(), error) {
		r.brushes = map[layout.Color]*image.Uniform{
			r.opts.Foreground: image.NewUniform(r.opts.Foreground),
			r.opts.Background: image.NewUniform(r.opts.Background),
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

// Resize 只记录尺寸；表面在每一帧开始时按记录的尺寸重新分配。
func (r *Renderer) Resize(width, height float64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %gx%g", renderer.ErrInvalidSize, width, height)
	}
	r.width, r.height = width, height
	return nil
}

func (r *Renderer) CanvasSize() (float64, float64) { return r.width, r.height }

// Measure 实现 layout.Measurer。
func (r *Renderer) Measure(spec layout.FontSpec, text string, maxWidth, maxHeight float64) (layout.Extent, error) {
	if !r.ready {
		return layout.Extent{}, renderer.ErrNotReady
	}
	face, err := r.face(spec)
	if err != nil {
		return layout.Extent{}, err
	}
	lines := layout.Wrap(text, maxWidth, r.advance(face))
	return layout.MeasureLines(lines, r.lineHeight(face)), nil
}

func (r *Renderer) BeginFrame() error {
	if !r.ready {
		return renderer.ErrNotReady
	}
	img, err := r.newSurface()
	if err != nil {
		return err
	}
	r.img = img
	return nil
}

func (r *Renderer) Clear(c layout.Color) {
	if !r.ready || r.img == nil {
		return
	}
	draw.Draw(r.img, r.img.Bounds(), r.brush(c), image.Point{}, draw.Src)
}

// DrawText 在 p.Rect 内逐行绘制，水平对齐在完整宽度内处理。colorGlyphs 对该后端无效。
func (r *Renderer) DrawText(run layout.TextRun, p layout.Placement, colorGlyphs bool) {
	if !r.ready || r.img == nil {
		return
	}
	face, err := r.face(run.Font)
	if err != nil {
		layout.Logger().Warn("raster: font unavailable", "font", run.Font.Name, "err", err)
		return
	}
	advance := r.advance(face)
	lineHeight := r.lineHeight(face)
	ascent := float64(face.Metrics().Ascent) / 64 / r.scale

	d := &font.Drawer{
		Dst:  r.img,
		Src:  r.brush(run.Color),
		Face: face,
	}
	for i, line := range layout.Wrap(run.Text, p.Rect.Dx(), advance) {
		if line.Content == "" {
			continue
		}
		x := layout.LineX(p.Rect.Left, p.Rect.Right, line.Width, p.HAlign)
		baseline := p.Rect.Top + float64(i)*lineHeight + ascent
		d.Dot = fixed.Point26_6{X: r.fixed(x), Y: r.fixed(baseline)}
		d.DrawString(line.Content)
	}
}

// DrawRect 以 width 宽的画笔描边矩形，画笔以边线为中心。
func (r *Renderer) DrawRect(rect layout.Rect, stroke layout.Color, width float64) {
	if !r.ready || r.img == nil || width <= 0 {
		return
	}
	half := width / 2
	outer := r.pixelRect(rect.Inset(-half))
	inner := r.pixelRect(rect.Inset(half))
	src := r.brush(stroke)
	bands := []image.Rectangle{
		image.Rect(outer.Min.X, outer.Min.Y, outer.Max.X, inner.Min.Y), // top
		image.Rect(outer.Min.X, inner.Max.Y, outer.Max.X, outer.Max.Y), // bottom
		image.Rect(outer.Min.X, inner.Min.Y, inner.Min.X, inner.Max.Y), // left
		image.Rect(inner.Max.X, inner.Min.Y, outer.Max.X, inner.Max.Y), // right
	}
	for _, b := range bands {
		if b.Empty() {
			continue
		}
		draw.Draw(r.img, b, src, image.Point{}, draw.Over)
	}
}

// EndFrame 将当前表面编码为 PNG。
func (r *Renderer) EndFrame() ([]byte, error) {
	if !r.ready || r.img == nil {
		return nil, renderer.ErrNotReady
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, r.img); err != nil {
		return nil, fmt.Errorf("编码 PNG 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// Image 返回最近一帧的表面，供测试与调用方读取像素。
func (r *Renderer) Image() *image.RGBA { return r.img }

func (r *Renderer) newSurface() (*image.RGBA, error) {
	if r.width <= 0 || r.height <= 0 {
		return nil, fmt.Errorf("%w: %gx%g", renderer.ErrInvalidSize, r.width, r.height)
	}
	w := int(math.Ceil(r.width * r.scale))
	h := int(math.Ceil(r.height * r.scale))
	return image.NewRGBA(image.Rect(0, 0, w, h)), nil
}

func (r *Renderer) face(spec layout.FontSpec) (font.Face, error) {
	key := faceKey{font: spec.Key(), size: spec.Size}

	r.fontMu.Lock()
	defer r.fontMu.Unlock()
	if r.faces == nil {
		return nil, renderer.ErrNotReady
	}
	if f, ok := r.faces[key]; ok {
		return f, nil
	}

	// 单色后端不选用彩色 emoji 字体族
	var parsed *opentype.Font
	var err error
	for _, src := range fonts.Candidates(spec.Src, spec.Family, spec.Weight, spec.Style, false) {
		if parsed, err = r.parse(src); err == nil {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    spec.Size,
		DPI:     layout.DIPPerInch * r.scale,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("创建字体面 %s 失败: %w", spec.Name, err)
	}
	r.faces[key] = face
	return face, nil
}

func (r *Renderer) parse(src string) (*opentype.Font, error) {
	if parsed, ok := r.fonts[src]; ok {
		return parsed, nil
	}
	data, err := fonts.Load(src, r.opts.BaseDir)
	if err != nil {
		return nil, err
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("解析字体 %s 失败: %w", src, err)
	}
	r.fonts[src] = parsed
	return parsed, nil
}

func (r *Renderer) closeFaces() {
	r.fontMu.Lock()
	defer r.fontMu.Unlock()
	for _, f := range r.faces {
		_ = f.Close()
	}
	r.faces = nil
	r.fonts = nil
}

func (r *Renderer) brush(c layout.Color) *image.Uniform {
	if u, ok := r.brushes[c]; ok {
		return u
	}
	u := image.NewUniform(c)
	if r.brushes != nil {
		r.brushes[c] = u
	}
	return u
}

// advance 返回以 DIP 计的前进宽度。
func (r *Renderer) advance(face font.Face) layout.AdvanceFunc {
	return func(s string) float64 {
		return float64(font.MeasureString(face, s)) / 64 / r.scale
	}
}

func (r *Renderer) lineHeight(face font.Face) float64 {
	return float64(face.Metrics().Height) / 64 / r.scale
}

func (r *Renderer) fixed(dip float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(dip * r.scale * 64))
}

func (r *Renderer) pixelRect(rect layout.Rect) image.Rectangle {
	return image.Rect(
		int(math.Round(rect.Left*r.scale)),
		int(math.Round(rect.Top*r.scale)),
		int(math.Round(rect.Right*r.scale)),
		int(math.Round(rect.Bottom*r.scale)),
	)
}
