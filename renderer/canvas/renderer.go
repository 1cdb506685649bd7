package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/glyphbox/fonts"
	"github.com/ByLCY/glyphbox/layout"
	"github.com/ByLCY/glyphbox/renderer"
)

// Name 为该后端在配置中的名称。
const Name = "canvas"

// canvas 的长度单位是 mm，字号是 pt。这里把 canvas 的一个长度单位当作一个 DIP 使用，
// 因此创建字体面时要把 DIP 字号换算成“让 em 等于该 DIP 数”的 pt 值。
const mmPerPt = 25.4 / 72

// Renderer draws frames via github.com/tdewolff/canvas.
type Renderer struct {
	opts  renderer.Options
	scale float64

	width, height float64
	res           *renderer.Resources
	ready         bool

	c   *canvas.Canvas
	ctx *canvas.Context

	fontMu         sync.Mutex
	fontFamilies   map[string]*fontFamilyEntry
	fallbackFamily *canvas.FontFamily

	brushes map[layout.Color]color.Color
}

var (
	_ renderer.Backend             = (*Renderer)(nil)
	_ renderer.ColorGlyphSupporter = (*Renderer)(nil)
)

type fontFamilyEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

// NewRenderer creates a canvas-based renderer; nothing is acquired until Setup.
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

// SupportsColorGlyphs 返回 false：文本以单色路径绘制。
func (r *Renderer) SupportsColorGlyphs() bool { return false }

// Setup 依次创建画布表面、字体族（资源工厂）与画刷颜色。
func (r *Renderer) Setup() error {
	if r.ready {
		return nil
	}
	if err := r.res.Acquire(renderer.StepSurface, "canvas", func() (func(), error) {
		if err := r.newSurface(); err != nil {
			return nil, err
		}
		return func() { r.c, r.ctx = nil, nil }, nil
	}); err != nil {
		return err
	}

	if err := r.res.Acquire(renderer.StepFactory, "font-families", func() (func(), error) {
		r.fontMu.Lock()
		r.fontFamilies = map[string]*fontFamilyEntry{}
		r.fontMu.Unlock()
		if _, _, err := r.ensureFontFamily(r.opts.Font); err != nil {
			return nil, err
		}
		return func() {
			r.fontMu.Lock()
			r.fontFamilies = nil
			r.fallbackFamily = nil
			r.fontMu.Unlock()
		}, nil
	}); err != nil {
		return err
	}

	if err := r.res.Acquire(renderer.StepBrush, "brushes", func() (func(), error) {
		r.brushes = map[layout.Color]color.Color{
			r.opts.Foreground: colorFromLayout(r.opts.Foreground),
			r.opts.Background: colorFromLayout(r.opts.Background),
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

// Resize 记录新尺寸，并按新尺寸重建渲染表面。
func (r *Renderer) Resize(width, height float64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %gx%g", renderer.ErrInvalidSize, width, height)
	}
	r.width, r.height = width, height
	if r.ready {
		return r.newSurface()
	}
	return nil
}

func (r *Renderer) CanvasSize() (float64, float64) { return r.width, r.height }

// Measure 实现 layout.Measurer，使用贪心换行后按行高累计。
func (r *Renderer) Measure(font layout.FontSpec, text string, maxWidth, maxHeight float64) (layout.Extent, error) {
	if !r.ready {
		return layout.Extent{}, renderer.ErrNotReady
	}
	face, err := r.fontFace(font, layout.Black)
	if err != nil {
		return layout.Extent{}, err
	}
	lines := layout.Wrap(text, maxWidth, face.TextWidth)
	return layout.MeasureLines(lines, face.Metrics().LineHeight), nil
}

func (r *Renderer) BeginFrame() error {
	if !r.ready {
		return renderer.ErrNotReady
	}
	return r.newSurface()
}

func (r *Renderer) Clear(c layout.Color) {
	if !r.ready || r.ctx == nil {
		return
	}
	r.ctx.SetFillColor(r.brush(c))
	r.ctx.SetStrokeColor(color.RGBA{0, 0, 0, 0})
	r.ctx.SetStrokeWidth(0)
	r.ctx.DrawPath(0, 0, canvas.Rectangle(r.width, r.height))
}

// DrawText 逐行绘制，水平对齐交给 canvas.TextAlign 在完整宽度内处理。
func (r *Renderer) DrawText(run layout.TextRun, p layout.Placement, colorGlyphs bool) {
	if !r.ready || r.ctx == nil {
		return
	}
	face, err := r.fontFace(run.Font, run.Color)
	if err != nil {
		layout.Logger().Warn("canvas: font unavailable", "font", run.Font.Name, "err", err)
		return
	}

	var textAlign canvas.TextAlign
	var anchorX float64
	switch p.HAlign {
	case layout.AlignCenter:
		textAlign = canvas.Center
		anchorX = p.Rect.Left + p.Rect.Dx()/2
	case layout.AlignTrailing:
		textAlign = canvas.Right
		anchorX = p.Rect.Right
	default:
		textAlign = canvas.Left
		anchorX = p.Rect.Left
	}

	metrics := face.Metrics()
	cursorY := p.Rect.Top
	for _, line := range layout.Wrap(run.Text, p.Rect.Dx(), face.TextWidth) {
		if line.Content != "" {
			// 基线位置：行顶部加上字体上升部
			r.ctx.DrawText(anchorX, cursorY+metrics.Ascent, canvas.NewTextLine(face, line.Content, textAlign))
		}
		cursorY += metrics.LineHeight
	}
}

// DrawRect 描边矩形，不填充。
func (r *Renderer) DrawRect(rect layout.Rect, stroke layout.Color, width float64) {
	if !r.ready || r.ctx == nil || width <= 0 {
		return
	}
	r.ctx.SetFillColor(color.RGBA{0, 0, 0, 0})
	r.ctx.SetStrokeColor(r.brush(stroke))
	r.ctx.SetStrokeWidth(width)
	r.ctx.DrawPath(rect.Left, rect.Top, canvas.Rectangle(rect.Dx(), rect.Dy()))
}

// EndFrame 将画布输出为 PNG（默认）或 PDF。
func (r *Renderer) EndFrame() ([]byte, error) {
	if !r.ready || r.c == nil {
		return nil, renderer.ErrNotReady
	}
	var buf bytes.Buffer
	switch strings.ToLower(r.opts.Format) {
	case "pdf":
		writer := pdf.New(&buf, r.width, r.height, nil)
		writer.SetInfo(r.opts.Title, "", strings.Join(r.opts.Keywords, ", "), "", "glyphbox")
		r.c.RenderTo(writer)
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("写入 PDF 失败: %w", err)
		}
	case "", "png":
		if err := renderers.PNG(canvas.DPMM(r.scale))(&buf, r.c); err != nil {
			return nil, fmt.Errorf("写入 PNG 失败: %w", err)
		}
	default:
		return nil, fmt.Errorf("canvas: 不支持的输出格式 %q", r.opts.Format)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) newSurface() error {
	if r.width <= 0 || r.height <= 0 {
		return fmt.Errorf("%w: %gx%g", renderer.ErrInvalidSize, r.width, r.height)
	}
	r.c = canvas.New(r.width, r.height)
	r.ctx = canvas.NewContext(r.c)
	r.ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点
	return nil
}

func (r *Renderer) fontFace(font layout.FontSpec, col layout.Color) (*canvas.FontFace, error) {
	family, style, err := r.ensureFontFamily(font)
	if err != nil {
		return nil, err
	}
	return family.Face(font.SizeDIP()/mmPerPt, r.brush(col), style, canvas.FontNormal), nil
}

func (r *Renderer) brush(c layout.Color) color.Color {
	if b, ok := r.brushes[c]; ok {
		return b
	}
	b := colorFromLayout(c)
	if r.brushes != nil {
		r.brushes[c] = b
	}
	return b
}

func (r *Renderer) ensureFontFamily(font layout.FontSpec) (*canvas.FontFamily, canvas.FontStyle, error) {
	key := font.Key()
	r.fontMu.Lock()
	defer r.fontMu.Unlock()
	if r.fontFamilies == nil {
		return nil, canvas.FontRegular, renderer.ErrNotReady
	}

	if entry, ok := r.fontFamilies[key]; ok {
		return entry.family, entry.style, nil
	}

	style := parseFontStyle(font.Weight, font.Style)
	familyName := font.Family
	if familyName == "" {
		familyName = font.Name
	}
	if familyName == "" {
		familyName = "Body"
	}
	family := canvas.NewFontFamily(familyName)

	var err error
	for _, src := range fonts.Candidates(font.Src, font.Family, font.Weight, font.Style, false) {
		var data []byte
		if data, err = fonts.Load(src, r.opts.BaseDir); err == nil {
			if err = family.LoadFont(data, 0, style); err == nil {
				break
			}
		}
	}
	if err != nil {
		// 会话字体（第一个加载的字体）失败必须报错；之后的字体失败时回退到内置字体
		if len(r.fontFamilies) == 0 {
			return nil, canvas.FontRegular, err
		}
		fallback, fbErr := r.fallback()
		if fbErr != nil {
			return nil, canvas.FontRegular, err
		}
		layout.Logger().Debug("canvas: falling back to builtin font", "src", font.Src, "err", err)
		r.fontFamilies[key] = &fontFamilyEntry{family: fallback, style: canvas.FontRegular}
		return fallback, canvas.FontRegular, nil
	}

	r.fontFamilies[key] = &fontFamilyEntry{family: family, style: style}
	return family, style, nil
}

func (r *Renderer) fallback() (*canvas.FontFamily, error) {
	if r.fallbackFamily != nil {
		return r.fallbackFamily, nil
	}
	data, err := fonts.Load(fonts.Default, "")
	if err != nil {
		return nil, err
	}
	family := canvas.NewFontFamily("glyphbox-fallback")
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, err
	}
	r.fallbackFamily = family
	return family, nil
}

func parseFontStyle(weight, style string) canvas.FontStyle {
	w := strings.ToLower(weight)
	result := canvas.FontRegular
	switch {
	case strings.Contains(w, "black"):
		result = canvas.FontBlack
	case strings.Contains(w, "extrabold"):
		result = canvas.FontExtraBold
	case strings.Contains(w, "semibold"), strings.Contains(w, "demibold"):
		result = canvas.FontSemiBold
	case strings.Contains(w, "bold"):
		result = canvas.FontBold
	case strings.Contains(w, "medium"):
		result = canvas.FontMedium
	case strings.Contains(w, "light"):
		result = canvas.FontLight
	}
	s := strings.ToLower(style)
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		result |= canvas.FontItalic
	}
	return result
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, float64(c.A)/255.0)
}
