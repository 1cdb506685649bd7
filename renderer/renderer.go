package renderer

import (
	"errors"

	"github.com/ByLCY/glyphbox/layout"
)

var (
	// ErrNotReady 表示后端尚未完成 Setup（或已 Shutdown）时被要求绘制。
	ErrNotReady = errors.New("renderer: backend not set up")
	// ErrInvalidSize 表示画布尺寸不为正。
	ErrInvalidSize = errors.New("renderer: invalid canvas size")
)

// Backend 是绘制后端的统一能力集合。
//
// 调用顺序为 Setup → (Resize | BeginFrame → Clear/DrawText/DrawRect → EndFrame)* → Shutdown。
// 绘制原语在 Setup 成功后不会失败；未就绪时它们什么都不做，由 BeginFrame 返回 ErrNotReady。
type Backend interface {
	layout.Measurer

	Name() string
	Setup() error
	Shutdown()
	Resize(width, height float64) error
	CanvasSize() (width, height float64)

	BeginFrame() error
	Clear(c layout.Color)
	DrawText(run layout.TextRun, p layout.Placement, colorGlyphs bool)
	DrawRect(r layout.Rect, stroke layout.Color, width float64)
	// EndFrame 结束当前帧并返回编码后的结果（PNG 或 PDF 字节）。
	EndFrame() ([]byte, error)
}

// ColorGlyphSupporter is implemented by backends that can tell whether the
// color-glyph toggle has any effect on them.
type ColorGlyphSupporter interface {
	SupportsColorGlyphs() bool
}

// Options 描述一个后端会话需要获取的资源。
type Options struct {
	Width  float64 // 初始画布宽度（DIP）
	Height float64 // 初始画布高度（DIP）
	DPI    float64 // <= 0 表示 96

	Font       layout.FontSpec // 会话字体，在 Setup 中预先加载
	Foreground layout.Color
	Background layout.Color

	Title    string   // 写入支持元信息的输出（PDF）
	Keywords []string // 同上
	Format   string   // png（默认）或 pdf，仅部分后端支持 pdf
	BaseDir  string   // 解析相对字体路径
}

// Scale returns the pixel-per-DIP factor of the options.
func (o Options) Scale() float64 { return layout.Scale(o.DPI) }
