package layout

// 该文件定义排版计算、渲染后端与调试 JSON 共用的基础类型，坐标单位统一为 DIP。

import (
	"fmt"
	"strconv"
	"strings"
)

// Rect 以 left/top/right/bottom 描述一个矩形（DIP）。
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// RectWH 以原点 (0,0) 和给定宽高构造矩形。
func RectWH(width, height float64) Rect {
	return Rect{Left: 0, Top: 0, Right: width, Bottom: height}
}

// Dx 返回矩形宽度。
func (r Rect) Dx() float64 { return r.Right - r.Left }

// Dy 返回矩形高度。
func (r Rect) Dy() float64 { return r.Bottom - r.Top }

// Valid reports whether the rectangle has a positive area.
func (r Rect) Valid() bool { return r.Dx() > 0 && r.Dy() > 0 }

// Inset 向内收缩 d，收缩后可能退化为空矩形。
func (r Rect) Inset(d float64) Rect {
	return Rect{Left: r.Left + d, Top: r.Top + d, Right: r.Right - d, Bottom: r.Bottom - d}
}

// HAlign 为水平对齐方式，由后端在完整宽度内自行处理。
type HAlign int

const (
	AlignLeading HAlign = iota
	AlignCenter
	AlignTrailing
)

func (a HAlign) String() string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignTrailing:
		return "trailing"
	default:
		return "leading"
	}
}

// MarshalText lets HAlign appear by name in debug JSON.
func (a HAlign) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// ParseHAlign 解析水平对齐：leading/left、center、trailing/right/end。
func ParseHAlign(v string) (HAlign, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "leading", "left", "start":
		return AlignLeading, nil
	case "center", "centre":
		return AlignCenter, nil
	case "trailing", "right", "end":
		return AlignTrailing, nil
	default:
		return AlignLeading, fmt.Errorf("未知的水平对齐方式 %q", v)
	}
}

// VAlign 为垂直对齐方式，由 Place 通过测量文本高度换算成几何位置。
type VAlign int

const (
	AlignTop VAlign = iota
	AlignMiddle
	AlignBottom
)

func (a VAlign) String() string {
	switch a {
	case AlignMiddle:
		return "middle"
	case AlignBottom:
		return "bottom"
	default:
		return "top"
	}
}

// MarshalText lets VAlign appear by name in debug JSON.
func (a VAlign) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// ParseVAlign 解析垂直对齐：top、middle/center、bottom。
func ParseVAlign(v string) (VAlign, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "top":
		return AlignTop, nil
	case "middle", "center", "vcenter":
		return AlignMiddle, nil
	case "bottom":
		return AlignBottom, nil
	default:
		return AlignTop, fmt.Errorf("未知的垂直对齐方式 %q", v)
	}
}

// Color 采用 0-255 的 RGBA 数值。
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// RGBA implements color.Color so a Color can be handed to image and canvas APIs directly.
func (c Color) RGBA() (r, g, b, a uint32) {
	// premultiply like color.NRGBA does
	r = uint32(c.R)
	r |= r << 8
	r *= uint32(c.A)
	r /= 0xff
	g = uint32(c.G)
	g |= g << 8
	g *= uint32(c.A)
	g /= 0xff
	b = uint32(c.B)
	b |= b << 8
	b *= uint32(c.A)
	b /= 0xff
	a = uint32(c.A)
	a |= a << 8
	return
}

// Hex 以 #rrggbb 或 #rrggbbaa（非不透明时）输出。
func (c Color) Hex() string {
	if c.A == 0xff {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

var (
	White  = Color{R: 255, G: 255, B: 255, A: 255}
	Black  = Color{R: 0, G: 0, B: 0, A: 255}
	Accent = Color{R: 255, G: 0, B: 0, A: 255}
)

var namedColors = map[string]Color{
	"white":  White,
	"black":  Black,
	"accent": Accent,
	"red":    Accent,
}

// ParseColor 支持 #rgb、#rrggbb、#rrggbbaa 以及 white/black/accent 等命名颜色。
func ParseColor(value string) (Color, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if c, ok := namedColors[v]; ok {
		return c, nil
	}
	if !strings.HasPrefix(v, "#") {
		return Color{}, fmt.Errorf("无法识别的颜色 %q", value)
	}
	hex := v[1:]
	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]}) + "ff"
	case 6:
		hex += "ff"
	case 8:
	default:
		return Color{}, fmt.Errorf("颜色 %q 长度不合法", value)
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("颜色 %q 不是十六进制: %w", value, err)
	}
	return Color{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: uint8(n)}, nil
}

// FontSpec 描述字体资源，src 可以是文件路径或 builtin:* 形式；Size 以 pt 为单位。
type FontSpec struct {
	Name   string  `json:"name"`
	Family string  `json:"family"`
	Src    string  `json:"src"`
	Size   float64 `json:"size"`
	Weight string  `json:"weight,omitempty"`
	Style  string  `json:"style,omitempty"`
}

// SizeDIP 返回以 DIP 计的字号。
func (f FontSpec) SizeDIP() float64 { return PointsToDIP(f.Size) }

// Key 用于后端缓存字体。
func (f FontSpec) Key() string {
	return fmt.Sprintf("%s|%s|%s|%s", f.Family, f.Src, f.Weight, f.Style)
}

// TextRun 是一段不可变的文本及其字体与颜色。
type TextRun struct {
	Text  string   `json:"text"`
	Font  FontSpec `json:"font"`
	Color Color    `json:"color"`
}

// Extent 为文本折行后的自然尺寸（DIP）。
type Extent struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// TextLine 表示折行后的一行文本内容及其宽度。
type TextLine struct {
	Content string  `json:"content"`
	Width   float64 `json:"width"`
}

// Placement 是 Place 的结果：绘制文本时应使用的矩形与水平对齐方式。
type Placement struct {
	Rect     Rect   `json:"rect"`
	HAlign   HAlign `json:"halign"`
	VAlign   VAlign `json:"valign"`
	Measured Extent `json:"measured"`
}

// Plan 记录单帧的全部几何信息，便于调试或可视化。
type Plan struct {
	Backend     string    `json:"backend"`
	Canvas      Extent    `json:"canvas"`
	Fill        string    `json:"fill"`
	ColorGlyphs bool      `json:"colorGlyphs"`
	Run         TextRun   `json:"run"`
	Bounds      Rect      `json:"bounds"`
	Placement   Placement `json:"placement"`
	Border      Rect      `json:"border"`
	BorderWidth float64   `json:"borderWidth"`
}
