// Package config resolves a parsed scene file (plus command-line overrides)
// into the explicit settings one demo session runs with.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ByLCY/glyphbox/binding"
	"github.com/ByLCY/glyphbox/dsl"
	"github.com/ByLCY/glyphbox/fonts"
	"github.com/ByLCY/glyphbox/frame"
	"github.com/ByLCY/glyphbox/layout"
	"github.com/ByLCY/glyphbox/renderer"
)

// ErrInvalid 表示配置无法启动一个会话。
var ErrInvalid = errors.New("config: invalid configuration")

// DefaultText 是演示字符串：笑脸、红心、电脑三个字形加 ASCII 数字。
const DefaultText = "\U0001F604♥\U0001F4BB 123"

// Config 是一次会话的全部设置，取代编译期开关。
type Config struct {
	Title    string   `json:"title"`
	Keywords []string `json:"keywords,omitempty"` // 写入 PDF 元信息
	Width    float64  `json:"width"`              // DIP
	Height   float64  `json:"height"`             // DIP
	DPI      float64  `json:"dpi"`

	Fill        layout.Color    `json:"fill"`
	Foreground  layout.Color    `json:"foreground"`
	ColorGlyphs bool            `json:"colorGlyphs"`
	HAlign      layout.HAlign   `json:"halign"`
	VAlign      layout.VAlign   `json:"valign"`
	Border      frame.Border    `json:"border"`
	Text        string          `json:"text"`
	Font        layout.FontSpec `json:"font"`

	Backend string `json:"backend"`
	Format  string `json:"format"`
	BaseDir string `json:"-"`
}

// Default 返回演示程序的原始常量：600×480 画布、80pt 字号、强调色背景、
// 开启彩色字形、水平居中、垂直居中、白色前景。
func Default() Config {
	return Config{
		Title:       "Win32 Emoji Rendering Demo",
		Width:       600,
		Height:      480,
		DPI:         layout.DIPPerInch,
		Fill:        layout.Accent,
		Foreground:  layout.White,
		ColorGlyphs: true,
		HAlign:      layout.AlignCenter,
		VAlign:      layout.AlignMiddle,
		Border:      frame.DefaultBorder,
		Text:        DefaultText,
		Font: layout.FontSpec{
			Name:   "Emoji",
			Family: "Segoe UI Emoji",
			Src:    fonts.Default,
			Size:   80,
		},
		Backend: "gg",
		Format:  "png",
	}
}

// Validate 检查会话能否启动。
func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: 画布尺寸 %gx%g 必须为正", ErrInvalid, c.Width, c.Height)
	case c.DPI < 0:
		return fmt.Errorf("%w: dpi %g 不能为负", ErrInvalid, c.DPI)
	case c.Font.Size <= 0:
		return fmt.Errorf("%w: 字号 %g 必须为正", ErrInvalid, c.Font.Size)
	case c.Border.Width < 0 || c.Border.Inset < 0:
		return fmt.Errorf("%w: 边框 %+v 不能为负", ErrInvalid, c.Border)
	case c.Backend == "":
		return fmt.Errorf("%w: 未指定后端", ErrInvalid)
	}
	switch strings.ToLower(c.Format) {
	case "", "png", "pdf":
	default:
		return fmt.Errorf("%w: 不支持的输出格式 %q", ErrInvalid, c.Format)
	}
	return nil
}

// RendererOptions 返回后端在 Setup 中需要获取的资源描述。
func (c Config) RendererOptions() renderer.Options {
	return renderer.Options{
		Width:      c.Width,
		Height:     c.Height,
		DPI:        c.DPI,
		Font:       c.Font,
		Foreground: c.Foreground,
		Background: c.Fill,
		Title:      c.Title,
		Keywords:   c.Keywords,
		Format:     c.Format,
		BaseDir:    c.BaseDir,
	}
}

// Scene 返回每一帧绘制的内容。
func (c Config) Scene() frame.Scene {
	return frame.Scene{
		Fill:        c.Fill,
		Foreground:  c.Foreground,
		ColorGlyphs: c.ColorGlyphs,
		HAlign:      c.HAlign,
		VAlign:      c.VAlign,
		Run:         layout.TextRun{Text: c.Text, Font: c.Font, Color: c.Foreground},
		Border:      c.Border,
	}
}

// Size 为 -resize 参数中的一项。
type Size struct {
	Width, Height float64
}

// ParseSizes 解析 "800x600,320x240" 形式的尺寸列表。
func ParseSizes(value string) ([]Size, error) {
	var sizes []Size
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		w, h, ok := strings.Cut(strings.ToLower(item), "x")
		if !ok {
			return nil, fmt.Errorf("尺寸 %q 应写为 WxH", item)
		}
		width, err := strconv.ParseFloat(strings.TrimSpace(w), 64)
		if err != nil {
			return nil, fmt.Errorf("尺寸 %q 宽度无效: %w", item, err)
		}
		height, err := strconv.ParseFloat(strings.TrimSpace(h), 64)
		if err != nil {
			return nil, fmt.Errorf("尺寸 %q 高度无效: %w", item, err)
		}
		if width <= 0 || height <= 0 {
			return nil, fmt.Errorf("尺寸 %q 必须为正", item)
		}
		sizes = append(sizes, Size{Width: width, Height: height})
	}
	return sizes, nil
}

// ParseBool 接受 true/false/on/off/yes/no/1/0。
func ParseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "on", "yes", "1":
		return true, nil
	case "false", "off", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("无法识别的布尔值 %q", value)
}

// FromDocument 在 Default 的基础上应用场景文件，data 用于填充 ${...} 占位符。
func FromDocument(doc *dsl.Document, data any) (Config, error) {
	cfg := Default()
	if doc == nil {
		return cfg, nil
	}
	r := &resolver{
		cfg:    &cfg,
		fonts:  map[string]layout.FontSpec{},
		colors: map[string]layout.Color{},
	}
	// 资源可能写在 frame 之后，先收集资源再应用其余部分
	for _, s := range doc.Sections {
		if s.Resources != nil {
			if err := r.resources(s.Resources.Block); err != nil {
				return cfg, err
			}
		}
	}
	for _, s := range doc.Sections {
		var err error
		switch {
		case s.Meta != nil:
			err = r.meta(s.Meta.Block)
		case s.Window != nil:
			err = r.window(s.Window.Params)
		case s.Frame != nil:
			err = r.frame(s.Frame.Block, data)
		}
		if err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

type resolver struct {
	cfg    *Config
	fonts  map[string]layout.FontSpec
	colors map[string]layout.Color
	first  string
}

func (r *resolver) meta(b *dsl.Block) error {
	for _, st := range statements(b) {
		a := st.Assignment
		if a == nil {
			continue
		}
		if a.Key == "keywords" {
			keywords, err := list(a.Key, a.Value)
			if err != nil {
				return err
			}
			r.cfg.Keywords = keywords
			continue
		}
		v, err := scalar(a.Key, a.Value)
		if err != nil {
			return err
		}
		switch a.Key {
		case "title":
			r.cfg.Title = v
		case "backend":
			r.cfg.Backend = v
		case "format":
			r.cfg.Format = v
		}
	}
	return nil
}

// window 600 480 [dpi 96]
func (r *resolver) window(params []*dsl.Lexeme) error {
	var dims []float64
	for i := 0; i < len(params); i++ {
		p := params[i]
		if p.Type == "Number" && len(dims) < 2 {
			l, err := layout.ParseLength(p.Value)
			if err != nil {
				return fmt.Errorf("window 尺寸 %q 无效: %w", p.Value, err)
			}
			dims = append(dims, l.DIP())
			continue
		}
		if p.Value == "dpi" && i+1 < len(params) {
			dpi, err := strconv.ParseFloat(params[i+1].Value, 64)
			if err != nil {
				return fmt.Errorf("window dpi %q 无效: %w", params[i+1].Value, err)
			}
			r.cfg.DPI = dpi
			i++
			continue
		}
		return fmt.Errorf("window 参数 %q 无法识别 (%s)", p.Raw, p.Pos)
	}
	if len(dims) == 2 {
		r.cfg.Width, r.cfg.Height = dims[0], dims[1]
	} else if len(dims) == 1 {
		return fmt.Errorf("window 需要宽和高")
	}
	return nil
}

func (r *resolver) resources(b *dsl.Block) error {
	for _, st := range statements(b) {
		cmd := st.Command
		if cmd == nil {
			continue
		}
		switch cmd.Name {
		case "font":
			if len(cmd.Args) == 0 {
				return fmt.Errorf("font 声明缺少名称 (%s)", cmd.Pos)
			}
			spec, err := r.font(cmd.Args[0].Value, cmd.Block)
			if err != nil {
				return err
			}
			r.fonts[spec.Name] = spec
			if r.first == "" {
				r.first = spec.Name
			}
		case "color":
			// color Name = #rrggbb
			if len(cmd.Args) != 3 || cmd.Args[1].Value != "=" {
				return fmt.Errorf("color 声明应写为 color Name = #rrggbb (%s)", cmd.Pos)
			}
			c, err := layout.ParseColor(cmd.Args[2].Value)
			if err != nil {
				return err
			}
			r.colors[cmd.Args[0].Value] = c
		default:
			return fmt.Errorf("未知资源类型 %q (%s)", cmd.Name, cmd.Pos)
		}
	}
	return nil
}

func (r *resolver) font(name string, b *dsl.Block) (layout.FontSpec, error) {
	spec := layout.FontSpec{Name: name, Family: name, Src: fonts.Default, Size: r.cfg.Font.Size}
	for _, st := range statements(b) {
		if st.Assignment == nil {
			continue
		}
		v, err := scalar(st.Assignment.Key, st.Assignment.Value)
		if err != nil {
			return spec, fmt.Errorf("字体 %s: %w", name, err)
		}
		switch st.Assignment.Key {
		case "src":
			spec.Src = v
		case "family":
			spec.Family = v
		case "size":
			l, err := layout.ParseLength(v)
			if err != nil {
				return spec, fmt.Errorf("字体 %s 字号 %q 无效: %w", name, v, err)
			}
			spec.Size = l.Points()
		case "weight":
			spec.Weight = v
		case "style":
			spec.Style = v
		default:
			return spec, fmt.Errorf("字体 %s 的属性 %q 无法识别", name, st.Assignment.Key)
		}
	}
	return spec, nil
}

func (r *resolver) frame(b *dsl.Block, data any) error {
	fontSet := false
	for _, st := range statements(b) {
		switch {
		case st.Assignment != nil && st.Assignment.Key == "border" && st.Assignment.Value.Object != nil:
			if err := r.border(st.Assignment.Value.Object); err != nil {
				return err
			}
		case st.Assignment != nil:
			v, err := scalar(st.Assignment.Key, st.Assignment.Value)
			if err != nil {
				return fmt.Errorf("frame %w", err)
			}
			if err := r.frameProperty(st.Assignment.Key, v); err != nil {
				return err
			}
		case st.Command != nil && st.Command.Name == "text":
			cmd := st.Command
			if len(cmd.Args) > 0 {
				spec, ok := r.fonts[cmd.Args[0].Value]
				if !ok {
					return fmt.Errorf("未声明的字体 %q (%s)", cmd.Args[0].Value, cmd.Pos)
				}
				r.cfg.Font = spec
				fontSet = true
			}
			var parts []string
			for _, inner := range statements(cmd.Block) {
				if inner.Text != nil {
					parts = append(parts, string(inner.Text.Value))
				}
			}
			text, missing := binding.Interpolate(strings.Join(parts, "\n"), data)
			if len(missing) > 0 {
				layout.Logger().Debug("config: unresolved placeholders", "paths", missing)
			}
			r.cfg.Text = text
		case st.Command != nil:
			return fmt.Errorf("frame 中未知指令 %q (%s)", st.Command.Name, st.Command.Pos)
		}
	}
	if !fontSet && r.first != "" {
		r.cfg.Font = r.fonts[r.first]
	}
	return nil
}

func (r *resolver) frameProperty(key, value string) error {
	var err error
	switch key {
	case "fill":
		r.cfg.Fill, err = r.color(value)
	case "foreground":
		r.cfg.Foreground, err = r.color(value)
	case "color-glyphs":
		r.cfg.ColorGlyphs, err = ParseBool(value)
	case "halign":
		r.cfg.HAlign, err = layout.ParseHAlign(value)
	case "valign":
		r.cfg.VAlign, err = layout.ParseVAlign(value)
	case "border":
		r.cfg.Border.Width, err = dip(value)
	case "inset":
		r.cfg.Border.Inset, err = dip(value)
	default:
		return fmt.Errorf("frame 属性 %q 无法识别", key)
	}
	if err != nil {
		return fmt.Errorf("frame 属性 %s: %w", key, err)
	}
	return nil
}

// border { width: 3, inset: 10 }
func (r *resolver) border(obj *dsl.InlineObject) error {
	for _, e := range obj.Entries {
		v, err := scalar(e.Key, e.Value)
		if err != nil {
			return fmt.Errorf("frame border %w", err)
		}
		switch e.Key {
		case "width":
			r.cfg.Border.Width, err = dip(v)
		case "inset":
			r.cfg.Border.Inset, err = dip(v)
		default:
			return fmt.Errorf("frame border 属性 %q 无法识别", e.Key)
		}
		if err != nil {
			return fmt.Errorf("frame border %s: %w", e.Key, err)
		}
	}
	return nil
}

// color 先查找资源中声明的颜色，再按字面值解析。
func (r *resolver) color(value string) (layout.Color, error) {
	if c, ok := r.colors[value]; ok {
		return c, nil
	}
	return layout.ParseColor(value)
}

func dip(value string) (float64, error) {
	l, err := layout.ParseLength(value)
	if err != nil {
		return 0, err
	}
	return l.DIP(), nil
}

// scalar 取单个值；数组与内联对象在这里不被接受。
func scalar(key string, v *dsl.Value) (string, error) {
	switch {
	case v == nil:
		return "", fmt.Errorf("属性 %s 缺少值", key)
	case v.Array != nil:
		return "", fmt.Errorf("属性 %s 不接受数组", key)
	case v.Object != nil:
		return "", fmt.Errorf("属性 %s 不接受对象", key)
	}
	return v.Text(), nil
}

// list 取数组中的标量值；单个值视为只有一项的数组。
func list(key string, v *dsl.Value) ([]string, error) {
	if v != nil && v.Array != nil {
		out := make([]string, 0, len(v.Array.Values))
		for _, item := range v.Array.Values {
			s, err := scalar(key, item)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	}
	s, err := scalar(key, v)
	if err != nil {
		return nil, err
	}
	return []string{s}, nil
}

func statements(b *dsl.Block) []*dsl.Statement {
	if b == nil {
		return nil
	}
	return b.Statements
}
