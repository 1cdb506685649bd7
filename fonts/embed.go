package fonts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// Default 为未指定 src 或加载失败时使用的内置字体。
const Default = "builtin:goregular"

var builtin = map[string][]byte{
	"goregular":    goregular.TTF,
	"gobold":       gobold.TTF,
	"goitalic":     goitalic.TTF,
	"gobolditalic": gobolditalic.TTF,
	"gomedium":     gomedium.TTF,
	"gomono":       gomono.TTF,
}

// Builtin 返回全部内置字体名称（已排序）。
func Builtin() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load 返回字体字节数据。src 可写为 "builtin:goregular"（也接受 "built-in:" 前缀），
// 或文件路径；相对路径以 baseDir 为根解析。
func Load(src, baseDir string) ([]byte, error) {
	if src == "" {
		src = Default
	}
	if name, ok := builtinName(src); ok {
		data, found := builtin[strings.ToLower(name)]
		if !found {
			return nil, fmt.Errorf("找不到内置字体资源 builtin:%s（可选 %s）", name, strings.Join(Builtin(), ", "))
		}
		return data, nil
	}
	path := src
	if !filepath.IsAbs(path) && baseDir != "" {
		path = filepath.Join(baseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取字体 %s 失败: %w", src, err)
	}
	return data, nil
}

// ForStyle 根据 weight/style 选择内置字体的变体；非内置 src 原样返回。
func ForStyle(src, weight, style string) string {
	if src != "" && src != Default {
		return src
	}
	bold := strings.Contains(strings.ToLower(weight), "bold")
	italic := strings.Contains(strings.ToLower(style), "italic") || strings.Contains(strings.ToLower(style), "oblique")
	switch {
	case bold && italic:
		return "builtin:gobolditalic"
	case bold:
		return "builtin:gobold"
	case italic:
		return "builtin:goitalic"
	case strings.EqualFold(weight, "medium"):
		return "builtin:gomedium"
	default:
		return Default
	}
}

func builtinName(src string) (string, bool) {
	for _, prefix := range []string{"builtin:", "built-in:"} {
		if strings.HasPrefix(src, prefix) {
			return strings.TrimPrefix(src, prefix), true
		}
	}
	return "", false
}
