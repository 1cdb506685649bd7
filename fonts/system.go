package fonts

import (
	"os"
	"runtime"
	"strings"
)

// systemFamily 描述一个可以在系统字体目录中找到的字体族。
type systemFamily struct {
	paths []string
	color bool // 字形主要是彩色位图，单色后端不应选用
}

// systemFamilies 以小写族名为键。路径按平台列出，找到第一个存在的文件即可。
var systemFamilies = map[string]systemFamily{}

func init() {
	emoji := systemFamily{paths: emojiPaths(runtime.GOOS), color: true}
	for _, name := range []string{"segoe ui emoji", "noto color emoji", "apple color emoji", "emoji"} {
		systemFamilies[name] = emoji
	}
}

func emojiPaths(goos string) []string {
	switch goos {
	case "windows":
		return []string{
			`C:\Windows\Fonts\seguiemj.ttf`, // Segoe UI Emoji
			`C:\Windows\Fonts\seguisym.ttf`, // Segoe UI Symbol
		}
	case "darwin":
		return []string{
			"/System/Library/Fonts/Apple Color Emoji.ttc",
			"/System/Library/Fonts/Supplemental/Apple Color Emoji.ttc",
		}
	default:
		return []string{
			"/usr/share/fonts/truetype/noto/NotoColorEmoji.ttf",
			"/usr/share/fonts/noto-emoji/NotoColorEmoji.ttf",
			"/usr/share/fonts/google-noto-emoji/NotoColorEmoji.ttf",
			"/usr/share/fonts/TTF/NotoEmoji-Regular.ttf",
		}
	}
}

// FindFamily 返回系统中 family 对应的字体文件路径。color 为 false 时跳过彩色字体族。
func FindFamily(family string, color bool) (string, bool) {
	f, ok := systemFamilies[strings.ToLower(strings.TrimSpace(family))]
	if !ok || (f.color && !color) {
		return "", false
	}
	for _, path := range f.paths {
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// Candidates 返回按优先级排列的字体来源：未显式指定 src 时先尝试系统中的
// family，最后总是回到按 weight/style 选择的内置字体。
func Candidates(src, family, weight, style string, color bool) []string {
	styled := ForStyle(src, weight, style)
	if src != "" && src != Default {
		return []string{styled}
	}
	if path, ok := FindFamily(family, color); ok {
		return []string{path, styled}
	}
	return []string{styled}
}
