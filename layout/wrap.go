package layout

import (
	"math"
	"strings"
	"unicode"
)

// AdvanceFunc 返回一段文本在当前字体下的前进宽度（DIP）。
type AdvanceFunc func(s string) float64

// Wrap 使用贪心算法折行：优先在空白处断开，单词超出 width 时在词内拆分，并尊重显式换行。
// width <= 0 表示不限宽。结果至少包含一行。
func Wrap(content string, width float64, advance AdvanceFunc) []TextLine {
	limit := width
	if limit <= 0 {
		limit = math.MaxFloat64
	}

	var lines []TextLine
	var builder strings.Builder
	currentWidth := 0.0
	softBreak := false

	emit := func(force bool) {
		if builder.Len() == 0 {
			if force {
				lines = append(lines, TextLine{})
				softBreak = false
			}
			return
		}
		// 行尾空白不计入宽度，和 DirectWrite/GDI 的折行结果一致
		line := strings.TrimRightFunc(builder.String(), unicode.IsSpace)
		w := currentWidth
		if line != builder.String() {
			w = advance(line)
		}
		lines = append(lines, TextLine{Content: line, Width: w})
		builder.Reset()
		currentWidth = 0
		softBreak = !force
	}

	appendToken := func(token string) {
		builder.WriteString(token)
		currentWidth += advance(token)
	}

	for _, token := range tokenize(content) {
		if token == "\n" {
			emit(true)
			continue
		}
		isSpace := strings.TrimSpace(token) == ""
		if isSpace && builder.Len() == 0 && softBreak {
			// 折行后的行首空白被吞掉
			continue
		}

		tokenWidth := advance(token)
		if !isSpace && currentWidth > 0 && currentWidth+tokenWidth > limit {
			emit(false)
		}
		if tokenWidth <= limit || isSpace {
			appendToken(token)
			continue
		}

		for _, chunk := range splitByWidth(token, limit, advance) {
			chunkWidth := advance(chunk)
			if currentWidth > 0 && currentWidth+chunkWidth > limit {
				emit(false)
			}
			appendToken(chunk)
		}
	}

	emit(true)
	return lines
}

// MeasureLines 计算多行文本的外接尺寸。
func MeasureLines(lines []TextLine, lineHeight float64) Extent {
	var e Extent
	for _, ln := range lines {
		e.Width = math.Max(e.Width, ln.Width)
	}
	e.Height = float64(len(lines)) * lineHeight
	return e
}

// LineX 返回一行文本在 [left, right] 内按水平对齐方式的起点。
func LineX(left, right, lineWidth float64, h HAlign) float64 {
	switch h {
	case AlignCenter:
		return left + (right-left-lineWidth)/2
	case AlignTrailing:
		return right - lineWidth
	default:
		return left
	}
}

func tokenize(s string) []string {
	var tokens []string
	var builder strings.Builder
	lastWasSpace := false
	flush := func() {
		if builder.Len() == 0 {
			return
		}
		tokens = append(tokens, builder.String())
		builder.Reset()
	}

	for _, r := range s {
		if r == '\r' {
			continue
		}
		if r == '\n' {
			flush()
			tokens = append(tokens, "\n")
			lastWasSpace = false
			continue
		}
		isSpace := unicode.IsSpace(r)
		if builder.Len() == 0 {
			lastWasSpace = isSpace
		} else if lastWasSpace != isSpace {
			flush()
			lastWasSpace = isSpace
		}
		builder.WriteRune(r)
	}
	flush()
	return tokens
}

func splitByWidth(token string, limit float64, advance AdvanceFunc) []string {
	if limit <= 0 || limit == math.MaxFloat64 {
		return []string{token}
	}
	var parts []string
	var runes []rune
	for _, r := range token {
		runes = append(runes, r)
		if len(runes) > 1 && advance(string(runes)) > limit {
			parts = append(parts, string(runes[:len(runes)-1]))
			runes = runes[len(runes)-1:]
		}
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}
