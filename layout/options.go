package layout

// Measurer 负责测量文本在给定宽度下折行后的自然尺寸，由渲染后端提供。
// maxHeight 只作为布局提示，不会截断结果高度。
type Measurer interface {
	Measure(font FontSpec, text string, maxWidth, maxHeight float64) (Extent, error)
}
