package layout

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrInvalidBounds 表示目标矩形宽或高不为正。
var ErrInvalidBounds = errors.New("layout: invalid bounds")

// Place 计算文本在 bounds 内实际绘制的矩形。
//
// 水平对齐原样交给后端，在完整宽度内处理；垂直对齐为 top 时直接返回 bounds，
// middle/bottom 时先以 bounds 宽度测量折行后的文本高度，再调整 top/bottom。
// 测量失败时高度按 0 处理。Place 不持有任何状态，相同输入总是得到相同结果。
func Place(m Measurer, run TextRun, bounds Rect, h HAlign, v VAlign) (Placement, error) {
	cx, cy := bounds.Dx(), bounds.Dy()
	if !bounds.Valid() {
		return Placement{}, fmt.Errorf("%w: %gx%g", ErrInvalidBounds, cx, cy)
	}
	p := Placement{Rect: bounds, HAlign: h, VAlign: v}
	if v == AlignTop {
		return p, nil
	}

	extent := measure(m, run, cx, cy)
	p.Measured = extent
	switch v {
	case AlignMiddle:
		p.Rect.Top = bounds.Top + (cy-extent.Height)/2
	case AlignBottom:
		p.Rect.Top = bounds.Top + cy - extent.Height
	}
	p.Rect.Bottom = p.Rect.Top + extent.Height
	return p, nil
}

func measure(m Measurer, run TextRun, cx, cy float64) Extent {
	if m == nil {
		Logger().Debug("layout: no measurer, assuming empty extent")
		return Extent{}
	}
	extent, err := m.Measure(run.Font, run.Text, cx, cy)
	if err != nil {
		Logger().Debug("layout: measurement failed", slog.String("font", run.Font.Name), slog.Any("err", err))
		return Extent{}
	}
	if extent.Height <= 0 {
		return Extent{}
	}
	return extent
}
