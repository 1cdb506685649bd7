// Package recorder provides a Backend that records calls instead of drawing.
// Text metrics are fixed: every rune advances half the font size and a line is
// exactly one font size tall, which makes layouts predictable in tests.
package recorder

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ByLCY/glyphbox/layout"
	"github.com/ByLCY/glyphbox/renderer"
)

// Name 为该后端在配置中的名称。
const Name = "recorder"

// ErrInjected is returned by an acquisition step selected with FailAt.
var ErrInjected = errors.New("recorder: injected failure")

// Call is one recorded backend invocation.
type Call struct {
	Op          string
	Color       layout.Color
	Rect        layout.Rect
	Text        string
	Width       float64
	ColorGlyphs bool
}

func (c Call) String() string {
	switch c.Op {
	case "clear":
		return "clear " + c.Color.Hex()
	case "text":
		return fmt.Sprintf("text %q %v", c.Text, c.Rect)
	case "rect":
		return fmt.Sprintf("rect %v %g", c.Rect, c.Width)
	default:
		return c.Op
	}
}

// Option customizes a Recorder.
type Option func(*Recorder)

// FailAt makes Setup fail at the given acquisition step.
func FailAt(step renderer.Step) Option {
	return func(r *Recorder) { r.failAt = &step }
}

// WithColorGlyphs sets what SupportsColorGlyphs reports.
func WithColorGlyphs(ok bool) Option {
	return func(r *Recorder) { r.colorGlyphs = ok }
}

// WithMeasureError makes every Measure call fail.
func WithMeasureError(err error) Option {
	return func(r *Recorder) { r.measureErr = err }
}

// Recorder implements renderer.Backend.
type Recorder struct {
	width, height float64
	res           *renderer.Resources
	ready         bool

	failAt      *renderer.Step
	colorGlyphs bool
	measureErr  error

	Calls    []Call
	Acquired int
	Released int
	Frames   int
}

var (
	_ renderer.Backend             = (*Recorder)(nil)
	_ renderer.ColorGlyphSupporter = (*Recorder)(nil)
)

// New creates a Recorder for a canvas of the given size.
func New(width, height float64, opts ...Option) *Recorder {
	r := &Recorder{width: width, height: height, res: renderer.NewResources(Name)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Recorder) Name() string { return Name }

func (r *Recorder) SupportsColorGlyphs() bool { return r.colorGlyphs }

func (r *Recorder) Setup() error {
	if r.ready {
		return nil
	}
	for _, step := range []renderer.Step{renderer.StepSurface, renderer.StepFactory, renderer.StepBrush} {
		if err := r.res.Acquire(step, step.String(), func() (func(), error) {
			if r.failAt != nil && *r.failAt == step {
				return nil, ErrInjected
			}
			if step == renderer.StepSurface && (r.width <= 0 || r.height <= 0) {
				return nil, fmt.Errorf("%w: %gx%g", renderer.ErrInvalidSize, r.width, r.height)
			}
			r.Acquired++
			return func() { r.Released++ }, nil
		}); err != nil {
			return err
		}
	}
	r.ready = true
	return nil
}

func (r *Recorder) Shutdown() {
	r.ready = false
	r.res.ReleaseAll()
}

// Held 返回当前持有的资源名称。
func (r *Recorder) Held() []string { return r.res.Held() }

func (r *Recorder) Resize(width, height float64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %gx%g", renderer.ErrInvalidSize, width, height)
	}
	r.width, r.height = width, height
	r.Calls = append(r.Calls, Call{Op: "resize", Rect: layout.RectWH(width, height)})
	return nil
}

func (r *Recorder) CanvasSize() (float64, float64) { return r.width, r.height }

func (r *Recorder) Measure(font layout.FontSpec, text string, maxWidth, maxHeight float64) (layout.Extent, error) {
	if r.measureErr != nil {
		return layout.Extent{}, r.measureErr
	}
	if !r.ready {
		return layout.Extent{}, renderer.ErrNotReady
	}
	lines := layout.Wrap(text, maxWidth, Advance(font))
	return layout.MeasureLines(lines, font.SizeDIP()), nil
}

// Advance returns the fixed advance function used by Recorder.Measure.
func Advance(font layout.FontSpec) layout.AdvanceFunc {
	half := font.SizeDIP() / 2
	return func(s string) float64 { return float64(utf8.RuneCountInString(s)) * half }
}

func (r *Recorder) BeginFrame() error {
	if !r.ready {
		return renderer.ErrNotReady
	}
	r.Calls = append(r.Calls, Call{Op: "begin"})
	return nil
}

func (r *Recorder) Clear(c layout.Color) {
	if !r.ready {
		return
	}
	r.Calls = append(r.Calls, Call{Op: "clear", Color: c})
}

func (r *Recorder) DrawText(run layout.TextRun, p layout.Placement, colorGlyphs bool) {
	if !r.ready {
		return
	}
	r.Calls = append(r.Calls, Call{Op: "text", Text: run.Text, Rect: p.Rect, Color: run.Color, ColorGlyphs: colorGlyphs})
}

func (r *Recorder) DrawRect(rect layout.Rect, stroke layout.Color, width float64) {
	if !r.ready {
		return
	}
	r.Calls = append(r.Calls, Call{Op: "rect", Rect: rect, Color: stroke, Width: width})
}

// EndFrame 返回本帧调用的文本描述。
func (r *Recorder) EndFrame() ([]byte, error) {
	if !r.ready {
		return nil, renderer.ErrNotReady
	}
	r.Calls = append(r.Calls, Call{Op: "end"})
	r.Frames++
	var b strings.Builder
	for i := len(r.Calls) - 1; i >= 0; i-- {
		if r.Calls[i].Op == "begin" {
			for _, c := range r.Calls[i:] {
				b.WriteString(c.String())
				b.WriteByte('\n')
			}
			break
		}
	}
	return []byte(b.String()), nil
}

// Ops returns the recorded operation names in order.
func (r *Recorder) Ops() []string {
	ops := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		ops[i] = c.Op
	}
	return ops
}

// Find returns the first recorded call with the given op.
func (r *Recorder) Find(op string) (Call, bool) {
	for _, c := range r.Calls {
		if c.Op == op {
			return c, true
		}
	}
	return Call{}, false
}
