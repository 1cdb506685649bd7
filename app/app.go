// Package app drives a renderer session from a stream of window events. The
// host (a real window or the headless CLI) only feeds events and stores frames.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ByLCY/glyphbox/config"
	"github.com/ByLCY/glyphbox/frame"
	"github.com/ByLCY/glyphbox/layout"
	"github.com/ByLCY/glyphbox/renderer"
)

// 进程退出码。
const (
	ExitOK             = 0
	ExitRegisterFailed = -1
	ExitCreateFailed   = -2
)

// 致命错误时展示给用户的提示。
const (
	msgRegisterFailed = "Failed to register window class."
	msgCreateFailed   = "Failed to create main window."
)

var (
	// ErrNotCreated 表示在窗口创建成功之前收到了绘制请求。
	ErrNotCreated = errors.New("app: window not created")
	// ErrCreate 表示窗口创建阶段获取渲染资源失败。
	ErrCreate = errors.New("app: create failed")
)

// Kind 是窗口事件类型。
type Kind int

const (
	Create Kind = iota
	Size
	EraseBackground
	Paint
	Destroy
)

func (k Kind) String() string {
	switch k {
	case Create:
		return "create"
	case Size:
		return "size"
	case EraseBackground:
		return "erase-background"
	case Paint:
		return "paint"
	case Destroy:
		return "destroy"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event 是一次窗口消息；Width/Height 仅对 Size 有意义（DIP）。
type Event struct {
	Kind   Kind
	Width  float64
	Height float64
}

// FrameSink 接收每一次绘制得到的帧。
type FrameSink interface {
	WriteFrame(index int, plan *layout.Plan, data []byte) error
}

// FrameSinkFunc adapts a function to FrameSink.
type FrameSinkFunc func(index int, plan *layout.Plan, data []byte) error

func (f FrameSinkFunc) WriteFrame(index int, plan *layout.Plan, data []byte) error {
	return f(index, plan, data)
}

// App 是显式构造的应用上下文，持有配置、后端与帧输出。
type App struct {
	cfg     config.Config
	backend renderer.Backend
	sink    FrameSink
	out     io.Writer

	created  bool
	quit     bool
	exitCode int
	plans    []layout.Plan
}

// Option customizes an App.
type Option func(*App)

// WithMessageOutput 设置致命错误提示的输出位置，默认 os.Stderr。
func WithMessageOutput(w io.Writer) Option {
	return func(a *App) { a.out = w }
}

// New creates an App. backend may be nil, in which case Run fails with
// ExitRegisterFailed.
func New(cfg config.Config, backend renderer.Backend, sink FrameSink, opts ...Option) *App {
	a := &App{cfg: cfg, backend: backend, sink: sink, out: os.Stderr}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Plans 返回已绘制帧的排版记录。
func (a *App) Plans() []layout.Plan { return a.plans }

// Dispatch 处理单个事件。
func (a *App) Dispatch(ev Event) error {
	log := layout.Logger()
	switch ev.Kind {
	case Create:
		if a.created {
			return nil
		}
		if err := a.backend.Setup(); err != nil {
			a.backend.Shutdown()
			return fmt.Errorf("%w: %w", ErrCreate, err)
		}
		a.created = true
		log.Debug("app: created", slog.String("backend", a.backend.Name()))
	case Size:
		if !a.created {
			return nil
		}
		// 最小化时会收到 0×0，保持原尺寸
		if ev.Width <= 0 || ev.Height <= 0 {
			log.Debug("app: ignoring empty size", slog.Float64("width", ev.Width), slog.Float64("height", ev.Height))
			return nil
		}
		return a.backend.Resize(ev.Width, ev.Height)
	case EraseBackground:
		// 整个客户区每帧都会被重新填充，这里不绘制以避免闪烁
	case Paint:
		if !a.created {
			return ErrNotCreated
		}
		plan, data, err := frame.Render(a.backend, a.cfg.Scene())
		if err != nil {
			return fmt.Errorf("绘制失败: %w", err)
		}
		index := len(a.plans)
		a.plans = append(a.plans, *plan)
		if a.sink != nil {
			if err := a.sink.WriteFrame(index, plan, data); err != nil {
				return fmt.Errorf("输出第 %d 帧失败: %w", index, err)
			}
		}
	case Destroy:
		a.backend.Shutdown()
		a.created = false
		a.quit = true
		a.exitCode = ExitOK
	default:
		return fmt.Errorf("app: unknown event %v", ev.Kind)
	}
	return nil
}

// Run 处理事件直到收到 Destroy、事件通道关闭或 ctx 取消，返回进程退出码。
func (a *App) Run(ctx context.Context, events <-chan Event) int {
	log := layout.Logger()
	if a.backend == nil {
		a.fatal(msgRegisterFailed, errors.New("no backend"))
		return ExitRegisterFailed
	}
	if err := a.cfg.Validate(); err != nil {
		a.fatal(msgRegisterFailed, err)
		return ExitRegisterFailed
	}
	defer a.backend.Shutdown()

	for {
		select {
		case <-ctx.Done():
			log.Debug("app: context done", slog.Any("err", ctx.Err()))
			return ExitOK
		case ev, ok := <-events:
			if !ok {
				return ExitOK
			}
			err := a.Dispatch(ev)
			if err != nil {
				if ev.Kind == Create {
					a.fatal(msgCreateFailed, err)
					return ExitCreateFailed
				}
				log.Warn("app: event failed", slog.String("event", ev.Kind.String()), slog.Any("err", err))
			}
			if a.quit {
				return a.exitCode
			}
		}
	}
}

func (a *App) fatal(msg string, err error) {
	layout.Logger().Error("app: "+msg, slog.Any("err", err))
	if a.out != nil {
		fmt.Fprintln(a.out, msg)
	}
}

// Script 返回无窗口宿主的事件序列：创建、初始尺寸、绘制，之后每个尺寸
// 调整都会触发一次重绘，最后销毁。
func Script(cfg config.Config, resizes ...config.Size) []Event {
	events := []Event{
		{Kind: Create},
		{Kind: Size, Width: cfg.Width, Height: cfg.Height},
		{Kind: EraseBackground},
		{Kind: Paint},
	}
	for _, s := range resizes {
		events = append(events,
			Event{Kind: Size, Width: s.Width, Height: s.Height},
			Event{Kind: EraseBackground},
			Event{Kind: Paint},
		)
	}
	return append(events, Event{Kind: Destroy})
}

// Feed 返回一个已写入全部事件并关闭的通道。
func Feed(events []Event) <-chan Event {
	ch := make(chan Event, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return ch
}
