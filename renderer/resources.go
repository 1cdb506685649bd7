package renderer

import (
	"fmt"
	"log/slog"

	"github.com/ByLCY/glyphbox/layout"
)

// Step 标识 Setup 中的一个资源获取步骤。
type Step int

const (
	StepSurface Step = iota // 渲染表面
	StepFactory             // 资源工厂（字体）
	StepBrush               // 画刷
)

func (s Step) String() string {
	switch s {
	case StepSurface:
		return "surface"
	case StepFactory:
		return "factory"
	case StepBrush:
		return "brush"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// SetupError 记录 Setup 在哪个后端的哪一步失败。
type SetupError struct {
	Backend string
	Step    Step
	Err     error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("%s: 创建%s失败: %v", e.Backend, e.Step, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }

type resource struct {
	name    string
	release func()
}

// Resources 跟踪已获取的资源，保证每个资源只释放一次、按获取的逆序释放。
// 零值可直接使用。
type Resources struct {
	backend string
	held    []resource
}

// NewResources 创建归属于指定后端的资源表。
func NewResources(backend string) *Resources {
	return &Resources{backend: backend}
}

// Acquire 执行一个获取步骤。失败时返回 *SetupError，已获取的资源保持不变，
// 由调用方通过 ReleaseAll 释放。release 可以为 nil。
func (r *Resources) Acquire(step Step, name string, acquire func() (release func(), err error)) error {
	release, err := acquire()
	if err != nil {
		return &SetupError{Backend: r.backend, Step: step, Err: err}
	}
	if release == nil {
		release = func() {}
	}
	r.held = append(r.held, resource{name: name, release: release})
	layout.Logger().Debug("renderer: acquired", slog.String("backend", r.backend), slog.String("resource", name))
	return nil
}

// ReleaseAll 逆序释放全部资源，重复调用是安全的。
func (r *Resources) ReleaseAll() {
	for i := len(r.held) - 1; i >= 0; i-- {
		res := r.held[i]
		res.release()
		layout.Logger().Debug("renderer: released", slog.String("backend", r.backend), slog.String("resource", res.name))
	}
	r.held = nil
}

// Held 返回当前持有的资源名称（按获取顺序）。
func (r *Resources) Held() []string {
	names := make([]string, len(r.held))
	for i, res := range r.held {
		names[i] = res.name
	}
	return names
}

// Len 返回当前持有的资源数量。
func (r *Resources) Len() int { return len(r.held) }
