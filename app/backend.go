package app

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ByLCY/glyphbox/config"
	"github.com/ByLCY/glyphbox/renderer"
	canvasrenderer "github.com/ByLCY/glyphbox/renderer/canvas"
	ggrenderer "github.com/ByLCY/glyphbox/renderer/gg"
	rasterrenderer "github.com/ByLCY/glyphbox/renderer/raster"
)

var backends = map[string]func(renderer.Options) renderer.Backend{
	rasterrenderer.Name: func(o renderer.Options) renderer.Backend { return rasterrenderer.NewRenderer(o) },
	canvasrenderer.Name: func(o renderer.Options) renderer.Backend { return canvasrenderer.NewRenderer(o) },
	ggrenderer.Name:     func(o renderer.Options) renderer.Backend { return ggrenderer.NewRenderer(o) },
}

// Backends 返回可用的后端名称。
func Backends() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewBackend 按配置创建后端，尚未获取任何资源。
func NewBackend(cfg config.Config) (renderer.Backend, error) {
	ctor, ok := backends[strings.ToLower(cfg.Backend)]
	if !ok {
		return nil, fmt.Errorf("未知后端 %q（可选 %s）", cfg.Backend, strings.Join(Backends(), ", "))
	}
	return ctor(cfg.RendererOptions()), nil
}
