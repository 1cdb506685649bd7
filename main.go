package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/ByLCY/glyphbox/app"
	"github.com/ByLCY/glyphbox/binding"
	"github.com/ByLCY/glyphbox/config"
	"github.com/ByLCY/glyphbox/dsl"
	"github.com/ByLCY/glyphbox/layout"
)

func main() {
	input := flag.String("in", "", "场景文件路径，留空使用内置默认场景")
	output := flag.String("out", "output/emoji.png", "帧输出路径，多帧时追加 -N 后缀")
	backend := flag.String("backend", "", "绘制后端: "+strings.Join(app.Backends(), "|"))
	format := flag.String("format", "", "输出格式: png|pdf（pdf 仅 canvas 后端支持）")
	dataJSON := flag.String("data", "", "绑定到场景文本 ${...} 的 JSON 数据")
	debug := flag.String("debug", "", "排版调试 JSON 输出路径")
	fill := flag.String("fill", "", "背景颜色，如 accent、white、#336699")
	colorGlyphs := flag.Bool("color-glyphs", true, "启用彩色字形")
	halign := flag.String("halign", "", "水平对齐: leading|center|trailing")
	valign := flag.String("valign", "", "垂直对齐: top|middle|bottom")
	resize := flag.String("resize", "", "初始绘制后依次调整的尺寸，如 800x600,320x240")
	verbose := flag.Bool("v", false, "输出调试日志")
	flag.Parse()

	if *verbose {
		layout.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	data, err := binding.Decode(*dataJSON)
	if err != nil {
		log.Fatalf("%v", err)
	}
	cfg, err := loadConfig(*input, data)
	if err != nil {
		log.Fatalf("读取场景失败: %v", err)
	}

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if err := applyFlags(&cfg, set, flagValues{
		backend:     *backend,
		format:      *format,
		fill:        *fill,
		colorGlyphs: *colorGlyphs,
		halign:      *halign,
		valign:      *valign,
	}); err != nil {
		log.Fatalf("参数无效: %v", err)
	}
	if cfg.Format == "pdf" && filepath.Ext(*output) == ".png" {
		*output = strings.TrimSuffix(*output, ".png") + ".pdf"
	}
	sizes, err := config.ParseSizes(*resize)
	if err != nil {
		log.Fatalf("参数无效: %v", err)
	}

	b, err := app.NewBackend(cfg)
	if err != nil {
		log.Printf("选择后端失败: %v", err)
	}
	a := app.New(cfg, b, fileSink(*output))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := a.Run(ctx, app.Feed(app.Script(cfg, sizes...)))
	stop()

	if *debug != "" && len(a.Plans()) > 0 {
		if err := writeDebug(a.Plans(), *debug); err != nil {
			log.Fatalf("%v", err)
		}
	}
	if code == app.ExitOK {
		fmt.Printf("已生成 %d 帧：%s\n", len(a.Plans()), *output)
	}
	os.Exit(code)
}

func loadConfig(path string, data any) (config.Config, error) {
	if path == "" {
		cfg := config.Default()
		text, _ := binding.Interpolate(cfg.Text, data)
		cfg.Text = text
		return cfg, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("无法打开场景文件 %s: %w", path, err)
	}
	defer file.Close()

	doc, err := dsl.Parse(file)
	if err != nil {
		return config.Config{}, fmt.Errorf("解析场景失败: %w", err)
	}
	cfg, err := config.FromDocument(doc, data)
	if err != nil {
		return config.Config{}, err
	}
	cfg.BaseDir = filepath.Dir(path)
	return cfg, nil
}

type flagValues struct {
	backend, format, fill, halign, valign string
	colorGlyphs                           bool
}

// applyFlags 只覆盖命令行中显式给出的参数。
func applyFlags(cfg *config.Config, set map[string]bool, v flagValues) error {
	var err error
	if set["backend"] {
		cfg.Backend = v.backend
	}
	if set["format"] {
		cfg.Format = strings.ToLower(v.format)
	}
	if set["fill"] {
		if cfg.Fill, err = layout.ParseColor(v.fill); err != nil {
			return err
		}
	}
	if set["color-glyphs"] {
		cfg.ColorGlyphs = v.colorGlyphs
	}
	if set["halign"] {
		if cfg.HAlign, err = layout.ParseHAlign(v.halign); err != nil {
			return err
		}
	}
	if set["valign"] {
		if cfg.VAlign, err = layout.ParseVAlign(v.valign); err != nil {
			return err
		}
	}
	return nil
}

// fileSink 将第一帧写到 path，之后的帧写到 name-1.ext、name-2.ext……
func fileSink(path string) app.FrameSink {
	return app.FrameSinkFunc(func(index int, _ *layout.Plan, data []byte) error {
		target := path
		if index > 0 {
			ext := filepath.Ext(path)
			target = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(path, ext), index, ext)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("创建输出目录失败: %w", err)
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return fmt.Errorf("写入帧文件失败: %w", err)
		}
		return nil
	})
}

func writeDebug(plans []layout.Plan, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(plans, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}
