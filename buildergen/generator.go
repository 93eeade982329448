package buildergen

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/dave/jennifer/jen"
	"github.com/davecgh/go-spew/spew"

	"github.com/donutnomad/buildergen/internal/structparse"
	"github.com/donutnomad/buildergen/plugin"
)

const (
	// GeneratorName 生成器名称
	GeneratorName = "builder"

	// DefaultOutputFile 默认输出文件名模板
	DefaultOutputFile = "$FILE_builder.go"
)

// Generator @Builder 注解的代码生成器
// 对每个目标结构体执行 解析 -> 配置合并 -> 校验 -> 生成，
// 同一输出文件的多个 builder 合并到一个 jennifer 定义
type Generator struct {
	*plugin.BaseGenerator

	// DumpConfig 以 JSON 输出每个结构体的最终生效配置
	DumpConfig bool
}

// New 创建 builder 生成器
func New() *Generator {
	base := plugin.NewBaseGenerator(
		GeneratorName,
		[]string{MarkerName},
		[]plugin.TargetKind{plugin.TargetStruct},
	)
	base.SetOptions(optionDefs())
	return &Generator{BaseGenerator: base}
}

// optionDefs 注解配置项定义，用于 -help 输出
func optionDefs() []plugin.OptionDef {
	return []plugin.OptionDef{
		{Name: "name", Description: "builder 类型名，默认 <结构体名>Builder"},
		{Name: "pattern", Default: "mutable", Description: "setter 风格: owned、mutable、inplace"},
		{Name: "prefix", Description: "setter 名称前缀，如 with"},
		{Name: "derive", Description: "附加生成的方法，逗号分隔: clone、string"},
		{Name: "default", Description: "所有字段未设置时代入零值"},
		{Name: "to_builder", Description: "在目标结构体上生成 ToBuilder 方法"},
		{Name: "setter(...)", Description: "所有字段继承的 setter 默认配置"},
		{Name: "build(...)", Description: "构建方法配置: name、skip、validate、error"},
		{Name: "public/private", Description: "builder 与 setter 的可见性"},
	}
}

// Generate 实现 plugin.Generator
func (g *Generator) Generate(ctx *plugin.GenerateContext) (*plugin.GenerateResult, error) {
	result := plugin.NewGenerateResult()

	// 扫描阶段并行，目标顺序不确定；先排序保证输出确定
	targets := slices.Clone(ctx.Targets)
	slices.SortFunc(targets, func(a, b *plugin.AnnotatedTarget) int {
		if c := strings.Compare(a.Target.FilePath, b.Target.FilePath); c != 0 {
			return c
		}
		return a.Target.Pos.Line - b.Target.Pos.Line
	})

	files := make(map[string]*jen.File)
	supportEmitted := make(map[string]bool)

	for _, target := range targets {
		t := target.Target
		if t.Kind != plugin.TargetStruct {
			result.AddError(fmt.Errorf("%s: @%s 只能用于结构体，%s 是 %s", t.Pos, MarkerName, t.Name, t.Kind))
			result.Skipped++
			continue
		}

		input, err := structparse.Parse(t.FilePath, t.Name, MarkerName)
		if err != nil {
			result.AddError(fmt.Errorf("%s: 解析结构体 %s 失败: %w", t.Pos, t.Name, err))
			result.Skipped++
			continue
		}

		cfg, diags := Resolve(input)
		if len(diags) > 0 {
			for _, d := range diags {
				result.AddError(fmt.Errorf("结构体 %s: %w", t.Name, d))
			}
			result.Skipped++
			continue
		}

		if ctx.Verbose {
			fmt.Printf("解析 %s 完成:\n%s", t.Name, spew.Sdump(cfg))
		}
		if g.DumpConfig {
			if data, err := sonic.MarshalIndent(cfg, "", "  "); err == nil {
				fmt.Printf("// %s 的生效配置\n%s\n", t.Name, data)
			}
		}

		pkgDir := filepath.Dir(t.FilePath)
		outputPath := plugin.GetOutputPath(t, cfg.Output, DefaultOutputFile,
			ctx.GetPackageConfig(pkgDir), GeneratorName, ctx.DefaultOutput)

		f, ok := files[outputPath]
		if !ok {
			f = jen.NewFile(cfg.PackageName)
			files[outputPath] = f
		}

		// 共享错误类型按包目录只生成一次
		if !supportEmitted[pkgDir] {
			emitSupportTypes(f)
			supportEmitted[pkgDir] = true
		}

		emitBuilder(f, cfg)
	}

	for path, f := range files {
		result.AddDefinition(path, f)
	}
	return result, nil
}

// emitBuilder 生成一个结构体的完整 builder 代码
func emitBuilder(f *jen.File, cfg *ResolvedConfig) {
	emitBuilderStruct(f, cfg)
	emitSetters(f, cfg)
	emitBuild(f, cfg)
	emitClone(f, cfg)
	emitString(f, cfg)
	emitToBuilder(f, cfg)
}
