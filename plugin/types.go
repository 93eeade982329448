package plugin

import (
	"go/ast"
	"go/token"

	"github.com/dave/jennifer/jen"
)

// TargetKind 表示注解目标的类型
type TargetKind int

const (
	TargetStruct    TargetKind = iota + 1 // 结构体
	TargetInterface                       // 接口
	TargetFunc                            // 包级函数
	TargetMethod                          // 结构体方法
	TargetNamedType                       // 别名或命名基础类型
)

func (k TargetKind) String() string {
	switch k {
	case TargetStruct:
		return "struct"
	case TargetInterface:
		return "interface"
	case TargetFunc:
		return "func"
	case TargetMethod:
		return "method"
	case TargetNamedType:
		return "named type"
	default:
		return "unknown"
	}
}

// OptionDef 描述注解支持的一个配置项，用于生成帮助信息
type OptionDef struct {
	Name        string // 配置项名称，如 "pattern"
	Default     string // 默认值（可为空）
	Description string // 配置项描述
}

// Annotation 表示解析后的注解
// Args 为括号内的原始参数文本，具体语法由各生成器自行解析
type Annotation struct {
	Name string         // 注解名称，如 "Builder"
	Args string         // 参数原始文本（裸注解为空）
	Raw  string         // 原始注解文本
	Pos  token.Position // 注解所在注释的位置
}

// Target 表示注解的目标
type Target struct {
	Kind        TargetKind
	Name        string // 结构体名、接口名、函数名、方法名
	PackageName string
	FilePath    string
	Pos         token.Position

	// AST 节点（可选，用于深度解析）
	Node ast.Node
}

// AnnotatedTarget 表示带注解的目标
type AnnotatedTarget struct {
	Target      *Target
	Annotations []*Annotation
}

// ScanResult 表示扫描结果
type ScanResult struct {
	Structs    []*AnnotatedTarget
	Interfaces []*AnnotatedTarget
	Funcs      []*AnnotatedTarget
	Methods    []*AnnotatedTarget
	NamedTypes []*AnnotatedTarget // 别名、命名基础类型等非结构体非接口的类型声明

	// PackageConfigs 包级配置，key 为包目录路径
	PackageConfigs map[string]*PackageConfig
}

// All 返回所有带注解的目标
func (r *ScanResult) All() []*AnnotatedTarget {
	result := make([]*AnnotatedTarget, 0, len(r.Structs)+len(r.Interfaces)+len(r.Funcs)+len(r.Methods)+len(r.NamedTypes))
	result = append(result, r.Structs...)
	result = append(result, r.Interfaces...)
	result = append(result, r.Funcs...)
	result = append(result, r.Methods...)
	result = append(result, r.NamedTypes...)
	return result
}

// ByAnnotation 按注解名称过滤
func (r *ScanResult) ByAnnotation(name string) []*AnnotatedTarget {
	var result []*AnnotatedTarget
	for _, t := range r.All() {
		for _, a := range t.Annotations {
			if a.Name == name {
				result = append(result, t)
				break
			}
		}
	}
	return result
}

// GenerateContext 生成上下文，传递给 Generator
type GenerateContext struct {
	Targets        []*AnnotatedTarget        // 该生成器需要处理的目标
	PackageConfigs map[string]*PackageConfig // 包级配置，key 为包目录
	DefaultOutput  string                    // 命令行指定的默认输出路径（最低优先级）
	Verbose        bool                      // 详细输出
}

// GetPackageConfig 获取指定包目录的配置
func (c *GenerateContext) GetPackageConfig(pkgDir string) *PackageConfig {
	if c.PackageConfigs == nil {
		return nil
	}
	return c.PackageConfigs[pkgDir]
}

// GenerateResult 生成结果
// Generator 返回 jennifer 语法树定义，由运行循环统一渲染、格式化并写入
type GenerateResult struct {
	// Definitions 生成的文件定义
	// key: 输出文件路径, value: jennifer 文件语法树
	Definitions map[string]*jen.File

	// Errors 错误列表（含配置诊断）
	Errors []error

	// Skipped 因配置错误被跳过的目标数量
	Skipped int
}

// NewGenerateResult 创建新的生成结果
func NewGenerateResult() *GenerateResult {
	return &GenerateResult{
		Definitions: make(map[string]*jen.File),
	}
}

// AddDefinition 添加文件定义
func (r *GenerateResult) AddDefinition(path string, f *jen.File) {
	if r.Definitions == nil {
		r.Definitions = make(map[string]*jen.File)
	}
	r.Definitions[path] = f
}

// AddError 添加错误
func (r *GenerateResult) AddError(err error) {
	r.Errors = append(r.Errors, err)
}

// HasErrors 检查是否有错误
func (r *GenerateResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// PackageConfig 包级生成配置
// 通过 // go:buildergen: 注释定义
// 示例:
//
//	// go:buildergen: -output `$FILE_builder`
//	// go:buildergen: plugin:builder -output `models_builder`
type PackageConfig struct {
	PackageDir string // 包目录路径

	// DefaultOutput 默认输出路径（对所有插件生效）
	DefaultOutput string

	// PluginOutputs 插件特定的输出路径
	// key: 插件名（小写）, value: 输出路径
	PluginOutputs map[string]string
}

// GetPluginOutput 获取指定插件的输出路径
// 优先返回插件特定配置，其次返回默认配置，最后返回空字符串
func (c *PackageConfig) GetPluginOutput(pluginName string) string {
	if c == nil {
		return ""
	}
	if output, ok := c.PluginOutputs[pluginName]; ok {
		return output
	}
	return c.DefaultOutput
}
