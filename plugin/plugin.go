package plugin

// Generator 是代码生成器接口
// 每个生成器（如 buildergen）需要实现此接口
type Generator interface {
	// Name 返回生成器名称
	Name() string

	// Annotations 返回该生成器支持的注解列表
	// 一个注解只能绑定一个生成器
	Annotations() []string

	// SupportedTargets 返回支持的目标类型
	// 注解出现在不支持的目标上时，运行循环会报错
	SupportedTargets() []TargetKind

	// Options 返回注解支持的配置项定义，用于生成帮助信息
	// 配置项的实际解析由生成器自行完成
	Options() []OptionDef

	// Priority 返回生成器优先级
	// 数字越小优先级越高，默认值为 100
	Priority() int

	// Generate 执行代码生成
	// 返回的 GenerateResult 包含 jennifer 文件定义，由运行循环统一渲染写入
	Generate(ctx *GenerateContext) (*GenerateResult, error)
}

// BaseGenerator 提供基础实现，可嵌入
type BaseGenerator struct {
	name        string
	annotations []string
	targets     []TargetKind
	options     []OptionDef
	priority    int
}

func NewBaseGenerator(name string, annotations []string, targets []TargetKind) *BaseGenerator {
	return &BaseGenerator{
		name:        name,
		annotations: annotations,
		targets:     targets,
		priority:    100,
	}
}

func (g *BaseGenerator) Name() string {
	return g.name
}

func (g *BaseGenerator) Annotations() []string {
	return g.annotations
}

func (g *BaseGenerator) SupportedTargets() []TargetKind {
	return g.targets
}

func (g *BaseGenerator) Options() []OptionDef {
	return g.options
}

// SetOptions 设置配置项定义
func (g *BaseGenerator) SetOptions(options []OptionDef) *BaseGenerator {
	g.options = options
	return g
}

// Priority 返回生成器优先级
func (g *BaseGenerator) Priority() int {
	return g.priority
}

// SetPriority 设置生成器优先级，数字越小优先级越高
func (g *BaseGenerator) SetPriority(priority int) *BaseGenerator {
	g.priority = priority
	return g
}
