package buildergen

import (
	"go/token"
	"strings"

	"github.com/samber/lo"

	"github.com/donutnomad/buildergen/internal/structparse"
	"github.com/donutnomad/buildergen/internal/utils"
)

// SetterStyle setter 的生成风格
type SetterStyle int

const (
	// StyleMutable 指针接收者，返回 *B 支持链式调用（默认）
	StyleMutable SetterStyle = iota
	// StyleOwned 值接收者，返回修改后的副本
	StyleOwned
	// StyleInplace 指针接收者，无返回值
	StyleInplace
)

func (s SetterStyle) String() string {
	switch s {
	case StyleOwned:
		return "owned"
	case StyleMutable:
		return "mutable"
	case StyleInplace:
		return "inplace"
	default:
		return "unknown"
	}
}

// parseSetterStyle 解析 pattern 配置值
func parseSetterStyle(s string) (SetterStyle, bool) {
	switch s {
	case "owned":
		return StyleOwned, true
	case "mutable":
		return StyleMutable, true
	case "inplace":
		return StyleInplace, true
	default:
		return StyleMutable, false
	}
}

// FieldRepr 字段在 builder 结构体中的存储表示
type FieldRepr int

const (
	// ReprWrapped 非指针字段包装为 *T 存储，nil 表示未设置
	ReprWrapped FieldRepr = iota
	// ReprPointer 指针字段按原类型 *U 存储，nil 表示未设置
	ReprPointer
	// ReprPlain 跳过 setter 的字段按原类型存储，构建时总是代入默认值
	ReprPlain
)

func (r FieldRepr) String() string {
	switch r {
	case ReprWrapped:
		return "wrapped"
	case ReprPointer:
		return "pointer"
	case ReprPlain:
		return "plain"
	default:
		return "unknown"
	}
}

// FuncRef 对包内或跨包函数的引用，如 "mypkg.CheckToken" 或 "checkToken"
type FuncRef struct {
	Pkg  string // 包引用名，空表示当前包
	Name string
}

// ParseFuncRef 解析函数引用文本
func ParseFuncRef(s string) FuncRef {
	if idx := strings.LastIndex(s, "."); idx >= 0 {
		return FuncRef{Pkg: s[:idx], Name: s[idx+1:]}
	}
	return FuncRef{Name: s}
}

func (r FuncRef) String() string {
	if r.Pkg != "" {
		return r.Pkg + "." + r.Name
	}
	return r.Name
}

// ResolvedFieldConfig 单个字段的最终生效配置
// 由字段注解与结构体级默认值合并、推断、校验后产生
type ResolvedFieldConfig struct {
	Name         string // 目标结构体中的字段名
	BuilderField string // builder 结构体中的存储字段名（避开方法名冲突）
	Type         string // 字段声明类型的源码文本
	ElemType     string // Repr 为 ReprPointer 时的指针元素类型文本
	Repr         FieldRepr

	Required    bool
	HasDefault  bool   // 未设置时是否代入默认值
	DefaultExpr string // 默认值表达式，空表示零值

	Skip       bool
	SetterName string // 最终 setter 名（已含前缀与可见性处理）
	ParamType  string // setter 参数类型文本
	Convert    *FuncRef
	Try        bool
	Validate   *FuncRef
	Transform  *FuncRef
	Exported   bool // setter 是否导出

	Doc []string // 转发到 setter 的文档注释行
	Pos token.Position
}

// FinalSetterName setter 的最终方法名
// try setter 带 Try 前缀，并按可见性折叠首字母
func (f *ResolvedFieldConfig) FinalSetterName() string {
	if f.Try {
		return utils.ExportCase("Try"+utils.UpperFirst(f.SetterName), f.Exported)
	}
	return f.SetterName
}

// ResolvedConfig 一个目标结构体的最终生效配置
type ResolvedConfig struct {
	StructName  string
	BuilderName string
	PackageName string
	FilePath    string
	Pos         token.Position
	TypeParams  []structparse.TypeParam

	Pattern  SetterStyle
	Exported bool // builder 类型与 setter 的默认可见性
	Prefix   string

	DeriveClone  bool
	DeriveString bool
	ToBuilder    bool

	BuildName     string
	BuildSkip     bool
	BuildValidate *FuncRef
	BuildErrorFn  *FuncRef

	Output string // 注解中的 output 配置原文，空表示走默认规则

	Fields []*ResolvedFieldConfig

	// Imports 源文件的导入表，供类型限定使用
	Imports map[string]*structparse.ImportInfo `json:"-"`
}

// SetterFields 返回需要生成 setter 的字段
func (c *ResolvedConfig) SetterFields() []*ResolvedFieldConfig {
	return lo.Filter(c.Fields, func(f *ResolvedFieldConfig, _ int) bool {
		return !f.Skip
	})
}
