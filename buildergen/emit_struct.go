package buildergen

import (
	"github.com/dave/jennifer/jen"

	"github.com/donutnomad/buildergen/internal/utils"
)

// typeParamsDecl 生成类型参数声明列表，如 [T any, K comparable]
func typeParamsDecl(cfg *ResolvedConfig) []jen.Code {
	codes := make([]jen.Code, 0, len(cfg.TypeParams))
	for _, p := range cfg.TypeParams {
		codes = append(codes, jen.Id(p.Name).Add(typeCode(p.Constraint, cfg.Imports)))
	}
	return codes
}

// typeArgs 生成类型实参列表，如 [T, K]
func typeArgs(cfg *ResolvedConfig) []jen.Code {
	codes := make([]jen.Code, 0, len(cfg.TypeParams))
	for _, p := range cfg.TypeParams {
		codes = append(codes, jen.Id(p.Name))
	}
	return codes
}

// builderTypeRef 引用 builder 类型（含类型实参）
// 每次调用生成新的语法树节点，jennifer 节点不可复用
func builderTypeRef(cfg *ResolvedConfig) *jen.Statement {
	s := jen.Id(cfg.BuilderName)
	if len(cfg.TypeParams) > 0 {
		s = s.Index(typeArgs(cfg)...)
	}
	return s
}

// structTypeRef 引用目标结构体类型（含类型实参）
func structTypeRef(cfg *ResolvedConfig) *jen.Statement {
	s := jen.Id(cfg.StructName)
	if len(cfg.TypeParams) > 0 {
		s = s.Index(typeArgs(cfg)...)
	}
	return s
}

// receiverName builder 方法的接收者名
// 避开 setter 参数名 v 与生成代码中的局部变量名
func receiverName(cfg *ResolvedConfig) string {
	recv := utils.ReceiverName(cfg.BuilderName)
	if recv == "v" || recv == "x" {
		return "b"
	}
	return recv
}

// localVarName 构建方法中字段局部变量名
func localVarName(fieldName, recv string) string {
	name := utils.SafeParamName(utils.LowerFirst(fieldName))
	if name == recv || name == "sb" {
		name += "Val"
	}
	return name
}

// emitBuilderStruct 生成 builder 结构体与构造函数
func emitBuilderStruct(f *jen.File, cfg *ResolvedConfig) {
	f.Commentf("%s 用于分步构建 %s", cfg.BuilderName, cfg.StructName)
	decl := f.Type().Id(cfg.BuilderName)
	if len(cfg.TypeParams) > 0 {
		decl = decl.Types(typeParamsDecl(cfg)...)
	}
	decl.StructFunc(func(g *jen.Group) {
		for _, fl := range cfg.Fields {
			switch fl.Repr {
			case ReprWrapped:
				// 包装为指针，nil 表示未设置
				g.Id(fl.BuilderField).Op("*").Add(typeCode(fl.Type, cfg.Imports))
			default:
				g.Id(fl.BuilderField).Add(typeCode(fl.Type, cfg.Imports))
			}
		}
	})

	emitConstructor(f, cfg)
}

// emitConstructor 生成构造函数
// owned 风格返回值，其余风格返回指针；零值 builder 同样可用
func emitConstructor(f *jen.File, cfg *ResolvedConfig) {
	name := utils.ExportCase("New"+utils.UpperFirst(cfg.BuilderName), cfg.Exported)

	f.Commentf("%s 创建空的 %s", name, cfg.BuilderName)
	fn := f.Func().Id(name)
	if len(cfg.TypeParams) > 0 {
		fn = fn.Types(typeParamsDecl(cfg)...)
	}
	fn = fn.Params()

	if cfg.Pattern == StyleOwned {
		fn.Add(builderTypeRef(cfg)).Block(
			jen.Return(builderTypeRef(cfg).Values()),
		)
	} else {
		fn.Op("*").Add(builderTypeRef(cfg)).Block(
			jen.Return(jen.Op("&").Add(builderTypeRef(cfg).Values())),
		)
	}
}
