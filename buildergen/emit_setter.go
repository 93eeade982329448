package buildergen

import (
	"github.com/dave/jennifer/jen"
)

// emitSetters 为所有未跳过的字段生成 setter
func emitSetters(f *jen.File, cfg *ResolvedConfig) {
	for _, fl := range cfg.SetterFields() {
		emitSetter(f, cfg, fl)
	}
}

// emitSetter 生成单个 setter
// 接收者与返回值按 pattern 决定:
//   - owned:   值接收者，返回修改后的副本
//   - mutable: 指针接收者，返回 *B 支持链式调用
//   - inplace: 指针接收者，无返回值
//
// try setter 额外返回 error（owned 模式在解析阶段已拒绝）
func emitSetter(f *jen.File, cfg *ResolvedConfig, fl *ResolvedFieldConfig) {
	recv := receiverName(cfg)
	name := fl.FinalSetterName()

	// 字段文档转发到 setter
	if len(fl.Doc) > 0 {
		for _, line := range fl.Doc {
			f.Comment(line)
		}
	} else {
		f.Commentf("%s 设置 %s 字段", name, fl.Name)
	}

	fn := f.Func()
	if cfg.Pattern == StyleOwned {
		fn = fn.Params(jen.Id(recv).Add(builderTypeRef(cfg)))
	} else {
		fn = fn.Params(jen.Id(recv).Op("*").Add(builderTypeRef(cfg)))
	}
	fn = fn.Id(name).Params(jen.Id("v").Add(typeCode(fl.ParamType, cfg.Imports)))

	if fl.Try {
		switch cfg.Pattern {
		case StyleMutable:
			fn = fn.Params(jen.Op("*").Add(builderTypeRef(cfg)), jen.Error())
		case StyleInplace:
			fn = fn.Error()
		}
	} else {
		switch cfg.Pattern {
		case StyleOwned:
			fn = fn.Add(builderTypeRef(cfg))
		case StyleMutable:
			fn = fn.Op("*").Add(builderTypeRef(cfg))
		}
	}

	fn.BlockFunc(func(g *jen.Group) {
		setterBody(g, cfg, fl, recv)
	})
}

// setterBody 生成 setter 函数体
func setterBody(g *jen.Group, cfg *ResolvedConfig, fl *ResolvedFieldConfig, recv string) {
	// 转换目标类型：包装字段为声明类型，指针字段为元素类型
	convTarget := fl.Type
	if fl.Repr == ReprPointer {
		convTarget = fl.ElemType
	}

	switch {
	case fl.Convert != nil && fl.Try:
		g.List(jen.Id("x"), jen.Err()).Op(":=").Add(funcRefCode(fl.Convert, cfg.Imports)).Call(jen.Id("v"))
		g.If(jen.Err().Op("!=").Nil()).BlockFunc(func(ig *jen.Group) {
			if cfg.Pattern == StyleMutable {
				ig.Return(jen.Id(recv), jen.Err())
			} else {
				ig.Return(jen.Err())
			}
		})
		g.Id(recv).Dot(fl.BuilderField).Op("=").Op("&").Id("x")

	case fl.Convert != nil:
		g.Id("x").Op(":=").Add(funcRefCode(fl.Convert, cfg.Imports)).Call(jen.Id("v"))
		g.Id(recv).Dot(fl.BuilderField).Op("=").Op("&").Id("x")

	case fl.ParamType != convTarget:
		// 参数类型与字段类型不同，普通类型转换
		g.Id("x").Op(":=").Add(typeCode(convTarget, cfg.Imports)).Call(jen.Id("v"))
		g.Id(recv).Dot(fl.BuilderField).Op("=").Op("&").Id("x")

	default:
		g.Id(recv).Dot(fl.BuilderField).Op("=").Op("&").Id("v")
	}

	switch cfg.Pattern {
	case StyleOwned:
		g.Return(jen.Id(recv))
	case StyleMutable:
		if fl.Try {
			g.Return(jen.Id(recv), jen.Nil())
		} else {
			g.Return(jen.Id(recv))
		}
	case StyleInplace:
		if fl.Try {
			g.Return(jen.Nil())
		}
	}
}
