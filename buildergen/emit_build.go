package buildergen

import (
	"github.com/dave/jennifer/jen"

	"github.com/donutnomad/buildergen/internal/utils"
)

// emitSupportTypes 生成包内共享的错误类型
// 同一包内的多个 builder 共用一份，生成器按包目录只生成一次
func emitSupportTypes(f *jen.File) {
	f.Comment("UninitializedFieldError 表示必填字段在构建前未被设置")
	f.Type().Id("UninitializedFieldError").Struct(
		jen.Id("Field").String(),
	)

	f.Func().Params(jen.Id("e").Op("*").Id("UninitializedFieldError")).Id("Error").Params().String().Block(
		jen.Return(jen.Qual("fmt", "Sprintf").Call(jen.Lit("字段 %s 未初始化"), jen.Id("e").Dot("Field"))),
	)

	f.Comment("FieldValidationError 表示字段值未通过校验")
	f.Type().Id("FieldValidationError").Struct(
		jen.Id("Field").String(),
		jen.Id("Err").Error(),
	)

	f.Func().Params(jen.Id("e").Op("*").Id("FieldValidationError")).Id("Error").Params().String().Block(
		jen.Return(jen.Qual("fmt", "Sprintf").Call(jen.Lit("字段 %s 校验失败: %v"), jen.Id("e").Dot("Field"), jen.Id("e").Dot("Err"))),
	)

	f.Func().Params(jen.Id("e").Op("*").Id("FieldValidationError")).Id("Unwrap").Params().Error().Block(
		jen.Return(jen.Id("e").Dot("Err")),
	)
}

// emitBuild 生成构建方法
// 按字段声明顺序执行：必填检查 -> 默认值代入 -> transform -> validate，
// 最后构造目标结构体；配置了 build(error) 时所有错误经包装函数返回
func emitBuild(f *jen.File, cfg *ResolvedConfig) {
	if cfg.BuildSkip {
		return
	}
	recv := receiverName(cfg)

	// wrapErr 应用 build(error) 包装函数
	wrapErr := func(errCode jen.Code) jen.Code {
		if cfg.BuildErrorFn != nil {
			return funcRefCode(cfg.BuildErrorFn, cfg.Imports).Call(errCode)
		}
		return errCode
	}

	f.Commentf("%s 校验所有字段并构建 %s", cfg.BuildName, cfg.StructName)
	fn := f.Func()
	if cfg.Pattern == StyleOwned {
		fn = fn.Params(jen.Id(recv).Add(builderTypeRef(cfg)))
	} else {
		fn = fn.Params(jen.Id(recv).Op("*").Add(builderTypeRef(cfg)))
	}
	fn = fn.Id(cfg.BuildName).Params().Params(structTypeRef(cfg), jen.Error())

	fn.BlockFunc(func(g *jen.Group) {
		// 整体校验钩子在所有字段处理前执行
		if cfg.BuildValidate != nil {
			arg := jen.Id(recv)
			if cfg.Pattern == StyleOwned {
				arg = jen.Op("&").Id(recv)
			}
			g.If(
				jen.Err().Op(":=").Add(funcRefCode(cfg.BuildValidate, cfg.Imports)).Call(arg),
				jen.Err().Op("!=").Nil(),
			).Block(
				jen.Return(structTypeRef(cfg).Values(), wrapErr(jen.Err())),
			)
		}

		for _, fl := range cfg.Fields {
			emitBuildField(g, cfg, fl, recv, wrapErr)
		}

		// 构造目标结构体
		dict := jen.Dict{}
		for _, fl := range cfg.Fields {
			dict[jen.Id(fl.Name)] = jen.Id(localVarName(fl.Name, recv))
		}
		g.Return(structTypeRef(cfg).Values(dict), jen.Nil())
	})
}

// emitBuildField 生成单个字段的取值、默认值、transform 与 validate 逻辑
func emitBuildField(g *jen.Group, cfg *ResolvedConfig, fl *ResolvedFieldConfig, recv string, wrapErr func(jen.Code) jen.Code) {
	local := localVarName(fl.Name, recv)

	uninitErr := func() jen.Code {
		return wrapErr(jen.Op("&").Id("UninitializedFieldError").Values(jen.Dict{
			jen.Id("Field"): jen.Lit(fl.Name),
		}))
	}

	switch fl.Repr {
	case ReprWrapped:
		if fl.Required {
			g.If(jen.Id(recv).Dot(fl.BuilderField).Op("==").Nil()).Block(
				jen.Return(structTypeRef(cfg).Values(), uninitErr()),
			)
			g.Id(local).Op(":=").Op("*").Id(recv).Dot(fl.BuilderField)
		} else {
			g.Var().Id(local).Add(typeCode(fl.Type, cfg.Imports))
			stmt := g.If(jen.Id(recv).Dot(fl.BuilderField).Op("!=").Nil()).Block(
				jen.Id(local).Op("=").Op("*").Id(recv).Dot(fl.BuilderField),
			)
			if fl.DefaultExpr != "" {
				stmt.Else().Block(
					jen.Id(local).Op("=").Add(typeCode(fl.DefaultExpr, cfg.Imports)),
				)
			}
		}

	case ReprPointer:
		if fl.Required {
			g.If(jen.Id(recv).Dot(fl.BuilderField).Op("==").Nil()).Block(
				jen.Return(structTypeRef(cfg).Values(), uninitErr()),
			)
		}
		g.Id(local).Op(":=").Id(recv).Dot(fl.BuilderField)
		if !fl.Required && fl.DefaultExpr != "" {
			g.If(jen.Id(local).Op("==").Nil()).Block(
				jen.Id(local).Op("=").Add(typeCode(fl.DefaultExpr, cfg.Imports)),
			)
		}

	case ReprPlain:
		// 跳过 setter 的字段总是代入默认值
		if fl.DefaultExpr != "" {
			g.Id(local).Op(":=").Add(typeCode(fl.DefaultExpr, cfg.Imports))
		} else {
			g.Var().Id(local).Add(typeCode(fl.Type, cfg.Imports))
		}
	}

	if fl.Transform != nil {
		g.Id(local).Op("=").Add(funcRefCode(fl.Transform, cfg.Imports)).Call(jen.Id(local))
	}

	if fl.Validate != nil {
		g.If(
			jen.Err().Op(":=").Add(funcRefCode(fl.Validate, cfg.Imports)).Call(jen.Id(local)),
			jen.Err().Op("!=").Nil(),
		).Block(
			jen.Return(structTypeRef(cfg).Values(), wrapErr(jen.Op("&").Id("FieldValidationError").Values(jen.Dict{
				jen.Id("Field"): jen.Lit(fl.Name),
				jen.Id("Err"):   jen.Err(),
			}))),
		)
	}
}

// emitToBuilder 生成目标结构体到 builder 的逆向转换
func emitToBuilder(f *jen.File, cfg *ResolvedConfig) {
	if !cfg.ToBuilder {
		return
	}
	name := utils.ExportCase("ToBuilder", cfg.Exported)
	recv := utils.ReceiverName(cfg.StructName)
	if recv == "b" || recv == "x" {
		recv = "v"
	}

	f.Commentf("%s 从现有值生成预填充的 %s", name, cfg.BuilderName)
	fn := f.Func().Params(jen.Id(recv).Add(structTypeRef(cfg))).Id(name).Params()
	if cfg.Pattern == StyleOwned {
		fn = fn.Add(builderTypeRef(cfg))
	} else {
		fn = fn.Op("*").Add(builderTypeRef(cfg))
	}

	fn.BlockFunc(func(g *jen.Group) {
		if cfg.Pattern == StyleOwned {
			g.Id("b").Op(":=").Add(builderTypeRef(cfg).Values())
		} else {
			g.Id("b").Op(":=").Op("&").Add(builderTypeRef(cfg).Values())
		}
		for _, fl := range cfg.SetterFields() {
			switch fl.Repr {
			case ReprWrapped:
				// 逐字段复制到局部变量再取地址
				local := localVarName(fl.Name, recv)
				g.Id(local).Op(":=").Id(recv).Dot(fl.Name)
				g.Id("b").Dot(fl.BuilderField).Op("=").Op("&").Id(local)
			case ReprPointer:
				g.Id("b").Dot(fl.BuilderField).Op("=").Id(recv).Dot(fl.Name)
			}
		}
		g.Return(jen.Id("b"))
	})
}

// emitClone 生成 builder 的深拷贝方法，指针单元逐个复制
func emitClone(f *jen.File, cfg *ResolvedConfig) {
	if !cfg.DeriveClone {
		return
	}
	recv := receiverName(cfg)
	cloned := "c"
	if recv == "c" {
		cloned = "cloned"
	}

	f.Commentf("Clone 深拷贝 %s，指针单元逐个复制", cfg.BuilderName)
	fn := f.Func()
	if cfg.Pattern == StyleOwned {
		fn = fn.Params(jen.Id(recv).Add(builderTypeRef(cfg))).Id("Clone").Params().Add(builderTypeRef(cfg))
	} else {
		fn = fn.Params(jen.Id(recv).Op("*").Add(builderTypeRef(cfg))).Id("Clone").Params().Op("*").Add(builderTypeRef(cfg))
	}

	fn.BlockFunc(func(g *jen.Group) {
		if cfg.Pattern == StyleOwned {
			g.Id(cloned).Op(":=").Id(recv)
		} else {
			g.Id(cloned).Op(":=").Op("*").Id(recv)
		}
		for _, fl := range cfg.Fields {
			if fl.Repr == ReprPlain {
				continue
			}
			g.If(jen.Id(recv).Dot(fl.BuilderField).Op("!=").Nil()).Block(
				jen.Id("x").Op(":=").Op("*").Id(recv).Dot(fl.BuilderField),
				jen.Id(cloned).Dot(fl.BuilderField).Op("=").Op("&").Id("x"),
			)
		}
		if cfg.Pattern == StyleOwned {
			g.Return(jen.Id(cloned))
		} else {
			g.Return(jen.Op("&").Id(cloned))
		}
	})
}

// emitString 生成 builder 的 String 方法，逐字段展示设置状态
func emitString(f *jen.File, cfg *ResolvedConfig) {
	if !cfg.DeriveString {
		return
	}
	recv := receiverName(cfg)

	f.Commentf("String 返回 %s 各字段的设置状态", cfg.BuilderName)
	fn := f.Func()
	if cfg.Pattern == StyleOwned {
		fn = fn.Params(jen.Id(recv).Add(builderTypeRef(cfg)))
	} else {
		fn = fn.Params(jen.Id(recv).Op("*").Add(builderTypeRef(cfg)))
	}
	fn = fn.Id("String").Params().String()

	fn.BlockFunc(func(g *jen.Group) {
		g.Var().Id("sb").Qual("strings", "Builder")
		g.Id("sb").Dot("WriteString").Call(jen.Lit(cfg.BuilderName + "("))
		first := true
		for _, fl := range cfg.SetterFields() {
			prefix := ", "
			if first {
				prefix = ""
				first = false
			}
			g.If(jen.Id(recv).Dot(fl.BuilderField).Op("!=").Nil()).Block(
				jen.Id("sb").Dot("WriteString").Call(
					jen.Qual("fmt", "Sprintf").Call(jen.Lit(prefix+fl.Name+"=%v"), jen.Op("*").Id(recv).Dot(fl.BuilderField)),
				),
			).Else().Block(
				jen.Id("sb").Dot("WriteString").Call(jen.Lit(prefix + fl.Name + "=<unset>")),
			)
		}
		g.Id("sb").Dot("WriteString").Call(jen.Lit(")"))
		g.Return(jen.Id("sb").Dot("String").Call())
	})
}
