package buildergen

import (
	"go/ast"
	"go/parser"

	"github.com/dave/jennifer/jen"

	"github.com/donutnomad/buildergen/internal/structparse"
)

// typeCode 把字段类型的源码文本转换为 jennifer 代码
// 跨包引用通过源文件导入表解析为 jen.Qual，保证输出文件的 import 正确
// 无法解析的表达式按原文本输出
func typeCode(typeStr string, imports map[string]*structparse.ImportInfo) jen.Code {
	expr, err := parser.ParseExpr(typeStr)
	if err != nil {
		return jen.Id(typeStr)
	}
	return exprCode(expr, typeStr, imports)
}

// exprCode 递归转换类型表达式
func exprCode(expr ast.Expr, raw string, imports map[string]*structparse.ImportInfo) jen.Code {
	switch e := expr.(type) {
	case *ast.Ident:
		return jen.Id(e.Name)

	case *ast.SelectorExpr:
		if pkg, ok := e.X.(*ast.Ident); ok {
			if imp, found := imports[pkg.Name]; found {
				return jen.Qual(imp.ImportPath, e.Sel.Name)
			}
			return jen.Id(pkg.Name).Dot(e.Sel.Name)
		}
		return jen.Id(raw)

	case *ast.StarExpr:
		return jen.Op("*").Add(exprCode(e.X, raw, imports))

	case *ast.ArrayType:
		if e.Len == nil {
			return jen.Index().Add(exprCode(e.Elt, raw, imports))
		}
		return jen.Index(exprCode(e.Len, raw, imports)).Add(exprCode(e.Elt, raw, imports))

	case *ast.BasicLit:
		return jen.Id(e.Value)

	case *ast.MapType:
		return jen.Map(exprCode(e.Key, raw, imports)).Add(exprCode(e.Value, raw, imports))

	case *ast.ChanType:
		switch e.Dir {
		case ast.RECV:
			return jen.Op("<-").Chan().Add(exprCode(e.Value, raw, imports))
		case ast.SEND:
			return jen.Chan().Op("<-").Add(exprCode(e.Value, raw, imports))
		default:
			return jen.Chan().Add(exprCode(e.Value, raw, imports))
		}

	case *ast.FuncType:
		return funcTypeCode(e, raw, imports)

	case *ast.InterfaceType:
		if e.Methods == nil || len(e.Methods.List) == 0 {
			return jen.Interface()
		}
		return jen.Id(raw)

	case *ast.IndexExpr:
		// 泛型实例化，如 List[T]
		return jen.Add(exprCode(e.X, raw, imports)).Index(exprCode(e.Index, raw, imports))

	case *ast.IndexListExpr:
		args := make([]jen.Code, 0, len(e.Indices))
		for _, idx := range e.Indices {
			args = append(args, exprCode(idx, raw, imports))
		}
		return jen.Add(exprCode(e.X, raw, imports)).Index(args...)

	case *ast.CallExpr:
		// 默认值表达式里的调用，如 time.Now()
		args := make([]jen.Code, 0, len(e.Args))
		for _, a := range e.Args {
			args = append(args, exprCode(a, raw, imports))
		}
		return jen.Add(exprCode(e.Fun, raw, imports)).Call(args...)

	case *ast.Ellipsis:
		return jen.Op("...").Add(exprCode(e.Elt, raw, imports))

	default:
		// 匿名结构体等复杂类型按原文本输出
		return jen.Id(raw)
	}
}

// funcTypeCode 转换函数类型
func funcTypeCode(e *ast.FuncType, raw string, imports map[string]*structparse.ImportInfo) jen.Code {
	params := fieldListCode(e.Params, raw, imports)
	stmt := jen.Func().Params(params...)

	if e.Results == nil || len(e.Results.List) == 0 {
		return stmt
	}
	results := fieldListCode(e.Results, raw, imports)
	if len(results) == 1 && len(e.Results.List[0].Names) == 0 {
		return stmt.Add(results[0])
	}
	return stmt.Params(results...)
}

func fieldListCode(list *ast.FieldList, raw string, imports map[string]*structparse.ImportInfo) []jen.Code {
	if list == nil {
		return nil
	}
	var codes []jen.Code
	for _, field := range list.List {
		if len(field.Names) == 0 {
			codes = append(codes, exprCode(field.Type, raw, imports))
			continue
		}
		// 同一声明的多个参数名各自生成类型代码，避免语法树节点复用
		for _, name := range field.Names {
			codes = append(codes, jen.Id(name.Name).Add(exprCode(field.Type, raw, imports)))
		}
	}
	return codes
}

// funcRefCode 把函数引用转换为 jennifer 调用目标
func funcRefCode(ref *FuncRef, imports map[string]*structparse.ImportInfo) *jen.Statement {
	if ref.Pkg == "" {
		return jen.Id(ref.Name)
	}
	if imp, ok := imports[ref.Pkg]; ok {
		return jen.Qual(imp.ImportPath, ref.Name)
	}
	return jen.Id(ref.Pkg).Dot(ref.Name)
}
