package structparse

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"strings"
)

// Parse 解析指定文件中的结构体，并提取 @<marker>(...) 注解的原始参数文本
// 目标不是结构体（接口、别名等）时返回错误
func Parse(filename, structName, marker string) (*StructInput, error) {
	fset := token.NewFileSet()
	node, err := parser.ParseFile(fset, filename, nil, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("解析文件失败: %w", err)
	}

	input := &StructInput{
		Name:        structName,
		PackageName: node.Name.Name,
		FilePath:    filename,
		Exported:    ast.IsExported(structName),
		Imports:     collectImports(node),
	}

	var typeSpec *ast.TypeSpec
	var docText string
	for _, decl := range node.Decls {
		genDecl, ok := decl.(*ast.GenDecl)
		if !ok || genDecl.Tok != token.TYPE {
			continue
		}
		for _, spec := range genDecl.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok || ts.Name.Name != structName {
				continue
			}
			typeSpec = ts
			// 文档注释优先取 TypeSpec 自己的，其次取所属 GenDecl 的
			if ts.Doc != nil {
				docText = ts.Doc.Text()
			} else if genDecl.Doc != nil {
				docText = genDecl.Doc.Text()
			}
		}
	}

	if typeSpec == nil {
		return nil, fmt.Errorf("未找到类型 %s", structName)
	}

	structType, ok := typeSpec.Type.(*ast.StructType)
	if !ok {
		return nil, fmt.Errorf("类型 %s 不是结构体，无法生成 builder", structName)
	}

	input.Pos = fset.Position(typeSpec.Pos())
	input.Doc = docText
	input.Attr, input.HasAttr = ExtractMarker(docText, marker)
	input.TypeParams = parseTypeParams(fset, typeSpec.TypeParams)

	fields, err := parseFields(fset, structType.Fields.List, marker)
	if err != nil {
		return nil, err
	}
	input.Fields = fields

	return input, nil
}

// collectImports 收集文件导入表，key 为包在文件中的引用名
// 未加别名时取导入路径末段作为引用名（与绝大多数包的实际包名一致）
func collectImports(file *ast.File) map[string]*ImportInfo {
	imports := make(map[string]*ImportInfo)
	for _, imp := range file.Imports {
		path := strings.Trim(imp.Path.Value, `"`)
		info := &ImportInfo{ImportPath: path}
		if imp.Name != nil {
			info.Alias = imp.Name.Name
			info.PackageName = imp.Name.Name
		} else {
			if idx := strings.LastIndex(path, "/"); idx >= 0 {
				info.PackageName = path[idx+1:]
			} else {
				info.PackageName = path
			}
		}
		if info.PackageName == "_" || info.PackageName == "." {
			continue
		}
		imports[info.PackageName] = info
	}
	return imports
}

// parseTypeParams 解析泛型类型参数列表
func parseTypeParams(fset *token.FileSet, list *ast.FieldList) []TypeParam {
	if list == nil {
		return nil
	}
	var params []TypeParam
	for _, field := range list.List {
		constraint := exprText(fset, field.Type)
		for _, name := range field.Names {
			params = append(params, TypeParam{Name: name.Name, Constraint: constraint})
		}
	}
	return params
}

// parseFields 解析字段列表，保留声明顺序
func parseFields(fset *token.FileSet, list []*ast.Field, marker string) ([]FieldInput, error) {
	var fields []FieldInput
	for _, field := range list {
		typeText := exprText(fset, field.Type)

		var docText string
		if field.Doc != nil {
			docText = field.Doc.Text()
		}
		var tag string
		if field.Tag != nil {
			tag = field.Tag.Value
		}
		attr, hasAttr := ExtractMarker(docText, marker)

		if len(field.Names) == 0 {
			// 匿名嵌入字段按类型基名处理，setter 整体赋值
			name := embeddedFieldName(field.Type)
			if name == "" {
				return nil, fmt.Errorf("无法识别的嵌入字段类型: %s", typeText)
			}
			fields = append(fields, FieldInput{
				Name:     name,
				Type:     typeText,
				Exported: ast.IsExported(name),
				Embedded: true,
				Doc:      docText,
				Tag:      tag,
				Attr:     attr,
				HasAttr:  hasAttr,
				Pos:      fset.Position(field.Pos()),
			})
			continue
		}

		for _, name := range field.Names {
			if name.Name == "_" {
				continue
			}
			fields = append(fields, FieldInput{
				Name:     name.Name,
				Type:     typeText,
				Exported: ast.IsExported(name.Name),
				Doc:      docText,
				Tag:      tag,
				Attr:     attr,
				HasAttr:  hasAttr,
				Pos:      fset.Position(name.Pos()),
			})
		}
	}
	return fields, nil
}

// embeddedFieldName 提取嵌入字段的隐式字段名
func embeddedFieldName(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name
	case *ast.StarExpr:
		return embeddedFieldName(e.X)
	case *ast.SelectorExpr:
		return e.Sel.Name
	case *ast.IndexExpr:
		return embeddedFieldName(e.X)
	case *ast.IndexListExpr:
		return embeddedFieldName(e.X)
	default:
		return ""
	}
}

// exprText 渲染类型表达式的源码文本
func exprText(fset *token.FileSet, expr ast.Expr) string {
	var buf bytes.Buffer
	if err := printer.Fprint(&buf, fset, expr); err != nil {
		return ""
	}
	return buf.String()
}
